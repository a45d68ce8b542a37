// Package services contains the server-side business logic of the admin
// back-office. AuthService orchestrates login, session lookup and the
// lifecycle of the admin accounts; LoginGovernor throttles password guessing.
package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/bakehouse/internal/common"
	"github.com/dmitrijs2005/bakehouse/internal/logging"
	"github.com/dmitrijs2005/bakehouse/internal/server/auth"
	"github.com/dmitrijs2005/bakehouse/internal/server/models"
	"github.com/dmitrijs2005/bakehouse/internal/server/repositories/repomanager"
)

// LoginResult is returned by a successful Authenticate.
type LoginResult struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

// SessionInfo describes the live user behind a session token.
type SessionInfo struct {
	User      *models.User
	ExpiresAt time.Time
}

type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *auth.Hasher
	tokens      *auth.TokenService
	governor    *LoginGovernor
	audit       *auditRecorder
	logger      logging.Logger
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, tokens *auth.TokenService, hasher *auth.Hasher, logger logging.Logger) *AuthService {
	logger = logger.With("module", "auth")
	return &AuthService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		governor:    NewLoginGovernor(db, m),
		audit:       &auditRecorder{db: db, repomanager: m, logger: logger},
		logger:      logger,
	}
}

// Authenticate checks credentials and issues a session token.
//
// The lockout check runs before the user lookup, so a locked username never
// reveals whether the password was right. Unknown usernames and wrong
// passwords both yield ErrInvalidCredentials. Lookups use the trimmed
// username; failed attempts are audited under the username as submitted.
func (s *AuthService) Authenticate(ctx context.Context, submitted, password string, meta RequestMeta) (*LoginResult, error) {
	username := strings.TrimSpace(submitted)
	if username == "" || password == "" {
		return nil, validationError("Username and password are required")
	}

	allowed, err := s.governor.CanAttempt(ctx, username)
	if err != nil {
		return nil, s.internal(ctx, "lockout check failed", err)
	}
	if !allowed {
		s.audit.record(ctx, models.ActionLoginFailed, "", submitted, meta, false, "locked")
		return nil, ErrUserLocked
	}

	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.audit.record(ctx, models.ActionLoginFailed, "", submitted, meta, false, "user not found")
			return nil, ErrInvalidCredentials
		}
		return nil, s.internal(ctx, "user lookup failed", err)
	}

	if !user.IsActive {
		s.audit.record(ctx, models.ActionLoginFailed, user.ID, submitted, meta, false, "inactive")
		return nil, ErrUserInactive
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		attempts, err := s.governor.RecordFailure(ctx, username)
		if err != nil {
			return nil, s.internal(ctx, "recording failed attempt", err)
		}
		if attempts >= MaxLoginAttempts {
			s.logger.Warn(ctx, "username locked", "username", username, "ip", meta.IP, "attempts", attempts)
		}
		s.audit.record(ctx, models.ActionLoginFailed, user.ID, submitted, meta, false, "invalid password")
		return nil, ErrInvalidCredentials
	}

	if err := s.governor.RecordSuccess(ctx, username); err != nil {
		return nil, s.internal(ctx, "recording successful login", err)
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, s.internal(ctx, "token issue failed", err)
	}

	user.LoginAttempts = 0
	user.LockedUntil = nil
	s.audit.record(ctx, models.ActionLogin, user.ID, user.Username, meta, true, "")
	s.logger.Info(ctx, "login succeeded", "username", user.Username, "ip", meta.IP)

	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// ChangePassword replaces the password of user id after checking the current
// one. A wrong current password is audited but does not count towards the
// login lockout.
func (s *AuthService) ChangePassword(ctx context.Context, id, currentPassword, newPassword string, meta RequestMeta) error {
	if currentPassword == "" || newPassword == "" {
		return validationError("Current and new password are required")
	}
	if !validUserID(id) {
		return ErrNotFound
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return ErrNotFound
		}
		return s.internal(ctx, "user lookup failed", err)
	}

	if !s.hasher.Verify(currentPassword, user.PasswordHash) {
		s.audit.record(ctx, models.ActionPasswordChange, user.ID, user.Username, meta, false, "invalid current password")
		return ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return s.internal(ctx, "password hash failed", err)
	}
	if err := repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return s.internal(ctx, "password update failed", err)
	}

	s.audit.record(ctx, models.ActionPasswordChange, user.ID, user.Username, meta, true, "")
	return nil
}

// Logout records the end of a session. Without an identity there is nothing
// to record; the caller clears the cookie either way.
func (s *AuthService) Logout(ctx context.Context, id *auth.Identity, meta RequestMeta) {
	if id == nil {
		return
	}
	s.audit.record(ctx, models.ActionLogout, id.UserID, id.Username, meta, true, "")
}

// Session resolves a token to the live, active user it was issued for.
func (s *AuthService) Session(ctx context.Context, token string) (*SessionInfo, error) {
	claims := s.tokens.Verify(token)
	if claims == nil || !validUserID(claims.UserID) {
		return nil, ErrInvalidToken
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, s.internal(ctx, "user lookup failed", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidToken
	}

	return &SessionInfo{User: user, ExpiresAt: claims.Expiry()}, nil
}

// CurrentUser re-reads the account behind an identity. Role-gated routes use
// it instead of trusting the role baked into the token.
func (s *AuthService) CurrentUser(ctx context.Context, id string) (*models.User, error) {
	if !validUserID(id) {
		return nil, ErrUnauthorized
	}
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, s.internal(ctx, "user lookup failed", err)
	}
	if !user.IsActive {
		return nil, ErrUnauthorized
	}
	return user, nil
}

// VerifyToken exposes token verification to the transport guards.
func (s *AuthService) VerifyToken(token string) *auth.Claims {
	return s.tokens.Verify(token)
}

// TokenValidity is the lifetime of issued session tokens.
func (s *AuthService) TokenValidity() time.Duration {
	return s.tokens.Validity()
}

func (s *AuthService) internal(ctx context.Context, msg string, err error) error {
	s.logger.Error(ctx, msg, "error", err)
	return ErrInternal
}
