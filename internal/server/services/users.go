package services

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/bakehouse/internal/common"
	"github.com/dmitrijs2005/bakehouse/internal/dbx"
	"github.com/dmitrijs2005/bakehouse/internal/server/auth"
	"github.com/dmitrijs2005/bakehouse/internal/server/models"
	"github.com/google/uuid"
)

// MaxUsers caps the number of admin accounts.
const MaxUsers = 2

const (
	defaultAccessLogLimit = 100
	maxAccessLogLimit     = 500
)

var (
	ErrSelfDeactivation = &AuthError{Code: CodeUnauthorized, Message: "You cannot deactivate your own account"}
	ErrSelfDemotion     = &AuthError{Code: CodeUnauthorized, Message: "You cannot remove your own superadmin role"}
	ErrAlreadySeeded    = &AuthError{Code: CodeUserExists, Message: "Users already exist"}
)

type CreateUserInput struct {
	Username string
	Password string
	Role     models.Role
}

// UpdateUserInput carries the fields to change; nil fields are left as they are.
type UpdateUserInput struct {
	Username *string
	Password *string
	Role     *models.Role
	IsActive *bool
}

// CreateUser adds an account on behalf of a superadmin. The duplicate check,
// the MaxUsers check and the insert run in one transaction.
func (s *AuthService) CreateUser(ctx context.Context, in CreateUserInput, actor *auth.Identity, meta RequestMeta) (*models.User, error) {
	if !actor.IsSuperAdmin() {
		return nil, ErrUnauthorized
	}

	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.Password == "" {
		return nil, validationError("Username and password are required")
	}
	if in.Role == "" {
		in.Role = models.RoleAdmin
	}
	if !in.Role.Valid() {
		return nil, validationError("Invalid role")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, s.internal(ctx, "password hash failed", err)
	}

	user := &models.User{Username: in.Username, PasswordHash: hash, Role: in.Role, IsActive: true}
	if err := s.insertUser(ctx, user, MaxUsers, ErrUserLimitReached); err != nil {
		return nil, err
	}

	s.audit.record(ctx, models.ActionUserCreated, actor.UserID, actor.Username, meta, true, "created "+user.Username)
	s.logger.Info(ctx, "user created", "username", user.Username, "role", user.Role, "by", actor.Username)
	return user, nil
}

// insertUser creates user unless its username is taken or limit accounts
// already exist, in which case limitErr is returned.
func (s *AuthService) insertUser(ctx context.Context, user *models.User, limit int, limitErr *AuthError) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		if _, err := repo.GetByUsername(ctx, user.Username); err == nil {
			return ErrUserExists
		} else if !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		n, err := repo.Count(ctx)
		if err != nil {
			return err
		}
		if n >= limit {
			return limitErr
		}

		_, err = repo.Create(ctx, user)
		return err
	})

	var ae *AuthError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ae):
		return ae
	case errors.Is(err, common.ErrorAlreadyExists):
		return ErrUserExists
	}
	return s.internal(ctx, "user insert failed", err)
}

// UpdateUser applies in to user id. Non-superadmins may only edit their own
// username and password. A superadmin may not deactivate or demote itself.
func (s *AuthService) UpdateUser(ctx context.Context, id string, in UpdateUserInput, actor *auth.Identity, meta RequestMeta) (*models.User, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	self := actor.UserID == id
	if !actor.IsSuperAdmin() && (!self || in.IsActive != nil || in.Role != nil) {
		return nil, ErrUnauthorized
	}
	if self && in.IsActive != nil && !*in.IsActive {
		return nil, ErrSelfDeactivation
	}
	if self && in.Role != nil && *in.Role != models.RoleSuperAdmin {
		return nil, ErrSelfDemotion
	}

	if in.Username != nil && strings.TrimSpace(*in.Username) == "" {
		return nil, validationError("Username must not be empty")
	}
	if in.Password != nil && *in.Password == "" {
		return nil, validationError("Password must not be empty")
	}
	if in.Role != nil && !in.Role.Valid() {
		return nil, validationError("Invalid role")
	}

	if !validUserID(id) {
		return nil, ErrNotFound
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, ErrNotFound
		}
		return nil, s.internal(ctx, "user lookup failed", err)
	}

	var changed []string
	if in.Username != nil {
		user.Username = strings.TrimSpace(*in.Username)
		changed = append(changed, "username")
	}
	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, s.internal(ctx, "password hash failed", err)
		}
		user.PasswordHash = hash
		changed = append(changed, "password")
	}
	if in.Role != nil {
		user.Role = *in.Role
		changed = append(changed, "role")
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
		changed = append(changed, "is_active")
	}

	if _, err := repo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, common.ErrorNotFound):
			return nil, ErrNotFound
		case errors.Is(err, common.ErrorAlreadyExists):
			return nil, ErrUserExists
		}
		return nil, s.internal(ctx, "user update failed", err)
	}

	s.audit.record(ctx, models.ActionUserUpdated, actor.UserID, actor.Username, meta, true,
		user.Username+": "+strings.Join(changed, ","))
	return user, nil
}

// DeactivateUser is the soft delete of the admin surface.
func (s *AuthService) DeactivateUser(ctx context.Context, id string, actor *auth.Identity, meta RequestMeta) (*models.User, error) {
	if !actor.IsSuperAdmin() {
		return nil, ErrUnauthorized
	}
	inactive := false
	return s.UpdateUser(ctx, id, UpdateUserInput{IsActive: &inactive}, actor, meta)
}

func (s *AuthService) ListUsers(ctx context.Context, actor *auth.Identity) ([]*models.User, error) {
	if !actor.IsSuperAdmin() {
		return nil, ErrUnauthorized
	}
	users, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		return nil, s.internal(ctx, "user list failed", err)
	}
	return users, nil
}

// GetUser returns user id. Non-superadmins may only read themselves.
func (s *AuthService) GetUser(ctx context.Context, id string, actor *auth.Identity) (*models.User, error) {
	if actor == nil || (!actor.IsSuperAdmin() && actor.UserID != id) {
		return nil, ErrUnauthorized
	}
	if !validUserID(id) {
		return nil, ErrNotFound
	}
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, ErrNotFound
		}
		return nil, s.internal(ctx, "user lookup failed", err)
	}
	return user, nil
}

// validUserID reports whether id can name a stored account; ids are UUIDs.
func validUserID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// RecentAccessLogs returns the newest access log entries. limit is clamped
// to [1, 500]; zero or less means 100.
func (s *AuthService) RecentAccessLogs(ctx context.Context, limit int, actor *auth.Identity) ([]*models.AccessLogEntry, error) {
	if !actor.IsSuperAdmin() {
		return nil, ErrUnauthorized
	}
	switch {
	case limit <= 0:
		limit = defaultAccessLogLimit
	case limit > maxAccessLogLimit:
		limit = maxAccessLogLimit
	}
	entries, err := s.repomanager.AccessLogs(s.db).ListRecent(ctx, limit)
	if err != nil {
		return nil, s.internal(ctx, "access log read failed", err)
	}
	return entries, nil
}

// Bootstrap creates the first superadmin. It fails with ErrAlreadySeeded once
// any account exists.
func (s *AuthService) Bootstrap(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, validationError("Username and password are required")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, s.internal(ctx, "password hash failed", err)
	}

	user := &models.User{Username: username, PasswordHash: hash, Role: models.RoleSuperAdmin, IsActive: true}
	if err := s.insertUser(ctx, user, 1, ErrAlreadySeeded); err != nil {
		return nil, err
	}

	s.audit.record(ctx, models.ActionUserCreated, user.ID, user.Username, RequestMeta{}, true, "bootstrap")
	s.logger.Info(ctx, "superadmin bootstrapped", "username", user.Username)
	return user, nil
}
