// Package auth holds the credential primitives of the admin surface: bcrypt
// password hashing, signed session tokens and the request identity.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/bakehouse/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of a session token.
type Claims struct {
	UserID   string      `json:"userId"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Identity returns the request identity carried by the claims.
func (c *Claims) Identity() *Identity {
	return &Identity{UserID: c.UserID, Username: c.Username, Role: c.Role}
}

// Expiry returns the expiry of the token, or the zero time when absent.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

var errEmptySecret = errors.New("token secret is empty")

// TokenService signs and verifies HS256 session tokens with a single secret
// fixed at construction.
type TokenService struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

func NewTokenService(secret []byte, validity time.Duration) *TokenService {
	return &TokenService{secret: secret, validity: validity, now: time.Now}
}

// Validity is the lifetime of issued tokens.
func (s *TokenService) Validity() time.Duration {
	return s.validity
}

// Issue signs a token for user and returns it with its expiry.
func (s *TokenService) Issue(user *models.User) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, errEmptySecret
	}

	// JWT timestamps have second precision
	now := s.now().Truncate(time.Second)
	expiresAt := now.Add(s.validity)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// Verify returns the claims of a valid, unexpired token and nil for anything
// else: malformed input, a foreign signature, a non-HMAC algorithm, a token
// past its expiry or one without a user id.
func (s *TokenService) Verify(tokenString string) *Claims {
	if tokenString == "" || len(s.secret) == 0 {
		return nil
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil
	}

	if claims.UserID == "" || !s.now().Before(claims.Expiry()) {
		return nil
	}

	return claims
}
