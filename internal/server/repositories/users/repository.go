// Package users declares the credential store contract and its PostgreSQL
// implementation.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/bakehouse/internal/server/models"
)

// Repository reads and writes admin accounts and their lockout bookkeeping.
// Lookups of absent rows return common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Count(ctx context.Context) (int, error)

	// Update persists username, password hash, role and active flag of user.
	Update(ctx context.Context, user *models.User) (*models.User, error)
	UpdatePassword(ctx context.Context, id string, passwordHash string) error

	GetLoginState(ctx context.Context, username string) (*models.LoginState, error)
	ResetLoginAttempts(ctx context.Context, username string) error

	// IncrementLoginAttempts adds one failed attempt and, when the new count
	// reaches maxAttempts, sets locked_until to lockUntil. It returns the new count.
	IncrementLoginAttempts(ctx context.Context, username string, maxAttempts int, lockUntil time.Time) (int, error)

	// RecordSuccessfulLogin clears the counters and stamps last_login.
	RecordSuccessfulLogin(ctx context.Context, username string, at time.Time) error
}
