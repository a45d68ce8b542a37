package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/bakehouse/internal/common"
	"github.com/dmitrijs2005/bakehouse/internal/server/repositories/repomanager"
)

const (
	MaxLoginAttempts = 5
	LockoutDuration  = 15 * time.Minute
)

// LoginGovernor tracks failed logins per username and locks a username for
// LockoutDuration once it reaches MaxLoginAttempts consecutive failures.
// State lives in the users table, so every check reads the store.
type LoginGovernor struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewLoginGovernor(db *sql.DB, m repomanager.RepositoryManager) *LoginGovernor {
	return &LoginGovernor{db: db, repomanager: m, now: time.Now}
}

// CanAttempt reports whether username may try to log in now. An elapsed lock
// is cleared as a side effect. Unknown usernames are always allowed.
func (g *LoginGovernor) CanAttempt(ctx context.Context, username string) (bool, error) {
	repo := g.repomanager.Users(g.db)

	state, err := repo.GetLoginState(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return true, nil
		}
		return false, err
	}

	now := g.now()
	if state.LockedUntil != nil {
		if state.LockedUntil.After(now) {
			return false, nil
		}
		if err := repo.ResetLoginAttempts(ctx, username); err != nil {
			return false, err
		}
		return true, nil
	}

	return state.LoginAttempts < MaxLoginAttempts, nil
}

// RecordFailure counts one failed attempt and returns the new total. The
// increment and the lock decision happen in a single statement.
func (g *LoginGovernor) RecordFailure(ctx context.Context, username string) (int, error) {
	repo := g.repomanager.Users(g.db)
	return repo.IncrementLoginAttempts(ctx, username, MaxLoginAttempts, g.now().Add(LockoutDuration))
}

// RecordSuccess clears the failure history and stamps last_login.
func (g *LoginGovernor) RecordSuccess(ctx context.Context, username string) error {
	repo := g.repomanager.Users(g.db)
	return repo.RecordSuccessfulLogin(ctx, username, g.now())
}
