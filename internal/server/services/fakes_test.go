package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/bakehouse/internal/common"
	"github.com/dmitrijs2005/bakehouse/internal/dbx"
	"github.com/dmitrijs2005/bakehouse/internal/logging"
	"github.com/dmitrijs2005/bakehouse/internal/server/auth"
	"github.com/dmitrijs2005/bakehouse/internal/server/models"
	"github.com/dmitrijs2005/bakehouse/internal/server/repositories/accesslogs"
	"github.com/dmitrijs2005/bakehouse/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// fakeUsersRepo is an in-memory users.Repository keyed by username.
type fakeUsersRepo struct {
	mu     sync.Mutex
	byName map[string]*models.User
	nextID int

	getErr      error
	createErr   error
	updateErr   error
	stateErr    error
	incErr      error
	successErr  error
	createCalls int
	updateCalls int
	getCalls    int
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byName: map[string]*models.User{}}
}

func (f *fakeUsersRepo) put(u *models.User) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == "" {
		f.nextID++
		u.ID = fmt.Sprintf("00000000-0000-4000-8000-%012d", f.nextID)
	}
	f.byName[u.Username] = u
	return u
}

func (f *fakeUsersRepo) get(username string) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byName[username]
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.get(u.Username) != nil {
		return nil, common.ErrorAlreadyExists
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	f.put(&cp)
	u.ID = cp.ID
	return u, nil
}

func (f *fakeUsersRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	u := f.get(username)
	if u == nil {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byName {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) List(ctx context.Context) ([]*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.User
	for _, u := range f.byName {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeUsersRepo) Count(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byName), nil
}

func (f *fakeUsersRepo) Update(ctx context.Context, u *models.User) (*models.User, error) {
	f.updateCalls++
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for name, existing := range f.byName {
		if existing.ID == u.ID {
			delete(f.byName, name)
			cp := *u
			f.byName[u.Username] = &cp
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) UpdatePassword(ctx context.Context, id string, hash string) error {
	f.updateCalls++
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byName {
		if u.ID == id {
			u.PasswordHash = hash
			return nil
		}
	}
	return common.ErrorNotFound
}

func (f *fakeUsersRepo) GetLoginState(ctx context.Context, username string) (*models.LoginState, error) {
	if f.stateErr != nil {
		return nil, f.stateErr
	}
	u := f.get(username)
	if u == nil {
		return nil, common.ErrorNotFound
	}
	return &models.LoginState{LoginAttempts: u.LoginAttempts, LockedUntil: u.LockedUntil}, nil
}

func (f *fakeUsersRepo) ResetLoginAttempts(ctx context.Context, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u := f.byName[username]; u != nil {
		u.LoginAttempts = 0
		u.LockedUntil = nil
	}
	return nil
}

func (f *fakeUsersRepo) IncrementLoginAttempts(ctx context.Context, username string, max int, lockUntil time.Time) (int, error) {
	if f.incErr != nil {
		return 0, f.incErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.byName[username]
	if u == nil {
		return 0, common.ErrorNotFound
	}
	u.LoginAttempts++
	if u.LoginAttempts >= max {
		t := lockUntil
		u.LockedUntil = &t
	}
	return u.LoginAttempts, nil
}

func (f *fakeUsersRepo) RecordSuccessfulLogin(ctx context.Context, username string, at time.Time) error {
	if f.successErr != nil {
		return f.successErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if u := f.byName[username]; u != nil {
		u.LoginAttempts = 0
		u.LockedUntil = nil
		t := at
		u.LastLogin = &t
	}
	return nil
}

type fakeAccessLogs struct {
	mu        sync.Mutex
	entries   []*models.AccessLogEntry
	createErr error
	listErr   error
	lastLimit int
}

func (f *fakeAccessLogs) Create(ctx context.Context, e *models.AccessLogEntry) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeAccessLogs) ListRecent(ctx context.Context, limit int) ([]*models.AccessLogEntry, error) {
	f.lastLimit = limit
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.entries, nil
}

func (f *fakeAccessLogs) last() *models.AccessLogEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.entries) == 0 {
		return nil
	}
	return f.entries[len(f.entries)-1]
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	a *fakeAccessLogs
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository           { return m.u }
func (m *fakeRepoManager) AccessLogs(db dbx.DBTX) accesslogs.Repository { return m.a }

// warnRecorder counts Warn calls.
type warnRecorder struct {
	logging.Logger
	mu    sync.Mutex
	warns []string
}

func (w *warnRecorder) Warn(ctx context.Context, msg string, args ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.warns = append(w.warns, msg)
}

func (w *warnRecorder) With(args ...any) logging.Logger { return w }

type fixture struct {
	svc   *AuthService
	users *fakeUsersRepo
	logs  *fakeAccessLogs
	mock  sqlmock.Sqlmock
	db    *sql.DB
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithLogger(t, logging.Nop())
}

func newFixtureWithLogger(t *testing.T, logger logging.Logger) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		users: newFakeUsersRepo(),
		logs:  &fakeAccessLogs{},
		mock:  mock,
		db:    db,
		now:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	rm := &fakeRepoManager{u: f.users, a: f.logs}
	f.svc = NewAuthService(db, rm, auth.NewTokenService([]byte("test-secret"), 24*time.Hour), auth.NewHasher(bcrypt.MinCost), logger)
	f.svc.governor.now = func() time.Time { return f.now }
	return f
}

// seed stores a user with the given plaintext password.
func (f *fixture) seed(t *testing.T, username, password string, role models.Role) *models.User {
	t.Helper()
	hash, err := f.svc.hasher.Hash(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &models.User{Username: username, PasswordHash: hash, Role: role, IsActive: true}
	return f.users.put(u)
}

func identityOf(u *models.User) *auth.Identity {
	return &auth.Identity{UserID: u.ID, Username: u.Username, Role: u.Role}
}

func isCode(err error, code ErrorCode) bool {
	var ae *AuthError
	return errors.As(err, &ae) && ae.Code == code
}
