package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/bakehouse/internal/common"
	"github.com/dmitrijs2005/bakehouse/internal/logging"
	"github.com/dmitrijs2005/bakehouse/internal/server/auth"
	"github.com/dmitrijs2005/bakehouse/internal/server/models"
	"github.com/dmitrijs2005/bakehouse/internal/server/services"
)

var (
	rootUser  = &models.User{ID: "u-root", Username: "root", Role: models.RoleSuperAdmin, IsActive: true}
	adminUser = &models.User{ID: "u-admin", Username: "baker", Role: models.RoleAdmin, IsActive: true}
)

// fakeAuth implements AuthService with a real token service and canned
// results for everything that would touch the store.
type fakeAuth struct {
	AuthService

	mu     sync.Mutex
	tokens *auth.TokenService
	users  map[string]*models.User

	loginRes    *services.LoginResult
	loginErr    error
	lastMeta    services.RequestMeta
	logoutIDs   []*auth.Identity
	sessionErr  error
	changeErr   error
	changeCalls []string
	createErr   error
	created     []services.CreateUserInput
	updated     []services.UpdateUserInput
	deactivated []string
	logLimit    int
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{
		tokens: auth.NewTokenService([]byte("rest-secret"), 24*time.Hour),
		users:  map[string]*models.User{rootUser.ID: rootUser, adminUser.ID: adminUser},
	}
}

func (f *fakeAuth) tokenFor(t *testing.T, u *models.User) string {
	t.Helper()
	tok, _, err := f.tokens.Issue(u)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func (f *fakeAuth) Authenticate(ctx context.Context, username, password string, meta services.RequestMeta) (*services.LoginResult, error) {
	f.lastMeta = meta
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginRes, nil
}

func (f *fakeAuth) Logout(ctx context.Context, id *auth.Identity, meta services.RequestMeta) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutIDs = append(f.logoutIDs, id)
}

func (f *fakeAuth) Session(ctx context.Context, token string) (*services.SessionInfo, error) {
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	claims := f.tokens.Verify(token)
	if claims == nil {
		return nil, services.ErrInvalidToken
	}
	return &services.SessionInfo{User: f.users[claims.UserID], ExpiresAt: claims.Expiry()}, nil
}

func (f *fakeAuth) ChangePassword(ctx context.Context, id, current, next string, meta services.RequestMeta) error {
	f.changeCalls = append(f.changeCalls, id)
	return f.changeErr
}

func (f *fakeAuth) CurrentUser(ctx context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok || !u.IsActive {
		return nil, services.ErrUnauthorized
	}
	return u, nil
}

func (f *fakeAuth) VerifyToken(token string) *auth.Claims { return f.tokens.Verify(token) }
func (f *fakeAuth) TokenValidity() time.Duration          { return f.tokens.Validity() }

func (f *fakeAuth) CreateUser(ctx context.Context, in services.CreateUserInput, actor *auth.Identity, meta services.RequestMeta) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, in)
	return &models.User{ID: "u-new", Username: in.Username, Role: models.RoleAdmin, IsActive: true}, nil
}

func (f *fakeAuth) UpdateUser(ctx context.Context, id string, in services.UpdateUserInput, actor *auth.Identity, meta services.RequestMeta) (*models.User, error) {
	if !actor.IsSuperAdmin() && actor.UserID != id {
		return nil, services.ErrUnauthorized
	}
	f.updated = append(f.updated, in)
	u := *f.users[id]
	if in.Username != nil {
		u.Username = *in.Username
	}
	return &u, nil
}

func (f *fakeAuth) DeactivateUser(ctx context.Context, id string, actor *auth.Identity, meta services.RequestMeta) (*models.User, error) {
	f.deactivated = append(f.deactivated, id)
	u := *f.users[id]
	u.IsActive = false
	return &u, nil
}

func (f *fakeAuth) ListUsers(ctx context.Context, actor *auth.Identity) ([]*models.User, error) {
	return []*models.User{rootUser, adminUser}, nil
}

func (f *fakeAuth) GetUser(ctx context.Context, id string, actor *auth.Identity) (*models.User, error) {
	if !actor.IsSuperAdmin() && actor.UserID != id {
		return nil, services.ErrUnauthorized
	}
	u, ok := f.users[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	return u, nil
}

func (f *fakeAuth) RecentAccessLogs(ctx context.Context, limit int, actor *auth.Identity) ([]*models.AccessLogEntry, error) {
	f.logLimit = limit
	return nil, nil
}

type fakeImages struct {
	err error
}

func (f *fakeImages) PresignUpload(ctx context.Context, contentType string) (*services.ImageUpload, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &services.ImageUpload{Key: "products/2025/1/1/x.png", UploadURL: "http://s3/put", PublicURL: "http://cdn/x.png"}, nil
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

func newTestServer(t *testing.T) (*Server, *fakeAuth) {
	t.Helper()
	fa := newFakeAuth()
	return NewServer("127.0.0.1:0", logging.Nop(), fa, &fakeImages{}, fakePinger{}, false), fa
}

func do(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: common.AuthCookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type testEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	var env testEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return env
}

func authCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == common.AuthCookieName {
			return c
		}
	}
	return nil
}
