// Package rest exposes the admin authentication API and guards the admin
// pages over HTTP.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/netip"
	"time"

	"github.com/dmitrijs2005/bakehouse/internal/logging"
	"github.com/dmitrijs2005/bakehouse/internal/server/auth"
	"github.com/dmitrijs2005/bakehouse/internal/server/models"
	"github.com/dmitrijs2005/bakehouse/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

// AuthService is what the transport needs from services.AuthService.
type AuthService interface {
	Authenticate(ctx context.Context, username, password string, meta services.RequestMeta) (*services.LoginResult, error)
	Logout(ctx context.Context, id *auth.Identity, meta services.RequestMeta)
	Session(ctx context.Context, token string) (*services.SessionInfo, error)
	ChangePassword(ctx context.Context, id, currentPassword, newPassword string, meta services.RequestMeta) error
	CurrentUser(ctx context.Context, id string) (*models.User, error)
	VerifyToken(token string) *auth.Claims
	TokenValidity() time.Duration

	CreateUser(ctx context.Context, in services.CreateUserInput, actor *auth.Identity, meta services.RequestMeta) (*models.User, error)
	UpdateUser(ctx context.Context, id string, in services.UpdateUserInput, actor *auth.Identity, meta services.RequestMeta) (*models.User, error)
	DeactivateUser(ctx context.Context, id string, actor *auth.Identity, meta services.RequestMeta) (*models.User, error)
	ListUsers(ctx context.Context, actor *auth.Identity) ([]*models.User, error)
	GetUser(ctx context.Context, id string, actor *auth.Identity) (*models.User, error)
	RecentAccessLogs(ctx context.Context, limit int, actor *auth.Identity) ([]*models.AccessLogEntry, error)
}

type ImageService interface {
	PresignUpload(ctx context.Context, contentType string) (*services.ImageUpload, error)
}

// Pinger reports database liveness.
type Pinger interface {
	PingContext(ctx context.Context) error
}

var (
	_ AuthService  = (*services.AuthService)(nil)
	_ ImageService = (*services.ImageService)(nil)
)

type Server struct {
	address        string
	auth           AuthService
	images         ImageService
	db             Pinger
	logger         logging.Logger
	secureCookies  bool
	limiter        *loginLimiter
	now            func() time.Time
	trustedProxies []netip.Prefix
}

// NewServer builds the HTTP server. secureCookies marks the session cookie
// Secure and should be set in production.
func NewServer(address string, l logging.Logger, as AuthService, is ImageService, db Pinger, secureCookies bool) *Server {
	return &Server{
		address:       address,
		auth:          as,
		images:        is,
		db:            db,
		logger:        l.With("module", "http_server"),
		secureCookies: secureCookies,
		limiter:       newLoginLimiter(loginRequestsPerMinute, loginBurst),
		now:           time.Now,
	}
}

// TrustProxies sets the reverse proxies whose X-Forwarded-For and X-Real-IP
// headers are believed. Without any, the peer address is the client IP.
func (s *Server) TrustProxies(prefixes []netip.Prefix) {
	s.trustedProxies = prefixes
}

// Run serves until ctx is cancelled, then drains in-flight requests for up
// to shutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return <-stopped
}
