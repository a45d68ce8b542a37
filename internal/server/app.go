// Package server initializes and runs the bakehouse admin server.
// It opens the database, applies migrations, wires the auth and image
// services and runs the HTTP endpoint until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/netip"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/bakehouse/internal/logging"
	"github.com/dmitrijs2005/bakehouse/internal/server/auth"
	"github.com/dmitrijs2005/bakehouse/internal/server/config"
	"github.com/dmitrijs2005/bakehouse/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bakehouse/internal/server/rest"
	"github.com/dmitrijs2005/bakehouse/internal/server/services"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// openDB is a test seam for sql.Open.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

type App struct {
	config       *config.Config
	logger       logging.Logger
	db           *sql.DB
	authService  *services.AuthService
	imageService *services.ImageService

	trustedProxies []netip.Prefix
}

// NewApp validates c, connects to the database and runs pending migrations.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel).With("module", "app")
	if c.UsesInsecureSecret() {
		logger.Warn(ctx, "using the development JWT secret; set JWT_SECRET before deploying")
	}

	proxies, err := c.TrustedProxyPrefixes()
	if err != nil {
		return nil, err
	}

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	tokens := auth.NewTokenService([]byte(c.SecretKey), c.TokenValidityDuration)
	as := services.NewAuthService(db, rm, tokens, auth.NewHasher(c.BcryptRounds), logger)
	is := services.NewImageService(c)

	return &App{config: c, logger: logger, db: db, authService: as, imageService: is, trustedProxies: proxies}, nil
}

// AuthService exposes the wired service to other entry points such as the
// seed command.
func (app *App) AuthService() *services.AuthService {
	return app.authService
}

func (app *App) Close() error {
	return app.db.Close()
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := rest.NewServer(app.config.EndpointAddrHTTP, app.logger, app.authService, app.imageService, app.db, app.config.Production)
	s.TrustProxies(app.trustedProxies)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.Close(); err != nil {
		app.logger.Error(ctx, "db close failed", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
