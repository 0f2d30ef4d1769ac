// Package server wires the taskboard auth server together: configuration,
// logging, the PostgreSQL pool and migrations, the session service, the gRPC
// endpoint and the metrics endpoint. It also handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/taskboard/internal/cryptox"
	"github.com/dmitrijs2005/taskboard/internal/dbx"
	"github.com/dmitrijs2005/taskboard/internal/logging"
	"github.com/dmitrijs2005/taskboard/internal/server/auth"
	"github.com/dmitrijs2005/taskboard/internal/server/config"
	"github.com/dmitrijs2005/taskboard/internal/server/metrics"
	"github.com/dmitrijs2005/taskboard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskboard/internal/server/services"

	gs "github.com/dmitrijs2005/taskboard/internal/server/grpc"
)

const (
	openTimeout     = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

// openDB is a seam for tests.
var openDB = dbx.Open

type App struct {
	config         *config.Config
	logger         logging.Logger
	db             *sql.DB
	repomanager    repomanager.RepositoryManager
	metrics        *metrics.Metrics
	sessionService *services.SessionService
}

// NewApp validates c, opens the database and builds the session service.
// Migrations are applied by Run, not here.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	logger, err := logging.New(logging.Options{
		Backend: c.LogBackend,
		Level:   c.LogLevel,
		Pretty:  c.LogPretty,
		Service: "taskboard",
	})
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	hasher, err := cryptox.NewPasswordHasher(c.PasswordAlgorithm, cryptox.Argon2Params{
		Time:      c.Argon2Time,
		MemoryKiB: c.Argon2MemoryKiB,
		Threads:   c.Argon2Threads,
		SaltLen:   cryptox.DefaultArgon2Params.SaltLen,
		KeyLen:    cryptox.DefaultArgon2Params.KeyLen,
	}, c.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("password hasher init error: %w", err)
	}

	codec, err := auth.NewTokenCodec(auth.Config{
		Secret:     []byte(c.JWTSecret),
		Algorithm:  c.JWTAlgorithm,
		Issuer:     c.JWTIssuer,
		AccessTTL:  c.AccessTokenTTL,
		RefreshTTL: c.RefreshTokenTTL,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("token codec init error: %w", err)
	}

	openCtx, cancel := context.WithTimeout(ctx, openTimeout)
	defer cancel()

	db, err := openDB(openCtx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()

	return &App{
		config:         c,
		logger:         logger,
		db:             db,
		repomanager:    rm,
		metrics:        metrics.New(),
		sessionService: services.NewSessionService(db, rm, hasher, codec, logger),
	}, nil
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

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.sessionService, app.metrics)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "grpc server error", "error", err)
		cancelFunc()
	}
}

func (app *App) startMetricsServer(ctx context.Context) {
	if app.config.MetricsAddr == "" {
		return
	}

	ms := metrics.BootstrapMetricsServer(ctx, app.config.MetricsAddr, app.metrics, app.db.PingContext, app.logger)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := ms.Shutdown(shutdownCtx); err != nil {
		app.logger.Warn(shutdownCtx, "metrics server shutdown error", "error", err)
	}
}

// Run applies migrations and serves until a termination signal arrives or a
// server fails. The database is closed on return.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.Close()

	app.logger.Info(ctx, "Starting app...")

	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("db migration error: %w", err)
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startMetricsServer(ctx)
	}()

	wg.Wait()

	app.logger.Info(context.Background(), "App stopped")
	return nil
}

// Sweep deletes expired refresh tokens once and returns how many were removed.
func (app *App) Sweep(ctx context.Context) (int64, error) {
	return app.sessionService.PurgeExpired(ctx)
}

// SweepOnce builds an App from c, sweeps expired refresh tokens and closes the
// App. A failed sweep is returned so the caller can exit non-zero.
func SweepOnce(ctx context.Context, c *config.Config) error {
	app, err := NewApp(ctx, c)
	if err != nil {
		return err
	}
	defer app.Close()

	n, err := app.Sweep(ctx)
	if err != nil {
		app.logger.Error(ctx, "sweep failed", "error", err)
		return fmt.Errorf("sweep failed: %w", err)
	}
	app.logger.Info(ctx, "sweep finished", "deleted", n)
	return nil
}

// Logger returns the application logger.
func (app *App) Logger() logging.Logger {
	return app.logger
}

// Close releases the database pool.
func (app *App) Close() {
	if err := app.db.Close(); err != nil {
		app.logger.Warn(context.Background(), "db close error", "error", err)
	}
}
