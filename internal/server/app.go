// Package server initializes and runs the bundle store server. It selects
// the persistence backend from configuration, wires the HTTP API and
// handles graceful shutdown on OS signals.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/ledgerlock/ledgerlock/internal/logging"
	"github.com/ledgerlock/ledgerlock/internal/server/bundles"
	"github.com/ledgerlock/ledgerlock/internal/server/config"
	"github.com/ledgerlock/ledgerlock/internal/server/httpapi"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	repo    bundles.Repository
	service *bundles.Service
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	repo, err := newRepository(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	service := bundles.NewService(repo, c.MaxBundleBytes, logger)

	return &App{config: c, logger: logger, repo: repo, service: service}, nil
}

// newRepository selects the bundle persistence backend.
func newRepository(ctx context.Context, c *config.Config) (bundles.Repository, error) {
	switch c.StorageBackend {
	case config.BackendFile:
		return bundles.NewFileRepository(c.DataDir)
	case config.BackendPostgres:
		return bundles.NewPostgresRepository(ctx, c.DatabaseDSN)
	case config.BackendS3:
		return bundles.NewS3Repository(ctx, bundles.S3Config{
			RootUser:     c.S3RootUser,
			RootPassword: c.S3RootPassword,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
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

	limiter := httpapi.NewKeyedLimiter(app.config.RateLimitRPS, app.config.RateLimitBurst)
	handler := httpapi.NewHandler(app.service, limiter, app.logger)
	s := httpapi.NewServer(app.config.EndpointAddr, handler.Routes(), app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...",
		"backend", app.config.StorageBackend, "addr", app.config.EndpointAddr)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.repo.Close(); err != nil {
		app.logger.Error(ctx, "closing storage", "error", err)
	}
}
