package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/catalog/internal/adapters/http/api"
	"github.com/okian/catalog/internal/adapters/http/swagger"
	"github.com/okian/catalog/internal/adapters/repository"
	service "github.com/okian/catalog/internal/app"
	"github.com/okian/catalog/internal/config"
	"github.com/okian/catalog/internal/domain/model"
	"github.com/okian/catalog/pkg/logger"
	"github.com/okian/catalog/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 10 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	connectTimeout        = 10 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// defaults -> .env -> yaml -> env
	cfg, err := config.Load(ctx)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := configureLogging(cfg); err != nil {
		_, _ = os.Stderr.WriteString("failed to configure logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	handler, closeStores, err := buildHandler(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "startup failed", logger.Error(err))
		os.Exit(1)
	}
	defer closeStores()

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("store", cfg.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		log.Error(ctx, "HTTP server failed", logger.Error(err))
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// configureLogging applies the configured format and level. An invalid
// level falls back to info.
func configureLogging(cfg *config.Config) error {
	if cfg.LogFormat != "text" {
		if err := logger.InitWithWriter(os.Stdout, cfg.LogFormat); err != nil {
			return err
		}
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(context.Background(), "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return nil
}

// buildHandler opens the configured stores and returns the full route
// tree. The returned func releases the stores.
func buildHandler(ctx context.Context, cfg *config.Config, log logger.Logger) (http.Handler, func(), error) {
	packages, skills, closeStores, err := openStores(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	apiServer := api.NewServer(
		service.NewCreditPackages(packages, service.WithLogger[model.CreditPackage](log)),
		service.NewSkills(skills, service.WithLogger[model.Skill](log)),
		api.WithLogger(log.Named("api")),
		api.WithMaxBodyBytes(cfg.HTTP.MaxBodyBytes),
	)

	r := apiServer.NewRouter()
	swagger.Register(ctx, r)
	apiServer.Register(ctx, r)
	return r, closeStores, nil
}

func openStores(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store[model.CreditPackage], repository.Store[model.Skill], func(), error) {
	switch cfg.Store {
	case config.StoreMemory:
		log.Warn(ctx, "using in-memory store; data is lost on exit")
		return repository.NewMemoryStore(repository.CreditPackages()),
			repository.NewMemoryStore(repository.Skills()),
			func() {}, nil
	case config.StorePostgres:
		connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()

		db, err := repository.OpenPostgres(connectCtx, cfg.DSN(), cfg.DB.PoolSize)
		if err != nil {
			return nil, nil, nil, err
		}
		if cfg.DB.Synchronize {
			if err := repository.Synchronize(connectCtx, db); err != nil {
				_ = db.Close()
				return nil, nil, nil, err
			}
			log.Info(ctx, "schema synchronized")
		}
		log.Info(ctx, "connected to postgres",
			logger.String("host", cfg.DB.Host),
			logger.Int("port", cfg.DB.Port),
			logger.String("database", cfg.DB.Database),
			logger.Int("pool_size", cfg.DB.PoolSize))
		return repository.NewPostgresStore(db, repository.CreditPackages()),
			repository.NewPostgresStore(db, repository.Skills()),
			closeDB(ctx, db, log), nil
	default:
		return nil, nil, nil, fmt.Errorf("%w: unknown store %q", config.ErrInvalidConfig, cfg.Store)
	}
}

func closeDB(ctx context.Context, db *sql.DB, log logger.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			log.Error(ctx, "closing database", logger.Error(err))
		}
	}
}

// startSystemMetricsUpdater refreshes system metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	updateSystemMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
