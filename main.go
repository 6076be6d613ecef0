package main

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"user-service/internal/access"
	"user-service/internal/app"
	"user-service/internal/audit"
	"user-service/internal/auth"
	"user-service/internal/config"
	"user-service/internal/domain/user"
	"user-service/internal/http"
	"user-service/internal/http/middleware"
	"user-service/internal/logging"
	"user-service/internal/repository"
	"user-service/internal/repository/postgres"
	"user-service/internal/repository/sqlite"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	envFilePath      = ".env"
	serverAddrPrefix = ":"
	signalBufferSize = 1
	startupTimeout   = 30 * time.Second
)

var shutdownSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
}

// backend bundles the selected identity store with its lifecycle hooks.
type backend struct {
	store  repository.IdentityStore
	pinger middleware.Pinger
	close  func()
}

func main() {
	envErr := godotenv.Load(envFilePath)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if envErr != nil {
		logger.Info(".env file not found, using environment variables")
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("user service stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	be, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer be.close()

	logger.Info("identity store ready", zap.String("driver", cfg.Store.Driver))

	hasher, err := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}
	tokens := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.ExpiryDuration)
	users := app.NewUserService(be.store, hasher, logger)
	auditLogger := audit.NewLogger(logger)

	if cfg.Admin.Enabled() {
		admin, created, err := users.BootstrapAdmin(ctx, user.AdminSeed{
			Username: cfg.Admin.Username,
			Email:    cfg.Admin.Email,
			Password: cfg.Admin.Password,
		})
		if err != nil {
			return err
		}
		if created {
			auditLogger.Log(ctx, &audit.Event{
				ActorType:    audit.ActorTypeSystem,
				ResourceType: audit.ResourceTypeUser,
				ResourceID:   admin.ID,
				Action:       audit.ActionBootstrap,
				Status:       audit.StatusSuccess,
				Metadata:     map[string]any{"username": admin.Username},
			})
		}
	}

	authMiddleware := auth.NewMiddleware(be.store, hasher, tokens, access.Default(), cfg.Auth.Realm, logger)

	server := http.NewServer(&http.ServerDependencies{
		Config:         cfg,
		Logger:         logger,
		Store:          be.pinger,
		Users:          users,
		Tokens:         tokens,
		AuditLogger:    auditLogger,
		AuthMiddleware: authMiddleware,
	})

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := server.Start(serverAddrPrefix + cfg.Server.Port); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, signalBufferSize)
	signal.Notify(quit, shutdownSignals...)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("shutting down server", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited gracefully")
	return nil
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverSQLite:
		store, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return &backend{
			store:  store,
			pinger: store,
			close:  func() { _ = store.Close() },
		}, nil
	default:
		db, err := postgres.New(&cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return &backend{
			store:  postgres.NewUserRepository(db),
			pinger: db,
			close:  db.Close,
		}, nil
	}
}
