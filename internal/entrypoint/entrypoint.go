package entrypoint

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/booklog/internal/auth"
	"github.com/mrlokans/booklog/internal/config"
	http_controllers "github.com/mrlokans/booklog/internal/http"
	"github.com/mrlokans/booklog/internal/scheduler"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until ctx is cancelled or the process receives
// SIGINT or SIGTERM, then shuts it down within the configured timeout.
func Serve(ctx context.Context, router *gin.Engine, cfg *config.Config, logger *zap.Logger, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
		close(listenErr)
	}()

	quit, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var serveErr error
	select {
	case serveErr = <-listenErr:
	case <-quit.Done():
	}
	logger.Info("Shutting down server", zap.Duration("timeout", timeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop the task queue)
	if onShutdown != nil {
		onShutdown(shutdownCtx)
	}

	if serveErr != nil {
		return fmt.Errorf("listen: %w", serveErr)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("Server exiting")
	return nil
}

// Run wires every component and serves the HTTP API.
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger, version string) error {
	logger.Info("Starting booklog",
		zap.String("version", version),
		zap.String("database_driver", string(cfg.Database.Driver)),
		zap.String("auth_mode", string(cfg.Auth.Mode)))

	app, err := Open(ctx, cfg, logger, Options{WithQueue: true})
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("Error closing resources", zap.Error(err))
		}
	}()

	var taskCtxCancel context.CancelFunc
	if app.TaskClient != nil {
		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go app.TaskClient.Start(taskCtx)
	}

	var reconcileScheduler *scheduler.ReconcileScheduler
	if cfg.Reconcile.Enabled {
		reconcileScheduler = scheduler.NewReconcileScheduler(cfg.Reconcile.Schedule, app.Reconciler, logger)
		if err := reconcileScheduler.Start(ctx); err != nil {
			if taskCtxCancel != nil {
				taskCtxCancel()
			}
			return fmt.Errorf("failed to start reconcile scheduler: %w", err)
		}
	}

	authService := auth.NewService(app.DB.DB, cfg.Auth)

	var sessionManager *auth.SessionManager
	var csrfSecret []byte
	if cfg.Auth.Mode == config.AuthModeLocal {
		sqlDB, err := app.DB.DB.DB()
		if err != nil {
			return fmt.Errorf("failed to get SQL DB for sessions: %w", err)
		}
		sessionManager, err = auth.NewSessionManager(sqlDB, app.DB.Driver(), cfg.Auth)
		if err != nil {
			return fmt.Errorf("failed to initialize session manager: %w", err)
		}

		csrfSecret, err = resolveCSRFSecret(cfg.Auth.SessionSecret, logger)
		if err != nil {
			return err
		}

		hasReaders, err := authService.HasReaders(ctx)
		if err != nil {
			logger.Warn("Failed to check for readers", zap.Error(err))
		} else if !hasReaders {
			logger.Info("No readers found, register one via POST /api/auth/register or 'booklog readers create'")
		}
	}

	authMiddleware := auth.NewMiddleware(authService, sessionManager, cfg.Auth, app.DefaultReader)
	authController := auth.NewAuthController(authService, sessionManager, cfg.Auth, logger)

	routerCfg := http_controllers.RouterConfig{
		Logger:         logger,
		Version:        version,
		Database:       app.DB,
		Books:          app.Books,
		Importer:       app.Importer,
		MyBooks:        app.Books,
		Favourites:     app.Favourites,
		Tracker:        app.Tracker,
		MaxUploadBytes: cfg.Import.MaxUploadBytes,
		AuthConfig:     cfg.Auth,
		AuthService:    authService,
		SessionManager: sessionManager,
		AuthMiddleware: authMiddleware,
		AuthController: authController,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Auth.SecureCookies,
	}
	if app.TaskClient != nil {
		routerCfg.TaskQueue = app.TaskClient
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if reconcileScheduler != nil {
			reconcileScheduler.Stop()
		}
		if app.TaskClient != nil && taskCtxCancel != nil {
			app.TaskClient.Stop(ctx)
			taskCtxCancel()
		}
		authController.Stop()
	}

	return Serve(ctx, router, cfg, logger, onShutdown)
}

// resolveCSRFSecret decodes a configured hex secret, falls back to the raw
// bytes of a non-hex value and generates a fresh secret when none is set.
func resolveCSRFSecret(configured string, logger *zap.Logger) ([]byte, error) {
	if configured != "" {
		secret, err := hex.DecodeString(configured)
		if err != nil {
			return []byte(configured), nil
		}
		return secret, nil
	}

	generated, err := auth.GenerateSessionSecret()
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSRF secret: %w", err)
	}
	logger.Warn("Generated session secret, set AUTH_SESSION_SECRET to keep sessions valid across restarts")
	secret, err := hex.DecodeString(generated)
	if err != nil {
		return nil, fmt.Errorf("failed to decode generated secret: %w", err)
	}
	return secret, nil
}
