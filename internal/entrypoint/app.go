package entrypoint

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/mrlokans/booklog/internal/config"
	"github.com/mrlokans/booklog/internal/database"
	"github.com/mrlokans/booklog/internal/database/books"
	"github.com/mrlokans/booklog/internal/database/favourites"
	"github.com/mrlokans/booklog/internal/database/readers"
	"github.com/mrlokans/booklog/internal/database/sessions"
	"github.com/mrlokans/booklog/internal/entities"
	"github.com/mrlokans/booklog/internal/importers"
	"github.com/mrlokans/booklog/internal/tasks"
	"github.com/mrlokans/booklog/internal/tracker"
)

// App holds the storage and domain services shared by the server and the
// command line tools.
type App struct {
	Config *config.Config
	Logger *zap.Logger

	DB         *database.Database
	Books      *books.Repository
	Sessions   *sessions.Repository
	Readers    *readers.Repository
	Favourites *favourites.Repository
	Tracker    *tracker.Service

	// TaskClient is nil when the queue is disabled or not requested.
	TaskClient *tasks.Client
	Reconciler *tasks.Reconciler
	Importer   *importers.Pipeline

	// DefaultReader is set only in no-auth mode.
	DefaultReader *entities.Reader
}

// Options control which optional parts Open brings up.
type Options struct {
	// WithQueue opens the task queue when it is enabled in configuration.
	// Without it reconciliation always runs inline.
	WithQueue bool
}

// Open connects to the database and builds the repositories and services.
// The caller owns the returned App and must Close it.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := database.NewDatabase(cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app := &App{
		Config:     cfg,
		Logger:     logger,
		DB:         db,
		Books:      books.NewRepository(db.DB),
		Sessions:   sessions.NewRepository(db.DB),
		Readers:    readers.NewRepository(db.DB),
		Favourites: favourites.NewRepository(db.DB),
	}
	app.Tracker = tracker.NewService(app.Sessions, app.Books, app.Readers, logger)

	if cfg.Auth.Mode != config.AuthModeLocal {
		app.DefaultReader, err = db.EnsureReader(ctx, cfg.Auth.DefaultReader)
		if err != nil {
			return nil, multierr.Append(err, app.Close())
		}
	}

	if opts.WithQueue && cfg.Tasks.Enabled {
		app.TaskClient, err = tasks.NewClient(cfg.TasksDatabasePath(), tasks.FromConfig(cfg.Tasks), logger)
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("failed to initialize task queue: %w", err), app.Close())
		}
		app.TaskClient.Register(tasks.NewReconcileStatusesQueue(app.Tracker, logger))
	}

	app.Reconciler = tasks.NewReconciler(app.TaskClient, app.Tracker, logger)
	app.Importer = importers.NewPipeline(app.Books, app.Reconciler, logger)
	app.Importer.SetLoggedPages(app.Sessions)

	return app, nil
}

// Close releases the task queue and database connections.
func (a *App) Close() error {
	var err error
	if a.TaskClient != nil {
		err = multierr.Append(err, a.TaskClient.Close())
	}
	if a.DB != nil {
		err = multierr.Append(err, a.DB.Close())
	}
	return err
}
