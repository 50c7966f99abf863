package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mrlokans/booklog/internal/config"
	"github.com/mrlokans/booklog/internal/entities"
	"github.com/mrlokans/booklog/internal/logging"
)

// ErrUnsupportedDriver is returned for a DATABASE_DRIVER value with no dialect.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

type Database struct {
	DB     *gorm.DB
	driver config.DatabaseDriver
	logger *zap.Logger
}

// NewDatabase connects to the configured backend, retrying the initial
// connection, and migrates the schema.
func NewDatabase(cfg config.Database, logger *zap.Logger) (*Database, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Driver == "" {
		cfg.Driver = config.DriverSQLite
	}

	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	gormCfg := &gorm.Config{
		Logger: logging.NewGormLogger(logger),
	}

	var db *gorm.DB
	attempts := max(cfg.ConnectRetries, 0) + 1
	for i := 1; i <= attempts; i++ {
		db, err = gorm.Open(dialector, gormCfg)
		if err == nil {
			break
		}
		logger.Warn("Database connection attempt failed",
			zap.Int("attempt", i),
			zap.Int("max_attempts", attempts),
			zap.Error(err))
		if i < attempts && cfg.ConnectRetryDelay > 0 {
			time.Sleep(cfg.ConnectRetryDelay)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql handle: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	err = db.AutoMigrate(
		&entities.Reader{},
		&entities.Book{},
		&entities.ReaderBook{},
		&entities.Favourite{},
		&entities.ReadingSession{},
	)
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("Database initialized",
		zap.String("driver", string(cfg.Driver)),
		zap.String("target", describeTarget(cfg)))

	return &Database{DB: db, driver: cfg.Driver, logger: logger}, nil
}

func dialectorFor(cfg config.Database) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		path := cfg.Path
		if path == "" {
			path = config.DefaultDatabasePath
		}
		return sqlite.Open(sqliteDSN(path)), nil
	case config.DriverMySQL:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("DATABASE_DSN is required for driver %s", cfg.Driver)
		}
		return mysql.Open(cfg.DSN), nil
	case config.DriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("DATABASE_DSN is required for driver %s", cfg.Driver)
		}
		return postgres.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}

// sqliteDSN turns on foreign keys and a busy timeout unless the path already
// carries its own query parameters.
func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_foreign_keys=on&_busy_timeout=5000"
}

// describeTarget names the database without leaking DSN credentials.
func describeTarget(cfg config.Database) string {
	if cfg.Driver == config.DriverSQLite {
		return cfg.Path
	}
	if at := strings.LastIndex(cfg.DSN, "@"); at >= 0 {
		return cfg.DSN[at+1:]
	}
	if i := strings.Index(cfg.DSN, "host="); i >= 0 {
		return strings.Fields(cfg.DSN[i:])[0]
	}
	return string(cfg.Driver)
}

// Driver returns the backend in use.
func (d *Database) Driver() config.DatabaseDriver {
	return d.driver
}

// Ping checks connectivity.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// EnsureReader returns the reader with the given username, creating it
// without credentials when missing. Used for the single reader of no-auth mode.
func (d *Database) EnsureReader(ctx context.Context, username string) (*entities.Reader, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		username = config.DefaultReaderName
	}

	var reader entities.Reader
	err := d.DB.WithContext(ctx).
		Where(entities.Reader{Username: username}).
		FirstOrCreate(&reader).Error
	if err != nil {
		return nil, fmt.Errorf("failed to ensure reader %s: %w", username, err)
	}
	d.logger.Debug("Default reader ready", zap.Uint("reader_id", reader.ID), zap.String("username", username))
	return &reader, nil
}
