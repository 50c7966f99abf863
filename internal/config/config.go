package config

import (
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone  AuthMode = "none"  // Single reader, no login (default)
	AuthModeLocal AuthMode = "local" // Reader accounts with sessions and API tokens
)

type DatabaseDriver string

const (
	DriverSQLite   DatabaseDriver = "sqlite"
	DriverMySQL    DatabaseDriver = "mysql"
	DriverPostgres DatabaseDriver = "postgres"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Logging
		Auth
		Tasks
		Reconcile
		Import
	}

	HTTP struct {
		Port int32
		Host string
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Driver DatabaseDriver
		Path   string // sqlite file
		DSN    string // mysql / postgres connection string

		MaxOpenConns      int
		MaxIdleConns      int
		ConnMaxLifetime   time.Duration
		ConnectRetries    int
		ConnectRetryDelay time.Duration
	}
	Logging struct {
		Level  string // debug, info, warn, error
		Format string // json or console
	}
	Auth struct {
		Mode            AuthMode
		DefaultReader   string // Reader used for every request when Mode is none
		SessionSecret   string
		SessionLifetime time.Duration
		TokenExpiry     time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS

		MaxLoginAttempts int
		RateLimitWindow  time.Duration
		LockoutDuration  time.Duration
	}
	Tasks struct {
		Enabled           bool
		DBPath            string // Defaults to "<database>-tasks.db"
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Reconcile struct {
		Enabled  bool
		Schedule string // Cron format: "30 3 * * *" = daily at 03:30
	}
	Import struct {
		MaxUploadBytes int64
	}
)

// NewConfig reads configuration from the environment, after loading a .env
// file from the working directory when one exists.
func NewConfig() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)

	v.SetDefault("database_driver", string(DriverSQLite))
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_dsn", "")
	v.SetDefault("database_max_open_conns", 25)
	v.SetDefault("database_max_idle_conns", 10)
	v.SetDefault("database_conn_max_lifetime", "5m")
	v.SetDefault("database_connect_retries", 5)
	v.SetDefault("database_connect_retry_delay", "2s")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	// Auth defaults
	v.SetDefault("auth_mode", "none")
	v.SetDefault("auth_default_reader", DefaultReaderName)
	v.SetDefault("auth_session_secret", "")       // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "24h")  // 24 hours
	v.SetDefault("auth_token_expiry", "720h")     // 30 days
	v.SetDefault("auth_bcrypt_cost", 12)          // bcrypt cost factor
	v.SetDefault("auth_secure_cookies", true)     // HTTPS-only cookies
	v.SetDefault("auth_max_login_attempts", 5)    // Max failed attempts
	v.SetDefault("auth_rate_limit_window", "15m") // Window for counting attempts
	v.SetDefault("auth_lockout_duration", "30m")  // Lockout duration

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("tasks_db_path", "")
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	v.SetDefault("reconcile_enabled", true)
	v.SetDefault("reconcile_schedule", "30 3 * * *")

	v.SetDefault("import_max_upload_bytes", 10<<20)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Driver:            DatabaseDriver(v.GetString("DATABASE_DRIVER")),
			Path:              v.GetString("DATABASE_PATH"),
			DSN:               v.GetString("DATABASE_DSN"),
			MaxOpenConns:      v.GetInt("DATABASE_MAX_OPEN_CONNS"),
			MaxIdleConns:      v.GetInt("DATABASE_MAX_IDLE_CONNS"),
			ConnMaxLifetime:   v.GetDuration("DATABASE_CONN_MAX_LIFETIME"),
			ConnectRetries:    v.GetInt("DATABASE_CONNECT_RETRIES"),
			ConnectRetryDelay: v.GetDuration("DATABASE_CONNECT_RETRY_DELAY"),
		},
		Logging: Logging{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Auth: Auth{
			Mode:             AuthMode(v.GetString("AUTH_MODE")),
			DefaultReader:    v.GetString("AUTH_DEFAULT_READER"),
			SessionSecret:    v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:  v.GetDuration("AUTH_SESSION_LIFETIME"),
			TokenExpiry:      v.GetDuration("AUTH_TOKEN_EXPIRY"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:    v.GetBool("AUTH_SECURE_COOKIES"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			DBPath:            v.GetString("TASKS_DB_PATH"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Reconcile: Reconcile{
			Enabled:  v.GetBool("RECONCILE_ENABLED"),
			Schedule: v.GetString("RECONCILE_SCHEDULE"),
		},
		Import: Import{
			MaxUploadBytes: v.GetInt64("IMPORT_MAX_UPLOAD_BYTES"),
		},
	}
}

// TasksDatabasePath returns where the task queue keeps its SQLite file.
// The queue always runs on SQLite, even when the main store is MySQL or
// Postgres, so a path next to the main database is derived when none is set.
func (c *Config) TasksDatabasePath() string {
	if c.Tasks.DBPath != "" {
		return c.Tasks.DBPath
	}
	mainPath := DefaultDatabasePath
	if c.Database.Driver == DriverSQLite && c.Database.Path != "" {
		mainPath = c.Database.Path
	}
	dir := filepath.Dir(mainPath)
	base := filepath.Base(mainPath)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)]
	return filepath.Join(dir, name+"-tasks"+ext)
}
