package config

const (
	// DefaultDatabasePath is the default path for the SQLite database
	DefaultDatabasePath = "./booklog.db"

	// DefaultReaderName is the reader every request acts as when auth is disabled
	DefaultReaderName = "reader"
)
