package auth

import (
	"database/sql"
	"encoding/gob"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"

	"github.com/mrlokans/booklog/internal/config"
	"github.com/mrlokans/booklog/internal/entities"
)

// Session data keys
const (
	SessionKeyReaderID = "reader_id"
	SessionKeyUsername = "username"
	SessionKeyLoginAt  = "login_at"
)

const sessionsTableDDL = `CREATE TABLE IF NOT EXISTS sessions (
	token TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	expiry REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`

func init() {
	gob.Register(time.Time{})
}

// SessionManager wraps scs.SessionManager with reader-specific accessors.
type SessionManager struct {
	*scs.SessionManager
}

// NewSessionManager creates a configured session manager. Sessions live in
// the main database when it is SQLite and in memory otherwise, in which case
// they do not survive a restart.
func NewSessionManager(sqlDB *sql.DB, driver config.DatabaseDriver, cfg config.Auth) (*SessionManager, error) {
	sm := scs.New()

	if driver == config.DriverSQLite || driver == "" {
		if _, err := sqlDB.Exec(sessionsTableDDL); err != nil {
			return nil, fmt.Errorf("failed to create sessions table: %w", err)
		}
		sm.Store = sqlite3store.New(sqlDB)
	} else {
		sm.Store = memstore.New()
	}

	lifetime := cfg.SessionLifetime
	if lifetime <= 0 {
		lifetime = 24 * time.Hour
	}
	sm.Lifetime = lifetime
	sm.IdleTimeout = lifetime / 2

	sm.Cookie.Name = "booklog_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteStrictMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}, nil
}

// CreateSession starts a session for a reader after successful authentication.
func (sm *SessionManager) CreateSession(r *http.Request, reader *entities.Reader) error {
	// New token on login against session fixation
	if err := sm.RenewToken(r.Context()); err != nil {
		return err
	}

	sm.Put(r.Context(), SessionKeyReaderID, int(reader.ID))
	sm.Put(r.Context(), SessionKeyUsername, reader.Username)
	sm.Put(r.Context(), SessionKeyLoginAt, time.Now())

	return nil
}

// DestroySession removes all session data and invalidates the session.
func (sm *SessionManager) DestroySession(r *http.Request) error {
	return sm.Destroy(r.Context())
}

// GetReaderID returns the reader in the session, or 0 when not logged in.
func (sm *SessionManager) GetReaderID(r *http.Request) uint {
	return uint(sm.GetInt(r.Context(), SessionKeyReaderID))
}

// GetUsername retrieves the username from the session.
func (sm *SessionManager) GetUsername(r *http.Request) string {
	return sm.GetString(r.Context(), SessionKeyUsername)
}

// IsAuthenticated returns true if the request has a logged-in session.
func (sm *SessionManager) IsAuthenticated(r *http.Request) bool {
	return sm.GetReaderID(r) != 0
}

// SessionData holds the session information for a request.
type SessionData struct {
	ReaderID uint
	Username string
	LoginAt  time.Time
}

// GetSessionData retrieves all session data at once, or nil when not logged in.
func (sm *SessionManager) GetSessionData(r *http.Request) *SessionData {
	readerID := sm.GetReaderID(r)
	if readerID == 0 {
		return nil
	}

	loginAt, _ := sm.Get(r.Context(), SessionKeyLoginAt).(time.Time)

	return &SessionData{
		ReaderID: readerID,
		Username: sm.GetUsername(r),
		LoginAt:  loginAt,
	}
}
