package http

import (
	"go.uber.org/zap"

	"github.com/mrlokans/booklog/internal/auth"
	"github.com/mrlokans/booklog/internal/config"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	Logger  *zap.Logger
	Version string

	// Core dependencies
	Database   Pinger
	Books      BookStore
	Importer   BookImporter
	MyBooks    MyBooksStore
	Favourites FavouritesStore
	Tracker    Tracker

	MaxUploadBytes int64

	// Authentication
	AuthConfig     config.Auth
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	AuthMiddleware *auth.Middleware
	AuthController *auth.AuthController
	CSRFSecret     []byte
	SecureCookies  bool

	// Task queue (optional)
	TaskQueue TaskQueue
}

// Tracker combines the tracker operations used by the session and
// my-books endpoints.
type Tracker interface {
	SessionTracker
	MyBooksTracker
}
