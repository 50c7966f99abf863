package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/booklog/internal/database"
	"github.com/mrlokans/booklog/internal/database/books"
	"github.com/mrlokans/booklog/internal/database/favourites"
	"github.com/mrlokans/booklog/internal/database/readers"
	"github.com/mrlokans/booklog/internal/database/sessions"
	"github.com/mrlokans/booklog/internal/http"
	"github.com/mrlokans/booklog/internal/importers"
	"github.com/mrlokans/booklog/internal/progress"
	"github.com/mrlokans/booklog/internal/scheduler"
	"github.com/mrlokans/booklog/internal/tasks"
	"github.com/mrlokans/booklog/internal/tracker"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ http.Pinger = (*database.Database)(nil)

var _ http.BookStore = (*books.Repository)(nil)
var _ http.MyBooksStore = (*books.Repository)(nil)
var _ http.BookFinder = (*books.Repository)(nil)
var _ http.FavouritesStore = (*favourites.Repository)(nil)

var _ progress.BookStore = (*books.Repository)(nil)
var _ progress.SessionStore = (*sessions.Repository)(nil)

var _ tracker.BookRepository = (*books.Repository)(nil)
var _ tracker.SessionRepository = (*sessions.Repository)(nil)
var _ tracker.ReaderLookup = (*readers.Repository)(nil)

// =============================================================================
// Reading Progress
// =============================================================================

var _ http.Tracker = (*tracker.Service)(nil)
var _ tasks.StatusReconciler = (*tracker.Service)(nil)

// =============================================================================
// Import Pipeline
// =============================================================================

var _ importers.BookStore = (*books.Repository)(nil)
var _ importers.Reconciler = (*tasks.Reconciler)(nil)
var _ importers.LoggedPages = (*sessions.Repository)(nil)
var _ http.BookImporter = (*importers.Pipeline)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ http.TaskQueue = (*tasks.Client)(nil)
var _ scheduler.Reconciler = (*tasks.Reconciler)(nil)
