// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup for sqlite, mysql and postgres, migrations
//	├── books/           # Catalog, "My Books" list and the status projection
//	├── favourites/      # Favourite books per reader
//	├── readers/         # Reader lookups
//	└── sessions/        # Reading session CRUD and page sums
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	db, err := database.NewDatabase(cfg.Database, logger)
//
//	booksRepo := books.NewRepository(db.DB)
//	sessionsRepo := sessions.NewRepository(db.DB)
//
//	total, err := booksRepo.TotalPages(ctx, bookID)
//	sum, err := sessionsRepo.SumPagesForReaderAndBook(ctx, readerID, bookID)
//
// # Interface Implementations
//
//   - books.Repository: implements progress.BookStore, tracker.BookRepository, http.BookStore
//   - sessions.Repository: implements progress.SessionStore, tracker.SessionRepository
//   - favourites.Repository: implements http.FavouritesStore
//   - readers.Repository: implements tracker.ReaderLookup
//
// The checks live in internal/interfaces.
package database
