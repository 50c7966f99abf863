// Package interfaces documents the core abstractions used throughout the application.
//
// Consumers declare the narrow interfaces they need next to the code that
// uses them; this package only gathers the compile-time checks that the
// concrete types still satisfy them.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - BookStore, MyBooksStore, BookFinder: Catalog and reading lists (internal/http)
//   - FavouritesStore: Favourite books per reader (internal/http/favourites.go)
//   - progress.SessionStore, progress.BookStore: Inputs of the progress calculator
//   - tracker.SessionRepository, tracker.BookRepository, tracker.ReaderLookup:
//     Everything the tracker writes through
//
// ## Reading Progress Interfaces
//
//   - http.Tracker: Session and reading list operations (internal/http/config.go)
//   - tasks.StatusReconciler: Full status recomputation (internal/tasks/reconcile.go)
//
// ## Background Work Interfaces
//
//   - importers.Reconciler, scheduler.Reconciler: Trigger a reconcile, queued
//     or inline (internal/tasks/reconciler.go)
//   - http.TaskQueue: Enqueue and inspect tasks (internal/http/tasks.go)
//
// # Adding a New Task
//
//  1. Define the task type and its processor in internal/tasks/
//
//     type RecountTask struct {
//         ReaderID uint `json:"reader_id"`
//     }
//
//     func (t RecountTask) Config() backlite.QueueConfig
//
//  2. Register its queue in entrypoint.Open and add it to tasks.Types()
//
// # Adding a New Database Domain
//
//  1. Create sub-package: internal/database/<domain>/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Add compile-time check:
//
//     var _ SomeStore = (*Repository)(nil)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the full list.
package interfaces
