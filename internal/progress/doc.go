// Package progress computes a reader's progress through a book from logged
// reading sessions and validates session edits against the pages left.
//
// The pure functions (Remaining, Progress, ValidateSession, DeriveStatus)
// take plain values. Calculator reads the values from a SessionStore and a
// BookStore and applies the same functions.
//
// # Unknown page counts
//
// A book whose page count is unset or not positive has no upper bound:
// Remaining returns Unbounded, ValidateSession never reports
// ErrExceedsRemaining, and DeriveStatus reports that no status applies.
// Progress for such a book is the number of pages logged so far.
package progress
