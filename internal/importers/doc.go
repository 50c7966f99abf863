// Package importers loads the book catalog from CSV exports.
//
// # Format
//
// One book per line, seven columns:
//
//	id,title,author,pages,genre,language,created_at
//	1,Dune,Frank Herbert,412,Science Fiction,en,2024-01-15T10:00:00
//
// A header row (first field "id") and blank lines are skipped. A blank id
// creates a new book; a blank pages column leaves the page count unknown.
// Rows that are short or carry malformed numbers or dates are skipped and
// reported by line number; the rest of the file still imports.
//
// # Usage
//
//	pipeline := importers.NewPipeline(booksRepo, reconciler, logger)
//	result, err := pipeline.ImportBooksCSV(ctx, file)
package importers
