package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/multierr"

	"github.com/mrlokans/booklog/internal/auth"
	"github.com/mrlokans/booklog/internal/entities"
	"github.com/mrlokans/booklog/internal/entrypoint"
)

// Serve runs the HTTP server until interrupted.
func (r *Runner) Serve(ctx context.Context, _ *cli.Command) error {
	return entrypoint.Run(ctx, r.config, r.logger, r.version)
}

// ImportBooks loads a catalog CSV and reconciles statuses inline.
func (r *Runner) ImportBooks(ctx context.Context, cmd *cli.Command) (err error) {
	path := cmd.String("file")
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer file.Close()

	app, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, app.Close()) }()

	result, err := app.Importer.ImportBooksCSV(ctx, file)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result)
	}
	if err := r.writeLine("Imported %d books, skipped %d", result.Imported, result.Skipped); err != nil {
		return err
	}
	for _, problem := range result.Errors {
		if err := r.writeLine("  %s", problem); err != nil {
			return err
		}
	}
	return nil
}

// CreateReader registers a reader with a password.
func (r *Runner) CreateReader(ctx context.Context, cmd *cli.Command) (err error) {
	app, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, app.Close()) }()

	service := auth.NewService(app.DB.DB, r.config.Auth)
	reader, err := service.Register(ctx, cmd.String("username"), cmd.String("password"))
	if err != nil {
		return fmt.Errorf("failed to create reader: %w", err)
	}
	return r.writeLine("Created reader %s (id %d)", reader.Username, reader.ID)
}

// ListReaders prints every reader account.
func (r *Runner) ListReaders(ctx context.Context, _ *cli.Command) (err error) {
	app, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, app.Close()) }()

	readers, err := app.Readers.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list readers: %w", err)
	}
	if len(readers) == 0 {
		return r.writeLine("No readers")
	}
	for _, reader := range readers {
		if err := r.writeLine("%d\t%s", reader.ID, reader.Username); err != nil {
			return err
		}
	}
	return nil
}

// Reconcile recomputes stored statuses for one reader or all of them.
func (r *Runner) Reconcile(ctx context.Context, cmd *cli.Command) (err error) {
	app, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, app.Close()) }()

	var readerID uint
	if username := cmd.String("reader"); username != "" {
		reader, err := app.Readers.FindByUsername(ctx, username)
		if err != nil {
			return fmt.Errorf("reader %s: %w", username, err)
		}
		readerID = reader.ID
	}

	updated, err := app.Tracker.ReconcileStatuses(ctx, readerID)
	if werr := r.writeLine("Updated %d statuses", updated); werr != nil {
		return werr
	}
	return err
}

type progressOutput struct {
	BookID     uint                   `json:"book_id"`
	Title      string                 `json:"title"`
	Reader     string                 `json:"reader"`
	TotalPages *int                   `json:"total_pages"`
	PagesRead  int                    `json:"pages_read"`
	Remaining  *int                   `json:"remaining"`
	Percent    float64                `json:"percent"`
	Status     entities.ReadingStatus `json:"status,omitempty"`
}

// Progress prints a reader's progress in one book.
func (r *Runner) Progress(ctx context.Context, cmd *cli.Command) (err error) {
	bookID := cmd.Int("book")
	if bookID <= 0 {
		return errors.New("book id must be positive")
	}

	app, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, app.Close()) }()

	reader := app.DefaultReader
	if username := cmd.String("reader"); username != "" {
		reader, err = app.Readers.FindByUsername(ctx, username)
		if err != nil {
			return fmt.Errorf("reader %s: %w", username, err)
		}
	}
	if reader == nil {
		return errors.New("--reader is required when authentication is enabled")
	}

	book, err := app.Books.FindByID(ctx, uint(bookID))
	if err != nil {
		return fmt.Errorf("book %d: %w", bookID, err)
	}
	snap, err := app.Tracker.Progress(ctx, reader.ID, book.ID)
	if err != nil {
		return err
	}

	out := progressOutput{
		BookID:    book.ID,
		Title:     book.Title,
		Reader:    reader.Username,
		PagesRead: snap.PagesRead,
		Percent:   snap.Percent(),
		Status:    snap.Status,
	}
	if snap.Known() {
		total, remaining := snap.TotalPages, snap.Remaining
		out.TotalPages = &total
		out.Remaining = &remaining
	}

	if cmd.Bool("json") {
		return r.writeJSON(out)
	}
	return r.writeText(out)
}

func (r *Runner) writeText(p progressOutput) error {
	if err := r.writeLine("%s (book %d) for %s", p.Title, p.BookID, p.Reader); err != nil {
		return err
	}
	if p.TotalPages == nil {
		return r.writeLine("Pages read: %d (page count unknown)", p.PagesRead)
	}
	if err := r.writeLine("Pages read: %d of %d (%.1f%%)", p.PagesRead, *p.TotalPages, p.Percent); err != nil {
		return err
	}
	if err := r.writeLine("Remaining: %d", *p.Remaining); err != nil {
		return err
	}
	return r.writeLine("Status: %s", p.Status)
}
