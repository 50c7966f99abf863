package importers

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/mrlokans/booklog/internal/entities"
)

// BookStore persists imported books, inserting or updating by id.
type BookStore interface {
	Upsert(ctx context.Context, books []entities.Book) error
}

// Reconciler brings reading statuses in line after the catalog changed.
// Page counts may have changed, so every stored status can be stale.
type Reconciler interface {
	Reconcile(ctx context.Context) error
}

// LoggedPages reports how far readers already got in a book.
type LoggedPages interface {
	MaxPagesLoggedForBook(ctx context.Context, bookID uint) (int, error)
}

// ImportResult contains the outcome of an import operation.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// Pipeline handles the import workflow:
// parse → upsert → reconcile statuses.
type Pipeline struct {
	store      BookStore
	reconciler Reconciler
	logged     LoggedPages
	logger     *zap.Logger
}

// NewPipeline creates a new import pipeline. reconciler may be nil.
func NewPipeline(store BookStore, reconciler Reconciler, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{store: store, reconciler: reconciler, logger: logger.Named("importer")}
}

// SetLoggedPages makes the pipeline reject rows that would shrink a book's
// page count below what a reader already logged.
func (p *Pipeline) SetLoggedPages(logged LoggedPages) {
	p.logged = logged
}

// ImportBooksCSV parses a catalog CSV and stores every valid row. Bad rows
// are skipped and reported in the result. A reconcile failure is logged and
// does not fail the import.
func (p *Pipeline) ImportBooksCSV(ctx context.Context, r io.Reader) (ImportResult, error) {
	books, problems, err := ParseBooksCSV(r)
	if err != nil {
		return ImportResult{}, err
	}

	books, rejected, err := p.rejectShrunkBooks(ctx, books)
	if err != nil {
		return ImportResult{}, err
	}
	problems = append(problems, rejected...)

	result := ImportResult{Skipped: len(problems), Errors: problems}
	if len(books) == 0 {
		return result, nil
	}

	if err := p.store.Upsert(ctx, books); err != nil {
		return result, fmt.Errorf("failed to store books: %w", err)
	}
	result.Imported = len(books)

	p.logger.Info("Books imported",
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped))

	if p.reconciler != nil {
		if err := p.reconciler.Reconcile(ctx); err != nil {
			p.logger.Warn("Failed to reconcile statuses after import", zap.Error(err))
		}
	}

	return result, nil
}

// rejectShrunkBooks drops rows whose known page count is below the largest
// total any reader logged for that book.
func (p *Pipeline) rejectShrunkBooks(ctx context.Context, books []entities.Book) ([]entities.Book, []string, error) {
	if p.logged == nil {
		return books, nil, nil
	}

	kept := books[:0]
	var rejected []string
	for _, book := range books {
		if book.ID == 0 || book.TotalPages() <= 0 {
			kept = append(kept, book)
			continue
		}
		logged, err := p.logged.MaxPagesLoggedForBook(ctx, book.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to check logged pages for book %d: %w", book.ID, err)
		}
		if book.TotalPages() < logged {
			rejected = append(rejected, fmt.Sprintf("Book %d: skipped - %d pages is below the %d pages already logged", book.ID, book.TotalPages(), logged))
			continue
		}
		kept = append(kept, book)
	}
	return kept, rejected, nil
}
