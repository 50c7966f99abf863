package progress

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrlokans/booklog/internal/entities"
)

// SessionStore is the read side of reading session persistence.
type SessionStore interface {
	SumPagesForReaderAndBook(ctx context.Context, readerID, bookID uint) (int, error)
	FindByID(ctx context.Context, id uint) (*entities.ReadingSession, error)
}

// BookStore exposes page counts. TotalPages returns 0 for an unknown count
// and entities.ErrBookNotFound when the book does not exist.
type BookStore interface {
	TotalPages(ctx context.Context, bookID uint) (int, error)
}

// Snapshot is a reader's progress in one book at a point in time.
type Snapshot struct {
	ReaderID   uint
	BookID     uint
	TotalPages int // 0 when unknown
	PagesRead  int
	Remaining  int // Unbounded when TotalPages is unknown
	Progress   int
	Status     entities.ReadingStatus // empty when TotalPages is unknown
}

// Known reports whether the book's page count is known.
func (s Snapshot) Known() bool {
	return s.TotalPages > 0
}

// Percent returns progress as a percentage of the total, or 0 when unknown.
func (s Snapshot) Percent() float64 {
	if !s.Known() {
		return 0
	}
	return float64(s.Progress) * 100 / float64(s.TotalPages)
}

// Calculator computes progress from stored sessions.
type Calculator struct {
	sessions SessionStore
	books    BookStore
}

func NewCalculator(sessions SessionStore, books BookStore) *Calculator {
	return &Calculator{sessions: sessions, books: books}
}

// RemainingPages returns the pages left in the book for the reader. When
// excludeSessionID is non-zero that session's stored pages are left out of
// the sum, so an edited session is not counted against itself.
func (c *Calculator) RemainingPages(ctx context.Context, readerID, bookID, excludeSessionID uint) (int, error) {
	snap, err := c.Snapshot(ctx, readerID, bookID, excludeSessionID)
	if err != nil {
		return 0, err
	}
	return snap.Remaining, nil
}

// CurrentProgress returns the pages read so far, clamped to the book's total.
func (c *Calculator) CurrentProgress(ctx context.Context, readerID, bookID, excludeSessionID uint) (int, error) {
	snap, err := c.Snapshot(ctx, readerID, bookID, excludeSessionID)
	if err != nil {
		return 0, err
	}
	return snap.Progress, nil
}

// Snapshot reads the book total and the session sum once and derives every
// progress figure from them.
func (c *Calculator) Snapshot(ctx context.Context, readerID, bookID, excludeSessionID uint) (Snapshot, error) {
	total, err := c.books.TotalPages(ctx, bookID)
	if err != nil {
		return Snapshot{}, err
	}

	sum, err := c.sumExcluding(ctx, readerID, bookID, excludeSessionID)
	if err != nil {
		return Snapshot{}, err
	}

	if total < 0 {
		total = 0
	}
	status, _ := DeriveStatus(sum, total)
	return Snapshot{
		ReaderID:   readerID,
		BookID:     bookID,
		TotalPages: total,
		PagesRead:  sum,
		Remaining:  Remaining(total, sum),
		Progress:   Progress(total, sum),
		Status:     status,
	}, nil
}

func (c *Calculator) sumExcluding(ctx context.Context, readerID, bookID, excludeSessionID uint) (int, error) {
	sum, err := c.sessions.SumPagesForReaderAndBook(ctx, readerID, bookID)
	if err != nil {
		return 0, fmt.Errorf("sum pages: %w", err)
	}
	if excludeSessionID == 0 {
		return sum, nil
	}

	excluded, err := c.sessions.FindByID(ctx, excludeSessionID)
	if err != nil {
		if errors.Is(err, entities.ErrSessionNotFound) {
			return sum, nil
		}
		return 0, fmt.Errorf("load excluded session: %w", err)
	}
	if excluded.ReaderID != readerID || excluded.BookID != bookID {
		return sum, nil
	}
	return max(0, sum-excluded.PagesRead), nil
}
