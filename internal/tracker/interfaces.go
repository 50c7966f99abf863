package tracker

import (
	"context"
	"time"

	"github.com/mrlokans/booklog/internal/entities"
	"github.com/mrlokans/booklog/internal/progress"
)

// SessionRepository persists reading sessions.
type SessionRepository interface {
	progress.SessionStore
	Create(ctx context.Context, session *entities.ReadingSession) error
	Update(ctx context.Context, session *entities.ReadingSession) error
	Delete(ctx context.Context, id uint) error
	FindByReaderAndBook(ctx context.Context, readerID, bookID uint) ([]entities.ReadingSession, error)
	FindByReader(ctx context.Context, readerID uint, limit int) ([]entities.ReadingSession, error)
	ReaderBookPairs(ctx context.Context, readerID uint) ([]entities.ReaderBookPair, error)
}

// BookRepository exposes page counts and the per-reader status projection.
type BookRepository interface {
	progress.BookStore
	SetStatus(ctx context.Context, bookID, readerID uint, status entities.ReadingStatus) error
	AddForReader(ctx context.Context, readerID, bookID uint, status entities.ReadingStatus) error
	ReaderBookPairs(ctx context.Context, readerID uint) ([]entities.ReaderBookPair, error)
}

// ReaderLookup checks that a reader exists.
type ReaderLookup interface {
	Exists(ctx context.Context, id uint) (bool, error)
}

// SessionInput is the editable part of a reading session.
type SessionInput struct {
	PagesRead       int
	DurationMinutes int
	OccurredAt      time.Time // zero means now
}
