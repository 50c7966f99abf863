// Package sessions provides database operations for reading sessions.
//
// This package implements the SessionStore interfaces defined in
// internal/progress/calculator.go and internal/tracker/service.go.
//
// # Interface Implementation
//
//	var _ progress.SessionStore = (*Repository)(nil)
//	var _ tracker.SessionRepository = (*Repository)(nil)
//
// # Usage
//
//	repo := sessions.NewRepository(db)
//	sum, err := repo.SumPagesForReaderAndBook(ctx, readerID, bookID)
package sessions

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mrlokans/booklog/internal/entities"
)

// ErrSessionHasID is returned when creating a session that was already persisted.
var ErrSessionHasID = errors.New("reading session already has an id")

// Repository handles reading session database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new sessions repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new session. The session must not have an id yet.
func (r *Repository) Create(ctx context.Context, session *entities.ReadingSession) error {
	if session.ID != 0 {
		return ErrSessionHasID
	}
	return r.db.WithContext(ctx).Omit("Reader", "Book").Create(session).Error
}

// Update writes the editable fields of an existing session.
func (r *Repository) Update(ctx context.Context, session *entities.ReadingSession) error {
	result := r.db.WithContext(ctx).
		Model(&entities.ReadingSession{}).
		Where("id = ?", session.ID).
		Updates(map[string]any{
			"pages_read":       session.PagesRead,
			"duration_minutes": session.DurationMinutes,
			"occurred_at":      session.OccurredAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return entities.ErrSessionNotFound
	}
	return nil
}

// Delete removes a session by id.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.ReadingSession{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return entities.ErrSessionNotFound
	}
	return nil
}

// FindByID retrieves a session by id.
func (r *Repository) FindByID(ctx context.Context, id uint) (*entities.ReadingSession, error) {
	var session entities.ReadingSession
	err := r.db.WithContext(ctx).First(&session, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

// FindByReaderAndBook returns a reader's sessions for one book, most recent first.
func (r *Repository) FindByReaderAndBook(ctx context.Context, readerID, bookID uint) ([]entities.ReadingSession, error) {
	var sessions []entities.ReadingSession
	err := r.db.WithContext(ctx).
		Where("reader_id = ? AND book_id = ?", readerID, bookID).
		Order("occurred_at DESC, id DESC").
		Find(&sessions).Error
	return sessions, err
}

// FindByReader returns a reader's sessions across all books, most recent
// first. A limit of zero or less returns everything.
func (r *Repository) FindByReader(ctx context.Context, readerID uint, limit int) ([]entities.ReadingSession, error) {
	var sessions []entities.ReadingSession
	query := r.db.WithContext(ctx).
		Where("reader_id = ?", readerID).
		Order("occurred_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&sessions).Error
	return sessions, err
}

// SumPagesForReaderAndBook returns the pages logged by a reader for a book,
// 0 when there are no sessions.
func (r *Repository) SumPagesForReaderAndBook(ctx context.Context, readerID, bookID uint) (int, error) {
	var sum int64
	err := r.db.WithContext(ctx).
		Model(&entities.ReadingSession{}).
		Where("reader_id = ? AND book_id = ?", readerID, bookID).
		Select("COALESCE(SUM(pages_read), 0)").
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	return int(sum), nil
}

// MaxPagesLoggedForBook returns the largest per-reader page total logged for
// a book, 0 when nobody has logged it.
func (r *Repository) MaxPagesLoggedForBook(ctx context.Context, bookID uint) (int, error) {
	var totals []struct{ Total int64 }
	err := r.db.WithContext(ctx).
		Model(&entities.ReadingSession{}).
		Select("SUM(pages_read) AS total").
		Where("book_id = ?", bookID).
		Group("reader_id").
		Scan(&totals).Error
	if err != nil {
		return 0, err
	}
	var highest int64
	for _, t := range totals {
		if t.Total > highest {
			highest = t.Total
		}
	}
	return int(highest), nil
}

// ReaderBookPairs lists the distinct (reader, book) pairs that have sessions.
// A zero readerID lists every reader.
func (r *Repository) ReaderBookPairs(ctx context.Context, readerID uint) ([]entities.ReaderBookPair, error) {
	var pairs []entities.ReaderBookPair
	query := r.db.WithContext(ctx).
		Model(&entities.ReadingSession{}).
		Distinct("reader_id", "book_id")
	if readerID > 0 {
		query = query.Where("reader_id = ?", readerID)
	}
	err := query.Order("reader_id, book_id").Scan(&pairs).Error
	return pairs, err
}
