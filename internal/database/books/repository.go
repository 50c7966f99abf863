// Package books provides database operations for the book catalog and each
// reader's "My Books" list, including the persisted status projection.
//
// This package implements the BookStore interfaces defined in
// internal/progress/calculator.go, internal/tracker/service.go and
// internal/http/books.go.
//
// # Interface Implementation
//
//	var _ progress.BookStore = (*Repository)(nil)
//	var _ tracker.BookRepository = (*Repository)(nil)
//	var _ http.BooksStore = (*Repository)(nil)
//
// # Usage
//
//	repo := books.NewRepository(db)
//	total, err := repo.TotalPages(ctx, bookID)
//	err = repo.SetStatus(ctx, bookID, readerID, entities.StatusReading)
package books

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/booklog/internal/entities"
)

// Repository handles catalog and reader list database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new book.
func (r *Repository) Create(ctx context.Context, book *entities.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

// Upsert inserts books, updating every column of rows whose id already exists.
// Books with a zero id are always inserted.
func (r *Repository) Upsert(ctx context.Context, books []entities.Book) error {
	if len(books) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range books {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"title", "author", "pages", "genre", "language", "updated_at"}),
			}).Create(&books[i]).Error
			if err != nil {
				return fmt.Errorf("upsert book %q: %w", books[i].Title, err)
			}
		}
		// Explicit ids do not advance a Postgres serial sequence.
		if tx.Dialector.Name() == "postgres" {
			return tx.Exec("SELECT setval(pg_get_serial_sequence('books', 'id'), COALESCE((SELECT MAX(id) FROM books), 1))").Error
		}
		return nil
	})
}

// FindByID retrieves a book by its ID.
func (r *Repository) FindByID(ctx context.Context, id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.WithContext(ctx).First(&book, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrBookNotFound
		}
		return nil, err
	}
	return &book, nil
}

// FindAll returns the whole catalog ordered by title.
func (r *Repository) FindAll(ctx context.Context) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.WithContext(ctx).Order("title ASC, id ASC").Find(&books).Error
	return books, err
}

// TotalPages returns the page count of a book, 0 when unknown.
func (r *Repository) TotalPages(ctx context.Context, bookID uint) (int, error) {
	book, err := r.FindByID(ctx, bookID)
	if err != nil {
		return 0, err
	}
	return book.TotalPages(), nil
}

// AddForReader puts a book on the reader's list with the given status,
// replacing the status if the book is already there.
func (r *Repository) AddForReader(ctx context.Context, readerID, bookID uint, status entities.ReadingStatus) error {
	return r.SetStatus(ctx, bookID, readerID, status)
}

// RemoveForReader takes a book off the reader's list. Logged sessions are kept.
func (r *Repository) RemoveForReader(ctx context.Context, readerID, bookID uint) error {
	result := r.db.WithContext(ctx).
		Where("reader_id = ? AND book_id = ?", readerID, bookID).
		Delete(&entities.ReaderBook{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return entities.ErrBookNotFound
	}
	return nil
}

// FindByReader returns the reader's list with books preloaded, most recently
// updated first.
func (r *Repository) FindByReader(ctx context.Context, readerID uint) ([]entities.ReaderBook, error) {
	var entries []entities.ReaderBook
	err := r.db.WithContext(ctx).
		Preload("Book").
		Where("reader_id = ?", readerID).
		Order("updated_at DESC, book_id ASC").
		Find(&entries).Error
	return entries, err
}

// SetStatus upserts the reader's status for a book.
func (r *Repository) SetStatus(ctx context.Context, bookID, readerID uint, status entities.ReadingStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid reading status %q", status)
	}
	entry := entities.ReaderBook{ReaderID: readerID, BookID: bookID, Status: status}
	return r.db.WithContext(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "reader_id"}, {Name: "book_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(&entry).Error
}

// GetStatus returns the stored status, or ErrBookNotFound when the book is
// not on the reader's list.
func (r *Repository) GetStatus(ctx context.Context, readerID, bookID uint) (entities.ReadingStatus, error) {
	var entry entities.ReaderBook
	err := r.db.WithContext(ctx).
		Where("reader_id = ? AND book_id = ?", readerID, bookID).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", entities.ErrBookNotFound
		}
		return "", err
	}
	return entry.Status, nil
}

// ReaderBookPairs lists the (reader, book) pairs on reading lists. A zero
// readerID lists every reader.
func (r *Repository) ReaderBookPairs(ctx context.Context, readerID uint) ([]entities.ReaderBookPair, error) {
	var pairs []entities.ReaderBookPair
	query := r.db.WithContext(ctx).Model(&entities.ReaderBook{}).Select("reader_id, book_id")
	if readerID > 0 {
		query = query.Where("reader_id = ?", readerID)
	}
	err := query.Order("reader_id, book_id").Scan(&pairs).Error
	return pairs, err
}
