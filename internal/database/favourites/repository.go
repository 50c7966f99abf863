// Package favourites provides database operations for a reader's favourite books.
//
// This package implements the FavouritesStore interface defined in internal/http/favourites.go.
//
// # Interface Implementation
//
//	var _ http.FavouritesStore = (*Repository)(nil)
//
// # Usage
//
//	repo := favourites.NewRepository(db)
//	books, err := repo.List(ctx, readerID)
package favourites

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/booklog/internal/entities"
)

// Repository handles all favourites database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new favourites repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Add marks a book as a favourite of the reader. Adding twice is a no-op.
func (r *Repository) Add(ctx context.Context, readerID, bookID uint) error {
	fav := entities.Favourite{ReaderID: readerID, BookID: bookID}
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&fav).Error
}

// Remove unmarks a favourite. Removing a book that is not a favourite is a no-op.
func (r *Repository) Remove(ctx context.Context, readerID, bookID uint) error {
	return r.db.WithContext(ctx).
		Where("reader_id = ? AND book_id = ?", readerID, bookID).
		Delete(&entities.Favourite{}).Error
}

// IsFavourite reports whether the reader marked the book as a favourite.
func (r *Repository) IsFavourite(ctx context.Context, readerID, bookID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entities.Favourite{}).
		Where("reader_id = ? AND book_id = ?", readerID, bookID).
		Count(&count).Error
	return count > 0, err
}

// List returns the reader's favourite books, most recently added first.
func (r *Repository) List(ctx context.Context, readerID uint) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.WithContext(ctx).
		Joins("JOIN favourites ON favourites.book_id = books.id").
		Where("favourites.reader_id = ?", readerID).
		Order("favourites.created_at DESC, books.id DESC").
		Find(&books).Error
	return books, err
}
