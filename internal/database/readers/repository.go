// Package readers provides database lookups for reader accounts.
//
// Account mutation (registration, login bookkeeping, tokens) lives in
// internal/auth; this package only reads.
//
// # Usage
//
//	repo := readers.NewRepository(db)
//	reader, err := repo.FindByUsername(ctx, "alice")
package readers

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mrlokans/booklog/internal/entities"
)

// Repository handles reader database lookups.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new readers repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID retrieves a reader by id.
func (r *Repository) FindByID(ctx context.Context, id uint) (*entities.Reader, error) {
	var reader entities.Reader
	err := r.db.WithContext(ctx).First(&reader, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrReaderNotFound
		}
		return nil, err
	}
	return &reader, nil
}

// FindByUsername retrieves a reader by username.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*entities.Reader, error) {
	var reader entities.Reader
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&reader).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrReaderNotFound
		}
		return nil, err
	}
	return &reader, nil
}

// Exists reports whether a reader with the given id exists.
func (r *Repository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Reader{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// List returns all readers ordered by username.
func (r *Repository) List(ctx context.Context) ([]entities.Reader, error) {
	var readers []entities.Reader
	err := r.db.WithContext(ctx).Order("username ASC").Find(&readers).Error
	return readers, err
}
