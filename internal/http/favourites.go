package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/booklog/internal/entities"
)

// FavouritesStore defines database operations for favourites management.
type FavouritesStore interface {
	Add(ctx context.Context, readerID, bookID uint) error
	Remove(ctx context.Context, readerID, bookID uint) error
	IsFavourite(ctx context.Context, readerID, bookID uint) (bool, error)
	List(ctx context.Context, readerID uint) ([]entities.Book, error)
}

// BookFinder checks that a book exists.
type BookFinder interface {
	FindByID(ctx context.Context, id uint) (*entities.Book, error)
}

type FavouritesController struct {
	store FavouritesStore
	books BookFinder
}

func NewFavouritesController(store FavouritesStore, books BookFinder) *FavouritesController {
	return &FavouritesController{store: store, books: books}
}

// AddFavourite marks a book as a favourite.
// POST /api/books/:id/favourite
func (fc *FavouritesController) AddFavourite(c *gin.Context) {
	readerID, bookID, ok := fc.readerAndBook(c)
	if !ok {
		return
	}

	if err := fc.store.Add(c.Request.Context(), readerID, bookID); err != nil {
		respondInternalError(c, err, "add favourite")
		return
	}
	c.JSON(http.StatusOK, gin.H{"book_id": bookID, "favourite": true})
}

// RemoveFavourite unmarks a book.
// DELETE /api/books/:id/favourite
func (fc *FavouritesController) RemoveFavourite(c *gin.Context) {
	readerID, bookID, ok := fc.readerAndBook(c)
	if !ok {
		return
	}

	if err := fc.store.Remove(c.Request.Context(), readerID, bookID); err != nil {
		respondInternalError(c, err, "remove favourite")
		return
	}
	c.JSON(http.StatusOK, gin.H{"book_id": bookID, "favourite": false})
}

// GetFavourite reports whether the book is a favourite.
// GET /api/books/:id/favourite
func (fc *FavouritesController) GetFavourite(c *gin.Context) {
	readerID, bookID, ok := fc.readerAndBook(c)
	if !ok {
		return
	}

	favourite, err := fc.store.IsFavourite(c.Request.Context(), readerID, bookID)
	if err != nil {
		respondInternalError(c, err, "check favourite")
		return
	}
	c.JSON(http.StatusOK, gin.H{"book_id": bookID, "favourite": favourite})
}

// ListFavourites returns the reader's favourite books, newest first.
// GET /api/favourites
func (fc *FavouritesController) ListFavourites(c *gin.Context) {
	readerID, ok := currentReader(c)
	if !ok {
		return
	}

	books, err := fc.store.List(c.Request.Context(), readerID)
	if err != nil {
		respondInternalError(c, err, "list favourites")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"books": books,
		"count": len(books),
	})
}

func (fc *FavouritesController) readerAndBook(c *gin.Context) (uint, uint, bool) {
	readerID, ok := currentReader(c)
	if !ok {
		return 0, 0, false
	}
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return 0, 0, false
	}
	if _, err := fc.books.FindByID(c.Request.Context(), bookID); err != nil {
		respondDomainError(c, err, "find book")
		return 0, 0, false
	}
	return readerID, bookID, true
}
