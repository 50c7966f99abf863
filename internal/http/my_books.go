package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/booklog/internal/entities"
)

// MyBooksStore reads and trims a reader's "My Books" list.
type MyBooksStore interface {
	FindByReader(ctx context.Context, readerID uint) ([]entities.ReaderBook, error)
	RemoveForReader(ctx context.Context, readerID, bookID uint) error
}

// MyBooksTracker adds books to a reader's list with a status consistent
// with the reader's logged sessions.
type MyBooksTracker interface {
	AddToMyBooks(ctx context.Context, readerID, bookID uint, status entities.ReadingStatus) (entities.ReadingStatus, error)
}

type MyBooksController struct {
	store   MyBooksStore
	tracker MyBooksTracker
}

func NewMyBooksController(store MyBooksStore, tracker MyBooksTracker) *MyBooksController {
	return &MyBooksController{store: store, tracker: tracker}
}

// AddMyBookRequest is the body of POST /api/my-books.
type AddMyBookRequest struct {
	BookID uint                   `json:"book_id"`
	Status entities.ReadingStatus `json:"status"`
}

// List returns the reader's list with statuses.
// GET /api/my-books
func (mc *MyBooksController) List(c *gin.Context) {
	readerID, ok := currentReader(c)
	if !ok {
		return
	}

	entries, err := mc.store.FindByReader(c.Request.Context(), readerID)
	if err != nil {
		respondInternalError(c, err, "list my books")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"books": entries,
		"count": len(entries),
	})
}

// Add puts a book on the reader's list. The status defaults to WANT_TO_READ.
// POST /api/my-books
func (mc *MyBooksController) Add(c *gin.Context) {
	readerID, ok := currentReader(c)
	if !ok {
		return
	}

	var req AddMyBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.BookID == 0 {
		respondBadRequest(c, "book_id is required")
		return
	}
	if req.Status != "" && !req.Status.Valid() {
		respondUnprocessable(c, "invalid_status", "status must be one of WANT_TO_READ, READING, FINISHED")
		return
	}

	status, err := mc.tracker.AddToMyBooks(c.Request.Context(), readerID, req.BookID, req.Status)
	if err != nil {
		respondDomainError(c, err, "add to my books")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"book_id": req.BookID,
		"status":  status,
	})
}

// Remove takes a book off the reader's list.
// DELETE /api/my-books/:id
func (mc *MyBooksController) Remove(c *gin.Context) {
	readerID, ok := currentReader(c)
	if !ok {
		return
	}
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := mc.store.RemoveForReader(c.Request.Context(), readerID, bookID); err != nil {
		if errors.Is(err, entities.ErrBookNotFound) {
			respondNotFound(c, "book on reading list")
			return
		}
		respondInternalError(c, err, "remove from my books")
		return
	}

	c.Status(http.StatusNoContent)
}
