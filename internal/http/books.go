package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/booklog/internal/entities"
	"github.com/mrlokans/booklog/internal/importers"
)

// BookStore defines the catalog operations the books endpoints need.
type BookStore interface {
	Create(ctx context.Context, book *entities.Book) error
	FindByID(ctx context.Context, id uint) (*entities.Book, error)
	FindAll(ctx context.Context) ([]entities.Book, error)
}

// BookImporter imports a catalog CSV.
type BookImporter interface {
	ImportBooksCSV(ctx context.Context, r io.Reader) (importers.ImportResult, error)
}

type BooksController struct {
	store          BookStore
	importer       BookImporter
	maxUploadBytes int64
}

func NewBooksController(store BookStore, importer BookImporter, maxUploadBytes int64) *BooksController {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &BooksController{store: store, importer: importer, maxUploadBytes: maxUploadBytes}
}

// CreateBookRequest is the body of POST /api/books.
type CreateBookRequest struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Pages    *int   `json:"pages"`
	Genre    string `json:"genre"`
	Language string `json:"language"`
}

// GetAllBooks lists the catalog.
// GET /api/books
func (bc *BooksController) GetAllBooks(c *gin.Context) {
	books, err := bc.store.FindAll(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"books": books,
		"count": len(books),
	})
}

// GetBook returns one book.
// GET /api/books/:id
func (bc *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.store.FindByID(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err, "get book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// CreateBook adds a book to the catalog. The page count is optional.
// POST /api/books
func (bc *BooksController) CreateBook(c *gin.Context) {
	var req CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		respondUnprocessable(c, "invalid_book", "title is required")
		return
	}
	if req.Pages != nil && *req.Pages < 0 {
		respondUnprocessable(c, "invalid_book", "pages must not be negative")
		return
	}

	book := &entities.Book{
		Title:    title,
		Author:   strings.TrimSpace(req.Author),
		Pages:    req.Pages,
		Genre:    strings.TrimSpace(req.Genre),
		Language: strings.TrimSpace(req.Language),
	}
	if err := bc.store.Create(c.Request.Context(), book); err != nil {
		respondInternalError(c, err, "create book")
		return
	}

	c.JSON(http.StatusCreated, book)
}

// Import loads a catalog CSV, sent either as the "file" field of a
// multipart form or as the raw request body.
// POST /api/books/import
func (bc *BooksController) Import(c *gin.Context) {
	if bc.importer == nil {
		respondNotFound(c, "importer")
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, bc.maxUploadBytes)

	var source io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			if isTooLarge(err) {
				respondTooLarge(c)
				return
			}
			respondBadRequest(c, "file is required")
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			respondBadRequest(c, "failed to open uploaded file")
			return
		}
		defer file.Close()
		source = file
	}

	result, err := bc.importer.ImportBooksCSV(c.Request.Context(), source)
	if err != nil {
		if isTooLarge(err) {
			respondTooLarge(c)
			return
		}
		respondInternalError(c, err, "import books")
		return
	}

	c.JSON(http.StatusOK, result)
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func respondTooLarge(c *gin.Context) {
	c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "upload too large", Code: "too_large"})
}
