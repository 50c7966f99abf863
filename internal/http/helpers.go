package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/booklog/internal/auth"
	"github.com/mrlokans/booklog/internal/entities"
	"github.com/mrlokans/booklog/internal/progress"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // additional context (validation errors, etc.)
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: "bad_request"})
}

// respondUnprocessable sends a 422 response for input that parsed but is invalid.
func respondUnprocessable(c *gin.Context, code, message string) {
	c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: message, Code: code})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found", Code: "not_found"})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	requestLogger(c).Error("Internal error", zap.String("context", context), zap.Error(err))
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: "internal_error"})
}

// respondDomainError maps errors from the tracker and the stores onto HTTP
// statuses. Anything unrecognised is a 500.
func respondDomainError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, progress.ErrInvalidDuration):
		respondUnprocessable(c, "invalid_duration", err.Error())
	case errors.Is(err, progress.ErrInvalidPageCount):
		respondUnprocessable(c, "invalid_page_count", err.Error())
	case errors.Is(err, progress.ErrExceedsRemaining):
		respondUnprocessable(c, "exceeds_remaining", err.Error())
	case errors.Is(err, entities.ErrBookNotFound):
		respondNotFound(c, "book")
	case errors.Is(err, entities.ErrSessionNotFound):
		respondNotFound(c, "reading session")
	case errors.Is(err, entities.ErrReaderNotFound):
		respondNotFound(c, "reader")
	case errors.Is(err, auth.ErrAuthRequired):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error(), Code: "unauthorized"})
	default:
		respondInternalError(c, err, context)
	}
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(paramName), 10, 32)
	if err != nil || id == 0 {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// parseLimit reads the limit query parameter, falling back to def and
// capping at max.
func parseLimit(c *gin.Context, def, max int) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		return def
	}
	return min(limit, max)
}

// currentReader returns the reader the request acts for. It responds with
// 401 and returns false when there is none.
func currentReader(c *gin.Context) (uint, bool) {
	readerID := auth.GetReaderID(c)
	if readerID == 0 {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: auth.ErrAuthRequired.Error(), Code: "unauthorized"})
		return 0, false
	}
	return readerID, true
}
