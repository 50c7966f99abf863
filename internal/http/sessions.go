package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/booklog/internal/entities"
	"github.com/mrlokans/booklog/internal/progress"
	"github.com/mrlokans/booklog/internal/tracker"
)

// SessionTracker is the write side of reading sessions.
type SessionTracker interface {
	LogSession(ctx context.Context, readerID, bookID uint, input tracker.SessionInput) (*entities.ReadingSession, error)
	LogFinishedPage(ctx context.Context, readerID, bookID uint, finishedPage, durationMinutes int, occurredAt time.Time) (*entities.ReadingSession, error)
	UpdateSession(ctx context.Context, readerID, sessionID uint, input tracker.SessionInput) (*entities.ReadingSession, error)
	DeleteSession(ctx context.Context, readerID, sessionID uint) error
	ListSessions(ctx context.Context, readerID, bookID uint) ([]entities.ReadingSession, error)
	RecentSessions(ctx context.Context, readerID uint, limit int) ([]entities.ReadingSession, error)
	Progress(ctx context.Context, readerID, bookID uint) (progress.Snapshot, error)
}

type SessionsController struct {
	tracker SessionTracker
}

func NewSessionsController(tracker SessionTracker) *SessionsController {
	return &SessionsController{tracker: tracker}
}

// LogSessionRequest is the body of POST /api/books/:id/sessions. Exactly one
// of PagesRead and FinishedPage must be set.
type LogSessionRequest struct {
	PagesRead       *int       `json:"pages_read"`
	FinishedPage    *int       `json:"finished_page"`
	DurationMinutes int        `json:"duration_minutes"`
	OccurredAt      *time.Time `json:"occurred_at"`
}

// UpdateSessionRequest is the body of PUT /api/sessions/:id. A missing
// occurred_at keeps the stored date.
type UpdateSessionRequest struct {
	PagesRead       int        `json:"pages_read"`
	DurationMinutes int        `json:"duration_minutes"`
	OccurredAt      *time.Time `json:"occurred_at"`
}

// ProgressResponse describes a reader's progress in a book. TotalPages and
// Remaining are null when the page count is unknown.
type ProgressResponse struct {
	BookID     uint                   `json:"book_id"`
	TotalPages *int                   `json:"total_pages"`
	PagesRead  int                    `json:"pages_read"`
	Remaining  *int                   `json:"remaining"`
	Progress   int                    `json:"progress"`
	Percent    float64                `json:"percent"`
	Status     entities.ReadingStatus `json:"status,omitempty"`
}

func newProgressResponse(snap progress.Snapshot) ProgressResponse {
	resp := ProgressResponse{
		BookID:    snap.BookID,
		PagesRead: snap.PagesRead,
		Progress:  snap.Progress,
		Percent:   snap.Percent(),
		Status:    snap.Status,
	}
	if snap.Known() {
		total, remaining := snap.TotalPages, snap.Remaining
		resp.TotalPages = &total
		resp.Remaining = &remaining
	}
	return resp
}

// LogSession records a reading session for a book.
// POST /api/books/:id/sessions
func (sc *SessionsController) LogSession(c *gin.Context) {
	readerID, ok := currentReader(c)
	if !ok {
		return
	}
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req LogSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if (req.PagesRead == nil) == (req.FinishedPage == nil) {
		respondBadRequest(c, "exactly one of pages_read and finished_page is required")
		return
	}

	ctx := c.Request.Context()
	var session *entities.ReadingSession
	var err error
	if req.FinishedPage != nil {
		session, err = sc.tracker.LogFinishedPage(ctx, readerID, bookID, *req.FinishedPage, req.DurationMinutes, timeOrZero(req.OccurredAt))
	} else {
		session, err = sc.tracker.LogSession(ctx, readerID, bookID, tracker.SessionInput{
			PagesRead:       *req.PagesRead,
			DurationMinutes: req.DurationMinutes,
			OccurredAt:      timeOrZero(req.OccurredAt),
		})
	}
	if err != nil {
		respondDomainError(c, err, "log session")
		return
	}

	sc.respondWithProgress(c, http.StatusCreated, readerID, session)
}

// ListSessions returns the reader's sessions for a book, newest first.
// GET /api/books/:id/sessions
func (sc *SessionsController) ListSessions(c *gin.Context) {
	readerID, ok := currentReader(c)
	if !ok {
		return
	}
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	sessions, err := sc.tracker.ListSessions(c.Request.Context(), readerID, bookID)
	if err != nil {
		respondDomainError(c, err, "list sessions")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// GetProgress returns the reader's progress in a book.
// GET /api/books/:id/progress
func (sc *SessionsController) GetProgress(c *gin.Context) {
	readerID, ok := currentReader(c)
	if !ok {
		return
	}
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	snap, err := sc.tracker.Progress(c.Request.Context(), readerID, bookID)
	if err != nil {
		respondDomainError(c, err, "get progress")
		return
	}
	c.JSON(http.StatusOK, newProgressResponse(snap))
}

// RecentSessions returns the reader's latest sessions across all books.
// GET /api/sessions?limit=20
func (sc *SessionsController) RecentSessions(c *gin.Context) {
	readerID, ok := currentReader(c)
	if !ok {
		return
	}

	sessions, err := sc.tracker.RecentSessions(c.Request.Context(), readerID, parseLimit(c, 20, 100))
	if err != nil {
		respondInternalError(c, err, "recent sessions")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// UpdateSession edits a session's pages, duration and date.
// PUT /api/sessions/:id
func (sc *SessionsController) UpdateSession(c *gin.Context) {
	readerID, ok := currentReader(c)
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	session, err := sc.tracker.UpdateSession(c.Request.Context(), readerID, sessionID, tracker.SessionInput{
		PagesRead:       req.PagesRead,
		DurationMinutes: req.DurationMinutes,
		OccurredAt:      timeOrZero(req.OccurredAt),
	})
	if err != nil {
		respondDomainError(c, err, "update session")
		return
	}

	sc.respondWithProgress(c, http.StatusOK, readerID, session)
}

// DeleteSession removes a session.
// DELETE /api/sessions/:id
func (sc *SessionsController) DeleteSession(c *gin.Context) {
	readerID, ok := currentReader(c)
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := sc.tracker.DeleteSession(c.Request.Context(), readerID, sessionID); err != nil {
		respondDomainError(c, err, "delete session")
		return
	}
	c.Status(http.StatusNoContent)
}

// respondWithProgress returns the session together with the book's progress
// after the write. The write already succeeded, so a progress lookup failure
// only drops the progress field.
func (sc *SessionsController) respondWithProgress(c *gin.Context, status int, readerID uint, session *entities.ReadingSession) {
	body := gin.H{"session": session}
	snap, err := sc.tracker.Progress(c.Request.Context(), readerID, session.BookID)
	if err != nil {
		requestLogger(c).Warn("Failed to load progress after session write",
			zap.Uint("book_id", session.BookID),
			zap.Uint("session_id", session.ID),
			zap.Error(err))
	} else {
		body["progress"] = newProgressResponse(snap)
	}
	c.JSON(status, body)
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
