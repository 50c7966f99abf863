package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mrlokans/booklog/internal/auth"
	"github.com/mrlokans/booklog/internal/entities"
	"github.com/mrlokans/booklog/internal/progress"
	"github.com/mrlokans/booklog/internal/tracker"
)

// brokenProgressTracker stores sessions but cannot report progress.
type brokenProgressTracker struct {
	SessionTracker
}

func (brokenProgressTracker) LogSession(_ context.Context, readerID, bookID uint, input tracker.SessionInput) (*entities.ReadingSession, error) {
	return &entities.ReadingSession{ID: 7, ReaderID: readerID, BookID: bookID, PagesRead: input.PagesRead, DurationMinutes: input.DurationMinutes}, nil
}

func (brokenProgressTracker) Progress(context.Context, uint, uint) (progress.Snapshot, error) {
	return progress.Snapshot{}, errors.New("database is locked")
}

func (e *apiEnv) logPages(t *testing.T, bookID uint, pages int) map[string]any {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/books/"+itoa(bookID)+"/sessions", map[string]any{
		"pages_read":       pages,
		"duration_minutes": 30,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)
}

func sessionID(t *testing.T, body map[string]any) string {
	t.Helper()
	session := body["session"].(map[string]any)
	return itoa(uint(session["id"].(float64)))
}

func TestSessions_LogScenario(t *testing.T) {
	env := setupAPI(t)
	book := env.createBook(t, "Dune", intPtr(100))

	body := env.logPages(t, book.ID, 40)
	progress := body["progress"].(map[string]any)
	assert.Equal(t, float64(60), progress["remaining"])
	assert.Equal(t, string(entities.StatusReading), progress["status"])
	assert.Equal(t, float64(40), progress["percent"])

	body = env.logPages(t, book.ID, 60)
	progress = body["progress"].(map[string]any)
	assert.Equal(t, float64(0), progress["remaining"])
	assert.Equal(t, string(entities.StatusFinished), progress["status"])

	w := env.do(t, http.MethodPost, "/api/books/"+itoa(book.ID)+"/sessions", map[string]any{
		"pages_read":       1,
		"duration_minutes": 5,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "exceeds_remaining", decode(t, w)["code"])
}

func TestSessions_LogValidation(t *testing.T) {
	env := setupAPI(t)
	book := env.createBook(t, "Dune", intPtr(100))
	path := "/api/books/" + itoa(book.ID) + "/sessions"

	tests := []struct {
		name     string
		body     map[string]any
		wantCode int
		wantErr  string
	}{
		{"zero duration", map[string]any{"pages_read": 10, "duration_minutes": 0}, http.StatusUnprocessableEntity, "invalid_duration"},
		{"zero pages", map[string]any{"pages_read": 0, "duration_minutes": 10}, http.StatusUnprocessableEntity, "invalid_page_count"},
		{"negative pages", map[string]any{"pages_read": -3, "duration_minutes": 10}, http.StatusUnprocessableEntity, "invalid_page_count"},
		{"too many pages", map[string]any{"pages_read": 101, "duration_minutes": 10}, http.StatusUnprocessableEntity, "exceeds_remaining"},
		{"neither form", map[string]any{"duration_minutes": 10}, http.StatusBadRequest, "bad_request"},
		{"both forms", map[string]any{"pages_read": 10, "finished_page": 10, "duration_minutes": 10}, http.StatusBadRequest, "bad_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, path, tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			assert.Equal(t, tt.wantErr, decode(t, w)["code"])
		})
	}
}

func TestSessions_LogUnknownBook(t *testing.T) {
	env := setupAPI(t)

	w := env.do(t, http.MethodPost, "/api/books/999/sessions", map[string]any{
		"pages_read":       10,
		"duration_minutes": 10,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessions_UnknownTotalNeverExceeds(t *testing.T) {
	env := setupAPI(t)
	book := env.createBook(t, "Notes", nil)

	body := env.logPages(t, book.ID, 5000)
	progress := body["progress"].(map[string]any)
	assert.Nil(t, progress["total_pages"])
	assert.Nil(t, progress["remaining"])
	assert.Equal(t, float64(5000), progress["pages_read"])
	assert.NotContains(t, progress, "status")
}

func TestSessions_FinishedPage(t *testing.T) {
	env := setupAPI(t)
	book := env.createBook(t, "Dune", intPtr(100))
	env.logPages(t, book.ID, 30)

	w := env.do(t, http.MethodPost, "/api/books/"+itoa(book.ID)+"/sessions", map[string]any{
		"finished_page":    75,
		"duration_minutes": 20,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, float64(45), body["session"].(map[string]any)["pages_read"])
	assert.Equal(t, float64(75), body["progress"].(map[string]any)["progress"])

	w = env.do(t, http.MethodPost, "/api/books/"+itoa(book.ID)+"/sessions", map[string]any{
		"finished_page":    50,
		"duration_minutes": 20,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "invalid_page_count", decode(t, w)["code"])
}

func TestSessions_OccurredAt(t *testing.T) {
	env := setupAPI(t)
	book := env.createBook(t, "Dune", intPtr(100))

	when := time.Date(2024, 3, 1, 20, 30, 0, 0, time.UTC)
	w := env.do(t, http.MethodPost, "/api/books/"+itoa(book.ID)+"/sessions", map[string]any{
		"pages_read":       10,
		"duration_minutes": 15,
		"occurred_at":      when.Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	occurred, err := time.Parse(time.RFC3339, decode(t, w)["session"].(map[string]any)["occurred_at"].(string))
	require.NoError(t, err)
	assert.True(t, when.Equal(occurred))
}

func TestSessions_UpdateDoesNotDoubleCount(t *testing.T) {
	env := setupAPI(t)
	book := env.createBook(t, "Dune", intPtr(100))
	id := sessionID(t, env.logPages(t, book.ID, 30))

	w := env.do(t, http.MethodPut, "/api/sessions/"+id, map[string]any{
		"pages_read":       100,
		"duration_minutes": 60,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	progress := decode(t, w)["progress"].(map[string]any)
	assert.Equal(t, string(entities.StatusFinished), progress["status"])
	assert.Equal(t, float64(0), progress["remaining"])

	w = env.do(t, http.MethodPut, "/api/sessions/"+id, map[string]any{
		"pages_read":       101,
		"duration_minutes": 60,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.do(t, http.MethodPut, "/api/sessions/999", map[string]any{
		"pages_read":       1,
		"duration_minutes": 1,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessions_DeleteRefreshesProgress(t *testing.T) {
	env := setupAPI(t)
	book := env.createBook(t, "Dune", intPtr(100))
	env.logPages(t, book.ID, 40)
	id := sessionID(t, env.logPages(t, book.ID, 60))

	w := env.do(t, http.MethodDelete, "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/api/books/"+itoa(book.ID)+"/progress", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(60), body["remaining"])
	assert.Equal(t, string(entities.StatusReading), body["status"])

	w = env.do(t, http.MethodDelete, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessions_ListAndRecent(t *testing.T) {
	env := setupAPI(t)
	dune := env.createBook(t, "Dune", intPtr(100))
	hobbit := env.createBook(t, "The Hobbit", intPtr(300))
	env.logPages(t, dune.ID, 10)
	env.logPages(t, dune.ID, 20)
	env.logPages(t, hobbit.ID, 30)

	w := env.do(t, http.MethodGet, "/api/books/"+itoa(dune.ID)+"/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w)["count"])

	w = env.do(t, http.MethodGet, "/api/sessions?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w)["count"])

	w = env.do(t, http.MethodGet, "/api/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), decode(t, w)["count"])
}

func TestSessions_ProgressUnknownBook(t *testing.T) {
	env := setupAPI(t)

	w := env.do(t, http.MethodGet, "/api/books/12345/progress", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessions_LogKeepsResponseWhenProgressFails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.WarnLevel)

	sc := NewSessionsController(brokenProgressTracker{})
	router := gin.New()
	router.Use(RequestLogger(zap.New(core)))
	router.Use(func(c *gin.Context) { c.Set(auth.ContextKeyReaderID, uint(1)) })
	router.POST("/api/books/:id/sessions", sc.LogSession)

	req := httptest.NewRequest(http.MethodPost, "/api/books/3/sessions",
		bytes.NewBufferString(`{"pages_read": 12, "duration_minutes": 20}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.NotContains(t, body, "progress")
	assert.Equal(t, float64(12), body["session"].(map[string]any)["pages_read"])

	entries := logs.FilterMessage("Failed to load progress after session write").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, uint64(3), fields["book_id"])
	assert.Equal(t, "database is locked", fields["error"])
	assert.Contains(t, fields, "request_id")
}
