package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/booklog/internal/config"
	"github.com/mrlokans/booklog/internal/entities"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupMiddleware(t *testing.T, authMode config.AuthMode) (*Middleware, *Service) {
	t.Helper()

	db := setupTestDB(t)
	cfg := testAuthConfig()
	cfg.Mode = authMode

	defaultReader := &entities.Reader{Username: "reader"}
	if err := db.Create(defaultReader).Error; err != nil {
		t.Fatalf("failed to create default reader: %v", err)
	}

	service := NewService(db, cfg)
	return NewMiddleware(service, nil, cfg, defaultReader), service
}

func readerRouter(m *Middleware) *gin.Engine {
	router := gin.New()
	router.Use(m.Handler())
	handler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"reader_id": GetReaderID(c),
			"username":  GetUsername(c),
			"auth_type": GetAuthType(c),
		})
	}
	router.GET("/api/books", handler)
	router.GET("/health", handler)
	router.POST("/api/auth/login", handler)
	return router
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
	return body
}

func TestMiddleware_NoAuthModeUsesDefaultReader(t *testing.T) {
	middleware, _ := setupMiddleware(t, config.AuthModeNone)
	router := readerRouter(middleware)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/books", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["reader_id"] != float64(middleware.defaultReader.ID) {
		t.Errorf("Expected default reader id %d, got %v", middleware.defaultReader.ID, body["reader_id"])
	}
	if body["username"] != "reader" {
		t.Errorf("Expected username 'reader', got %v", body["username"])
	}
	if body["auth_type"] != string(AuthTypeNone) {
		t.Errorf("Expected auth_type 'none', got %v", body["auth_type"])
	}
}

func TestMiddleware_LocalModeRejectsAnonymous(t *testing.T) {
	middleware, _ := setupMiddleware(t, config.AuthModeLocal)
	router := readerRouter(middleware)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/books", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("Expected status 401, got %d", rr.Code)
	}
	if body := decodeBody(t, rr); body["code"] != "unauthorized" {
		t.Errorf("Expected code 'unauthorized', got %v", body["code"])
	}
}

func TestMiddleware_PublicPaths(t *testing.T) {
	middleware, _ := setupMiddleware(t, config.AuthModeLocal)
	router := readerRouter(middleware)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/health", nil),
		httptest.NewRequest(http.MethodPost, "/api/auth/login", nil),
	} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("%s %s: expected status 200, got %d", req.Method, req.URL.Path, rr.Code)
		}
		if body := decodeBody(t, rr); body["reader_id"] != float64(0) {
			t.Errorf("%s: expected no reader, got %v", req.URL.Path, body["reader_id"])
		}
	}
}

func TestMiddleware_BearerAuth(t *testing.T) {
	middleware, service := setupMiddleware(t, config.AuthModeLocal)
	router := readerRouter(middleware)
	ctx := context.Background()

	reader, err := service.Register(ctx, "alice", testPassword)
	if err != nil {
		t.Fatalf("Failed to register: %v", err)
	}
	token, err := service.GenerateToken(ctx, reader.ID)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "valid token", header: "Bearer " + token, wantStatus: http.StatusOK},
		{name: "lowercase scheme", header: "bearer " + token, wantStatus: http.StatusOK},
		{name: "invalid token", header: "Bearer bl_nope", wantStatus: http.StatusUnauthorized},
		{name: "basic scheme", header: "Basic " + token, wantStatus: http.StatusUnauthorized},
		{name: "missing token", header: "Bearer ", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
			req.Header.Set("Authorization", tt.header)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if tt.wantStatus == http.StatusOK {
				body := decodeBody(t, rr)
				if body["reader_id"] != float64(reader.ID) {
					t.Errorf("Expected reader id %d, got %v", reader.ID, body["reader_id"])
				}
				if body["auth_type"] != string(AuthTypeBearer) {
					t.Errorf("Expected auth_type 'bearer', got %v", body["auth_type"])
				}
			}
		})
	}
}

func TestRequireReader(t *testing.T) {
	router := gin.New()
	router.GET("/guarded", RequireReader(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/guarded", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rr.Code)
	}
}

func TestContextHelpers_Empty(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if id := GetReaderID(c); id != 0 {
		t.Errorf("GetReaderID() = %d, want 0", id)
	}
	if name := GetUsername(c); name != "" {
		t.Errorf("GetUsername() = %q, want empty", name)
	}
	if authType := GetAuthType(c); authType != AuthTypeNone {
		t.Errorf("GetAuthType() = %q, want none", authType)
	}
}
