package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/booklog/internal/config"
	"github.com/mrlokans/booklog/internal/entities"
)

// Context keys for reader data
const (
	ContextKeyReaderID = "auth_reader_id"
	ContextKeyUsername = "auth_username"
	ContextKeyAuthType = "auth_type" // "session", "bearer", or "none"
)

// AuthType indicates how the reader was authenticated
type AuthType string

const (
	AuthTypeNone    AuthType = "none"
	AuthTypeSession AuthType = "session"
	AuthTypeBearer  AuthType = "bearer"
)

// Middleware resolves the reader behind every request.
type Middleware struct {
	service        *Service
	sessionManager *SessionManager
	config         config.Auth
	defaultReader  *entities.Reader
	publicPaths    map[string]bool
}

// NewMiddleware creates a new authentication middleware. defaultReader is
// the reader every request acts as when auth is disabled; it is ignored in
// local mode.
func NewMiddleware(service *Service, sessionManager *SessionManager, cfg config.Auth, defaultReader *entities.Reader) *Middleware {
	publicPaths := map[string]bool{
		"/health":            true,
		"/ping":              true,
		"/api/auth/login":    true,
		"/api/auth/register": true,
		"/api/auth/csrf":     true,
	}

	return &Middleware{
		service:        service,
		sessionManager: sessionManager,
		config:         cfg,
		defaultReader:  defaultReader,
		publicPaths:    publicPaths,
	}
}

// Handler returns a Gin middleware handler that authenticates requests.
func (m *Middleware) Handler() gin.HandlerFunc {
	if m.config.Mode == config.AuthModeNone {
		return m.noAuthHandler()
	}
	return m.authHandler()
}

// noAuthHandler acts as the default reader for every request.
func (m *Middleware) noAuthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.defaultReader != nil {
			c.Set(ContextKeyReaderID, m.defaultReader.ID)
			c.Set(ContextKeyUsername, m.defaultReader.Username)
		}
		c.Set(ContextKeyAuthType, AuthTypeNone)
		c.Next()
	}
}

func (m *Middleware) authHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Bearer first (API clients), then the session cookie
		if reader := m.tryBearerAuth(c); reader != nil {
			setReaderContext(c, reader, AuthTypeBearer)
			c.Next()
			return
		}
		if reader := m.trySessionAuth(c); reader != nil {
			setReaderContext(c, reader, AuthTypeSession)
			c.Next()
			return
		}

		if m.publicPaths[c.Request.URL.Path] {
			c.Set(ContextKeyAuthType, AuthTypeNone)
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": ErrAuthRequired.Error(),
			"code":  "unauthorized",
		})
	}
}

func (m *Middleware) tryBearerAuth(c *gin.Context) *entities.Reader {
	token, ok := bearerToken(c)
	if !ok {
		return nil
	}
	reader, err := m.service.ValidateToken(c.Request.Context(), token)
	if err != nil {
		return nil
	}
	return reader
}

func (m *Middleware) trySessionAuth(c *gin.Context) *entities.Reader {
	if m.sessionManager == nil {
		return nil
	}

	readerID := m.sessionManager.GetReaderID(c.Request)
	if readerID == 0 {
		return nil
	}

	reader, err := m.service.GetReaderByID(c.Request.Context(), readerID)
	if err != nil {
		return nil
	}
	return reader
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func setReaderContext(c *gin.Context, reader *entities.Reader, authType AuthType) {
	c.Set(ContextKeyReaderID, reader.ID)
	c.Set(ContextKeyUsername, reader.Username)
	c.Set(ContextKeyAuthType, authType)
}

// RequireReader aborts with 401 when no reader was resolved for the request.
// Public paths pass the auth handler without a reader, so routes that act on
// a reader's data inside a public group guard themselves with this.
func RequireReader() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetReaderID(c) == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": ErrAuthRequired.Error(),
				"code":  "unauthorized",
			})
			return
		}
		c.Next()
	}
}

// GetReaderID returns the reader the request acts for, or 0 when none.
func GetReaderID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyReaderID); exists {
		if readerID, ok := id.(uint); ok {
			return readerID
		}
	}
	return 0
}

// GetUsername retrieves the authenticated reader's username from the context.
func GetUsername(c *gin.Context) string {
	return c.GetString(ContextKeyUsername)
}

// GetAuthType retrieves the authentication method used.
func GetAuthType(c *gin.Context) AuthType {
	if t, exists := c.Get(ContextKeyAuthType); exists {
		if authType, ok := t.(AuthType); ok {
			return authType
		}
	}
	return AuthTypeNone
}
