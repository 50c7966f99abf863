package auth

import (
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/booklog/internal/config"
	"github.com/mrlokans/booklog/internal/entities"
)

// credentials is the request body of register and login.
type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type passwordChange struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ReaderResponse is the public view of a reader account.
type ReaderResponse struct {
	ID       uint            `json:"id"`
	Username string          `json:"username"`
	AuthType AuthType        `json:"auth_type,omitempty"`
	AuthMode config.AuthMode `json:"auth_mode"`
}

// AuthController serves the /api/auth endpoints.
type AuthController struct {
	service        *Service
	sessionManager *SessionManager
	config         config.Auth
	rateLimiter    *RateLimiter
	logger         *zap.Logger
	registerMu     sync.Mutex
}

// NewAuthController creates a new authentication controller.
func NewAuthController(service *Service, sessionManager *SessionManager, cfg config.Auth, logger *zap.Logger) *AuthController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthController{
		service:        service,
		sessionManager: sessionManager,
		config:         cfg,
		rateLimiter: NewRateLimiter(RateLimitConfig{
			MaxAttempts:     cfg.MaxLoginAttempts,
			WindowDuration:  cfg.RateLimitWindow,
			LockoutDuration: cfg.LockoutDuration,
		}),
		logger: logger.Named("auth"),
	}
}

// RegisterRoutes registers authentication routes under the given group.
func (ac *AuthController) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/register", ac.Register)
	group.POST("/login", ac.Login)
	group.POST("/logout", ac.Logout)
	group.GET("/me", ac.Me)
	group.GET("/csrf", ac.CSRFToken)
	group.PUT("/password", ac.ChangePassword)
	group.POST("/token", ac.GenerateToken)
	group.DELETE("/token", ac.RevokeToken)
}

// Stop releases the rate limiter goroutine.
func (ac *AuthController) Stop() {
	ac.rateLimiter.Stop()
}

func authError(c *gin.Context, status int, code string, err error) {
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

func (ac *AuthController) requireLocalMode(c *gin.Context) bool {
	if ac.config.Mode == config.AuthModeLocal {
		return true
	}
	authError(c, http.StatusConflict, "auth_disabled", errors.New("authentication is disabled"))
	return false
}

// Register creates a reader account and logs it in.
func (ac *AuthController) Register(c *gin.Context) {
	if !ac.requireLocalMode(c) {
		return
	}

	var body credentials
	if err := c.ShouldBindJSON(&body); err != nil {
		authError(c, http.StatusBadRequest, "invalid_request", errors.New("invalid request body"))
		return
	}

	// Serialize registrations so concurrent duplicates resolve to one winner
	ac.registerMu.Lock()
	reader, err := ac.service.Register(c.Request.Context(), body.Username, body.Password)
	ac.registerMu.Unlock()
	if err != nil {
		switch {
		case errors.Is(err, ErrReaderExists):
			authError(c, http.StatusConflict, "reader_exists", err)
		case errors.Is(err, ErrUsernameRequired), errors.Is(err, ErrPasswordRequired),
			errors.Is(err, ErrUsernameInvalid), errors.Is(err, ErrPasswordTooShort),
			errors.Is(err, ErrPasswordTooLong):
			authError(c, http.StatusUnprocessableEntity, "invalid_credentials_format", err)
		default:
			ac.logger.Error("Failed to register reader", zap.Error(err))
			authError(c, http.StatusInternalServerError, "internal_error", errors.New("failed to register"))
		}
		return
	}

	ac.logger.Info("Reader registered", zap.Uint("reader_id", reader.ID), zap.String("username", reader.Username))

	if ac.sessionManager != nil {
		if err := ac.sessionManager.CreateSession(c.Request, reader); err != nil {
			ac.logger.Error("Failed to create session", zap.Error(err))
		}
	}

	c.JSON(http.StatusCreated, ac.readerResponse(reader, AuthTypeSession))
}

// Login checks credentials and starts a cookie session.
func (ac *AuthController) Login(c *gin.Context) {
	if !ac.requireLocalMode(c) {
		return
	}

	var body credentials
	if err := c.ShouldBindJSON(&body); err != nil {
		authError(c, http.StatusBadRequest, "invalid_request", errors.New("invalid request body"))
		return
	}
	clientIP := c.ClientIP()

	if allowed, retryAfter := ac.rateLimiter.Allow(clientIP, body.Username); !allowed {
		c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
		authError(c, http.StatusTooManyRequests, "too_many_attempts", errors.New("too many login attempts"))
		return
	}

	reader, err := ac.service.Authenticate(c.Request.Context(), body.Username, body.Password)
	if err != nil {
		ac.rateLimiter.RecordFailure(clientIP, body.Username)
		switch {
		case errors.Is(err, ErrAccountLocked):
			authError(c, http.StatusUnauthorized, "account_locked", err)
		case errors.Is(err, ErrInvalidCredentials):
			authError(c, http.StatusUnauthorized, "invalid_credentials", err)
		default:
			ac.logger.Error("Login failed", zap.Error(err))
			authError(c, http.StatusInternalServerError, "internal_error", errors.New("login failed"))
		}
		return
	}
	ac.rateLimiter.RecordSuccess(clientIP, body.Username)

	if ac.sessionManager != nil {
		if err := ac.sessionManager.CreateSession(c.Request, reader); err != nil {
			ac.logger.Error("Failed to create session", zap.Error(err))
			authError(c, http.StatusInternalServerError, "internal_error", errors.New("failed to create session"))
			return
		}
	}

	ac.logger.Info("Reader logged in", zap.Uint("reader_id", reader.ID))
	c.JSON(http.StatusOK, ac.readerResponse(reader, AuthTypeSession))
}

// Logout destroys the cookie session.
func (ac *AuthController) Logout(c *gin.Context) {
	if ac.sessionManager != nil {
		if err := ac.sessionManager.DestroySession(c.Request); err != nil {
			ac.logger.Warn("Failed to destroy session", zap.Error(err))
		}
	}
	c.Status(http.StatusNoContent)
}

// Me returns the reader the request acts for.
func (ac *AuthController) Me(c *gin.Context) {
	readerID := GetReaderID(c)
	if readerID == 0 {
		authError(c, http.StatusUnauthorized, "unauthorized", ErrAuthRequired)
		return
	}

	reader, err := ac.service.GetReaderByID(c.Request.Context(), readerID)
	if err != nil {
		if errors.Is(err, entities.ErrReaderNotFound) {
			authError(c, http.StatusUnauthorized, "unauthorized", ErrAuthRequired)
			return
		}
		ac.logger.Error("Failed to load reader", zap.Error(err))
		authError(c, http.StatusInternalServerError, "internal_error", errors.New("failed to load reader"))
		return
	}

	c.JSON(http.StatusOK, ac.readerResponse(reader, GetAuthType(c)))
}

// CSRFToken hands out the token cookie-authenticated clients must send back
// in the X-CSRF-Token header on unsafe requests.
func (ac *AuthController) CSRFToken(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"csrf_token": GetCSRFToken(c), "header": CSRFTokenHeader})
}

// ChangePassword replaces the current reader's password.
func (ac *AuthController) ChangePassword(c *gin.Context) {
	if !ac.requireLocalMode(c) {
		return
	}

	var body passwordChange
	if err := c.ShouldBindJSON(&body); err != nil {
		authError(c, http.StatusBadRequest, "invalid_request", errors.New("invalid request body"))
		return
	}

	err := ac.service.ChangePassword(c.Request.Context(), GetReaderID(c), body.OldPassword, body.NewPassword)
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, ErrInvalidPassword):
		authError(c, http.StatusUnauthorized, "invalid_credentials", ErrInvalidCredentials)
	case errors.Is(err, ErrPasswordTooShort), errors.Is(err, ErrPasswordTooLong):
		authError(c, http.StatusUnprocessableEntity, "invalid_credentials_format", err)
	case errors.Is(err, entities.ErrReaderNotFound):
		authError(c, http.StatusUnauthorized, "unauthorized", ErrAuthRequired)
	default:
		ac.logger.Error("Failed to change password", zap.Error(err))
		authError(c, http.StatusInternalServerError, "internal_error", errors.New("failed to change password"))
	}
}

// GenerateToken creates a new API token for the current reader.
func (ac *AuthController) GenerateToken(c *gin.Context) {
	if !ac.requireLocalMode(c) {
		return
	}

	token, err := ac.service.GenerateToken(c.Request.Context(), GetReaderID(c))
	if err != nil {
		if errors.Is(err, entities.ErrReaderNotFound) {
			authError(c, http.StatusUnauthorized, "unauthorized", ErrAuthRequired)
			return
		}
		ac.logger.Error("Failed to generate token", zap.Error(err))
		authError(c, http.StatusInternalServerError, "internal_error", errors.New("failed to generate token"))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token":   token,
		"message": "Store this token securely - it will not be shown again",
	})
}

// RevokeToken removes the current reader's API token.
func (ac *AuthController) RevokeToken(c *gin.Context) {
	if !ac.requireLocalMode(c) {
		return
	}

	if err := ac.service.RevokeToken(c.Request.Context(), GetReaderID(c)); err != nil {
		ac.logger.Error("Failed to revoke token", zap.Error(err))
		authError(c, http.StatusInternalServerError, "internal_error", errors.New("failed to revoke token"))
		return
	}
	c.Status(http.StatusNoContent)
}

func (ac *AuthController) readerResponse(reader *entities.Reader, authType AuthType) ReaderResponse {
	return ReaderResponse{
		ID:       reader.ID,
		Username: reader.Username,
		AuthType: authType,
		AuthMode: ac.config.Mode,
	}
}
