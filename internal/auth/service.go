package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/booklog/internal/config"
	"github.com/mrlokans/booklog/internal/entities"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,64}$`)

var (
	ErrReaderExists       = errors.New("reader already exists")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrAuthRequired       = errors.New("authentication required")
	ErrUsernameRequired   = errors.New("username is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrAccountLocked      = errors.New("account is locked due to too many failed login attempts")
	ErrUsernameInvalid    = errors.New("username must be 3-64 characters: letters, digits, dot, underscore or hyphen")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Service handles reader registration, login and API tokens.
type Service struct {
	db     *gorm.DB
	config config.Auth
	now    func() time.Time
}

// NewService creates a new authentication service.
func NewService(db *gorm.DB, cfg config.Auth) *Service {
	return &Service{
		db:     db,
		config: cfg,
		now:    time.Now,
	}
}

// Register creates a reader account with a password. The username is
// trimmed before it is validated and stored.
func (s *Service) Register(ctx context.Context, username, password string) (*entities.Reader, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if strings.TrimSpace(password) == "" {
		return nil, ErrPasswordRequired
	}
	if !usernamePattern.MatchString(username) {
		return nil, ErrUsernameInvalid
	}

	var count int64
	err := s.db.WithContext(ctx).Model(&entities.Reader{}).Where("username = ?", username).Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check existing reader: %w", err)
	}
	if count > 0 {
		return nil, ErrReaderExists
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	reader := &entities.Reader{
		Username:     username,
		PasswordHash: passwordHash,
	}
	if err := s.db.WithContext(ctx).Create(reader).Error; err != nil {
		return nil, fmt.Errorf("failed to create reader: %w", err)
	}

	return reader, nil
}

// Authenticate validates credentials and returns the reader. Unknown
// usernames and wrong passwords both yield ErrInvalidCredentials. The
// account locks after MaxLoginAttempts consecutive failures.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*entities.Reader, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var reader entities.Reader
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&reader).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find reader: %w", err)
	}

	if reader.LockedUntil != nil && s.now().Before(*reader.LockedUntil) {
		return nil, ErrAccountLocked
	}

	// Readers created for no-auth mode have no password and cannot log in
	if reader.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	if err := CheckPassword(password, reader.PasswordHash); err != nil {
		s.recordFailedLogin(ctx, &reader)
		if errors.Is(err, ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	now := s.now()
	err = s.db.WithContext(ctx).Model(&reader).Updates(map[string]any{
		"last_login_at":      now,
		"failed_login_count": 0,
		"locked_until":       nil,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}

	return &reader, nil
}

func (s *Service) recordFailedLogin(ctx context.Context, reader *entities.Reader) {
	reader.FailedLoginCount++

	updates := map[string]any{
		"failed_login_count": reader.FailedLoginCount,
	}

	maxAttempts := s.config.MaxLoginAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if reader.FailedLoginCount >= maxAttempts {
		lockoutDuration := s.config.LockoutDuration
		if lockoutDuration == 0 {
			lockoutDuration = 30 * time.Minute
		}
		updates["locked_until"] = s.now().Add(lockoutDuration)
	}

	s.db.WithContext(ctx).Model(reader).Updates(updates)
}

// GetReaderByID retrieves a reader by id.
func (s *Service) GetReaderByID(ctx context.Context, id uint) (*entities.Reader, error) {
	var reader entities.Reader
	err := s.db.WithContext(ctx).First(&reader, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrReaderNotFound
		}
		return nil, err
	}
	return &reader, nil
}

// ValidateToken checks a plaintext API token and returns its reader.
// Returns ErrTokenExpired if the token is past its expiry time.
func (s *Service) ValidateToken(ctx context.Context, token string) (*entities.Reader, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	var reader entities.Reader
	err := s.db.WithContext(ctx).Where("token_hash = ?", HashToken(token)).First(&reader).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if s.config.TokenExpiry > 0 && reader.TokenCreatedAt != nil {
		if s.now().Sub(*reader.TokenCreatedAt) > s.config.TokenExpiry {
			return nil, ErrTokenExpired
		}
	}

	return &reader, nil
}

// GenerateToken creates a new API token for a reader, replacing any old one.
// Returns the plaintext token (shown once); only its hash is stored.
func (s *Service) GenerateToken(ctx context.Context, readerID uint) (string, error) {
	plaintext, hash, err := GenerateAPIToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	result := s.db.WithContext(ctx).Model(&entities.Reader{}).Where("id = ?", readerID).Updates(map[string]any{
		"token_hash":       hash,
		"token_created_at": s.now(),
	})
	if result.Error != nil {
		return "", fmt.Errorf("failed to save token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return "", entities.ErrReaderNotFound
	}

	return plaintext, nil
}

// RevokeToken removes a reader's API token.
func (s *Service) RevokeToken(ctx context.Context, readerID uint) error {
	err := s.db.WithContext(ctx).Model(&entities.Reader{}).Where("id = ?", readerID).Updates(map[string]any{
		"token_hash":       "",
		"token_created_at": nil,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// ChangePassword updates a reader's password after checking the old one.
func (s *Service) ChangePassword(ctx context.Context, readerID uint, oldPassword, newPassword string) error {
	reader, err := s.GetReaderByID(ctx, readerID)
	if err != nil {
		return err
	}

	if err := CheckPassword(oldPassword, reader.PasswordHash); err != nil {
		return err
	}

	newHash, err := HashPassword(newPassword, s.config.BcryptCost)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Model(reader).Update("password_hash", newHash).Error
}

// HasReaders reports whether any reader with a password exists.
func (s *Service) HasReaders(ctx context.Context) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&entities.Reader{}).Where("password_hash <> ''").Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// IsAuthEnabled returns true if authentication is required.
func (s *Service) IsAuthEnabled() bool {
	return s.config.Mode == config.AuthModeLocal
}

// AuthMode returns the current authentication mode.
func (s *Service) AuthMode() config.AuthMode {
	return s.config.Mode
}
