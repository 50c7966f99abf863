package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newTestLimiter(maxAttempts int) *RateLimiter {
	return NewRateLimiter(RateLimitConfig{
		MaxAttempts:     maxAttempts,
		WindowDuration:  time.Minute,
		LockoutDuration: time.Minute,
		CleanupInterval: time.Hour, // Long interval to prevent cleanup during test
	})
}

func TestRateLimiter_AllowsInitialAttempts(t *testing.T) {
	rl := newTestLimiter(3)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if allowed, _ := rl.Allow("192.168.1.1", "alice"); !allowed {
			t.Errorf("Attempt %d should be allowed", i+1)
		}
		rl.RecordFailure("192.168.1.1", "alice")
	}

	allowed, retryAfter := rl.Allow("192.168.1.1", "alice")
	if allowed {
		t.Error("4th attempt should be blocked")
	}
	if retryAfter == 0 {
		t.Error("retryAfter should be non-zero when blocked")
	}
}

func TestRateLimiter_LockoutExpires(t *testing.T) {
	rl := newTestLimiter(2)
	defer rl.Stop()

	rl.RecordFailure("10.0.0.1", "alice")
	if locked, _ := rl.RecordFailure("10.0.0.1", "alice"); !locked {
		t.Fatal("Second failure should lock")
	}

	rl.now = func() time.Time { return time.Now().Add(3 * time.Minute) }
	if allowed, _ := rl.Allow("10.0.0.1", "alice"); !allowed {
		t.Error("Should be allowed once window and lockout passed")
	}

	rl.cleanup()
	if len(rl.attempts) != 0 {
		t.Errorf("cleanup() left %d records", len(rl.attempts))
	}
}

func TestRateLimiter_SuccessResetsCounter(t *testing.T) {
	rl := newTestLimiter(3)
	defer rl.Stop()

	rl.RecordFailure("192.168.1.1", "alice")
	rl.RecordFailure("192.168.1.1", "alice")
	rl.RecordSuccess("192.168.1.1", "alice")

	if allowed, _ := rl.Allow("192.168.1.1", "alice"); !allowed {
		t.Error("Should be allowed after successful login")
	}
}

func TestRateLimiter_DifferentUsersAreIndependent(t *testing.T) {
	rl := newTestLimiter(2)
	defer rl.Stop()

	rl.RecordFailure("192.168.1.1", "user1")
	rl.RecordFailure("192.168.1.1", "user1")

	if allowed, _ := rl.Allow("192.168.1.1", "user1"); allowed {
		t.Error("user1 should be blocked")
	}
	if allowed, _ := rl.Allow("192.168.1.1", "user2"); !allowed {
		t.Error("user2 should be allowed")
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := newTestLimiter(1)
	rl.Stop()
	rl.Stop()
}

func TestSecurityHeaders(t *testing.T) {
	router := gin.New()
	router.Use(SecurityHeadersMiddleware())
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))

	headers := map[string]string{
		"X-Frame-Options":         "DENY",
		"X-Content-Type-Options":  "nosniff",
		"Referrer-Policy":         "no-referrer",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
		"Cache-Control":           "no-store",
	}

	for header, expected := range headers {
		if got := rr.Header().Get(header); got != expected {
			t.Errorf("Header %s = %q, want %q", header, got, expected)
		}
	}
}

func TestHSTSHeader(t *testing.T) {
	router := gin.New()
	router.Use(StrictTransportSecurityMiddleware(31536000))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))
	if hsts := rr.Header().Get("Strict-Transport-Security"); hsts != "" {
		t.Error("HSTS should not be set for HTTP requests")
	}

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if hsts := rr.Header().Get("Strict-Transport-Security"); hsts != "max-age=31536000; includeSubDomains" {
		t.Errorf("HSTS = %q for HTTPS request", hsts)
	}
}

func TestUsernameValidation(t *testing.T) {
	tests := []struct {
		username string
		valid    bool
	}{
		{"ab", false},
		{"abc", true},
		{"jane.doe", true},
		{"reader_1", true},
		{"has space", false},
		{"emoji📚", false},
	}

	for _, tt := range tests {
		if got := usernamePattern.MatchString(tt.username); got != tt.valid {
			t.Errorf("usernamePattern.MatchString(%q) = %v, want %v", tt.username, got, tt.valid)
		}
	}
}
