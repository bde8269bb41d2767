package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

func rateLimitedHandler(cfg RateLimitConfig) echo.HandlerFunc {
	return RateLimit(cfg)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
}

func requestFrom(e *echo.Echo, ip string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if ip != "" {
		req.Header.Set(echo.HeaderXRealIP, ip)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRateLimit_RequestsWithinLimit(t *testing.T) {
	e := echo.New()
	handler := rateLimitedHandler(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})

	// Burst of 5 passes.
	for i := 0; i < 5; i++ {
		c, rec := requestFrom(e, "")
		if err := handler(c); err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "10" {
			t.Errorf("request %d: expected X-RateLimit-Limit '10', got %q", i+1, got)
		}
	}
}

func TestRateLimit_ExceedsLimit(t *testing.T) {
	e := echo.New()
	handler := rateLimitedHandler(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})

	for i := 0; i < 2; i++ {
		c, _ := requestFrom(e, "")
		if err := handler(c); err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
	}

	c, _ := requestFrom(e, "")
	err := handler(c)
	if err == nil {
		t.Fatal("expected error for rate-limited request")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", httpErr.Code)
	}
}

func TestRateLimit_RetryAfterHeader(t *testing.T) {
	e := echo.New()
	handler := rateLimitedHandler(RateLimitConfig{RequestsPerSecond: 0.5, BurstSize: 1})

	c, _ := requestFrom(e, "")
	_ = handler(c)

	c, rec := requestFrom(e, "")
	if err := handler(c); err == nil {
		t.Fatal("expected error for rate-limited request")
	}

	retryVal, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	if err != nil {
		t.Fatalf("Retry-After header is not a valid integer: %q", rec.Header().Get("Retry-After"))
	}
	if retryVal < 1 || retryVal > 2 {
		t.Errorf("expected Retry-After between 1 and 2, got %d", retryVal)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("expected X-RateLimit-Remaining '0', got %q", got)
	}
}

func TestRateLimit_PerClientIsolation(t *testing.T) {
	e := echo.New()
	handler := rateLimitedHandler(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})

	c, _ := requestFrom(e, "10.0.0.1")
	if err := handler(c); err != nil {
		t.Fatalf("client a first request: expected no error, got %v", err)
	}
	c, _ = requestFrom(e, "10.0.0.1")
	if err := handler(c); err == nil {
		t.Fatal("client a second request: expected rate limit error")
	}
	c, _ = requestFrom(e, "10.0.0.2")
	if err := handler(c); err != nil {
		t.Fatalf("client b first request: expected no error, got %v", err)
	}
}

func TestRateLimit_DefaultConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	if cfg.RequestsPerSecond != 50 {
		t.Errorf("expected RequestsPerSecond 50, got %f", cfg.RequestsPerSecond)
	}
	if cfg.BurstSize != 100 {
		t.Errorf("expected BurstSize 100, got %d", cfg.BurstSize)
	}
}

func TestRetryAfter_ZeroRate(t *testing.T) {
	lim := rate.NewLimiter(0, 1)
	now := time.Now()
	lim.AllowN(now, 1)
	if got := retryAfter(lim, now); got != 1 {
		t.Errorf("expected retryAfter 1 for zero rate, got %d", got)
	}
}

func TestRateLimiterStore_SameKeySameLimiter(t *testing.T) {
	store := newRateLimiterStore(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})

	l1 := store.get("key1")
	if l1 == nil {
		t.Fatal("expected non-nil limiter")
	}
	if l2 := store.get("key1"); l1 != l2 {
		t.Error("expected same limiter instance for same key")
	}
	if l3 := store.get("key2"); l1 == l3 {
		t.Error("expected different limiter for different key")
	}
}

func TestRateLimiterStore_EvictsIdleClients(t *testing.T) {
	store := newRateLimiterStore(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})
	now := time.Now()
	store.now = func() time.Time { return now }

	store.get("idle")
	store.get("busy")

	now = now.Add(limiterIdleTTL / 2)
	store.get("busy")

	now = now.Add(limiterIdleTTL/2 + time.Second)
	store.get("busy")

	if got := store.len(); got != 1 {
		t.Errorf("expected idle client to be evicted, %d clients remain", got)
	}
}
