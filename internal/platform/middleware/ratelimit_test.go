package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func rateLimited(cfg RateLimitConfig) echo.HandlerFunc {
	return RateLimit(cfg)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
}

func TestRateLimit_RequestsWithinLimit(t *testing.T) {
	e := echo.New()
	handler := rateLimited(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

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
	handler := rateLimited(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})

	for i := 0; i < 2; i++ {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		if err := handler(c); err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
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
	retry, parseErr := strconv.Atoi(rec.Header().Get("Retry-After"))
	if parseErr != nil || retry < 1 {
		t.Errorf("expected positive Retry-After, got %q", rec.Header().Get("Retry-After"))
	}
}

func TestRateLimit_SubjectsHaveSeparateBuckets(t *testing.T) {
	e := echo.New()
	handler := rateLimited(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})

	for _, sub := range []string{"clinic-a", "clinic-b"} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.Set("auth_subject", sub)
		if err := handler(c); err != nil {
			t.Errorf("subject %s: expected first request to pass, got %v", sub, err)
		}
	}
}

func TestRateLimit_DisabledWhenZero(t *testing.T) {
	e := echo.New()
	handler := rateLimited(RateLimitConfig{})
	for i := 0; i < 50; i++ {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		if err := handler(c); err != nil {
			t.Fatalf("request %d: expected no limiting, got %v", i+1, err)
		}
	}
}

func TestRateLimiterStore_SweepsIdleBuckets(t *testing.T) {
	s := newRateLimiterStore(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1, IdleTTL: time.Minute})
	start := time.Now()
	s.getBucket("a", start)
	s.getBucket("b", start)
	if s.size() != 2 {
		t.Fatalf("expected 2 buckets, got %d", s.size())
	}
	s.getBucket("c", start.Add(2*time.Minute))
	if s.size() != 1 {
		t.Errorf("expected idle buckets swept, got %d", s.size())
	}
}

func TestTokenBucket_Refills(t *testing.T) {
	now := time.Now()
	b := newTokenBucket(2, 1, now)
	if ok, _, _ := b.take(now); !ok {
		t.Fatal("expected first token")
	}
	if ok, _, _ := b.take(now); ok {
		t.Fatal("expected bucket to be empty")
	}
	if ok, _, _ := b.take(now.Add(600 * time.Millisecond)); !ok {
		t.Error("expected refill after 600ms at 2 tokens/s")
	}
}
