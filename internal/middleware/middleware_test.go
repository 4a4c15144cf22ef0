package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/logging"
)

func TestIPRateLimiterRefillsOverTime(t *testing.T) {
	limiter := NewIPRateLimiter(config.RateLimitConfig{Requests: 1, Window: time.Minute, Burst: 2})
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.WithNowFunc(func() time.Time { return now })

	if !limiter.Allow("a") || !limiter.Allow("a") {
		t.Fatal("expected burst of two to be allowed")
	}
	if limiter.Allow("a") {
		t.Fatal("expected third request to be limited")
	}
	if !limiter.Allow("b") {
		t.Fatal("expected independent key to be allowed")
	}

	now = now.Add(time.Minute)
	if !limiter.Allow("a") {
		t.Fatal("expected a token after one window")
	}
}

func TestLimitMiddleware(t *testing.T) {
	limiter := NewIPRateLimiter(config.RateLimitConfig{Requests: 1, Window: time.Hour, Burst: 1})
	handler := Limit(limiter, "login", true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("1.1.1.1"); code != http.StatusNoContent {
		t.Fatalf("expected first request through, got %d", code)
	}
	if code := send("1.1.1.1"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
	if code := send("2.2.2.2"); code != http.StatusNoContent {
		t.Fatalf("expected other client through, got %d", code)
	}

	open := Limit(nil, "login", false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	open.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected nil limiter to pass, got %d", rec.Code)
	}
}

func TestLimitMiddlewareIgnoresSpoofedForwardedFor(t *testing.T) {
	limiter := NewIPRateLimiter(config.RateLimitConfig{Requests: 1, Window: time.Hour, Burst: 1})
	handler := Limit(limiter, "login", false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "198.51.100.4:40000"
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("1.1.1.1"); code != http.StatusNoContent {
		t.Fatalf("expected first request through, got %d", code)
	}
	// A fresh header value from the same peer must not buy a fresh budget.
	if code := send("2.2.2.2"); code != http.StatusTooManyRequests {
		t.Fatalf("expected rotated X-Forwarded-For to stay limited, got %d", code)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:5555"
	if got := ClientIP(req, true); got != "192.0.2.7" {
		t.Fatalf("expected remote host, got %q", got)
	}
	req.Header.Set("X-Forwarded-For", " 203.0.113.9 , 192.0.2.7")
	if got := ClientIP(req, true); got != "203.0.113.9" {
		t.Fatalf("expected forwarded host, got %q", got)
	}
	if got := ClientIP(req, false); got != "192.0.2.7" {
		t.Fatalf("expected untrusted header to be ignored, got %q", got)
	}
}

func TestRequestLoggerRecoversAndTagsRequests(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	var seenID string
	r := chi.NewRouter()
	r.Use(RequestLogger(logger), Metrics)
	r.Get("/ok/{id}", func(w http.ResponseWriter, r *http.Request) {
		seenID = logging.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusAccepted)
	})
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/ok/42", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if seenID != "req-123" || rec.Header().Get("X-Request-ID") != "req-123" {
		t.Fatalf("expected request id to propagate, got %q", seenID)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 after panic, got %d", rec.Code)
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Fatalf("expected panic to be logged, got %s", buf.String())
	}
}
