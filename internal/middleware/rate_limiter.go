package middleware

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/metrics"
)

const (
	visitorTTL         = 5 * time.Minute
	forwardedForHeader = "X-Forwarded-For"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter controls how frequently a caller may perform an action.
type RateLimiter interface {
	Allow(key string) bool
}

// IPRateLimiter tracks request rates per key (typically scope plus client IP) with expiration.
type IPRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	ttl      time.Duration
	now      func() time.Time
}

// NewIPRateLimiter constructs a per-key limiter allowing cfg.Requests events per
// cfg.Window plus cfg.Burst. Idle entries expire after five minutes.
func NewIPRateLimiter(cfg config.RateLimitConfig) *IPRateLimiter {
	requests, window, burst := cfg.Requests, cfg.Window, cfg.Burst
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Second
	}
	if burst <= 0 {
		burst = 1
	}

	return &IPRateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(window / time.Duration(requests)),
		burst:    burst,
		ttl:      visitorTTL,
		now:      time.Now,
	}
}

// Allow reports whether one more event for key fits in its budget.
func (l *IPRateLimiter) Allow(key string) bool {
	if key == "" {
		key = "unknown"
	}

	now := l.now()

	l.mu.Lock()
	v := l.getVisitorLocked(key, now)
	l.gcLocked(now)
	l.mu.Unlock()

	return v.limiter.AllowN(now, 1)
}

func (l *IPRateLimiter) getVisitorLocked(key string, now time.Time) *visitor {
	if v, ok := l.visitors[key]; ok {
		v.lastSeen = now
		return v
	}

	v := &visitor{limiter: rate.NewLimiter(l.limit, l.burst), lastSeen: now}
	l.visitors[key] = v
	return v
}

func (l *IPRateLimiter) gcLocked(now time.Time) {
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.ttl {
			delete(l.visitors, key)
		}
	}
}

// WithNowFunc allows tests to override the time source.
func (l *IPRateLimiter) WithNowFunc(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// Limit rejects requests over budget with 429. Budgets are tracked per scope and
// client IP. X-Forwarded-For is only honored when trustForwarded is set, which
// must be limited to deployments behind a proxy that overwrites the header. A nil
// limiter disables the check.
func Limit(limiter RateLimiter, scope string, trustForwarded bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || limiter.Allow(rateLimitKey(r, scope, trustForwarded)) {
				next.ServeHTTP(w, r)
				return
			}

			metrics.RateLimitedTotal.Inc()
			logging.FromContext(r.Context()).Warn("rate limit exceeded", "scope", scope, "client_ip", ClientIP(r, trustForwarded))
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "too many requests"})
		})
	}
}

func rateLimitKey(r *http.Request, scope string, trustForwarded bool) string {
	ip := ClientIP(r, trustForwarded)
	if scope == "" {
		return ip
	}
	return fmt.Sprintf("%s:%s", scope, ip)
}

// ClientIP returns the RemoteAddr host. With trustForwarded it prefers the first
// X-Forwarded-For hop, which any client can set when no proxy rewrites it.
func ClientIP(r *http.Request, trustForwarded bool) string {
	if trustForwarded {
		if forwarded := strings.TrimSpace(r.Header.Get(forwardedForHeader)); forwarded != "" {
			first, _, _ := strings.Cut(forwarded, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
