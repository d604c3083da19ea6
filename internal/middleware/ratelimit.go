package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RealIP extracts the client's address, preferring X-Real-IP, then the first
// X-Forwarded-For hop, then RemoteAddr.
func RealIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return strings.TrimSpace(ip)
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i > 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type window struct {
	count   int
	resetAt time.Time
}

// pruneThreshold is the entry count above which expired windows are swept
// during Allow.
const pruneThreshold = 1024

// RateLimiter counts requests per key in fixed windows.
type RateLimiter struct {
	mu      sync.Mutex
	entries map[string]*window
	now     func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		entries: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow records a hit for key and reports whether it is within limit for
// the current window. The second result is when the window resets.
func (rl *RateLimiter) Allow(key string, limit int, period time.Duration) (bool, time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if len(rl.entries) > pruneThreshold {
		rl.prune(now)
	}

	w, ok := rl.entries[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(period)}
		rl.entries[key] = w
	}
	w.count++
	return w.count <= limit, w.resetAt
}

// Cleanup removes expired entries.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.prune(rl.now())
}

func (rl *RateLimiter) prune(now time.Time) {
	for key, w := range rl.entries {
		if !now.Before(w.resetAt) {
			delete(rl.entries, key)
		}
	}
}

// RateLimit throttles requests per client address. Rejected requests get a
// JSON 429 with Retry-After.
func RateLimit(limiter *RateLimiter, limit int, period time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, resetAt := limiter.Allow(RealIP(r)+" "+r.URL.Path, limit, period)
			if !ok {
				retry := int(resetAt.Sub(limiter.now()).Seconds()) + 1
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{"error": "Too many requests"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
