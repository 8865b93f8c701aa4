package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rozgarportal/api/internal/logging"
	"github.com/rozgarportal/api/internal/metrics"
)

// LimiterStore decides admission for one client identity at one instant.
// Implementations must never wrongly reject; overshooting the limit by one
// under concurrent checks is tolerated.
type LimiterStore interface {
	Allow(ctx context.Context, identity string, now time.Time) (bool, error)
}

// RateLimiter is an in-memory sliding-window limiter. Each identity keeps
// the timestamps of its admitted requests within the trailing window; the
// slice is pruned on every check, so it never grows past the limit.
type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a rate limiter admitting at most limit requests
// per identity in any trailing window
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		stop:     make(chan struct{}),
	}

	go rl.reap()

	return rl
}

// Allow checks and records a request for an identity. Timestamps older than
// now-window are pruned first; when the remaining count has reached the
// limit the request is rejected and NOT recorded, so a saturated client
// cannot push its own window forward by retrying.
func (rl *RateLimiter) Allow(_ context.Context, identity string, now time.Time) (bool, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := now.Add(-rl.window)

	history := rl.requests[identity]
	kept := history[:0]
	for _, t := range history {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= rl.limit {
		rl.requests[identity] = kept
		return false, nil
	}

	rl.requests[identity] = append(kept, now)
	return true, nil
}

// Remaining returns the number of requests an identity may still make
func (rl *RateLimiter) Remaining(identity string, now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := now.Add(-rl.window)
	count := 0
	for _, t := range rl.requests[identity] {
		if t.After(cutoff) {
			count++
		}
	}

	if count > rl.limit {
		return 0
	}
	return rl.limit - count
}

// Reset clears the recorded window for an identity
func (rl *RateLimiter) Reset(identity string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.requests, identity)
}

// Close stops the background reaper
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// reap periodically drops identities whose entire history has expired.
// An absent record is equivalent to an empty window, so dropping is safe.
func (rl *RateLimiter) reap() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
		}

		cutoff := time.Now().Add(-rl.window)
		rl.mu.Lock()
		for identity, history := range rl.requests {
			stale := true
			for _, t := range history {
				if t.After(cutoff) {
					stale = false
					break
				}
			}
			if stale {
				delete(rl.requests, identity)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimitOptions configures the rate limiting middleware
type RateLimitOptions struct {
	Store       LimiterStore
	Limit       int
	Window      time.Duration
	ExemptPaths []string
	Logger      *logging.Logger
}

// RateLimit returns middleware that buckets requests by client IP and
// rejects with 429 once the store's window is full. Exempt paths bypass
// the limiter entirely. Store errors admit the request: a degraded limiter
// must not turn into an outage.
func RateLimit(opts RateLimitOptions) func(http.Handler) http.Handler {
	exempt := make(map[string]struct{}, len(opts.ExemptPaths))
	for _, p := range opts.ExemptPaths {
		exempt[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exempt[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			identity := ClientIP(r)

			allowed, err := opts.Store.Allow(r.Context(), identity, time.Now())
			if err != nil {
				if opts.Logger != nil {
					opts.Logger.Warn("Rate limit store error, admitting request", map[string]interface{}{
						"identity": identity,
						"error":    err.Error(),
					})
				}
				allowed = true
			}

			if !allowed {
				metrics.RecordRateLimitRejection()
				retryAfter := int(opts.Window.Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(opts.Limit))
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"error":       http.StatusText(http.StatusTooManyRequests),
					"message":     "Too many requests, retry later",
					"retry_after": retryAfter,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP extracts the client identity used for rate limiting. Proxy
// headers are consulted first, then the connection's remote address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ip := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(ip) != nil {
			return ip
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		if net.ParseIP(realIP) != nil {
			return realIP
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
