package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

const defaultMaxClients = 10000

// RateLimiter gives every client a token bucket refilled at requests per
// window. Buckets live in a bounded LRU so idle clients are evicted instead
// of swept by a cleanup goroutine.
type RateLimiter struct {
	clients  *lru.Cache[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
	window   time.Duration
	clientID func(r *http.Request) string
}

// NewRateLimiter creates a new rate limiter
// requests: maximum number of requests allowed per window
// window: time window duration (e.g., 1 minute)
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	if requests <= 0 {
		requests = 100
	}
	if window <= 0 {
		window = time.Minute
	}

	cache, err := lru.New[string, *rate.Limiter](defaultMaxClients)
	if err != nil {
		// Only fails for a non-positive size
		cache, _ = lru.New[string, *rate.Limiter](1)
	}

	return &RateLimiter{
		clients:  cache,
		limit:    rate.Every(window / time.Duration(requests)),
		burst:    requests,
		window:   window,
		clientID: getClientIP,
	}
}

// Middleware returns a rate limiting middleware
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prefer the authenticated user when auth ran first
		clientID := GetUserID(r)
		if clientID == "" {
			clientID = rl.clientID(r)
		}

		if !rl.allow(clientID) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":   "RateLimitExceeded",
				"message": "Rate limit exceeded. Please try again later.",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// allow checks if a client is allowed to make a request
func (rl *RateLimiter) allow(clientID string) bool {
	limiter, ok := rl.clients.Get(clientID)
	if !ok {
		limiter = rate.NewLimiter(rl.limit, rl.burst)
		// Another request may have raced us; keep whichever got there first
		if existing, found, _ := rl.clients.PeekOrAdd(clientID, limiter); found {
			limiter = existing
		}
	}
	return limiter.Allow()
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header (if behind proxy); the first hop is the client
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}

	// Check X-Real-IP header
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	// Fall back to RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
