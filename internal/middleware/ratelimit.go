package middleware

import (
	"net/http"
	"strings"
	"sync"

	"github.com/motovlabs/vastserve/internal/config"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimitMiddleware implements token bucket rate limiting. The ad and
// beacon paths get the high-volume bucket; management endpoints get a
// tighter one.
type RateLimitMiddleware struct {
	cfg          config.RateLimitConfig
	logger       *zap.Logger
	serveLimiter *rate.Limiter
	mgmtLimiter  *rate.Limiter

	// Per-IP limiters for more granular control
	mu         sync.RWMutex
	ipLimiters map[string]*rate.Limiter
}

// NewRateLimitMiddleware creates a new rate limiting middleware.
func NewRateLimitMiddleware(cfg config.RateLimitConfig, logger *zap.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		cfg:          cfg,
		logger:       logger,
		serveLimiter: rate.NewLimiter(rate.Limit(cfg.ServeRPS), cfg.ServeBurst),
		mgmtLimiter:  rate.NewLimiter(rate.Limit(cfg.MgmtRPS), cfg.MgmtBurst),
		ipLimiters:   make(map[string]*rate.Limiter),
	}
}

// Handler wraps an http.Handler with rate limiting.
func (rl *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.cfg.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		var limiter *rate.Limiter
		if rl.isServeEndpoint(r.URL.Path) {
			limiter = rl.serveLimiter
		} else {
			limiter = rl.mgmtLimiter
		}

		if !limiter.Allow() {
			rl.logger.Warn("rate limit exceeded",
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
			)
			rl.tooManyRequests(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// HandlerPerIP applies per-IP rate limiting (more aggressive).
func (rl *RateLimitMiddleware) HandlerPerIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.cfg.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		ip := ClientIP(r)
		limiter := rl.getIPLimiter(ip)

		if !limiter.Allow() {
			rl.logger.Warn("per-IP rate limit exceeded",
				zap.String("ip", ip),
				zap.String("path", r.URL.Path),
			)
			rl.tooManyRequests(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// getIPLimiter returns or creates a rate limiter for the given IP.
func (rl *RateLimitMiddleware) getIPLimiter(ip string) *rate.Limiter {
	rl.mu.RLock()
	limiter, exists := rl.ipLimiters[ip]
	rl.mu.RUnlock()

	if exists {
		return limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists = rl.ipLimiters[ip]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(rate.Limit(rl.cfg.ServeRPS/10), rl.cfg.ServeBurst/10)
	rl.ipLimiters[ip] = limiter

	return limiter
}

// isServeEndpoint returns true for the high-volume public paths.
func (rl *RateLimitMiddleware) isServeEndpoint(path string) bool {
	if strings.HasPrefix(path, "/ads/catalog") {
		return false
	}
	return strings.HasPrefix(path, "/ads") ||
		strings.HasPrefix(path, "/events") ||
		strings.HasPrefix(path, "/impressions")
}

// tooManyRequests sends a 429 response.
func (rl *RateLimitMiddleware) tooManyRequests(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "1")
	w.WriteHeader(http.StatusTooManyRequests)
	w.Write([]byte(`{"error":{"code":"RATE_LIMITED","message":"rate limit exceeded"}}`))
}

// CleanupIPLimiters removes old IP limiters to prevent memory leaks.
// Should be called periodically (e.g., every hour).
func (rl *RateLimitMiddleware) CleanupIPLimiters() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.ipLimiters = make(map[string]*rate.Limiter)
	rl.logger.Debug("cleaned up IP rate limiters")
}
