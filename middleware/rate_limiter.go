// middleware/rate_limiter.go
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/skillstream/lms_backend/models"
)

type endpointLimit struct {
	limit rate.Limit
	burst int
}

// RateLimiter applies per-IP token buckets with stricter buckets on the
// credential endpoints to slow brute-force attempts.
type RateLimiter struct {
	mu             sync.RWMutex
	ips            map[string]map[string]*rate.Limiter
	lastSeen       map[string]time.Time
	defaultLimit   rate.Limit
	defaultBurst   int
	endpointLimits map[string]endpointLimit
}

func NewRateLimiter() *RateLimiter {
	rl := &RateLimiter{
		ips:          make(map[string]map[string]*rate.Limiter),
		lastSeen:     make(map[string]time.Time),
		defaultLimit: rate.Every(100 * time.Millisecond), // 10 requests per second
		defaultBurst: 20,
		endpointLimits: map[string]endpointLimit{
			"/api/v1/users/login": {
				limit: rate.Every(2 * time.Second),
				burst: 5,
			},
			"/api/v1/users/register": {
				limit: rate.Every(500 * time.Millisecond),
				burst: 5,
			},
			"/api/v1/users/resend-otp": {
				limit: rate.Every(5 * time.Second),
				burst: 3,
			},
		},
	}

	go rl.cleanupLoop()

	return rl
}

func (rl *RateLimiter) limiterFor(ip, path string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	byPath, ok := rl.ips[ip]
	if !ok {
		byPath = make(map[string]*rate.Limiter)
		rl.ips[ip] = byPath
	}
	rl.lastSeen[ip] = time.Now()

	key := ""
	limit, burst := rl.defaultLimit, rl.defaultBurst
	if el, ok := rl.endpointLimits[path]; ok {
		key = path
		limit, burst = el.limit, el.burst
	}

	limiter, ok := byPath[key]
	if !ok {
		limiter = rate.NewLimiter(limit, burst)
		byPath[key] = limiter
	}
	return limiter
}

// RateLimit is the Echo middleware entry point.
func (rl *RateLimiter) RateLimit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			limiter := rl.limiterFor(c.RealIP(), c.Path())
			if !limiter.Allow() {
				return c.JSON(http.StatusTooManyRequests, models.Response{
					Status:  http.StatusTooManyRequests,
					Message: "Too many requests. Please try again later",
				})
			}
			return next(c)
		}
	}
}

// cleanupLoop drops limiter state for IPs idle longer than an hour.
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-1 * time.Hour)
		rl.mu.Lock()
		for ip, seen := range rl.lastSeen {
			if seen.Before(cutoff) {
				delete(rl.ips, ip)
				delete(rl.lastSeen, ip)
			}
		}
		rl.mu.Unlock()
	}
}
