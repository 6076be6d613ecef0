package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"user-service/internal/auth"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const (
	headerRateLimitLimit     = "X-RateLimit-Limit"
	headerRateLimitRemaining = "X-RateLimit-Remaining"
	headerRetryAfter         = "Retry-After"

	keyPrefixUser = "user:"
	keyPrefixIP   = "ip:"

	msgRateLimitExceeded = "rate limit exceeded"
)

// RateLimiter implements token bucket rate limiting per caller
type RateLimiter struct {
	limiters sync.Map // key -> *rate.Limiter
	rate     rate.Limit
	burst    int
}

// NewRateLimiter creates a new rate limiter
// requestsPerSecond: number of requests allowed per second
// burst: maximum burst size
func NewRateLimiter(requestsPerSecond int, burst int) *RateLimiter {
	return &RateLimiter{
		rate:  rate.Limit(requestsPerSecond),
		burst: burst,
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	if limiter, ok := rl.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}
	limiter, _ := rl.limiters.LoadOrStore(key, rate.NewLimiter(rl.rate, rl.burst))
	return limiter.(*rate.Limiter)
}

// Allow checks if a request should be allowed for the given key
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// Middleware limits callers already authenticated by username and everyone
// else by client IP.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			limiter := rl.getLimiter(limiterKey(c))
			limit := strconv.Itoa(rl.burst)

			if !limiter.Allow() {
				c.Response().Header().Set(headerRateLimitLimit, limit)
				c.Response().Header().Set(headerRateLimitRemaining, "0")
				c.Response().Header().Set(headerRetryAfter, "1")

				return echo.NewHTTPError(http.StatusTooManyRequests, msgRateLimitExceeded)
			}

			c.Response().Header().Set(headerRateLimitLimit, limit)
			c.Response().Header().Set(headerRateLimitRemaining, strconv.Itoa(int(limiter.Tokens())))

			return next(c)
		}
	}
}

func limiterKey(c echo.Context) string {
	if id := auth.GetIdentity(c); id != nil {
		return keyPrefixUser + id.Username
	}
	return keyPrefixIP + c.RealIP()
}

// StrictRateLimiter guards credential-accepting endpoints
type StrictRateLimiter struct {
	*RateLimiter
}

func NewStrictRateLimiter(requestsPerSecond, burst int) *StrictRateLimiter {
	return &StrictRateLimiter{
		RateLimiter: NewRateLimiter(requestsPerSecond, burst),
	}
}

// GlobalRateLimiter is a lenient rate limiter for general API usage
type GlobalRateLimiter struct {
	*RateLimiter
}

func NewGlobalRateLimiter(requestsPerSecond, burst int) *GlobalRateLimiter {
	return &GlobalRateLimiter{
		RateLimiter: NewRateLimiter(requestsPerSecond, burst),
	}
}
