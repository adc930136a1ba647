package ratelimit

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"qrbooks/core/middleware/auth"
)

// Config holds configuration for request rate limiting.
type Config struct {
	// RequestsPerSecond is the sustained per-key request rate.
	RequestsPerSecond int `mapstructure:"requests_per_second" default:"50"`
	// Burst is the per-key burst allowance.
	Burst int `mapstructure:"burst" default:"100"`
	// LoginPerMinute limits login attempts per client IP.
	LoginPerMinute int `mapstructure:"login_per_minute" default:"6"`
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter tracks one token bucket per key (user id or client IP).
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	rate    rate.Limit
	burst   int
}

// New creates a keyed limiter.
func New(r rate.Limit, burst int) *Limiter {
	return &Limiter{
		entries: make(map[string]*entry),
		rate:    r,
		burst:   burst,
	}
}

// Allow reports whether the key may proceed.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = time.Now()
	l.mu.Unlock()
	return e.limiter.Allow()
}

// Cleanup drops buckets idle for longer than maxIdle.
func (l *Limiter) Cleanup(maxIdle time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := time.Now().Add(-maxIdle)
	for key, e := range l.entries {
		if e.lastSeen.Before(cutoff) {
			delete(l.entries, key)
		}
	}
}

// KeyFunc derives a limiter key from a request.
type KeyFunc func(c *fiber.Ctx) string

// ByUserOrIP keys by the authenticated user id, falling back to the client IP.
func ByUserOrIP(c *fiber.Ctx) string {
	if id, ok := auth.UserID(c); ok {
		return "user:" + strconv.FormatUint(uint64(id), 10)
	}
	return "ip:" + c.IP()
}

// ByIP keys by the client IP with a prefix, so separate limiters do not
// share buckets for the same address.
func ByIP(prefix string) KeyFunc {
	return func(c *fiber.Ctx) string {
		return prefix + ":" + c.IP()
	}
}

// Middleware returns a Fiber handler enforcing the limiter.
func Middleware(l *Limiter, key KeyFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !l.Allow(key(c)) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"msg": "rate limit exceeded",
			})
		}
		return c.Next()
	}
}
