package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL       = 10 * time.Minute
	limiterSweepInterval = time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// -----------------------------------------------------------------------------
// RateLimiter applies a per-client-IP token bucket refilled at perMinute/60
// tokens per second with a burst of perMinute.
// -----------------------------------------------------------------------------

type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     rate.Limit
	burst    int
	message  string
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// -----------------------------------------------------------------------------

func NewRateLimiter(perMinute int, message string) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate.Limit(float64(perMinute) / 60.0),
		burst:    perMinute,
		message:  message,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
}

func (s *APIServer) newLimiter(perMinute int, message string) *RateLimiter {
	l := NewRateLimiter(perMinute, message)
	s.limiters = append(s.limiters, l)
	return l
}

// -----------------------------------------------------------------------------

// Allow consumes one token for key.
func (rl *RateLimiter) Allow(key string) bool {
	if rl.burst <= 0 {
		return true
	}

	rl.mu.Lock()
	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.visitors[key] = v
	}
	now := rl.now()
	v.lastSeen = now
	limiter := v.limiter
	rl.mu.Unlock()

	return limiter.AllowN(now, 1)
}

// -----------------------------------------------------------------------------

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			respondMessage(c, http.StatusTooManyRequests, rl.message)
			return
		}
		c.Next()
	}
}

// -----------------------------------------------------------------------------

// Sweep forgets clients idle for longer than limiterIdleTTL.
func (rl *RateLimiter) Sweep() {
	cutoff := rl.now().Add(-limiterIdleTTL)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, key)
		}
	}
}

func (rl *RateLimiter) RunJanitor() {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.Sweep()
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}
