package ratelimiter

import (
	"sync"
	"time"

	"github.com/SeakMengs/DocControl/internal/config"
	"go.uber.org/zap"
)

type window struct {
	start time.Time
	count int
}

// FixedWindowRateLimiter counts requests per key inside fixed time frames.
type FixedWindowRateLimiter struct {
	sync.Mutex
	clients map[string]*window
	limit   int
	frame   time.Duration
	enabled bool
	now     func() time.Time
	logger  *zap.SugaredLogger
}

func NewFixedWindowLimiter(cfg config.RateLimiterConfig, logger *zap.SugaredLogger) *FixedWindowRateLimiter {
	return &FixedWindowRateLimiter{
		clients: make(map[string]*window),
		limit:   cfg.RequestsPerTimeFrame,
		frame:   cfg.TimeFrame,
		enabled: cfg.Enabled,
		now:     time.Now,
		logger:  logger,
	}
}

func (rl *FixedWindowRateLimiter) Enabled() bool {
	return rl.enabled && rl.limit > 0 && rl.frame > 0
}

// Allow reports whether key may make another request and, if not, how long until the window resets.
func (rl *FixedWindowRateLimiter) Allow(key string) (bool, time.Duration) {
	if !rl.Enabled() {
		return true, 0
	}

	rl.Lock()
	defer rl.Unlock()

	now := rl.now()
	w, ok := rl.clients[key]
	if !ok || now.Sub(w.start) >= rl.frame {
		rl.clients[key] = &window{start: now, count: 1}
		rl.evictExpired(now)
		return true, 0
	}

	if w.count >= rl.limit {
		retryAfter := rl.frame - now.Sub(w.start)
		rl.logger.Debugf("Rate limit exceeded for %s, retry after %v", key, retryAfter)
		return false, retryAfter
	}

	w.count++
	return true, 0
}

// evictExpired drops stale windows once the map grows, caller holds the lock.
func (rl *FixedWindowRateLimiter) evictExpired(now time.Time) {
	if len(rl.clients) < 1024 {
		return
	}
	for k, w := range rl.clients {
		if now.Sub(w.start) >= rl.frame {
			delete(rl.clients, k)
		}
	}
}
