package repository

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MemoryRateLimiter keeps one token bucket per key in process memory.
type MemoryRateLimiter struct {
	limiters sync.Map // key -> *rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewMemoryRateLimiter allows requests per window per key, with bursts up to requests.
func NewMemoryRateLimiter(requests int, window time.Duration) *MemoryRateLimiter {
	if requests <= 0 {
		requests = 1
	}
	return &MemoryRateLimiter{
		limit: rate.Every(window / time.Duration(requests)),
		burst: requests,
	}
}

func (r *MemoryRateLimiter) Allow(_ context.Context, key string) (bool, error) {
	val, _ := r.limiters.LoadOrStore(key, rate.NewLimiter(r.limit, r.burst))
	return val.(*rate.Limiter).Allow(), nil
}
