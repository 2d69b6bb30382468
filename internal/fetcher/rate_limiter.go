package fetcher

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter выдерживает минимальный интервал между запросами одного класса
type RateLimiter struct {
	delays   map[Class]time.Duration
	limiters map[Class]*rate.Limiter
	mu       sync.Mutex
}

func NewRateLimiter(delays map[Class]time.Duration) *RateLimiter {
	return &RateLimiter{
		delays:   delays,
		limiters: make(map[Class]*rate.Limiter),
	}
}

// Wait блокирует до разрешения запроса класса или отмены контекста
func (rl *RateLimiter) Wait(ctx context.Context, class Class) error {
	return rl.limiter(class).Wait(ctx)
}

func (rl *RateLimiter) limiter(class Class) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[class]
	if !exists {
		limit := rate.Inf
		if d := rl.delays[class]; d > 0 {
			limit = rate.Every(d)
		}
		limiter = rate.NewLimiter(limit, 1)
		rl.limiters[class] = limiter
	}
	return limiter
}
