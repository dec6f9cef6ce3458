// Copyright 2025 AxonFlow
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// RateLimiter enforces per-caller fixed-window quotas at the edge,
// independently of the dispatcher's concurrency ceiling. Excess
// requests are rejected immediately, never queued.
type RateLimiter interface {
	// Allow reports whether one more request fits the caller's window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RedisRateLimiter counts requests in Redis (INCR + EXPIRE), so the
// quota holds across gateway replicas.
type RedisRateLimiter struct {
	client *redis.Client
}

// NewRedisRateLimiter connects to Redis and verifies connectivity.
func NewRedisRateLimiter(ctx context.Context, addr, password string) (*RedisRateLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &RedisRateLimiter{client: client}, nil
}

// NewRedisRateLimiterWithClient wraps an existing Redis client.
func NewRedisRateLimiterWithClient(client *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{client: client}
}

// Allow increments the caller's window counter and checks it against the
// limit. The window key expires on its own, so an idle caller costs
// nothing.
func (l *RedisRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	windowKey := fmt.Sprintf("ratelimit:%s:%d", key, time.Now().Unix()/int64(window.Seconds()))

	pipe := l.client.TxPipeline()
	count := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	return count.Val() <= int64(limit), nil
}

// MemoryRateLimiter is the single-replica fallback used when no Redis
// address is configured.
type MemoryRateLimiter struct {
	mu        sync.Mutex
	windows   map[string]*memoryWindow
	now       func() time.Time
	lastSweep time.Time
}

type memoryWindow struct {
	start  time.Time
	window time.Duration
	count  int
}

// NewMemoryRateLimiter creates an in-process rate limiter.
func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{
		windows: make(map[string]*memoryWindow),
		now:     time.Now,
	}
}

// Allow counts the request against the caller's current fixed window.
func (l *MemoryRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now, window)

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= window {
		w = &memoryWindow{start: now, window: window}
		l.windows[key] = w
	}

	w.count++
	return w.count <= limit, nil
}

// sweep drops windows that already rolled over, so idle callers do not
// accumulate entries forever. Runs at most once per window length.
func (l *MemoryRateLimiter) sweep(now time.Time, window time.Duration) {
	if now.Sub(l.lastSweep) < window {
		return
	}
	l.lastSweep = now
	for key, w := range l.windows {
		if now.Sub(w.start) >= w.window {
			delete(l.windows, key)
		}
	}
}
