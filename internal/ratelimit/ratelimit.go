// Package ratelimit limits login attempts per client: a token bucket in
// process memory, or a fixed window shared through redis.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Limiter counts hits per key.
// Allow reports whether the hit is within the limit and, if not, how long
// until the key may try again.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

// visitor is the token bucket of one key.
type visitor struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// Memory is a process-local limiter: each key gets a bucket of max tokens
// that refills evenly over window. A key idle for a full window has a full
// bucket again, so its state is dropped. Stop releases the cleanup goroutine.
type Memory struct {
	mu       sync.Mutex
	every    rate.Limit
	burst    int
	idle     time.Duration
	visitors map[string]*visitor
	stopCh   chan struct{}
	once     sync.Once
	now      func() time.Time
}

func NewMemory(max int, window time.Duration) *Memory {
	if max < 1 {
		max = 1
	}
	l := &Memory{
		every:    rate.Every(window / time.Duration(max)),
		burst:    max,
		idle:     window,
		visitors: make(map[string]*visitor),
		stopCh:   make(chan struct{}),
		now:      time.Now,
	}
	go l.cleanupLoop()
	return l
}

// Allow takes a token for key. When the bucket is empty it reports how long
// until the next token, without consuming one.
func (l *Memory) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	v := l.visitors[key]
	if v == nil {
		v = &visitor{lim: rate.NewLimiter(l.every, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now

	res := v.lim.ReserveN(now, 1)
	if d := res.DelayFrom(now); d > 0 {
		res.CancelAt(now)
		return false, d, nil
	}
	return true, 0, nil
}

func (l *Memory) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stopCh:
			return
		}
	}
}

func (l *Memory) cleanup() {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) >= l.idle {
			delete(l.visitors, key)
		}
	}
}

func (l *Memory) Stop() {
	l.once.Do(func() { close(l.stopCh) })
}

// Redis shares a fixed-window counter between instances using INCR + EXPIRE.
type Redis struct {
	client *redis.Client
	prefix string
	win    time.Duration
	max    int64
}

func NewRedis(client *redis.Client, prefix string, max int, window time.Duration) *Redis {
	if prefix == "" {
		prefix = "shopadmin:rl:"
	}
	return &Redis{client: client, prefix: prefix, win: window, max: int64(max)}
}

func (l *Redis) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	k := l.prefix + key
	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return true, 0, err
	}
	if n == 1 {
		if err := l.client.Expire(ctx, k, l.win).Err(); err != nil {
			return true, 0, err
		}
	}
	if n <= l.max {
		return true, 0, nil
	}
	ttl, err := l.client.PTTL(ctx, k).Result()
	if err != nil {
		return false, l.win, nil
	}
	return false, ttl, nil
}
