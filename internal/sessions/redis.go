package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "shopadmin:session:"

// RedisBackend stores sessions as plain keys with a native TTL.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

func NewRedisBackend(client *redis.Client, prefix string) *RedisBackend {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisBackend{client: client, prefix: prefix}
}

// NewRedisClient parses a redis:// or rediss:// URL and checks the server responds.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	c := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (b *RedisBackend) Load(ctx context.Context, token string) ([]byte, bool, error) {
	v, err := b.client.Get(ctx, b.prefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (b *RedisBackend) Save(ctx context.Context, token string, data []byte, ttl time.Duration) error {
	return b.client.Set(ctx, b.prefix+token, data, ttl).Err()
}

func (b *RedisBackend) Delete(ctx context.Context, token string) error {
	return b.client.Del(ctx, b.prefix+token).Err()
}
