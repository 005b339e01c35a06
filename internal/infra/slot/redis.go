package slot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisOpTimeout = 3 * time.Second

// RedisSlot はRedisに保存する。キーは "<namespace>:<key>"。
type RedisSlot struct {
	client    redis.UniversalClient
	namespace string
	ttl       time.Duration
}

// ttlが0なら期限なし。
func NewRedisSlot(client redis.UniversalClient, namespace string, ttl time.Duration) *RedisSlot {
	return &RedisSlot{client: client, namespace: namespace, ttl: ttl}
}

func (s *RedisSlot) fullKey(key string) string {
	if s.namespace == "" {
		return key
	}
	return s.namespace + ":" + key
}

func (s *RedisSlot) Read(key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	v, err := s.client.Get(ctx, s.fullKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read slot %q: %w", key, err)
	}
	return v, true, nil
}

func (s *RedisSlot) Write(key string, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := s.client.Set(ctx, s.fullKey(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("write slot %q: %w", key, err)
	}
	return nil
}
