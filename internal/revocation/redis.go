package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "bl:"

// RedisStore keeps revoked credentials in Redis with EX set to the
// remaining credential lifetime; Redis expires them on its own.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps an existing client. An empty prefix falls back to
// the default.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(credential string) string {
	return s.prefix + credential
}

func (s *RedisStore) Revoke(ctx context.Context, credential string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, s.key(credential), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke credential: %w", err)
	}
	return nil
}

func (s *RedisStore) IsRevoked(ctx context.Context, credential string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(credential)).Result()
	if err != nil {
		return false, fmt.Errorf("revocation lookup: %w", err)
	}
	return n > 0, nil
}
