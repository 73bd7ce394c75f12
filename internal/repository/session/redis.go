package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwalitptl/emr-assistant/internal/repository"
)

const keyPrefix = "emr:session:"

// RedisStore keeps session context in Redis so it survives restarts and is
// shared between API replicas.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ repository.SessionRepository = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) GetContext(ctx context.Context, sessionID string) (string, error) {
	val, err := s.client.Get(ctx, keyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get session context: %w", err)
	}
	return val, nil
}

func (s *RedisStore) SetContext(ctx context.Context, sessionID, value string) error {
	if err := s.client.Set(ctx, keyPrefix+sessionID, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session context: %w", err)
	}
	return nil
}
