package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kostush/purchase-gateway-sub009/internal/domain"
)

const sessionKeyPrefix = "purchase:session:"

// RedisStore persists purchase processes in Redis with TTL-based expiry.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Load restores the process stored under sessionID.
func (s *RedisStore) Load(ctx context.Context, sessionID string) (*domain.PurchaseProcess, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading session %s: %w", sessionID, err)
	}
	return Restore(data)
}

// Update serializes the process and writes it back, refreshing the TTL.
func (s *RedisStore) Update(ctx context.Context, p *domain.PurchaseProcess) error {
	data, err := Marshal(p)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+p.SessionID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("updating session %s: %w", p.SessionID, err)
	}
	return nil
}
