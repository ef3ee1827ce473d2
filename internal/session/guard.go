package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrAlreadyProcessing is returned when another request currently holds the
// processing lock for a session. The caller must stop; the guard never
// retries or queues.
var ErrAlreadyProcessing = errors.New("purchase process request already in flight")

const guardKeyPrefix = "purchase:processing:"

// Locker is the mutual-exclusion primitive backing the guard. Acquire is
// non-blocking: it reports false when the key is already held.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Guard prevents two concurrent requests from mutating the same purchase
// process: a distributed mutex keyed by session id. The lock TTL is a safety
// net against crashed handlers leaking the lock permanently.
type Guard struct {
	locker Locker
	ttl    time.Duration
	logger *slog.Logger
}

// NewGuard creates a duplicate-request guard with the given lock TTL.
func NewGuard(locker Locker, ttl time.Duration, logger *slog.Logger) *Guard {
	return &Guard{locker: locker, ttl: ttl, logger: logger}
}

// Begin marks the session as processing. It fails with ErrAlreadyProcessing
// when another request holds the lock; that outcome must surface to the
// caller without mutating process state.
func (g *Guard) Begin(ctx context.Context, sessionID string) error {
	ok, err := g.locker.Acquire(ctx, guardKeyPrefix+sessionID, g.ttl)
	if err != nil {
		return fmt.Errorf("acquiring session lock %s: %w", sessionID, err)
	}
	if !ok {
		return ErrAlreadyProcessing
	}
	return nil
}

// Finish clears the processing marker. Called unconditionally once the
// process has been persisted, success or failure, so the session is never
// left artificially locked. Release errors are logged, never propagated.
func (g *Guard) Finish(ctx context.Context, sessionID string) {
	if err := g.locker.Release(ctx, guardKeyPrefix+sessionID); err != nil {
		g.logger.Error("releasing session lock failed",
			"session_id", sessionID,
			"error", err,
		)
	}
}

// RedisLocker implements Locker on Redis SET NX with TTL.
type RedisLocker struct {
	client *redis.Client
}

// NewRedisLocker creates a Redis-backed locker.
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

// Acquire atomically sets the processing marker if absent.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, key, "processing", ttl).Result()
}

// Release deletes the processing marker.
func (l *RedisLocker) Release(ctx context.Context, key string) error {
	return l.client.Del(ctx, key).Err()
}

// MemoryLocker implements Locker in process memory for tests and dev mode.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]time.Time
	now   func() time.Time
}

// NewMemoryLocker creates an in-memory locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]time.Time), now: time.Now}
}

// Acquire sets the marker unless a live one exists. Expired markers count as
// absent, mirroring Redis TTL reclamation.
func (l *MemoryLocker) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if expiry, held := l.locks[key]; held && l.now().Before(expiry) {
		return false, nil
	}
	l.locks[key] = l.now().Add(ttl)
	return true, nil
}

// Release deletes the marker.
func (l *MemoryLocker) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locks, key)
	return nil
}
