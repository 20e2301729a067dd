package question

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultUsedTTL = 7 * 24 * time.Hour

// UsedTracker remembers which questions a player has already been served.
type UsedTracker interface {
	Used(ctx context.Context, playerID string) ([]string, error)
	MarkUsed(ctx context.Context, playerID string, ids []string) error
	Reset(ctx context.Context, playerID string) error
}

// RedisUsedTracker keeps one set per player, refreshed on every write.
type RedisUsedTracker struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

var _ UsedTracker = (*RedisUsedTracker)(nil)

func NewRedisUsedTracker(client *redis.Client, ttl time.Duration) *RedisUsedTracker {
	if ttl <= 0 {
		ttl = defaultUsedTTL
	}
	return &RedisUsedTracker{client: client, ttl: ttl, prefix: "questions:used"}
}

func (t *RedisUsedTracker) key(playerID string) string {
	return fmt.Sprintf("%s:%s", t.prefix, playerID)
}

func (t *RedisUsedTracker) Used(ctx context.Context, playerID string) ([]string, error) {
	ids, err := t.client.SMembers(ctx, t.key(playerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("read used questions: %w", err)
	}
	return ids, nil
}

func (t *RedisUsedTracker) MarkUsed(ctx context.Context, playerID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	key := t.key(playerID)
	pipe := t.client.TxPipeline()
	pipe.SAdd(ctx, key, members...)
	pipe.Expire(ctx, key, t.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mark used questions: %w", err)
	}
	return nil
}

func (t *RedisUsedTracker) Reset(ctx context.Context, playerID string) error {
	return t.client.Del(ctx, t.key(playerID)).Err()
}

// MemoryUsedTracker is a process-local UsedTracker.
type MemoryUsedTracker struct {
	mu   sync.Mutex
	used map[string]map[string]bool
}

var _ UsedTracker = (*MemoryUsedTracker)(nil)

func NewMemoryUsedTracker() *MemoryUsedTracker {
	return &MemoryUsedTracker{used: make(map[string]map[string]bool)}
}

func (t *MemoryUsedTracker) Used(_ context.Context, playerID string) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]string, 0, len(t.used[playerID]))
	for id := range t.used[playerID] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (t *MemoryUsedTracker) MarkUsed(_ context.Context, playerID string, ids []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	set, ok := t.used[playerID]
	if !ok {
		set = make(map[string]bool)
		t.used[playerID] = set
	}
	for _, id := range ids {
		set[id] = true
	}
	return nil
}

func (t *MemoryUsedTracker) Reset(_ context.Context, playerID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.used, playerID)
	return nil
}
