package play

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/millionaire/internal/game"
)

const defaultSnapshotTTL = 24 * time.Hour

// StoredGame is a session snapshot plus its owner.
type StoredGame struct {
	OwnerID  uuid.UUID     `json:"owner_id"`
	Snapshot game.Snapshot `json:"snapshot"`
	SavedAt  time.Time     `json:"saved_at"`
}

// SnapshotStore keeps the latest snapshot of each session in Redis for review and reconnects.
type SnapshotStore struct {
	redis  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewSnapshotStore creates a snapshot store backed by Redis.
func NewSnapshotStore(redis *redis.Client, ttl time.Duration, logger zerolog.Logger) *SnapshotStore {
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	return &SnapshotStore{
		redis:  redis,
		ttl:    ttl,
		logger: logger.With().Str("component", "snapshot_store").Logger(),
	}
}

// Save overwrites the session snapshot and points the owner's latest-game key at it.
func (s *SnapshotStore) Save(ctx context.Context, owner uuid.UUID, snap game.Snapshot) error {
	if snap.SessionID == "" {
		return nil
	}
	data, err := json.Marshal(StoredGame{OwnerID: owner, Snapshot: snap, SavedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, snapshotKey(snap.SessionID), data, s.ttl)
	pipe.Set(ctx, latestKey(owner), snap.SessionID, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	return nil
}

// Get returns the stored session, or nil when it expired or never existed.
func (s *SnapshotStore) Get(ctx context.Context, sessionID string) (*StoredGame, error) {
	data, err := s.redis.Get(ctx, snapshotKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	var stored StoredGame
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &stored, nil
}

// Latest returns the owner's most recently saved session.
func (s *SnapshotStore) Latest(ctx context.Context, owner uuid.UUID) (*StoredGame, error) {
	sessionID, err := s.redis.Get(ctx, latestKey(owner)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest session: %w", err)
	}
	return s.Get(ctx, sessionID)
}

func snapshotKey(sessionID string) string {
	return fmt.Sprintf("game:snapshot:%s", sessionID)
}

func latestKey(owner uuid.UUID) string {
	return fmt.Sprintf("game:latest:%s", owner.String())
}
