package leaderboard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/millionaire/internal/db/queries"
)

// SnapshotWorker periodically persists Redis leaderboards into Postgres so reads survive a Redis flush.
type SnapshotWorker struct {
	svc      *Service
	store    snapshotStore
	logger   zerolog.Logger
	interval time.Duration
	lastHash map[string]string
}

func NewSnapshotWorker(svc *Service, store snapshotStore, interval time.Duration, logger zerolog.Logger) *SnapshotWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SnapshotWorker{
		svc:      svc,
		store:    store,
		logger:   logger.With().Str("component", "leaderboard_snapshot_worker").Logger(),
		interval: interval,
		lastHash: make(map[string]string),
	}
}

// Run blocks until context cancellation.
func (w *SnapshotWorker) Run(ctx context.Context) error {
	if w.svc == nil || w.store == nil {
		return nil
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *SnapshotWorker) tick(ctx context.Context) {
	for _, window := range w.svc.Windows() {
		if err := w.snapshotWindow(ctx, window); err != nil {
			w.logger.Warn().Err(err).Str("window", window).Msg("snapshot failed")
		}
	}
}

// snapshotWindow stores the window's top entries unless they are unchanged since the last run.
func (w *SnapshotWorker) snapshotWindow(ctx context.Context, window string) error {
	entries, err := w.svc.SnapshotTop(ctx, window)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	data, err := json.Marshal(toWSEntries(entries))
	if err != nil {
		return err
	}
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	if w.lastHash[window] == hash {
		return nil
	}

	now := w.svc.now().UTC()
	if _, err := w.store.InsertLeaderboardSnapshot(ctx, queries.InsertLeaderboardSnapshotParams{
		TimeWindow:  window,
		GeneratedAt: pgtype.Timestamptz{Time: now, Valid: true},
		Entries:     data,
		SourceHash:  hash,
	}); err != nil {
		return err
	}
	w.lastHash[window] = hash

	w.logger.Info().
		Str("window", window).
		Int("entries", len(entries)).
		Time("generated_at", now).
		Msg("leaderboard snapshot persisted")
	return nil
}
