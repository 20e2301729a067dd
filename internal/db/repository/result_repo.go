package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gokatarajesh/millionaire/internal/db/queries"
)

const maxResultPage = 100

type resultStore interface {
	InsertGameResult(ctx context.Context, arg queries.InsertGameResultParams) error
	GetGameResult(ctx context.Context, sessionID pgtype.UUID) (queries.GameResult, error)
	ListResultsByUser(ctx context.Context, arg queries.ListResultsByUserParams) ([]queries.GameResult, error)
}

// ResultRepository persists finished game sessions.
type ResultRepository struct {
	store resultStore
}

func NewResultRepository(store resultStore) *ResultRepository {
	return &ResultRepository{store: store}
}

// Record inserts a result. Replays of the same session are ignored.
func (r *ResultRepository) Record(ctx context.Context, params queries.InsertGameResultParams) error {
	return r.store.InsertGameResult(ctx, params)
}

// Get fetches one session's result.
func (r *ResultRepository) Get(ctx context.Context, sessionID uuid.UUID) (queries.GameResult, error) {
	res, err := r.store.GetGameResult(ctx, pgUUID(sessionID))
	return res, mapNoRows(err)
}

// ListByUser returns the newest results first, clamping the page size.
func (r *ResultRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]queries.GameResult, error) {
	if limit <= 0 || limit > maxResultPage {
		limit = maxResultPage
	}
	return r.store.ListResultsByUser(ctx, queries.ListResultsByUserParams{
		UserID: pgUUID(userID),
		Limit:  int32(limit),
	})
}
