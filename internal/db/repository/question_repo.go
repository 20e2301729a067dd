package repository

import (
	"context"

	"github.com/gokatarajesh/millionaire/internal/db/queries"
)

type questionStore interface {
	GetQuestionPool(ctx context.Context, arg queries.GetQuestionPoolParams) ([]queries.Question, error)
	UpsertQuestion(ctx context.Context, arg queries.UpsertQuestionParams) (queries.Question, error)
	CountQuestionsByDifficulty(ctx context.Context) ([]queries.CountQuestionsByDifficultyRow, error)
}

// QuestionRepository wraps the curated question pool.
type QuestionRepository struct {
	store questionStore
}

func NewQuestionRepository(store questionStore) *QuestionRepository {
	return &QuestionRepository{store: store}
}

// FetchPool returns up to limit random questions of one difficulty, skipping excluded IDs.
// An empty category matches every category.
func (r *QuestionRepository) FetchPool(ctx context.Context, category, difficulty string, exclude []string, limit int) ([]queries.Question, error) {
	if limit <= 0 {
		return nil, nil
	}
	return r.store.GetQuestionPool(ctx, queries.GetQuestionPoolParams{
		Difficulty: difficulty,
		Category:   category,
		Exclude:    exclude,
		Limit:      int32(limit),
	})
}

// Upsert stores a curated question keyed by its external ID.
func (r *QuestionRepository) Upsert(ctx context.Context, params queries.UpsertQuestionParams) (queries.Question, error) {
	return r.store.UpsertQuestion(ctx, params)
}

// CountByDifficulty reports pool depth per tier.
func (r *QuestionRepository) CountByDifficulty(ctx context.Context) (map[string]int64, error) {
	rows, err := r.store.CountQuestionsByDifficulty(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Difficulty] = row.Count
	}
	return out, nil
}
