package question

import (
	"context"

	"github.com/gokatarajesh/millionaire/internal/db/queries"
	"github.com/gokatarajesh/millionaire/internal/db/repository"
)

type poolFetcher interface {
	FetchPool(ctx context.Context, category, difficulty string, exclude []string, limit int) ([]queries.Question, error)
}

var _ poolFetcher = (*repository.QuestionRepository)(nil)

// PoolSource serves curated questions from Postgres.
type PoolSource struct {
	repo poolFetcher
}

func NewPoolSource(repo poolFetcher) *PoolSource {
	return &PoolSource{repo: repo}
}

func (p *PoolSource) Name() string { return "postgres" }

func (p *PoolSource) Fetch(ctx context.Context, category, difficulty string, count int, exclude []string) ([]Question, error) {
	if category == AnyCategory {
		category = ""
	}
	rows, err := p.repo.FetchPool(ctx, category, difficulty, exclude, count)
	if err != nil {
		return nil, err
	}
	out := make([]Question, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return out, nil
}

// fromRow prefers the stable external ID so bank and pool copies of a question dedupe.
func fromRow(row queries.Question) Question {
	id := row.ExternalID.String
	if !row.ExternalID.Valid || id == "" {
		id = repository.UUIDFrom(row.QuestionID).String()
	}
	return Question{
		ID:           id,
		Prompt:       row.Prompt,
		Options:      append([]string(nil), row.Options...),
		CorrectIndex: int(row.CorrectIndex),
		Hint:         row.Hint.String,
		Explanation:  row.Explanation.String,
		Category:     row.Category,
		Difficulty:   row.Difficulty,
		Source:       row.Source,
	}
}
