package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/gokatarajesh/millionaire/internal/db/queries"
)

type mockQuestionStore struct {
	mock.Mock
}

func (m *mockQuestionStore) GetQuestionPool(ctx context.Context, arg queries.GetQuestionPoolParams) ([]queries.Question, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).([]queries.Question), args.Error(1)
}

func (m *mockQuestionStore) UpsertQuestion(ctx context.Context, arg queries.UpsertQuestionParams) (queries.Question, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(queries.Question), args.Error(1)
}

func (m *mockQuestionStore) CountQuestionsByDifficulty(ctx context.Context) ([]queries.CountQuestionsByDifficultyRow, error) {
	args := m.Called(ctx)
	return args.Get(0).([]queries.CountQuestionsByDifficultyRow), args.Error(1)
}

func TestQuestionRepository_FetchPool(t *testing.T) {
	store := new(mockQuestionStore)
	repo := NewQuestionRepository(store)

	params := queries.GetQuestionPoolParams{
		Difficulty: "hard",
		Category:   "history",
		Exclude:    []string{"q-1"},
		Limit:      3,
	}
	store.On("GetQuestionPool", mock.Anything, params).Return([]queries.Question{{Prompt: "؟"}}, nil)

	got, err := repo.FetchPool(context.Background(), "history", "hard", []string{"q-1"}, 3)
	assert.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = repo.FetchPool(context.Background(), "history", "hard", nil, 0)
	assert.NoError(t, err)
	assert.Nil(t, got)
	store.AssertNumberOfCalls(t, "GetQuestionPool", 1)
}

func TestQuestionRepository_CountByDifficulty(t *testing.T) {
	store := new(mockQuestionStore)
	repo := NewQuestionRepository(store)

	store.On("CountQuestionsByDifficulty", mock.Anything).Return([]queries.CountQuestionsByDifficultyRow{
		{Difficulty: "easy", Count: 12},
		{Difficulty: "hard", Count: 4},
	}, nil)

	got, err := repo.CountByDifficulty(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, map[string]int64{"easy": 12, "hard": 4}, got)
}
