package question

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/millionaire/internal/db/queries"
)

type fakeSource struct {
	name      string
	questions []Question
	err       error
	calls     int
	excludes  [][]string
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(_ context.Context, category, difficulty string, count int, exclude []string) ([]Question, error) {
	f.calls++
	f.excludes = append(f.excludes, exclude)
	if f.err != nil {
		return nil, f.err
	}
	skip := excludeSet(exclude)
	var out []Question
	for _, q := range f.questions {
		if len(out) == count {
			break
		}
		if q.Difficulty == difficulty && matchesCategory(category, q.Category) && !skip[q.ID] {
			out = append(out, q)
		}
	}
	return out, nil
}

func TestService_FillsFromLaterSources(t *testing.T) {
	pool := &fakeSource{name: "pool", questions: []Question{testQuestion("p1", DifficultyEasy, "x")}}
	bank := &fakeSource{name: "bank", questions: []Question{
		testQuestion("p1", DifficultyEasy, "x"),
		testQuestion("b1", DifficultyEasy, "x"),
		testQuestion("b2", DifficultyEasy, "x"),
	}}
	api := &fakeSource{name: "api"}
	svc := NewService([]Source{pool, bank, api}, nil, zerolog.Nop(), ServiceOptions{})

	got, err := svc.Fetch(context.Background(), "", AnyCategory, DifficultyEasy, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "b1", "b2"}, idsOf(got))
	assert.Equal(t, 0, api.calls, "satisfied before reaching the api")
	assert.Contains(t, bank.excludes[0], "p1")
}

func TestService_SkipsFailingSource(t *testing.T) {
	broken := &fakeSource{name: "pool", err: errors.New("connection refused")}
	bank := &fakeSource{name: "bank", questions: []Question{testQuestion("b1", DifficultyHard, "x")}}
	svc := NewService([]Source{broken, bank}, nil, zerolog.Nop(), ServiceOptions{})

	got, err := svc.Fetch(context.Background(), "", "", DifficultyHard, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, idsOf(got))
}

func TestService_AllSourcesFail(t *testing.T) {
	svc := NewService([]Source{
		&fakeSource{name: "pool", err: errors.New("down")},
		&fakeSource{name: "api", err: errors.New("timeout")},
	}, nil, zerolog.Nop(), ServiceOptions{})

	_, err := svc.Fetch(context.Background(), "", "", DifficultyHard, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pool: down")
	assert.Contains(t, err.Error(), "api: timeout")
}

func TestService_DiscardsInvalidAndMismatched(t *testing.T) {
	bad := testQuestion("bad", DifficultyEasy, "x")
	bad.CorrectIndex = 7
	wrongTier := testQuestion("hard", DifficultyHard, "x")
	src := &fakeSource{name: "api"}
	src.questions = []Question{bad, testQuestion("ok", DifficultyEasy, "x")}
	mixed := sourceFunc(func() []Question { return []Question{wrongTier} })
	svc := NewService([]Source{mixed, src}, nil, zerolog.Nop(), ServiceOptions{})

	got, err := svc.Fetch(context.Background(), "", "", DifficultyEasy, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, idsOf(got))
}

func TestPlayerProvider_AvoidsRepeatsAndRecycles(t *testing.T) {
	bank := &fakeSource{name: "bank", questions: []Question{
		testQuestion("q1", DifficultyEasy, "x"),
		testQuestion("q2", DifficultyEasy, "x"),
		testQuestion("q3", DifficultyEasy, "x"),
	}}
	used := NewMemoryUsedTracker()
	svc := NewService([]Source{bank}, used, zerolog.Nop(), ServiceOptions{})
	player := svc.ForPlayer("p1")
	ctx := context.Background()

	first, err := player.GetQuestions(ctx, "", DifficultyEasy, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := player.GetQuestions(ctx, "", DifficultyEasy, 2)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.NotContains(t, idsOf(first), second[0].ID, "unseen question served first")

	seen, _ := used.Used(ctx, "p1")
	assert.ElementsMatch(t, idsOf(second), seen, "history restarts after recycling")

	other, err := svc.ForPlayer("p2").GetQuestions(ctx, "", DifficultyEasy, 3)
	require.NoError(t, err)
	assert.Len(t, other, 3)
}

func TestPoolSource(t *testing.T) {
	repo := &stubPool{rows: []queries.Question{
		{
			QuestionID:   pgtype.UUID{Bytes: [16]byte{15: 1}, Valid: true},
			ExternalID:   pgtype.Text{String: "geo-e-01", Valid: true},
			Prompt:       "؟",
			Options:      []string{"أ", "ب", "ج", "د"},
			CorrectIndex: 3,
			Hint:         pgtype.Text{String: "تلميح", Valid: true},
			Category:     "geography",
			Difficulty:   DifficultyEasy,
			Source:       "curated",
		},
		{
			QuestionID: pgtype.UUID{Bytes: [16]byte{15: 2}, Valid: true},
			Prompt:     "؟",
			Options:    []string{"أ", "ب", "ج", "د"},
			Difficulty: DifficultyEasy,
		},
	}}
	src := NewPoolSource(repo)

	got, err := src.Fetch(context.Background(), AnyCategory, DifficultyEasy, 5, []string{"x"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "", repo.category, "any category is sent as an empty filter")
	assert.Equal(t, []string{"x"}, repo.exclude)
	assert.Equal(t, "geo-e-01", got[0].ID)
	assert.Equal(t, 3, got[0].CorrectIndex)
	assert.Equal(t, "تلميح", got[0].Hint)
	assert.Equal(t, "00000000-0000-0000-0000-000000000002", got[1].ID)
}

type stubPool struct {
	rows     []queries.Question
	category string
	exclude  []string
}

func (s *stubPool) FetchPool(_ context.Context, category, _ string, exclude []string, _ int) ([]queries.Question, error) {
	s.category = category
	s.exclude = exclude
	return s.rows, nil
}

type sourceFunc func() []Question

func (f sourceFunc) Name() string { return "func" }

func (f sourceFunc) Fetch(context.Context, string, string, int, []string) ([]Question, error) {
	return f(), nil
}
