package question

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/millionaire/internal/question/external"
)

type stubOpentdb struct {
	questions []external.OpenTDBQuestion
	err       error
}

func (s *stubOpentdb) Fetch(_ context.Context, amount int, _, _ string) ([]external.OpenTDBQuestion, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.questions[:min(amount, len(s.questions))], nil
}

type stubTrivia struct {
	questions []external.TriviaAPIQuestion
}

func (s *stubTrivia) Fetch(_ context.Context, amount int, _, _ string) ([]external.TriviaAPIQuestion, error) {
	return s.questions[:min(amount, len(s.questions))], nil
}

func TestOpenTDBSource_Normalizes(t *testing.T) {
	client := &stubOpentdb{questions: []external.OpenTDBQuestion{
		{
			Category:        "Science &amp; Nature",
			Type:            "multiple",
			Difficulty:      "easy",
			Question:        "What is &quot;H2O&quot;?",
			CorrectAnswer:   "Water",
			IncorrectAnswer: []string{"Salt", "Sand", "Air"},
		},
		{
			Type:            "boolean",
			Question:        "Is the sky blue?",
			CorrectAnswer:   "True",
			IncorrectAnswer: []string{"False"},
		},
	}}
	src := NewOpenTDBSource(client, rand.New(rand.NewSource(3)))

	got, err := src.Fetch(context.Background(), AnyCategory, DifficultyEasy, 5, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)

	q := got[0]
	assert.NoError(t, q.Validate())
	assert.Equal(t, `What is "H2O"?`, q.Prompt)
	assert.Equal(t, "Water", q.Options[q.CorrectIndex])
	assert.ElementsMatch(t, []string{"Water", "Salt", "Sand", "Air"}, q.Options)
	assert.Equal(t, "science & nature", q.Category)

	again, err := src.Fetch(context.Background(), AnyCategory, DifficultyEasy, 5, []string{q.ID})
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestTriviaAPISource_Normalizes(t *testing.T) {
	client := &stubTrivia{questions: []external.TriviaAPIQuestion{
		{ID: "abc", Category: "music", Question: "Who?", Correct: "Fairuz", Incorrect: []string{"A", "B", "C"}},
	}}
	src := NewTriviaAPISource(client, rand.New(rand.NewSource(5)))

	got, err := src.Fetch(context.Background(), "music", DifficultyMedium, 1, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "triviaapi-abc", got[0].ID)
	assert.Equal(t, "Fairuz", got[0].Options[got[0].CorrectIndex])
	assert.Equal(t, DifficultyMedium, got[0].Difficulty)
}

func TestOpenTDBClient_ResponseCodes(t *testing.T) {
	code := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api.php", r.URL.Path)
		assert.Equal(t, "hard", r.URL.Query().Get("difficulty"))
		fmt.Fprintf(w, `{"response_code":%d,"results":[{"question":"Q","correct_answer":"A","incorrect_answers":["B","C","D"]}]}`, code)
	}))
	defer srv.Close()
	client := external.NewOpenTDBClient(srv.URL, srv.Client())

	got, err := client.Fetch(context.Background(), 1, "hard", "multiple")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	code = 1
	got, err = client.Fetch(context.Background(), 1, "hard", "multiple")
	require.NoError(t, err)
	assert.Empty(t, got)

	code = 5
	_, err = client.Fetch(context.Background(), 1, "hard", "multiple")
	assert.ErrorIs(t, err, external.ErrRateLimited)
}

func TestTriviaAPIClient_Decodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/questions", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`[{"id":"x1","category":"history","question":{"text":"When?"},"difficulty":"hard","correctAnswer":"1066","incorrectAnswers":["1067","1166","966"]}]`))
	}))
	defer srv.Close()
	client := external.NewTriviaAPIClient(srv.URL, "", srv.Client())

	got, err := client.Fetch(context.Background(), 2, "history", "hard")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "When?", got[0].Question)
	assert.Equal(t, "1066", got[0].Correct)
	assert.Len(t, got[0].Incorrect, 3)
}
