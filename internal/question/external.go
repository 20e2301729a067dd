package question

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"html"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/gokatarajesh/millionaire/internal/question/external"
)

type opentdbClient interface {
	Fetch(ctx context.Context, amount int, difficulty, qType string) ([]external.OpenTDBQuestion, error)
}

type triviaClient interface {
	Fetch(ctx context.Context, amount int, category, difficulty string) ([]external.TriviaAPIQuestion, error)
}

// shuffler serialises access to a shared rand source.
type shuffler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newShuffler(rng *rand.Rand) *shuffler {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &shuffler{rng: rng}
}

func (s *shuffler) options(correct string, wrong []string) ([]string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return shuffleOptions(s.rng, correct, wrong)
}

// OpenTDBSource adapts the Open Trivia DB to Source. Only four-option questions are kept.
type OpenTDBSource struct {
	client opentdbClient
	shuf   *shuffler
}

func NewOpenTDBSource(client opentdbClient, rng *rand.Rand) *OpenTDBSource {
	return &OpenTDBSource{client: client, shuf: newShuffler(rng)}
}

func (s *OpenTDBSource) Name() string { return "opentdb" }

func (s *OpenTDBSource) Fetch(ctx context.Context, _ string, difficulty string, count int, exclude []string) ([]Question, error) {
	raw, err := s.client.Fetch(ctx, count, difficulty, "multiple")
	if err != nil {
		return nil, err
	}
	skip := excludeSet(exclude)
	out := make([]Question, 0, len(raw))
	for _, r := range raw {
		if len(r.IncorrectAnswer) != OptionCount-1 {
			continue
		}
		prompt := html.UnescapeString(r.Question)
		id := externalID("opentdb", prompt)
		if skip[id] {
			continue
		}
		wrong := make([]string, len(r.IncorrectAnswer))
		for i, w := range r.IncorrectAnswer {
			wrong[i] = html.UnescapeString(w)
		}
		options, correct := s.shuf.options(html.UnescapeString(r.CorrectAnswer), wrong)
		out = append(out, Question{
			ID:           id,
			Prompt:       prompt,
			Options:      options,
			CorrectIndex: correct,
			Category:     strings.ToLower(html.UnescapeString(r.Category)),
			Difficulty:   difficulty,
			Source:       "opentdb",
		})
	}
	return out, nil
}

// TriviaAPISource adapts the Trivia API to Source.
type TriviaAPISource struct {
	client triviaClient
	shuf   *shuffler
}

func NewTriviaAPISource(client triviaClient, rng *rand.Rand) *TriviaAPISource {
	return &TriviaAPISource{client: client, shuf: newShuffler(rng)}
}

func (s *TriviaAPISource) Name() string { return "triviaapi" }

func (s *TriviaAPISource) Fetch(ctx context.Context, category, difficulty string, count int, exclude []string) ([]Question, error) {
	if category == AnyCategory {
		category = ""
	}
	raw, err := s.client.Fetch(ctx, count, category, difficulty)
	if err != nil {
		return nil, err
	}
	skip := excludeSet(exclude)
	out := make([]Question, 0, len(raw))
	for _, r := range raw {
		if len(r.Incorrect) != OptionCount-1 {
			continue
		}
		id := "triviaapi-" + r.ID
		if r.ID == "" {
			id = externalID("triviaapi", r.Question)
		}
		if skip[id] {
			continue
		}
		options, correct := s.shuf.options(r.Correct, r.Incorrect)
		out = append(out, Question{
			ID:           id,
			Prompt:       r.Question,
			Options:      options,
			CorrectIndex: correct,
			Category:     r.Category,
			Difficulty:   difficulty,
			Source:       "triviaapi",
		})
	}
	return out, nil
}

// externalID derives a stable ID from the prompt so repeats are recognised across fetches.
func externalID(prefix, prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return prefix + "-" + hex.EncodeToString(sum[:8])
}
