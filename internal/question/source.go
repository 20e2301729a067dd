package question

import (
	"context"
	"math/rand"
)

// AnyCategory asks a source for questions from every category.
const AnyCategory = "general"

// Source is one origin of questions: the curated pool, the embedded bank or an external API.
type Source interface {
	Name() string
	Fetch(ctx context.Context, category, difficulty string, count int, exclude []string) ([]Question, error)
}

func matchesCategory(want, got string) bool {
	return want == "" || want == AnyCategory || want == got
}

func excludeSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// shuffleOptions places correct among wrong at a random index.
func shuffleOptions(rng *rand.Rand, correct string, wrong []string) ([]string, int) {
	options := make([]string, 0, len(wrong)+1)
	options = append(options, wrong...)
	options = append(options, correct)
	rng.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
	for i, o := range options {
		if o == correct {
			return options, i
		}
	}
	return options, len(options) - 1
}
