package question

import (
	"errors"
	"fmt"
	"strings"
)

// Difficulty constants for readability.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// OptionCount is fixed by the game format.
const OptionCount = 4

// Question is an immutable multiple-choice record issued to a session.
type Question struct {
	ID           string   `json:"id" yaml:"id"`
	Prompt       string   `json:"prompt" yaml:"prompt"`
	Options      []string `json:"options" yaml:"options"`
	CorrectIndex int      `json:"correct_index" yaml:"correct"`
	Hint         string   `json:"hint,omitempty" yaml:"hint"`
	Explanation  string   `json:"explanation,omitempty" yaml:"explanation"`
	Category     string   `json:"category" yaml:"category"`
	Difficulty   string   `json:"difficulty" yaml:"difficulty"`
	Source       string   `json:"source,omitempty" yaml:"-"`
}

var ErrInvalidQuestion = errors.New("invalid question")

// Validate checks the shape the engine relies on.
func (q Question) Validate() error {
	if strings.TrimSpace(q.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidQuestion)
	}
	if strings.TrimSpace(q.Prompt) == "" {
		return fmt.Errorf("%w %s: missing prompt", ErrInvalidQuestion, q.ID)
	}
	if len(q.Options) != OptionCount {
		return fmt.Errorf("%w %s: need %d options, got %d", ErrInvalidQuestion, q.ID, OptionCount, len(q.Options))
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= OptionCount {
		return fmt.Errorf("%w %s: correct index %d out of range", ErrInvalidQuestion, q.ID, q.CorrectIndex)
	}
	switch q.Difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
	default:
		return fmt.Errorf("%w %s: unknown difficulty %q", ErrInvalidQuestion, q.ID, q.Difficulty)
	}
	return nil
}

// Clone returns a deep copy so callers cannot mutate shared bank entries.
func (q Question) Clone() Question {
	q.Options = append([]string(nil), q.Options...)
	return q
}
