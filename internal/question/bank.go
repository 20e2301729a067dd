package question

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"math/rand"
	"path"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed bank/*.yaml
var bankFS embed.FS

// bankFile is the on-disk layout of a question bank: one category per file.
type bankFile struct {
	Category  string     `yaml:"category"`
	Questions []Question `yaml:"questions"`
}

// ParseYAML decodes one bank file. Questions without a category inherit the file's.
func ParseYAML(data []byte, source string) ([]Question, error) {
	var file bankFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode %s: %w", source, err)
	}
	out := make([]Question, 0, len(file.Questions))
	for _, q := range file.Questions {
		if q.Category == "" {
			q.Category = file.Category
		}
		q.Source = source
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", source, err)
		}
		out = append(out, q)
	}
	return out, nil
}

// LoadYAML reads every *.yaml file at the root of fsys.
func LoadYAML(fsys fs.FS) ([]Question, error) {
	names, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return nil, err
	}
	var all []Question
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		qs, err := ParseYAML(data, "bank:"+path.Base(name))
		if err != nil {
			return nil, err
		}
		all = append(all, qs...)
	}
	return all, nil
}

// Bank is an in-memory Source over a fixed question set.
type Bank struct {
	questions []Question

	mu  sync.Mutex
	rng *rand.Rand
}

// NewBank rejects duplicate IDs so exclusion stays exact.
func NewBank(questions []Question, rng *rand.Rand) (*Bank, error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	seen := make(map[string]bool, len(questions))
	for _, q := range questions {
		if seen[q.ID] {
			return nil, fmt.Errorf("duplicate question id %q", q.ID)
		}
		seen[q.ID] = true
	}
	return &Bank{questions: questions, rng: rng}, nil
}

// EmbeddedBank loads the Arabic bank compiled into the binary.
func EmbeddedBank() (*Bank, error) {
	sub, err := fs.Sub(bankFS, "bank")
	if err != nil {
		return nil, err
	}
	qs, err := LoadYAML(sub)
	if err != nil {
		return nil, err
	}
	return NewBank(qs, nil)
}

func (b *Bank) Name() string { return "bank" }

// Len is the total number of questions held.
func (b *Bank) Len() int { return len(b.questions) }

// All returns copies of every question, in file order.
func (b *Bank) All() []Question {
	out := make([]Question, len(b.questions))
	for i, q := range b.questions {
		out[i] = q.Clone()
	}
	return out
}

func (b *Bank) Fetch(_ context.Context, category, difficulty string, count int, exclude []string) ([]Question, error) {
	skip := excludeSet(exclude)
	var candidates []Question
	for _, q := range b.questions {
		if q.Difficulty != difficulty || !matchesCategory(category, q.Category) || skip[q.ID] {
			continue
		}
		candidates = append(candidates, q)
	}

	b.mu.Lock()
	b.rng.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })
	b.mu.Unlock()

	if len(candidates) > count {
		candidates = candidates[:count]
	}
	out := make([]Question, len(candidates))
	for i, q := range candidates {
		out[i] = q.Clone()
	}
	return out, nil
}
