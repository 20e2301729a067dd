package game

import (
	"fmt"
	"math"
	"time"
)

// Difficulty tiers. The session tier drives the timer and lifeline cap; question tiers follow position.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Loss policies applied when a wrong or timed-out answer ends the session.
const (
	LossKeepScore = "keep_score"
	LossSafeHaven = "safe_haven"
)

const (
	defaultTotalQuestions  = 15
	defaultPhoneConfidence = 0.75
	audienceCorrectMin     = 60
	audienceCorrectMax     = 85
	tickInterval           = time.Second
)

// DefaultPrizeTable is the canonical 15-step ladder.
var DefaultPrizeTable = []int{
	100, 200, 300, 500, 1000,
	2000, 4000, 8000, 16000, 32000,
	64000, 125000, 250000, 500000, 1000000,
}

// DefaultSafeHavens are 1-based checkpoint positions.
var DefaultSafeHavens = []int{5, 10}

// TierRules holds the per-difficulty knobs.
type TierRules struct {
	LifelineCap     int
	QuestionSeconds int
}

// Rules is the single canonical rule set for a deployment.
type Rules struct {
	Prizes           PrizeTable
	Tiers            map[string]TierRules
	DefaultQuestions int
	EasyShare        float64 // share of positions drawn from easy questions
	MediumShare      float64 // hard takes whatever easy and medium leave
	PhoneConfidence  float64
	LossPolicy       string
	SkipEnabled      bool
}

// DefaultRules returns production defaults.
func DefaultRules() Rules {
	return Rules{
		Prizes: PrizeTable{
			Amounts:    append([]int(nil), DefaultPrizeTable...),
			SafeHavens: append([]int(nil), DefaultSafeHavens...),
		},
		Tiers: map[string]TierRules{
			DifficultyEasy:   {LifelineCap: 3, QuestionSeconds: 45},
			DifficultyMedium: {LifelineCap: 2, QuestionSeconds: 30},
			DifficultyHard:   {LifelineCap: 1, QuestionSeconds: 20},
		},
		DefaultQuestions: defaultTotalQuestions,
		EasyShare:        0.5,
		MediumShare:      0.3,
		PhoneConfidence:  defaultPhoneConfidence,
		LossPolicy:       LossKeepScore,
		SkipEnabled:      true,
	}
}

// Validate checks the rule set once at startup.
func (r Rules) Validate() error {
	if err := r.Prizes.Validate(); err != nil {
		return err
	}
	for _, tier := range []string{DifficultyEasy, DifficultyMedium, DifficultyHard} {
		t, ok := r.Tiers[tier]
		if !ok {
			return fmt.Errorf("missing rules for difficulty %q", tier)
		}
		if t.LifelineCap < 0 || t.LifelineCap > len(allLifelines) {
			return fmt.Errorf("difficulty %q: lifeline cap %d out of range", tier, t.LifelineCap)
		}
		if t.QuestionSeconds <= 0 {
			return fmt.Errorf("difficulty %q: seconds per question must be positive", tier)
		}
	}
	if r.DefaultQuestions <= 0 || r.DefaultQuestions > r.Prizes.Len() {
		return fmt.Errorf("default question count %d outside 1..%d", r.DefaultQuestions, r.Prizes.Len())
	}
	if r.EasyShare < 0 || r.MediumShare < 0 || r.EasyShare+r.MediumShare > 1 {
		return fmt.Errorf("invalid difficulty shares easy=%.2f medium=%.2f", r.EasyShare, r.MediumShare)
	}
	if r.PhoneConfidence < 0 || r.PhoneConfidence > 1 {
		return fmt.Errorf("phone confidence %.2f outside [0,1]", r.PhoneConfidence)
	}
	switch r.LossPolicy {
	case LossKeepScore, LossSafeHaven:
	default:
		return fmt.Errorf("unknown loss policy %q", r.LossPolicy)
	}
	return nil
}

// ValidDifficulty reports whether d names a configured tier.
func ValidDifficulty(d string) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

// Distribution splits total positions into easy/medium/hard counts, in position order.
// Medium and hard never exceed their share; rounding leftovers go to the easy tier.
func (r Rules) Distribution(total int) []TierCount {
	hardShare := 1 - r.EasyShare - r.MediumShare
	medium := shareOf(total, r.MediumShare)
	hard := shareOf(total, hardShare)
	easy := total - medium - hard
	return []TierCount{
		{Difficulty: DifficultyEasy, Count: easy},
		{Difficulty: DifficultyMedium, Count: medium},
		{Difficulty: DifficultyHard, Count: hard},
	}
}

// shareOf floors total*share, tolerating float error such as 15*(1-0.5-0.3) = 2.9999.
func shareOf(total int, share float64) int {
	if share <= 0 {
		return 0
	}
	return int(math.Floor(float64(total)*share + 1e-9))
}

// TierCount is one slice of the position distribution.
type TierCount struct {
	Difficulty string
	Count      int
}
