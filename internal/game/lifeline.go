package game

import (
	"math"
	"math/rand"
)

// Lifeline identifies one of the fixed assistive actions.
type Lifeline int

const (
	FiftyFifty Lifeline = iota + 1
	PhoneFriend
	AudiencePoll
	Skip
)

var allLifelines = []Lifeline{FiftyFifty, PhoneFriend, AudiencePoll, Skip}

var lifelineNames = map[Lifeline]string{
	FiftyFifty:   "fiftyFifty",
	PhoneFriend:  "phoneFriend",
	AudiencePoll: "audiencePoll",
	Skip:         "skip",
}

func (l Lifeline) String() string {
	if name, ok := lifelineNames[l]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether l is a member of the fixed set.
func (l Lifeline) Valid() bool {
	_, ok := lifelineNames[l]
	return ok
}

// ParseLifeline maps a wire identifier to a Lifeline.
func ParseLifeline(name string) (Lifeline, error) {
	for l, n := range lifelineNames {
		if n == name {
			return l, nil
		}
	}
	return 0, ErrUnknownLifeline
}

// Phone-a-friend confidence framing.
const (
	ConfidenceSure   = "confident"
	ConfidenceUnsure = "unsure"
)

// Payload is the lifeline-specific result.
type Payload interface {
	Lifeline() Lifeline
}

// Elimination lists the two wrong answers hidden by 50:50.
type Elimination struct {
	Hidden []int `json:"hidden"`
}

func (Elimination) Lifeline() Lifeline { return FiftyFifty }

// Suggestion is the simulated friend's advice. It never selects an answer.
type Suggestion struct {
	Index      int    `json:"index"`
	Confidence string `json:"confidence"`
}

func (Suggestion) Lifeline() Lifeline { return PhoneFriend }

// Poll is the simulated audience vote, one percentage per option.
type Poll struct {
	Percentages []int `json:"percentages"`
}

func (Poll) Lifeline() Lifeline { return AudiencePoll }

// SkipOutcome carries what follows the skipped question.
type SkipOutcome struct {
	Next  *QuestionView `json:"question,omitempty"`
	Final *FinalResult  `json:"final,omitempty"`
}

func (SkipOutcome) Lifeline() Lifeline { return Skip }

// LifelineResult wraps a payload with the remaining allowance.
type LifelineResult struct {
	Lifeline  Lifeline
	Payload   Payload
	Remaining int
}

// wrongIndices lists incorrect options that are still visible.
func wrongIndices(optionCount, correct int, hidden []int) []int {
	out := make([]int, 0, optionCount-1)
	for i := 0; i < optionCount; i++ {
		if i == correct || containsInt(hidden, i) {
			continue
		}
		out = append(out, i)
	}
	return out
}

// eliminateTwo keeps one wrong answer at random and hides the other two.
func eliminateTwo(rng *rand.Rand, optionCount, correct int) Elimination {
	wrong := wrongIndices(optionCount, correct, nil)
	keep := rng.Intn(len(wrong))
	hidden := make([]int, 0, 2)
	for i, idx := range wrong {
		if i != keep {
			hidden = append(hidden, idx)
		}
	}
	return Elimination{Hidden: hidden}
}

func askFriend(rng *rand.Rand, confidence float64, optionCount, correct int, hidden []int) Suggestion {
	if rng.Float64() < confidence {
		return Suggestion{Index: correct, Confidence: ConfidenceSure}
	}
	wrong := wrongIndices(optionCount, correct, hidden)
	if len(wrong) == 0 {
		return Suggestion{Index: correct, Confidence: ConfidenceUnsure}
	}
	return Suggestion{Index: wrong[rng.Intn(len(wrong))], Confidence: ConfidenceUnsure}
}

// pollAudience gives the correct option a share in [min,max) and splits the rest over visible wrong options.
// Rounding drift is settled on the correct option so the total is exactly 100.
func pollAudience(rng *rand.Rand, optionCount, correct int, hidden []int) Poll {
	pct := make([]int, optionCount)
	pct[correct] = audienceCorrectMin + rng.Intn(audienceCorrectMax-audienceCorrectMin)

	wrong := wrongIndices(optionCount, correct, hidden)
	remainder := float64(100 - pct[correct])
	if len(wrong) == 0 {
		pct[correct] = 100
		return Poll{Percentages: pct}
	}
	for i, idx := range wrong {
		if i == len(wrong)-1 {
			pct[idx] = int(math.Round(remainder))
			break
		}
		share := remainder * rng.Float64()
		pct[idx] = int(math.Round(share))
		remainder -= share
	}

	sum := 0
	for _, p := range pct {
		sum += p
	}
	pct[correct] += 100 - sum
	return Poll{Percentages: pct}
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
