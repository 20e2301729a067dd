package game

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/millionaire/internal/question"
)

const defaultCategory = "general"

// EngineOptions wires an engine's collaborators. Zero values get production defaults.
type EngineOptions struct {
	Rules     Rules
	Provider  QuestionProvider
	Listener  Listener
	Rand      *rand.Rand
	Now       func() time.Time
	NewTicker TickerFunc
	Logger    zerolog.Logger
}

// Engine owns at most one session and is the only writer of its state.
type Engine struct {
	rules     Rules
	provider  QuestionProvider
	listener  Listener
	rng       *rand.Rand
	now       func() time.Time
	countdown *Countdown
	logger    zerolog.Logger

	mu       sync.Mutex
	sess     *session
	timerGen uint64

	// emitMu serializes listener delivery; always taken before mu, never while holding it.
	emitMu sync.Mutex
}

type session struct {
	id            string
	status        string
	category      string
	difficulty    string
	timerEnabled  bool
	questions     []question.Question
	index         int
	answered      bool
	score         int
	floor         int
	correct       int
	answeredCount int
	used          []Lifeline
	eliminated    []int
	timeLeft      int
	answers       []AnswerRecord
	startedAt     time.Time
	endedAt       *time.Time
	final         *FinalResult
}

// NewEngine validates the rule set and builds an idle engine.
func NewEngine(opts EngineOptions) (*Engine, error) {
	if err := opts.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("validate rules: %w", err)
	}
	if opts.Provider == nil {
		return nil, fmt.Errorf("question provider required")
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		rules:     opts.Rules,
		provider:  opts.Provider,
		listener:  opts.Listener,
		rng:       rng,
		now:       now,
		countdown: NewCountdown(tickInterval, opts.NewTicker),
		logger:    opts.Logger.With().Str("component", "game_engine").Logger(),
	}, nil
}

// Start discards any previous session and begins a new one.
func (e *Engine) Start(ctx context.Context, opts Options) (StartResult, error) {
	if opts.Difficulty == "" {
		opts.Difficulty = DifficultyEasy
	}
	if !ValidDifficulty(opts.Difficulty) {
		return StartResult{}, ErrInvalidOptions
	}
	if opts.TotalQuestions == 0 {
		opts.TotalQuestions = e.rules.DefaultQuestions
	}
	if opts.TotalQuestions < 0 || opts.TotalQuestions > e.rules.Prizes.Len() {
		return StartResult{}, ErrInvalidOptions
	}
	if opts.Category == "" {
		opts.Category = defaultCategory
	}

	e.mu.Lock()
	e.stopTimerLocked()
	e.sess = nil
	e.mu.Unlock()

	questions, shortfall := e.collectQuestions(ctx, opts)

	e.mu.Lock()
	e.stopTimerLocked()
	s := &session{
		id:           uuid.NewString(),
		status:       StatusActive,
		category:     opts.Category,
		difficulty:   opts.Difficulty,
		timerEnabled: !opts.DisableTimer,
		questions:    questions,
		startedAt:    e.now(),
	}
	e.sess = s
	e.startQuestionLocked()
	view := e.viewLocked()
	events := []Event{{Type: EventQuestionStarted, SessionID: s.id, Difficulty: s.difficulty, Position: 1, View: &view}}
	e.mu.Unlock()

	e.logger.Info().
		Str("session_id", s.id).
		Str("category", opts.Category).
		Str("difficulty", opts.Difficulty).
		Int("questions", len(questions)).
		Bool("shortfall", shortfall).
		Msg("game started")

	e.emit(events)
	return StartResult{View: view, Shortfall: shortfall}, nil
}

// collectQuestions pulls each position tier from the provider. A short supply shortens the
// session; an empty one falls back to a single canned question.
func (e *Engine) collectQuestions(ctx context.Context, opts Options) ([]question.Question, bool) {
	shortfall := false
	seen := make(map[string]bool, opts.TotalQuestions)
	questions := make([]question.Question, 0, opts.TotalQuestions)

	for _, tier := range e.rules.Distribution(opts.TotalQuestions) {
		if tier.Count == 0 {
			continue
		}
		batch, err := e.provider.GetQuestions(ctx, opts.Category, tier.Difficulty, tier.Count)
		if err != nil {
			e.logger.Warn().Err(err).Str("difficulty", tier.Difficulty).Msg("question provider failed")
			shortfall = true
			continue
		}
		taken := 0
		for _, q := range batch {
			if taken == tier.Count {
				break
			}
			if err := q.Validate(); err != nil {
				e.logger.Warn().Err(err).Msg("skip malformed question")
				continue
			}
			if seen[q.ID] {
				continue
			}
			seen[q.ID] = true
			questions = append(questions, q.Clone())
			taken++
		}
		if taken < tier.Count {
			shortfall = true
		}
	}

	if len(questions) == 0 {
		e.logger.Warn().Str("category", opts.Category).Msg("no questions available, using fallback")
		return []question.Question{fallbackQuestion()}, true
	}
	return questions, shortfall
}

// SelectAnswer resolves the current question with the chosen option.
func (e *Engine) SelectAnswer(index int) (AnswerResult, error) {
	e.mu.Lock()
	s := e.sess
	if s == nil || s.status != StatusActive {
		e.mu.Unlock()
		return AnswerResult{}, ErrSessionInactive
	}
	if s.answered {
		e.mu.Unlock()
		return AnswerResult{}, ErrAlreadyAnswered
	}
	if index < 0 || index >= len(s.questions[s.index].Options) {
		e.mu.Unlock()
		return AnswerResult{}, ErrAnswerOutOfRange
	}
	res, events := e.resolveLocked(index, false)
	e.mu.Unlock()

	e.emit(events)
	return res, nil
}

// NextQuestion advances past an answered question, finishing the session after the last one.
func (e *Engine) NextQuestion() (NextResult, error) {
	e.mu.Lock()
	s := e.sess
	if s == nil || s.status != StatusActive {
		e.mu.Unlock()
		return NextResult{}, ErrSessionInactive
	}
	if !s.answered {
		e.mu.Unlock()
		return NextResult{}, ErrNotAnswered
	}
	res, events := e.advanceLocked()
	e.mu.Unlock()

	e.emit(events)
	return res, nil
}

// Quit ends the session immediately as a loss with the current score banked.
func (e *Engine) Quit() (FinalResult, error) {
	e.mu.Lock()
	s := e.sess
	if s == nil || s.status != StatusActive {
		e.mu.Unlock()
		return FinalResult{}, ErrSessionInactive
	}
	final := e.finishLocked(EndQuit)
	events := []Event{{Type: EventGameFinished, SessionID: s.id, Difficulty: s.difficulty, Final: final}}
	e.mu.Unlock()

	e.emit(events)
	return *final, nil
}

// UseLifeline applies one lifeline to the current question.
func (e *Engine) UseLifeline(l Lifeline) (LifelineResult, error) {
	e.mu.Lock()
	res, events, err := e.useLifelineLocked(l)
	e.mu.Unlock()
	if err != nil {
		return LifelineResult{}, err
	}
	e.emit(events)
	return res, nil
}

func (e *Engine) useLifelineLocked(l Lifeline) (LifelineResult, []Event, error) {
	s := e.sess
	if s == nil || s.status != StatusActive {
		return LifelineResult{}, nil, ErrSessionInactive
	}
	if !l.Valid() {
		return LifelineResult{}, nil, ErrUnknownLifeline
	}
	if l == Skip && !e.rules.SkipEnabled {
		return LifelineResult{}, nil, ErrLifelineUnavailable
	}
	if lifelineUsed(s.used, l) {
		return LifelineResult{}, nil, ErrLifelineUsed
	}
	limit := e.rules.Tiers[s.difficulty].LifelineCap
	if len(s.used) >= limit {
		return LifelineResult{}, nil, ErrLifelineLimit
	}
	if s.answered {
		return LifelineResult{}, nil, ErrAlreadyAnswered
	}

	q := s.questions[s.index]
	s.used = append(s.used, l)
	var (
		payload Payload
		events  []Event
	)
	switch l {
	case FiftyFifty:
		el := eliminateTwo(e.rng, len(q.Options), q.CorrectIndex)
		s.eliminated = append([]int(nil), el.Hidden...)
		payload = el
	case PhoneFriend:
		payload = askFriend(e.rng, e.rules.PhoneConfidence, len(q.Options), q.CorrectIndex, s.eliminated)
	case AudiencePoll:
		payload = pollAudience(e.rng, len(q.Options), q.CorrectIndex, s.eliminated)
	case Skip:
		e.stopTimerLocked()
		s.answered = true
		s.answers = append(s.answers, AnswerRecord{
			QuestionID: q.ID,
			Position:   s.index + 1,
			Chosen:     -1,
			Skipped:    true,
		})
		next, advanceEvents := e.advanceLocked()
		payload = SkipOutcome{Next: next.View, Final: next.Final}
		events = advanceEvents
	}

	res := LifelineResult{Lifeline: l, Payload: payload, Remaining: limit - len(s.used)}
	used := Event{Type: EventLifelineUsed, SessionID: s.id, Difficulty: s.difficulty, Position: s.index + 1, Lifeline: &res}
	return res, append([]Event{used}, events...), nil
}

// CurrentView returns the active question without its answer.
func (e *Engine) CurrentView() (QuestionView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil || e.sess.status != StatusActive {
		return QuestionView{}, ErrSessionInactive
	}
	return e.viewLocked(), nil
}

// Status reports idle, active or finished.
func (e *Engine) Status() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return StatusIdle
	}
	return e.sess.status
}

// Snapshot copies the whole session.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sess
	if s == nil {
		return Snapshot{Status: StatusIdle}
	}
	snap := Snapshot{
		SessionID:      s.id,
		Status:         s.status,
		Category:       s.category,
		Difficulty:     s.difficulty,
		QuestionIndex:  s.index,
		TotalQuestions: len(s.questions),
		Score:          s.score,
		SafeFloor:      s.floor,
		CorrectCount:   s.correct,
		LifelinesUsed:  lifelineNamesOf(s.used),
		LifelinesLeft:  e.rules.Tiers[s.difficulty].LifelineCap - len(s.used),
		TimeLeft:       s.timeLeft,
		TimerEnabled:   s.timerEnabled,
		Answers:        append([]AnswerRecord(nil), s.answers...),
		StartedAt:      s.startedAt,
	}
	if s.status == StatusActive {
		view := e.viewLocked()
		snap.Current = &view
	}
	if s.endedAt != nil {
		ended := *s.endedAt
		snap.EndedAt = &ended
	}
	if s.final != nil {
		final := cloneFinal(*s.final)
		snap.Final = &final
	}
	return snap
}

// onTick holds emitMu across the state check so an answer resolved meanwhile
// cannot be delivered ahead of this tick.
func (e *Engine) onTick(gen uint64) {
	e.emitMu.Lock()
	defer e.emitMu.Unlock()

	e.mu.Lock()
	s := e.sess
	if gen != e.timerGen || s == nil || s.status != StatusActive || s.answered {
		e.mu.Unlock()
		return
	}
	s.timeLeft--
	events := []Event{{Type: EventTick, SessionID: s.id, Difficulty: s.difficulty, Position: s.index + 1, TimeLeft: s.timeLeft}}
	if s.timeLeft <= 0 {
		s.timeLeft = 0
		_, resolved := e.resolveLocked(-1, true)
		events = append(events, resolved...)
	}
	e.mu.Unlock()

	e.deliver(events)
}

// resolveLocked records the answer for the current question. A wrong or missing answer ends the session.
func (e *Engine) resolveLocked(chosen int, timedOut bool) (AnswerResult, []Event) {
	e.stopTimerLocked()
	s := e.sess
	q := s.questions[s.index]
	position := s.index + 1
	isCorrect := !timedOut && chosen == q.CorrectIndex

	s.answered = true
	s.answeredCount++

	res := AnswerResult{
		QuestionNumber: position,
		Chosen:         chosen,
		IsCorrect:      isCorrect,
		TimedOut:       timedOut,
		CorrectIndex:   q.CorrectIndex,
		Explanation:    q.Explanation,
	}
	var events []Event

	if isCorrect {
		prize := e.rules.Prizes.PrizeFor(s.index)
		s.score += prize
		s.correct++
		res.PrizeWon = prize
		if e.rules.Prizes.IsSafeHaven(position) {
			s.floor = s.score
			res.SafeHaven = true
			events = append(events, Event{Type: EventSafeHavenReached, SessionID: s.id, Difficulty: s.difficulty, Position: position})
		}
	} else if e.rules.LossPolicy == LossSafeHaven {
		s.score = s.floor
	}

	s.answers = append(s.answers, AnswerRecord{
		QuestionID: q.ID,
		Position:   position,
		Chosen:     chosen,
		IsCorrect:  isCorrect,
		TimedOut:   timedOut,
		PrizeWon:   res.PrizeWon,
	})
	res.Score = s.score

	if !isCorrect {
		reason := EndWrong
		if timedOut {
			reason = EndTimeUp
		}
		res.Finished = true
		res.Final = e.finishLocked(reason)
	}

	if timedOut {
		events = append(events, Event{Type: EventTimeUp, SessionID: s.id, Difficulty: s.difficulty, Position: position, Answer: &res})
	}
	events = append(events, Event{Type: EventAnswerRevealed, SessionID: s.id, Difficulty: s.difficulty, Position: position, Answer: &res})
	if res.Finished {
		events = append(events, Event{Type: EventGameFinished, SessionID: s.id, Difficulty: s.difficulty, Final: res.Final})
	}
	return res, events
}

func (e *Engine) advanceLocked() (NextResult, []Event) {
	s := e.sess
	s.index++
	if s.index >= len(s.questions) {
		s.index = len(s.questions)
		final := e.finishLocked(EndCompleted)
		return NextResult{Final: final}, []Event{{Type: EventGameFinished, SessionID: s.id, Difficulty: s.difficulty, Final: final}}
	}
	e.startQuestionLocked()
	view := e.viewLocked()
	return NextResult{View: &view}, []Event{{Type: EventQuestionStarted, SessionID: s.id, Difficulty: s.difficulty, Position: s.index + 1, View: &view}}
}

func (e *Engine) startQuestionLocked() {
	s := e.sess
	s.answered = false
	s.eliminated = nil
	s.timeLeft = e.rules.Tiers[s.difficulty].QuestionSeconds
	if s.timerEnabled {
		e.startTimerLocked()
	}
}

func (e *Engine) finishLocked(reason string) *FinalResult {
	e.stopTimerLocked()
	s := e.sess
	ended := e.now()
	s.status = StatusFinished
	s.endedAt = &ended

	accuracy := 0
	if s.answeredCount > 0 {
		accuracy = int(math.Round(float64(s.correct) / float64(s.answeredCount) * 100))
	}
	final := &FinalResult{
		SessionID:        s.id,
		Score:            s.score,
		CorrectCount:     s.correct,
		AnsweredCount:    s.answeredCount,
		TotalQuestions:   len(s.questions),
		TotalTimeSeconds: int(math.Round(ended.Sub(s.startedAt).Seconds())),
		AccuracyPercent:  accuracy,
		IsWin:            s.correct == len(s.questions),
		Difficulty:       s.difficulty,
		Category:         s.category,
		Reason:           reason,
		LifelinesUsed:    lifelineNamesOf(s.used),
		StartedAt:        s.startedAt,
		EndedAt:          ended,
	}
	s.final = final

	e.logger.Info().
		Str("session_id", s.id).
		Str("reason", reason).
		Int("score", final.Score).
		Int("correct", final.CorrectCount).
		Bool("win", final.IsWin).
		Msg("game finished")

	out := cloneFinal(*final)
	return &out
}

func (e *Engine) startTimerLocked() {
	e.timerGen++
	gen := e.timerGen
	e.countdown.Start(func() { e.onTick(gen) })
}

// stopTimerLocked invalidates in-flight ticks and cancels the countdown.
func (e *Engine) stopTimerLocked() {
	e.timerGen++
	e.countdown.Stop()
}

func (e *Engine) viewLocked() QuestionView {
	s := e.sess
	q := s.questions[s.index]
	return QuestionView{
		SessionID:      s.id,
		QuestionID:     q.ID,
		Prompt:         q.Prompt,
		Answers:        append([]string(nil), q.Options...),
		Hint:           q.Hint,
		Category:       q.Category,
		Difficulty:     q.Difficulty,
		QuestionNumber: s.index + 1,
		TotalQuestions: len(s.questions),
		TimeLeft:       s.timeLeft,
		CurrentScore:   s.score,
		Prize:          e.rules.Prizes.PrizeFor(s.index),
		SafeHaven:      e.rules.Prizes.IsSafeHaven(s.index + 1),
		Eliminated:     append([]int(nil), s.eliminated...),
		Answered:       s.answered,
	}
}

func (e *Engine) emit(events []Event) {
	if e.listener == nil || len(events) == 0 {
		return
	}
	e.emitMu.Lock()
	defer e.emitMu.Unlock()
	e.deliver(events)
}

// deliver requires emitMu.
func (e *Engine) deliver(events []Event) {
	if e.listener == nil {
		return
	}
	for _, ev := range events {
		e.listener(ev)
	}
}

func lifelineUsed(used []Lifeline, l Lifeline) bool {
	for _, u := range used {
		if u == l {
			return true
		}
	}
	return false
}

func lifelineNamesOf(used []Lifeline) []string {
	names := make([]string, len(used))
	for i, l := range used {
		names[i] = l.String()
	}
	return names
}

func cloneFinal(f FinalResult) FinalResult {
	f.LifelinesUsed = append([]string(nil), f.LifelinesUsed...)
	return f
}

func fallbackQuestion() question.Question {
	return question.Question{
		ID:           "fallback-1",
		Prompt:       "ما هي عاصمة المملكة العربية السعودية؟",
		Options:      []string{"جدة", "الرياض", "مكة المكرمة", "الدمام"},
		CorrectIndex: 1,
		Hint:         "تقع في وسط شبه الجزيرة العربية",
		Explanation:  "الرياض هي عاصمة المملكة العربية السعودية وأكبر مدنها.",
		Category:     defaultCategory,
		Difficulty:   DifficultyEasy,
		Source:       "fallback",
	}
}
