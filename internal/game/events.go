package game

// EventType names a progression event.
type EventType string

const (
	EventQuestionStarted  EventType = "question_started"
	EventTick             EventType = "tick"
	EventAnswerRevealed   EventType = "answer_revealed"
	EventTimeUp           EventType = "time_up"
	EventSafeHavenReached EventType = "safe_haven_reached"
	EventLifelineUsed     EventType = "lifeline_used"
	EventGameFinished     EventType = "game_finished"
)

// Event is delivered to the Listener after the engine lock is released.
type Event struct {
	Type       EventType
	SessionID  string
	Difficulty string
	TimeLeft   int
	Position   int
	View       *QuestionView
	Answer     *AnswerResult
	Lifeline   *LifelineResult
	Final      *FinalResult
}

// Listener receives progression events, one at a time and in order. It may be called from the
// timer goroutine and must not call back into Start, SelectAnswer, NextQuestion, UseLifeline or Quit.
type Listener func(Event)
