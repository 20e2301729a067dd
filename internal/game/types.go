package game

import (
	"context"
	"time"

	"github.com/gokatarajesh/millionaire/internal/question"
)

// Session lifecycle states.
const (
	StatusIdle     = "idle"
	StatusActive   = "active"
	StatusFinished = "finished"
)

// Finish reasons recorded on the final result.
const (
	EndCompleted = "completed"
	EndWrong     = "wrong_answer"
	EndTimeUp    = "time_up"
	EndQuit      = "quit"
)

// QuestionProvider is the question bank lookup consumed by the engine.
// It may return fewer than count questions.
type QuestionProvider interface {
	GetQuestions(ctx context.Context, category, difficulty string, count int) ([]question.Question, error)
}

// Options configures a new session.
type Options struct {
	Category       string
	Difficulty     string
	TotalQuestions int
	DisableTimer   bool
}

// QuestionView is the read-only projection shown to players. It never carries the correct index.
type QuestionView struct {
	SessionID      string   `json:"session_id"`
	QuestionID     string   `json:"question_id"`
	Prompt         string   `json:"prompt"`
	Answers        []string `json:"answers"`
	Hint           string   `json:"hint,omitempty"`
	Category       string   `json:"category"`
	Difficulty     string   `json:"difficulty"`
	QuestionNumber int      `json:"question_number"`
	TotalQuestions int      `json:"total_questions"`
	TimeLeft       int      `json:"time_left"`
	CurrentScore   int      `json:"current_score"`
	Prize          int      `json:"prize"`
	SafeHaven      bool     `json:"safe_haven"`
	Eliminated     []int    `json:"eliminated,omitempty"`
	Answered       bool     `json:"answered"`
}

// StartResult is returned by Start.
type StartResult struct {
	View      QuestionView `json:"question"`
	Shortfall bool         `json:"shortfall"`
}

// AnswerResult reveals the outcome of the current question.
type AnswerResult struct {
	QuestionNumber int          `json:"question_number"`
	Chosen         int          `json:"chosen"`
	IsCorrect      bool         `json:"is_correct"`
	TimedOut       bool         `json:"timed_out"`
	CorrectIndex   int          `json:"correct_index"`
	Explanation    string       `json:"explanation,omitempty"`
	PrizeWon       int          `json:"prize_won"`
	Score          int          `json:"score"`
	SafeHaven      bool         `json:"safe_haven"`
	Finished       bool         `json:"finished"`
	Final          *FinalResult `json:"final,omitempty"`
}

// NextResult carries either the next question or the final result.
type NextResult struct {
	View  *QuestionView `json:"question,omitempty"`
	Final *FinalResult  `json:"final,omitempty"`
}

// FinalResult summarises a finished session.
type FinalResult struct {
	SessionID        string    `json:"session_id"`
	Score            int       `json:"score"`
	CorrectCount     int       `json:"correct_count"`
	AnsweredCount    int       `json:"answered_count"`
	TotalQuestions   int       `json:"total_questions"`
	TotalTimeSeconds int       `json:"total_time_seconds"`
	AccuracyPercent  int       `json:"accuracy_percent"`
	IsWin            bool      `json:"is_win"`
	Difficulty       string    `json:"difficulty"`
	Category         string    `json:"category"`
	Reason           string    `json:"reason"`
	LifelinesUsed    []string  `json:"lifelines_used"`
	StartedAt        time.Time `json:"started_at"`
	EndedAt          time.Time `json:"ended_at"`
}

// AnswerRecord annotates an issued question after the player acted on it.
type AnswerRecord struct {
	QuestionID string `json:"question_id"`
	Position   int    `json:"position"`
	Chosen     int    `json:"chosen"`
	IsCorrect  bool   `json:"is_correct"`
	TimedOut   bool   `json:"timed_out"`
	Skipped    bool   `json:"skipped"`
	PrizeWon   int    `json:"prize_won"`
}

// Snapshot is a by-value copy of the whole session for persistence and review.
type Snapshot struct {
	SessionID      string         `json:"session_id"`
	Status         string         `json:"status"`
	Category       string         `json:"category"`
	Difficulty     string         `json:"difficulty"`
	QuestionIndex  int            `json:"question_index"`
	TotalQuestions int            `json:"total_questions"`
	Score          int            `json:"score"`
	SafeFloor      int            `json:"safe_floor"`
	CorrectCount   int            `json:"correct_count"`
	LifelinesUsed  []string       `json:"lifelines_used"`
	LifelinesLeft  int            `json:"lifelines_left"`
	TimeLeft       int            `json:"time_left"`
	TimerEnabled   bool           `json:"timer_enabled"`
	Answers        []AnswerRecord `json:"answers"`
	Current        *QuestionView  `json:"current,omitempty"`
	Final          *FinalResult   `json:"final,omitempty"`
	StartedAt      time.Time      `json:"started_at"`
	EndedAt        *time.Time     `json:"ended_at,omitempty"`
}
