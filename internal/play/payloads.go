package play

import "github.com/gokatarajesh/millionaire/internal/game"

// QuestionPayload is sent for start_game, next_question and after a skip.
type QuestionPayload struct {
	Question      game.QuestionView `json:"question"`
	Shortfall     bool              `json:"shortfall,omitempty"`
	LifelinesLeft int               `json:"lifelines_left"`
	LifelinesUsed []string          `json:"lifelines_used"`
	TimerEnabled  bool              `json:"timer_enabled"`
}

// LifelineResultPayload carries one lifeline's outcome.
type LifelineResultPayload struct {
	Lifeline  string       `json:"lifeline"`
	Remaining int          `json:"remaining"`
	Result    game.Payload `json:"result"`
}

// SafeHavenPayload announces a banked checkpoint.
type SafeHavenPayload struct {
	SessionID string `json:"session_id"`
	Position  int    `json:"position"`
	Score     int    `json:"score"`
}

// GameOverPayload is the final summary plus the player's all-time rank.
type GameOverPayload struct {
	game.FinalResult
	LeaderboardPosition int `json:"leaderboard_position,omitempty"`
}
