package ws

import "encoding/json"

// MessageType constants for the gameplay WebSocket protocol.
const (
	// Client -> Server
	TypeStartGame    = "start_game"
	TypeSelectAnswer = "select_answer"
	TypeUseLifeline  = "use_lifeline"
	TypeNextQuestion = "next_question"
	TypeQuitGame     = "quit_game"
	TypePing         = "ping"

	// Server -> Client
	TypeQuestion          = "question"
	TypeTick              = "tick"
	TypeAnswerResult      = "answer_result"
	TypeLifelineResult    = "lifeline_result"
	TypeSafeHaven         = "safe_haven"
	TypeGameOver          = "game_over"
	TypeLeaderboardUpdate = "leaderboard_update"
	TypeError             = "error"
	TypePong              = "pong"
)

// Message wraps all WebSocket payloads with type and optional request ID.
// Server messages always set Success; replies echo the client's RequestID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
	Success   bool            `json:"success"`
}

// NewMessage marshals payload into a successful message.
func NewMessage(msgType, requestID string, payload any) (Message, error) {
	msg := Message{Type: msgType, RequestID: requestID, Success: true}
	if payload == nil {
		return msg, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	msg.Payload = raw
	return msg, nil
}

// NewError builds a failed reply.
func NewError(requestID, code, message string) Message {
	raw, _ := json.Marshal(ErrorPayload{Code: code, Message: message})
	return Message{Type: TypeError, Payload: raw, RequestID: requestID}
}

// Client Messages (incoming)

type StartGamePayload struct {
	Category       string `json:"category,omitempty"`
	Difficulty     string `json:"difficulty,omitempty"`
	TotalQuestions int    `json:"total_questions,omitempty"`
	TimerEnabled   *bool  `json:"timer_enabled,omitempty"` // default: true
}

type SelectAnswerPayload struct {
	Index *int `json:"index"`
}

type UseLifelinePayload struct {
	Lifeline string `json:"lifeline"`
}

// Server Messages (outgoing)

type TickPayload struct {
	SessionID string `json:"session_id"`
	TimeLeft  int    `json:"time_left"`
}

type LeaderboardUpdatePayload struct {
	Window string             `json:"window"`
	Top    []LeaderboardEntry `json:"top"`
	GameID string             `json:"game_id,omitempty"`
}

type LeaderboardEntry struct {
	Rank        int     `json:"rank"`
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name"`
	Score       int     `json:"score"`
	Wins        int     `json:"wins"`
	Games       int     `json:"games"`
	Accuracy    float64 `json:"accuracy"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
