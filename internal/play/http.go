package play

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/millionaire/internal/auth"
	"github.com/gokatarajesh/millionaire/internal/db/queries"
	"github.com/gokatarajesh/millionaire/internal/db/repository"
	"github.com/gokatarajesh/millionaire/internal/game"
	httperrors "github.com/gokatarajesh/millionaire/pkg/http/errors"
)

type snapshotReader interface {
	Get(ctx context.Context, sessionID string) (*StoredGame, error)
	Latest(ctx context.Context, owner uuid.UUID) (*StoredGame, error)
}

type resultReader interface {
	Get(ctx context.Context, sessionID uuid.UUID) (queries.GameResult, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]queries.GameResult, error)
}

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

var (
	_ snapshotReader = (*SnapshotStore)(nil)
	_ resultReader   = (*repository.ResultRepository)(nil)
)

// HTTPHandler serves game review and per-player history.
type HTTPHandler struct {
	snapshots snapshotReader
	results   resultReader
	logger    zerolog.Logger
}

// NewHTTPHandler builds the handler. snapshots may be nil, in which case only recorded results are served.
func NewHTTPHandler(snapshots snapshotReader, results resultReader, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		snapshots: snapshots,
		results:   results,
		logger:    logger.With().Str("component", "play_http").Logger(),
	}
}

// ResultView is the public form of a recorded game.
type ResultView struct {
	SessionID        string    `json:"session_id"`
	Category         string    `json:"category"`
	Difficulty       string    `json:"difficulty"`
	Score            int       `json:"score"`
	CorrectCount     int       `json:"correct_count"`
	AnsweredCount    int       `json:"answered_count"`
	TotalQuestions   int       `json:"total_questions"`
	AccuracyPercent  int       `json:"accuracy_percent"`
	IsWin            bool      `json:"is_win"`
	Reason           string    `json:"reason"`
	LifelinesUsed    []string  `json:"lifelines_used"`
	TotalTimeSeconds int       `json:"total_time_seconds"`
	StartedAt        time.Time `json:"started_at"`
	EndedAt          time.Time `json:"ended_at"`
}

type gameResponse struct {
	Source   string         `json:"source"`
	Snapshot *game.Snapshot `json:"snapshot,omitempty"`
	Result   *ResultView    `json:"result,omitempty"`
}

// HandleGet returns one game owned by the caller.
// Route: GET /v1/games/{id}
func (h *HTTPHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidGameID, "Invalid game id")
		return
	}

	ctx := r.Context()
	if h.snapshots != nil {
		stored, err := h.snapshots.Get(ctx, id.String())
		if err != nil {
			h.logger.Warn().Err(err).Str("session_id", id.String()).Msg("snapshot lookup failed")
		}
		if stored != nil {
			if stored.OwnerID != claims.UserID {
				httperrors.RespondNotFound(w, httperrors.ErrCodeGameNotFound, "Game not found")
				return
			}
			writeJSON(w, gameResponse{Source: "live", Snapshot: &stored.Snapshot})
			return
		}
	}

	row, err := h.results.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && repository.UUIDFrom(row.UserID) != claims.UserID) {
		httperrors.RespondNotFound(w, httperrors.ErrCodeGameNotFound, "Game not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", id.String()).Msg("result lookup failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeGameFetchFailed, "Failed to load game")
		return
	}
	view := toResultView(row)
	writeJSON(w, gameResponse{Source: "history", Result: &view})
}

// HandleLatest returns the caller's most recent live snapshot.
// Route: GET /v1/users/me/games/latest
func (h *HTTPHandler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}
	if h.snapshots == nil {
		httperrors.RespondNotFound(w, httperrors.ErrCodeGameNotFound, "No recent game")
		return
	}
	stored, err := h.snapshots.Latest(r.Context(), claims.UserID)
	if err != nil {
		h.logger.Error().Err(err).Msg("latest snapshot lookup failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeGameFetchFailed, "Failed to load game")
		return
	}
	if stored == nil {
		httperrors.RespondNotFound(w, httperrors.ErrCodeGameNotFound, "No recent game")
		return
	}
	writeJSON(w, gameResponse{Source: "live", Snapshot: &stored.Snapshot})
}

// HandleHistory lists the caller's recorded games, newest first.
// Route: GET /v1/users/me/results?limit=20
func (h *HTTPHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = min(parsed, maxHistoryLimit)
		}
	}

	rows, err := h.results.ListByUser(r.Context(), claims.UserID, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("history lookup failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeHistoryFetchFailed, "Failed to load history")
		return
	}

	out := make([]ResultView, 0, len(rows))
	for _, row := range rows {
		out = append(out, toResultView(row))
	}
	writeJSON(w, map[string]any{"results": out})
}

func toResultView(row queries.GameResult) ResultView {
	lifelines := row.LifelinesUsed
	if lifelines == nil {
		lifelines = []string{}
	}
	return ResultView{
		SessionID:        repository.UUIDFrom(row.SessionID).String(),
		Category:         row.Category,
		Difficulty:       row.Difficulty,
		Score:            int(row.Score),
		CorrectCount:     int(row.CorrectCount),
		AnsweredCount:    int(row.AnsweredCount),
		TotalQuestions:   int(row.TotalQuestions),
		AccuracyPercent:  int(row.AccuracyPercent),
		IsWin:            row.IsWin,
		Reason:           row.EndReason,
		LifelinesUsed:    lifelines,
		TotalTimeSeconds: int(row.TotalTimeSeconds),
		StartedAt:        row.StartedAt.Time,
		EndedAt:          row.EndedAt.Time,
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
