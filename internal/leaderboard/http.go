package leaderboard

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/millionaire/internal/auth"
	"github.com/gokatarajesh/millionaire/internal/db/queries"
	httperrors "github.com/gokatarajesh/millionaire/pkg/http/errors"
	ws "github.com/gokatarajesh/millionaire/pkg/http/ws"
)

// snapshotStore is the Postgres side of the leaderboard.
type snapshotStore interface {
	InsertLeaderboardSnapshot(ctx context.Context, arg queries.InsertLeaderboardSnapshotParams) (queries.LeaderboardSnapshot, error)
	ListRecentSnapshots(ctx context.Context, arg queries.ListRecentSnapshotsParams) ([]queries.LeaderboardSnapshot, error)
}

var _ snapshotStore = (*queries.Queries)(nil)

// HTTPHandler exposes REST endpoints for leaderboard queries.
type HTTPHandler struct {
	svc       *Service
	snapshots snapshotStore
	logger    zerolog.Logger
}

// NewHTTPHandler constructs a leaderboard HTTP handler. snapshots may be nil.
func NewHTTPHandler(svc *Service, snapshots snapshotStore, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:       svc,
		snapshots: snapshots,
		logger:    logger.With().Str("component", "leaderboard_http").Logger(),
	}
}

type leaderboardResponse struct {
	Window      string                `json:"window"`
	Top         []ws.LeaderboardEntry `json:"top"`
	Source      string                `json:"source"`
	MyRank      int                   `json:"my_rank,omitempty"`
	RetrievedAt string                `json:"retrievedAt"`
}

// HandleGet responds with the current leaderboard for a window.
// Route: GET /v1/leaderboards/{window}?limit=10
func (h *HTTPHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	window := r.PathValue("window")
	if !h.svc.ValidWindow(window) {
		httperrors.RespondNotFound(w, httperrors.ErrCodeUnknownWindow, "Unknown leaderboard window")
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	ctx := r.Context()
	resp := leaderboardResponse{Window: window, Source: "redis"}

	entries, err := h.svc.Top(ctx, window, limit)
	if err != nil {
		h.logger.Warn().Err(err).Str("window", window).Msg("redis leaderboard fetch failed")
	}
	resp.Top = toWSEntries(entries)

	if err != nil {
		resp.Source = "snapshot"
		resp.Top = h.snapshotFallback(ctx, window, limit)
	} else if claims, ok := auth.ClaimsFromContext(ctx); ok {
		if rank, err := h.svc.Rank(ctx, window, claims.UserID); err == nil {
			resp.MyRank = rank
		}
	}
	if resp.Top == nil {
		resp.Top = []ws.LeaderboardEntry{}
	}
	resp.RetrievedAt = h.svc.now().UTC().Format(time.RFC3339)

	writeJSON(w, resp)
}

func (h *HTTPHandler) snapshotFallback(ctx context.Context, window string, limit int) []ws.LeaderboardEntry {
	if h.snapshots == nil {
		return nil
	}
	rows, err := h.snapshots.ListRecentSnapshots(ctx, queries.ListRecentSnapshotsParams{
		TimeWindow: window,
		Limit:      1,
	})
	if err != nil || len(rows) == 0 {
		if err != nil {
			h.logger.Warn().Err(err).Str("window", window).Msg("snapshot fetch failed")
		}
		return nil
	}

	var entries []ws.LeaderboardEntry
	if err := json.Unmarshal(rows[0].Entries, &entries); err != nil {
		h.logger.Warn().Err(err).Msg("snapshot payload decode failed")
		return nil
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
