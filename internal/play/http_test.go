package play

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/millionaire/internal/auth"
	"github.com/gokatarajesh/millionaire/internal/auth/jwt"
	"github.com/gokatarajesh/millionaire/internal/db/queries"
	"github.com/gokatarajesh/millionaire/internal/db/repository"
	"github.com/gokatarajesh/millionaire/internal/game"
	httperrors "github.com/gokatarajesh/millionaire/pkg/http/errors"
)

type memSnapshots struct {
	games  map[string]*StoredGame
	latest map[uuid.UUID]string
	err    error
}

func (m *memSnapshots) Get(_ context.Context, id string) (*StoredGame, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.games[id], nil
}

func (m *memSnapshots) Latest(_ context.Context, owner uuid.UUID) (*StoredGame, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.games[m.latest[owner]], nil
}

type memResults struct {
	rows      []queries.GameResult
	err       error
	lastLimit int
}

func (m *memResults) Get(_ context.Context, id uuid.UUID) (queries.GameResult, error) {
	if m.err != nil {
		return queries.GameResult{}, m.err
	}
	for _, row := range m.rows {
		if repository.UUIDFrom(row.SessionID) == id {
			return row, nil
		}
	}
	return queries.GameResult{}, repository.ErrNotFound
}

func (m *memResults) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]queries.GameResult, error) {
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	var out []queries.GameResult
	for _, row := range m.rows {
		if repository.UUIDFrom(row.UserID) == userID {
			out = append(out, row)
		}
	}
	return out, nil
}

func resultRow(sessionID, userID uuid.UUID, score int32) queries.GameResult {
	ended := time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)
	return queries.GameResult{
		SessionID:      pgtype.UUID{Bytes: sessionID, Valid: true},
		UserID:         pgtype.UUID{Bytes: userID, Valid: true},
		Category:       "science",
		Difficulty:     game.DifficultyEasy,
		Score:          score,
		TotalQuestions: 15,
		EndReason:      game.EndCompleted,
		IsWin:          true,
		StartedAt:      pgtype.Timestamptz{Time: ended.Add(-5 * time.Minute), Valid: true},
		EndedAt:        pgtype.Timestamptz{Time: ended, Valid: true},
	}
}

func authedRequest(method, target string, userID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return req.WithContext(auth.WithClaims(req.Context(), &jwt.Claims{UserID: userID}))
}

func TestHTTPHandler_GetPrefersSnapshot(t *testing.T) {
	owner := uuid.New()
	id := uuid.New()
	snaps := &memSnapshots{games: map[string]*StoredGame{
		id.String(): {OwnerID: owner, Snapshot: game.Snapshot{SessionID: id.String(), Status: game.StatusActive, Score: 200}},
	}}
	h := NewHTTPHandler(snaps, &memResults{}, zerolog.Nop())

	req := authedRequest(http.MethodGet, "/v1/games/"+id.String(), owner)
	req.SetPathValue("id", id.String())
	rec := httptest.NewRecorder()
	h.HandleGet(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body gameResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "live", body.Source)
	require.NotNil(t, body.Snapshot)
	assert.Equal(t, 200, body.Snapshot.Score)
}

func TestHTTPHandler_GetFallsBackToHistory(t *testing.T) {
	owner := uuid.New()
	id := uuid.New()
	results := &memResults{rows: []queries.GameResult{resultRow(id, owner, 1000)}}
	h := NewHTTPHandler(&memSnapshots{err: errors.New("redis down")}, results, zerolog.Nop())

	req := authedRequest(http.MethodGet, "/v1/games/"+id.String(), owner)
	req.SetPathValue("id", id.String())
	rec := httptest.NewRecorder()
	h.HandleGet(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body gameResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "history", body.Source)
	require.NotNil(t, body.Result)
	assert.Equal(t, 1000, body.Result.Score)
	assert.Equal(t, []string{}, body.Result.LifelinesUsed)
}

func TestHTTPHandler_GetHidesOtherPlayersGames(t *testing.T) {
	owner := uuid.New()
	stranger := uuid.New()
	live := uuid.New()
	done := uuid.New()
	h := NewHTTPHandler(
		&memSnapshots{games: map[string]*StoredGame{live.String(): {OwnerID: owner}}},
		&memResults{rows: []queries.GameResult{resultRow(done, owner, 10)}},
		zerolog.Nop(),
	)

	for _, id := range []uuid.UUID{live, done, uuid.New()} {
		req := authedRequest(http.MethodGet, "/v1/games/"+id.String(), stranger)
		req.SetPathValue("id", id.String())
		rec := httptest.NewRecorder()
		h.HandleGet(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), httperrors.ErrCodeGameNotFound)
	}
}

func TestHTTPHandler_GetValidation(t *testing.T) {
	h := NewHTTPHandler(nil, &memResults{}, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.HandleGet(rec, httptest.NewRequest(http.MethodGet, "/v1/games/x", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := authedRequest(http.MethodGet, "/v1/games/nope", uuid.New())
	req.SetPathValue("id", "nope")
	rec = httptest.NewRecorder()
	h.HandleGet(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), httperrors.ErrCodeInvalidGameID)
}

func TestHTTPHandler_History(t *testing.T) {
	owner := uuid.New()
	results := &memResults{rows: []queries.GameResult{
		resultRow(uuid.New(), owner, 300),
		resultRow(uuid.New(), uuid.New(), 900),
		resultRow(uuid.New(), owner, 100),
	}}
	h := NewHTTPHandler(nil, results, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.HandleHistory(rec, authedRequest(http.MethodGet, "/v1/users/me/results?limit=5", owner))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, results.lastLimit)
	var body struct {
		Results []ResultView `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Results, 2)
	assert.Equal(t, 300, body.Results[0].Score)
	assert.Equal(t, game.EndCompleted, body.Results[0].Reason)

	rec = httptest.NewRecorder()
	h.HandleHistory(rec, authedRequest(http.MethodGet, "/v1/users/me/results?limit=100000000", owner))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 100, results.lastLimit)

	results.err = errors.New("pg down")
	rec = httptest.NewRecorder()
	h.HandleHistory(rec, authedRequest(http.MethodGet, "/v1/users/me/results", owner))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 20, results.lastLimit)
}

func TestHTTPHandler_Latest(t *testing.T) {
	owner := uuid.New()
	id := uuid.NewString()
	snaps := &memSnapshots{
		games:  map[string]*StoredGame{id: {OwnerID: owner, Snapshot: game.Snapshot{SessionID: id}}},
		latest: map[uuid.UUID]string{owner: id},
	}
	h := NewHTTPHandler(snaps, &memResults{}, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.HandleLatest(rec, authedRequest(http.MethodGet, "/v1/users/me/games/latest", owner))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), id)

	rec = httptest.NewRecorder()
	h.HandleLatest(rec, authedRequest(http.MethodGet, "/v1/users/me/games/latest", uuid.New()))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
