package play

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/millionaire/internal/auth/jwt"
	"github.com/gokatarajesh/millionaire/internal/game"
	"github.com/gokatarajesh/millionaire/internal/metrics"
	ws "github.com/gokatarajesh/millionaire/pkg/http/ws"
)

type staticTokens struct {
	claims map[string]*jwt.Claims
}

func (s staticTokens) ValidateToken(token string) (*jwt.Claims, error) {
	if c, ok := s.claims[token]; ok {
		return c, nil
	}
	return nil, jwt.ErrInvalidToken
}

func newTestGateway(t *testing.T) (*httptest.Server, *ws.Hub, *metrics.Game, uuid.UUID) {
	t.Helper()
	userID := uuid.New()
	tokens := staticTokens{claims: map[string]*jwt.Claims{
		"good": {UserID: userID, DisplayName: "ليلى"},
	}}
	hub := ws.NewHub(zerolog.Nop())
	m := metrics.NewGame(prometheus.NewRegistry())
	gw := NewGateway(tokens, hub, GatewayOptions{
		Rules:     game.DefaultRules(),
		Providers: func(string) game.QuestionProvider { return twoQuestions() },
		Recorder:  NewRecorder(RecorderOptions{Metrics: m}, zerolog.Nop()),
		Metrics:   m,
	}, zerolog.Nop())

	srv := httptest.NewServer(http.HandlerFunc(gw.HandleWebSocket))
	t.Cleanup(srv.Close)
	return srv, hub, m, userID
}

func TestGateway_RejectsMissingOrBadToken(t *testing.T) {
	srv, _, _, _ := newTestGateway(t)

	for _, target := range []string{srv.URL, srv.URL + "?token=bad"} {
		resp, err := http.Get(target)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestGateway_PlaysOverWebSocket(t *testing.T) {
	srv, hub, m, userID := newTestGateway(t)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=good"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return hub.Count() == 1 && testutil.ToFloat64(m.ActiveSessions) == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(ws.Message{
		Type:      ws.TypeStartGame,
		RequestID: "s1",
		Payload:   []byte(`{"difficulty":"easy","total_questions":2,"timer_enabled":false}`),
	}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg ws.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, ws.TypeQuestion, msg.Type)
	assert.Equal(t, "s1", msg.RequestID)
	q := decodePayload[QuestionPayload](t, msg)
	assert.Equal(t, "q1", q.Question.QuestionID)

	require.NoError(t, hub.SendToUser(userID, ws.Message{Type: ws.TypeLeaderboardUpdate, Success: true}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, ws.TypeLeaderboardUpdate, msg.Type)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Count() == 0 }, time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return testutil.ToFloat64(m.ActiveSessions) == 0 }, time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(m.GamesFinished.WithLabelValues(game.DifficultyEasy, game.EndQuit)) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://play.example.com/"})

	req := httptest.NewRequest(http.MethodGet, "http://api.example.com/ws/games", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://play.example.com")
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://api.example.com")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example.net")
	assert.False(t, check(req))

	assert.True(t, originChecker([]string{"*"})(req))
}

