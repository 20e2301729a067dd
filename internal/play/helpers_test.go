package play

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/millionaire/internal/db/queries"
	"github.com/gokatarajesh/millionaire/internal/game"
	"github.com/gokatarajesh/millionaire/internal/leaderboard"
	"github.com/gokatarajesh/millionaire/internal/metrics"
	"github.com/gokatarajesh/millionaire/internal/question"
	ws "github.com/gokatarajesh/millionaire/pkg/http/ws"
)

type stubProvider struct {
	byTier map[string][]question.Question
}

func (p *stubProvider) GetQuestions(_ context.Context, _ string, difficulty string, _ int) ([]question.Question, error) {
	return p.byTier[difficulty], nil
}

func makeQuestion(id, difficulty string, correct int) question.Question {
	return question.Question{
		ID:           id,
		Prompt:       "سؤال " + id,
		Options:      []string{"أ", "ب", "ج", "د"},
		CorrectIndex: correct,
		Category:     "general",
		Difficulty:   difficulty,
	}
}

// twoQuestions serves q1 (answer 2) then q2 (answer 0).
func twoQuestions() *stubProvider {
	return &stubProvider{byTier: map[string][]question.Question{
		game.DifficultyEasy: {makeQuestion("q1", game.DifficultyEasy, 2), makeQuestion("q2", game.DifficultyEasy, 0)},
	}}
}

type manualTicker struct {
	ch chan time.Time
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }
func (t *manualTicker) Stop()               {}

func (t *manualTicker) fire() bool {
	select {
	case t.ch <- time.Now():
		return true
	case <-time.After(200 * time.Millisecond):
		return false
	}
}

type manualTickers struct {
	mu  sync.Mutex
	all []*manualTicker
}

func (m *manualTickers) New(time.Duration) game.Ticker {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTicker{ch: make(chan time.Time)}
	m.all = append(m.all, t)
	return t
}

func (m *manualTickers) last() *manualTicker {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.all) == 0 {
		return nil
	}
	return m.all[len(m.all)-1]
}

// outbox captures everything a session sends.
type outbox struct {
	mu   sync.Mutex
	msgs []ws.Message
}

func (o *outbox) send(msg ws.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, msg)
	return nil
}

func (o *outbox) all() []ws.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]ws.Message(nil), o.msgs...)
}

func (o *outbox) types() []string {
	var out []string
	for _, m := range o.all() {
		out = append(out, m.Type)
	}
	return out
}

func (o *outbox) lastOf(msgType string) (ws.Message, bool) {
	msgs := o.all()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == msgType {
			return msgs[i], true
		}
	}
	return ws.Message{}, false
}

type fakeResultSink struct {
	mu      sync.Mutex
	records []queries.InsertGameResultParams
	err     error
}

func (f *fakeResultSink) Record(_ context.Context, params queries.InsertGameResultParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, params)
	return nil
}

func (f *fakeResultSink) all() []queries.InsertGameResultParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]queries.InsertGameResultParams(nil), f.records...)
}

type fakeRanks struct {
	mu       sync.Mutex
	requests []leaderboard.RecordRequest
	rank     int
	err      error
}

func (f *fakeRanks) RecordResult(_ context.Context, req leaderboard.RecordRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.requests = append(f.requests, req)
	return nil
}

func (f *fakeRanks) Rank(context.Context, string, uuid.UUID) (int, error) {
	return f.rank, nil
}

func (f *fakeRanks) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakeSnapshots struct {
	mu    sync.Mutex
	saved []game.Snapshot
}

func (f *fakeSnapshots) Save(_ context.Context, _ uuid.UUID, snap game.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, snap)
	return nil
}

func (f *fakeSnapshots) last() game.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saved[len(f.saved)-1]
}

type sessionEnv struct {
	session   *Session
	out       *outbox
	tickers   *manualTickers
	ranks     *fakeRanks
	results   *fakeResultSink
	snapshots *fakeSnapshots
	metrics   *metrics.Game
	player    Player
}

func newSessionEnv(t *testing.T, rules game.Rules, provider game.QuestionProvider) *sessionEnv {
	t.Helper()
	env := &sessionEnv{
		out:       &outbox{},
		tickers:   &manualTickers{},
		ranks:     &fakeRanks{rank: 7},
		results:   &fakeResultSink{},
		snapshots: &fakeSnapshots{},
		metrics:   metrics.NewGame(prometheus.NewRegistry()),
		player:    Player{UserID: uuid.New(), DisplayName: "لاعب"},
	}
	recorder := NewRecorder(RecorderOptions{
		Results: env.results,
		Ranks:   env.ranks,
		Metrics: env.metrics,
	}, zerolog.Nop())

	session, err := NewSession(env.player, SessionDeps{
		Rules:     rules,
		Provider:  func(string) game.QuestionProvider { return provider },
		Recorder:  recorder,
		Snapshots: env.snapshots,
		Metrics:   env.metrics,
		NewTicker: env.tickers.New,
		Logger:    zerolog.Nop(),
	}, env.out.send)
	require.NoError(t, err)
	env.session = session
	return env
}

func (e *sessionEnv) handle(t *testing.T, msgType, requestID string, payload any) {
	t.Helper()
	msg := ws.Message{Type: msgType, RequestID: requestID}
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		msg.Payload = raw
	}
	require.NoError(t, e.session.Handle(context.Background(), msg))
}

func decodePayload[T any](t *testing.T, msg ws.Message) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(msg.Payload, &out))
	return out
}
