package play

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/millionaire/internal/game"
	"github.com/gokatarajesh/millionaire/internal/metrics"
	httperrors "github.com/gokatarajesh/millionaire/pkg/http/errors"
	ws "github.com/gokatarajesh/millionaire/pkg/http/ws"
)

const storeTimeout = 2 * time.Second

type snapshotSink interface {
	Save(ctx context.Context, owner uuid.UUID, snap game.Snapshot) error
}

var _ snapshotSink = (*SnapshotStore)(nil)

// SessionDeps are shared by every connection.
type SessionDeps struct {
	Rules     game.Rules
	Provider  func(playerID string) game.QuestionProvider
	Recorder  *Recorder
	Snapshots snapshotSink
	Metrics   *metrics.Game
	NewTicker game.TickerFunc
	Logger    zerolog.Logger
}

// Session binds one connection to one game engine.
type Session struct {
	player    Player
	engine    *game.Engine
	send      func(ws.Message) error
	recorder  *Recorder
	snapshots snapshotSink
	metrics   *metrics.Game
	logger    zerolog.Logger

	mu       sync.Mutex
	lastRank int
}

// NewSession builds an idle session; send must be safe for concurrent use.
func NewSession(player Player, deps SessionDeps, send func(ws.Message) error) (*Session, error) {
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewGame(prometheus.NewRegistry())
	}
	s := &Session{
		player:    player,
		send:      send,
		recorder:  deps.Recorder,
		snapshots: deps.Snapshots,
		metrics:   deps.Metrics,
		logger:    deps.Logger.With().Str("component", "play_session").Str("user_id", player.UserID.String()).Logger(),
	}
	engine, err := game.NewEngine(game.EngineOptions{
		Rules:     deps.Rules,
		Provider:  deps.Provider(player.UserID.String()),
		Listener:  s.onEvent,
		NewTicker: deps.NewTicker,
		Logger:    s.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}
	s.engine = engine
	return s, nil
}

// Handle routes one client message. Rejections are reported to the client, not returned.
func (s *Session) Handle(ctx context.Context, msg ws.Message) error {
	switch msg.Type {
	case ws.TypeStartGame:
		return s.handleStart(ctx, msg)
	case ws.TypeSelectAnswer:
		return s.handleSelect(msg)
	case ws.TypeUseLifeline:
		return s.handleLifeline(msg)
	case ws.TypeNextQuestion:
		return s.handleNext(msg)
	case ws.TypeQuitGame:
		return s.handleQuit(msg)
	case ws.TypePing:
		return s.reply(ws.TypePong, msg.RequestID, nil)
	default:
		return s.send(ws.NewError(msg.RequestID, httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("Unknown message type: %s", msg.Type)))
	}
}

// Close abandons an active game as a quit so its score is still recorded.
func (s *Session) Close() {
	if s.engine.Status() != game.StatusActive {
		return
	}
	if _, err := s.engine.Quit(); err == nil {
		s.logger.Info().Msg("active game quit on disconnect")
	}
}

func (s *Session) handleStart(ctx context.Context, msg ws.Message) error {
	var req ws.StartGamePayload
	if !s.decode(msg, &req) {
		return nil
	}
	timer := true
	if req.TimerEnabled != nil {
		timer = *req.TimerEnabled
	}
	res, err := s.engine.Start(ctx, game.Options{
		Category:       req.Category,
		Difficulty:     req.Difficulty,
		TotalQuestions: req.TotalQuestions,
		DisableTimer:   !timer,
	})
	if err != nil {
		return s.fail(msg.RequestID, err)
	}

	s.metrics.GamesStarted.WithLabelValues(res.View.Difficulty).Inc()
	if res.Shortfall {
		s.metrics.Shortfalls.Inc()
	}
	return s.sendQuestion(msg.RequestID, res.View, res.Shortfall)
}

func (s *Session) handleSelect(msg ws.Message) error {
	var req ws.SelectAnswerPayload
	if !s.decode(msg, &req) {
		return nil
	}
	if req.Index == nil {
		return s.send(ws.NewError(msg.RequestID, httperrors.ErrCodeMissingField, "index is required"))
	}
	res, err := s.engine.SelectAnswer(*req.Index)
	if err != nil {
		return s.fail(msg.RequestID, err)
	}
	if err := s.reply(ws.TypeAnswerResult, msg.RequestID, res); err != nil {
		return err
	}
	if res.Final != nil {
		return s.sendGameOver(msg.RequestID, *res.Final)
	}
	return nil
}

func (s *Session) handleLifeline(msg ws.Message) error {
	var req ws.UseLifelinePayload
	if !s.decode(msg, &req) {
		return nil
	}
	lifeline, err := game.ParseLifeline(req.Lifeline)
	if err != nil {
		return s.fail(msg.RequestID, err)
	}
	res, err := s.engine.UseLifeline(lifeline)
	if err != nil {
		return s.fail(msg.RequestID, err)
	}
	if err := s.reply(ws.TypeLifelineResult, msg.RequestID, LifelineResultPayload{
		Lifeline:  res.Lifeline.String(),
		Remaining: res.Remaining,
		Result:    res.Payload,
	}); err != nil {
		return err
	}

	if outcome, ok := res.Payload.(game.SkipOutcome); ok {
		if outcome.Final != nil {
			return s.sendGameOver(msg.RequestID, *outcome.Final)
		}
		if outcome.Next != nil {
			return s.sendQuestion(msg.RequestID, *outcome.Next, false)
		}
	}
	return nil
}

func (s *Session) handleNext(msg ws.Message) error {
	res, err := s.engine.NextQuestion()
	if err != nil {
		return s.fail(msg.RequestID, err)
	}
	if res.Final != nil {
		return s.sendGameOver(msg.RequestID, *res.Final)
	}
	return s.sendQuestion(msg.RequestID, *res.View, false)
}

func (s *Session) handleQuit(msg ws.Message) error {
	final, err := s.engine.Quit()
	if err != nil {
		return s.fail(msg.RequestID, err)
	}
	return s.sendGameOver(msg.RequestID, final)
}

// onEvent runs after the engine lock is released, on the caller's goroutine or the timer's.
func (s *Session) onEvent(ev game.Event) {
	switch ev.Type {
	case game.EventTick:
		s.push(ws.TypeTick, ws.TickPayload{SessionID: ev.SessionID, TimeLeft: ev.TimeLeft})

	case game.EventAnswerRevealed:
		s.metrics.ObserveAnswer(ev.Answer.IsCorrect, ev.Answer.TimedOut)
		s.saveSnapshot()
		if ev.Answer.TimedOut {
			s.push(ws.TypeAnswerResult, ev.Answer)
		}

	case game.EventSafeHavenReached:
		s.push(ws.TypeSafeHaven, SafeHavenPayload{
			SessionID: ev.SessionID,
			Position:  ev.Position,
			Score:     s.engine.Snapshot().SafeFloor,
		})

	case game.EventLifelineUsed:
		s.metrics.LifelinesUsed.WithLabelValues(ev.Lifeline.Lifeline.String()).Inc()
		if ev.Lifeline.Lifeline == game.Skip {
			s.metrics.Answers.WithLabelValues(metrics.OutcomeSkipped).Inc()
		}

	case game.EventQuestionStarted:
		s.saveSnapshot()

	case game.EventGameFinished:
		s.saveSnapshot()
		rank := 0
		if s.recorder != nil {
			rank = s.recorder.Finish(context.Background(), s.player, *ev.Final)
		}
		s.mu.Lock()
		s.lastRank = rank
		s.mu.Unlock()
		if ev.Final.Reason == game.EndTimeUp {
			s.push(ws.TypeGameOver, GameOverPayload{FinalResult: *ev.Final, LeaderboardPosition: rank})
		}
	}
}

func (s *Session) saveSnapshot() {
	if s.snapshots == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := s.snapshots.Save(ctx, s.player.UserID, s.engine.Snapshot()); err != nil {
		s.logger.Warn().Err(err).Msg("save snapshot failed")
	}
}

func (s *Session) sendQuestion(requestID string, view game.QuestionView, shortfall bool) error {
	snap := s.engine.Snapshot()
	return s.reply(ws.TypeQuestion, requestID, QuestionPayload{
		Question:      view,
		Shortfall:     shortfall,
		LifelinesLeft: snap.LifelinesLeft,
		LifelinesUsed: snap.LifelinesUsed,
		TimerEnabled:  snap.TimerEnabled,
	})
}

func (s *Session) sendGameOver(requestID string, final game.FinalResult) error {
	s.mu.Lock()
	rank := s.lastRank
	s.mu.Unlock()
	return s.reply(ws.TypeGameOver, requestID, GameOverPayload{FinalResult: final, LeaderboardPosition: rank})
}

func (s *Session) reply(msgType, requestID string, payload any) error {
	msg, err := ws.NewMessage(msgType, requestID, payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msgType, err)
	}
	return s.send(msg)
}

func (s *Session) push(msgType string, payload any) {
	if err := s.reply(msgType, "", payload); err != nil {
		s.logger.Debug().Err(err).Str("type", msgType).Msg("push failed")
	}
}

func (s *Session) decode(msg ws.Message, dst any) bool {
	if len(msg.Payload) == 0 || string(msg.Payload) == "null" {
		return true
	}
	if err := json.Unmarshal(msg.Payload, dst); err != nil {
		_ = s.send(ws.NewError(msg.RequestID, httperrors.ErrCodeInvalidPayload, fmt.Sprintf("Invalid %s payload", msg.Type)))
		return false
	}
	return true
}

// fail reports engine rejections with their own code; anything else is an internal error.
func (s *Session) fail(requestID string, err error) error {
	var gameErr *game.Error
	if errors.As(err, &gameErr) {
		return s.send(ws.NewError(requestID, gameErr.Code, gameErr.Message))
	}
	s.logger.Error().Err(err).Msg("request failed")
	return s.send(ws.NewError(requestID, httperrors.ErrCodeInternalError, "Internal error"))
}
