package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "millionaire"

// Game holds gameplay collectors.
type Game struct {
	GamesStarted   *prometheus.CounterVec
	GamesFinished  *prometheus.CounterVec
	Answers        *prometheus.CounterVec
	LifelinesUsed  *prometheus.CounterVec
	Shortfalls     prometheus.Counter
	Score          prometheus.Histogram
	GameDuration   prometheus.Histogram
	ActiveSessions prometheus.Gauge
	PersistErrors  *prometheus.CounterVec
}

// NewGame registers gameplay collectors on reg. Pass prometheus.DefaultRegisterer in production.
func NewGame(reg prometheus.Registerer) *Game {
	f := promauto.With(reg)
	return &Game{
		GamesStarted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_started_total",
			Help:      "Game sessions started, by difficulty.",
		}, []string{"difficulty"}),
		GamesFinished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Game sessions finished, by difficulty and end reason.",
		}, []string{"difficulty", "reason"}),
		Answers: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Resolved questions, by outcome.",
		}, []string{"outcome"}),
		LifelinesUsed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lifelines_used_total",
			Help:      "Lifelines consumed, by kind.",
		}, []string{"lifeline"}),
		Shortfalls: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "question_shortfalls_total",
			Help:      "Sessions started with fewer questions than requested.",
		}),
		Score: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "game_score",
			Help:      "Final score of finished sessions.",
			Buckets:   []float64{0, 100, 1000, 4000, 32000, 125000, 500000, 1000000, 2000000},
		}),
		GameDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "game_duration_seconds",
			Help:      "Wall time from start to finish.",
			Buckets:   prometheus.ExponentialBuckets(15, 2, 8),
		}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Gameplay WebSocket connections currently open.",
		}),
		PersistErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "result_persist_errors_total",
			Help:      "Failures writing finished games, by sink.",
		}, []string{"sink"}),
	}
}

// Answer outcomes.
const (
	OutcomeCorrect = "correct"
	OutcomeWrong   = "wrong"
	OutcomeTimeout = "timeout"
	OutcomeSkipped = "skipped"
)

// ObserveAnswer counts one resolved question.
func (g *Game) ObserveAnswer(correct, timedOut bool) {
	switch {
	case timedOut:
		g.Answers.WithLabelValues(OutcomeTimeout).Inc()
	case correct:
		g.Answers.WithLabelValues(OutcomeCorrect).Inc()
	default:
		g.Answers.WithLabelValues(OutcomeWrong).Inc()
	}
}

// ObserveFinish records a finished session.
func (g *Game) ObserveFinish(difficulty, reason string, score int, durationSeconds int) {
	g.GamesFinished.WithLabelValues(difficulty, reason).Inc()
	g.Score.Observe(float64(score))
	g.GameDuration.Observe(float64(durationSeconds))
}
