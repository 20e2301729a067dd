package play

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/millionaire/internal/db/queries"
	"github.com/gokatarajesh/millionaire/internal/db/repository"
	"github.com/gokatarajesh/millionaire/internal/game"
	"github.com/gokatarajesh/millionaire/internal/leaderboard"
	"github.com/gokatarajesh/millionaire/internal/metrics"
)

type resultSink interface {
	Record(ctx context.Context, params queries.InsertGameResultParams) error
}

type rankSink interface {
	RecordResult(ctx context.Context, req leaderboard.RecordRequest) error
	Rank(ctx context.Context, window string, userID uuid.UUID) (int, error)
}

var (
	_ resultSink = (*repository.ResultRepository)(nil)
	_ rankSink   = (*leaderboard.Service)(nil)
)

// Player identifies the owner of a connection.
type Player struct {
	UserID      uuid.UUID
	DisplayName string
	IsGuest     bool
}

// Recorder writes a finished game to history, the leaderboard and metrics.
// Every sink is optional; failures are logged and counted, never surfaced to the player.
type Recorder struct {
	results resultSink
	ranks   rankSink
	metrics *metrics.Game
	timeout time.Duration
	logger  zerolog.Logger
}

// RecorderOptions configures a Recorder.
type RecorderOptions struct {
	Results resultSink
	Ranks   rankSink
	Metrics *metrics.Game
	Timeout time.Duration
}

func NewRecorder(opts RecorderOptions, logger zerolog.Logger) *Recorder {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Recorder{
		results: opts.Results,
		ranks:   opts.Ranks,
		metrics: opts.Metrics,
		timeout: timeout,
		logger:  logger.With().Str("component", "result_recorder").Logger(),
	}
}

// Finish records final and returns the player's all-time rank (0 when unknown).
func (r *Recorder) Finish(ctx context.Context, player Player, final game.FinalResult) int {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	log := r.logger.With().Str("session_id", final.SessionID).Str("user_id", player.UserID.String()).Logger()
	if r.metrics != nil {
		r.metrics.ObserveFinish(final.Difficulty, final.Reason, final.Score, final.TotalTimeSeconds)
	}

	if r.results != nil {
		if err := r.results.Record(ctx, resultParams(player.UserID, final)); err != nil {
			log.Error().Err(err).Msg("persist game result failed")
			r.countError("postgres")
		}
	}

	rank := 0
	if r.ranks != nil {
		req := leaderboard.RequestFromFinal(player.UserID, player.DisplayName, final)
		if err := r.ranks.RecordResult(ctx, req); err != nil {
			log.Error().Err(err).Msg("record leaderboard result failed")
			r.countError("leaderboard")
			return 0
		}
		var err error
		if rank, err = r.ranks.Rank(ctx, leaderboard.WindowAllTime, player.UserID); err != nil {
			log.Warn().Err(err).Msg("leaderboard rank lookup failed")
		}
	}
	return rank
}

func (r *Recorder) countError(sink string) {
	if r.metrics != nil {
		r.metrics.PersistErrors.WithLabelValues(sink).Inc()
	}
}

func resultParams(userID uuid.UUID, final game.FinalResult) queries.InsertGameResultParams {
	sessionID, _ := uuid.Parse(final.SessionID)
	return queries.InsertGameResultParams{
		SessionID:        pgtype.UUID{Bytes: sessionID, Valid: true},
		UserID:           pgtype.UUID{Bytes: userID, Valid: true},
		Category:         final.Category,
		Difficulty:       final.Difficulty,
		Score:            int32(final.Score),
		CorrectCount:     int32(final.CorrectCount),
		AnsweredCount:    int32(final.AnsweredCount),
		TotalQuestions:   int32(final.TotalQuestions),
		AccuracyPercent:  int32(final.AccuracyPercent),
		IsWin:            final.IsWin,
		EndReason:        final.Reason,
		LifelinesUsed:    append([]string(nil), final.LifelinesUsed...),
		TotalTimeSeconds: int32(final.TotalTimeSeconds),
		StartedAt:        pgtype.Timestamptz{Time: final.StartedAt, Valid: true},
		EndedAt:          pgtype.Timestamptz{Time: final.EndedAt, Valid: true},
	}
}
