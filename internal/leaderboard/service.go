package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/millionaire/internal/game"
	ws "github.com/gokatarajesh/millionaire/pkg/http/ws"
)

// Supported leaderboard windows.
const (
	WindowDaily   = "daily"
	WindowWeekly  = "weekly"
	WindowMonthly = "monthly"
	WindowAllTime = "all_time"
)

var defaultWindows = []string{WindowDaily, WindowWeekly, WindowMonthly, WindowAllTime}

var ErrUnknownWindow = errors.New("unknown leaderboard window")

// Entry represents a leaderboard record sent to clients.
type Entry struct {
	UserID        uuid.UUID `json:"user_id"`
	DisplayName   string    `json:"display_name"`
	Score         int       `json:"score"`
	BestScore     int       `json:"best_score"`
	Wins          int       `json:"wins"`
	Games         int       `json:"games"`
	Accuracy      float64   `json:"accuracy"`
	CorrectTotal  int       `json:"-"`
	AnsweredTotal int       `json:"-"`
}

// RecordRequest captures one finished game.
type RecordRequest struct {
	UserID        uuid.UUID
	DisplayName   string
	GameID        string
	Score         int
	CorrectCount  int
	AnsweredCount int
	Won           bool
}

// RequestFromFinal maps a finished session onto a RecordRequest.
func RequestFromFinal(userID uuid.UUID, displayName string, final game.FinalResult) RecordRequest {
	return RecordRequest{
		UserID:        userID,
		DisplayName:   displayName,
		GameID:        final.SessionID,
		Score:         final.Score,
		CorrectCount:  final.CorrectCount,
		AnsweredCount: final.AnsweredCount,
		Won:           final.IsWin,
	}
}

// ServiceOptions configures leaderboard service behavior.
type ServiceOptions struct {
	TopN             int
	PubSubChannel    string
	Windows          []string
	RedisKeyPrefix   string
	SnapshotTopLimit int
	Now              func() time.Time
}

// Service keeps per-window sorted sets of accumulated winnings in Redis and publishes updates.
type Service struct {
	redis          *redis.Client
	logger         zerolog.Logger
	topN           int
	pubsubChannel  string
	windows        []string
	prefix         string
	snapshotTopLim int
	now            func() time.Time
}

// NewService constructs a leaderboard service instance.
func NewService(redis *redis.Client, logger zerolog.Logger, opts ServiceOptions) *Service {
	topN := opts.TopN
	if topN <= 0 {
		topN = 50
	}
	channel := opts.PubSubChannel
	if channel == "" {
		channel = "lb:updates"
	}
	windows := opts.Windows
	if len(windows) == 0 {
		windows = defaultWindows
	}
	prefix := opts.RedisKeyPrefix
	if prefix == "" {
		prefix = "lb"
	}
	snapTop := opts.SnapshotTopLimit
	if snapTop <= 0 {
		snapTop = 100
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		redis:          redis,
		logger:         logger.With().Str("component", "leaderboard").Logger(),
		topN:           topN,
		pubsubChannel:  channel,
		windows:        windows,
		prefix:         prefix,
		snapshotTopLim: snapTop,
		now:            now,
	}
}

// Windows lists the windows this service maintains.
func (s *Service) Windows() []string { return append([]string(nil), s.windows...) }

// Channel is the Pub/Sub channel updates are published on.
func (s *Service) Channel() string { return s.pubsubChannel }

// ValidWindow reports whether window is maintained by this service.
func (s *Service) ValidWindow(window string) bool {
	for _, w := range s.windows {
		if w == window {
			return true
		}
	}
	return false
}

// RecordResult adds a finished game to every window and publishes the refreshed top entries.
func (s *Service) RecordResult(ctx context.Context, req RecordRequest) error {
	if req.UserID == uuid.Nil {
		return fmt.Errorf("record result: missing user id")
	}
	now := s.now().UTC()
	for _, window := range s.windows {
		if err := s.updateWindow(ctx, window, now, req); err != nil {
			return err
		}
	}
	s.publishUpdate(ctx, req.GameID)
	return nil
}

// Top retrieves the top entries for the current period of a window.
func (s *Service) Top(ctx context.Context, window string, limit int) ([]Entry, error) {
	if !s.ValidWindow(window) {
		return nil, ErrUnknownWindow
	}
	if limit <= 0 || limit > s.topN {
		limit = s.topN
	}

	key := s.periodKey(window, s.now().UTC())
	results, err := s.redis.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}

	entries := make([]Entry, 0, len(results))
	for _, z := range results {
		member, _ := z.Member.(string)
		userID, err := uuid.Parse(member)
		if err != nil {
			continue
		}
		entry, err := s.readMeta(ctx, key, userID)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to read leaderboard metadata")
			continue
		}
		entry.Score = int(z.Score)
		entries = append(entries, *entry)
	}
	return entries, nil
}

// Rank returns the 1-based position of a user in a window, or 0 when unranked.
func (s *Service) Rank(ctx context.Context, window string, userID uuid.UUID) (int, error) {
	if !s.ValidWindow(window) {
		return 0, ErrUnknownWindow
	}
	rank, err := s.redis.ZRevRank(ctx, s.periodKey(window, s.now().UTC()), userID.String()).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("fetch rank: %w", err)
	}
	return int(rank) + 1, nil
}

// SnapshotTop returns the configured snapshot size for persistence jobs.
func (s *Service) SnapshotTop(ctx context.Context, window string) ([]Entry, error) {
	return s.Top(ctx, window, s.snapshotTopLim)
}

func (s *Service) updateWindow(ctx context.Context, window string, now time.Time, req RecordRequest) error {
	key := s.periodKey(window, now)
	metaKey := s.metaKey(key, req.UserID)

	pipe := s.redis.TxPipeline()
	pipe.ZIncrBy(ctx, key, float64(req.Score), req.UserID.String())
	pipe.HIncrBy(ctx, metaKey, "wins", int64(boolToInt(req.Won)))
	pipe.HIncrBy(ctx, metaKey, "games", 1)
	pipe.HIncrBy(ctx, metaKey, "correct", int64(req.CorrectCount))
	pipe.HIncrBy(ctx, metaKey, "answered", int64(req.AnsweredCount))
	pipe.HSet(ctx, metaKey, "display_name", req.DisplayName)
	if ttl := windowTTL(window); ttl > 0 {
		pipe.Expire(ctx, key, ttl)
		pipe.Expire(ctx, metaKey, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update leaderboard window %s: %w", window, err)
	}

	// best is read-then-written; a user only has one live session.
	best := parseInt(s.redis.HGet(ctx, metaKey, "best").Val())
	if req.Score > best {
		if err := s.redis.HSet(ctx, metaKey, "best", req.Score).Err(); err != nil {
			return fmt.Errorf("update best score: %w", err)
		}
	}
	return nil
}

func (s *Service) publishUpdate(ctx context.Context, gameID string) {
	for _, window := range s.windows {
		entries, err := s.Top(ctx, window, 10)
		if err != nil {
			s.logger.Warn().Err(err).Str("window", window).Msg("failed to collect leaderboard update")
			continue
		}
		if len(entries) == 0 {
			continue
		}
		data, err := json.Marshal(ws.LeaderboardUpdatePayload{
			Window: window,
			GameID: gameID,
			Top:    toWSEntries(entries),
		})
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to marshal leaderboard update")
			continue
		}
		if err := s.redis.Publish(ctx, s.pubsubChannel, data).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish leaderboard update")
		}
	}
}

func (s *Service) readMeta(ctx context.Context, key string, userID uuid.UUID) (*Entry, error) {
	data, err := s.redis.HGetAll(ctx, s.metaKey(key, userID)).Result()
	if err != nil {
		return nil, err
	}
	entry := &Entry{UserID: userID}
	if len(data) == 0 {
		return entry, nil
	}
	entry.DisplayName = data["display_name"]
	entry.BestScore = parseInt(data["best"])
	entry.Wins = parseInt(data["wins"])
	entry.Games = parseInt(data["games"])
	entry.CorrectTotal = parseInt(data["correct"])
	entry.AnsweredTotal = parseInt(data["answered"])
	if entry.AnsweredTotal > 0 {
		entry.Accuracy = float64(entry.CorrectTotal) / float64(entry.AnsweredTotal)
	}
	return entry, nil
}

// periodKey buckets rolling windows by calendar period (UTC), e.g. lb:weekly:2025-W09.
func (s *Service) periodKey(window string, now time.Time) string {
	switch window {
	case WindowDaily:
		return fmt.Sprintf("%s:%s:%s", s.prefix, window, now.Format("2006-01-02"))
	case WindowWeekly:
		year, week := now.ISOWeek()
		return fmt.Sprintf("%s:%s:%d-W%02d", s.prefix, window, year, week)
	case WindowMonthly:
		return fmt.Sprintf("%s:%s:%s", s.prefix, window, now.Format("2006-01"))
	default:
		return fmt.Sprintf("%s:%s", s.prefix, window)
	}
}

func (s *Service) metaKey(periodKey string, userID uuid.UUID) string {
	return fmt.Sprintf("%s:meta:%s", periodKey, userID.String())
}

// windowTTL keeps a finished period readable for one more period before Redis drops it.
func windowTTL(window string) time.Duration {
	switch window {
	case WindowDaily:
		return 48 * time.Hour
	case WindowWeekly:
		return 14 * 24 * time.Hour
	case WindowMonthly:
		return 62 * 24 * time.Hour
	default:
		return 0
	}
}

func toWSEntries(entries []Entry) []ws.LeaderboardEntry {
	result := make([]ws.LeaderboardEntry, len(entries))
	for i, e := range entries {
		result[i] = ws.LeaderboardEntry{
			Rank:        i + 1,
			UserID:      e.UserID.String(),
			DisplayName: e.DisplayName,
			Score:       e.Score,
			Wins:        e.Wins,
			Games:       e.Games,
			Accuracy:    e.Accuracy,
		}
	}
	return result
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func parseInt(val string) int {
	if val == "" {
		return 0
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return i
}
