package question

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const defaultSourceTimeout = 4 * time.Second

// ServiceOptions tunes source access.
type ServiceOptions struct {
	SourceTimeout time.Duration
}

// Service draws questions from an ordered chain of sources: curated pool, embedded bank, then external APIs.
// Later sources only fill what earlier ones could not.
type Service struct {
	sources []Source
	used    UsedTracker
	timeout time.Duration
	logger  zerolog.Logger
}

func NewService(sources []Source, used UsedTracker, logger zerolog.Logger, opts ServiceOptions) *Service {
	timeout := opts.SourceTimeout
	if timeout <= 0 {
		timeout = defaultSourceTimeout
	}
	return &Service{
		sources: sources,
		used:    used,
		timeout: timeout,
		logger:  logger.With().Str("component", "question_service").Logger(),
	}
}

// PlayerProvider feeds one player's game engine.
type PlayerProvider struct {
	svc      *Service
	playerID string
}

// ForPlayer binds the service to a player so repeats across games are avoided.
func (s *Service) ForPlayer(playerID string) *PlayerProvider {
	return &PlayerProvider{svc: s, playerID: playerID}
}

func (p *PlayerProvider) GetQuestions(ctx context.Context, category, difficulty string, count int) ([]Question, error) {
	return p.svc.Fetch(ctx, p.playerID, category, difficulty, count)
}

// Fetch returns up to count unseen questions and marks them used. When the player has seen the
// whole pool the history is reset and the pool recycled.
func (s *Service) Fetch(ctx context.Context, playerID, category, difficulty string, count int) ([]Question, error) {
	if count <= 0 {
		return nil, nil
	}

	var exclude []string
	if s.used != nil && playerID != "" {
		ids, err := s.used.Used(ctx, playerID)
		if err != nil {
			s.logger.Warn().Err(err).Str("player_id", playerID).Msg("used question lookup failed")
		}
		exclude = ids
	}

	picked, errs := s.collect(ctx, category, difficulty, count, exclude)

	if len(picked) < count && len(exclude) > 0 {
		s.logger.Info().
			Str("player_id", playerID).
			Str("difficulty", difficulty).
			Int("seen", len(exclude)).
			Msg("question pool exhausted for player, recycling")
		if err := s.used.Reset(ctx, playerID); err != nil {
			s.logger.Warn().Err(err).Msg("reset used questions failed")
		}
		more, moreErrs := s.collect(ctx, category, difficulty, count-len(picked), idsOf(picked))
		picked = append(picked, more...)
		errs = append(errs, moreErrs...)
	}

	if len(picked) == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("fetch %s questions: %w", difficulty, errors.Join(errs...))
	}

	if s.used != nil && playerID != "" && len(picked) > 0 {
		if err := s.used.MarkUsed(ctx, playerID, idsOf(picked)); err != nil {
			s.logger.Warn().Err(err).Str("player_id", playerID).Msg("mark used questions failed")
		}
	}
	return picked, nil
}

func (s *Service) collect(ctx context.Context, category, difficulty string, count int, exclude []string) ([]Question, []error) {
	skip := excludeSet(exclude)
	picked := make([]Question, 0, count)
	var errs []error

	for _, src := range s.sources {
		if len(picked) >= count {
			break
		}
		srcCtx, cancel := context.WithTimeout(ctx, s.timeout)
		batch, err := src.Fetch(srcCtx, category, difficulty, count-len(picked), keys(skip))
		cancel()
		if err != nil {
			s.logger.Warn().Err(err).Str("source", src.Name()).Str("difficulty", difficulty).Msg("question source failed")
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}
		for _, q := range batch {
			if len(picked) >= count {
				break
			}
			if skip[q.ID] || q.Difficulty != difficulty {
				continue
			}
			if err := q.Validate(); err != nil {
				s.logger.Warn().Err(err).Str("source", src.Name()).Msg("discarding invalid question")
				continue
			}
			skip[q.ID] = true
			picked = append(picked, q)
		}
	}
	return picked, errs
}

func idsOf(qs []Question) []string {
	ids := make([]string, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
	}
	return ids
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
