package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gokatarajesh/millionaire/internal/auth"
	"github.com/gokatarajesh/millionaire/internal/auth/jwt"
	"github.com/gokatarajesh/millionaire/internal/config"
	"github.com/gokatarajesh/millionaire/internal/db/queries"
	"github.com/gokatarajesh/millionaire/internal/db/repository"
	"github.com/gokatarajesh/millionaire/internal/game"
	"github.com/gokatarajesh/millionaire/internal/leaderboard"
	"github.com/gokatarajesh/millionaire/internal/logging"
	"github.com/gokatarajesh/millionaire/internal/metrics"
	"github.com/gokatarajesh/millionaire/internal/play"
	"github.com/gokatarajesh/millionaire/internal/question"
	"github.com/gokatarajesh/millionaire/internal/question/external"
	"github.com/gokatarajesh/millionaire/internal/server"
	ws "github.com/gokatarajesh/millionaire/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server, workers).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	lbBroadcaster  *leaderboard.Broadcaster
	snapshotWorker *leaderboard.SnapshotWorker
}

// New bootstraps logger, Postgres, Redis, the gameplay stack and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	rules, err := RulesFromConfig(cfg.Game)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, cfg.Postgres.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	q := queries.New(pool)
	userRepo := repository.NewUserRepository(q)
	questionRepo := repository.NewQuestionRepository(q)
	resultRepo := repository.NewResultRepository(q)

	authSvc := auth.NewService(userRepo, auth.ServiceOptions{
		TokenConfig: jwt.TokenConfig{
			AccessSecret:  []byte(cfg.Security.JWTSecret),
			RefreshSecret: []byte(cfg.Security.JWTRefreshSecret),
			AccessTTL:     cfg.Security.AccessTokenTTL,
			RefreshTTL:    cfg.Security.RefreshTokenTTL,
			Issuer:        cfg.Name,
		},
	}, logger)
	authHandlers := auth.NewHTTPHandlers(authSvc, logger)

	sources, err := questionSources(cfg.Questions, questionRepo, logger)
	if err != nil {
		return nil, err
	}
	questionSvc := question.NewService(
		sources,
		question.NewRedisUsedTracker(redisClient, cfg.Questions.UsedTTL),
		logger,
		question.ServiceOptions{SourceTimeout: cfg.Questions.SourceTimeout},
	)

	gameMetrics := metrics.NewGame(prometheus.DefaultRegisterer)
	leaderboardSvc := leaderboard.NewService(redisClient, logger, leaderboard.ServiceOptions{
		TopN:             cfg.Leaderboard.TopN,
		PubSubChannel:    cfg.Leaderboard.PubSubChannel,
		SnapshotTopLimit: cfg.Leaderboard.SnapshotTopN,
	})
	snapshots := play.NewSnapshotStore(redisClient, cfg.Game.SnapshotTTL, logger)
	recorder := play.NewRecorder(play.RecorderOptions{
		Results: resultRepo,
		Ranks:   leaderboardSvc,
		Metrics: gameMetrics,
		Timeout: cfg.Game.RecordTimeout,
	}, logger)

	wsHub := ws.NewHub(logger)
	gateway := play.NewGateway(authSvc, wsHub, play.GatewayOptions{
		Rules: rules,
		Providers: func(playerID string) game.QuestionProvider {
			return questionSvc.ForPlayer(playerID)
		},
		Recorder:       recorder,
		Snapshots:      snapshots,
		Metrics:        gameMetrics,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	}, logger)

	lbBroadcaster := leaderboard.NewBroadcaster(redisClient, wsHub, leaderboardSvc.Channel(), logger)
	var snapshotWorker *leaderboard.SnapshotWorker
	if interval := cfg.Leaderboard.SnapshotInterval; interval > 0 {
		snapshotWorker = leaderboard.NewSnapshotWorker(leaderboardSvc, q, interval, logger)
	}

	apiServer := server.NewHTTPServer(cfg, logger, server.Handlers{
		Auth:           authHandlers,
		AuthMiddleware: auth.Middleware(authSvc, logger),
		Gateway:        gateway,
		Games:          play.NewHTTPHandler(snapshots, resultRepo, logger),
		Leaderboard:    leaderboard.NewHTTPHandler(leaderboardSvc, q, logger),
		Gatherer:       prometheus.DefaultGatherer,
		Dependencies: map[string]server.Pinger{
			"postgres": pool.Ping,
			"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
	})

	return &Application{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		http:           apiServer,
		lbBroadcaster:  lbBroadcaster,
		snapshotWorker: snapshotWorker,
	}, nil
}

// RulesFromConfig applies deployment overrides to the default rule set.
func RulesFromConfig(cfg config.Game) (game.Rules, error) {
	rules := game.DefaultRules()
	rules.LossPolicy = cfg.LossPolicy
	rules.SkipEnabled = cfg.SkipEnabled
	if cfg.DefaultQuestions > 0 {
		rules.DefaultQuestions = cfg.DefaultQuestions
	}
	if cfg.PhoneConfidence > 0 {
		rules.PhoneConfidence = cfg.PhoneConfidence
	}
	if err := rules.Validate(); err != nil {
		return game.Rules{}, fmt.Errorf("game rules: %w", err)
	}
	return rules, nil
}

// questionSources orders the chain: curated pool, embedded bank, then the optional external APIs.
func questionSources(cfg config.Questions, repo *repository.QuestionRepository, logger zerolog.Logger) ([]question.Source, error) {
	bank, err := question.EmbeddedBank()
	if err != nil {
		return nil, fmt.Errorf("load embedded bank: %w", err)
	}
	sources := []question.Source{question.NewPoolSource(repo), bank}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	if cfg.OpenTDBEnabled {
		sources = append(sources, question.NewOpenTDBSource(external.NewOpenTDBClient("", httpClient), nil))
	}
	if cfg.TriviaAPIEnabled {
		sources = append(sources, question.NewTriviaAPISource(external.NewTriviaAPIClient("", cfg.TriviaAPIKey, httpClient), nil))
	}

	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name()
	}
	logger.Info().Strs("sources", names).Int("bank_size", bank.Len()).Msg("question sources ready")
	return sources, nil
}

// Run serves HTTP and the background workers until a signal or a fatal error, then shuts down.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info().Msg("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), a.cfg.GracefulShutdownTimeout)
		defer cancel()
		if err := a.http.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("http shutdown error")
		}
		return nil
	})

	if a.lbBroadcaster != nil {
		g.Go(func() error {
			if err := a.lbBroadcaster.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Warn().Err(err).Msg("leaderboard broadcaster stopped")
			}
			return nil
		})
	}

	if a.snapshotWorker != nil {
		g.Go(func() error {
			if err := a.snapshotWorker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Warn().Err(err).Msg("leaderboard snapshot worker stopped")
			}
			return nil
		})
	}

	err := g.Wait()

	a.pool.Close()
	if cerr := a.redis.Close(); cerr != nil {
		a.logger.Error().Err(cerr).Msg("redis shutdown error")
	}
	a.logger.Info().Msg("shutdown complete")
	return err
}
