package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"millionaire"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres    Postgres
	Redis       Redis
	Security    Security
	Game        Game
	Questions   Questions
	Leaderboard Leaderboard
	CORS        CORS
}

// Postgres captures connection info for the SQL database.
type Postgres struct {
	Host     string `env:"PG_HOST,notEmpty"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER,notEmpty"`
	Password string `env:"PG_PASSWORD,notEmpty"`
	Database string `env:"PG_DATABASE,notEmpty"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
	MaxConns int    `env:"PG_MAX_CONNS" envDefault:"10"`
}

// DSN renders a pgx connection string.
func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode, p.MaxConns)
}

// Redis holds cache, pub/sub and snapshot configuration.
type Redis struct {
	Addr     string `env:"REDIS_ADDR,notEmpty"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Security stores secrets for signing and auth.
type Security struct {
	JWTSecret        string        `env:"JWT_SECRET,notEmpty"`
	JWTRefreshSecret string        `env:"JWT_REFRESH_SECRET" envDefault:""`
	AccessTokenTTL   time.Duration `env:"JWT_ACCESS_TTL" envDefault:"1h"`
	RefreshTokenTTL  time.Duration `env:"JWT_REFRESH_TTL" envDefault:"168h"`
}

// Game tunes the session rules shared by every player.
type Game struct {
	LossPolicy       string        `env:"GAME_LOSS_POLICY" envDefault:"keep_score"`
	SkipEnabled      bool          `env:"GAME_SKIP_ENABLED" envDefault:"true"`
	DefaultQuestions int           `env:"GAME_DEFAULT_QUESTIONS" envDefault:"15"`
	PhoneConfidence  float64       `env:"GAME_PHONE_CONFIDENCE" envDefault:"0.75"`
	SnapshotTTL      time.Duration `env:"GAME_SNAPSHOT_TTL" envDefault:"24h"`
	RecordTimeout    time.Duration `env:"GAME_RECORD_TIMEOUT" envDefault:"5s"`
}

// Questions configures the question source chain.
type Questions struct {
	OpenTDBEnabled    bool          `env:"QUESTIONS_OPENTDB_ENABLED" envDefault:"false"`
	TriviaAPIEnabled  bool          `env:"QUESTIONS_TRIVIAAPI_ENABLED" envDefault:"false"`
	TriviaAPIKey      string        `env:"QUESTIONS_TRIVIAAPI_KEY" envDefault:""`
	SourceTimeout     time.Duration `env:"QUESTIONS_SOURCE_TIMEOUT" envDefault:"4s"`
	UsedTTL           time.Duration `env:"QUESTIONS_USED_TTL" envDefault:"168h"`
	HTTPTimeout       time.Duration `env:"QUESTIONS_HTTP_TIMEOUT" envDefault:"6s"`
}

// Leaderboard governs ranking, snapshotting and broadcast behavior.
type Leaderboard struct {
	TopN             int           `env:"LEADERBOARD_TOP_N" envDefault:"10"`
	PubSubChannel    string        `env:"LEADERBOARD_CHANNEL" envDefault:"leaderboard:updates"`
	SnapshotInterval time.Duration `env:"LEADERBOARD_SNAPSHOT_INTERVAL" envDefault:"5m"`
	SnapshotTopN     int           `env:"LEADERBOARD_SNAPSHOT_TOP" envDefault:"50"`
}

// CORS holds Cross-Origin Resource Sharing configuration.
type CORS struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *App) validate() error {
	switch c.Game.LossPolicy {
	case "keep_score", "safe_haven":
	default:
		return fmt.Errorf("GAME_LOSS_POLICY must be keep_score or safe_haven, got %q", c.Game.LossPolicy)
	}
	if c.Game.DefaultQuestions <= 0 {
		return fmt.Errorf("GAME_DEFAULT_QUESTIONS must be positive")
	}
	return nil
}
