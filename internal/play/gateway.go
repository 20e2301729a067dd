package play

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/millionaire/internal/auth"
	"github.com/gokatarajesh/millionaire/internal/auth/jwt"
	"github.com/gokatarajesh/millionaire/internal/game"
	"github.com/gokatarajesh/millionaire/internal/metrics"
	httperrors "github.com/gokatarajesh/millionaire/pkg/http/errors"
	ws "github.com/gokatarajesh/millionaire/pkg/http/ws"
)

type tokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

var _ tokenValidator = (*auth.Service)(nil)

// GatewayOptions wires the gameplay WebSocket endpoint.
type GatewayOptions struct {
	Rules          game.Rules
	Providers      func(playerID string) game.QuestionProvider
	Recorder       *Recorder
	Snapshots      *SnapshotStore
	Metrics        *metrics.Game
	NewTicker      game.TickerFunc
	AllowedOrigins []string
}

// Gateway upgrades authenticated players and gives each connection its own game session.
type Gateway struct {
	tokens   tokenValidator
	hub      *ws.Hub
	deps     SessionDeps
	metrics  *metrics.Game
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

func NewGateway(tokens tokenValidator, hub *ws.Hub, opts GatewayOptions, logger zerolog.Logger) *Gateway {
	logger = logger.With().Str("component", "play_gateway").Logger()
	deps := SessionDeps{
		Rules:     opts.Rules,
		Provider:  opts.Providers,
		Recorder:  opts.Recorder,
		Metrics:   opts.Metrics,
		NewTicker: opts.NewTicker,
		Logger:    logger,
	}
	if opts.Snapshots != nil {
		deps.Snapshots = opts.Snapshots
	}
	return &Gateway{
		tokens:  tokens,
		hub:     hub,
		deps:    deps,
		metrics: opts.Metrics,
		upgrader: websocket.Upgrader{
			CheckOrigin:     originChecker(opts.AllowedOrigins),
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
	}
}

// HandleWebSocket authenticates via ?token= (or a bearer header) and upgrades the connection.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := auth.TokenFromRequest(r)
	if token == "" {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Missing token")
		return
	}
	claims, err := g.tokens.ValidateToken(token)
	if err != nil {
		g.logger.Warn().Err(err).Msg("websocket token validation failed")
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid token")
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	g.serve(conn, Player{UserID: claims.UserID, DisplayName: claims.DisplayName, IsGuest: claims.IsGuest})
}

func (g *Gateway) serve(conn *websocket.Conn, player Player) {
	log := g.logger.With().Str("user_id", player.UserID.String()).Logger()
	wsConn := ws.NewConnection(conn, log)

	session, err := NewSession(player, g.deps, wsConn.Send)
	if err != nil {
		log.Error().Err(err).Msg("create game session failed")
		_ = wsConn.Send(ws.NewError("", httperrors.ErrCodeInternalError, "Game unavailable"))
		wsConn.Close()
		wsConn.WritePump()
		return
	}

	g.hub.RegisterConnection(player.UserID, wsConn)
	if g.metrics != nil {
		g.metrics.ActiveSessions.Inc()
	}
	log.Info().Bool("guest", player.IsGuest).Msg("player connected")

	go wsConn.WritePump()

	ctx, cancel := context.WithCancel(context.Background())
	wsConn.ReadPump(func(msg ws.Message) error {
		return session.Handle(ctx, msg)
	})
	cancel()

	session.Close()
	g.hub.UnregisterConnection(player.UserID, wsConn)
	if g.metrics != nil {
		g.metrics.ActiveSessions.Dec()
	}
	log.Info().Msg("player disconnected")
}

// originChecker allows same-origin requests, requests without an Origin header and the configured origins.
// A "*" entry allows everything.
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(strings.ToLower(o), "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || set["*"] {
			return true
		}
		if set[strings.ToLower(origin)] {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, r.Host)
	}
}
