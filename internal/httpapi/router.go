// Package httpapi exposes the simulation service over HTTP: game
// creation and control for operators, event and snapshot reads plus the
// spectator WebSocket for everyone else.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/AudricY/ai-mafia-sub000/internal/httpapi/handler"
	"github.com/AudricY/ai-mafia-sub000/internal/ratelimit"
	"github.com/AudricY/ai-mafia-sub000/internal/store"
	"github.com/AudricY/ai-mafia-sub000/internal/websocket"
)

// RouterConfig carries the router's dependencies.
type RouterConfig struct {
	Games  *store.GameStore
	Events *store.GameEventStore
	Sims   handler.Simulator
	Hub    *websocket.Hub

	// TokenSecret signs spectate tokens. Empty disables spectating.
	TokenSecret []byte
	// AdminKeyHash is the bcrypt hash gating game creation and control.
	// Empty closes those endpoints.
	AdminKeyHash []byte
	// RateLimiter limits admin endpoints by IP; nil disables limiting.
	RateLimiter ratelimit.Limiter
}

// NewRouter builds the root HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	limiter := cfg.RateLimiter
	if limiter == nil {
		limiter = &ratelimit.Noop{}
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Admin-Key"},
		MaxAge:         300,
	}))

	r.Get("/healthz", handler.Healthz)

	gameHandler := handler.NewGameHandler(cfg.Games, cfg.Events, cfg.Sims, cfg.TokenSecret)
	wsHandler := websocket.NewWSHandler(cfg.Hub, cfg.Games.GetLatestSnapshot, cfg.TokenSecret)

	rateLimitByIP := RateLimitMiddleware(limiter, RateLimitKeyByIP)
	requireAdmin := RequireAdminKey(cfg.AdminKeyHash)

	r.Route("/api/games", func(r chi.Router) {
		r.Use(LimitRequestBody(DefaultMaxBodyBytes))

		r.With(rateLimitByIP, requireAdmin).Post("/", gameHandler.CreateGame)
		r.With(rateLimitByIP, requireAdmin).Post("/{game_id}/start", gameHandler.StartGame)
		r.With(rateLimitByIP, requireAdmin).Post("/{game_id}/stop", gameHandler.StopGame)

		r.Get("/{game_id}", gameHandler.GetGame)
		r.Get("/{game_id}/events", gameHandler.ListEvents)
		r.With(rateLimitByIP).Post("/{game_id}/spectate-token", gameHandler.SpectateToken)
	})

	r.Get("/ws/games/{game_id}", wsHandler.HandleSpectate)

	return r
}

// DefaultRateLimiter limits admin and token endpoints to 30 requests per
// minute per IP.
func DefaultRateLimiter() ratelimit.Limiter {
	return ratelimit.NewSlidingWindow(30, time.Minute)
}
