package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/AudricY/ai-mafia-sub000/internal/agent"
	"github.com/AudricY/ai-mafia-sub000/internal/database"
	"github.com/AudricY/ai-mafia-sub000/internal/games"
	"github.com/AudricY/ai-mafia-sub000/internal/httpapi"
	"github.com/AudricY/ai-mafia-sub000/internal/openrouter"
	"github.com/AudricY/ai-mafia-sub000/internal/sim"
	"github.com/AudricY/ai-mafia-sub000/internal/store"
	"github.com/AudricY/ai-mafia-sub000/internal/websocket"
)

func main() {
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if getenv("LOG_PRETTY", "") != "" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	addr := getenv("MAFIA_HTTP_ADDR", ":8080")
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal().Msg("DATABASE_URL environment variable is required")
	}
	migrationsDir := getenv("MIGRATIONS_DIR", "migrations")

	ctx := context.Background()
	dbPool, err := database.Connect(ctx, databaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connect")
	}
	defer dbPool.Close()
	log.Info().Msg("connected to database")

	if err := database.Migrate(ctx, dbPool, migrationsDir); err != nil {
		log.Fatal().Err(err).Msg("database migrate")
	}
	log.Info().Msg("migrations up to date")

	tokenSecret := []byte(os.Getenv("SPECTATE_TOKEN_SECRET"))
	if len(tokenSecret) == 0 {
		tokenSecret = []byte("dev-secret-change-in-production")
	}

	// Admin endpoints stay closed unless a key is configured.
	var adminKeyHash []byte
	if adminKey := os.Getenv("ADMIN_KEY"); adminKey != "" {
		adminKeyHash, err = bcrypt.GenerateFromPassword([]byte(adminKey), bcrypt.DefaultCost)
		if err != nil {
			log.Fatal().Err(err).Msg("hash admin key")
		}
	} else {
		log.Warn().Msg("ADMIN_KEY not set; game creation and control endpoints are disabled")
	}

	gameStore := store.NewGameStore(dbPool)
	eventStore := store.NewGameEventStore(dbPool)

	hub := websocket.NewHub(log.Logger)
	go hub.Run()

	agents := buildAgents()
	sims := sim.NewService(gameStore, eventStore, hub, agents, log.Logger)

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Games:        gameStore,
		Events:       eventStore,
		Sims:         sims,
		Hub:          hub,
		TokenSecret:  tokenSecret,
		AdminKeyHash: adminKeyHash,
		RateLimiter:  httpapi.DefaultRateLimiter(),
	})

	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("mafia simulation server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// buildAgents wires the agent boundary: OpenRouter-backed when an API
// key is configured, the seeded policy agent otherwise. Either way the
// Safe wrapper bounds every call.
func buildAgents() games.Decider {
	timeout := 30 * time.Second
	if raw := os.Getenv("AGENT_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			timeout = d
		}
	}

	var inner agent.Agent
	if apiKey := os.Getenv("OPENROUTER_API_KEY"); apiKey != "" {
		model := getenv("OPENROUTER_MODEL", "openai/gpt-4o-mini")
		inner = agent.NewLLM(openrouter.NewClient(apiKey), model)
		log.Info().Str("model", model).Msg("using OpenRouter agents")
	} else {
		seed := time.Now().UnixNano()
		inner = agent.NewRandom(seed)
		log.Warn().Int64("seed", seed).Msg("OPENROUTER_API_KEY not set; using seeded policy agents")
	}
	return agent.NewSafe(inner, timeout, log.Logger)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
