package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/AudricY/ai-mafia-sub000/internal/auth"
	"github.com/AudricY/ai-mafia-sub000/internal/sim"
	"github.com/AudricY/ai-mafia-sub000/internal/store"
)

// Simulator starts and stops game simulations.
type Simulator interface {
	Start(ctx context.Context, gameID string) error
	Stop(gameID string) bool
	Running(gameID string) bool
}

// CreateGameBody is the body for POST /api/games.
type CreateGameBody struct {
	Players []string               `json:"players"`
	Config  map[string]interface{} `json:"config,omitempty"`
}

// GameResponse is the body for GET /api/games/{game_id}.
type GameResponse struct {
	Game           *store.Game            `json:"game"`
	Players        []store.GamePlayer     `json:"players"`
	Running        bool                   `json:"running"`
	LatestSnapshot map[string]interface{} `json:"latest_snapshot,omitempty"`
}

// SpectateTokenResponse is the body for POST /api/games/{game_id}/spectate-token.
type SpectateTokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// GameHandler handles game-related HTTP requests.
type GameHandler struct {
	games       *store.GameStore
	events      *store.GameEventStore
	sims        Simulator
	tokenSecret []byte
}

// NewGameHandler creates a new GameHandler. tokenSecret signs spectate
// tokens; if empty the spectate-token endpoint refuses.
func NewGameHandler(games *store.GameStore, events *store.GameEventStore, sims Simulator, tokenSecret []byte) *GameHandler {
	return &GameHandler{games: games, events: events, sims: sims, tokenSecret: tokenSecret}
}

// CreateGame handles POST /api/games.
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var body CreateGameBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(body.Players) == 0 {
		http.Error(w, "players is required", http.StatusBadRequest)
		return
	}

	resp, err := h.games.CreateGame(r.Context(), store.CreateGameRequest{
		Players: body.Players,
		Config:  body.Config,
	})
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID(r)).Msg("create game")
		http.Error(w, "failed to create game", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// GetGame handles GET /api/games/{game_id}.
func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "game_id")

	game, err := h.games.GetGame(r.Context(), gameID)
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID(r)).Msg("get game")
		http.Error(w, "failed to load game", http.StatusInternalServerError)
		return
	}
	if game == nil {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}

	players, err := h.games.GetGamePlayers(r.Context(), gameID)
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID(r)).Msg("get game players")
		http.Error(w, "failed to load game", http.StatusInternalServerError)
		return
	}
	snapshot, err := h.games.GetLatestSnapshot(r.Context(), gameID)
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID(r)).Msg("get latest snapshot")
		http.Error(w, "failed to load game", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, GameResponse{
		Game:           game,
		Players:        players,
		Running:        h.sims.Running(gameID),
		LatestSnapshot: snapshot,
	})
}

// StartGame handles POST /api/games/{game_id}/start.
func (h *GameHandler) StartGame(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "game_id")

	err := h.sims.Start(r.Context(), gameID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "running"})
	case errors.Is(err, sim.ErrGameNotFound):
		http.Error(w, "game not found", http.StatusNotFound)
	case errors.Is(err, sim.ErrGameNotStartable), errors.Is(err, sim.ErrAlreadyRunning):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		log.Error().Err(err).Str("request_id", requestID(r)).Msg("start game")
		http.Error(w, "failed to start game", http.StatusInternalServerError)
	}
}

// StopGame handles POST /api/games/{game_id}/stop.
func (h *GameHandler) StopGame(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "game_id")
	if !h.sims.Stop(gameID) {
		http.Error(w, "no running simulation for game", http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "stopping"})
}

// ListEvents handles GET /api/games/{game_id}/events?after_seq=N.
func (h *GameHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "game_id")

	var afterSeq int64
	if raw := r.URL.Query().Get("after_seq"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			http.Error(w, "invalid after_seq", http.StatusBadRequest)
			return
		}
		afterSeq = parsed
	}

	game, err := h.games.GetGame(r.Context(), gameID)
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID(r)).Msg("get game for events")
		http.Error(w, "failed to load events", http.StatusInternalServerError)
		return
	}
	if game == nil {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}

	events, err := h.events.GetGameEvents(r.Context(), gameID, afterSeq)
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID(r)).Msg("list game events")
		http.Error(w, "failed to load events", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

// SpectateToken handles POST /api/games/{game_id}/spectate-token.
func (h *GameHandler) SpectateToken(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "game_id")
	if len(h.tokenSecret) == 0 {
		http.Error(w, "spectating is not configured", http.StatusServiceUnavailable)
		return
	}

	game, err := h.games.GetGame(r.Context(), gameID)
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID(r)).Msg("get game for token")
		http.Error(w, "failed to issue token", http.StatusInternalServerError)
		return
	}
	if game == nil {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}

	token, expiresAt, err := auth.GenerateToken(gameID, h.tokenSecret, auth.DefaultTokenExpiry)
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID(r)).Msg("generate spectate token")
		http.Error(w, "failed to issue token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, SpectateTokenResponse{Token: token, ExpiresAt: expiresAt.Unix()})
}
