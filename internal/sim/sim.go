// Package sim runs game simulations: it loads a created game from the
// store, drives the engine over the agent boundary, and fans the
// resulting events out to persistence and spectators.
package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/AudricY/ai-mafia-sub000/internal/games"
	"github.com/AudricY/ai-mafia-sub000/internal/store"
	"github.com/AudricY/ai-mafia-sub000/internal/websocket"
)

// Service starts and tracks running simulations. One simulation per
// game at a time; finished games cannot be restarted.
type Service struct {
	games  *store.GameStore
	events *store.GameEventStore
	hub    *websocket.Hub
	agents games.Decider
	log    zerolog.Logger

	mu      sync.Mutex
	running map[string]context.CancelFunc
}

// NewService creates a simulation service.
func NewService(gameStore *store.GameStore, eventStore *store.GameEventStore, hub *websocket.Hub, agents games.Decider, log zerolog.Logger) *Service {
	return &Service{
		games:   gameStore,
		events:  eventStore,
		hub:     hub,
		agents:  agents,
		log:     log,
		running: make(map[string]context.CancelFunc),
	}
}

// Start launches the simulation for a pending game in the background.
// It returns once the game is marked running.
func (s *Service) Start(ctx context.Context, gameID string) error {
	game, err := s.games.GetGame(ctx, gameID)
	if err != nil {
		return fmt.Errorf("load game: %w", err)
	}
	if game == nil {
		return ErrGameNotFound
	}
	if game.Status != store.StatusPending {
		return fmt.Errorf("%w: status is %s", ErrGameNotStartable, game.Status)
	}

	players, err := s.games.GetGamePlayers(ctx, gameID)
	if err != nil {
		return fmt.Errorf("load players: %w", err)
	}
	names := make([]string, 0, len(players))
	for _, p := range players {
		names = append(names, p.Name)
	}

	cfg, err := configFromMap(game.Config)
	if err != nil {
		return fmt.Errorf("parse game config: %w", err)
	}

	st, err := games.NewGameState(gameID, names, cfg)
	if err != nil {
		return fmt.Errorf("assign roles: %w", err)
	}

	s.mu.Lock()
	if _, ok := s.running[gameID]; ok {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	runCtx, cancel := context.WithCancel(context.Background())
	s.running[gameID] = cancel
	s.mu.Unlock()

	rolesByName := make(map[string]string, len(st.Players))
	for name, p := range st.Players {
		rolesByName[name] = string(p.Role)
	}
	if err := s.games.AssignRoles(ctx, gameID, rolesByName); err != nil {
		s.finish(gameID)
		return fmt.Errorf("persist roles: %w", err)
	}
	if err := s.games.UpdateGameStatus(ctx, gameID, store.StatusRunning, nil); err != nil {
		s.finish(gameID)
		return fmt.Errorf("mark running: %w", err)
	}

	go s.run(runCtx, st, cfg)
	return nil
}

// Stop cancels a running simulation. The engine records the abort.
func (s *Service) Stop(gameID string) bool {
	s.mu.Lock()
	cancel, ok := s.running[gameID]
	s.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Running reports whether a simulation is currently active for gameID.
func (s *Service) Running(gameID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.running[gameID]
	return ok
}

func (s *Service) run(ctx context.Context, st *games.GameState, cfg games.RulesConfig) {
	gameID := st.GameID
	defer s.finish(gameID)

	log := s.log.With().Str("game_id", gameID).Logger()

	runner := games.NewRunner(s.agents, s.eventSink(gameID), cfg, log)
	runner.Checkpoint = s.checkpoint

	err := runner.Run(ctx, st)

	ended := time.Now().UTC()
	status := store.StatusFinished
	if err != nil {
		status = store.StatusAborted
		log.Error().Err(err).Msg("simulation aborted")
	} else {
		log.Info().Strs("winners", st.Winners).Msg("simulation finished")
	}
	// The run context may already be cancelled; bookkeeping still has to
	// land.
	finCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.games.UpdateGameStatus(finCtx, gameID, status, &ended); err != nil {
		log.Error().Err(err).Msg("update final game status")
	}
	if _, err := s.games.CreateSnapshot(finCtx, gameID, st.ToMap()); err != nil {
		log.Error().Err(err).Msg("write final snapshot")
	}
	s.hub.BroadcastSnapshot(gameID, st.ToMap())
}

// eventSink persists each engine event and broadcasts it to spectators.
// Emit is called from the night's collector goroutines, so everything
// here has to be safe for concurrent use; the store and hub both are.
func (s *Service) eventSink(gameID string) games.Sink {
	return games.SinkFunc(func(ev games.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		req := store.CreateGameEventRequest{
			GameID:  gameID,
			Type:    string(ev.Kind),
			Payload: eventPayload(ev),
		}
		if ev.Actor != "" {
			actor := ev.Actor
			req.Actor = &actor
		}
		stored, err := s.events.CreateGameEvent(ctx, req)
		if err != nil {
			s.log.Error().Err(err).Str("game_id", gameID).Str("type", string(ev.Kind)).Msg("persist game event")
			return
		}
		s.hub.BroadcastEvent(gameID, stored)
	})
}

// checkpoint persists a snapshot after each phase and pushes it to
// spectators.
func (s *Service) checkpoint(ctx context.Context, st *games.GameState) error {
	version, err := s.games.CreateSnapshot(ctx, st.GameID, st.ToMap())
	if err != nil {
		return err
	}
	st.Version = int(version)
	s.hub.BroadcastSnapshot(st.GameID, st.ToMap())
	return nil
}

func (s *Service) finish(gameID string) {
	s.mu.Lock()
	if cancel, ok := s.running[gameID]; ok {
		cancel()
		delete(s.running, gameID)
	}
	s.mu.Unlock()
}

func eventPayload(ev games.Event) map[string]interface{} {
	payload := map[string]interface{}{"content": ev.Content}
	for k, v := range ev.Meta {
		payload[k] = v
	}
	return payload
}

// configFromMap decodes the stored game config into RulesConfig via
// JSON, so the stored shape and the engine shape stay in lockstep.
func configFromMap(m map[string]interface{}) (games.RulesConfig, error) {
	cfg := games.DefaultRulesConfig()
	if len(m) == 0 {
		return cfg, nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, err
	}
	cfg = cfg.Normalize()
	return cfg, cfg.Validate()
}
