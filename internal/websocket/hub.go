// Package websocket streams game events to spectators. Agents play over
// the agent boundary, not over WebSocket; every connection here is
// read-only except for snapshot resync requests.
package websocket

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/AudricY/ai-mafia-sub000/internal/store"
)

// Hub maintains the set of active spectator clients per game and fans
// broadcasts out to them.
type Hub struct {
	// Registered clients by game_id.
	games map[string]map[*Client]bool

	broadcast  chan *BroadcastMessage
	register   chan *Client
	unregister chan *Client

	log zerolog.Logger
	mu  sync.RWMutex
}

// BroadcastMessage is a frame addressed to every spectator of one game.
type BroadcastMessage struct {
	GameID   string
	Envelope *ServerEnvelope
}

// NewHub creates a new Hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		games:      make(map[string]map[*Client]bool),
		broadcast:  make(chan *BroadcastMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log,
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.games[client.GameID] == nil {
				h.games[client.GameID] = make(map[*Client]bool)
			}
			h.games[client.GameID][client] = true
			total := len(h.games[client.GameID])
			h.mu.Unlock()
			h.log.Debug().Str("game_id", client.GameID).Int("spectators", total).Msg("spectator connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if game, ok := h.games[client.GameID]; ok {
				if _, ok := game[client]; ok {
					delete(game, client)
					client.closeSend()
					if len(game) == 0 {
						delete(h.games, client.GameID)
					}
				}
			}
			h.mu.Unlock()
			h.log.Debug().Str("game_id", client.GameID).Msg("spectator disconnected")

		case message := <-h.broadcast:
			h.mu.Lock()
			game, exists := h.games[message.GameID]
			if exists {
				for client := range game {
					select {
					case client.send <- message.Envelope:
					default:
						// Slow consumer; drop it rather than stall the game.
						client.closeSend()
						delete(game, client)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastEvent sends a stored game event to all spectators of a game.
func (h *Hub) BroadcastEvent(gameID string, event *store.GameEvent) {
	payload := map[string]interface{}{
		"seq":        event.Seq,
		"type":       event.Type,
		"payload":    event.Payload,
		"created_at": event.CreatedAt,
	}
	if event.Actor != nil {
		payload["actor"] = *event.Actor
	}
	h.broadcast <- &BroadcastMessage{
		GameID:   gameID,
		Envelope: &ServerEnvelope{Type: ServerTypeEvent, Payload: payload},
	}
}

// BroadcastSnapshot sends a state snapshot to all spectators of a game.
func (h *Hub) BroadcastSnapshot(gameID string, state map[string]interface{}) {
	h.broadcast <- &BroadcastMessage{
		GameID:   gameID,
		Envelope: &ServerEnvelope{Type: ServerTypeSnapshot, Payload: state},
	}
}

// GameClientCount returns the number of spectators on a game.
func (h *Hub) GameClientCount(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if game, ok := h.games[gameID]; ok {
		return len(game)
	}
	return 0
}
