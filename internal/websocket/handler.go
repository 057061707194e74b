package websocket

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/AudricY/ai-mafia-sub000/internal/auth"
)

// SnapshotFunc returns the latest persisted state for a game.
type SnapshotFunc func(ctx context.Context, gameID string) (map[string]interface{}, error)

// WSHandler upgrades spectator connections after token verification.
type WSHandler struct {
	hub         *Hub
	snapshot    SnapshotFunc
	tokenSecret []byte
}

// NewWSHandler creates a new WSHandler. If tokenSecret is empty every
// connection is rejected.
func NewWSHandler(hub *Hub, snapshot SnapshotFunc, tokenSecret []byte) *WSHandler {
	return &WSHandler{
		hub:         hub,
		snapshot:    snapshot,
		tokenSecret: tokenSecret,
	}
}

// HandleSpectate handles GET /ws/games/{game_id}. The spectate token
// comes from the token query param or the Authorization header.
func (h *WSHandler) HandleSpectate(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "game_id")
	if gameID == "" {
		http.Error(w, "game_id is required", http.StatusBadRequest)
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		}
	}
	claims, err := auth.VerifyToken(token, h.tokenSecret)
	if err != nil {
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}
	if claims.GameID != gameID {
		http.Error(w, "token is for a different game", http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	// Background, not the request context: the request context dies when
	// this handler returns, the connection does not.
	client := &Client{
		hub:      h.hub,
		conn:     conn,
		send:     make(chan *ServerEnvelope, 256),
		GameID:   gameID,
		snapshot: h.snapshot,
		ctx:      context.Background(),
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()

	// New spectators start from the current state.
	client.sendSnapshot()
}
