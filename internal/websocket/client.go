package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait).
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Spectating is gated by the token, not the origin.
		return true
	},
}

// Client is one spectator connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// Buffered channel of outbound envelopes. Closed only via closeSend;
	// closed is shared with trySend on the read goroutine so a sync
	// request racing a slow-consumer drop is discarded, not a panic.
	send     chan *ServerEnvelope
	closed   bool
	closedMu sync.Mutex

	// GameID this spectator watches.
	GameID string

	// snapshot returns the latest persisted state for sync requests.
	snapshot func(ctx context.Context, gameID string) (map[string]interface{}, error)

	ctx context.Context
}

// readPump consumes inbound frames. The only meaningful request from a
// spectator is a snapshot resync; everything else is ignored.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetReadLimit(MaxClientMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug().Err(err).Str("game_id", c.GameID).Msg("websocket read error")
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil || msg.Type != ClientMessageTypeSync {
			continue
		}
		c.sendSnapshot()
	}
}

// sendSnapshot fetches the latest snapshot and queues it for this client
// only.
func (c *Client) sendSnapshot() {
	if c.snapshot == nil {
		return
	}
	state, err := c.snapshot(c.ctx, c.GameID)
	if err != nil {
		c.hub.log.Warn().Err(err).Str("game_id", c.GameID).Msg("snapshot fetch for sync failed")
		c.trySend(&ServerEnvelope{
			Type:    ServerTypeError,
			Payload: map[string]interface{}{"message": "snapshot unavailable"},
		})
		return
	}
	c.trySend(&ServerEnvelope{Type: ServerTypeSnapshot, Payload: state})
}

func (c *Client) trySend(env *ServerEnvelope) {
	c.closedMu.Lock()
	defer c.closedMu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- env:
	default:
	}
}

// closeSend shuts the outbound queue. Only the hub loop calls it, once on
// unregister and once on a slow-consumer drop, whichever comes first.
func (c *Client) closeSend() {
	c.closedMu.Lock()
	defer c.closedMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// writePump pumps envelopes from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			if err := json.NewEncoder(w).Encode(env); err != nil {
				c.hub.log.Warn().Err(err).Msg("encode outbound envelope")
			}

			// Drain queued envelopes into the same frame.
			n := len(c.send)
			for i := 0; i < n; i++ {
				if err := json.NewEncoder(w).Encode(<-c.send); err != nil {
					c.hub.log.Warn().Err(err).Msg("encode queued envelope")
				}
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
