package websocket

// ServerEnvelope is the frame sent to spectators.
// Type: "event" | "snapshot" | "error"
type ServerEnvelope struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Server envelope types.
const (
	ServerTypeEvent    = "event"
	ServerTypeSnapshot = "snapshot"
	ServerTypeError    = "error"
)

// ClientMessage is the frame spectators may send. Spectating is
// read-only; the only accepted request is a state resync.
// Type: "sync"
type ClientMessage struct {
	Type string `json:"type"`
}

// ClientMessageTypeSync asks the server to resend the latest snapshot.
const ClientMessageTypeSync = "sync"

// MaxClientMessageSize limits inbound frames; spectators have no reason
// to send anything big.
const MaxClientMessageSize = 4 * 1024
