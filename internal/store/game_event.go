package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GameEvent is one row of the append-only game event log. Actor is the
// player the event is about (or addressed to), if any.
type GameEvent struct {
	ID        string                 `json:"id"`
	GameID    string                 `json:"game_id"`
	Seq       int64                  `json:"seq"`
	Actor     *string                `json:"actor,omitempty"`
	Type      string                 `json:"type"`
	Payload   map[string]interface{} `json:"payload"`
	CreatedAt time.Time              `json:"created_at"`
}

// CreateGameEventRequest contains the data needed to append a game event.
type CreateGameEventRequest struct {
	GameID  string                 `json:"game_id"`
	Actor   *string                `json:"actor,omitempty"`
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// GameEventStore handles database operations for game events.
type GameEventStore struct {
	pool *pgxpool.Pool
}

// NewGameEventStore creates a new GameEventStore.
func NewGameEventStore(pool *pgxpool.Pool) *GameEventStore {
	return &GameEventStore{pool: pool}
}

// CreateGameEvent appends one event to the game's log.
func (s *GameEventStore) CreateGameEvent(ctx context.Context, req CreateGameEventRequest) (*GameEvent, error) {
	gameUUID, err := stringToUUID(req.GameID)
	if err != nil {
		return nil, fmt.Errorf("invalid game_id: %w", err)
	}

	var actor pgtype.Text
	if req.Actor != nil && *req.Actor != "" {
		actor = pgtype.Text{String: *req.Actor, Valid: true}
	}

	payloadJSON := []byte("{}")
	if len(req.Payload) > 0 {
		payloadJSON, err = json.Marshal(req.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
	}

	var (
		id        pgtype.UUID
		seq       int64
		createdAt pgtype.Timestamptz
	)
	err = s.pool.QueryRow(ctx,
		`INSERT INTO game_events (game_id, actor, type, payload_json)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, seq, created_at`,
		gameUUID, actor, req.Type, payloadJSON,
	).Scan(&id, &seq, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("create game event: %w", err)
	}

	return &GameEvent{
		ID:        uuidToString(id),
		GameID:    req.GameID,
		Seq:       seq,
		Actor:     req.Actor,
		Type:      req.Type,
		Payload:   unmarshalPayload(payloadJSON),
		CreatedAt: timestamptzToTime(createdAt),
	}, nil
}

// GetGameEvents retrieves events for a game in append order, starting
// after afterSeq (0 for all).
func (s *GameEventStore) GetGameEvents(ctx context.Context, gameID string, afterSeq int64) ([]GameEvent, error) {
	gameUUID, err := stringToUUID(gameID)
	if err != nil {
		return nil, fmt.Errorf("invalid game_id: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, seq, actor, type, payload_json, created_at
		 FROM game_events WHERE game_id = $1 AND seq > $2 ORDER BY seq`,
		gameUUID, afterSeq,
	)
	if err != nil {
		return nil, fmt.Errorf("get game events: %w", err)
	}
	defer rows.Close()

	events := []GameEvent{}
	for rows.Next() {
		var (
			id          pgtype.UUID
			seq         int64
			actor       pgtype.Text
			eventType   string
			payloadJSON []byte
			createdAt   pgtype.Timestamptz
		)
		if err := rows.Scan(&id, &seq, &actor, &eventType, &payloadJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scan game event: %w", err)
		}
		events = append(events, GameEvent{
			ID:        uuidToString(id),
			GameID:    gameID,
			Seq:       seq,
			Actor:     textToString(actor),
			Type:      eventType,
			Payload:   unmarshalPayload(payloadJSON),
			CreatedAt: timestamptzToTime(createdAt),
		})
	}
	return events, rows.Err()
}

func unmarshalPayload(raw []byte) map[string]interface{} {
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil || payload == nil {
		payload = make(map[string]interface{})
	}
	return payload
}
