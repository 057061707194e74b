package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Game statuses.
const (
	StatusPending  = "pending"
	StatusRunning  = "running"
	StatusFinished = "finished"
	StatusAborted  = "aborted"
)

// Game represents one simulation.
type Game struct {
	ID        string                 `json:"id"`
	Status    string                 `json:"status"` // pending | running | finished | aborted
	Config    map[string]interface{} `json:"config"`
	CreatedAt time.Time              `json:"created_at"`
	EndedAt   *time.Time             `json:"ended_at,omitempty"`
}

// GamePlayer represents one seat in a game. Role stays null until the
// engine assigns the pool at start.
type GamePlayer struct {
	ID     string  `json:"id"`
	GameID string  `json:"game_id"`
	Name   string  `json:"name"`
	Role   *string `json:"role,omitempty"`
	Seat   int     `json:"seat"`
}

// CreateGameRequest contains the data needed to create a game.
type CreateGameRequest struct {
	Players []string               `json:"players"`
	Config  map[string]interface{} `json:"config,omitempty"`
}

// CreateGameResponse contains the response after creating a game.
type CreateGameResponse struct {
	Game           *Game        `json:"game"`
	Players        []GamePlayer `json:"players"`
	LatestSnapshot map[string]interface{} `json:"latest_snapshot,omitempty"`
}

// PendingStateJSON is the initial snapshot for a game that has not
// started its simulation yet.
var PendingStateJSON = []byte(`{"phase":"pending"}`)

// GameStore handles database operations for games, their players, and
// their state snapshots.
type GameStore struct {
	pool *pgxpool.Pool
}

// NewGameStore creates a new GameStore.
func NewGameStore(pool *pgxpool.Pool) *GameStore {
	return &GameStore{pool: pool}
}

// CreateGame creates a game with its seats and the initial pending
// snapshot, all in one transaction.
func (s *GameStore) CreateGame(ctx context.Context, req CreateGameRequest) (*CreateGameResponse, error) {
	if len(req.Players) == 0 {
		return nil, fmt.Errorf("at least one player is required")
	}
	configJSON := []byte("{}")
	if len(req.Config) > 0 {
		var err error
		configJSON, err = json.Marshal(req.Config)
		if err != nil {
			return nil, fmt.Errorf("marshal config: %w", err)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		gameUUID  pgtype.UUID
		createdAt pgtype.Timestamptz
	)
	err = tx.QueryRow(ctx,
		`INSERT INTO games (status, config_json) VALUES ($1, $2) RETURNING id, created_at`,
		StatusPending, configJSON,
	).Scan(&gameUUID, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	gameID := uuidToString(gameUUID)

	players := make([]GamePlayer, 0, len(req.Players))
	for seat, name := range req.Players {
		var playerUUID pgtype.UUID
		err = tx.QueryRow(ctx,
			`INSERT INTO game_players (game_id, name, seat) VALUES ($1, $2, $3) RETURNING id`,
			gameUUID, name, seat,
		).Scan(&playerUUID)
		if err != nil {
			return nil, fmt.Errorf("create game player %q: %w", name, err)
		}
		players = append(players, GamePlayer{
			ID:     uuidToString(playerUUID),
			GameID: gameID,
			Name:   name,
			Seat:   seat,
		})
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO game_state_snapshots (game_id, version, state_json) VALUES ($1, 1, $2)`,
		gameUUID, PendingStateJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("create initial snapshot: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	var config map[string]interface{}
	if err := json.Unmarshal(configJSON, &config); err != nil {
		config = make(map[string]interface{})
	}
	var snapshot map[string]interface{}
	_ = json.Unmarshal(PendingStateJSON, &snapshot)

	return &CreateGameResponse{
		Game: &Game{
			ID:        gameID,
			Status:    StatusPending,
			Config:    config,
			CreatedAt: timestamptzToTime(createdAt),
		},
		Players:        players,
		LatestSnapshot: snapshot,
	}, nil
}

// GetGame returns one game, or nil if it does not exist.
func (s *GameStore) GetGame(ctx context.Context, gameID string) (*Game, error) {
	gameUUID, err := stringToUUID(gameID)
	if err != nil {
		return nil, fmt.Errorf("invalid game_id: %w", err)
	}
	var (
		id         pgtype.UUID
		status     string
		configJSON []byte
		createdAt  pgtype.Timestamptz
		endedAt    pgtype.Timestamptz
	)
	err = s.pool.QueryRow(ctx,
		`SELECT id, status, config_json, created_at, ended_at FROM games WHERE id = $1`,
		gameUUID,
	).Scan(&id, &status, &configJSON, &createdAt, &endedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get game: %w", err)
	}

	var config map[string]interface{}
	if err := json.Unmarshal(configJSON, &config); err != nil {
		config = make(map[string]interface{})
	}
	game := &Game{
		ID:        uuidToString(id),
		Status:    status,
		Config:    config,
		CreatedAt: timestamptzToTime(createdAt),
	}
	if endedAt.Valid {
		t := timestamptzToTime(endedAt)
		game.EndedAt = &t
	}
	return game, nil
}

// GetGamePlayers returns the game's seats in seat order.
func (s *GameStore) GetGamePlayers(ctx context.Context, gameID string) ([]GamePlayer, error) {
	gameUUID, err := stringToUUID(gameID)
	if err != nil {
		return nil, fmt.Errorf("invalid game_id: %w", err)
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, role, seat FROM game_players WHERE game_id = $1 ORDER BY seat`,
		gameUUID,
	)
	if err != nil {
		return nil, fmt.Errorf("get game players: %w", err)
	}
	defer rows.Close()

	players := []GamePlayer{}
	for rows.Next() {
		var (
			id   pgtype.UUID
			name string
			role pgtype.Text
			seat int
		)
		if err := rows.Scan(&id, &name, &role, &seat); err != nil {
			return nil, fmt.Errorf("scan game player: %w", err)
		}
		players = append(players, GamePlayer{
			ID:     uuidToString(id),
			GameID: gameID,
			Name:   name,
			Role:   textToString(role),
			Seat:   seat,
		})
	}
	return players, rows.Err()
}

// AssignRoles records the engine's role assignment on the seat rows.
func (s *GameStore) AssignRoles(ctx context.Context, gameID string, rolesByName map[string]string) error {
	gameUUID, err := stringToUUID(gameID)
	if err != nil {
		return fmt.Errorf("invalid game_id: %w", err)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for name, role := range rolesByName {
		if _, err := tx.Exec(ctx,
			`UPDATE game_players SET role = $1 WHERE game_id = $2 AND name = $3`,
			role, gameUUID, name,
		); err != nil {
			return fmt.Errorf("assign role to %q: %w", name, err)
		}
	}
	return tx.Commit(ctx)
}

// UpdateGameStatus updates the game's status and optionally ended_at.
func (s *GameStore) UpdateGameStatus(ctx context.Context, gameID string, status string, endedAt *time.Time) error {
	gameUUID, err := stringToUUID(gameID)
	if err != nil {
		return fmt.Errorf("invalid game_id: %w", err)
	}
	var endAt pgtype.Timestamptz
	if endedAt != nil {
		endAt = pgtype.Timestamptz{Time: *endedAt, Valid: true}
	}
	_, err = s.pool.Exec(ctx,
		`UPDATE games SET status = $1, ended_at = $2 WHERE id = $3`,
		status, endAt, gameUUID,
	)
	if err != nil {
		return fmt.Errorf("update game status: %w", err)
	}
	return nil
}

// CreateSnapshot stores a new snapshot with the next version number and
// returns that version.
func (s *GameStore) CreateSnapshot(ctx context.Context, gameID string, state map[string]interface{}) (int32, error) {
	gameUUID, err := stringToUUID(gameID)
	if err != nil {
		return 0, fmt.Errorf("invalid game_id: %w", err)
	}
	data := []byte("{}")
	if len(state) > 0 {
		data, err = json.Marshal(state)
		if err != nil {
			return 0, fmt.Errorf("marshal state: %w", err)
		}
	}
	var version int32
	err = s.pool.QueryRow(ctx,
		`INSERT INTO game_state_snapshots (game_id, version, state_json)
		 SELECT $1, COALESCE(MAX(version), 0) + 1, $2 FROM game_state_snapshots WHERE game_id = $1
		 RETURNING version`,
		gameUUID, data,
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("create snapshot: %w", err)
	}
	return version, nil
}

// GetLatestSnapshot returns the latest state snapshot as a map, or nil
// if none exists.
func (s *GameStore) GetLatestSnapshot(ctx context.Context, gameID string) (map[string]interface{}, error) {
	gameUUID, err := stringToUUID(gameID)
	if err != nil {
		return nil, fmt.Errorf("invalid game_id: %w", err)
	}
	var stateJSON []byte
	err = s.pool.QueryRow(ctx,
		`SELECT state_json FROM game_state_snapshots WHERE game_id = $1 ORDER BY version DESC LIMIT 1`,
		gameUUID,
	).Scan(&stateJSON)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}
	var out map[string]interface{}
	if len(stateJSON) > 0 {
		if err := json.Unmarshal(stateJSON, &out); err != nil {
			return nil, fmt.Errorf("unmarshal snapshot: %w", err)
		}
	}
	if out == nil {
		out = make(map[string]interface{})
	}
	return out, nil
}
