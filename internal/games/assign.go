package games

import (
	"fmt"
	"math/rand"

	"github.com/AudricY/ai-mafia-sub000/internal/roles"
)

// NewGameState deterministically assigns the config's role pool to the
// named players and fixes the turn order, both from the seed. The same
// names, pool, and seed always produce the same assignment.
func NewGameState(gameID string, playerNames []string, cfg RulesConfig) (*GameState, error) {
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(playerNames) != len(cfg.RolePool) {
		return nil, fmt.Errorf("role pool has %d seats, got %d players", len(cfg.RolePool), len(playerNames))
	}
	seen := make(map[string]bool, len(playerNames))
	for _, name := range playerNames {
		if name == "" {
			return nil, fmt.Errorf("player name must not be empty")
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate player name %q", name)
		}
		seen[name] = true
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	order := append([]string(nil), playerNames...)
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	pool := append([]roles.Role(nil), cfg.RolePool...)
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	st := &GameState{
		GameID:  gameID,
		Phase:   PhaseNight,
		Round:   1,
		Order:   order,
		Players: make(map[string]*Player, len(order)),
	}
	for i, name := range order {
		st.Players[name] = &Player{Name: name, Role: pool[i], Alive: true}
	}

	assignExecutionerTargets(st, rng)
	return st, nil
}

// assignExecutionerTargets gives each executioner a secret town target.
// Without any town player in the pool the executioner simply has no
// target and cannot win.
func assignExecutionerTargets(st *GameState, rng *rand.Rand) {
	town := []string{}
	for _, name := range st.Order {
		if roles.Lookup(st.Players[name].Role).Team == roles.TeamTown {
			town = append(town, name)
		}
	}
	if len(town) == 0 {
		return
	}
	for _, name := range st.Order {
		if st.Players[name].Role != roles.Executioner {
			continue
		}
		if st.ExecutionerTargets == nil {
			st.ExecutionerTargets = make(map[string]string)
		}
		st.ExecutionerTargets[name] = town[rng.Intn(len(town))]
	}
}
