package games

import (
	"fmt"
	"time"

	"github.com/AudricY/ai-mafia-sub000/internal/roles"
)

// RulesConfig declares a game setup: the role pool (one entry per seat),
// the seed driving assignment and turn order, and the pacing knobs.
type RulesConfig struct {
	// RolePool lists the roles in play; len(RolePool) players are needed.
	RolePool []roles.Role `json:"role_pool"`
	// Seed makes assignment and seeded agents reproducible.
	Seed int64 `json:"seed"`
	// DiscussionTurns is how many times each living player speaks per day.
	DiscussionTurns int `json:"discussion_turns,omitempty"`
	// CouncilRounds bounds the mafia team discussion before the leader
	// commits to a plan.
	CouncilRounds int `json:"council_rounds,omitempty"`
	// MaxRounds stops runaway games; 0 means the default.
	MaxRounds int `json:"max_rounds,omitempty"`
	// AgentTimeout bounds each agent call; applied by the agent wrapper,
	// recorded here so one config describes the whole run.
	AgentTimeout time.Duration `json:"agent_timeout,omitempty"`
}

// DefaultRulesConfig is a classic nine-seat setup.
func DefaultRulesConfig() RulesConfig {
	return RulesConfig{
		RolePool: []roles.Role{
			roles.Godfather, roles.Mafia, roles.Framer,
			roles.Cop, roles.Doctor, roles.Roleblocker,
			roles.Villager, roles.Villager, roles.Jester,
		},
		Seed:            1,
		DiscussionTurns: 2,
		CouncilRounds:   1,
		MaxRounds:       20,
		AgentTimeout:    30 * time.Second,
	}
}

// Normalize fills zero pacing fields with defaults.
func (c RulesConfig) Normalize() RulesConfig {
	if len(c.RolePool) == 0 {
		c.RolePool = DefaultRulesConfig().RolePool
	}
	if c.DiscussionTurns <= 0 {
		c.DiscussionTurns = 2
	}
	if c.CouncilRounds <= 0 {
		c.CouncilRounds = 1
	}
	if c.MaxRounds <= 0 {
		c.MaxRounds = 20
	}
	return c
}

// Validate checks the role pool against the role table.
func (c RulesConfig) Validate() error {
	if len(c.RolePool) < 3 {
		return fmt.Errorf("role pool needs at least 3 seats, got %d", len(c.RolePool))
	}
	for _, r := range c.RolePool {
		if !roles.Known(r) {
			return fmt.Errorf("unknown role %q in pool", r)
		}
	}
	return nil
}

// HasMafia reports whether the pool contains any mafia-aligned role. A
// pool without one turns a neutral win into the game's sole win
// condition.
func (c RulesConfig) HasMafia() bool {
	for _, r := range c.RolePool {
		if roles.IsMafiaAligned(r) {
			return true
		}
	}
	return false
}
