package games

import "github.com/AudricY/ai-mafia-sub000/internal/roles"

// Phase names. A round is strictly night -> day_discussion -> day_voting;
// game_over is terminal.
const (
	PhaseNight         = "night"
	PhaseDayDiscussion = "day_discussion"
	PhaseDayVoting     = "day_voting"
	PhaseGameOver      = "game_over"
)

// Player is one participant. Created once at role assignment and never
// removed; deaths flip Alive and keep the record for reveals.
type Player struct {
	Name  string     `json:"name"`
	Role  roles.Role `json:"role"`
	Alive bool       `json:"alive"`
}

// GameState is the full engine state, serialized to JSON for snapshots.
type GameState struct {
	GameID string `json:"game_id"`
	Phase  string `json:"phase"`
	// Round is 1-based and only advances after a full night+day cycle.
	Round int `json:"round"`
	// Order is the fixed turn order set at assignment (drives discussion
	// turns and deterministic iteration over players).
	Order   []string           `json:"order"`
	Players map[string]*Player `json:"players"`
	// History is the append-only event log for this run. Persisted through
	// the event store, not the snapshot.
	History []Event `json:"-"`
	// Winners holds the winning faction(s) when the game is over.
	Winners []string `json:"winners,omitempty"`
	// NeutralWinners holds names of jester/executioner players whose win
	// condition triggered during the run.
	NeutralWinners []string `json:"neutral_winners,omitempty"`
	// ExecutionerTargets maps each executioner to the secret town player
	// they need the day vote to eliminate. Set at assignment, never
	// changed.
	ExecutionerTargets map[string]string `json:"executioner_targets,omitempty"`
	// AbortReason is set when a phase failed; distinct from a normal win.
	AbortReason string `json:"abort_reason,omitempty"`
	// Version is incremented on each snapshot write.
	Version int `json:"version,omitempty"`
}

// Clone returns a copy safe to mutate without touching the receiver.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	out := *s
	out.Order = append([]string(nil), s.Order...)
	out.Players = make(map[string]*Player, len(s.Players))
	for name, p := range s.Players {
		cp := *p
		out.Players[name] = &cp
	}
	out.History = append([]Event(nil), s.History...)
	out.Winners = append([]string(nil), s.Winners...)
	out.NeutralWinners = append([]string(nil), s.NeutralWinners...)
	if s.ExecutionerTargets != nil {
		out.ExecutionerTargets = make(map[string]string, len(s.ExecutionerTargets))
		for k, v := range s.ExecutionerTargets {
			out.ExecutionerTargets[k] = v
		}
	}
	return &out
}

// Alive returns living player names in turn order.
func (s *GameState) Alive() []string {
	out := make([]string, 0, len(s.Order))
	for _, name := range s.Order {
		if p, ok := s.Players[name]; ok && p.Alive {
			out = append(out, name)
		}
	}
	return out
}

// RolesByPlayer returns a snapshot of name -> role for every player in the
// game. Collectors and the resolver read this, never the live Players map.
func (s *GameState) RolesByPlayer() map[string]roles.Role {
	out := make(map[string]roles.Role, len(s.Players))
	for name, p := range s.Players {
		out[name] = p.Role
	}
	return out
}

// AliveWithRole returns living holders of one role, in turn order.
func (s *GameState) AliveWithRole(r roles.Role) []string {
	out := []string{}
	for _, name := range s.Alive() {
		if s.Players[name].Role == r {
			out = append(out, name)
		}
	}
	return out
}

// AliveMafia returns living mafia-aligned players, in turn order.
func (s *GameState) AliveMafia() []string {
	out := []string{}
	for _, name := range s.Alive() {
		if roles.IsMafiaAligned(s.Players[name].Role) {
			out = append(out, name)
		}
	}
	return out
}

// Kill marks a player dead. Only the phase engine calls it.
func (s *GameState) Kill(name string) {
	if p, ok := s.Players[name]; ok {
		p.Alive = false
	}
}

// Over reports whether the run has stopped, by win or by abort.
func (s *GameState) Over() bool {
	return s.Phase == PhaseGameOver
}

// ToMap converts state to a map for JSON snapshot persistence.
func (s *GameState) ToMap() map[string]interface{} {
	if s == nil {
		return nil
	}
	players := make(map[string]interface{}, len(s.Players))
	for name, p := range s.Players {
		players[name] = map[string]interface{}{
			"role":  string(p.Role),
			"alive": p.Alive,
		}
	}
	m := map[string]interface{}{
		"game_id": s.GameID,
		"phase":   s.Phase,
		"round":   s.Round,
		"order":   s.Order,
		"players": players,
		"version": s.Version,
	}
	if len(s.Winners) > 0 {
		m["winners"] = s.Winners
	}
	if len(s.NeutralWinners) > 0 {
		m["neutral_winners"] = s.NeutralWinners
	}
	if len(s.ExecutionerTargets) > 0 {
		targets := make(map[string]interface{}, len(s.ExecutionerTargets))
		for k, v := range s.ExecutionerTargets {
			targets[k] = v
		}
		m["executioner_targets"] = targets
	}
	if s.AbortReason != "" {
		m["abort_reason"] = s.AbortReason
	}
	return m
}

// StateFromMap reconstructs GameState from a snapshot map (e.g. from DB).
func StateFromMap(m map[string]interface{}) *GameState {
	if m == nil {
		return nil
	}
	s := &GameState{Players: make(map[string]*Player)}
	if v, ok := m["game_id"].(string); ok {
		s.GameID = v
	}
	if v, ok := m["phase"].(string); ok {
		s.Phase = v
	}
	if v, ok := floatToInt(m["round"]); ok {
		s.Round = v
	}
	if v, ok := stringSlice(m["order"]); ok {
		s.Order = v
	}
	if players, ok := m["players"].(map[string]interface{}); ok {
		for name, raw := range players {
			pm, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			p := &Player{Name: name}
			if r, ok := pm["role"].(string); ok {
				p.Role = roles.Role(r)
			}
			if a, ok := pm["alive"].(bool); ok {
				p.Alive = a
			}
			s.Players[name] = p
		}
	}
	if v, ok := stringSlice(m["winners"]); ok {
		s.Winners = v
	}
	if v, ok := stringSlice(m["neutral_winners"]); ok {
		s.NeutralWinners = v
	}
	if targets, ok := m["executioner_targets"].(map[string]interface{}); ok {
		s.ExecutionerTargets = make(map[string]string, len(targets))
		for k, v := range targets {
			if str, ok := v.(string); ok {
				s.ExecutionerTargets[k] = str
			}
		}
	}
	if v, ok := m["abort_reason"].(string); ok {
		s.AbortReason = v
	}
	if v, ok := floatToInt(m["version"]); ok {
		s.Version = v
	}
	return s
}

func floatToInt(a interface{}) (int, bool) {
	switch v := a.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

func stringSlice(a interface{}) ([]string, bool) {
	switch v := a.(type) {
	case []string:
		return v, true
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, x := range v {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out, true
	}
	return nil, false
}
