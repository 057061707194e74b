package games

// ActionKind tags one variant of a night action.
type ActionKind string

const (
	ActionBlock       ActionKind = "block"
	ActionJail        ActionKind = "jail"
	ActionSave        ActionKind = "save"
	ActionInvestigate ActionKind = "investigate"
	ActionTrack       ActionKind = "track"
	ActionKill        ActionKind = "kill"
	ActionFrame       ActionKind = "frame"
	ActionClean       ActionKind = "clean"
	ActionForge       ActionKind = "forge"
)

// KillSource distinguishes the two kill origins for announcements and
// bomb retaliation.
type KillSource string

const (
	KillSourceMafia     KillSource = "mafia"
	KillSourceVigilante KillSource = "vigilante"
)

// NightAction is one actor's unresolved request to affect one target
// during the night. Created fresh each night by a collector and consumed
// exactly once by the resolver.
type NightAction struct {
	Kind   ActionKind `json:"kind"`
	Actor  string     `json:"actor"`
	Target string     `json:"target"`
	// Source is set for kill actions only.
	Source KillSource `json:"source,omitempty"`
	// FakeRole is set for forge actions only: the role name shown on the
	// victim's death reveal.
	FakeRole string `json:"fake_role,omitempty"`
}

// Kill attempt record, kept even when blocked or saved so the day can
// announce failed attempts.
type KillRecord struct {
	Actor   string     `json:"actor"`
	Target  string     `json:"target"`
	Source  KillSource `json:"source"`
	Blocked bool       `json:"blocked"`
	Saved   bool       `json:"saved"`
}

// Investigation is one cop result.
type Investigation struct {
	Actor  string `json:"actor"`
	Target string `json:"target"`
	// Result is InvestigationMafia or InvestigationInnocent.
	Result string `json:"result"`
}

// Investigation results.
const (
	InvestigationMafia    = "MAFIA"
	InvestigationInnocent = "INNOCENT"
)

// TrackerResult is one tracker observation. Visited is empty when the
// target stayed home or was blocked; the tracker cannot tell which.
type TrackerResult struct {
	Actor   string `json:"actor"`
	Target  string `json:"target"`
	Visited string `json:"visited,omitempty"`
}

// RevealOverride substitutes the public role announcement for one death.
// A forged reveal carries the fake role; a cleaned reveal carries "".
type RevealOverride struct {
	Player string `json:"player"`
	// Role is the substituted reveal; empty means the role stays hidden.
	Role string `json:"role"`
}

// ResolvedNight is the resolver output: the combined effect of every
// night action. Fully reconstructed each night, never mutated after
// return.
type ResolvedNight struct {
	BlockedPlayers   map[string]bool
	SavedPlayers     map[string]bool
	Kills            []KillRecord
	Deaths           map[string]bool
	Investigations   []Investigation
	TrackerResults   []TrackerResult
	BombRetaliations map[string]bool
	RevealOverrides  []RevealOverride
}
