// Package roles is the canonical role-metadata table: which team a role
// belongs to, whether it reads as mafia to an investigation, and which
// night abilities it carries. Every other package (resolver, collectors,
// win evaluator) consults this table instead of keeping its own list.
package roles

// Role identifies one of the playable roles.
type Role string

const (
	Villager        Role = "villager"
	Cop             Role = "cop"
	Doctor          Role = "doctor"
	Vigilante       Role = "vigilante"
	Roleblocker     Role = "roleblocker"
	Mafia           Role = "mafia"
	Godfather       Role = "godfather"
	MafiaRoleblocker Role = "mafia_roleblocker"
	Tracker         Role = "tracker"
	Jailkeeper      Role = "jailkeeper"
	Mason           Role = "mason"
	Bomb            Role = "bomb"
	Framer          Role = "framer"
	Janitor         Role = "janitor"
	Forger          Role = "forger"
	Jester          Role = "jester"
	Executioner     Role = "executioner"
)

// Team is the faction a role wins with.
type Team string

const (
	TeamTown    Team = "town"
	TeamMafia   Team = "mafia"
	TeamNeutral Team = "neutral"
)

// Meta holds the static properties of one role.
type Meta struct {
	Team Team
	// AppearsMafia is what a cop sees, absent framing. The godfather is
	// mafia-aligned but reads innocent.
	AppearsMafia bool
}

var table = map[Role]Meta{
	Villager:         {Team: TeamTown},
	Cop:              {Team: TeamTown},
	Doctor:           {Team: TeamTown},
	Vigilante:        {Team: TeamTown},
	Roleblocker:      {Team: TeamTown},
	Tracker:          {Team: TeamTown},
	Jailkeeper:       {Team: TeamTown},
	Mason:            {Team: TeamTown},
	Bomb:             {Team: TeamTown},
	Mafia:            {Team: TeamMafia, AppearsMafia: true},
	Godfather:        {Team: TeamMafia, AppearsMafia: false},
	MafiaRoleblocker: {Team: TeamMafia, AppearsMafia: true},
	Framer:           {Team: TeamMafia, AppearsMafia: true},
	Janitor:          {Team: TeamMafia, AppearsMafia: true},
	Forger:           {Team: TeamMafia, AppearsMafia: true},
	Jester:           {Team: TeamNeutral},
	Executioner:      {Team: TeamNeutral},
}

// Lookup returns the metadata for a role. Unknown roles get a zero Meta
// (town team "", not mafia-aligned, appears innocent), which is the safe
// default the resolver relies on.
func Lookup(r Role) Meta {
	return table[r]
}

// Known reports whether r is one of the playable roles.
func Known(r Role) bool {
	_, ok := table[r]
	return ok
}

// IsMafiaAligned reports whether the role belongs to the mafia faction.
func IsMafiaAligned(r Role) bool {
	return table[r].Team == TeamMafia
}

// AppearsMafia reports what an unframed investigation of the role returns.
func AppearsMafia(r Role) bool {
	return table[r].AppearsMafia
}

// All lists every playable role in a stable order.
func All() []Role {
	return []Role{
		Villager, Cop, Doctor, Vigilante, Roleblocker,
		Mafia, Godfather, MafiaRoleblocker,
		Tracker, Jailkeeper, Mason, Bomb,
		Framer, Janitor, Forger,
		Jester, Executioner,
	}
}
