package games

import "github.com/AudricY/ai-mafia-sub000/internal/roles"

// Faction winner names.
const (
	WinnerTown  = "town"
	WinnerMafia = "mafia"
)

// EvaluateWin returns the winning faction, or "" while the game is still
// contested. Run after every night and after every day vote.
//
// Mafia parity (mafia-aligned alive >= everyone else alive) hands mafia
// the win; zero mafia-aligned alive hands it to town.
func EvaluateWin(st *GameState) string {
	mafiaAlive := 0
	othersAlive := 0
	for _, name := range st.Alive() {
		if roles.IsMafiaAligned(st.Players[name].Role) {
			mafiaAlive++
		} else {
			othersAlive++
		}
	}
	if mafiaAlive == 0 {
		return WinnerTown
	}
	if mafiaAlive >= othersAlive {
		return WinnerMafia
	}
	return ""
}

// NeutralWinsOnElimination returns the names of neutral players whose win
// condition triggers when eliminated is voted out: a jester voted out
// wins, and every living executioner whose secret target was voted out
// wins.
func NeutralWinsOnElimination(st *GameState, eliminated string) []string {
	out := []string{}
	if p, ok := st.Players[eliminated]; ok && p.Role == roles.Jester {
		out = append(out, eliminated)
	}
	for _, name := range st.Alive() {
		if st.Players[name].Role != roles.Executioner || name == eliminated {
			continue
		}
		if st.ExecutionerTargets[name] == eliminated {
			out = append(out, name)
		}
	}
	return out
}
