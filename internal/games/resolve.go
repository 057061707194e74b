package games

import "github.com/AudricY/ai-mafia-sub000/internal/roles"

// ResolveNight derives the combined effect of one night's actions. It is a
// pure function of its inputs: no state is touched, nothing can fail, and
// missing role data defaults to "not mafia-aligned, appears innocent".
//
// The pass order is part of the contract, not an implementation detail:
// blocking, saves, investigations, tracking, kill resolution, death
// computation, the mafia-aligned defensive filter, bomb retaliation, and
// finally death-reveal overrides. Later passes see the effects of earlier
// ones, which is what fixes every tie-break.
func ResolveNight(intents []NightAction, rolesByPlayer map[string]roles.Role, alivePlayers []string) *ResolvedNight {
	res := &ResolvedNight{
		BlockedPlayers:   make(map[string]bool),
		SavedPlayers:     make(map[string]bool),
		Kills:            []KillRecord{},
		Deaths:           make(map[string]bool),
		Investigations:   []Investigation{},
		TrackerResults:   []TrackerResult{},
		BombRetaliations: make(map[string]bool),
		RevealOverrides:  []RevealOverride{},
	}

	alive := make(map[string]bool, len(alivePlayers))
	for _, name := range alivePlayers {
		alive[name] = true
	}

	// Pass 1: blocking. Every jail or block lands, even when the blocker is
	// itself blocked this night (mutual blocks all apply). Jail also
	// protects its target for the kill pass.
	for _, in := range intents {
		switch in.Kind {
		case ActionBlock:
			res.BlockedPlayers[in.Target] = true
		case ActionJail:
			res.BlockedPlayers[in.Target] = true
			res.SavedPlayers[in.Target] = true
		}
	}

	// Pass 2: saves from non-blocked doctors.
	for _, in := range intents {
		if in.Kind == ActionSave && !res.BlockedPlayers[in.Actor] {
			res.SavedPlayers[in.Target] = true
		}
	}

	// Pass 3: investigations. A frame forces MAFIA and overrides the
	// godfather's innocent read; otherwise the role table decides.
	for _, in := range intents {
		if in.Kind != ActionInvestigate || res.BlockedPlayers[in.Actor] {
			continue
		}
		result := InvestigationInnocent
		if roles.AppearsMafia(rolesByPlayer[in.Target]) || framedTonight(intents, res, in.Target) {
			result = InvestigationMafia
		}
		res.Investigations = append(res.Investigations, Investigation{
			Actor:  in.Actor,
			Target: in.Target,
			Result: result,
		})
	}

	// Pass 4: tracking. The tracker sees where its target went: the first
	// non-blocked action in canonical order authored by the target, its own
	// intent excluded. No such action reads as "stayed home", which also
	// covers a blocked target.
	for i, in := range intents {
		if in.Kind != ActionTrack || res.BlockedPlayers[in.Actor] {
			continue
		}
		tr := TrackerResult{Actor: in.Actor, Target: in.Target}
		for j, other := range intents {
			if j == i {
				continue
			}
			if other.Actor == in.Target && !res.BlockedPlayers[other.Actor] {
				tr.Visited = other.Target
				break
			}
		}
		res.TrackerResults = append(res.TrackerResults, tr)
	}

	// Pass 5: kill resolution. Every attempt is recorded, including
	// blocked and saved ones, for the public announcement.
	for _, in := range intents {
		if in.Kind != ActionKill {
			continue
		}
		blocked := res.BlockedPlayers[in.Actor]
		res.Kills = append(res.Kills, KillRecord{
			Actor:   in.Actor,
			Target:  in.Target,
			Source:  in.Source,
			Blocked: blocked,
			Saved:   !blocked && res.SavedPlayers[in.Target],
		})
	}

	// Pass 6: death computation. Multiple killers of one target still
	// produce exactly one death.
	deathOrder := []string{}
	for _, k := range res.Kills {
		if k.Blocked || k.Saved || res.Deaths[k.Target] {
			continue
		}
		res.Deaths[k.Target] = true
		deathOrder = append(deathOrder, k.Target)
	}

	// Pass 7: defensive filter. A mafia-aligned victim never dies here;
	// this guards against a buggy collector letting mafia shoot teammates.
	filtered := deathOrder[:0]
	for _, victim := range deathOrder {
		if roles.IsMafiaAligned(rolesByPlayer[victim]) {
			delete(res.Deaths, victim)
			continue
		}
		filtered = append(filtered, victim)
	}
	deathOrder = filtered

	// Pass 8: bomb retaliation. Every attacker whose kill actually landed
	// on a bomb dies with it, unless the attacker is already dead or was
	// protected this night.
	for _, victim := range deathOrder {
		if rolesByPlayer[victim] != roles.Bomb {
			continue
		}
		for _, k := range res.Kills {
			if k.Target != victim || k.Blocked || k.Saved {
				continue
			}
			if !alive[k.Actor] || res.SavedPlayers[k.Actor] || res.Deaths[k.Actor] {
				continue
			}
			res.Deaths[k.Actor] = true
			res.BombRetaliations[k.Actor] = true
			deathOrder = append(deathOrder, k.Actor)
		}
	}

	// Pass 9: death-reveal overrides. Forge beats clean for the same
	// victim; players who survived get no entry.
	for _, victim := range deathOrder {
		if fake, ok := forgedRole(intents, res, victim); ok {
			res.RevealOverrides = append(res.RevealOverrides, RevealOverride{Player: victim, Role: fake})
			continue
		}
		if cleanedTonight(intents, res, victim) {
			res.RevealOverrides = append(res.RevealOverrides, RevealOverride{Player: victim})
		}
	}

	return res
}

func framedTonight(intents []NightAction, res *ResolvedNight, target string) bool {
	for _, in := range intents {
		if in.Kind == ActionFrame && in.Target == target && !res.BlockedPlayers[in.Actor] {
			return true
		}
	}
	return false
}

func forgedRole(intents []NightAction, res *ResolvedNight, victim string) (string, bool) {
	for _, in := range intents {
		if in.Kind == ActionForge && in.Target == victim && !res.BlockedPlayers[in.Actor] {
			return in.FakeRole, true
		}
	}
	return "", false
}

func cleanedTonight(intents []NightAction, res *ResolvedNight, victim string) bool {
	for _, in := range intents {
		if in.Kind == ActionClean && in.Target == victim && !res.BlockedPlayers[in.Actor] {
			return true
		}
	}
	return false
}
