package games

import (
	"testing"

	"github.com/AudricY/ai-mafia-sub000/internal/roles"
)

func names(set map[string]bool) []string {
	out := []string{}
	for k, v := range set {
		if v {
			out = append(out, k)
		}
	}
	return out
}

func TestResolve_RoleblockerBlocksDoctor(t *testing.T) {
	rolesBy := map[string]roles.Role{
		"Alice": roles.Roleblocker, "Bob": roles.Doctor, "Carol": roles.Mafia, "Dave": roles.Villager,
	}
	alive := []string{"Alice", "Bob", "Carol", "Dave"}
	intents := []NightAction{
		{Kind: ActionBlock, Actor: "Alice", Target: "Bob"},
		{Kind: ActionSave, Actor: "Bob", Target: "Dave"},
		{Kind: ActionKill, Actor: "Carol", Target: "Dave", Source: KillSourceMafia},
	}

	res := ResolveNight(intents, rolesBy, alive)

	if !res.BlockedPlayers["Bob"] || len(res.BlockedPlayers) != 1 {
		t.Errorf("blocked = %v, want exactly {Bob}", names(res.BlockedPlayers))
	}
	if len(res.SavedPlayers) != 0 {
		t.Errorf("saved = %v, want empty", names(res.SavedPlayers))
	}
	if !res.Deaths["Dave"] || len(res.Deaths) != 1 {
		t.Errorf("deaths = %v, want exactly {Dave}", names(res.Deaths))
	}
}

func TestResolve_SavedFromBothKillers(t *testing.T) {
	rolesBy := map[string]roles.Role{
		"Doc": roles.Doctor, "Maf": roles.Mafia, "Vig": roles.Vigilante, "Town": roles.Villager,
	}
	alive := []string{"Doc", "Maf", "Vig", "Town"}
	intents := []NightAction{
		{Kind: ActionSave, Actor: "Doc", Target: "Town"},
		{Kind: ActionKill, Actor: "Maf", Target: "Town", Source: KillSourceMafia},
		{Kind: ActionKill, Actor: "Vig", Target: "Town", Source: KillSourceVigilante},
	}

	res := ResolveNight(intents, rolesBy, alive)

	if !res.SavedPlayers["Town"] {
		t.Errorf("saved = %v, want {Town}", names(res.SavedPlayers))
	}
	if len(res.Deaths) != 0 {
		t.Errorf("deaths = %v, want empty", names(res.Deaths))
	}
	if len(res.Kills) != 2 {
		t.Fatalf("kills = %d, want 2", len(res.Kills))
	}
	for _, k := range res.Kills {
		if !k.Saved {
			t.Errorf("kill by %s should be flagged saved", k.Actor)
		}
		if k.Blocked {
			t.Errorf("kill by %s should not be blocked", k.Actor)
		}
	}
}

func TestResolve_Investigations(t *testing.T) {
	cases := []struct {
		name   string
		target roles.Role
		framed bool
		want   string
	}{
		{"plain mafia", roles.Mafia, false, InvestigationMafia},
		{"godfather unframed", roles.Godfather, false, InvestigationInnocent},
		{"godfather framed", roles.Godfather, true, InvestigationMafia},
		{"villager", roles.Villager, false, InvestigationInnocent},
		{"villager framed", roles.Villager, true, InvestigationMafia},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rolesBy := map[string]roles.Role{
				"Cop": roles.Cop, "Target": tc.target, "Framer": roles.Framer,
			}
			alive := []string{"Cop", "Target", "Framer"}
			intents := []NightAction{
				{Kind: ActionInvestigate, Actor: "Cop", Target: "Target"},
			}
			if tc.framed {
				intents = append(intents, NightAction{Kind: ActionFrame, Actor: "Framer", Target: "Target"})
			}

			res := ResolveNight(intents, rolesBy, alive)

			if len(res.Investigations) != 1 {
				t.Fatalf("investigations = %d, want 1", len(res.Investigations))
			}
			if got := res.Investigations[0].Result; got != tc.want {
				t.Errorf("result = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestResolve_BlockedFrameDoesNotForceMafia(t *testing.T) {
	rolesBy := map[string]roles.Role{
		"Cop": roles.Cop, "GF": roles.Godfather, "Framer": roles.Framer, "RB": roles.Roleblocker,
	}
	alive := []string{"Cop", "GF", "Framer", "RB"}
	intents := []NightAction{
		{Kind: ActionBlock, Actor: "RB", Target: "Framer"},
		{Kind: ActionInvestigate, Actor: "Cop", Target: "GF"},
		{Kind: ActionFrame, Actor: "Framer", Target: "GF"},
	}

	res := ResolveNight(intents, rolesBy, alive)

	if res.Investigations[0].Result != InvestigationInnocent {
		t.Errorf("blocked frame must not override godfather immunity, got %s", res.Investigations[0].Result)
	}
}

func TestResolve_BombRetaliation(t *testing.T) {
	rolesBy := map[string]roles.Role{
		"Bomb": roles.Bomb, "Maf": roles.Mafia, "Town": roles.Villager,
	}
	alive := []string{"Bomb", "Maf", "Town"}
	intents := []NightAction{
		{Kind: ActionKill, Actor: "Maf", Target: "Bomb", Source: KillSourceMafia},
	}

	res := ResolveNight(intents, rolesBy, alive)

	if !res.Deaths["Bomb"] || !res.Deaths["Maf"] || len(res.Deaths) != 2 {
		t.Errorf("deaths = %v, want {Bomb, Maf}", names(res.Deaths))
	}
	if !res.BombRetaliations["Maf"] || len(res.BombRetaliations) != 1 {
		t.Errorf("retaliations = %v, want {Maf}", names(res.BombRetaliations))
	}
}

func TestResolve_BombRetaliationSparesProtectedAttacker(t *testing.T) {
	rolesBy := map[string]roles.Role{
		"Bomb": roles.Bomb, "Vig": roles.Vigilante, "Doc": roles.Doctor,
	}
	alive := []string{"Bomb", "Vig", "Doc"}
	intents := []NightAction{
		{Kind: ActionSave, Actor: "Doc", Target: "Vig"},
		{Kind: ActionKill, Actor: "Vig", Target: "Bomb", Source: KillSourceVigilante},
	}

	res := ResolveNight(intents, rolesBy, alive)

	if !res.Deaths["Bomb"] {
		t.Error("bomb should still die")
	}
	if res.Deaths["Vig"] || len(res.BombRetaliations) != 0 {
		t.Errorf("protected attacker must be spared, deaths=%v retaliations=%v",
			names(res.Deaths), names(res.BombRetaliations))
	}
}

func TestResolve_DefensiveFilterDropsMafiaVictim(t *testing.T) {
	rolesBy := map[string]roles.Role{
		"Maf1": roles.Mafia, "Maf2": roles.Mafia, "Town": roles.Villager,
	}
	alive := []string{"Maf1", "Maf2", "Town"}
	intents := []NightAction{
		{Kind: ActionKill, Actor: "Maf2", Target: "Maf1", Source: KillSourceMafia},
	}

	res := ResolveNight(intents, rolesBy, alive)

	if len(res.Deaths) != 0 {
		t.Errorf("deaths = %v, want empty: mafia-aligned victims are filtered", names(res.Deaths))
	}
	if len(res.Kills) != 1 {
		t.Errorf("kill attempt should still be recorded, got %d", len(res.Kills))
	}
}

func TestResolve_BlockedActorProducesNoResults(t *testing.T) {
	rolesBy := map[string]roles.Role{
		"RB": roles.Roleblocker, "Cop": roles.Cop, "Doc": roles.Doctor,
		"Trk": roles.Tracker, "Jan": roles.Janitor, "Forg": roles.Forger,
		"Town": roles.Villager, "Maf": roles.Mafia,
	}
	alive := []string{"RB", "Cop", "Doc", "Trk", "Jan", "Forg", "Town", "Maf"}
	intents := []NightAction{
		{Kind: ActionBlock, Actor: "RB", Target: "Cop"},
		{Kind: ActionBlock, Actor: "RB", Target: "Doc"},
		{Kind: ActionBlock, Actor: "RB", Target: "Trk"},
		{Kind: ActionBlock, Actor: "RB", Target: "Jan"},
		{Kind: ActionBlock, Actor: "RB", Target: "Forg"},
		{Kind: ActionInvestigate, Actor: "Cop", Target: "Maf"},
		{Kind: ActionSave, Actor: "Doc", Target: "Town"},
		{Kind: ActionTrack, Actor: "Trk", Target: "Maf"},
		{Kind: ActionKill, Actor: "Maf", Target: "Town", Source: KillSourceMafia},
		{Kind: ActionClean, Actor: "Jan", Target: "Town"},
		{Kind: ActionForge, Actor: "Forg", Target: "Town", FakeRole: "cop"},
	}

	res := ResolveNight(intents, rolesBy, alive)

	if len(res.Investigations) != 0 {
		t.Errorf("blocked cop produced investigations: %v", res.Investigations)
	}
	if len(res.SavedPlayers) != 0 {
		t.Errorf("blocked doctor produced saves: %v", names(res.SavedPlayers))
	}
	if len(res.TrackerResults) != 0 {
		t.Errorf("blocked tracker produced results: %v", res.TrackerResults)
	}
	if !res.Deaths["Town"] {
		t.Error("unsaved kill should land")
	}
	if len(res.RevealOverrides) != 0 {
		t.Errorf("blocked janitor/forger produced overrides: %v", res.RevealOverrides)
	}
}

func TestResolve_TrackerSeesVisit(t *testing.T) {
	rolesBy := map[string]roles.Role{
		"Trk": roles.Tracker, "Doc": roles.Doctor, "Town": roles.Villager,
	}
	alive := []string{"Trk", "Doc", "Town"}
	intents := []NightAction{
		{Kind: ActionSave, Actor: "Doc", Target: "Town"},
		{Kind: ActionTrack, Actor: "Trk", Target: "Doc"},
	}

	res := ResolveNight(intents, rolesBy, alive)

	if len(res.TrackerResults) != 1 {
		t.Fatalf("tracker results = %d, want 1", len(res.TrackerResults))
	}
	if got := res.TrackerResults[0].Visited; got != "Town" {
		t.Errorf("visited = %q, want Town", got)
	}
}

func TestResolve_TrackerNullForHomeOrBlockedTarget(t *testing.T) {
	rolesBy := map[string]roles.Role{
		"Trk": roles.Tracker, "Doc": roles.Doctor, "RB": roles.Roleblocker, "Town": roles.Villager,
	}
	alive := []string{"Trk", "Doc", "RB", "Town"}

	// Target stayed home.
	res := ResolveNight([]NightAction{
		{Kind: ActionTrack, Actor: "Trk", Target: "Town"},
	}, rolesBy, alive)
	if res.TrackerResults[0].Visited != "" {
		t.Errorf("stay-home target: visited = %q, want empty", res.TrackerResults[0].Visited)
	}

	// Target acted but was blocked; the tracker cannot tell the difference.
	res = ResolveNight([]NightAction{
		{Kind: ActionBlock, Actor: "RB", Target: "Doc"},
		{Kind: ActionSave, Actor: "Doc", Target: "Town"},
		{Kind: ActionTrack, Actor: "Trk", Target: "Doc"},
	}, rolesBy, alive)
	if res.TrackerResults[0].Visited != "" {
		t.Errorf("blocked target: visited = %q, want empty", res.TrackerResults[0].Visited)
	}
}

func TestResolve_ForgeBeatsClean(t *testing.T) {
	rolesBy := map[string]roles.Role{
		"Jan": roles.Janitor, "Forg": roles.Forger, "Maf": roles.Mafia, "Town": roles.Villager,
	}
	alive := []string{"Jan", "Forg", "Maf", "Town"}
	intents := []NightAction{
		{Kind: ActionKill, Actor: "Maf", Target: "Town", Source: KillSourceMafia},
		{Kind: ActionClean, Actor: "Jan", Target: "Town"},
		{Kind: ActionForge, Actor: "Forg", Target: "Town", FakeRole: "cop"},
	}

	res := ResolveNight(intents, rolesBy, alive)

	if len(res.RevealOverrides) != 1 {
		t.Fatalf("overrides = %d, want 1", len(res.RevealOverrides))
	}
	ov := res.RevealOverrides[0]
	if ov.Player != "Town" || ov.Role != "cop" {
		t.Errorf("override = %+v, want Town forged as cop", ov)
	}
}

func TestResolve_CleanHidesReveal(t *testing.T) {
	rolesBy := map[string]roles.Role{
		"Jan": roles.Janitor, "Maf": roles.Mafia, "Town": roles.Villager,
	}
	alive := []string{"Jan", "Maf", "Town"}
	intents := []NightAction{
		{Kind: ActionKill, Actor: "Maf", Target: "Town", Source: KillSourceMafia},
		{Kind: ActionClean, Actor: "Jan", Target: "Town"},
	}

	res := ResolveNight(intents, rolesBy, alive)

	if len(res.RevealOverrides) != 1 {
		t.Fatalf("overrides = %d, want 1", len(res.RevealOverrides))
	}
	if ov := res.RevealOverrides[0]; ov.Player != "Town" || ov.Role != "" {
		t.Errorf("override = %+v, want Town with hidden role", ov)
	}
}

func TestResolve_NoOverrideForSurvivors(t *testing.T) {
	rolesBy := map[string]roles.Role{
		"Jan": roles.Janitor, "Doc": roles.Doctor, "Maf": roles.Mafia, "Town": roles.Villager,
	}
	alive := []string{"Jan", "Doc", "Maf", "Town"}
	intents := []NightAction{
		{Kind: ActionSave, Actor: "Doc", Target: "Town"},
		{Kind: ActionKill, Actor: "Maf", Target: "Town", Source: KillSourceMafia},
		{Kind: ActionClean, Actor: "Jan", Target: "Town"},
	}

	res := ResolveNight(intents, rolesBy, alive)

	if len(res.RevealOverrides) != 0 {
		t.Errorf("survivor got an override: %v", res.RevealOverrides)
	}
}

func TestResolve_JailProtectsAndBlocks(t *testing.T) {
	rolesBy := map[string]roles.Role{
		"JK": roles.Jailkeeper, "Vig": roles.Vigilante, "Maf": roles.Mafia, "Town": roles.Villager,
	}
	alive := []string{"JK", "Vig", "Maf", "Town"}
	intents := []NightAction{
		{Kind: ActionJail, Actor: "JK", Target: "Vig"},
		{Kind: ActionKill, Actor: "Vig", Target: "Town", Source: KillSourceVigilante},
		{Kind: ActionKill, Actor: "Maf", Target: "Vig", Source: KillSourceMafia},
	}

	res := ResolveNight(intents, rolesBy, alive)

	if len(res.Deaths) != 0 {
		t.Errorf("deaths = %v, want empty: jailed vigilante is blocked and protected", names(res.Deaths))
	}
	for _, k := range res.Kills {
		switch k.Actor {
		case "Vig":
			if !k.Blocked {
				t.Error("jailed vigilante's kill should be blocked")
			}
		case "Maf":
			if !k.Saved {
				t.Error("kill on jailed target should be saved")
			}
		}
	}
}

func TestResolve_DeathsNeverMafiaAligned(t *testing.T) {
	// Property check over a busy night: after the defensive filter, no
	// death may be mafia-aligned except bomb retaliation victims.
	rolesBy := map[string]roles.Role{
		"GF": roles.Godfather, "Maf": roles.Mafia, "Vig": roles.Vigilante,
		"Cop": roles.Cop, "Town": roles.Villager,
	}
	alive := []string{"GF", "Maf", "Vig", "Cop", "Town"}
	intents := []NightAction{
		{Kind: ActionKill, Actor: "Vig", Target: "GF", Source: KillSourceVigilante},
		{Kind: ActionKill, Actor: "Maf", Target: "Cop", Source: KillSourceMafia},
		{Kind: ActionKill, Actor: "GF", Target: "Maf", Source: KillSourceMafia},
	}

	res := ResolveNight(intents, rolesBy, alive)

	for victim := range res.Deaths {
		if roles.IsMafiaAligned(rolesBy[victim]) && !res.BombRetaliations[victim] {
			t.Errorf("mafia-aligned %s died outside bomb retaliation", victim)
		}
	}
	if !res.Deaths["Cop"] {
		t.Error("cop should die")
	}
}

func TestResolve_UnknownRoleDefaultsInnocent(t *testing.T) {
	rolesBy := map[string]roles.Role{"Cop": roles.Cop}
	alive := []string{"Cop", "Ghost"}
	intents := []NightAction{
		{Kind: ActionInvestigate, Actor: "Cop", Target: "Ghost"},
		{Kind: ActionKill, Actor: "Ghost", Target: "Cop", Source: KillSourceMafia},
	}

	res := ResolveNight(intents, rolesBy, alive)

	if res.Investigations[0].Result != InvestigationInnocent {
		t.Errorf("unknown role should read innocent, got %s", res.Investigations[0].Result)
	}
	if !res.Deaths["Cop"] {
		t.Error("kill from unknown actor still resolves")
	}
}

func TestResolve_EmptyNight(t *testing.T) {
	res := ResolveNight(nil, nil, nil)
	if len(res.Deaths) != 0 || len(res.Kills) != 0 || len(res.BlockedPlayers) != 0 {
		t.Errorf("empty night must resolve to nothing: %+v", res)
	}
}
