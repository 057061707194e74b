package games

import (
	"context"
	"testing"

	"github.com/AudricY/ai-mafia-sub000/internal/roles"
)

func TestCouncil_FullPlanExpandsPerCapability(t *testing.T) {
	st := orderedState(map[string]roles.Role{
		"GF":   roles.Godfather,
		"RBm":  roles.MafiaRoleblocker,
		"Fram": roles.Framer,
		"Jan":  roles.Janitor,
		"Forg": roles.Forger,
		"Cop":  roles.Cop,
		"Doc":  roles.Doctor,
		"V1":   roles.Villager,
		"V2":   roles.Villager,
	}, []string{"GF", "RBm", "Fram", "Jan", "Forg", "Cop", "Doc", "V1", "V2"})

	ag := &scriptedAgent{responses: map[string][]string{
		"GF": {
			"the team has spoken",
			`Here is the plan: {"kill": "Cop", "block": "Doc", "frame": "V1", "clean": "Cop", "forge": "V2", "fake_role": "doctor"}`,
		},
	}}
	r := testRunner(ag, &MemorySink{}, DefaultRulesConfig())

	out := r.collectCouncil(context.Background(), viewOf(st))

	want := []NightAction{
		{Kind: ActionKill, Actor: "GF", Target: "Cop", Source: KillSourceMafia},
		{Kind: ActionBlock, Actor: "RBm", Target: "Doc"},
		{Kind: ActionFrame, Actor: "Fram", Target: "V1"},
		{Kind: ActionClean, Actor: "Jan", Target: "Cop"},
		{Kind: ActionForge, Actor: "Forg", Target: "V2", FakeRole: "doctor"},
	}
	if len(out) != len(want) {
		t.Fatalf("intents = %v, want %v", out, want)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("intents[%d] = %+v, want %+v", i, out[i], want[i])
		}
	}
}

func TestCouncil_InvalidTargetsDroppedSilently(t *testing.T) {
	st := orderedState(map[string]roles.Role{
		"GF": roles.Godfather, "Fram": roles.Framer, "Cop": roles.Cop, "V1": roles.Villager,
	}, []string{"GF", "Fram", "Cop", "V1"})

	// Kill target is a teammate, frame target is unknown; only a plan with
	// no usable field falls back, one bad field is just dropped.
	ag := &scriptedAgent{responses: map[string][]string{
		"GF": {
			"kill the cop tonight",
			`{"kill": "Cop", "frame": "Nobody Real", "block": "Fram"}`,
		},
	}}
	r := testRunner(ag, nil, DefaultRulesConfig())

	out := r.collectCouncil(context.Background(), viewOf(st))

	if len(out) != 1 {
		t.Fatalf("intents = %v, want only the kill", out)
	}
	if out[0].Kind != ActionKill || out[0].Target != "Cop" {
		t.Errorf("intent = %+v, want kill Cop", out[0])
	}
}

func TestCouncil_MalformedPlanFallsBackToSingleKill(t *testing.T) {
	st := orderedState(map[string]roles.Role{
		"Maf": roles.Mafia, "Cop": roles.Cop, "V1": roles.Villager,
	}, []string{"Maf", "Cop", "V1"})

	ag := &scriptedAgent{
		responses: map[string][]string{"Maf": {
			"thinking out loud",
			"I refuse to answer in the requested format",
		}},
		decisions: map[string][]string{"Maf": {"Cop"}},
	}
	sink := &MemorySink{}
	r := testRunner(ag, sink, DefaultRulesConfig())

	out := r.collectCouncil(context.Background(), viewOf(st))

	if len(out) != 1 || out[0].Kind != ActionKill || out[0].Target != "Cop" || out[0].Source != KillSourceMafia {
		t.Fatalf("intents = %v, want a single mafia kill on Cop", out)
	}
	if n := len(sink.ByKind(EventCouncil)); n != 1 {
		t.Errorf("council fallback events = %d, want 1", n)
	}
}

func TestCouncil_AllTargetsInvalidFallsBack(t *testing.T) {
	st := orderedState(map[string]roles.Role{
		"Maf": roles.Mafia, "V1": roles.Villager,
	}, []string{"Maf", "V1"})

	ag := &scriptedAgent{
		responses: map[string][]string{"Maf": {"", `{"kill": "Maf"}`}},
		decisions: map[string][]string{"Maf": {"V1"}},
	}
	r := testRunner(ag, nil, DefaultRulesConfig())

	out := r.collectCouncil(context.Background(), viewOf(st))
	if len(out) != 1 || out[0].Target != "V1" {
		t.Fatalf("intents = %v, want fallback kill on V1", out)
	}
}

func TestCouncil_LeaderPriority(t *testing.T) {
	rolesBy := map[string]roles.Role{
		"A": roles.Forger, "B": roles.Mafia, "C": roles.Godfather,
	}
	if got := councilLeader([]string{"A", "B", "C"}, rolesBy); got != "C" {
		t.Errorf("leader = %s, want godfather", got)
	}
	delete(rolesBy, "C")
	if got := councilLeader([]string{"A", "B"}, rolesBy); got != "B" {
		t.Errorf("leader = %s, want plain mafia", got)
	}
	delete(rolesBy, "B")
	if got := councilLeader([]string{"A"}, rolesBy); got != "A" {
		t.Errorf("leader = %s, want first remaining member", got)
	}
}

func TestCouncil_NoMafiaNoIntents(t *testing.T) {
	st := orderedState(map[string]roles.Role{
		"Cop": roles.Cop, "V1": roles.Villager,
	}, []string{"Cop", "V1"})
	r := testRunner(&scriptedAgent{}, nil, DefaultRulesConfig())
	if out := r.collectCouncil(context.Background(), viewOf(st)); len(out) != 0 {
		t.Errorf("intents = %v, want none without mafia", out)
	}
}

func TestParseCouncilPlan(t *testing.T) {
	plan, ok := parseCouncilPlan(`Sure! {"kill": "Cop", "fake_role": "villager"} hope that helps`)
	if !ok || plan.Kill != "Cop" || plan.FakeRole != "villager" {
		t.Errorf("plan = %+v ok=%v", plan, ok)
	}
	if _, ok := parseCouncilPlan("no json here"); ok {
		t.Error("expected parse failure for plain prose")
	}
	if _, ok := parseCouncilPlan(`{"kill": `); ok {
		t.Error("expected parse failure for truncated json")
	}
}
