package games

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/AudricY/ai-mafia-sub000/internal/roles"
)

// scriptedAgent answers from per-actor queues; out of script, Decide
// takes the first option and Respond stays silent. Safe for the
// concurrent collector fan-out.
type scriptedAgent struct {
	mu        sync.Mutex
	decisions map[string][]string
	responses map[string][]string
}

func (s *scriptedAgent) Decide(ctx context.Context, actor, situation string, options []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q := s.decisions[actor]; len(q) > 0 {
		choice := q[0]
		s.decisions[actor] = q[1:]
		return choice, nil
	}
	if len(options) == 0 {
		return "", context.Canceled
	}
	return options[0], nil
}

func (s *scriptedAgent) Respond(ctx context.Context, actor, situation string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q := s.responses[actor]; len(q) > 0 {
		text := q[0]
		s.responses[actor] = q[1:]
		return text, nil
	}
	return "", nil
}

func testRunner(ag Decider, sink Sink, cfg RulesConfig) *Runner {
	return NewRunner(ag, sink, cfg, zerolog.Nop())
}

func orderedState(players map[string]roles.Role, order []string) *GameState {
	st := &GameState{GameID: "g1", Phase: PhaseNight, Round: 1, Order: order, Players: make(map[string]*Player)}
	for name, r := range players {
		st.Players[name] = &Player{Name: name, Role: r, Alive: true}
	}
	return st
}

func TestCollectNightActions_CanonicalOrder(t *testing.T) {
	st := orderedState(map[string]roles.Role{
		"JK":   roles.Jailkeeper,
		"RB":   roles.Roleblocker,
		"Maf":  roles.Mafia,
		"Cop":  roles.Cop,
		"Doc":  roles.Doctor,
		"Vig":  roles.Vigilante,
		"Trk":  roles.Tracker,
		"Town": roles.Villager,
	}, []string{"JK", "RB", "Maf", "Cop", "Doc", "Vig", "Trk", "Town"})

	ag := &scriptedAgent{decisions: map[string][]string{
		"JK":  {"Town"},
		"RB":  {"Maf"},
		"Maf": {"Cop"}, // council falls back to a plain kill choice
		"Cop": {"Maf"},
		"Doc": {"Town"},
		"Vig": {"Maf"},
		"Trk": {"Doc"},
	}}

	r := testRunner(ag, &MemorySink{}, DefaultRulesConfig())
	intents := r.CollectNightActions(context.Background(), st)

	wantKinds := []ActionKind{
		ActionJail, ActionBlock, ActionKill, ActionInvestigate,
		ActionSave, ActionKill, ActionTrack,
	}
	if len(intents) != len(wantKinds) {
		t.Fatalf("intents = %d (%v), want %d", len(intents), intents, len(wantKinds))
	}
	for i, want := range wantKinds {
		if intents[i].Kind != want {
			t.Errorf("intents[%d].Kind = %s, want %s", i, intents[i].Kind, want)
		}
	}
	// The council kill sits at the fixed council slot and carries the
	// mafia source; the vigilante kill carries its own.
	if intents[2].Source != KillSourceMafia || intents[2].Actor != "Maf" {
		t.Errorf("council kill = %+v", intents[2])
	}
	if intents[5].Source != KillSourceVigilante || intents[5].Actor != "Vig" {
		t.Errorf("vigilante kill = %+v", intents[5])
	}
}

func TestCollectNightActions_OrderIndependentOfCompletion(t *testing.T) {
	// Run the same collection repeatedly; goroutine scheduling must never
	// change the merged order.
	st := orderedState(map[string]roles.Role{
		"JK": roles.Jailkeeper, "RB": roles.Roleblocker, "Cop": roles.Cop,
		"Doc": roles.Doctor, "Trk": roles.Tracker, "Town": roles.Villager,
	}, []string{"JK", "RB", "Cop", "Doc", "Trk", "Town"})

	var first []NightAction
	for i := 0; i < 25; i++ {
		ag := &scriptedAgent{decisions: map[string][]string{
			"JK": {"Town"}, "RB": {"Cop"}, "Cop": {"RB"}, "Doc": {"Doc"}, "Trk": {"Town"},
		}}
		r := testRunner(ag, nil, DefaultRulesConfig())
		got := r.CollectNightActions(context.Background(), st)
		if i == 0 {
			first = got
			continue
		}
		if len(got) != len(first) {
			t.Fatalf("run %d: %d intents, want %d", i, len(got), len(first))
		}
		for j := range got {
			if got[j] != first[j] {
				t.Fatalf("run %d: intents[%d] = %+v, want %+v", i, j, got[j], first[j])
			}
		}
	}
}

func TestCollect_VigilanteCanHoldFire(t *testing.T) {
	st := orderedState(map[string]roles.Role{
		"Vig": roles.Vigilante, "Town": roles.Villager,
	}, []string{"Vig", "Town"})

	ag := &scriptedAgent{decisions: map[string][]string{"Vig": {SkipOption}}}
	r := testRunner(ag, nil, DefaultRulesConfig())
	intents := r.CollectNightActions(context.Background(), st)

	if len(intents) != 0 {
		t.Errorf("intents = %v, want none when the vigilante holds fire", intents)
	}
}

func TestCollect_DoctorMaySelfTarget(t *testing.T) {
	st := orderedState(map[string]roles.Role{
		"Doc": roles.Doctor, "Town": roles.Villager,
	}, []string{"Doc", "Town"})

	ag := &scriptedAgent{decisions: map[string][]string{"Doc": {"Doc"}}}
	r := testRunner(ag, nil, DefaultRulesConfig())
	intents := r.CollectNightActions(context.Background(), st)

	if len(intents) != 1 || intents[0].Kind != ActionSave || intents[0].Target != "Doc" {
		t.Errorf("intents = %v, want a self-save", intents)
	}
}

func TestCollect_NoValidTargetsSkipsActor(t *testing.T) {
	// A lone jailkeeper has nobody to jail: no intent, no error.
	st := orderedState(map[string]roles.Role{"JK": roles.Jailkeeper}, []string{"JK"})

	r := testRunner(&scriptedAgent{}, nil, DefaultRulesConfig())
	intents := r.CollectNightActions(context.Background(), st)

	if len(intents) != 0 {
		t.Errorf("intents = %v, want none", intents)
	}
}

func TestCollect_DeadPlayersDoNotAct(t *testing.T) {
	st := orderedState(map[string]roles.Role{
		"Cop": roles.Cop, "Town": roles.Villager, "Maf": roles.Mafia,
	}, []string{"Cop", "Town", "Maf"})
	st.Players["Cop"].Alive = false

	ag := &scriptedAgent{decisions: map[string][]string{"Maf": {"Town"}}}
	r := testRunner(ag, nil, DefaultRulesConfig())
	intents := r.CollectNightActions(context.Background(), st)

	for _, in := range intents {
		if in.Actor == "Cop" {
			t.Errorf("dead cop acted: %+v", in)
		}
	}
}

func TestCollect_MasonNoticesFirstNightOnly(t *testing.T) {
	st := orderedState(map[string]roles.Role{
		"M1": roles.Mason, "M2": roles.Mason, "Town": roles.Villager,
	}, []string{"M1", "M2", "Town"})

	sink := &MemorySink{}
	r := testRunner(&scriptedAgent{}, sink, DefaultRulesConfig())
	r.CollectNightActions(context.Background(), st)

	notices := sink.ByKind(EventNotice)
	if len(notices) != 2 {
		t.Fatalf("mason notices = %d, want 2", len(notices))
	}

	st.Round = 2
	sink2 := &MemorySink{}
	r2 := testRunner(&scriptedAgent{}, sink2, DefaultRulesConfig())
	r2.CollectNightActions(context.Background(), st)
	if n := len(sink2.ByKind(EventNotice)); n != 0 {
		t.Errorf("round 2 mason notices = %d, want 0", n)
	}
}
