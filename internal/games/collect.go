package games

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/AudricY/ai-mafia-sub000/internal/roles"
)

// Decider is the slice of the agent boundary the engine consumes. It is
// satisfied by agent.Safe; collectors assume calls never block forever
// and treat any error as "skip this actor".
type Decider interface {
	Decide(ctx context.Context, actor, situation string, options []string) (string, error)
	Respond(ctx context.Context, actor, situation string) (string, error)
}

// SkipOption is the non-target choice offered where a role may hold fire.
const SkipOption = "nobody"

// nightView is the immutable snapshot collectors read. They never touch
// the live game state, so the concurrent fan-out needs no locking.
type nightView struct {
	round int
	alive []string
	roles map[string]roles.Role
}

func viewOf(st *GameState) *nightView {
	return &nightView{
		round: st.Round,
		alive: st.Alive(),
		roles: st.RolesByPlayer(),
	}
}

// othersAlive lists living players except the given one, in turn order.
func (v *nightView) othersAlive(except string) []string {
	out := []string{}
	for _, name := range v.alive {
		if name != except {
			out = append(out, name)
		}
	}
	return out
}

// nonMafiaAlive lists living players outside the mafia faction.
func (v *nightView) nonMafiaAlive() []string {
	out := []string{}
	for _, name := range v.alive {
		if !roles.IsMafiaAligned(v.roles[name]) {
			out = append(out, name)
		}
	}
	return out
}

// collectorID orders the concurrent collectors. The merge after the join
// concatenates by this identity, never by completion time, so a seeded
// run always resolves the same way.
type collectorID int

const (
	collectJail collectorID = iota
	collectBlock
	collectCouncil
	collectCop
	collectDoctor
	collectVigilante
	collectTracker
	collectMason // notices only, emits no intents
	collectorCount
)

// CollectNightActions fans out every role collector (and the mafia
// council) against the agent boundary, joins them, and returns the merged
// intent list in canonical order.
func (r *Runner) CollectNightActions(ctx context.Context, st *GameState) []NightAction {
	view := viewOf(st)

	results := make([][]NightAction, collectorCount)
	var wg sync.WaitGroup
	for id := collectorID(0); id < collectorCount; id++ {
		wg.Add(1)
		go func(id collectorID) {
			defer wg.Done()
			// A broken collector loses its own intents, never the night.
			defer func() {
				if p := recover(); p != nil {
					r.log.Error().Interface("panic", p).Int("collector", int(id)).
						Msg("collector panicked, skipping its intents")
				}
			}()
			results[id] = r.runCollector(ctx, id, view)
		}(id)
	}
	wg.Wait()

	merged := []NightAction{}
	for id := collectorID(0); id < collectorCount; id++ {
		merged = append(merged, results[id]...)
	}
	return merged
}

func (r *Runner) runCollector(ctx context.Context, id collectorID, view *nightView) []NightAction {
	switch id {
	case collectJail:
		return r.collectTargeted(ctx, view, roles.Jailkeeper, ActionJail, false, false,
			"Choose a player to jail tonight. They will be protected but their action is cancelled.")
	case collectBlock:
		return r.collectTargeted(ctx, view, roles.Roleblocker, ActionBlock, false, false,
			"Choose a player to roleblock tonight. Their night action will have no effect.")
	case collectCouncil:
		return r.collectCouncil(ctx, view)
	case collectCop:
		return r.collectTargeted(ctx, view, roles.Cop, ActionInvestigate, false, false,
			"Choose a player to investigate tonight. You will learn whether they read as mafia.")
	case collectDoctor:
		return r.collectTargeted(ctx, view, roles.Doctor, ActionSave, true, false,
			"Choose a player to protect tonight. You may protect yourself.")
	case collectVigilante:
		return r.collectTargeted(ctx, view, roles.Vigilante, ActionKill, false, true,
			"Choose a player to shoot tonight, or hold your fire.")
	case collectTracker:
		return r.collectTargeted(ctx, view, roles.Tracker, ActionTrack, false, false,
			"Choose a player to follow tonight. You will learn who they visited.")
	case collectMason:
		r.noticeMasons(view)
		return nil
	}
	return nil
}

// collectTargeted is the shared shape of a single-target collector: list
// holders, filter valid living targets, ask, translate to an intent. An
// empty target list skips the actor; a skip choice emits nothing.
func (r *Runner) collectTargeted(ctx context.Context, view *nightView, role roles.Role, kind ActionKind, canSelf, canSkip bool, prompt string) []NightAction {
	out := []NightAction{}
	for _, actor := range view.alive {
		if view.roles[actor] != role {
			continue
		}
		targets := view.othersAlive(actor)
		if canSelf {
			targets = view.alive
		}
		if len(targets) == 0 {
			continue
		}
		options := targets
		if canSkip {
			options = append(append([]string{}, targets...), SkipOption)
		}
		situation := fmt.Sprintf("Night %d. You are the %s. %s Living players: %s.",
			view.round, role, prompt, strings.Join(view.alive, ", "))
		choice, err := r.agents.Decide(ctx, actor, situation, options)
		if err != nil || choice == SkipOption {
			continue
		}
		action := NightAction{Kind: kind, Actor: actor, Target: choice}
		if kind == ActionKill {
			action.Source = KillSourceVigilante
		}
		out = append(out, action)
		r.sink.Emit(Event{
			Kind:    EventNotice,
			Actor:   actor,
			Content: fmt.Sprintf("You chose %s as your %s target.", choice, kind),
		})
	}
	return out
}

// noticeMasons tells each mason who the others are on the first night.
func (r *Runner) noticeMasons(view *nightView) {
	if view.round != 1 {
		return
	}
	masons := []string{}
	for _, name := range view.alive {
		if view.roles[name] == roles.Mason {
			masons = append(masons, name)
		}
	}
	if len(masons) < 2 {
		return
	}
	for _, m := range masons {
		others := []string{}
		for _, o := range masons {
			if o != m {
				others = append(others, o)
			}
		}
		r.sink.Emit(Event{
			Kind:    EventNotice,
			Actor:   m,
			Content: fmt.Sprintf("You are a mason. Your fellow masons: %s.", strings.Join(others, ", ")),
		})
	}
}
