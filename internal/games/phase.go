package games

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/AudricY/ai-mafia-sub000/internal/roles"
)

// Runner drives one game through the night -> day discussion -> day
// voting loop until a win or an abort. It owns all mutation of the game
// state; collectors and the resolver only read snapshots.
type Runner struct {
	agents Decider
	base   Sink
	sink   Sink
	config RulesConfig
	log    zerolog.Logger

	// Checkpoint, when set, is called after every phase with the current
	// state (e.g. to persist a snapshot). A checkpoint error aborts the
	// run.
	Checkpoint func(ctx context.Context, st *GameState) error
}

// NewRunner creates a runner over the given agent boundary and event
// sink.
func NewRunner(agents Decider, sink Sink, cfg RulesConfig, log zerolog.Logger) *Runner {
	if sink == nil {
		sink = NopSink
	}
	return &Runner{
		agents: agents,
		base:   sink,
		sink:   sink,
		config: cfg.Normalize(),
		log:    log,
	}
}

// Run plays the game to completion. The returned error is non-nil only
// for an abort; a normal win returns nil with st.Winners populated.
func (r *Runner) Run(ctx context.Context, st *GameState) error {
	r.sink = MultiSink(historySink(st), r.base)

	for _, name := range st.Order {
		r.sink.Emit(Event{
			Kind:    EventRoleAssigned,
			Actor:   name,
			Content: fmt.Sprintf("You are the %s.", st.Players[name].Role),
		})
	}
	r.emitPhase(st)

	for !st.Over() {
		if err := ctx.Err(); err != nil {
			return r.abort(ctx, st, fmt.Errorf("run cancelled: %w", err))
		}
		if err := r.runRound(ctx, st); err != nil {
			return r.abort(ctx, st, err)
		}
		if !st.Over() && st.Round > r.config.MaxRounds {
			return r.abort(ctx, st, fmt.Errorf("round limit %d reached", r.config.MaxRounds))
		}
	}
	return nil
}

// runRound advances one full night+day cycle. Any panic inside a phase
// surfaces as an error so the loop can abort instead of crashing the
// process.
func (r *Runner) runRound(ctx context.Context, st *GameState) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("phase %s round %d: %v", st.Phase, st.Round, p)
		}
	}()

	r.runNight(ctx, st)
	if err := r.checkpoint(ctx, st); err != nil {
		return err
	}
	if r.checkWin(st) {
		return nil
	}

	st.Phase = PhaseDayDiscussion
	r.emitPhase(st)
	r.runDiscussion(ctx, st)
	if err := r.checkpoint(ctx, st); err != nil {
		return err
	}

	st.Phase = PhaseDayVoting
	r.emitPhase(st)
	r.runVoting(ctx, st)
	if err := r.checkpoint(ctx, st); err != nil {
		return err
	}
	if st.Over() || r.checkWin(st) {
		return nil
	}

	st.Round++
	st.Phase = PhaseNight
	r.emitPhase(st)
	return nil
}

// runNight fans out the collectors, resolves the merged intents, and
// applies the outcome to the state.
func (r *Runner) runNight(ctx context.Context, st *GameState) {
	intents := r.CollectNightActions(ctx, st)
	res := ResolveNight(intents, st.RolesByPlayer(), st.Alive())
	r.applyNight(st, res)
}

func (r *Runner) applyNight(st *GameState, res *ResolvedNight) {
	for _, name := range st.Order {
		if res.BlockedPlayers[name] {
			r.sink.Emit(Event{
				Kind:    EventBlock,
				Actor:   name,
				Content: "Your night action was blocked.",
			})
		}
	}
	for _, inv := range res.Investigations {
		r.sink.Emit(Event{
			Kind:    EventInvestigation,
			Actor:   inv.Actor,
			Content: fmt.Sprintf("Your investigation of %s came back: %s.", inv.Target, inv.Result),
			Meta:    map[string]interface{}{"target": inv.Target, "result": inv.Result},
		})
	}
	for _, tr := range res.TrackerResults {
		content := fmt.Sprintf("%s did not visit anyone tonight.", tr.Target)
		if tr.Visited != "" {
			content = fmt.Sprintf("%s visited %s tonight.", tr.Target, tr.Visited)
		}
		r.sink.Emit(Event{
			Kind:    EventTrack,
			Actor:   tr.Actor,
			Content: content,
			Meta:    map[string]interface{}{"target": tr.Target, "visited": tr.Visited},
		})
	}
	for _, k := range res.Kills {
		if !k.Saved {
			continue
		}
		r.sink.Emit(Event{
			Kind:    EventKillAttempt,
			Content: fmt.Sprintf("%s was attacked during the night but survived.", k.Target),
			Meta:    map[string]interface{}{"target": k.Target},
		})
	}

	overrides := make(map[string]RevealOverride, len(res.RevealOverrides))
	for _, ov := range res.RevealOverrides {
		overrides[ov.Player] = ov
	}
	for _, name := range st.Order {
		if !res.Deaths[name] {
			continue
		}
		reveal := string(st.Players[name].Role)
		if ov, ok := overrides[name]; ok {
			reveal = ov.Role
		}
		st.Kill(name)
		content := fmt.Sprintf("%s died during the night. Their role could not be determined.", name)
		if reveal != "" {
			content = fmt.Sprintf("%s died during the night. They were the %s.", name, reveal)
		}
		meta := map[string]interface{}{"revealed_role": reveal}
		if res.BombRetaliations[name] {
			meta["bomb_retaliation"] = true
		}
		r.sink.Emit(Event{Kind: EventDeath, Actor: name, Content: content, Meta: meta})
	}
}

// runDiscussion runs the turn-based public speaking rounds. Its only
// output is the transcript of speech events feeding the vote.
func (r *Runner) runDiscussion(ctx context.Context, st *GameState) {
	transcript := []string{}
	for turn := 0; turn < r.config.DiscussionTurns; turn++ {
		for _, name := range st.Alive() {
			situation := fmt.Sprintf(
				"Day %d discussion, turn %d. Living players: %s. Discussion so far: %s. Speak to the town.",
				st.Round, turn+1, strings.Join(st.Alive(), ", "), tailOf(transcript, 20))
			text, err := r.agents.Respond(ctx, name, situation)
			if err != nil || text == "" {
				continue
			}
			transcript = append(transcript, fmt.Sprintf("%s: %s", name, text))
			r.sink.Emit(Event{Kind: EventSpeech, Actor: name, Content: text})
		}
	}
}

// runVoting collects one choice per living player, tallies, and applies
// the elimination and any neutral win it triggers.
func (r *Runner) runVoting(ctx context.Context, st *GameState) {
	alive := st.Alive()
	options := append(append([]string{}, alive...), VoteSkip)

	votes := make(map[string]string, len(alive))
	for _, voter := range alive {
		situation := fmt.Sprintf(
			"Day %d vote. Choose a player to eliminate, or %q.", st.Round, VoteSkip)
		choice, err := r.agents.Decide(ctx, voter, situation, options)
		if err != nil {
			choice = VoteSkip
		}
		votes[voter] = choice
		r.sink.Emit(Event{
			Kind:    EventVote,
			Actor:   voter,
			Content: fmt.Sprintf("%s votes %s.", voter, choice),
			Meta:    map[string]interface{}{"choice": choice},
		})
	}

	eliminated, counts := TallyVotes(votes)
	tally := map[string]interface{}{}
	for choice, n := range counts {
		tally[choice] = n
	}
	if eliminated == "" {
		r.sink.Emit(Event{
			Kind:    EventElimination,
			Content: "The vote was inconclusive. Nobody was eliminated.",
			Meta:    map[string]interface{}{"tally": tally},
		})
		return
	}

	neutralWins := NeutralWinsOnElimination(st, eliminated)
	st.Kill(eliminated)
	r.sink.Emit(Event{
		Kind:    EventElimination,
		Actor:   eliminated,
		Content: fmt.Sprintf("%s was eliminated by the town. They were the %s.", eliminated, st.Players[eliminated].Role),
		Meta:    map[string]interface{}{"revealed_role": string(st.Players[eliminated].Role), "tally": tally},
	})

	for _, name := range neutralWins {
		if containsString(st.NeutralWinners, name) {
			continue
		}
		st.NeutralWinners = append(st.NeutralWinners, name)
		r.sink.Emit(Event{
			Kind:    EventWin,
			Actor:   name,
			Content: fmt.Sprintf("%s achieved their secret goal.", name),
			Meta:    map[string]interface{}{"neutral": true},
		})
	}

	// A neutral win only ends the game when it is the sole win condition:
	// no mafia-aligned role was ever in this game.
	if len(neutralWins) > 0 && !r.anyMafiaInGame(st) {
		st.Phase = PhaseGameOver
		r.sink.Emit(Event{
			Kind:    EventWin,
			Content: fmt.Sprintf("Game over. Winners: %s.", strings.Join(st.NeutralWinners, ", ")),
			Meta:    map[string]interface{}{"neutral_winners": st.NeutralWinners},
		})
	}
}

// checkWin evaluates faction victory and finishes the game when one
// exists.
func (r *Runner) checkWin(st *GameState) bool {
	winner := EvaluateWin(st)
	if winner == "" {
		return false
	}
	st.Winners = []string{winner}
	st.Phase = PhaseGameOver
	r.log.Info().Str("game_id", st.GameID).Str("winner", winner).Int("round", st.Round).Msg("game over")
	r.sink.Emit(Event{
		Kind:    EventWin,
		Content: fmt.Sprintf("Game over. The %s win.", winner),
		Meta: map[string]interface{}{
			"winners":         st.Winners,
			"neutral_winners": st.NeutralWinners,
			"round":           st.Round,
		},
	})
	return true
}

func (r *Runner) abort(ctx context.Context, st *GameState, cause error) error {
	st.AbortReason = cause.Error()
	st.Phase = PhaseGameOver
	r.log.Error().Err(cause).Str("game_id", st.GameID).Msg("game aborted")
	r.sink.Emit(Event{
		Kind:    EventAbort,
		Content: fmt.Sprintf("Game aborted: %s", cause),
	})
	if r.Checkpoint != nil {
		// Best effort; the abort reason matters more than the snapshot.
		_ = r.Checkpoint(ctx, st)
	}
	return cause
}

func (r *Runner) checkpoint(ctx context.Context, st *GameState) error {
	if r.Checkpoint == nil {
		return nil
	}
	if err := r.Checkpoint(ctx, st); err != nil {
		return fmt.Errorf("checkpoint after %s: %w", st.Phase, err)
	}
	return nil
}

func (r *Runner) emitPhase(st *GameState) {
	r.sink.Emit(Event{
		Kind:    EventPhase,
		Content: fmt.Sprintf("Round %d: %s.", st.Round, st.Phase),
		Meta:    map[string]interface{}{"phase": st.Phase, "round": st.Round},
	})
}

// anyMafiaInGame checks all players, dead or alive: the question is
// whether a faction contest ever existed, not whether it still does.
func (r *Runner) anyMafiaInGame(st *GameState) bool {
	for _, p := range st.Players {
		if roles.IsMafiaAligned(p.Role) {
			return true
		}
	}
	return false
}

// historySink appends every event to the state's append-only log. Guarded
// because collectors emit concurrently during the night fan-out.
func historySink(st *GameState) Sink {
	var mu sync.Mutex
	return SinkFunc(func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		st.History = append(st.History, ev)
	})
}

func tailOf(lines []string, n int) string {
	if len(lines) == 0 {
		return "(nothing yet)"
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}

func containsString(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
