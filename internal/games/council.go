package games

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AudricY/ai-mafia-sub000/internal/roles"
)

// councilPlan is the structured plan the council leader authors. Missing
// or invalid fields are dropped silently, per capability.
type councilPlan struct {
	Kill     string `json:"kill"`
	Block    string `json:"block"`
	Frame    string `json:"frame"`
	Clean    string `json:"clean"`
	Forge    string `json:"forge"`
	FakeRole string `json:"fake_role"`
}

// collectCouncil coordinates the mafia-aligned sub-roles into one plan
// and expands it into intents. The leader is the godfather if one lives,
// else a plain mafia, else the first remaining member. A malformed leader
// response degrades to a leader-only kill choice; the night is never
// stalled by a bad plan.
func (r *Runner) collectCouncil(ctx context.Context, view *nightView) []NightAction {
	team := []string{}
	for _, name := range view.alive {
		if roles.IsMafiaAligned(view.roles[name]) {
			team = append(team, name)
		}
	}
	if len(team) == 0 {
		return nil
	}
	leader := councilLeader(team, view.roles)
	candidates := view.nonMafiaAlive()
	if len(candidates) == 0 {
		return nil
	}

	transcript := r.councilDiscussion(ctx, view, team, leader)

	plan, ok := r.leaderPlan(ctx, view, team, leader, candidates, transcript)
	if !ok {
		return r.fallbackKill(ctx, view, leader, candidates)
	}

	valid := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		valid[c] = true
	}

	out := []NightAction{}
	if valid[plan.Kill] {
		out = append(out, NightAction{Kind: ActionKill, Actor: leader, Target: plan.Kill, Source: KillSourceMafia})
	}
	if blocker := firstWithRole(team, view.roles, roles.MafiaRoleblocker); blocker != "" && valid[plan.Block] {
		out = append(out, NightAction{Kind: ActionBlock, Actor: blocker, Target: plan.Block})
	}
	if framer := firstWithRole(team, view.roles, roles.Framer); framer != "" && valid[plan.Frame] {
		out = append(out, NightAction{Kind: ActionFrame, Actor: framer, Target: plan.Frame})
	}
	if janitor := firstWithRole(team, view.roles, roles.Janitor); janitor != "" && valid[plan.Clean] {
		out = append(out, NightAction{Kind: ActionClean, Actor: janitor, Target: plan.Clean})
	}
	if forger := firstWithRole(team, view.roles, roles.Forger); forger != "" && valid[plan.Forge] && plan.FakeRole != "" {
		out = append(out, NightAction{Kind: ActionForge, Actor: forger, Target: plan.Forge, FakeRole: plan.FakeRole})
	}

	if len(out) == 0 {
		// Plan parsed but every target was invalid; same degradation as a
		// malformed plan.
		return r.fallbackKill(ctx, view, leader, candidates)
	}

	r.sink.Emit(Event{
		Kind:    EventTeamNotice,
		Actor:   leader,
		Content: fmt.Sprintf("The council settled on its plan for night %d.", view.round),
		Meta:    map[string]interface{}{"team": team},
	})
	return out
}

// councilDiscussion runs the bounded rounds of team talk before the
// leader commits to a plan.
func (r *Runner) councilDiscussion(ctx context.Context, view *nightView, team []string, leader string) []string {
	transcript := []string{}
	for round := 0; round < r.config.CouncilRounds; round++ {
		for _, member := range team {
			situation := fmt.Sprintf(
				"Night %d mafia council. Team: %s. Leader: %s. Discussion so far: %s. Share your thoughts on tonight's targets.",
				view.round, strings.Join(team, ", "), leader, transcriptText(transcript))
			text, err := r.agents.Respond(ctx, member, situation)
			if err != nil || text == "" {
				continue
			}
			transcript = append(transcript, fmt.Sprintf("%s: %s", member, text))
			r.sink.Emit(Event{
				Kind:    EventTeamNotice,
				Actor:   member,
				Content: text,
				Meta:    map[string]interface{}{"team": team},
			})
		}
	}
	return transcript
}

// leaderPlan asks the leader for the structured plan and parses it.
func (r *Runner) leaderPlan(ctx context.Context, view *nightView, team []string, leader string, candidates []string, transcript []string) (councilPlan, bool) {
	situation := fmt.Sprintf(
		"Night %d mafia council. You lead the team (%s). Valid targets: %s. Discussion: %s. "+
			`Reply with JSON only: {"kill": "...", "block": "...", "frame": "...", "clean": "...", "forge": "...", "fake_role": "..."}. `+
			"Leave a field empty to skip that action.",
		view.round, strings.Join(team, ", "), strings.Join(candidates, ", "), transcriptText(transcript))
	text, err := r.agents.Respond(ctx, leader, situation)
	if err != nil {
		return councilPlan{}, false
	}
	plan, ok := parseCouncilPlan(text)
	if !ok {
		r.sink.Emit(Event{
			Kind:    EventCouncil,
			Actor:   leader,
			Content: "Council plan could not be parsed; falling back to a single kill choice.",
		})
	}
	return plan, ok
}

// fallbackKill is the minimal flow: ask the leader alone for one kill
// target and emit only that intent.
func (r *Runner) fallbackKill(ctx context.Context, view *nightView, leader string, candidates []string) []NightAction {
	situation := fmt.Sprintf("Night %d. Pick tonight's kill target for the mafia.", view.round)
	choice, err := r.agents.Decide(ctx, leader, situation, candidates)
	if err != nil {
		return nil
	}
	return []NightAction{{Kind: ActionKill, Actor: leader, Target: choice, Source: KillSourceMafia}}
}

// parseCouncilPlan extracts the first JSON object from free text. Models
// tend to wrap the object in prose; everything around it is ignored.
func parseCouncilPlan(text string) (councilPlan, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return councilPlan{}, false
	}
	var plan councilPlan
	if err := json.Unmarshal([]byte(text[start:end+1]), &plan); err != nil {
		return councilPlan{}, false
	}
	return plan, true
}

// councilLeader picks the plan author: godfather, then plain mafia, then
// whoever is first.
func councilLeader(team []string, rolesBy map[string]roles.Role) string {
	if gf := firstWithRole(team, rolesBy, roles.Godfather); gf != "" {
		return gf
	}
	if m := firstWithRole(team, rolesBy, roles.Mafia); m != "" {
		return m
	}
	return team[0]
}

func firstWithRole(team []string, rolesBy map[string]roles.Role, r roles.Role) string {
	for _, name := range team {
		if rolesBy[name] == r {
			return name
		}
	}
	return ""
}

func transcriptText(transcript []string) string {
	if len(transcript) == 0 {
		return "(none yet)"
	}
	return strings.Join(transcript, " | ")
}
