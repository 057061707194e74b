// Package agent is the decision-making boundary: something that turns a
// game situation into a chosen option or a free-text message. The engine
// never cares whether that is a language model, a policy, or a script.
package agent

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/rs/zerolog"
)

// Agent chooses among options or responds with free text for one actor.
// Both calls may suspend on an external service and may fail; callers are
// expected to wrap them with Safe for timeout and fallback handling.
type Agent interface {
	Decide(ctx context.Context, actor, situation string, options []string) (string, error)
	Respond(ctx context.Context, actor, situation string) (string, error)
}

// Safe wraps an Agent with a per-call timeout and safe defaults, so a
// non-responsive participant can never stall a phase. A failed or invalid
// Decide degrades to the first option; a failed Respond degrades to an
// empty message.
type Safe struct {
	Inner   Agent
	Timeout time.Duration
	Logger  zerolog.Logger
}

// NewSafe wraps inner with the given per-call timeout.
func NewSafe(inner Agent, timeout time.Duration, logger zerolog.Logger) *Safe {
	return &Safe{Inner: inner, Timeout: timeout, Logger: logger}
}

// Decide returns one of options, falling back to options[0] on timeout,
// error, or an out-of-list answer. An empty options list is an error in
// the caller; Decide returns "" for it.
func (s *Safe) Decide(ctx context.Context, actor, situation string, options []string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("decide for %s: no options", actor)
	}
	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	choice, err := s.Inner.Decide(callCtx, actor, situation, options)
	if err != nil {
		s.Logger.Warn().Err(err).Str("actor", actor).Msg("decide failed, using first option")
		return options[0], nil
	}
	for _, opt := range options {
		if opt == choice {
			return choice, nil
		}
	}
	s.Logger.Warn().Str("actor", actor).Str("choice", choice).Msg("decide returned unknown option, using first option")
	return options[0], nil
}

// Respond returns free text, degrading to "" on timeout or error.
func (s *Safe) Respond(ctx context.Context, actor, situation string) (string, error) {
	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	text, err := s.Inner.Respond(callCtx, actor, situation)
	if err != nil {
		s.Logger.Warn().Err(err).Str("actor", actor).Msg("respond failed, staying silent")
		return "", nil
	}
	return text, nil
}

func (s *Safe) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.Timeout)
}

// Random is a seeded policy agent: a uniform-ish choice among options,
// canned responses. Each call hashes (seed, actor, situation) so the
// answer does not depend on which goroutine asked first; the same seed
// and game state always produce the same decisions.
type Random struct {
	seed int64
}

// NewRandom creates a Random agent from a seed.
func NewRandom(seed int64) *Random {
	return &Random{seed: seed}
}

func (r *Random) Decide(ctx context.Context, actor, situation string, options []string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("no options")
	}
	return options[r.pick(actor, situation, len(options))], nil
}

func (r *Random) Respond(ctx context.Context, actor, situation string) (string, error) {
	lines := []string{
		"I have nothing to add.",
		"I am suspicious of the quiet ones.",
		"We should compare notes on last night.",
		"I am just a villager trying to survive.",
	}
	return lines[r.pick(actor, situation, len(lines))], nil
}

func (r *Random) pick(actor, situation string, n int) int {
	h := fnv.New64a()
	h.Write([]byte(actor))
	h.Write([]byte{0})
	h.Write([]byte(situation))
	return int((h.Sum64() ^ uint64(r.seed)) % uint64(n))
}
