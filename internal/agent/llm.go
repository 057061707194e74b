package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/AudricY/ai-mafia-sub000/internal/openrouter"
)

// ChatClient is the slice of the OpenRouter client the LLM agent needs.
type ChatClient interface {
	ChatCompletion(ctx context.Context, model string, messages []openrouter.Message) (*openrouter.ChatResponse, error)
}

// LLM plays every seat through a chat model. One instance serves all
// actors; the actor name goes into the system prompt so the model stays
// in character per seat.
type LLM struct {
	client ChatClient
	model  string
}

// NewLLM creates an LLM agent using the given model ID.
func NewLLM(client ChatClient, model string) *LLM {
	return &LLM{client: client, model: model}
}

// Decide asks the model to pick exactly one of options. The answer is
// matched case-insensitively against the list; anything else is an error
// so the Safe wrapper can apply its fallback.
func (l *LLM) Decide(ctx context.Context, actor, situation string, options []string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("no options")
	}
	prompt := fmt.Sprintf(
		"%s\n\nAnswer with exactly one of the following, and nothing else: %s",
		situation, strings.Join(options, ", "))

	resp, err := l.client.ChatCompletion(ctx, l.model, []openrouter.Message{
		{Role: "system", Content: systemPrompt(actor)},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return "", fmt.Errorf("decide for %s: %w", actor, err)
	}

	answer := strings.TrimSpace(resp.Text())
	for _, opt := range options {
		if strings.EqualFold(answer, opt) {
			return opt, nil
		}
	}
	// Models love to wrap the answer in a sentence; accept a unique
	// substring match before giving up.
	var match string
	for _, opt := range options {
		if strings.Contains(strings.ToLower(answer), strings.ToLower(opt)) {
			if match != "" {
				return "", fmt.Errorf("decide for %s: ambiguous answer %q", actor, answer)
			}
			match = opt
		}
	}
	if match == "" {
		return "", fmt.Errorf("decide for %s: answer %q matches no option", actor, answer)
	}
	return match, nil
}

// Respond asks the model for free text.
func (l *LLM) Respond(ctx context.Context, actor, situation string) (string, error) {
	resp, err := l.client.ChatCompletion(ctx, l.model, []openrouter.Message{
		{Role: "system", Content: systemPrompt(actor)},
		{Role: "user", Content: situation},
	})
	if err != nil {
		return "", fmt.Errorf("respond for %s: %w", actor, err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

func systemPrompt(actor string) string {
	return fmt.Sprintf(
		"You are %s, a player in a social deduction game of mafia. "+
			"Play to win for your own role and team. Keep answers short. "+
			"Never reveal information your character could not know.", actor)
}
