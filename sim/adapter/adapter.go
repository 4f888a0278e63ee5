// Package adapter turns "it's your turn" into raw move text.
//
// Adapters never return errors: any failure is signaled by returning a string
// prefixed with ErrorPrefix. That sentinel is the sole error channel between
// adapters and their consumers; only the composite FALLBACK and PIPELINE
// strategies branch on it.
package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/match-sim/match-sim/sim"
)

// ErrorPrefix marks an adapter response as a failure sentinel.
const ErrorPrefix = "[Error]"

// IsError reports whether an adapter response is the failure sentinel.
func IsError(text string) bool {
	return strings.HasPrefix(text, ErrorPrefix)
}

// Errorf formats a sentinel response.
func Errorf(format string, args ...any) string {
	return ErrorPrefix + " " + fmt.Sprintf(format, args...)
}

// Adapter generates the next move for a role given the engine's rendered
// prompt and the match history so far.
type Adapter interface {
	GenerateMove(ctx context.Context, systemPrompt string, history []sim.GameEvent) string
}

// ResolveFunc maps a participant's (provider, modelID) pair to an Adapter.
// Provider "composite" resolves to a Composite bound to a stored
// CompositeConfig.
type ResolveFunc func(provider, modelID string) (Adapter, error)

// SerializeHistory renders a ledger as one line per event for inclusion in
// prompts and pipeline templates.
func SerializeHistory(history []sim.GameEvent) string {
	var sb strings.Builder
	for _, ev := range history {
		payload := ""
		if len(ev.Payload) > 0 {
			if raw, err := json.Marshal(ev.Payload); err == nil {
				payload = " " + string(raw)
			}
		}
		fmt.Fprintf(&sb, "[%d] %s %s%s\n", ev.Turn, ev.Actor, ev.Type, payload)
	}
	return sb.String()
}

// Scripted is a deterministic stub adapter that replays a fixed move list,
// cycling when exhausted. Used by tests and offline CLI matches.
type Scripted struct {
	moves []string
	next  int
}

// NewScripted creates a Scripted adapter. At least one move is required.
func NewScripted(moves ...string) *Scripted {
	return &Scripted{moves: moves}
}

// GenerateMove returns the next scripted move.
func (s *Scripted) GenerateMove(ctx context.Context, systemPrompt string, history []sim.GameEvent) string {
	if len(s.moves) == 0 {
		return Errorf("scripted adapter has no moves")
	}
	move := s.moves[s.next%len(s.moves)]
	s.next++
	return move
}

// Func adapts a plain function to the Adapter interface. Test helper.
type Func func(ctx context.Context, systemPrompt string, history []sim.GameEvent) string

// GenerateMove calls the wrapped function.
func (f Func) GenerateMove(ctx context.Context, systemPrompt string, history []sim.GameEvent) string {
	return f(ctx, systemPrompt, history)
}
