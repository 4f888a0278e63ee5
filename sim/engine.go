package sim

// Options is the per-game configuration bag supplied at Initialize time.
// Values are clamped or ignored when out of range, never rejected: an engine
// must come up with a playable configuration for any input. The resolved
// configuration is echoed in the MATCH_START event for auditability.
type Options map[string]any

// Engine is the contract all five game engines implement.
//
// An Engine instance owns all mutable simulation state for exactly one match
// and is mutated only by that match's orchestrator loop. Its state is never
// persisted directly: durability comes from (seed, options, ordered prior
// moves), and a destroyed engine is reconstructed by calling Initialize again
// and replaying every historical move through ProcessMove in order.
type Engine interface {
	// Initialize resets all internal state, applies clamped options, and
	// returns the opening events (at minimum MATCH_START with the resolved
	// configuration).
	Initialize(seed int64, opts Options) []GameEvent

	// SystemPrompt renders the current state into instructions for the given
	// role's adapter.
	SystemPrompt(role string) string

	// ProcessMove applies one submitted move. Fully deterministic given the
	// history and the move. Malformed move text is rejected or normalized
	// per-engine via ledger events; ProcessMove never panics on bad input.
	// The result is nil while the match is still live.
	ProcessMove(history []GameEvent, move PlayerMove) ([]GameEvent, *GameResult)

	// Roles lists the participant roles in seat order.
	Roles() []string

	// ActiveRole names the role that must act next. Simple engines rotate
	// through Roles; hold'em and blackjack consult internal turn state.
	ActiveRole() string
}

// === Option helpers ===

// optInt reads an integer option, accepting any numeric JSON/YAML shape, and
// clamps it into [min, max]. Missing or non-numeric values yield def.
func optInt(opts Options, key string, def, min, max int) int {
	v := def
	if raw, ok := opts[key]; ok {
		switch n := raw.(type) {
		case int:
			v = n
		case int64:
			v = int(n)
		case float64:
			v = int(n)
		}
	}
	if v < min {
		v = min
	}
	if v > max {
		v = max
	}
	return v
}

// optBool reads a boolean option, falling back to def when missing or not a
// bool.
func optBool(opts Options, key string, def bool) bool {
	if raw, ok := opts[key]; ok {
		if b, ok := raw.(bool); ok {
			return b
		}
	}
	return def
}
