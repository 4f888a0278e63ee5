package match

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/match-sim/match-sim/sim"
)

// Replay reconstructs a match from its durable inputs: it re-initializes a
// fresh engine with the same seed and options, then feeds every recorded
// move back through ProcessMove. The regenerated ledger and final result are
// returned. This is the only sanctioned way to resume or audit a match; a
// destroyed in-memory engine is never resumed directly.
func Replay(gameType sim.GameType, seed int64, opts sim.Options, recorded []sim.GameEvent) ([]sim.GameEvent, *sim.GameResult, error) {
	engine, err := sim.NewEngine(gameType)
	if err != nil {
		return nil, nil, err
	}

	history := engine.Initialize(seed, opts)
	var result *sim.GameResult
	for _, move := range sim.MovesFromLedger(recorded) {
		if result != nil && result.Finished {
			return nil, nil, fmt.Errorf("ledger contains moves after the terminal result")
		}
		var events []sim.GameEvent
		events, result = engine.ProcessMove(history, move)
		history = append(history, events...)
	}
	return history, result, nil
}

// Verify replays a recorded ledger and reports whether the regenerated
// ledger is byte-identical to it (ignoring a trailing orchestrator TURN_LIMIT
// marker, which the engine does not emit).
func Verify(gameType sim.GameType, seed int64, opts sim.Options, recorded []sim.GameEvent) (bool, error) {
	trimmed := recorded
	if n := len(trimmed); n > 0 && trimmed[n-1].Type == sim.EventTurnLimit {
		trimmed = trimmed[:n-1]
	}

	replayed, _, err := Replay(gameType, seed, opts, trimmed)
	if err != nil {
		return false, err
	}

	want, err := json.Marshal(trimmed)
	if err != nil {
		return false, fmt.Errorf("marshal recorded ledger: %w", err)
	}
	got, err := json.Marshal(replayed)
	if err != nil {
		return false, fmt.Errorf("marshal replayed ledger: %w", err)
	}
	return bytes.Equal(want, got), nil
}
