// Package ledger persists the append-only event log that is the sole durable
// record of a match. One row per GameEvent: {match_id, turn_index,
// actor_role, type, payload}; the payload is opaque engine-defined JSON and
// is never interpreted here.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/match-sim/match-sim/sim"
)

// Store appends and reads back match ledgers. Events for one match are
// observed in the exact order they were appended; there is no ordering
// requirement across matches.
type Store interface {
	Append(ctx context.Context, matchID string, events []sim.GameEvent) error
	Events(ctx context.Context, matchID string) ([]sim.GameEvent, error)
	Close() error
}

// Memory is an in-process Store for tests and dry runs.
type Memory struct {
	mu     sync.Mutex
	events map[string][]sim.GameEvent
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{events: make(map[string][]sim.GameEvent)}
}

// Append appends events to the match's ledger.
func (m *Memory) Append(ctx context.Context, matchID string, events []sim.GameEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[matchID] = append(m.events[matchID], events...)
	return nil
}

// Events returns a copy of the match's ledger in append order.
func (m *Memory) Events(ctx context.Context, matchID string) ([]sim.GameEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sim.GameEvent{}, m.events[matchID]...), nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

var _ Store = (*Memory)(nil)

// encodePayload renders an event payload as canonical JSON for storage.
func encodePayload(p sim.Payload) (string, error) {
	if len(p) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return string(raw), nil
}

// decodePayload parses a stored payload column.
func decodePayload(raw string) (sim.Payload, error) {
	var p sim.Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	if len(p) == 0 {
		return nil, nil
	}
	return p, nil
}
