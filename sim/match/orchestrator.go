package match

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/match-sim/match-sim/sim"
	"github.com/match-sim/match-sim/sim/adapter"
	"github.com/match-sim/match-sim/sim/ledger"
)

// DefaultTurnCap bounds a match when the caller supplies no ceiling. The cap
// is a safety bound against pathological matches, not an engine rule;
// breaching it completes the match with a draw-like result rather than
// failing it.
const DefaultTurnCap = 1000

// Orchestrator runs matches to completion. One match runs entirely inside
// one Run invocation; the engine instance it creates is never shared.
type Orchestrator struct {
	store   ledger.Store
	resolve adapter.ResolveFunc
	turnCap int
}

// NewOrchestrator creates an orchestrator over a ledger store and an adapter
// resolver. turnCap <= 0 selects DefaultTurnCap.
func NewOrchestrator(store ledger.Store, resolve adapter.ResolveFunc, turnCap int) *Orchestrator {
	if turnCap <= 0 {
		turnCap = DefaultTurnCap
	}
	return &Orchestrator{store: store, resolve: resolve, turnCap: turnCap}
}

// Run drives one match to a terminal status. Any panic or persistence error
// marks the match FAILED and surfaces as the returned error; the external
// scheduler owns retry policy.
func (o *Orchestrator) Run(ctx context.Context, m *Match) (err error) {
	defer func() {
		if r := recover(); r != nil {
			m.Status = StatusFailed
			err = fmt.Errorf("match %s: engine panic: %v", m.ID, r)
			logrus.Errorf("match %s failed: %v", m.ID, err)
		}
	}()

	engine, err := sim.NewEngine(m.GameType)
	if err != nil {
		m.Status = StatusFailed
		return fmt.Errorf("match %s: %w", m.ID, err)
	}

	m.Status = StatusRunning
	logrus.Infof("match %s: running %s seed=%d", m.ID, m.GameType, m.Seed)

	history := engine.Initialize(m.Seed, m.Options)
	if err := o.store.Append(ctx, m.ID, history); err != nil {
		m.Status = StatusFailed
		return fmt.Errorf("match %s: persist opening events: %w", m.ID, err)
	}

	adapters, err := o.resolveAdapters(engine, m)
	if err != nil {
		m.Status = StatusFailed
		return fmt.Errorf("match %s: %w", m.ID, err)
	}

	for moves := 0; moves < o.turnCap; moves++ {
		role := engine.ActiveRole()
		prompt := engine.SystemPrompt(role)
		text := adapters[role].GenerateMove(ctx, prompt, history)

		events, result := engine.ProcessMove(history, sim.PlayerMove{Actor: role, Content: text})
		if err := o.store.Append(ctx, m.ID, events); err != nil {
			m.Status = StatusFailed
			return fmt.Errorf("match %s: persist events: %w", m.ID, err)
		}
		history = append(history, events...)

		if result != nil && result.Finished {
			m.Status = StatusCompleted
			m.Result = result
			logrus.Infof("match %s: completed after %d moves, winner=%q", m.ID, moves+1, result.WinnerID)
			return nil
		}
	}

	// Turn-count ceiling breached: terminate with a draw-like result.
	return o.finishAtCeiling(ctx, m, engine, history)
}

// resolveAdapters maps every engine role to its participant's adapter.
func (o *Orchestrator) resolveAdapters(engine sim.Engine, m *Match) (map[string]adapter.Adapter, error) {
	byRole := make(map[string]Participant, len(m.Participants))
	for _, p := range m.Participants {
		byRole[p.Role] = p
	}
	adapters := make(map[string]adapter.Adapter, len(engine.Roles()))
	for _, role := range engine.Roles() {
		p, ok := byRole[role]
		if !ok {
			return nil, fmt.Errorf("no participant for role %q", role)
		}
		a, err := o.resolve(p.Provider, p.Model)
		if err != nil {
			return nil, fmt.Errorf("resolve adapter for role %q: %w", role, err)
		}
		adapters[role] = a
	}
	return adapters, nil
}

// finishAtCeiling persists a TURN_LIMIT marker and completes the match with
// even scores across all roles.
func (o *Orchestrator) finishAtCeiling(ctx context.Context, m *Match, engine sim.Engine, history []sim.GameEvent) error {
	lastTurn := 0
	if len(history) > 0 {
		lastTurn = history[len(history)-1].Turn
	}
	ev := sim.GameEvent{
		Turn:    lastTurn,
		Actor:   sim.ActorSystem,
		Type:    sim.EventTurnLimit,
		Payload: sim.Payload{"turn_cap": o.turnCap},
	}
	if err := o.store.Append(ctx, m.ID, []sim.GameEvent{ev}); err != nil {
		m.Status = StatusFailed
		return fmt.Errorf("match %s: persist turn limit: %w", m.ID, err)
	}

	scores := map[string]float64{}
	for _, role := range engine.Roles() {
		scores[role] = 0.5
	}
	m.Result = &sim.GameResult{Finished: true, Scores: scores}
	m.Status = StatusCompleted
	logrus.Warnf("match %s: turn cap %d reached, ending in a draw", m.ID, o.turnCap)
	return nil
}
