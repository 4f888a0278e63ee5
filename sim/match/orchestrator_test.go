package match

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/match-sim/match-sim/sim"
	"github.com/match-sim/match-sim/sim/adapter"
	"github.com/match-sim/match-sim/sim/ledger"
)

func scriptedResolver(move string) adapter.ResolveFunc {
	return func(provider, model string) (adapter.Adapter, error) {
		if provider != "scripted" {
			return nil, fmt.Errorf("unknown provider %q", provider)
		}
		return adapter.NewScripted(move), nil
	}
}

func chutesMatch(id string) *Match {
	return &Match{
		ID:       id,
		GameType: sim.GameChutes,
		Seed:     999,
		Participants: []Participant{
			{Role: "player1", Provider: "scripted", Model: "roller"},
			{Role: "player2", Provider: "scripted", Model: "roller"},
		},
	}
}

func TestOrchestrator_RunsMatchToCompletion(t *testing.T) {
	store := ledger.NewMemory()
	o := NewOrchestrator(store, scriptedResolver("ROLL"), 0)
	m := chutesMatch("m1")

	require.NoError(t, o.Run(context.Background(), m))
	require.Equal(t, StatusCompleted, m.Status)
	require.NotNil(t, m.Result)
	require.True(t, m.Result.Finished)

	events, err := store.Events(context.Background(), "m1")
	require.NoError(t, err)
	require.NotEmpty(t, events)
	require.Equal(t, sim.EventMatchStart, events[0].Type)
	require.Equal(t, sim.EventMatchEnd, events[len(events)-1].Type)

	for i := 1; i < len(events); i++ {
		require.GreaterOrEqual(t, events[i].Turn, events[i-1].Turn,
			"persisted turn order must be non-decreasing")
	}
}

func TestOrchestrator_TurnCapEndsInDraw(t *testing.T) {
	store := ledger.NewMemory()
	o := NewOrchestrator(store, scriptedResolver("ROLL"), 5)
	m := chutesMatch("m1")

	require.NoError(t, o.Run(context.Background(), m))
	require.Equal(t, StatusCompleted, m.Status)
	require.Equal(t, 0.5, m.Result.Scores["player1"])
	require.Equal(t, 0.5, m.Result.Scores["player2"])
	require.Empty(t, m.Result.WinnerID)

	events, err := store.Events(context.Background(), "m1")
	require.NoError(t, err)
	last := events[len(events)-1]
	require.Equal(t, sim.EventTurnLimit, last.Type)
	require.Equal(t, 5, last.Payload["turn_cap"])
}

func TestOrchestrator_UnknownGameFails(t *testing.T) {
	o := NewOrchestrator(ledger.NewMemory(), scriptedResolver("ROLL"), 0)
	m := chutesMatch("m1")
	m.GameType = sim.GameType("uno")

	require.Error(t, o.Run(context.Background(), m))
	require.Equal(t, StatusFailed, m.Status)
}

func TestOrchestrator_MissingParticipantFails(t *testing.T) {
	o := NewOrchestrator(ledger.NewMemory(), scriptedResolver("ROLL"), 0)
	m := chutesMatch("m1")
	m.Participants = m.Participants[:1]

	err := o.Run(context.Background(), m)
	require.Error(t, err)
	require.Contains(t, err.Error(), `no participant for role "player2"`)
	require.Equal(t, StatusFailed, m.Status)
}

func TestOrchestrator_ResolveErrorFails(t *testing.T) {
	o := NewOrchestrator(ledger.NewMemory(), scriptedResolver("ROLL"), 0)
	m := chutesMatch("m1")
	m.Participants[0].Provider = "nonsense"

	require.Error(t, o.Run(context.Background(), m))
	require.Equal(t, StatusFailed, m.Status)
}
