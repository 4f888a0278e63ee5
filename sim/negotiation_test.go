package sim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNegotiation_MutualAgreement(t *testing.T) {
	e := NewNegotiationEngine()
	e.Initialize(0, Options{"value": 100})

	events, result := e.ProcessMove(nil, PlayerMove{Actor: "player1", Content: "I propose 60/40, but I'd agree to 50/50."})
	require.Nil(t, result)
	require.Equal(t, EventProposal, events[0].Type)
	require.Equal(t, true, events[0].Payload["agree"])

	events, result = e.ProcessMove(nil, PlayerMove{Actor: "player2", Content: "Fine, I AGREE."})
	require.NotNil(t, result)
	require.True(t, result.Finished)
	require.Equal(t, 50.0, result.Scores["player1"])
	require.Equal(t, 50.0, result.Scores["player2"])
	require.Empty(t, result.WinnerID)

	end := events[len(events)-1]
	require.Equal(t, EventMatchEnd, end.Type)
	require.Equal(t, "mutual_agreement", end.Payload["reason"])
}

func TestNegotiation_AgreementMustBeStanding(t *testing.T) {
	e := NewNegotiationEngine()
	e.Initialize(0, Options{})

	// player1 agrees, player2 counters, player1's next proposal retracts:
	// no two consecutive standing agreements, so play continues.
	_, result := e.ProcessMove(nil, PlayerMove{Actor: "player1", Content: "agree"})
	require.Nil(t, result)
	_, result = e.ProcessMove(nil, PlayerMove{Actor: "player2", Content: "70/30 or nothing"})
	require.Nil(t, result)
	_, result = e.ProcessMove(nil, PlayerMove{Actor: "player1", Content: "no deal"})
	require.Nil(t, result)
	_, result = e.ProcessMove(nil, PlayerMove{Actor: "player2", Content: "agree"})
	require.Nil(t, result, "one-sided agreement must not end the match")
}

func TestNegotiation_RoundCap(t *testing.T) {
	e := NewNegotiationEngine()
	e.Initialize(0, Options{"rounds": 2, "value": 7})

	var events []GameEvent
	var result *GameResult
	for i := 0; i < 4; i++ {
		require.Nil(t, result, "ended before the round cap at move %d", i)
		events, result = e.ProcessMove(nil, PlayerMove{Actor: e.ActiveRole(), Content: "more for me"})
	}

	require.NotNil(t, result)
	require.Equal(t, 3.5, result.Scores["player1"])
	require.Equal(t, 3.5, result.Scores["player2"])
	require.Equal(t, "round_cap", events[len(events)-1].Payload["reason"])
}

func TestNegotiation_OptionClamps(t *testing.T) {
	e := NewNegotiationEngine()
	events := e.Initialize(0, Options{"rounds": 99, "value": -1})
	require.Equal(t, 20, events[0].Payload["rounds"])
	require.Equal(t, 2, events[0].Payload["value"])
}
