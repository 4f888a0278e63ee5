package sim

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHoldem_HeadsUpBlinds(t *testing.T) {
	e := NewHoldemEngine()
	events := e.Initialize(42, Options{"button": 0})

	require.Equal(t, EventMatchStart, events[0].Type)
	require.Equal(t, 0, events[0].Payload["button"])

	var blinds []GameEvent
	for _, ev := range events {
		if ev.Type == EventBlindPosted {
			blinds = append(blinds, ev)
		}
	}
	require.Len(t, blinds, 2)

	// Heads-up: the button posts the small blind and acts first preflop.
	require.Equal(t, "player1", blinds[0].Payload["seat"])
	require.Equal(t, "small", blinds[0].Payload["blind"])
	require.Equal(t, 5, blinds[0].Payload["amount"])
	require.Equal(t, "player2", blinds[1].Payload["seat"])
	require.Equal(t, "big", blinds[1].Payload["blind"])
	require.Equal(t, 10, blinds[1].Payload["amount"])
	require.Equal(t, "player1", e.ActiveRole())
}

func TestHoldem_ThreeHandedBlinds(t *testing.T) {
	e := NewHoldemEngine()
	events := e.Initialize(42, Options{"players": 3, "button": 0})

	var blinds []GameEvent
	for _, ev := range events {
		if ev.Type == EventBlindPosted {
			blinds = append(blinds, ev)
		}
	}
	require.Len(t, blinds, 2)
	require.Equal(t, "player2", blinds[0].Payload["seat"])
	require.Equal(t, "player3", blinds[1].Payload["seat"])
	// button+3 wraps back to the button with three players.
	require.Equal(t, "player1", e.ActiveRole())
}

func TestHoldem_FoldEndsHandImmediately(t *testing.T) {
	e := NewHoldemEngine()
	e.Initialize(42, Options{"button": 0})

	events, result := e.ProcessMove(nil, PlayerMove{Actor: "player1", Content: "FOLD"})

	require.NotNil(t, result)
	require.True(t, result.Finished)
	require.Equal(t, "player2", result.WinnerID)

	var awarded bool
	for _, ev := range events {
		if ev.Type == EventPotAwarded {
			awarded = true
			require.Equal(t, true, ev.Payload["uncontested"])
		}
	}
	require.True(t, awarded)

	// Chip conservation: blinds were 5+10, winner takes the 15-chip pot.
	require.Equal(t, float64(995), result.Scores["player1"])
	require.Equal(t, float64(1005), result.Scores["player2"])
}

func TestHoldem_UnparseableActionIsForcedFold(t *testing.T) {
	e := NewHoldemEngine()
	e.Initialize(42, Options{"button": 0})

	events, result := e.ProcessMove(nil, PlayerMove{Actor: "player1", Content: "JUMP THE TABLE"})

	require.Equal(t, EventIllegalAction, events[0].Type)
	require.Equal(t, "JUMP THE TABLE", events[0].Payload["move"])
	require.Equal(t, "FOLD", events[0].Payload["fallback"])
	require.Equal(t, EventAction, events[1].Type)
	require.Equal(t, "FOLD", events[1].Payload["action"])
	require.Equal(t, true, events[1].Payload["forced"])

	require.NotNil(t, result)
	require.Equal(t, "player2", result.WinnerID)
}

func TestHoldem_CheckFacingBetIsForcedFold(t *testing.T) {
	e := NewHoldemEngine()
	e.Initialize(42, Options{"button": 0})

	// Preflop the button owes 5 more; CHECK is illegal.
	events, result := e.ProcessMove(nil, PlayerMove{Actor: "player1", Content: "CHECK"})
	require.Equal(t, EventIllegalAction, events[0].Type)
	require.NotNil(t, result)
}

func TestHoldem_CallDownToShowdown(t *testing.T) {
	e := NewHoldemEngine()
	ledger := e.Initialize(42, Options{"button": 0})

	var result *GameResult
	for moves := 0; moves < 30 && result == nil; moves++ {
		var events []GameEvent
		events, result = e.ProcessMove(ledger, PlayerMove{Actor: e.ActiveRole(), Content: "CALL"})
		ledger = append(ledger, events...)
	}

	require.NotNil(t, result, "calling every street must reach showdown")
	require.True(t, result.Finished)

	var rounds []string
	sawShowdown := false
	for _, ev := range ledger {
		if ev.Type == EventRoundAdvance {
			rounds = append(rounds, ev.Payload["round"].(string))
		}
		if ev.Type == EventShowdown {
			sawShowdown = true
		}
	}
	require.Equal(t, []string{roundFlop, roundTurn, roundRiver}, rounds)
	require.True(t, sawShowdown)

	// No chips created or destroyed across the hand.
	total := 0.0
	for _, score := range result.Scores {
		total += score
	}
	require.Equal(t, float64(2000), total)
}

func TestHoldem_RaiseUsesFixedIncrement(t *testing.T) {
	e := NewHoldemEngine()
	e.Initialize(42, Options{"button": 0})

	// The parsed amount is ignored: a raise is always current bet + big blind.
	events, result := e.ProcessMove(nil, PlayerMove{Actor: "player1", Content: "RAISE 750"})
	require.Nil(t, result)

	action := events[0]
	require.Equal(t, EventAction, action.Type)
	require.Equal(t, "RAISE", action.Payload["action"])
	// Button already posted 5; raising to 20 costs 15 more.
	require.Equal(t, 15, action.Payload["amount"])
	require.Equal(t, 30, action.Payload["pot"])
}

func TestHoldem_DeterministicLedger(t *testing.T) {
	script := []string{"CALL", "CALL", "CALL", "RAISE", "CALL", "CALL", "CALL", "CALL", "CALL", "CALL", "CALL", "CALL"}
	run := func() []byte {
		e := NewHoldemEngine()
		ledger := e.Initialize(1234, Options{})
		var result *GameResult
		for i := 0; result == nil && i < len(script); i++ {
			var events []GameEvent
			events, result = e.ProcessMove(ledger, PlayerMove{Actor: e.ActiveRole(), Content: script[i]})
			ledger = append(ledger, events...)
		}
		raw, err := json.Marshal(ledger)
		require.NoError(t, err)
		return raw
	}
	require.Equal(t, string(run()), string(run()))
}

func TestHoldem_SeedDerivedButton(t *testing.T) {
	a := NewHoldemEngine()
	ea := a.Initialize(42, Options{})
	b := NewHoldemEngine()
	eb := b.Initialize(42, Options{})
	require.Equal(t, ea[0].Payload["button"], eb[0].Payload["button"])
}
