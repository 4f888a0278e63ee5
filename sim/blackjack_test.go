package sim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// upcard returns the dealer's face-up card from the opening DEAL event.
func upcard(events []GameEvent) string {
	for _, ev := range events {
		if ev.Type == EventDeal {
			return ev.Payload["dealer_upcard"].(string)
		}
	}
	return ""
}

// quietUpcard reports whether the upcard rules out a dealer peek (2 through 9).
func quietUpcard(card string) bool {
	return card != "" && card[0] >= '2' && card[0] <= '9'
}

func standUntilDone(t *testing.T, e *BlackjackEngine) ([]GameEvent, *GameResult) {
	t.Helper()
	var ledger []GameEvent
	for i := 0; i < 40; i++ {
		events, result := e.ProcessMove(ledger, PlayerMove{Actor: e.ActiveRole(), Content: "STAND"})
		ledger = append(ledger, events...)
		if result != nil {
			return ledger, result
		}
	}
	t.Fatal("round did not settle within 40 actions")
	return nil, nil
}

func TestBlackjack_DealDeductsBet(t *testing.T) {
	e := NewBlackjackEngine()
	events := e.Initialize(11, Options{})

	require.Equal(t, EventMatchStart, events[0].Type)
	require.Equal(t, 10, events[0].Payload["bet"])
	require.Equal(t, 1000, events[0].Payload["starting_stack"])
	require.Equal(t, EventDeal, events[1].Type)
	require.Equal(t, 990, e.seats[0].stack)
	require.Len(t, e.seats[0].hands[0].cards, 2)
	require.Len(t, e.dealer, 2)
}

func TestBlackjack_StandAndSettle(t *testing.T) {
	// Every seed must settle with a payout the score accounts for exactly.
	for seed := int64(0); seed < 20; seed++ {
		e := NewBlackjackEngine()
		e.Initialize(seed, Options{})
		ledger, result := standUntilDone(t, e)

		require.True(t, result.Finished)

		payout := -1
		for _, ev := range ledger {
			if ev.Type == EventSettlement && ev.Payload["outcome"] != "insurance" {
				payout = ev.Payload["payout"].(int)
				switch ev.Payload["outcome"] {
				case "surrender":
					require.Equal(t, 5, payout)
				case "bust", "lose", "dealer_blackjack":
					require.Equal(t, 0, payout)
				case "push":
					require.Equal(t, 10, payout)
				case "win", "dealer_bust":
					require.Equal(t, 20, payout)
				case "blackjack":
					require.Equal(t, 25, payout)
				}
			}
		}
		require.GreaterOrEqual(t, payout, 0, "seed %d produced no settlement", seed)
		require.Equal(t, float64(1000-10+payout), result.Scores["seat1"], "seed %d", seed)
	}
}

func TestBlackjack_HitAddsCard(t *testing.T) {
	for seed := int64(0); seed < 200; seed++ {
		e := NewBlackjackEngine()
		events := e.Initialize(seed, Options{})
		if !quietUpcard(upcard(events)) {
			continue
		}

		moves, result := e.ProcessMove(nil, PlayerMove{Actor: "seat1", Content: "HIT"})
		require.Equal(t, EventAction, moves[0].Type)
		require.Equal(t, "HIT", moves[0].Payload["action"])
		require.NotEmpty(t, moves[0].Payload["card"])
		if moves[0].Payload["busted"] == true {
			require.NotNil(t, result)
		}
		return
	}
	t.Fatal("no seed below 200 deals a quiet upcard")
}

func TestBlackjack_DoubleDisabledDegradesToHit(t *testing.T) {
	for seed := int64(0); seed < 200; seed++ {
		e := NewBlackjackEngine()
		events := e.Initialize(seed, Options{"allowDouble": false})
		if !quietUpcard(upcard(events)) {
			continue
		}

		moves, _ := e.ProcessMove(nil, PlayerMove{Actor: "seat1", Content: "DOUBLE"})
		require.Equal(t, EventIllegalAction, moves[0].Type)
		require.Equal(t, "HIT", moves[0].Payload["fallback"])
		require.Equal(t, EventAction, moves[1].Type)
		require.Equal(t, "HIT", moves[1].Payload["action"])
		require.Equal(t, true, moves[1].Payload["forced"])
		return
	}
	t.Fatal("no seed below 200 deals a quiet upcard")
}

func TestBlackjack_UnparseableDegradesToStand(t *testing.T) {
	for seed := int64(0); seed < 200; seed++ {
		e := NewBlackjackEngine()
		events := e.Initialize(seed, Options{})
		if !quietUpcard(upcard(events)) {
			continue
		}

		moves, _ := e.ProcessMove(nil, PlayerMove{Actor: "seat1", Content: "wibble"})
		require.Equal(t, EventIllegalAction, moves[0].Type)
		require.Equal(t, "STAND", moves[0].Payload["fallback"])
		require.Equal(t, "STAND", moves[1].Payload["action"])
		return
	}
	t.Fatal("no seed below 200 deals a quiet upcard")
}

func TestBlackjack_SurrenderRefundsHalf(t *testing.T) {
	for seed := int64(0); seed < 200; seed++ {
		e := NewBlackjackEngine()
		events := e.Initialize(seed, Options{})
		if !quietUpcard(upcard(events)) {
			continue
		}

		ledger, result := e.ProcessMove(nil, PlayerMove{Actor: "seat1", Content: "SURRENDER"})
		require.NotNil(t, result, "surrender on the only hand must settle the round")

		for _, ev := range ledger {
			if ev.Type == EventSettlement {
				require.Equal(t, "surrender", ev.Payload["outcome"])
				require.Equal(t, 5, ev.Payload["payout"])
			}
			// Dealer does not draw against a table with no live hand.
			require.NotEqual(t, EventDealerHit, ev.Type)
		}
		require.Equal(t, float64(995), result.Scores["seat1"])
		return
	}
	t.Fatal("no seed below 200 deals a quiet upcard")
}

func TestBlackjack_InsuranceWithoutDealerNatural(t *testing.T) {
	for seed := int64(0); seed < 2000; seed++ {
		e := NewBlackjackEngine()
		events := e.Initialize(seed, Options{})
		if up := upcard(events); up == "" || up[0] != 'A' {
			continue
		}

		moves, result := e.ProcessMove(nil, PlayerMove{Actor: "seat1", Content: "INSURANCE"})
		if result != nil {
			// Peek found a dealer natural before the action applied.
			require.Equal(t, EventDealerBlackjack, moves[0].Type)
			continue
		}
		require.Equal(t, "INSURANCE", moves[0].Payload["action"])
		require.Equal(t, 5, moves[0].Payload["amount"])

		ledger, final := standUntilDone(t, e)
		payout := 0
		for _, ev := range ledger {
			if ev.Type == EventSettlement {
				// Peek already ruled out a dealer natural, so the premium
				// is never paid back.
				require.NotEqual(t, "insurance", ev.Payload["outcome"])
				payout = ev.Payload["payout"].(int)
			}
		}
		require.Equal(t, float64(1000-10-5+payout), final.Scores["seat1"])
		return
	}
	t.Fatal("no seed below 2000 shows a dealer ace without a natural")
}

func TestBlackjack_SplitPlaysBothHands(t *testing.T) {
	for seed := int64(0); seed < 5000; seed++ {
		e := NewBlackjackEngine()
		events := e.Initialize(seed, Options{})
		if !quietUpcard(upcard(events)) {
			continue
		}
		cards := e.seats[0].hands[0].cards
		if cards[0].Rank != cards[1].Rank {
			continue
		}

		moves, result := e.ProcessMove(nil, PlayerMove{Actor: "seat1", Content: "SPLIT"})
		var split bool
		for _, ev := range moves {
			if ev.Type == EventAction && ev.Payload["action"] == "SPLIT" {
				split = true
				require.Equal(t, 2, ev.Payload["hands"])
			}
		}
		require.True(t, split)

		ledger := moves
		if result == nil {
			// Split aces stand automatically and settle in the same move;
			// any other pair plays on.
			var rest []GameEvent
			rest, result = standUntilDone(t, e)
			ledger = append(ledger, rest...)
		}
		total := 0
		settlements := 0
		for _, ev := range ledger {
			if ev.Type == EventSettlement {
				settlements++
				total += ev.Payload["payout"].(int)
			}
		}
		require.Equal(t, 2, settlements, "both split hands settle")
		require.Equal(t, float64(1000-20+total), result.Scores["seat1"])
		return
	}
	t.Fatal("no seed below 5000 deals a pair under a quiet upcard")
}

func TestBlackjack_MultiSeatWinner(t *testing.T) {
	e := NewBlackjackEngine()
	e.Initialize(17, Options{"players": 3})
	require.Equal(t, []string{"seat1", "seat2", "seat3"}, e.Roles())

	_, result := standUntilDone(t, e)
	if result.WinnerID != "" {
		best := result.Scores[result.WinnerID]
		for role, score := range result.Scores {
			if role != result.WinnerID {
				require.Less(t, score, best)
			}
		}
	}
}
