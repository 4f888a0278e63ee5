package sim

import (
	"fmt"
	"strings"
)

// EventProposal is emitted for every negotiation proposal.
const EventProposal = "PROPOSAL"

// NegotiationEngine runs an iterated negotiation over a fixed pot: free-text
// proposals, a keyword heuristic for agreement, and an even split once the
// round cap is reached (or both sides agree earlier).
type NegotiationEngine struct {
	rounds   int
	value    int
	roles    []string
	agreed   map[string]bool
	turn     int
	finished bool
}

// NewNegotiationEngine returns an uninitialized negotiation engine.
func NewNegotiationEngine() *NegotiationEngine {
	return &NegotiationEngine{}
}

// Initialize resets the table. Options: "rounds" (clamped to [2,20], default
// 6) and "value" ([2,1000], default 100). The seed is unused: negotiation
// draws no randomness.
func (e *NegotiationEngine) Initialize(seed int64, opts Options) []GameEvent {
	e.rounds = optInt(opts, "rounds", 6, 2, 20)
	e.value = optInt(opts, "value", 100, 2, 1000)
	e.roles = []string{"player1", "player2"}
	e.agreed = map[string]bool{}
	e.turn = 0
	e.finished = false

	return []GameEvent{{
		Turn:  0,
		Actor: ActorSystem,
		Type:  EventMatchStart,
		Payload: Payload{
			"game":   string(GameNegotiation),
			"rounds": e.rounds,
			"value":  e.value,
		},
	}}
}

// SystemPrompt frames the negotiation for the role's adapter.
func (e *NegotiationEngine) SystemPrompt(role string) string {
	return fmt.Sprintf(
		"You are %s negotiating how to split %d points over at most %d rounds. "+
			"Make a proposal in plain text; include the word \"agree\" to accept the standing split.",
		role, e.value, e.rounds)
}

// Roles lists both negotiators.
func (e *NegotiationEngine) Roles() []string {
	return e.roles
}

// ActiveRole alternates between negotiators.
func (e *NegotiationEngine) ActiveRole() string {
	return e.roles[e.turn%len(e.roles)]
}

// ProcessMove records one proposal. The match ends in an even split either
// when both sides' latest proposals contain "agree" or when the round cap is
// exhausted.
func (e *NegotiationEngine) ProcessMove(history []GameEvent, move PlayerMove) ([]GameEvent, *GameResult) {
	role := e.ActiveRole()
	e.turn++
	turn := e.turn

	agrees := strings.Contains(strings.ToLower(move.Content), "agree")
	e.agreed[role] = agrees

	events := []GameEvent{{
		Turn:    turn,
		Actor:   role,
		Type:    EventProposal,
		Payload: Payload{"move": move.Content, "agree": agrees},
	}}

	mutual := e.agreed[e.roles[0]] && e.agreed[e.roles[1]]
	capped := e.turn >= e.rounds*len(e.roles)
	if !mutual && !capped {
		return events, nil
	}

	half := float64(e.value) / 2
	result := &GameResult{
		Finished: true,
		Scores:   map[string]float64{e.roles[0]: half, e.roles[1]: half},
	}
	e.finished = true
	ev := matchEndEvent(turn, result)
	if mutual {
		ev.Payload["reason"] = "mutual_agreement"
	} else {
		ev.Payload["reason"] = "round_cap"
	}
	events = append(events, ev)
	return events, result
}
