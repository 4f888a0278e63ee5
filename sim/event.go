package sim

// ActorSystem is the actor recorded on events the engine emits on its own
// behalf (deals, dice rolls, settlements) rather than for a player role.
const ActorSystem = "system"

// Event type tags shared by more than one engine. Engine-specific tags live
// next to their engine.
const (
	EventMatchStart    = "MATCH_START"
	EventMatchEnd      = "MATCH_END"
	EventMove          = "MOVE"
	EventIllegalMove   = "ILLEGAL_MOVE"
	EventIllegalAction = "ILLEGAL_ACTION"
	EventTurnLimit     = "TURN_LIMIT"
)

// Payload is the opaque structured data attached to a GameEvent. The
// orchestrator never interprets it; each engine defines the schema per event
// type. JSON-marshaling a Payload is deterministic (Go sorts map keys), which
// is what makes byte-identical ledger comparison possible.
type Payload map[string]any

// GameEvent is one row of the append-only match ledger.
// Turn values are monotonically non-decreasing across the ledger of a match.
type GameEvent struct {
	Turn    int     `json:"turn"`
	Actor   string  `json:"actor"`
	Type    string  `json:"type"`
	Payload Payload `json:"payload,omitempty"`
}

// PlayerMove is a single move submitted on behalf of a role. Content is the
// raw adapter output; engines parse and normalize it themselves.
type PlayerMove struct {
	Actor   string
	Content string
}

// GameResult is the terminal outcome of a match. Once Finished is true the
// orchestrator must not call ProcessMove again.
type GameResult struct {
	Finished bool               `json:"finished"`
	Scores   map[string]float64 `json:"scores"`
	WinnerID string             `json:"winner_id,omitempty"`
}

// matchEndEvent renders a terminal result as a ledger event so ledger-only
// consumers see the final scores without the GameResult side channel.
func matchEndEvent(turn int, result *GameResult) GameEvent {
	scores := Payload{}
	for role, s := range result.Scores {
		scores[role] = s
	}
	return GameEvent{
		Turn:    turn,
		Actor:   ActorSystem,
		Type:    EventMatchEnd,
		Payload: Payload{"scores": scores, "winner": result.WinnerID},
	}
}

// MovesFromLedger extracts the (actor, raw text) move sequence from a ledger.
// Every engine tags the first event it emits for a processed move with the
// raw submitted text under payload key "move"; this is what makes a ledger
// self-contained for replay.
func MovesFromLedger(events []GameEvent) []PlayerMove {
	var moves []PlayerMove
	for _, ev := range events {
		if ev.Payload == nil {
			continue
		}
		raw, ok := ev.Payload["move"].(string)
		if !ok {
			continue
		}
		moves = append(moves, PlayerMove{Actor: ev.Actor, Content: raw})
	}
	return moves
}
