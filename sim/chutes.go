package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Event types specific to the chutes & ladders engine.
const (
	EventTurnStart = "TURN_START"
	EventDiceRoll  = "DICE_ROLL"
	EventLadder    = "LADDER"
	EventChute     = "CHUTE"
	EventTurnEnd   = "TURN_END"
)

// Base transition tables for the canonical 100-square board. Boards of other
// sizes scale these positions proportionally.
var (
	baseLadders = map[int]int{1: 38, 4: 14, 9: 31, 21: 42, 28: 84, 36: 44, 51: 67, 71: 91, 80: 100}
	baseChutes  = map[int]int{16: 6, 47: 26, 49: 11, 56: 53, 62: 19, 64: 60, 87: 24, 93: 73, 95: 75}
)

// ChutesEngine is a deterministic chutes & ladders state machine. One
// ProcessMove call plays one full turn for the active player: dice roll,
// movement, optional ladder/chute transition.
type ChutesEngine struct {
	rng       *LCG
	boardSize int
	winExact  bool
	maxTurns  int
	ladders   map[int]int
	chutes    map[int]int
	roles     []string
	positions map[string]int
	turn      int
	finished  bool
}

// NewChutesEngine returns an uninitialized chutes & ladders engine.
func NewChutesEngine() *ChutesEngine {
	return &ChutesEngine{}
}

// scaleTransitions maps a base-100 transition table onto a board of the given
// size. Degenerate entries (out of range, or no longer moving in the right
// direction after scaling) are dropped.
func scaleTransitions(base map[int]int, size int, up bool) map[int]int {
	out := make(map[int]int, len(base))
	for from, to := range base {
		f := from * size / 100
		t := to * size / 100
		if f < 1 || f >= size || t < 1 || t > size {
			continue
		}
		if up && t <= f {
			continue
		}
		if !up && t >= f {
			continue
		}
		out[f] = t
	}
	return out
}

// Initialize resets the board. Options: "boardSize" (clamped to [25,200],
// default 100), "players" ([2,6], default 2), "winExact", "ladders",
// "chutes" (rule toggles), "maxTurns" ([10,1000], default 200).
func (e *ChutesEngine) Initialize(seed int64, opts Options) []GameEvent {
	e.rng = NewLCG(seed)
	e.boardSize = optInt(opts, "boardSize", 100, 25, 200)
	e.winExact = optBool(opts, "winExact", false)
	e.maxTurns = optInt(opts, "maxTurns", 200, 10, 1000)
	players := optInt(opts, "players", 2, 2, 6)

	e.ladders = map[int]int{}
	e.chutes = map[int]int{}
	if optBool(opts, "ladders", true) {
		e.ladders = scaleTransitions(baseLadders, e.boardSize, true)
	}
	if optBool(opts, "chutes", true) {
		e.chutes = scaleTransitions(baseChutes, e.boardSize, false)
	}

	e.roles = make([]string, players)
	e.positions = make(map[string]int, players)
	for i := range e.roles {
		role := fmt.Sprintf("player%d", i+1)
		e.roles[i] = role
		e.positions[role] = 0
	}
	e.turn = 0
	e.finished = false

	logrus.Debugf("chutes: initialized board=%d players=%d winExact=%v", e.boardSize, players, e.winExact)
	return []GameEvent{{
		Turn:  0,
		Actor: ActorSystem,
		Type:  EventMatchStart,
		Payload: Payload{
			"game":       string(GameChutes),
			"board_size": e.boardSize,
			"players":    players,
			"win_exact":  e.winExact,
			"ladders":    len(e.ladders),
			"chutes":     len(e.chutes),
			"max_turns":  e.maxTurns,
		},
	}}
}

// SystemPrompt describes the board state for the role's adapter. The move
// content is ignored by ProcessMove (the dice decide), so the prompt only
// asks for an acknowledgment.
func (e *ChutesEngine) SystemPrompt(role string) string {
	return fmt.Sprintf(
		"You are %s in a game of chutes and ladders on a %d-square board. "+
			"Your position: %d. Reply with ROLL to take your turn.",
		role, e.boardSize, e.positions[role])
}

// Roles lists players in seat order.
func (e *ChutesEngine) Roles() []string {
	return e.roles
}

// ActiveRole rotates through players by completed-turn count.
func (e *ChutesEngine) ActiveRole() string {
	return e.roles[e.turn%len(e.roles)]
}

// ProcessMove plays one full turn for the active player.
func (e *ChutesEngine) ProcessMove(history []GameEvent, move PlayerMove) ([]GameEvent, *GameResult) {
	role := e.ActiveRole()
	e.turn++
	turn := e.turn

	events := []GameEvent{{
		Turn:    turn,
		Actor:   role,
		Type:    EventTurnStart,
		Payload: Payload{"move": move.Content, "position": e.positions[role]},
	}}

	roll := e.rng.Intn(6) + 1
	events = append(events, GameEvent{
		Turn:    turn,
		Actor:   ActorSystem,
		Type:    EventDiceRoll,
		Payload: Payload{"roll": roll},
	})

	from := e.positions[role]
	to := from + roll
	overshoot := to > e.boardSize
	if overshoot && e.winExact {
		// Exact-landing rule: an overshooting roll is a no-op.
		to = from
	}
	events = append(events, GameEvent{
		Turn:    turn,
		Actor:   ActorSystem,
		Type:    EventMove,
		Payload: Payload{"from": from, "to": to, "overshoot": overshoot},
	})

	if dest, ok := e.ladders[to]; ok {
		events = append(events, GameEvent{
			Turn:    turn,
			Actor:   ActorSystem,
			Type:    EventLadder,
			Payload: Payload{"from": to, "to": dest},
		})
		to = dest
	} else if dest, ok := e.chutes[to]; ok {
		events = append(events, GameEvent{
			Turn:    turn,
			Actor:   ActorSystem,
			Type:    EventChute,
			Payload: Payload{"from": to, "to": dest},
		})
		to = dest
	}

	e.positions[role] = to
	events = append(events, GameEvent{
		Turn:    turn,
		Actor:   ActorSystem,
		Type:    EventTurnEnd,
		Payload: Payload{"position_after": to},
	})

	won := to >= e.boardSize
	if e.winExact {
		won = to == e.boardSize
	}
	if won {
		result := &GameResult{Finished: true, Scores: map[string]float64{}, WinnerID: role}
		for _, r := range e.roles {
			result.Scores[r] = 0
		}
		result.Scores[role] = 1
		e.finished = true
		events = append(events, matchEndEvent(turn, result))
		return events, result
	}

	if e.turn >= e.maxTurns {
		// Draw by exhaustion.
		result := &GameResult{Finished: true, Scores: map[string]float64{}}
		for _, r := range e.roles {
			result.Scores[r] = 0.5
		}
		e.finished = true
		events = append(events, matchEndEvent(turn, result))
		return events, result
	}

	return events, nil
}
