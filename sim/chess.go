package sim

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"
	"github.com/sirupsen/logrus"
)

const (
	RoleWhite = "white"
	RoleBlack = "black"
)

// ChessEngine wraps a complete legal-move validator (notnil/chess) and a
// board representation keyed by FEN. An illegal or unparseable move is a
// forfeit, not a retry: the mover scores 0, the opponent 1.
type ChessEngine struct {
	game     *chess.Game
	maxPlies int
	plies    int
	finished bool
}

// NewChessEngine returns an uninitialized chess engine.
func NewChessEngine() *ChessEngine {
	return &ChessEngine{}
}

// Initialize resets the board. The seed is accepted for contract uniformity
// but unused: chess draws no randomness. Options: "maxPlies" (clamped to
// [10,1000], default 200) caps the game length before a draw by exhaustion.
func (e *ChessEngine) Initialize(seed int64, opts Options) []GameEvent {
	e.game = chess.NewGame()
	e.maxPlies = optInt(opts, "maxPlies", 200, 10, 1000)
	e.plies = 0
	e.finished = false

	logrus.Debugf("chess: initialized maxPlies=%d", e.maxPlies)
	return []GameEvent{{
		Turn:  0,
		Actor: ActorSystem,
		Type:  EventMatchStart,
		Payload: Payload{
			"game":      string(GameChess),
			"max_plies": e.maxPlies,
			"fen":       e.game.Position().String(),
		},
	}}
}

// SystemPrompt renders the position for the role's adapter.
func (e *ChessEngine) SystemPrompt(role string) string {
	return fmt.Sprintf(
		"You are playing chess as %s. Current position (FEN): %s. "+
			"Reply with exactly one legal move in UCI (e2e4) or SAN (e4) notation.",
		role, e.game.Position().String())
}

// Roles lists white then black.
func (e *ChessEngine) Roles() []string {
	return []string{RoleWhite, RoleBlack}
}

// ActiveRole follows the side to move on the board.
func (e *ChessEngine) ActiveRole() string {
	if e.game.Position().Turn() == chess.White {
		return RoleWhite
	}
	return RoleBlack
}

// ProcessMove parses the move text as UCI first, then SAN. A parse or
// legality failure ends the match immediately with the mover forfeiting.
func (e *ChessEngine) ProcessMove(history []GameEvent, move PlayerMove) ([]GameEvent, *GameResult) {
	mover := e.ActiveRole()
	opponent := RoleBlack
	if mover == RoleBlack {
		opponent = RoleWhite
	}
	e.plies++
	turn := e.plies

	pos := e.game.Position()
	fenBefore := pos.String()
	text := strings.TrimSpace(move.Content)

	parsed, err := chess.UCINotation{}.Decode(pos, text)
	if err != nil {
		parsed, err = chess.AlgebraicNotation{}.Decode(pos, text)
	}
	if err == nil {
		err = e.game.Move(parsed)
	}
	if err != nil {
		logrus.Infof("chess: %s submitted illegal move %q", mover, text)
		e.finished = true
		result := &GameResult{
			Finished: true,
			Scores:   map[string]float64{mover: 0, opponent: 1},
			WinnerID: opponent,
		}
		events := []GameEvent{{
			Turn:    turn,
			Actor:   mover,
			Type:    EventIllegalMove,
			Payload: Payload{"move": text, "reason": err.Error()},
		}}
		events = append(events, matchEndEvent(turn, result))
		return events, result
	}

	events := []GameEvent{{
		Turn:  turn,
		Actor: mover,
		Type:  EventMove,
		Payload: Payload{
			"move":       text,
			"san":        chess.AlgebraicNotation{}.Encode(pos, parsed),
			"uci":        chess.UCINotation{}.Encode(pos, parsed),
			"fen_before": fenBefore,
			"fen_after":  e.game.Position().String(),
		},
	}}

	// Terminal checks, in order: checkmate, draw, ply ceiling.
	if e.game.Method() == chess.Checkmate {
		e.finished = true
		result := &GameResult{
			Finished: true,
			Scores:   map[string]float64{mover: 1, opponent: 0},
			WinnerID: mover,
		}
		events = append(events, matchEndEvent(turn, result))
		return events, result
	}

	if drawMethod, drawn := e.drawnPosition(); drawn {
		e.finished = true
		result := &GameResult{
			Finished: true,
			Scores:   map[string]float64{RoleWhite: 0.5, RoleBlack: 0.5},
		}
		ev := matchEndEvent(turn, result)
		ev.Payload["draw"] = drawMethod
		events = append(events, ev)
		return events, result
	}

	if e.plies >= e.maxPlies {
		e.finished = true
		result := &GameResult{
			Finished: true,
			Scores:   map[string]float64{RoleWhite: 0.5, RoleBlack: 0.5},
		}
		ev := matchEndEvent(turn, result)
		ev.Payload["draw"] = "max_plies"
		events = append(events, ev)
		return events, result
	}

	return events, nil
}

// drawnPosition reports whether the game is drawn by stalemate, insufficient
// material (declared automatically by the validator) or threefold repetition
// (an eligible draw the engine claims on the players' behalf).
func (e *ChessEngine) drawnPosition() (string, bool) {
	switch e.game.Method() {
	case chess.Stalemate:
		return "stalemate", true
	case chess.InsufficientMaterial:
		return "insufficient_material", true
	}
	for _, m := range e.game.EligibleDraws() {
		if m == chess.ThreefoldRepetition {
			if err := e.game.Draw(chess.ThreefoldRepetition); err == nil {
				return "threefold_repetition", true
			}
		}
	}
	return "", false
}
