package sim

import "fmt"

// GameType identifies one of the supported game engines. The set is closed:
// NewEngine dispatches through an exhaustive switch so an unhandled type is a
// compile-time smell, not a runtime import fallback.
type GameType string

const (
	GameChess       GameType = "chess"
	GameChutes      GameType = "chutes_and_ladders"
	GameHoldem      GameType = "texas_holdem"
	GameBlackjack   GameType = "blackjack"
	GameNegotiation GameType = "negotiation"
)

// GameTypes lists all registered game types in stable order.
func GameTypes() []GameType {
	return []GameType{GameChess, GameChutes, GameHoldem, GameBlackjack, GameNegotiation}
}

// NewEngine constructs a fresh, uninitialized engine for the given game type.
// Exactly one engine instance exists per running match.
func NewEngine(gt GameType) (Engine, error) {
	switch gt {
	case GameChess:
		return NewChessEngine(), nil
	case GameChutes:
		return NewChutesEngine(), nil
	case GameHoldem:
		return NewHoldemEngine(), nil
	case GameBlackjack:
		return NewBlackjackEngine(), nil
	case GameNegotiation:
		return NewNegotiationEngine(), nil
	default:
		return nil, fmt.Errorf("unknown game type %q", gt)
	}
}
