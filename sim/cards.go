package sim

import "strings"

// Card is a playing card. Rank runs 2..14 (ace high); Suit is one of
// 's', 'h', 'd', 'c'.
type Card struct {
	Rank int
	Suit byte
}

var rankLabels = "  23456789TJQKA"

// String renders the card in compact form, e.g. "As", "Td", "2c".
func (c Card) String() string {
	if c.Rank < 2 || c.Rank > 14 {
		return "??"
	}
	return string(rankLabels[c.Rank]) + string(c.Suit)
}

// cardStrings renders a hand for event payloads.
func cardStrings(cards []Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}

func joinCards(cards []Card) string {
	return strings.Join(cardStrings(cards), " ")
}

// newDeck returns one 52-card deck in canonical pre-shuffle order: suits
// s, h, d, c, ranks 2..A within each suit. The order is part of the
// reproducibility contract; do not reorder.
func newDeck() []Card {
	suits := []byte{'s', 'h', 'd', 'c'}
	deck := make([]Card, 0, 52)
	for _, s := range suits {
		for r := 2; r <= 14; r++ {
			deck = append(deck, Card{Rank: r, Suit: s})
		}
	}
	return deck
}

// newShoe builds decks copies of the canonical deck and shuffles them with
// the engine's LCG.
func newShoe(decks int, rng *LCG) []Card {
	shoe := make([]Card, 0, 52*decks)
	for i := 0; i < decks; i++ {
		shoe = append(shoe, newDeck()...)
	}
	rng.Shuffle(len(shoe), func(i, j int) {
		shoe[i], shoe[j] = shoe[j], shoe[i]
	})
	return shoe
}
