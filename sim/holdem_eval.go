package sim

import "sort"

// Hand categories, high to low. The numeric order is load-bearing: evaluated
// hands compare as plain integers.
const (
	handHighCard = iota
	handPair
	handTwoPair
	handTrips
	handStraight
	handFlush
	handFullHouse
	handQuads
	handStraightFlush
)

var handNames = map[int]string{
	handHighCard:      "high_card",
	handPair:          "pair",
	handTwoPair:       "two_pair",
	handTrips:         "three_of_a_kind",
	handStraight:      "straight",
	handFlush:         "flush",
	handFullHouse:     "full_house",
	handQuads:         "four_of_a_kind",
	handStraightFlush: "straight_flush",
}

// handScore packs a category and up to five tiebreak ranks (4 bits each) into
// one comparable integer: category<<20 | r0<<16 | r1<<12 | ... | r4.
func handScore(category int, ranks ...int) int {
	score := category << 20
	for i, r := range ranks {
		score |= r << uint(16-4*i)
	}
	return score
}

// evalFive scores exactly five cards.
func evalFive(cards []Card) int {
	ranks := make([]int, 5)
	flush := true
	for i, c := range cards {
		ranks[i] = c.Rank
		if c.Suit != cards[0].Suit {
			flush = false
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ranks)))

	// Straight detection, including the wheel (A-2-3-4-5).
	straightHigh := 0
	if ranks[0]-ranks[4] == 4 && distinct(ranks) {
		straightHigh = ranks[0]
	} else if ranks[0] == 14 && ranks[1] == 5 && ranks[1]-ranks[4] == 3 && distinct(ranks) {
		straightHigh = 5
	}

	switch {
	case flush && straightHigh > 0:
		return handScore(handStraightFlush, straightHigh)
	case flush:
		return handScore(handFlush, ranks...)
	case straightHigh > 0:
		return handScore(handStraight, straightHigh)
	}

	// Group ranks by multiplicity, then by rank, descending.
	counts := map[int]int{}
	for _, r := range ranks {
		counts[r]++
	}
	type group struct{ rank, count int }
	groups := make([]group, 0, len(counts))
	for r, c := range counts {
		groups = append(groups, group{r, c})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].rank > groups[j].rank
	})

	ordered := make([]int, 0, 5)
	for _, g := range groups {
		for i := 0; i < g.count; i++ {
			ordered = append(ordered, g.rank)
		}
	}

	switch {
	case groups[0].count == 4:
		return handScore(handQuads, ordered...)
	case groups[0].count == 3 && groups[1].count == 2:
		return handScore(handFullHouse, ordered...)
	case groups[0].count == 3:
		return handScore(handTrips, ordered...)
	case groups[0].count == 2 && groups[1].count == 2:
		return handScore(handTwoPair, ordered...)
	case groups[0].count == 2:
		return handScore(handPair, ordered...)
	default:
		return handScore(handHighCard, ordered...)
	}
}

func distinct(ranks []int) bool {
	for i := 1; i < len(ranks); i++ {
		if ranks[i] == ranks[i-1] {
			return false
		}
	}
	return true
}

// evalBest scores the best five-card hand out of up to seven cards by
// exhausting all five-card subsets (21 for a full board).
func evalBest(cards []Card) int {
	if len(cards) == 5 {
		return evalFive(cards)
	}
	best := -1
	n := len(cards)
	pick := make([]Card, 5)
	var recurse func(start, depth int)
	recurse = func(start, depth int) {
		if depth == 5 {
			if s := evalFive(pick); s > best {
				best = s
			}
			return
		}
		for i := start; i <= n-(5-depth); i++ {
			pick[depth] = cards[i]
			recurse(i+1, depth+1)
		}
	}
	recurse(0, 0)
	return best
}

// handName labels a packed score's category for event payloads.
func handName(score int) string {
	return handNames[score>>20]
}
