package sim

// === LCG ===

// LCG is the 32-bit linear congruential generator every engine draws from.
// Two engines initialized with the same seed MUST produce bit-for-bit
// identical draw sequences; this is the reproducibility root of trust for
// the whole ledger, so the update formula is frozen:
//
//	state = (state*1664525 + 1013904223) mod 2^32
//
// One call to Next per draw. Never share an LCG across matches.
//
// Thread-safety: NOT thread-safe. Must be called from a single goroutine.
type LCG struct {
	state uint32
}

// NewLCG creates an LCG seeded from a match seed. Only the low 32 bits of
// the seed participate in the state.
func NewLCG(seed int64) *LCG {
	return &LCG{state: uint32(seed)}
}

// Next advances the generator once and returns the new state as a
// non-negative int64.
func (g *LCG) Next() int64 {
	g.state = g.state*1664525 + 1013904223
	return int64(g.state)
}

// Intn returns a draw in [0, n). Panics if n <= 0.
func (g *LCG) Intn(n int) int {
	if n <= 0 {
		panic("LCG.Intn: n must be positive")
	}
	return int(g.Next() % int64(n))
}

// Shuffle performs a Fisher–Yates shuffle over n elements, walking from the
// last index down to 1 and swapping each position with a draw in [0, i].
func (g *LCG) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i >= 1; i-- {
		j := g.Intn(i + 1)
		swap(i, j)
	}
}
