// Package engine implements the pure rules of the political game: the
// probabilistic outcome model, collective-action aggregation, cycle
// succession, control decay, resource income, and international effect
// generation. The package has no storage dependencies; the service layer
// applies the computed effects to the ledgers.
package engine

import "math/rand"

// Rng is the random source used by the outcome model. It is an interface
// so tests can seed or script the rolls.
type Rng interface {
	// Roll100 returns a uniform roll in [1, 100].
	Roll100() int
	// Intn returns a uniform int in [0, n).
	Intn(n int) int
}

// mathRng adapts math/rand to the Rng interface.
type mathRng struct {
	r *rand.Rand
}

// NewRng returns a seeded random source.
func NewRng(seed int64) Rng {
	return &mathRng{r: rand.New(rand.NewSource(seed))}
}

func (m *mathRng) Roll100() int {
	return m.r.Intn(100) + 1
}

func (m *mathRng) Intn(n int) int {
	return m.r.Intn(n)
}

// FixedRng always returns the same roll. Test helper.
type FixedRng struct {
	Roll int
	N    int
}

func (f *FixedRng) Roll100() int { return f.Roll }

func (f *FixedRng) Intn(n int) int {
	if f.N < n {
		return f.N
	}
	return n - 1
}
