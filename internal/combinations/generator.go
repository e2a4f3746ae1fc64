// Package combinations provides a generic "choose k of n" enumerator over
// selection pools. The generator is lazy: combinations are produced one at a
// time from a bounded amount of state rather than materializing the full
// C(n, k) result set, so downstream filters can stop consuming early.
package combinations

import (
	"github.com/yourusername/acca-engine/internal/models"
)

// Generator yields every k-element combination of a pool in deterministic
// order. The order matches the include-head-first binomial recurrence
// C(n,k) = C(n-1,k-1) + C(n-1,k), which is lexicographic over pool indices.
// Event-level constraints are not applied here; the builder owns those.
type Generator struct {
	pool    []models.Selection
	size    int
	indices []int
	done    bool
}

// NewGenerator creates a generator over pool for combinations of exactly size
// elements. A size of zero yields a single empty combination; a size larger
// than the pool yields nothing.
func NewGenerator(pool []models.Selection, size int) *Generator {
	g := &Generator{pool: pool, size: size}
	if size < 0 || size > len(pool) {
		g.done = true
		return g
	}
	g.indices = make([]int, size)
	for i := range g.indices {
		g.indices[i] = i
	}
	return g
}

// Next returns the next combination, or false when the sequence is exhausted.
// The returned slice is freshly allocated and safe for the caller to retain.
func (g *Generator) Next() ([]models.Selection, bool) {
	if g.done {
		return nil, false
	}

	combo := make([]models.Selection, g.size)
	for i, idx := range g.indices {
		combo[i] = g.pool[idx]
	}

	g.advance()
	return combo, true
}

// advance steps the index vector to the next combination in lexicographic
// order, marking the generator done when the last combination has been
// emitted.
func (g *Generator) advance() {
	if g.size == 0 {
		g.done = true
		return
	}

	n := len(g.pool)
	i := g.size - 1
	for i >= 0 && g.indices[i] == n-g.size+i {
		i--
	}
	if i < 0 {
		g.done = true
		return
	}
	g.indices[i]++
	for j := i + 1; j < g.size; j++ {
		g.indices[j] = g.indices[j-1] + 1
	}
}

// Enumerate drains a generator into a slice. Intended for small pools and
// tests; performance-sensitive callers should stream via Next instead.
func Enumerate(pool []models.Selection, size int) [][]models.Selection {
	var out [][]models.Selection
	gen := NewGenerator(pool, size)
	for combo, ok := gen.Next(); ok; combo, ok = gen.Next() {
		out = append(out, combo)
	}
	return out
}

// Count returns the binomial coefficient C(n, k), the number of combinations
// a generator over n elements with size k will emit.
func Count(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	result := 1
	for i := 0; i < k; i++ {
		result = result * (n - i) / (i + 1)
	}
	return result
}
