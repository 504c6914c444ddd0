package mutate

import (
	"math/rand/v2"

	"htmlfuzz/internal/types"
)

// ApplyMutations applies count mutators, each drawn uniformly with
// replacement from mutators, feeding every output into the next one.
// A non-positive count or an empty set returns base.
func ApplyMutations(base types.Document, mutators []Mutator, count int, r Rand) types.Document {
	if len(mutators) == 0 {
		return base
	}
	doc := base
	for range count {
		doc = mutators[r.IntN(len(mutators))].Mutate(doc, r)
	}
	return doc
}

// Engine binds a mutator set to a random source. It is not safe for
// concurrent use; give each goroutine its own Engine.
type Engine struct {
	mutators []Mutator
	rng      Rand
}

func NewEngine(mutators []Mutator, rng Rand) *Engine {
	if len(mutators) == 0 {
		mutators = Defaults()
	}
	return &Engine{mutators: mutators, rng: rng}
}

// NewSeededEngine returns an engine over the default mutators whose random
// stream is fully determined by (seed, stream).
func NewSeededEngine(seed, stream uint64) *Engine {
	return NewEngine(Defaults(), rand.New(rand.NewPCG(seed, stream)))
}

func (e *Engine) Apply(base types.Document, count int) types.Document {
	return ApplyMutations(base, e.mutators, count, e.rng)
}

// ApplyOne applies a single uniformly chosen mutator and reports which one.
func (e *Engine) ApplyOne(base types.Document) (types.Document, Mutator) {
	m := e.mutators[e.rng.IntN(len(e.mutators))]
	return m.Mutate(base, e.rng), m
}

// IntN exposes the engine's random source to strategies that need extra
// draws from the same stream.
func (e *Engine) IntN(n int) int {
	return e.rng.IntN(n)
}
