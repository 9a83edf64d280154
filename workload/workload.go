// Package workload fills benchmark matrices with uniformly distributed
// random values. The random source is owned by a Generator so that runs
// can be replayed from a seed.
package workload

import (
	mrand "math/rand"
	"time"

	"github.com/weiihann/matbench/matrix"
)

// Range bounds the values drawn for each element kind. Integral kinds
// draw from [0, IntMax]; real kinds draw from [0, RealMax).
type Range struct {
	IntMax  int64
	RealMax float64
}

var (
	// ComparisonRange is used by the benchmarks that time both methods.
	ComparisonRange = Range{IntMax: 99, RealMax: 99}
	// ParallelRange is used by the single-method and cluster benchmarks.
	ParallelRange = Range{IntMax: 10, RealMax: 10}
)

// Config controls matrix generation.
type Config struct {
	Seed  int64
	Range Range
}

// Generator produces random matrix contents from a Config.
type Generator struct {
	cfg Config
	rng *mrand.Rand
}

// NewGenerator creates a Generator. A zero seed is replaced by the
// current time, so unseeded runs are not reproducible.
func NewGenerator(cfg Config) *Generator {
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cfg.Range == (Range{}) {
		cfg.Range = ComparisonRange
	}

	return &Generator{
		cfg: cfg,
		rng: mrand.New(mrand.NewSource(cfg.Seed)),
	}
}

// Seed returns the seed the generator was created with.
func (g *Generator) Seed() int64 {
	return g.cfg.Seed
}

// Range returns the value range used for fills.
func (g *Generator) Range() Range {
	return g.cfg.Range
}

// Fill overwrites every element of m with an independent sample.
func Fill[T matrix.Element](g *Generator, m *matrix.Matrix[T]) {
	data := m.Data()

	if matrix.KindOf[T]().Integral() {
		bound := g.cfg.Range.IntMax + 1
		for i := range data {
			data[i] = T(g.rng.Int63n(bound))
		}

		return
	}

	for i := range data {
		data[i] = T(g.rng.Float64() * g.cfg.Range.RealMax)
	}
}
