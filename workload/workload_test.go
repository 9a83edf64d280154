package workload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/weiihann/matbench/matrix"
)

func TestFillDeterministic(t *testing.T) {
	cfg := Config{Seed: 42, Range: ComparisonRange}

	a := matrix.New[int32](16)
	b := matrix.New[int32](16)
	Fill(NewGenerator(cfg), a)
	Fill(NewGenerator(cfg), b)

	if !a.Equal(b) {
		t.Error("fills are not deterministic for same seed")
	}
}

func TestFillDifferentSeeds(t *testing.T) {
	a := matrix.New[float64](16)
	b := matrix.New[float64](16)
	Fill(NewGenerator(Config{Seed: 1}), a)
	Fill(NewGenerator(Config{Seed: 2}), b)

	assert.False(t, a.Equal(b))
}

func TestFillIntegralRange(t *testing.T) {
	tests := []struct {
		name string
		rng  Range
	}{
		{"comparison", ComparisonRange},
		{"parallel", ParallelRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := NewGenerator(Config{Seed: 7, Range: tt.rng})

			m := matrix.New[int32](64)
			Fill(gen, m)
			for _, v := range m.Data() {
				if v < 0 || int64(v) > tt.rng.IntMax {
					t.Fatalf("value %d outside [0,%d]", v, tt.rng.IntMax)
				}
			}

			l := matrix.New[int64](64)
			Fill(gen, l)
			for _, v := range l.Data() {
				if v < 0 || v > tt.rng.IntMax {
					t.Fatalf("value %d outside [0,%d]", v, tt.rng.IntMax)
				}
			}
		})
	}
}

func TestFillIntegralCoversBounds(t *testing.T) {
	gen := NewGenerator(Config{Seed: 3, Range: ComparisonRange})
	m := matrix.New[int32](128)
	Fill(gen, m)

	seen := make(map[int32]bool)
	for _, v := range m.Data() {
		seen[v] = true
	}

	assert.True(t, seen[0], "lower bound never drawn")
	assert.True(t, seen[99], "upper bound never drawn")
	assert.Len(t, seen, 100)
}

func TestFillRealRange(t *testing.T) {
	gen := NewGenerator(Config{Seed: 11, Range: ParallelRange})

	d := matrix.New[float64](64)
	Fill(gen, d)
	for _, v := range d.Data() {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 10.0)
	}

	f := matrix.New[float32](64)
	Fill(gen, f)
	for _, v := range f.Data() {
		assert.GreaterOrEqual(t, v, float32(0))
		assert.LessOrEqual(t, v, float32(10))
	}
}

func TestNewGeneratorDefaults(t *testing.T) {
	gen := NewGenerator(Config{})
	assert.NotZero(t, gen.Seed())
	assert.Equal(t, ComparisonRange, gen.Range())

	gen = NewGenerator(Config{Seed: 5, Range: ParallelRange})
	assert.Equal(t, int64(5), gen.Seed())
	assert.Equal(t, ParallelRange, gen.Range())
}
