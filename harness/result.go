// Package harness runs timed benchmark rounds on a backend and
// aggregates the measurements.
package harness

import (
	"math"

	"github.com/samber/lo"
)

const (
	ModeCompare = "compare"
	ModeSingle  = "single"
)

// InvalidDuration is recorded for a round whose method name was not
// recognised. It is averaged like any other sample.
const InvalidDuration = -1.0

// Sample is one elapsed-time measurement.
type Sample struct {
	Round   int     `json:"round"`
	Method  string  `json:"method"`
	Order   int     `json:"order"`
	Seconds float64 `json:"seconds"`
}

// Summary holds the aggregate statistics of a benchmark.
type Summary struct {
	RCMean     float64 `json:"rc_mean,omitempty"`
	RRMean     float64 `json:"rr_mean,omitempty"`
	Difference float64 `json:"difference,omitempty"`
	Speedup    float64 `json:"speedup,omitempty"`
	Mean       float64 `json:"mean,omitempty"`
}

// Result holds every sample of one benchmark run.
type Result struct {
	Mode     string   `json:"mode"`
	Backend  string   `json:"backend"`
	Workers  int      `json:"workers"`
	Kind     string   `json:"type"`
	TypeName string   `json:"type_name"`
	Size     int      `json:"size"`
	Rounds   int      `json:"rounds"`
	Method   string   `json:"method,omitempty"`
	Seed     int64    `json:"seed"`
	CPU      string   `json:"cpu"`
	Samples  []Sample `json:"samples"`
	Summary  Summary  `json:"summary"`
}

// Times returns the durations recorded for method, in round order.
func (r *Result) Times(method string) []float64 {
	return times(r.Samples, method)
}

// RoundSamples returns the samples of a 1-based round.
func (r *Result) RoundSamples(round int) []Sample {
	return lo.Filter(r.Samples, func(s Sample, _ int) bool {
		return s.Round == round
	})
}

// Summarize computes the per-method means, their absolute difference and
// the rc/rr speedup.
func Summarize(samples []Sample) Summary {
	s := Summary{
		RCMean: mean(times(samples, "rc")),
		RRMean: mean(times(samples, "rr")),
	}
	s.Difference = math.Abs(s.RCMean - s.RRMean)
	if s.RRMean != 0 {
		s.Speedup = s.RCMean / s.RRMean
	}

	return s
}

func times(samples []Sample, method string) []float64 {
	return lo.FilterMap(samples, func(s Sample, _ int) (float64, bool) {
		return s.Seconds, s.Method == method
	})
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return lo.Sum(xs) / float64(len(xs))
}
