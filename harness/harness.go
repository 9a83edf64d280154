package harness

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/juju/errors"
	"github.com/weiihann/matbench/backend"
	"github.com/weiihann/matbench/kernel"
	"github.com/weiihann/matbench/log"
	"github.com/weiihann/matbench/matrix"
	"github.com/weiihann/matbench/workload"
	"go.uber.org/zap"
)

// Config holds the parameters of one benchmark.
type Config struct {
	Size   int
	Rounds int
	// Seed for matrix contents; zero seeds from the clock.
	Seed  int64
	Range workload.Range
	// Cooldown is the pause between rounds of a Single benchmark.
	Cooldown time.Duration
	// OnRound, if set, is called after each round with its samples.
	OnRound func(round int, samples []Sample)
	// Stderr receives the invalid-method message. Defaults to os.Stderr.
	Stderr io.Writer
}

// Validate checks the size and round count.
func (cfg Config) Validate() error {
	if cfg.Size <= 0 {
		return errors.NotValidf("matrix size %d", cfg.Size)
	}
	if cfg.Rounds <= 0 {
		return errors.NotValidf("round count %d", cfg.Rounds)
	}
	return nil
}

// RoundOrder returns the order in which the methods run in a 0-based
// round. Even rounds start with RowColumn and odd rounds with RowRow, so
// neither method always runs on a warm cache.
func RoundOrder(round int) []kernel.Method {
	if round%2 == 0 {
		return []kernel.Method{kernel.RowColumn, kernel.RowRow}
	}
	return []kernel.Method{kernel.RowRow, kernel.RowColumn}
}

// Compare times both methods on be for cfg.Rounds rounds, refilling the
// operands before every round.
func Compare[T matrix.Element](ctx context.Context, cfg Config, be backend.Backend[T]) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}

	gen := workload.NewGenerator(workload.Config{Seed: cfg.Seed, Range: cfg.Range})
	result := newResult[T](ModeCompare, cfg, be, gen.Seed())
	logger := benchLogger(result)

	logger.Info("starting benchmark",
		zap.Int("rounds", cfg.Rounds),
		zap.Int("workers", be.Workers()),
		zap.Int64("seed", gen.Seed()),
	)

	a := matrix.New[T](cfg.Size)
	defer a.Free()
	b := matrix.New[T](cfg.Size)
	defer b.Free()

	outputs := map[kernel.Method]*matrix.Matrix[T]{
		kernel.RowColumn: matrix.New[T](cfg.Size),
		kernel.RowRow:    matrix.New[T](cfg.Size),
	}
	defer func() {
		for _, c := range outputs {
			c.Free()
		}
	}()

	for round := range cfg.Rounds {
		if err := ctx.Err(); err != nil {
			return nil, errors.Annotatef(err, "round %d", round+1)
		}

		workload.Fill(gen, a)
		workload.Fill(gen, b)

		samples := make([]Sample, 0, 2)
		for order, method := range RoundOrder(round) {
			c := outputs[method]
			samples = append(samples, Sample{
				Round:   round + 1,
				Method:  method.String(),
				Order:   order,
				Seconds: measure(func() { be.Multiply(method, a, b, c) }),
			})
		}

		result.Samples = append(result.Samples, samples...)
		logger.Debug("round finished", zap.Int("round", round+1), zap.Any("samples", samples))

		if cfg.OnRound != nil {
			cfg.OnRound(round+1, samples)
		}
	}

	result.Summary = Summarize(result.Samples)

	logger.Info("benchmark complete",
		zap.Float64("rc_mean", result.Summary.RCMean),
		zap.Float64("rr_mean", result.Summary.RRMean),
		zap.Float64("speedup", result.Summary.Speedup),
	)

	return result, nil
}

// Single times one named method per round, allocating and filling fresh
// operands each round and pausing cfg.Cooldown between rounds. An
// unknown method name is reported on cfg.Stderr and recorded as
// InvalidDuration.
func Single[T matrix.Element](ctx context.Context, cfg Config, be backend.Backend[T], methodName string) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}

	stderr := cfg.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	method, methodErr := kernel.ParseMethod(methodName)

	gen := workload.NewGenerator(workload.Config{Seed: cfg.Seed, Range: cfg.Range})
	result := newResult[T](ModeSingle, cfg, be, gen.Seed())
	result.Method = methodName
	logger := benchLogger(result).With(zap.String("method", methodName))

	logger.Info("starting benchmark",
		zap.Int("rounds", cfg.Rounds),
		zap.Int("workers", be.Workers()),
		zap.Duration("cooldown", cfg.Cooldown),
	)

	for round := range cfg.Rounds {
		if round > 0 && cfg.Cooldown > 0 {
			select {
			case <-ctx.Done():
				return nil, errors.Annotatef(ctx.Err(), "round %d", round+1)
			case <-time.After(cfg.Cooldown):
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, errors.Annotatef(err, "round %d", round+1)
		}

		seconds := InvalidDuration
		if methodErr != nil {
			fmt.Fprintln(stderr, "Invalid method specified.")
		} else {
			seconds = singleRound(be, gen, cfg.Size, method)
		}

		samples := []Sample{{Round: round + 1, Method: methodName, Seconds: seconds}}
		result.Samples = append(result.Samples, samples...)

		if cfg.OnRound != nil {
			cfg.OnRound(round+1, samples)
		}
	}

	result.Summary = Summary{Mean: mean(result.Times(methodName))}

	logger.Info("benchmark complete", zap.Float64("mean", result.Summary.Mean))

	return result, nil
}

func singleRound[T matrix.Element](be backend.Backend[T], gen *workload.Generator, n int, method kernel.Method) float64 {
	a := matrix.New[T](n)
	defer a.Free()
	b := matrix.New[T](n)
	defer b.Free()
	c := matrix.New[T](n)
	defer c.Free()

	workload.Fill(gen, a)
	workload.Fill(gen, b)

	return measure(func() { be.Multiply(method, a, b, c) })
}

func newResult[T matrix.Element](mode string, cfg Config, be backend.Backend[T], seed int64) *Result {
	kind := matrix.KindOf[T]()
	return &Result{
		Mode:     mode,
		Backend:  be.Name(),
		Workers:  be.Workers(),
		Kind:     kind.String(),
		TypeName: kind.TypeName(),
		Size:     cfg.Size,
		Rounds:   cfg.Rounds,
		Seed:     seed,
		CPU:      backend.CPUName(),
		Samples:  make([]Sample, 0, cfg.Rounds*2),
	}
}

func benchLogger(r *Result) *zap.Logger {
	return log.Logger().With(
		zap.String("backend", r.Backend),
		zap.String("type", r.Kind),
		zap.Int("size", r.Size),
	)
}

func measure(fn func()) float64 {
	start := time.Now()
	fn()
	return time.Since(start).Seconds()
}
