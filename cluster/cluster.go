// Package cluster runs the row-column product across several processes.
// Rank 0 is the calling process: it fills both operands, scatters row
// blocks of A, broadcasts B, computes its own block and gathers the rest.
package cluster

import (
	"context"
	"time"

	"github.com/juju/errors"
	"github.com/weiihann/matbench/kernel"
	"github.com/weiihann/matbench/log"
	"github.com/weiihann/matbench/matrix"
	"github.com/weiihann/matbench/workerpool"
	"github.com/weiihann/matbench/workload"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultSize is the fixed matrix dimension of the cluster benchmark.
const DefaultSize = 8192

// Config holds the parameters of one cluster run.
type Config struct {
	Size   int
	Procs  int
	Method kernel.Method
	// Seed for matrix contents; zero seeds from the clock.
	Seed     int64
	Launcher Launcher
}

// Validate checks the size, process count and launcher.
func (cfg Config) Validate() error {
	if cfg.Size <= 0 || cfg.Size > MaxSize {
		return errors.NotValidf("matrix size %d", cfg.Size)
	}
	if cfg.Procs <= 0 {
		return errors.NotValidf("process count %d", cfg.Procs)
	}
	if cfg.Launcher == nil {
		return errors.NotValidf("nil launcher")
	}
	return nil
}

// Result is the outcome of a cluster run. Seconds covers the whole
// pipeline from operand fill to the last gathered block.
type Result[T matrix.Element] struct {
	Size    int                `json:"size"`
	Procs   int                `json:"procs"`
	Method  string             `json:"method"`
	Seed    int64              `json:"seed"`
	Ranges  []workerpool.Range `json:"ranges"`
	Seconds float64            `json:"seconds"`

	A       *matrix.Matrix[T] `json:"-"`
	B       *matrix.Matrix[T] `json:"-"`
	Product *matrix.Matrix[T] `json:"-"`
}

// Run fills A and B, splits the rows of A into cfg.Procs blocks and
// multiplies each block on its own rank. Any rank failure aborts the run
// and cancels the other ranks.
func Run[T matrix.Element](ctx context.Context, cfg Config) (*Result[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}

	logger := log.Logger().With(
		zap.String("backend", "cluster"),
		zap.Int("size", cfg.Size),
		zap.Int("procs", cfg.Procs),
	)

	start := time.Now()

	gen := workload.NewGenerator(workload.Config{Seed: cfg.Seed, Range: workload.ParallelRange})
	a := matrix.New[T](cfg.Size)
	b := matrix.New[T](cfg.Size)
	c := matrix.New[T](cfg.Size)
	workload.Fill(gen, a)
	workload.Fill(gen, b)

	ranges := workerpool.Partition(cfg.Size, cfg.Procs)
	logger.Debug("scattering rows", zap.Any("ranges", ranges))

	g, gctx := errgroup.WithContext(ctx)
	for rank := 1; rank < len(ranges); rank++ {
		g.Go(func() error {
			return exchange(gctx, cfg.Launcher, rank, ranges[rank], cfg.Method, a, b, c)
		})
	}

	local := ranges[0]
	computeBlock(cfg.Method, a.Rows(local.Start, local.End), b.Data(), c.Rows(local.Start, local.End), cfg.Size, local.Len())

	if err := g.Wait(); err != nil {
		return nil, errors.Trace(err)
	}

	elapsed := time.Since(start).Seconds()
	logger.Info("cluster run complete", zap.Float64("seconds", elapsed))

	return &Result[T]{
		Size:    cfg.Size,
		Procs:   cfg.Procs,
		Method:  cfg.Method.String(),
		Seed:    gen.Seed(),
		Ranges:  ranges,
		Seconds: elapsed,
		A:       a,
		B:       b,
		Product: c,
	}, nil
}

// exchange sends one row block to rank and copies the product rows it
// returns into c.
func exchange[T matrix.Element](
	ctx context.Context,
	launcher Launcher,
	rank int,
	r workerpool.Range,
	method kernel.Method,
	a, b, c *matrix.Matrix[T],
) error {
	peer, err := launcher.Launch(ctx, rank)
	if err != nil {
		return errors.Trace(err)
	}

	req := newHeader(matrix.KindOf[T](), method, a.Size(), r.Len())

	werr := writeRequest(peer.In, req, a.Rows(r.Start, r.End), b.Data())
	if cerr := peer.In.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		if err := peer.Wait(); err != nil {
			return errors.Trace(err)
		}
		return errors.Annotatef(werr, "scatter to rank %d", rank)
	}

	if err := readResponse(peer.Out, req, c.Rows(r.Start, r.End)); err != nil {
		if werr := peer.Wait(); werr != nil {
			return errors.Trace(werr)
		}
		return errors.Annotatef(err, "gather from rank %d", rank)
	}

	return errors.Trace(peer.Wait())
}
