package backend

import (
	"runtime"

	"github.com/klauspost/cpuid/v2"
	"github.com/weiihann/matbench/kernel"
	"github.com/weiihann/matbench/matrix"
	"github.com/weiihann/matbench/workerpool"
)

// Pool splits the output rows across a persistent worker pool and waits
// on a barrier after each multiply.
type Pool[T matrix.Element] struct {
	name string
	pool *workerpool.Pool
}

// NewPool creates a pool backend with a fixed number of workers.
func NewPool[T matrix.Element](workers int) *Pool[T] {
	return &Pool[T]{name: PoolName, pool: workerpool.New(workers)}
}

// NewParallel creates a pool backend sized from the machine, leaving
// two cores for the operating system.
func NewParallel[T matrix.Element]() *Pool[T] {
	return &Pool[T]{name: ParallelName, pool: workerpool.New(ParallelWorkers())}
}

func (p *Pool[T]) Name() string { return p.name }

func (p *Pool[T]) Workers() int { return p.pool.NumWorkers() }

func (p *Pool[T]) Close() { p.pool.Close() }

// Multiply runs the kernel on each worker's row range.
func (p *Pool[T]) Multiply(method kernel.Method, a, b, c *matrix.Matrix[T]) {
	p.pool.ParallelFor(a.Size(), func(start, end int) {
		kernel.Multiply(method, a, b, c, start, end)
	})
}

// AvailableCores returns the number of logical cores.
func AvailableCores() int {
	if n := cpuid.CPU.LogicalCores; n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// ParallelWorkers returns max(AvailableCores()-2, 1).
func ParallelWorkers() int {
	return max(AvailableCores()-2, 1)
}

// CPUName returns the processor brand string, if known.
func CPUName() string {
	if cpuid.CPU.BrandName != "" {
		return cpuid.CPU.BrandName
	}
	return runtime.GOARCH
}
