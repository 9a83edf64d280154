// Package backend provides the execution strategies a benchmark can run
// its kernels on. Every backend produces the same result for the same
// inputs; only the execution substrate differs.
package backend

import (
	"github.com/juju/errors"
	"github.com/weiihann/matbench/kernel"
	"github.com/weiihann/matbench/matrix"
)

// Backend multiplies whole matrices with a chosen method.
type Backend[T matrix.Element] interface {
	// Name identifies the strategy in reports.
	Name() string
	// Workers is the number of concurrent workers used per multiply.
	Workers() int
	// Multiply computes c from a and b and returns when c is complete.
	Multiply(method kernel.Method, a, b, c *matrix.Matrix[T])
	// Close releases any workers held by the backend.
	Close()
}

const (
	AsyncName    = "async"
	PoolName     = "pool"
	ParallelName = "parallel"
)

// DefaultPoolWorkers is the size of the fixed pool backend.
const DefaultPoolWorkers = 8

// Names lists the in-process strategies.
func Names() []string {
	return []string{AsyncName, PoolName, ParallelName}
}

// New creates the named in-process backend.
func New[T matrix.Element](name string) (Backend[T], error) {
	switch name {
	case AsyncName:
		return NewAsync[T](), nil
	case PoolName:
		return NewPool[T](DefaultPoolWorkers), nil
	case ParallelName:
		return NewParallel[T](), nil
	default:
		return nil, errors.NotSupportedf("backend %q", name)
	}
}
