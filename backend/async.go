package backend

import (
	"github.com/weiihann/matbench/kernel"
	"github.com/weiihann/matbench/matrix"
)

// Async runs each multiply as a single task on its own goroutine and
// blocks on its completion.
type Async[T matrix.Element] struct{}

// NewAsync creates an Async backend.
func NewAsync[T matrix.Element]() *Async[T] {
	return &Async[T]{}
}

func (*Async[T]) Name() string { return AsyncName }

func (*Async[T]) Workers() int { return 1 }

func (*Async[T]) Close() {}

// Multiply dispatches the whole product to one goroutine and waits.
func (*Async[T]) Multiply(method kernel.Method, a, b, c *matrix.Matrix[T]) {
	done := make(chan struct{})

	go func() {
		defer close(done)
		kernel.Multiply(method, a, b, c, 0, a.Size())
	}()

	<-done
}
