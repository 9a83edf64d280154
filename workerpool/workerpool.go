// Package workerpool provides row partitioning and a persistent worker
// pool. A Pool is created once per benchmark and reused for every
// multiplication, so goroutines are not spawned per call.
//
// Usage:
//
//	pool := workerpool.New(8)
//	defer pool.Close()
//
//	for range rounds {
//	    pool.ParallelFor(n, func(start, end int) {
//	        multiplyRows(start, end)
//	    })
//	}
package workerpool

import (
	"runtime"
	"sync"

	"go.uber.org/atomic"
)

// Pool is a fixed set of worker goroutines fed through a channel.
type Pool struct {
	numWorkers int
	workC      chan workItem
	closeOnce  sync.Once
	closed     *atomic.Bool
}

type workItem struct {
	fn      func()
	barrier *sync.WaitGroup
}

// New spawns numWorkers workers. If numWorkers <= 0, GOMAXPROCS is used.
func New(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		numWorkers: numWorkers,
		workC:      make(chan workItem, numWorkers*2),
		closed:     atomic.NewBool(false),
	}

	for range numWorkers {
		go p.worker()
	}

	return p
}

func (p *Pool) worker() {
	for item := range p.workC {
		item.fn()
		item.barrier.Done()
	}
}

// NumWorkers returns the number of workers in the pool.
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// Close stops the workers after pending work completes. Calling Close
// more than once is safe.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.workC)
	})
}

// Run executes fn once per range on the pool and blocks until every
// call has returned. A closed pool runs the ranges sequentially.
func (p *Pool) Run(ranges []Range, fn func(Range)) {
	if len(ranges) == 0 {
		return
	}

	if p.closed.Load() || len(ranges) == 1 {
		for _, r := range ranges {
			fn(r)
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(ranges))

	for _, r := range ranges {
		p.workC <- workItem{
			fn: func() {
				fn(r)
			},
			barrier: &wg,
		}
	}

	wg.Wait()
}

// ParallelFor partitions [0, n) across the workers and calls fn with each
// (start, end) pair. Blocks until all work completes.
func (p *Pool) ParallelFor(n int, fn func(start, end int)) {
	p.Run(Partition(n, p.numWorkers), func(r Range) {
		fn(r.Start, r.End)
	})
}
