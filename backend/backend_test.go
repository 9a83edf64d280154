package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiihann/matbench/kernel"
	"github.com/weiihann/matbench/matrix"
	"github.com/weiihann/matbench/workload"
)

func TestNew(t *testing.T) {
	for _, name := range Names() {
		be, err := New[float64](name)
		require.NoError(t, err)
		assert.Equal(t, name, be.Name())
		assert.Positive(t, be.Workers())
		be.Close()
	}

	_, err := New[float64]("mpi")
	assert.Error(t, err)
}

func TestWorkers(t *testing.T) {
	async := NewAsync[int32]()
	assert.Equal(t, 1, async.Workers())

	pool := NewPool[int32](DefaultPoolWorkers)
	defer pool.Close()
	assert.Equal(t, 8, pool.Workers())

	parallel := NewParallel[int32]()
	defer parallel.Close()
	assert.Equal(t, ParallelWorkers(), parallel.Workers())
	assert.GreaterOrEqual(t, ParallelWorkers(), 1)
	assert.Equal(t, max(AvailableCores()-2, 1), ParallelWorkers())
	assert.NotEmpty(t, CPUName())
}

func testBackendsAgree[T matrix.Element](t *testing.T, n int) {
	gen := workload.NewGenerator(workload.Config{Seed: int64(n)})
	a := matrix.New[T](n)
	b := matrix.New[T](n)
	workload.Fill(gen, a)
	workload.Fill(gen, b)

	for _, method := range kernel.Methods() {
		want := matrix.New[T](n)
		kernel.Multiply(method, a, b, want, 0, n)

		for _, name := range Names() {
			be, err := New[T](name)
			require.NoError(t, err)

			got := matrix.New[T](n)
			be.Multiply(method, a, b, got)
			be.Close()

			assert.True(t, want.Equal(got), "%s/%s n=%d", name, method, n)
		}
	}
}

func TestBackendsAgree(t *testing.T) {
	for _, n := range []int{1, 3, 8, 9, 37} {
		testBackendsAgree[int32](t, n)
		testBackendsAgree[int64](t, n)
		testBackendsAgree[float32](t, n)
		testBackendsAgree[float64](t, n)
	}
}

func TestPoolReuse(t *testing.T) {
	pool := NewPool[int64](4)
	defer pool.Close()

	a, err := matrix.FromRows([][]int64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	b, err := matrix.FromRows([][]int64{{5, 6}, {7, 8}})
	require.NoError(t, err)

	for range 20 {
		c := matrix.New[int64](2)
		pool.Multiply(kernel.RowColumn, a, b, c)
		assert.Equal(t, []int64{19, 22, 43, 50}, c.Data())
	}
}
