package cluster

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiihann/matbench/kernel"
	"github.com/weiihann/matbench/matrix"
	"github.com/weiihann/matbench/workerpool"
)

const testWorkerEnv = "MATBENCH_TEST_WORKER"

// TestMain lets the test binary double as a worker process.
func TestMain(m *testing.M) {
	if os.Getenv(testWorkerEnv) == "1" {
		if err := Serve(os.Stdin, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func reference[T matrix.Element](method kernel.Method, a, b *matrix.Matrix[T]) *matrix.Matrix[T] {
	c := matrix.New[T](a.Size())
	kernel.Multiply(method, a, b, c, 0, a.Size())
	return c
}

func TestRunLocal(t *testing.T) {
	for _, procs := range []int{1, 2, 3, 4, 7} {
		t.Run(fmt.Sprintf("procs=%d", procs), func(t *testing.T) {
			cfg := Config{Size: 13, Procs: procs, Seed: 5, Launcher: LocalLauncher{}}

			result, err := Run[float64](context.Background(), cfg)
			require.NoError(t, err)

			assert.Equal(t, 13, result.Size)
			assert.Equal(t, procs, result.Procs)
			assert.Equal(t, "rc", result.Method)
			assert.Equal(t, int64(5), result.Seed)
			assert.Equal(t, workerpool.Partition(13, procs), result.Ranges)
			assert.GreaterOrEqual(t, result.Seconds, 0.0)
			assert.True(t, reference(kernel.RowColumn, result.A, result.B).Equal(result.Product))
		})
	}
}

func TestRunLocalKinds(t *testing.T) {
	cfg := Config{Size: 9, Procs: 3, Method: kernel.RowRow, Seed: 2, Launcher: LocalLauncher{}}

	ints, err := Run[int32](context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, reference(kernel.RowRow, ints.A, ints.B).Equal(ints.Product))

	longs, err := Run[int64](context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, reference(kernel.RowRow, longs.A, longs.B).Equal(longs.Product))

	floats, err := Run[float32](context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, reference(kernel.RowRow, floats.A, floats.B).Equal(floats.Product))
}

func TestRunMoreProcsThanRows(t *testing.T) {
	cfg := Config{Size: 2, Procs: 5, Seed: 1, Launcher: LocalLauncher{}}

	result, err := Run[float64](context.Background(), cfg)
	require.NoError(t, err)
	assert.Len(t, result.Ranges, 2)
	assert.True(t, reference(kernel.RowColumn, result.A, result.B).Equal(result.Product))
}

func TestRunProcesses(t *testing.T) {
	if testing.Short() {
		t.Skip("starts child processes")
	}

	runner := NewProcessLauncher(CommandConfig{
		Binary: os.Args[0],
		Env:    []string{testWorkerEnv + "=1"},
	})
	cfg := Config{Size: 16, Procs: 3, Seed: 9, Launcher: runner}

	result, err := Run[float64](context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, reference(kernel.RowColumn, result.A, result.B).Equal(result.Product))
}

func TestRunProcessFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("starts child processes")
	}

	runner := NewProcessLauncher(CommandConfig{Binary: os.Args[0] + ".missing"})
	_, err := Run[float64](context.Background(), Config{Size: 4, Procs: 2, Launcher: runner})
	assert.Error(t, err)
}

type failingLauncher struct{}

func (failingLauncher) Launch(_ context.Context, rank int) (*Peer, error) {
	return nil, errors.Errorf("rank %d refused", rank)
}

func TestRunLaunchFailure(t *testing.T) {
	_, err := Run[float64](context.Background(), Config{Size: 4, Procs: 2, Launcher: failingLauncher{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rank 1 refused")

	// A single rank never launches a peer.
	_, err = Run[float64](context.Background(), Config{Size: 4, Procs: 1, Launcher: failingLauncher{}})
	assert.NoError(t, err)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{Size: 1, Procs: 1, Launcher: LocalLauncher{}}.Validate())
	assert.True(t, errors.Is(Config{Size: 0, Procs: 1, Launcher: LocalLauncher{}}.Validate(), errors.NotValid))
	assert.Error(t, Config{Size: 4, Procs: 0, Launcher: LocalLauncher{}}.Validate())
	assert.NoError(t, Config{Size: MaxSize, Procs: 1, Launcher: LocalLauncher{}}.Validate())
	assert.True(t, errors.Is(Config{Size: MaxSize + 1, Procs: 1, Launcher: LocalLauncher{}}.Validate(), errors.NotValid))
	assert.Error(t, Config{Size: MaxSize * 4, Procs: 1, Launcher: LocalLauncher{}}.Validate())
	assert.Error(t, Config{Size: 4, Procs: 1}.Validate())
}

func TestServe(t *testing.T) {
	a, err := matrix.FromRows([][]int64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	b, err := matrix.FromRows([][]int64{{5, 6}, {7, 8}})
	require.NoError(t, err)

	var req bytes.Buffer
	h := newHeader(matrix.Long, kernel.RowColumn, 2, 1)
	require.NoError(t, writeRequest(&req, h, a.Rows(1, 2), b.Data()))

	var resp bytes.Buffer
	require.NoError(t, Serve(&req, &resp))

	row := make([]int64, 2)
	require.NoError(t, readResponse(&resp, h, row))
	assert.Equal(t, []int64{43, 50}, row)
}

func TestServeRejectsBadFrames(t *testing.T) {
	var req bytes.Buffer
	h := newHeader(matrix.Double, kernel.RowRow, 2, 1)
	h.Magic = 0xdeadbeef
	require.NoError(t, writeHeader(&req, h))
	assert.Error(t, Serve(&req, &bytes.Buffer{}))

	req.Reset()
	require.NoError(t, writeHeader(&req, newHeader(matrix.Double, kernel.RowRow, 2, 3)))
	assert.Error(t, Serve(&req, &bytes.Buffer{}))

	// Oversized dimension is rejected before any block is allocated.
	req.Reset()
	require.NoError(t, writeHeader(&req, header{Magic: frameMagic, Kind: uint8(matrix.Double), N: 1 << 31, Rows: 1}))
	err := Serve(&req, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.NotValid))

	// Truncated operand.
	req.Reset()
	require.NoError(t, writeRequest(&req, newHeader(matrix.Float, kernel.RowRow, 2, 1), []float32{1, 2}, []float32{1}))
	assert.Error(t, Serve(&req, &bytes.Buffer{}))
}

func TestBlockSpansChunks(t *testing.T) {
	data := make([]float32, blockChunk*2+3)
	for i := range data {
		data[i] = float32(i)
	}

	var buf bytes.Buffer
	require.NoError(t, writeBlock(&buf, data))
	assert.Equal(t, len(data)*4, buf.Len())

	got := make([]float32, len(data))
	require.NoError(t, readBlock(&buf, got))
	assert.Equal(t, data, got)
}

func TestResponseHeaderMismatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeHeader(&buf, newHeader(matrix.Int, kernel.RowColumn, 4, 2)))

	err := readResponse(&buf, newHeader(matrix.Int, kernel.RowColumn, 4, 1), make([]int32, 4))
	assert.Error(t, err)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("MATBENCH_PROCS", "3")
	t.Setenv(RankEnv, "2")

	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, Env{Procs: 3, Rank: 2}, env)
}

func TestLoadEnvDefaults(t *testing.T) {
	t.Setenv("MATBENCH_PROCS", "")
	require.NoError(t, os.Unsetenv("MATBENCH_PROCS"))

	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Positive(t, env.Procs)
}

func TestLoadEnvInvalid(t *testing.T) {
	t.Setenv("MATBENCH_PROCS", "0")
	_, err := LoadEnv()
	assert.Error(t, err)
}

func TestWrapCommand(t *testing.T) {
	cfg := WrapCommand("/usr/bin/matbench")
	assert.Equal(t, "/usr/bin/matbench", cfg.Binary)
	assert.Equal(t, []string{WorkerCommand}, cfg.ExtraArgs)

	path, err := ResolveBinary()
	require.NoError(t, err)
	assert.NotEmpty(t, path)
}
