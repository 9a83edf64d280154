package cluster

import (
	"bufio"
	"io"

	"github.com/juju/errors"
	"github.com/weiihann/matbench/backend"
	"github.com/weiihann/matbench/kernel"
	"github.com/weiihann/matbench/matrix"
	"github.com/weiihann/matbench/workerpool"
)

const ioBufferSize = 1 << 16

// Serve handles one request read from r: it multiplies the received row
// block by the received operand and writes the product rows to w.
func Serve(r io.Reader, w io.Writer) error {
	br := bufio.NewReaderSize(r, ioBufferSize)
	bw := bufio.NewWriterSize(w, ioBufferSize)

	h, err := readHeader(br)
	if err != nil {
		return errors.Annotate(err, "read request header")
	}

	switch matrix.Kind(h.Kind) {
	case matrix.Int:
		err = serve[int32](br, bw, h)
	case matrix.Long:
		err = serve[int64](br, bw, h)
	case matrix.Float:
		err = serve[float32](br, bw, h)
	case matrix.Double:
		err = serve[float64](br, bw, h)
	default:
		err = errors.NotSupportedf("element kind %d", h.Kind)
	}
	if err != nil {
		return errors.Trace(err)
	}

	return errors.Trace(bw.Flush())
}

func serve[T matrix.Element](r io.Reader, w io.Writer, h header) error {
	n, rows := int(h.N), int(h.Rows)

	a := make([]T, rows*n)
	if err := readBlock(r, a); err != nil {
		return errors.Annotate(err, "read rows")
	}
	b := make([]T, n*n)
	if err := readBlock(r, b); err != nil {
		return errors.Annotate(err, "read operand")
	}

	c := make([]T, rows*n)
	computeBlock(kernel.Method(h.Method), a, b, c, n, rows)

	if err := writeHeader(w, h); err != nil {
		return errors.Trace(err)
	}
	return errors.Annotate(writeBlock(w, c), "write product rows")
}

// computeBlock fills the rows x n block c from the rows x n block a and
// the n x n operand b, spread over the parallel worker count.
func computeBlock[T matrix.Element](method kernel.Method, a, b, c []T, n, rows int) {
	pool := workerpool.New(backend.ParallelWorkers())
	defer pool.Close()

	pool.ParallelFor(rows, func(start, end int) {
		kernel.MultiplyRows(method, a, b, c, n, start, end)
	})
}
