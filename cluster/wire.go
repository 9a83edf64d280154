package cluster

import (
	"encoding/binary"
	"io"

	"github.com/juju/errors"
	"github.com/weiihann/matbench/kernel"
	"github.com/weiihann/matbench/matrix"
)

// frameMagic opens every request and response ("MBT1").
const frameMagic uint32 = 0x3154424d

// blockChunk bounds the elements encoded per binary.Write call so that
// large blocks are not copied into one buffer.
const blockChunk = 1 << 14

// MaxSize is the largest matrix dimension a frame may carry.
const MaxSize = 1 << 15

// header describes a row block. A request is a header, the A rows and
// all of B. A response is the echoed header and the C rows.
type header struct {
	Magic  uint32
	Kind   uint8
	Method uint8
	N      uint32
	Rows   uint32
}

func newHeader(kind matrix.Kind, method kernel.Method, n, rows int) header {
	return header{
		Magic:  frameMagic,
		Kind:   uint8(kind),
		Method: uint8(method),
		N:      uint32(n),
		Rows:   uint32(rows),
	}
}

func (h header) validate() error {
	if h.Magic != frameMagic {
		return errors.NotValidf("frame magic %#x", h.Magic)
	}
	if h.Method > uint8(kernel.RowRow) {
		return errors.NotValidf("method %d", h.Method)
	}
	if h.Kind > uint8(matrix.Double) {
		return errors.NotValidf("element kind %d", h.Kind)
	}
	if h.N > MaxSize {
		return errors.NotValidf("matrix dimension %d", h.N)
	}
	if h.N == 0 || h.Rows > h.N {
		return errors.NotValidf("block of %d rows in %dx%d matrix", h.Rows, h.N, h.N)
	}
	return nil
}

func writeHeader(w io.Writer, h header) error {
	return errors.Trace(binary.Write(w, binary.LittleEndian, h))
}

func readHeader(r io.Reader) (header, error) {
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return h, errors.Trace(err)
	}
	if err := h.validate(); err != nil {
		return h, errors.Trace(err)
	}
	return h, nil
}

func writeBlock[T matrix.Element](w io.Writer, data []T) error {
	for len(data) > 0 {
		n := min(len(data), blockChunk)
		if err := binary.Write(w, binary.LittleEndian, data[:n]); err != nil {
			return errors.Trace(err)
		}
		data = data[n:]
	}
	return nil
}

func readBlock[T matrix.Element](r io.Reader, data []T) error {
	for len(data) > 0 {
		n := min(len(data), blockChunk)
		if err := binary.Read(r, binary.LittleEndian, data[:n]); err != nil {
			return errors.Trace(err)
		}
		data = data[n:]
	}
	return nil
}

func writeRequest[T matrix.Element](w io.Writer, h header, rows, b []T) error {
	if err := writeHeader(w, h); err != nil {
		return errors.Trace(err)
	}
	if err := writeBlock(w, rows); err != nil {
		return errors.Annotate(err, "scatter rows")
	}
	if err := writeBlock(w, b); err != nil {
		return errors.Annotate(err, "broadcast operand")
	}
	return nil
}

func readResponse[T matrix.Element](r io.Reader, want header, rows []T) error {
	got, err := readHeader(r)
	if err != nil {
		return errors.Annotate(err, "read response header")
	}
	if got != want {
		return errors.NotValidf("response %+v for request %+v", got, want)
	}
	return errors.Annotate(readBlock(r, rows), "gather rows")
}
