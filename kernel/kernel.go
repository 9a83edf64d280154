// Package kernel implements the two loop orderings being benchmarked.
//
// RowColumn computes the standard product C = A×B and walks B down its
// columns (stride n). RowRow walks B along its rows (stride 1) and so
// computes C = A×Bᵗ. The two methods do the same number of multiply-adds
// but produce different matrices; their timings are comparable, their
// outputs are not.
package kernel

import (
	"fmt"

	"github.com/juju/errors"
	"github.com/weiihann/matbench/matrix"
)

// Method selects the inner-loop access pattern.
type Method uint8

const (
	RowColumn Method = iota
	RowRow
)

// Methods returns both methods in reporting order.
func Methods() []Method {
	return []Method{RowColumn, RowRow}
}

// ParseMethod maps "rc" and "rr" to a Method.
func ParseMethod(name string) (Method, error) {
	switch name {
	case "rc":
		return RowColumn, nil
	case "rr":
		return RowRow, nil
	default:
		return 0, errors.NotValidf("product method %q", name)
	}
}

// String returns the short method name.
func (m Method) String() string {
	switch m {
	case RowColumn:
		return "rc"
	case RowRow:
		return "rr"
	default:
		return fmt.Sprintf("method(%d)", uint8(m))
	}
}

// Label returns the upper-case name used in reports.
func (m Method) Label() string {
	switch m {
	case RowColumn:
		return "RC"
	case RowRow:
		return "RR"
	default:
		return m.String()
	}
}

// Multiply computes rows [start, end) of c from a and b.
func Multiply[T matrix.Element](method Method, a, b, c *matrix.Matrix[T], start, end int) {
	n := a.Size()
	if b.Size() != n || c.Size() != n {
		panic(fmt.Sprintf("kernel: size mismatch %d/%d/%d", n, b.Size(), c.Size()))
	}

	MultiplyRows(method, a.Data(), b.Data(), c.Data(), n, start, end)
}

// MultiplyRows is Multiply over raw row-major buffers. a and c hold rows
// of width n indexed from zero; b is the full n×n operand. It lets a
// worker multiply a block of rows it received without the rest of A.
func MultiplyRows[T matrix.Element](method Method, a, b, c []T, n, start, end int) {
	switch method {
	case RowColumn:
		rowColumn(a, b, c, n, start, end)
	case RowRow:
		rowRow(a, b, c, n, start, end)
	default:
		panic(fmt.Sprintf("kernel: unknown method %d", method))
	}
}

// C[i][j] = Σ A[i][k] * B[k][j]
func rowColumn[T matrix.Element](a, b, c []T, n, start, end int) {
	for i := start; i < end; i++ {
		ai := a[i*n : (i+1)*n]
		ci := c[i*n : (i+1)*n]
		for j := range n {
			var sum T
			for k, v := range ai {
				sum += v * b[k*n+j]
			}
			ci[j] = sum
		}
	}
}

// C[i][j] = Σ A[i][k] * B[j][k]
func rowRow[T matrix.Element](a, b, c []T, n, start, end int) {
	for i := start; i < end; i++ {
		ai := a[i*n : (i+1)*n]
		ci := c[i*n : (i+1)*n]
		for j := range n {
			bj := b[j*n : (j+1)*n]
			var sum T
			for k, v := range ai {
				sum += v * bj[k]
			}
			ci[j] = sum
		}
	}
}
