package matrix

import (
	"fmt"

	"github.com/juju/errors"
)

// Matrix is an n×n grid stored row-major in one contiguous buffer.
type Matrix[T Element] struct {
	n    int
	data []T
}

// New allocates an n×n matrix. It panics if n is not positive; running
// out of memory is fatal and never recovered.
func New[T Element](n int) *Matrix[T] {
	if n <= 0 {
		panic(fmt.Sprintf("matrix: invalid size %d", n))
	}

	return &Matrix[T]{n: n, data: make([]T, n*n)}
}

// FromRows copies a square slice-of-rows into a new Matrix.
func FromRows[T Element](rows [][]T) (*Matrix[T], error) {
	n := len(rows)
	if n == 0 {
		return nil, errors.NotValidf("empty matrix")
	}

	m := New[T](n)
	for i, row := range rows {
		if len(row) != n {
			return nil, errors.NotValidf("row %d has %d columns in %dx%d matrix", i, len(row), n, n)
		}
		copy(m.Row(i), row)
	}

	return m, nil
}

// Identity returns the n×n identity matrix.
func Identity[T Element](n int) *Matrix[T] {
	m := New[T](n)
	for i := range n {
		m.data[i*n+i] = 1
	}

	return m
}

// Size returns the dimension n.
func (m *Matrix[T]) Size() int {
	return m.n
}

// Data returns the backing row-major buffer.
func (m *Matrix[T]) Data() []T {
	return m.data
}

// Row returns row i as a slice sharing the backing buffer.
func (m *Matrix[T]) Row(i int) []T {
	off := i * m.n
	return m.data[off : off+m.n : off+m.n]
}

// Rows returns rows [start, end) as one contiguous slice.
func (m *Matrix[T]) Rows(start, end int) []T {
	return m.data[start*m.n : end*m.n : end*m.n]
}

// At returns the element at row i, column j.
func (m *Matrix[T]) At(i, j int) T {
	return m.data[i*m.n+j]
}

// Set stores v at row i, column j.
func (m *Matrix[T]) Set(i, j int, v T) {
	m.data[i*m.n+j] = v
}

// Transpose returns a new matrix holding mᵗ.
func (m *Matrix[T]) Transpose() *Matrix[T] {
	t := New[T](m.n)
	for i := range m.n {
		for j := range m.n {
			t.data[j*m.n+i] = m.data[i*m.n+j]
		}
	}

	return t
}

// Equal reports whether both matrices have the same size and elements.
func (m *Matrix[T]) Equal(o *Matrix[T]) bool {
	if m.n != o.n {
		return false
	}
	for i, v := range m.data {
		if o.data[i] != v {
			return false
		}
	}

	return true
}

// Free releases the backing buffer. The matrix must not be used afterwards.
func (m *Matrix[T]) Free() {
	m.data = nil
}
