// Package matrix provides square dense matrices backed by a single
// row-major allocation, and the element kinds the benchmarks support.
package matrix

import (
	"fmt"

	"github.com/juju/errors"
)

// Element is the set of numeric types a Matrix can hold.
type Element interface {
	~int32 | ~int64 | ~float32 | ~float64
}

// Kind identifies the element type selected on the command line.
type Kind uint8

const (
	Int Kind = iota
	Long
	Float
	Double
)

// Kinds returns every supported kind in command-line order.
func Kinds() []Kind {
	return []Kind{Int, Long, Float, Double}
}

// ParseKind maps a command-line type name to a Kind.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "int":
		return Int, nil
	case "2long":
		return Long, nil
	case "float":
		return Float, nil
	case "double":
		return Double, nil
	default:
		return 0, errors.Errorf("Unsupported type: %s", name)
	}
}

// String returns the command-line name of the kind.
func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Long:
		return "2long"
	case Float:
		return "float"
	case Double:
		return "double"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// TypeName returns the name printed in benchmark headers.
func (k Kind) TypeName() string {
	switch k {
	case Long:
		return "long long"
	default:
		return k.String()
	}
}

// Integral reports whether the kind holds integers.
func (k Kind) Integral() bool {
	return k == Int || k == Long
}

// Size returns the number of bytes per element.
func (k Kind) Size() int {
	switch k {
	case Int, Float:
		return 4
	default:
		return 8
	}
}

// KindOf returns the Kind of the element type T.
func KindOf[T Element]() Kind {
	var zero T
	switch any(zero).(type) {
	case int32:
		return Int
	case int64:
		return Long
	case float32:
		return Float
	case float64:
		return Double
	default:
		panic(fmt.Sprintf("matrix: unsupported element type %T", zero))
	}
}
