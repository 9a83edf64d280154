package harness

import (
	"context"

	"github.com/juju/errors"
	"github.com/weiihann/matbench/backend"
	"github.com/weiihann/matbench/matrix"
)

// CompareKind runs Compare on the named backend for the element type of kind.
func CompareKind(ctx context.Context, kind matrix.Kind, backendName string, cfg Config) (*Result, error) {
	switch kind {
	case matrix.Int:
		return compareOn[int32](ctx, backendName, cfg)
	case matrix.Long:
		return compareOn[int64](ctx, backendName, cfg)
	case matrix.Float:
		return compareOn[float32](ctx, backendName, cfg)
	case matrix.Double:
		return compareOn[float64](ctx, backendName, cfg)
	default:
		return nil, errors.NotSupportedf("kind %s", kind)
	}
}

// SingleKind runs Single on the named backend for the element type of kind.
func SingleKind(ctx context.Context, kind matrix.Kind, backendName string, cfg Config, method string) (*Result, error) {
	switch kind {
	case matrix.Int:
		return singleOn[int32](ctx, backendName, cfg, method)
	case matrix.Long:
		return singleOn[int64](ctx, backendName, cfg, method)
	case matrix.Float:
		return singleOn[float32](ctx, backendName, cfg, method)
	case matrix.Double:
		return singleOn[float64](ctx, backendName, cfg, method)
	default:
		return nil, errors.NotSupportedf("kind %s", kind)
	}
}

func compareOn[T matrix.Element](ctx context.Context, name string, cfg Config) (*Result, error) {
	be, err := backend.New[T](name)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer be.Close()

	return Compare(ctx, cfg, be)
}

func singleOn[T matrix.Element](ctx context.Context, name string, cfg Config, method string) (*Result, error) {
	be, err := backend.New[T](name)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer be.Close()

	return Single(ctx, cfg, be, method)
}
