package projection

import (
	"errors"
	"fmt"

	"projector/internal/analyze"
)

var (
	ErrNoContracts          = errors.New("projection requires at least one contract")
	ErrNotContract          = analyze.ErrNotContract
	ErrNotCollection        = errors.New("value is not a collection")
	ErrNotDictionary        = errors.New("value is not a string keyed dictionary")
	ErrUnsupportedOperation = errors.New("operation is not supported on a projected collection")
	ErrContractNotInShape   = errors.New("contract is not satisfied by the adapter")
	ErrMethodNotFound       = errors.New("adapter has no such contract method")
	ErrIndexOutOfRange      = errors.New("index out of range")
	ErrIteratorState        = errors.New("iterator has no current element")
	ErrNilHandler           = errors.New("handler proxy requires a handler")
	ErrAdapterConstruction  = errors.New("adapter construction failed")
)

// ConstructionError is returned to the caller whose projection triggered a
// failing shape build. It matches ErrAdapterConstruction.
type ConstructionError struct {
	Shape string
	Err   error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrAdapterConstruction, e.Shape, e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }

func (e *ConstructionError) Is(target error) bool { return target == ErrAdapterConstruction }
