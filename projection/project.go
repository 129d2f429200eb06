package projection

import (
	"fmt"
	"reflect"

	"projector/internal/analyze"
	"projector/internal/plan"
)

// Project returns a C bound to value. A nil value projects to nil.
func Project[C any](e *Engine, value any) (*C, error) {
	a, err := e.ProjectMultiple(value, reflect.TypeFor[C]())
	if err != nil || a == nil {
		return nil, err
	}

	return Bind[C](a)
}

// ProjectFromMap returns a C whose methods read and write the dictionary m,
// which must be a map keyed by a string kind.
func ProjectFromMap[C any](e *Engine, m any) (*C, error) {
	a, err := e.ProjectMap(m, reflect.TypeFor[C]())
	if err != nil || a == nil {
		return nil, err
	}

	return Bind[C](a)
}

// ProjectAll returns a list view of collection, a slice or a pointer to a
// slice, whose elements are projected onto C. Length changes reach the
// caller's slice only when a pointer is passed.
func ProjectAll[C any](e *Engine, collection any) (*List[*C], error) {
	if _, err := e.contracts([]reflect.Type{reflect.TypeFor[C]()}); err != nil {
		return nil, err
	}

	list := &List[*C]{}
	if err := list.attach(e, reflect.ValueOf(collection)); err != nil {
		return nil, err
	}

	return list, nil
}

// ProjectSet returns a set view of set, a map used as a set (or a pointer to
// one), whose keys are projected onto C.
func ProjectSet[C any](e *Engine, set any) (*Set[*C], error) {
	if _, err := e.contracts([]reflect.Type{reflect.TypeFor[C]()}); err != nil {
		return nil, err
	}

	s := &Set[*C]{}
	if err := s.attach(e, reflect.ValueOf(set)); err != nil {
		return nil, err
	}

	return s, nil
}

// NewProxy returns a C whose every method is answered by handler.
func NewProxy[C any](e *Engine, handler Handler) (*C, error) {
	a, err := e.DynamicProxy(handler, reflect.TypeFor[C]())
	if err != nil {
		return nil, err
	}

	return Bind[C](a)
}

// Bind returns a new C bound to the adapter.
func Bind[C any](a *Adapter) (*C, error) {
	if a == nil {
		return nil, nil
	}

	c := new(C)
	if err := a.Bind(c); err != nil {
		return nil, err
	}

	return c, nil
}

// ProjectMultiple returns an adapter satisfying every contract at once.
// Adapters passed as value are unwrapped first; a nil value projects to a
// nil adapter.
func (e *Engine) ProjectMultiple(value any, contracts ...reflect.Type) (*Adapter, error) {
	return e.adapterFor(reflect.ValueOf(value), contracts)
}

// ProjectMap returns a dictionary-backed adapter over m.
func (e *Engine) ProjectMap(m any, contracts ...reflect.Type) (*Adapter, error) {
	v := concrete(reflect.ValueOf(Unwrap(m)))
	if v.IsValid() && !analyze.IsDictionary(v.Type()) {
		return nil, fmt.Errorf("%w: %T", ErrNotDictionary, m)
	}

	return e.adapterFor(v, contracts)
}

// DynamicProxy returns an adapter routing every contract method to handler.
func (e *Engine) DynamicProxy(handler Handler, contracts ...reflect.Type) (*Adapter, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}

	shape, err := e.shape(plan.SourceHandler, nil, contracts)
	if err != nil {
		return nil, err
	}

	return &Adapter{engine: e, shape: shape, handler: handler}, nil
}

// adapterFor wraps v. Dictionaries get dictionary shapes; other values are
// wrapped through an addressable pointer so pointer methods and field writes
// are available.
func (e *Engine) adapterFor(v reflect.Value, contracts []reflect.Type) (*Adapter, error) {
	v = concrete(v)
	if v.IsValid() && v.CanInterface() {
		if raw, ok := unwrap(v.Interface()); ok {
			v = concrete(reflect.ValueOf(raw))
		}
	}

	if isNil(v) {
		_, err := e.contracts(contracts)
		return nil, err
	}

	if analyze.IsDictionary(v.Type()) {
		shape, err := e.shape(plan.SourceDictionary, nil, contracts)
		if err != nil {
			return nil, err
		}

		return &Adapter{engine: e, shape: shape, source: v}, nil
	}

	source, elem := v, false
	if v.Kind() != reflect.Pointer {
		elem = true

		if v.CanAddr() {
			source = v.Addr()
		} else {
			source = reflect.New(v.Type())
			source.Elem().Set(v)
		}
	}

	shape, err := e.shape(plan.SourceObject, source.Type(), contracts)
	if err != nil {
		return nil, err
	}

	return &Adapter{engine: e, shape: shape, source: source, elem: elem}, nil
}
