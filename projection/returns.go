package projection

import (
	"reflect"
)

// aggregate is implemented by the collection proxies so results declared as
// *List[T] or *Set[T] can be recognized and attached without knowing T.
type aggregate interface {
	Raw() any
	attach(e *Engine, v reflect.Value) error
	elemType() reflect.Type
	members() []reflect.Value
}

var aggregateType = reflect.TypeFor[aggregate]()

// adapt reconciles a delegate result with a declared type:
//  1. absent results become the zero value
//  2. assignable results pass through
//  3. *List[T] and *Set[T] wrap the collection
//  4. contracts project the result, reusing the shape cache
//  5. slices and maps adapt element by element
//  6. anything else goes through the coercion service
func (e *Engine) adapt(v reflect.Value, target reflect.Type) (reflect.Value, error) {
	v = concrete(v)
	if !v.IsValid() {
		return reflect.Zero(target), nil
	}

	if v.Type().AssignableTo(target) {
		return assign(v, target), nil
	}

	if target.Implements(aggregateType) {
		agg := reflect.New(target.Elem())
		if err := agg.Interface().(aggregate).attach(e, v); err != nil {
			return reflect.Value{}, err
		}

		return agg, nil
	}

	if e.isContract(target) {
		return e.nested(v, target)
	}

	switch {
	case target.Kind() == reflect.Slice && (v.Kind() == reflect.Slice || v.Kind() == reflect.Array):
		return e.adaptSlice(v, target)
	case target.Kind() == reflect.Map && v.Kind() == reflect.Map:
		return e.adaptMap(v, target)
	}

	return e.coerce(v, target)
}

// nested projects v onto the contract target (C or *C).
func (e *Engine) nested(v reflect.Value, target reflect.Type) (reflect.Value, error) {
	base := target
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}

	a, err := e.adapterFor(v, []reflect.Type{base})
	if err != nil {
		return reflect.Value{}, err
	}

	if a == nil {
		return reflect.Zero(target), nil
	}

	inst := reflect.New(base)
	if err := a.bind(inst); err != nil {
		return reflect.Value{}, err
	}

	if target.Kind() == reflect.Pointer {
		return inst, nil
	}

	return inst.Elem(), nil
}

func (e *Engine) adaptSlice(v reflect.Value, target reflect.Type) (reflect.Value, error) {
	if v.Kind() == reflect.Slice && v.IsNil() {
		return reflect.Zero(target), nil
	}

	out := reflect.MakeSlice(target, v.Len(), v.Len())
	for i := range v.Len() {
		el, err := e.adapt(v.Index(i), target.Elem())
		if err != nil {
			return reflect.Value{}, err
		}

		out.Index(i).Set(el)
	}

	return out, nil
}

func (e *Engine) adaptMap(v reflect.Value, target reflect.Type) (reflect.Value, error) {
	if v.IsNil() {
		return reflect.Zero(target), nil
	}

	out := reflect.MakeMapWithSize(target, v.Len())

	iter := v.MapRange()
	for iter.Next() {
		k, err := e.adapt(iter.Key(), target.Key())
		if err != nil {
			return reflect.Value{}, err
		}

		el, err := e.adapt(iter.Value(), target.Elem())
		if err != nil {
			return reflect.Value{}, err
		}

		out.SetMapIndex(k, el)
	}

	return out, nil
}

// coerce converts v to target through the coercion service. It is also the
// converter paths use when storing values.
func (e *Engine) coerce(v reflect.Value, target reflect.Type) (reflect.Value, error) {
	v = concrete(v)
	if !v.IsValid() {
		return reflect.Zero(target), nil
	}

	if v.Type().AssignableTo(target) {
		return assign(v, target), nil
	}

	out, err := e.converter.Convert(v.Interface(), target)
	if err != nil {
		return reflect.Value{}, err
	}

	return assign(reflect.ValueOf(out), target), nil
}

// value turns a caller supplied value into a value of type t: adapters are
// unwrapped, pointers to t are dereferenced, the rest is coerced.
func (e *Engine) value(x any, t reflect.Type) (reflect.Value, error) {
	raw := Unwrap(x)
	if raw == nil {
		return reflect.Zero(t), nil
	}

	rv := reflect.ValueOf(raw)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() && !rv.Type().AssignableTo(t) && rv.Elem().Type().AssignableTo(t) {
		rv = rv.Elem()
	}

	return e.coerce(rv, t)
}

func (e *Engine) isContract(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return t.Kind() == reflect.Struct && e.analyzer.IsContract(t)
}

// assign returns v as a value of type t. Interface targets box v.
func assign(v reflect.Value, t reflect.Type) reflect.Value {
	switch {
	case !v.IsValid():
		return reflect.Zero(t)
	case v.Type() == t:
		return v
	case v.Type().AssignableTo(t):
		out := reflect.New(t).Elem()
		out.Set(v)

		return out
	case v.Type().ConvertibleTo(t):
		return v.Convert(t)
	}

	return v
}

// concrete strips interface boxes. A nil interface yields an invalid value.
func concrete(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}

		v = v.Elem()
	}

	return v
}

func isNil(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}

	return false
}

func canBeNil(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}

	return false
}
