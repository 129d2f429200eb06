package projection

import (
	"fmt"
	"reflect"
	"sync"

	"projector/internal/analyze"
	"projector/internal/common"
	"projector/internal/plan"
)

var (
	errorType = reflect.TypeFor[error]()
	proxyType = reflect.TypeFor[Proxy]()
)

// Handler answers every call of a handler proxy. args holds the call
// arguments; a variadic tail arrives as one slice.
type Handler func(method string, args []any) (any, error)

// Adapter satisfies one or more contracts by dispatching every contract
// method through its shape to the wrapped source. Adapters are created per
// projection and add no synchronization of their own: calls are exactly as
// safe for concurrent use as the same calls on the source.
type Adapter struct {
	engine  *Engine
	shape   *plan.Shape
	source  reflect.Value // pointer for object sources, the map for dictionaries
	elem    bool          // the source was handed over as a value, not a pointer
	handler Handler

	defaults sync.Map // contract reflect.Type -> map[string]reflect.Value
}

// Value returns the wrapped source. Sources handed over as values are
// returned as values, including writes made through the adapter.
func (a *Adapter) Value() any {
	if a == nil || !a.source.IsValid() {
		return nil
	}

	if a.elem {
		return a.source.Elem().Interface()
	}

	return a.source.Interface()
}

// Contracts returns the contract types the adapter satisfies, in request
// order.
func (a *Adapter) Contracts() []reflect.Type {
	types := make([]reflect.Type, 0, len(a.shape.Contracts))
	for _, c := range a.shape.Contracts {
		types = append(types, c.Type)
	}

	return types
}

// Explain describes how every contract method is dispatched.
func (a *Adapter) Explain() []string {
	lines := make([]string, 0, len(a.shape.Entries))
	for _, e := range a.shape.Entries {
		lines = append(lines, fmt.Sprintf("%s: %s", e.Signature.Key(), e.Explanation))
	}

	return lines
}

// Equal reports whether other wraps (or is) a source deeply equal to this
// adapter's source.
func (a *Adapter) Equal(other any) bool {
	return reflect.DeepEqual(a.Value(), Unwrap(other))
}

func (a *Adapter) String() string {
	return fmt.Sprint(a.Value())
}

// Bind fills target, a pointer to one of the adapter's contracts, with
// methods dispatching to the adapter.
func (a *Adapter) Bind(target any) error {
	ptr := reflect.ValueOf(target)
	if !ptr.IsValid() || ptr.Kind() != reflect.Pointer || ptr.IsNil() || ptr.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: bind target must be a non-nil pointer to a contract, got %T", ErrNotContract, target)
	}

	return a.bind(ptr)
}

// Call invokes a contract method by name. Arguments are coerced to the
// declared parameter types and the result is adapted to the declared result
// type.
func (a *Adapter) Call(name string, args ...any) (any, error) {
	entry, ok := a.shape.Lookup(name, len(args))
	if !ok {
		return nil, fmt.Errorf("%w: %s with %d arguments", ErrMethodNotFound, name, len(args))
	}

	sig := &entry.Signature

	in, err := a.arguments(sig, args)
	if err != nil {
		return nil, err
	}

	out, err := a.invoke(entry, in)
	if err != nil {
		return nil, err
	}

	result := sig.Result()
	if result == nil {
		return nil, nil
	}

	out, err = a.engine.adapt(out, result)
	if err != nil {
		return nil, err
	}

	return out.Interface(), nil
}

func (a *Adapter) arguments(sig *analyze.Signature, args []any) ([]reflect.Value, error) {
	fixed := len(sig.In)
	if sig.Variadic {
		fixed--
	}

	in := make([]reflect.Value, 0, len(sig.In))
	for i := range fixed {
		v, err := a.engine.value(args[i], sig.In[i])
		if err != nil {
			return nil, fmt.Errorf("%s argument %d: %w", sig.Name, i, err)
		}

		in = append(in, v)
	}

	if sig.Variadic {
		tail := sig.In[fixed]
		rest := reflect.MakeSlice(tail, 0, len(args)-fixed)

		for i := fixed; i < len(args); i++ {
			v, err := a.engine.value(args[i], tail.Elem())
			if err != nil {
				return nil, fmt.Errorf("%s argument %d: %w", sig.Name, i, err)
			}

			rest = reflect.Append(rest, v)
		}

		in = append(in, rest)
	}

	return in, nil
}

// bind fills the contract behind ptr. Contracts with default bodies publish
// them once bound, since the bodies call back into the bound instance.
func (a *Adapter) bind(ptr reflect.Value) error {
	c, ok := a.shape.Contract(ptr.Type().Elem())
	if !ok {
		return fmt.Errorf("%w: %s", ErrContractNotInShape, common.TypeName(ptr.Type().Elem()))
	}

	inst := ptr.Elem()

	for i := range c.Signatures {
		sig := &c.Signatures[i]

		entry, ok := a.shape.Entry(sig.Key())
		if !ok {
			continue
		}

		inst.FieldByIndex(sig.Index).Set(reflect.MakeFunc(sig.Func, a.method(entry, sig)))
	}

	setProxies(inst, a)
	bound.add(ptr, a)

	if len(c.Defaults) > 0 {
		out := ptr.MethodByName(analyze.DefaultsMethod).Call(nil)
		bodies, _ := out[0].Interface().(map[string]any)

		fns := make(map[string]reflect.Value, len(bodies))
		for name, body := range bodies {
			fns[name] = reflect.ValueOf(body)
		}

		a.defaults.LoadOrStore(c.Type, fns)
	}

	return nil
}

// method builds the body of a bound contract method. sig is the caller's
// declaration, which decides the result type even when a deduplicated
// signature was resolved for another contract.
func (a *Adapter) method(entry *plan.Entry, sig *analyze.Signature) func([]reflect.Value) []reflect.Value {
	return func(in []reflect.Value) []reflect.Value {
		out, err := a.invoke(entry, in)
		if err == nil && sig.Result() != nil {
			out, err = a.engine.adapt(out, sig.Result())
		}

		return results(sig, out, err)
	}
}

// invoke runs one dispatch entry and returns the raw delegate result. An
// invalid value stands for an absent result.
func (a *Adapter) invoke(entry *plan.Entry, in []reflect.Value) (reflect.Value, error) {
	switch entry.Strategy {
	case plan.StrategyDirect, plan.StrategyPath:
		if entry.Store {
			return reflect.Value{}, entry.Path.Store(a.source, unwrapValue(in[0]), a.engine.coerce)
		}

		return entry.Path.Eval(a.source, unwrapArgs(in, entry.Signature.In))
	case plan.StrategyDictionaryLookup:
		return lookup(a.source, entry.Key), nil
	case plan.StrategyDictionaryStore:
		return reflect.Value{}, a.store(entry.Key, in[0])
	case plan.StrategyDictionaryString:
		return reflect.ValueOf(fmt.Sprint(a.source.Interface())), nil
	case plan.StrategyDictionaryEqual:
		return reflect.ValueOf(a.dictionaryEqual(in[0])), nil
	case plan.StrategyDefault:
		return a.callDefault(entry, in)
	case plan.StrategyHandler:
		return a.callHandler(entry, in)
	}

	return reflect.Value{}, nil
}

func (a *Adapter) callDefault(entry *plan.Entry, in []reflect.Value) (reflect.Value, error) {
	owner := entry.Signature.Owner

	bodies, ok := a.defaults.Load(owner)
	if !ok {
		if err := a.bind(reflect.New(owner)); err != nil {
			return reflect.Value{}, err
		}

		bodies, _ = a.defaults.Load(owner)
	}

	fns, _ := bodies.(map[string]reflect.Value)

	body, ok := fns[entry.Signature.Name]
	if !ok || !body.IsValid() {
		return reflect.Value{}, nil
	}

	var out []reflect.Value
	if entry.Signature.Variadic {
		out = body.CallSlice(in)
	} else {
		out = body.Call(in)
	}

	return split(out, entry.Signature.ReturnsError())
}

func (a *Adapter) callHandler(entry *plan.Entry, in []reflect.Value) (reflect.Value, error) {
	args := make([]any, 0, len(in))
	for _, v := range in {
		args = append(args, v.Interface())
	}

	out, err := a.handler(entry.Signature.Name, args)
	if err != nil || out == nil {
		return reflect.Value{}, err
	}

	return reflect.ValueOf(out), nil
}

func (a *Adapter) store(key string, arg reflect.Value) error {
	m := a.source
	elem := m.Type().Elem()

	v := unwrapValue(arg)
	if !v.IsValid() {
		v = reflect.Zero(elem)
	}

	v, err := a.engine.coerce(v, elem)
	if err != nil {
		return err
	}

	m.SetMapIndex(reflect.ValueOf(key).Convert(m.Type().Key()), v)

	return nil
}

// dictionaryEqual compares two dictionaries with adapter-valued entries
// unwrapped on both sides.
func (a *Adapter) dictionaryEqual(other reflect.Value) bool {
	o := concrete(unwrapValue(other))
	if !o.IsValid() || !analyze.IsDictionary(o.Type()) {
		return false
	}

	return reflect.DeepEqual(plainMap(a.source), plainMap(o))
}

func plainMap(m reflect.Value) map[string]any {
	out := make(map[string]any, m.Len())

	iter := m.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = Unwrap(iter.Value().Interface())
	}

	return out
}

func lookup(m reflect.Value, key string) reflect.Value {
	if m.IsNil() {
		return reflect.Value{}
	}

	return concrete(m.MapIndex(reflect.ValueOf(key).Convert(m.Type().Key())))
}

// results turns an adapted value and error into the results sig declares.
// Errors of methods without an error result are raised as panics.
func results(sig *analyze.Signature, v reflect.Value, err error) []reflect.Value {
	if err != nil && !sig.ReturnsError() {
		panic(err)
	}

	out := make([]reflect.Value, 0, len(sig.Out))

	if result := sig.Result(); result != nil {
		if err != nil || !v.IsValid() {
			v = reflect.Zero(result)
		}

		out = append(out, v)
	}

	if sig.ReturnsError() {
		errValue := reflect.Zero(errorType)
		if err != nil {
			errValue = reflect.ValueOf(&err).Elem()
		}

		out = append(out, errValue)
	}

	return out
}

// split separates a trailing error from a call result.
func split(out []reflect.Value, returnsError bool) (reflect.Value, error) {
	if returnsError {
		last := out[len(out)-1]
		if !last.IsNil() {
			return reflect.Value{}, last.Interface().(error)
		}

		out = out[:len(out)-1]
	}

	first, ok := common.First(out)
	if !ok {
		return reflect.Value{}, nil
	}

	return first, nil
}

// Proxy is embedded into a contract to reach the adapter behind a bound
// contract. It also makes bound contracts serializable.
type Proxy struct {
	adapter *Adapter
}

// RawValue returns the wrapped source.
func (p Proxy) RawValue() any {
	return p.adapter.Value()
}

// Adapter returns the adapter the contract is bound to.
func (p Proxy) Adapter() *Adapter {
	return p.adapter
}

func (p Proxy) MarshalJSON() ([]byte, error) {
	if p.adapter == nil {
		return []byte("null"), nil
	}

	return p.adapter.MarshalJSON()
}

func (p Proxy) MarshalYAML() (any, error) {
	if p.adapter == nil {
		return nil, nil
	}

	return p.adapter.MarshalYAML()
}

// setProxies populates every Proxy marker of a contract, including markers
// of embedded contracts.
func setProxies(v reflect.Value, a *Adapter) {
	t := v.Type()

	for i := range t.NumField() {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}

		switch {
		case f.Type == proxyType:
			v.Field(i).Set(reflect.ValueOf(Proxy{adapter: a}))
		case f.Type.Kind() == reflect.Struct:
			setProxies(v.Field(i), a)
		}
	}
}

// Unwrap returns the source behind an adapter, behind a bound contract, or
// behind a projected collection. Contracts held by value are only recognized
// when they embed Proxy. Any other value is returned unchanged.
func Unwrap(v any) any {
	raw, _ := unwrap(v)
	return raw
}

type adapterHolder interface {
	Adapter() *Adapter
}

func unwrap(v any) (any, bool) {
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return v, false
	}

	switch x := v.(type) {
	case *Adapter:
		return x.Value(), true
	case adapterHolder:
		if a := x.Adapter(); a != nil {
			return a.Value(), true
		}
	case aggregate:
		return x.Raw(), true
	}

	if a, ok := bound.lookup(reflect.ValueOf(v)); ok {
		return a.Value(), true
	}

	return v, false
}

func unwrapValue(v reflect.Value) reflect.Value {
	if !v.IsValid() || !v.CanInterface() {
		return v
	}

	raw, ok := unwrap(v.Interface())
	if !ok {
		return v
	}

	return reflect.ValueOf(raw)
}

// unwrapArgs unwraps adapters passed for interface-typed parameters so the
// source never stores adapter wrappers.
func unwrapArgs(in []reflect.Value, params []reflect.Type) []reflect.Value {
	for i, v := range in {
		if i >= len(params) || params[i].Kind() != reflect.Interface {
			continue
		}

		u := unwrapValue(v)

		switch {
		case !u.IsValid():
			in[i] = reflect.Zero(params[i])
		case u.Type().AssignableTo(params[i]):
			in[i] = assign(u, params[i])
		}
	}

	return in
}
