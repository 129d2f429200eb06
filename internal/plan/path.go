package plan

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"projector/internal/analyze"
	"projector/internal/common"
)

var ErrNotSettable = errors.New("path terminal is not settable")

// StepKind represents how a path step is applied to the current value.
type StepKind int

const (
	StepField    StepKind = iota // read an exported field
	StepMethod                   // call a method by name
	StepAncestor                 // descend into an embedded field
	StepKey                      // look a key up in a dictionary
)

// String returns a human-readable step kind name.
func (k StepKind) String() string {
	switch k {
	case StepField:
		return "field"
	case StepMethod:
		return "method"
	case StepAncestor:
		return "ancestor"
	case StepKey:
		return "key"
	default:
		return common.UnknownStr
	}
}

// Step is one link of a resolved accessor chain.
type Step struct {
	Kind  StepKind
	Name  string       // field, method or ancestor name; the key for StepKey
	Index []int        // field index for StepField and StepAncestor
	Type  reflect.Type // declared result type, nil for void methods
	// Terminal steps receive the contract method arguments.
	Terminal     bool
	Variadic     bool
	ReturnsError bool
	// NilCheck is set when the result may be nil and is checked before the
	// next step is applied.
	NilCheck bool
}

// Converter coerces a value to a target type.
type Converter func(v reflect.Value, target reflect.Type) (reflect.Value, error)

// Path is an ordered chain of 1+ steps.
type Path []Step

// String renders the path the way it would be written by hand:
// "Customer.Address().Tags["city"]".
func (p Path) String() string {
	var b strings.Builder

	for i, s := range p {
		if s.Kind == StepKey {
			b.WriteString("[" + strconv.Quote(s.Name) + "]")
			continue
		}

		if i > 0 {
			b.WriteByte('.')
		}

		b.WriteString(s.Name)

		if s.Kind == StepMethod {
			b.WriteString("()")
		}
	}

	return b.String()
}

// Result returns the declared type of the terminal step.
func (p Path) Result() reflect.Type {
	last, ok := common.Last(p)
	if !ok {
		return nil
	}

	return last.Type
}

// Eval walks the path from root. Any nil intermediate yields an invalid
// value and no error; the caller substitutes the declared zero value. Only
// errors returned by a method step are reported.
func (p Path) Eval(root reflect.Value, args []reflect.Value) (reflect.Value, error) {
	cur := root

	for i := range p {
		if i > 0 && p[i-1].NilCheck && isNil(cur) {
			return reflect.Value{}, nil
		}

		next, err := p[i].apply(cur, args)
		if err != nil || !next.IsValid() {
			return reflect.Value{}, err
		}

		cur = next
	}

	return cur, nil
}

// Store walks all but the last step and writes value into the terminal
// field or dictionary key. A nil intermediate leaves the source untouched.
func (p Path) Store(root reflect.Value, value reflect.Value, convert Converter) error {
	if len(p) == 0 {
		return ErrNotSettable
	}

	cur := root

	for i := range p[:len(p)-1] {
		if i > 0 && p[i-1].NilCheck && isNil(cur) {
			return nil
		}

		next, err := p[i].apply(cur, nil)
		if err != nil || !next.IsValid() {
			return err
		}

		cur = next
	}

	last := p[len(p)-1]

	switch last.Kind {
	case StepField:
		container, ok := indirect(cur)
		if !ok || container.Kind() != reflect.Struct {
			return nil
		}

		field, err := container.FieldByIndexErr(last.Index)
		if err != nil {
			return nil
		}

		if !field.CanSet() {
			return fmt.Errorf("%w: %s", ErrNotSettable, p)
		}

		v, err := coerce(value, field.Type(), convert)
		if err != nil {
			return err
		}

		field.Set(v)

		return nil
	case StepKey:
		return storeKey(cur, last.Name, value, convert)
	}

	return fmt.Errorf("%w: %s", ErrNotSettable, p)
}

func (s *Step) apply(cur reflect.Value, args []reflect.Value) (reflect.Value, error) {
	switch s.Kind {
	case StepField, StepAncestor:
		v, ok := indirect(cur)
		if !ok || v.Kind() != reflect.Struct {
			return reflect.Value{}, nil
		}

		field, err := v.FieldByIndexErr(s.Index)
		if err != nil {
			// nil embedded pointer on the way to a promoted field
			return reflect.Value{}, nil
		}

		return field, nil
	case StepKey:
		return lookupKey(cur, s.Name), nil
	case StepMethod:
		return s.call(cur, args)
	}

	return reflect.Value{}, nil
}

func (s *Step) call(cur reflect.Value, args []reflect.Value) (reflect.Value, error) {
	method := MethodOf(cur, s.Name)
	if !method.IsValid() {
		return reflect.Value{}, nil
	}

	if !s.Terminal {
		args = nil
	}

	var out []reflect.Value
	if s.Variadic && s.Terminal {
		out = method.CallSlice(args)
	} else {
		out = method.Call(args)
	}

	if s.ReturnsError {
		last, _ := common.Last(out)
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

// MethodOf returns the method called name bound to v. Values that are not
// addressable are copied into a fresh pointer so pointer-receiver methods
// are still reachable.
func MethodOf(v reflect.Value, name string) reflect.Value {
	if !v.IsValid() {
		return reflect.Value{}
	}

	if m := v.MethodByName(name); m.IsValid() {
		return m
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return reflect.Value{}
		}

		return MethodOf(v.Elem(), name)
	}

	if v.CanAddr() {
		return v.Addr().MethodByName(name)
	}

	ptr := reflect.New(v.Type())
	ptr.Elem().Set(v)

	return ptr.MethodByName(name)
}

func lookupKey(cur reflect.Value, key string) reflect.Value {
	m, ok := indirect(cur)
	if !ok || m.Kind() != reflect.Map || m.IsNil() {
		return reflect.Value{}
	}

	v := m.MapIndex(reflect.ValueOf(key).Convert(m.Type().Key()))
	if v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}

		v = v.Elem()
	}

	return v
}

func storeKey(cur reflect.Value, key string, value reflect.Value, convert Converter) error {
	m := cur
	for m.Kind() == reflect.Pointer || m.Kind() == reflect.Interface {
		if m.IsNil() {
			return nil
		}

		m = m.Elem()
	}

	if m.Kind() != reflect.Map {
		return ErrNotSettable
	}

	if m.IsNil() {
		if !m.CanSet() {
			return nil
		}

		m.Set(reflect.MakeMap(m.Type()))
	}

	v, err := coerce(value, m.Type().Elem(), convert)
	if err != nil {
		return err
	}

	m.SetMapIndex(reflect.ValueOf(key).Convert(m.Type().Key()), v)

	return nil
}

func coerce(value reflect.Value, target reflect.Type, convert Converter) (reflect.Value, error) {
	if !value.IsValid() {
		return reflect.Zero(target), nil
	}

	if value.Type().AssignableTo(target) {
		return value, nil
	}

	return convert(value, target)
}

// indirect follows pointers and interfaces. It reports false on nil.
func indirect(v reflect.Value) (reflect.Value, bool) {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}, false
		}

		v = v.Elem()
	}

	return v, v.IsValid()
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
	if t == nil {
		return false
	}

	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}

	return false
}

func stepOf(acc *analyze.Accessor) Step {
	kind := StepField

	switch acc.Kind {
	case analyze.AccessorMethod:
		kind = StepMethod
	case analyze.AccessorAncestor:
		kind = StepAncestor
	}

	return Step{
		Kind:         kind,
		Name:         acc.Name,
		Index:        acc.Index,
		Type:         acc.Result(),
		Variadic:     acc.Variadic,
		ReturnsError: acc.ReturnsError(),
		NilCheck:     canBeNil(acc.Result()),
	}
}

func keyStep(key string, dictionary reflect.Type) Step {
	return Step{
		Kind:     StepKey,
		Name:     key,
		Type:     dictionary.Elem(),
		NilCheck: canBeNil(dictionary.Elem()),
	}
}
