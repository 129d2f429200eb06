package analyze

import (
	"reflect"
	"sync"
)

// Analyzer builds and caches descriptors of runtime types. It is safe for
// concurrent use; descriptors are immutable once published.
type Analyzer struct {
	types     sync.Map // reflect.Type -> *TypeInfo
	contracts sync.Map // reflect.Type -> *Contract

	markers map[reflect.Type]struct{}
}

// NewAnalyzer creates an analyzer. Marker types are struct types that may be
// embedded into contracts without contributing signatures.
func NewAnalyzer(markers ...reflect.Type) *Analyzer {
	a := &Analyzer{markers: make(map[reflect.Type]struct{}, len(markers))}
	for _, m := range markers {
		a.markers[m] = struct{}{}
	}

	return a
}

// Describe returns the accessors of t. Pointer types are described through
// their element type with the pointer method set, so pointer-receiver
// methods are always visible.
func (a *Analyzer) Describe(t reflect.Type) *TypeInfo {
	base := t
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}

	if cached, ok := a.types.Load(base); ok {
		return cached.(*TypeInfo)
	}

	info := &TypeInfo{ID: IDOf(base), Type: base}

	if base.Kind() == reflect.Struct {
		for i := range base.NumField() {
			f := base.Field(i)

			if f.Anonymous {
				if isAncestor(f) {
					info.Ancestors = append(info.Ancestors, Accessor{
						Kind:  AccessorAncestor,
						Name:  f.Name,
						Index: f.Index,
						Out:   []reflect.Type{f.Type},
						Tag:   f.Tag,
					})
				}

				continue
			}

			if !f.IsExported() {
				continue
			}

			info.Accessors = append(info.Accessors, Accessor{
				Kind:  AccessorField,
				Name:  f.Name,
				Index: f.Index,
				Out:   []reflect.Type{f.Type},
				Tag:   f.Tag,
			})
		}
	}

	methods, hasReceiver := base, false
	if base.Kind() != reflect.Interface {
		methods, hasReceiver = reflect.PointerTo(base), true
	}

	for i := range methods.NumMethod() {
		m := methods.Method(i)
		if !m.IsExported() {
			continue
		}

		info.Accessors = append(info.Accessors, methodAccessor(m, hasReceiver))
	}

	actual, _ := a.types.LoadOrStore(base, info)

	return actual.(*TypeInfo)
}

// Count returns the number of described types.
func (a *Analyzer) Count() int {
	n := 0
	a.types.Range(func(_, _ any) bool {
		n++
		return true
	})

	return n
}

// IsDictionary reports whether t is a map keyed by a string kind.
func IsDictionary(t reflect.Type) bool {
	return t != nil && t.Kind() == reflect.Map && t.Key().Kind() == reflect.String
}

// IsNavigable reports whether values of t expose accessors worth walking:
// structs, interfaces with methods and named types with exported methods.
func IsNavigable(t reflect.Type) bool {
	if t == nil || IsDictionary(t) {
		return false
	}

	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Struct:
		return true
	case reflect.Interface:
		return t.NumMethod() > 0
	case reflect.Pointer:
		return false
	}

	return reflect.PointerTo(t).NumMethod() > 0
}

func isAncestor(f reflect.StructField) bool {
	t := f.Type
	switch {
	case t.Kind() == reflect.Struct:
		return true
	case t.Kind() == reflect.Interface:
		return f.IsExported()
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct:
		// values behind unexported embedded pointers are read-only to reflect
		return f.IsExported()
	}

	return false
}

func methodAccessor(m reflect.Method, hasReceiver bool) Accessor {
	ft := m.Type

	first := 0
	if hasReceiver {
		first = 1
	}

	in := make([]reflect.Type, 0, ft.NumIn()-first)
	for i := first; i < ft.NumIn(); i++ {
		in = append(in, ft.In(i))
	}

	out := make([]reflect.Type, 0, ft.NumOut())
	for i := range ft.NumOut() {
		out = append(out, ft.Out(i))
	}

	return Accessor{
		Kind:     AccessorMethod,
		Name:     m.Name,
		In:       in,
		Out:      out,
		Variadic: ft.IsVariadic(),
	}
}
