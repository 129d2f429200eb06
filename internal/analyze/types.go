package analyze

import (
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"projector/internal/common"
)

var errorType = reflect.TypeFor[error]()

// TypeID names a type by its package path and name. Distinct local types
// may share a TypeID; it is for display only.
type TypeID struct {
	PkgPath string // e.g., "projector/store"
	Name    string // e.g., "Order"
}

// String returns a human-readable representation of the TypeID.
func (t TypeID) String() string {
	if t.PkgPath == "" {
		return t.Name
	}

	return t.PkgPath + "." + t.Name
}

// IDOf returns the identity of a runtime type. Unnamed types (pointers,
// slices, maps, func types) are identified by their textual form, and
// pointers to named types keep the package path of the element.
func IDOf(t reflect.Type) TypeID {
	if t == nil {
		return TypeID{Name: "<nil>"}
	}

	if t.Name() != "" {
		return TypeID{PkgPath: t.PkgPath(), Name: t.Name()}
	}

	if t.Kind() == reflect.Pointer && t.Elem().Name() != "" {
		return TypeID{PkgPath: t.Elem().PkgPath(), Name: "*" + t.Elem().Name()}
	}

	return TypeID{Name: t.String()}
}

// AccessorKind represents how an accessor is invoked.
type AccessorKind int

const (
	AccessorField    AccessorKind = iota // exported, non-embedded struct field
	AccessorMethod                       // exported method
	AccessorAncestor                     // embedded struct or interface field
)

// String returns a human-readable representation of the AccessorKind.
func (k AccessorKind) String() string {
	switch k {
	case AccessorField:
		return "field"
	case AccessorMethod:
		return "method"
	case AccessorAncestor:
		return "ancestor"
	default:
		return common.UnknownStr
	}
}

// Accessor describes one way of reading (or calling) something on a value.
type Accessor struct {
	Kind     AccessorKind
	Name     string
	Index    []int          // field index path, for fields and ancestors
	In       []reflect.Type // method parameters without the receiver
	Out      []reflect.Type // method results; a field has its type as single result
	Variadic bool
	Tag      reflect.StructTag
}

// IsExported reports whether the accessor name is exported. Only embedded
// ancestors can be unexported.
func (a *Accessor) IsExported() bool {
	r, _ := utf8.DecodeRuneInString(a.Name)
	return unicode.IsUpper(r)
}

// IsZeroArg reports whether the accessor can be invoked without arguments.
func (a *Accessor) IsZeroArg() bool {
	return len(a.In) == 0
}

// Result returns the value-carrying result type, or nil when the accessor
// produces nothing but (optionally) an error.
func (a *Accessor) Result() reflect.Type {
	return resultOf(a.Out)
}

// ReturnsError reports whether the last result is an error.
func (a *Accessor) ReturnsError() bool {
	return returnsError(a.Out)
}

// ParamsMatch reports whether the accessor parameters are identical to in.
// Fields and ancestors only match an empty parameter list.
func (a *Accessor) ParamsMatch(in []reflect.Type, variadic bool) bool {
	if a.Kind != AccessorMethod {
		return len(in) == 0 && !variadic
	}

	return a.Variadic == variadic && sameTypes(a.In, in)
}

// String renders the accessor the way it appears in a resolved path:
// "Name" for fields and "Name()" for methods.
func (a *Accessor) String() string {
	if a.Kind == AccessorMethod {
		return a.Name + "()"
	}

	return a.Name
}

// TypeInfo describes the accessors of a runtime type.
type TypeInfo struct {
	ID        TypeID
	Type      reflect.Type // described type, pointer types are described through their element
	Accessors []Accessor   // fields in declaration order, then methods ordered by name
	Ancestors []Accessor   // embedded fields in declaration order
}

// Method returns the exported method with the given name.
func (t *TypeInfo) Method(name string) (*Accessor, bool) {
	for i := range t.Accessors {
		if t.Accessors[i].Kind == AccessorMethod && t.Accessors[i].Name == name {
			return &t.Accessors[i], true
		}
	}

	return nil, false
}

// Field returns the exported non-embedded field with the given name.
func (t *TypeInfo) Field(name string) (*Accessor, bool) {
	for i := range t.Accessors {
		if t.Accessors[i].Kind == AccessorField && t.Accessors[i].Name == name {
			return &t.Accessors[i], true
		}
	}

	return nil, false
}

// ValidResults reports whether a result list is one of (), (T), (T, error)
// or (error).
func ValidResults(out []reflect.Type) bool {
	switch len(out) {
	case 0, 1:
		return true
	case 2:
		return out[0] != errorType && out[1] == errorType
	default:
		return false
	}
}

func resultOf(out []reflect.Type) reflect.Type {
	if common.IsEmpty(out) {
		return nil
	}

	if first, _ := common.First(out); common.IsSingle(out) && first == errorType {
		return nil
	}

	return out[0]
}

func returnsError(out []reflect.Type) bool {
	last, ok := common.Last(out)
	return ok && last == errorType
}

func sameTypes(a, b []reflect.Type) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// Tuple returns a type standing for the ordered list types. Identical lists
// yield identical types, so tuples are usable as map keys.
func Tuple(types []reflect.Type) reflect.Type {
	return reflect.FuncOf(types, nil, false)
}

// Elements returns the types of a tuple built by Tuple.
func Elements(tuple reflect.Type) []reflect.Type {
	if tuple == nil {
		return nil
	}

	types := make([]reflect.Type, tuple.NumIn())
	for i := range types {
		types[i] = tuple.In(i)
	}

	return types
}

// TypesString renders types for logs and explanations.
func TypesString(types []reflect.Type) string {
	parts := make([]string, 0, len(types))
	for _, t := range types {
		if t.PkgPath() != "" {
			parts = append(parts, t.PkgPath()+"."+t.Name())
			continue
		}

		parts = append(parts, t.String())
	}

	return strings.Join(parts, ",")
}
