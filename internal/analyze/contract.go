package analyze

import (
	"errors"
	"fmt"
	"reflect"

	"projector/internal/common"
)

// DefaultsMethod is the method a contract implements to supply default
// bodies, keyed by contract method name.
const DefaultsMethod = "ProjectionDefaults"

var (
	ErrNotContract      = errors.New("type is not a contract")
	ErrInvalidContract  = errors.New("invalid contract")
	defaultsMethodType  = reflect.TypeFor[func() map[string]any]()
	defaultsResultType  = reflect.TypeFor[map[string]any]()
	errUnknownDefault   = errors.New("default body for an undeclared method")
	errPointerEmbedding = errors.New("embedded contracts must not be pointers")
)

// Signature is one contract method: an exported func-typed field of a
// contract struct.
type Signature struct {
	Name     string
	In       []reflect.Type
	Out      []reflect.Type
	Variadic bool
	Func     reflect.Type      // the field's func type
	Tag      reflect.StructTag // serializer metadata
	Index    []int             // field index path from the owning contract
	Owner    reflect.Type      // requested contract the signature was flattened into
}

// SignatureKey identifies a signature by name and by the identity of its
// ordered parameter types.
type SignatureKey struct {
	Name   string
	Params reflect.Type // func type whose inputs are the parameters
}

// KeyOf builds the key of a signature named name taking in.
func KeyOf(name string, in ...reflect.Type) SignatureKey {
	return SignatureKey{Name: name, Params: Tuple(in)}
}

func (k SignatureKey) String() string {
	return k.Name + "(" + TypesString(Elements(k.Params)) + ")"
}

// Key identifies the signature by name and ordered parameter types.
func (s *Signature) Key() SignatureKey {
	return KeyOf(s.Name, s.In...)
}

// Result returns the value-carrying result type, or nil for void methods.
func (s *Signature) Result() reflect.Type {
	return resultOf(s.Out)
}

// ReturnsError reports whether the method declares a trailing error result.
func (s *Signature) ReturnsError() bool {
	return returnsError(s.Out)
}

// IsGetter reports whether the method takes no arguments and produces a value.
func (s *Signature) IsGetter() bool {
	return len(s.In) == 0 && s.Result() != nil
}

func (s *Signature) String() string {
	return s.Name + " " + s.Func.String()
}

// Contract is the flattened view of a contract struct: its own signatures
// in declaration order followed by those of embedded contracts.
type Contract struct {
	ID         TypeID
	Type       reflect.Type
	Signatures []Signature
	Embeds     []reflect.Type
	Defaults   map[string]struct{}
}

// Lookup returns the first signature with the given name.
func (c *Contract) Lookup(name string) (*Signature, bool) {
	for i := range c.Signatures {
		if c.Signatures[i].Name == name {
			return &c.Signatures[i], true
		}
	}

	return nil, false
}

// HasDefault reports whether the contract supplies a default body for name.
func (c *Contract) HasDefault(name string) bool {
	_, ok := c.Defaults[name]
	return ok
}

// IsContract reports whether t is a struct with at least one exported
// func-typed field, an embedded contract or an embedded marker.
func (a *Analyzer) IsContract(t reflect.Type) bool {
	return a.isContract(t, map[reflect.Type]bool{})
}

func (a *Analyzer) isContract(t reflect.Type, visited map[reflect.Type]bool) bool {
	if t == nil || t.Kind() != reflect.Struct || visited[t] {
		return false
	}

	visited[t] = true

	for i := range t.NumField() {
		f := t.Field(i)

		if f.Anonymous {
			if _, ok := a.markers[f.Type]; ok {
				return true
			}

			embedded := f.Type
			if embedded.Kind() == reflect.Pointer {
				embedded = embedded.Elem()
			}

			if a.isContract(embedded, visited) {
				return true
			}

			continue
		}

		if f.IsExported() && f.Type.Kind() == reflect.Func {
			return true
		}
	}

	return false
}

// Contract flattens the contract struct t (or *t).
func (a *Analyzer) Contract(t reflect.Type) (*Contract, error) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if cached, ok := a.contracts.Load(t); ok {
		return cached.(*Contract), nil
	}

	if !a.IsContract(t) {
		return nil, fmt.Errorf("%w: %s", ErrNotContract, common.TypeName(t))
	}

	c := &Contract{ID: IDOf(t), Type: t}
	if err := a.flatten(c, t, nil, map[reflect.Type]bool{}, map[SignatureKey]bool{}); err != nil {
		return nil, err
	}

	if err := a.collectDefaults(c); err != nil {
		return nil, err
	}

	actual, _ := a.contracts.LoadOrStore(t, c)

	return actual.(*Contract), nil
}

func (a *Analyzer) flatten(c *Contract, t reflect.Type, prefix []int, visited map[reflect.Type]bool, seen map[SignatureKey]bool) error {
	visited[t] = true

	for i := range t.NumField() {
		f := t.Field(i)
		if f.Anonymous || !f.IsExported() || f.Type.Kind() != reflect.Func {
			continue
		}

		sig := signatureOf(f, c.Type, append(append([]int{}, prefix...), i))
		if !ValidResults(sig.Out) {
			return fmt.Errorf("%w: %s.%s must return (), (T), (T, error) or (error), got %s",
				ErrInvalidContract, common.TypeName(t), f.Name, f.Type)
		}

		if seen[sig.Key()] {
			continue
		}

		seen[sig.Key()] = true
		c.Signatures = append(c.Signatures, sig)
	}

	for i := range t.NumField() {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}

		if _, ok := a.markers[f.Type]; ok {
			continue
		}

		if f.Type.Kind() == reflect.Pointer && a.IsContract(f.Type.Elem()) {
			return fmt.Errorf("%w: %s.%s: %w", ErrInvalidContract, common.TypeName(t), f.Name, errPointerEmbedding)
		}

		if !a.IsContract(f.Type) || visited[f.Type] {
			continue
		}

		c.Embeds = append(c.Embeds, f.Type)
		if err := a.flatten(c, f.Type, append(append([]int{}, prefix...), i), visited, seen); err != nil {
			return err
		}
	}

	return nil
}

// collectDefaults calls the defaults method on a zero contract to learn which
// methods carry a default body. The returned closures are discarded here.
func (a *Analyzer) collectDefaults(c *Contract) error {
	method, ok := reflect.PointerTo(c.Type).MethodByName(DefaultsMethod)
	if !ok {
		return nil
	}

	if method.Type.NumIn() != 1 || method.Type.NumOut() != 1 || method.Type.Out(0) != defaultsResultType {
		return fmt.Errorf("%w: %s.%s must have type %s",
			ErrInvalidContract, common.TypeName(c.Type), DefaultsMethod, defaultsMethodType)
	}

	out := reflect.New(c.Type).MethodByName(DefaultsMethod).Call(nil)
	defaults, _ := out[0].Interface().(map[string]any)

	c.Defaults = make(map[string]struct{}, len(defaults))
	for name, body := range defaults {
		sig, ok := c.Lookup(name)
		if !ok {
			return fmt.Errorf("%w: %s: %q: %w", ErrInvalidContract, common.TypeName(c.Type), name, errUnknownDefault)
		}

		if body == nil || reflect.TypeOf(body) != sig.Func {
			return fmt.Errorf("%w: %s: default %q must have type %s, got %T",
				ErrInvalidContract, common.TypeName(c.Type), name, sig.Func, body)
		}

		c.Defaults[name] = struct{}{}
	}

	return nil
}

func signatureOf(f reflect.StructField, owner reflect.Type, index []int) Signature {
	ft := f.Type

	in := make([]reflect.Type, 0, ft.NumIn())
	for i := range ft.NumIn() {
		in = append(in, ft.In(i))
	}

	out := make([]reflect.Type, 0, ft.NumOut())
	for i := range ft.NumOut() {
		out = append(out, ft.Out(i))
	}

	return Signature{
		Name:     f.Name,
		In:       in,
		Out:      out,
		Variadic: ft.IsVariadic(),
		Func:     ft,
		Tag:      f.Tag,
		Index:    index,
		Owner:    owner,
	}
}
