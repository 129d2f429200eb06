package plan

import (
	"reflect"

	"projector/internal/analyze"
	"projector/internal/common"
	"projector/internal/diagnostic"
	"projector/internal/match"
)

//go:generate go tool stringer -type=Strategy -linecomment -output=strategy_string.go

// Strategy describes how a contract method is satisfied.
type Strategy int

const (
	StrategyNoOp             Strategy = iota // noop
	StrategyDirect                           // direct
	StrategyPath                             // path
	StrategyDictionaryLookup                 // dictionary_lookup
	StrategyDictionaryStore                  // dictionary_store
	StrategyDictionaryString                 // dictionary_string
	StrategyDictionaryEqual                  // dictionary_equal
	StrategyDefault                          // default
	StrategyHandler                          // handler
)

// Strategy explanation constants.
const (
	explNoDelegate  = "no delegate, path or default body"
	explDefaultBody = "default contract body"
	explHandler     = "routed to handler"
	explDictString  = "dictionary rendering"
	explDictEqual   = "dictionary equality"
)

// SourceKind is the marker part of a shape key.
type SourceKind int

const (
	// SourceObject shapes delegate to a concrete source type.
	SourceObject SourceKind = iota
	// SourceDictionary shapes derive keys from method names.
	SourceDictionary
	// SourceHandler shapes route every call to a handler function.
	SourceHandler
)

// String returns a human-readable source kind name.
func (k SourceKind) String() string {
	switch k {
	case SourceObject:
		return "object"
	case SourceDictionary:
		return "dictionary"
	case SourceHandler:
		return "handler"
	default:
		return common.UnknownStr
	}
}

// ShapeKey identifies an adapter shape: the source marker, the concrete
// source type for object shapes, and the ordered contract set.
type ShapeKey struct {
	Kind      SourceKind
	Source    reflect.Type
	Contracts reflect.Type // analyze.Tuple of the contract types
}

// KeyOf builds the shape key for a source and an ordered contract set.
// Dictionary and handler shapes do not depend on the concrete source type.
func KeyOf(kind SourceKind, source reflect.Type, contracts []reflect.Type) ShapeKey {
	if kind != SourceObject {
		source = nil
	}

	return ShapeKey{Kind: kind, Source: source, Contracts: analyze.Tuple(contracts)}
}

// ContractTypes returns the ordered contract set of the key.
func (k ShapeKey) ContractTypes() []reflect.Type {
	return analyze.Elements(k.Contracts)
}

// String renders the key for logs and diagnostics.
func (k ShapeKey) String() string {
	source := k.Kind.String()
	if k.Source != nil {
		source = common.TypeName(k.Source)
	}

	return source + " -> " + analyze.TypesString(k.ContractTypes())
}

// Entry is the resolved dispatch for one contract signature.
type Entry struct {
	Signature analyze.Signature
	Strategy  Strategy
	// Path is set for StrategyDirect and StrategyPath.
	Path Path
	// Store marks a path whose terminal step receives the single argument.
	Store bool
	// Key is the dictionary key for dictionary strategies.
	Key string
	// Compat scores the delegate result against the declared result.
	Compat      match.TypeCompatibility
	Explanation string
}

// Shape is an immutable dispatch table for a (source shape, contract set)
// pair.
type Shape struct {
	Key         ShapeKey
	Contracts   []*analyze.Contract
	Entries     []Entry
	Diagnostics diagnostic.Diagnostics

	bySignature map[analyze.SignatureKey]int
	byName      map[string][]int
	contracts   map[reflect.Type]*analyze.Contract
}

func newShape(key ShapeKey, contracts []*analyze.Contract) *Shape {
	s := &Shape{
		Key:         key,
		Contracts:   contracts,
		bySignature: map[analyze.SignatureKey]int{},
		byName:      map[string][]int{},
		contracts:   make(map[reflect.Type]*analyze.Contract, len(contracts)),
	}

	for _, c := range contracts {
		s.contracts[c.Type] = c
	}

	return s
}

func (s *Shape) add(e Entry) {
	s.bySignature[e.Signature.Key()] = len(s.Entries)
	s.byName[e.Signature.Name] = append(s.byName[e.Signature.Name], len(s.Entries))
	s.Entries = append(s.Entries, e)
}

// Entry returns the entry for a signature key.
func (s *Shape) Entry(key analyze.SignatureKey) (*Entry, bool) {
	i, ok := s.bySignature[key]
	if !ok {
		return nil, false
	}

	return &s.Entries[i], true
}

// Lookup finds the entry a by-name call with argc arguments dispatches to.
// Signatures that share a name across contracts are told apart by arity.
func (s *Shape) Lookup(name string, argc int) (*Entry, bool) {
	for _, i := range s.byName[name] {
		sig := &s.Entries[i].Signature
		if len(sig.In) == argc || (sig.Variadic && argc >= len(sig.In)-1) {
			return &s.Entries[i], true
		}
	}

	return nil, false
}

// Contract returns the flattened contract of type t when it is part of the
// shape.
func (s *Shape) Contract(t reflect.Type) (*analyze.Contract, bool) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	c, ok := s.contracts[t]

	return c, ok
}

// Count returns the number of entries per strategy.
func (s *Shape) Count() map[Strategy]int {
	counts := map[Strategy]int{}
	for _, e := range s.Entries {
		counts[e.Strategy]++
	}

	return counts
}
