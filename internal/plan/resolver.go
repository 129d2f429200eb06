package plan

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"projector/internal/analyze"
	"projector/internal/common"
	"projector/internal/diagnostic"
	"projector/internal/match"
)

var ErrUnresolvedMethods = errors.New("strict mode: unresolved contract methods")

// ResolutionConfig holds configuration for the resolution process.
type ResolutionConfig struct {
	// MaxPathDepth bounds nested accessor walks and ancestor ascents.
	MaxPathDepth int
	// StrictMode fails the build when a contract method stays unresolved.
	StrictMode bool
	// MaxSuggestions is the maximum number of names in an unresolved warning.
	MaxSuggestions int
	// GetterPrefixes are stripped from getter names to find bare accessors
	// and dictionary keys.
	GetterPrefixes []string
	// SetterPrefix marks write-through methods.
	SetterPrefix string
}

// DefaultConfig returns the default resolution configuration.
func DefaultConfig() ResolutionConfig {
	return ResolutionConfig{
		MaxPathDepth:   8,
		StrictMode:     false,
		MaxSuggestions: 3,
		GetterPrefixes: []string{"Get", "Is"},
		SetterPrefix:   "Set",
	}
}

// Resolver turns (source shape, contract set) pairs into dispatch tables.
type Resolver struct {
	analyzer *analyze.Analyzer
	config   ResolutionConfig
}

// NewResolver creates a new Resolver.
func NewResolver(analyzer *analyze.Analyzer, config ResolutionConfig) *Resolver {
	return &Resolver{analyzer: analyzer, config: config}
}

type visitKey struct {
	t    reflect.Type
	name string
}

// search carries the state of one path search.
type search struct {
	sig     *analyze.Signature
	store   bool
	visited map[visitKey]bool
}

// BuildObject resolves every contract signature against a concrete source
// type: direct delegate, accessor path, setter write-through, default body
// and finally a zero-value stub.
func (r *Resolver) BuildObject(source reflect.Type, contracts []*analyze.Contract) (*Shape, error) {
	shape := newShape(KeyOf(SourceObject, source, contractTypes(contracts)), contracts)

	for _, sig := range mergeSignatures(contracts) {
		shape.add(r.resolveObject(shape, source, sig))
	}

	return shape, r.finish(shape)
}

// BuildDictionary resolves contract signatures by naming convention for
// string-keyed dictionary sources.
func (r *Resolver) BuildDictionary(contracts []*analyze.Contract) (*Shape, error) {
	shape := newShape(KeyOf(SourceDictionary, nil, contractTypes(contracts)), contracts)

	for _, sig := range mergeSignatures(contracts) {
		shape.add(r.resolveDictionary(shape, sig))
	}

	return shape, r.finish(shape)
}

// BuildHandler routes every contract signature to a handler function.
func (r *Resolver) BuildHandler(contracts []*analyze.Contract) (*Shape, error) {
	shape := newShape(KeyOf(SourceHandler, nil, contractTypes(contracts)), contracts)

	for _, sig := range mergeSignatures(contracts) {
		shape.add(Entry{Signature: sig, Strategy: StrategyHandler, Explanation: explHandler})
	}

	return shape, nil
}

func (r *Resolver) resolveObject(shape *Shape, source reflect.Type, sig analyze.Signature) Entry {
	entry := Entry{Signature: sig}

	if m, ok := match.FindMethod(r.analyzer, source, &sig); ok {
		entry.Strategy = StrategyDirect
		entry.Path = methodPath(m)
		entry.Explanation = "direct: " + entry.Path.String()
		r.scoreResult(shape, &entry)

		return entry
	}

	s := &search{sig: &sig, visited: map[visitKey]bool{}}
	if path, ok := r.findPath(s, source, sig.Name, 0, true, false); ok {
		entry.Strategy = StrategyPath
		entry.Path = path
		entry.Explanation = "path: " + path.String()
		r.scoreResult(shape, &entry)

		return entry
	}

	if property, ok := r.setterProperty(&sig); ok {
		s := &search{sig: &sig, store: true, visited: map[visitKey]bool{}}
		if path, ok := r.findPath(s, source, "Get"+property, 0, true, false); ok {
			entry.Strategy = StrategyPath
			entry.Path = path
			entry.Store = true
			entry.Explanation = "store: " + path.String()

			return entry
		}
	}

	if r.resolveDefault(shape, &entry) {
		return entry
	}

	return r.unresolved(shape, entry, r.analyzer.Describe(source))
}

func (r *Resolver) resolveDictionary(shape *Shape, sig analyze.Signature) Entry {
	entry := Entry{Signature: sig}
	result := sig.Result()

	switch {
	case sig.Name == "String" && len(sig.In) == 0 && result != nil && result.Kind() == reflect.String:
		entry.Strategy, entry.Explanation = StrategyDictionaryString, explDictString
	case sig.Name == "Equal" && len(sig.In) == 1 && sig.In[0].Kind() == reflect.Interface &&
		result != nil && result.Kind() == reflect.Bool:
		entry.Strategy, entry.Explanation = StrategyDictionaryEqual, explDictEqual
	case sig.IsGetter():
		entry.Strategy = StrategyDictionaryLookup
		entry.Key = match.DictionaryKey(sig.Name, r.config.GetterPrefixes)
		entry.Explanation = fmt.Sprintf("dictionary: [%q]", entry.Key)
	default:
		if property, ok := r.setterProperty(&sig); ok {
			entry.Strategy = StrategyDictionaryStore
			entry.Key = match.Decapitalize(property)
			entry.Explanation = fmt.Sprintf("dictionary store: [%q]", entry.Key)

			return entry
		}

		if r.resolveDefault(shape, &entry) {
			return entry
		}

		return r.unresolved(shape, entry, nil)
	}

	return entry
}

// setterProperty reports the property a one-argument void setter writes.
func (r *Resolver) setterProperty(sig *analyze.Signature) (string, bool) {
	if len(sig.In) != 1 || sig.Variadic || sig.Result() != nil || r.config.SetterPrefix == "" {
		return "", false
	}

	return match.TrimAccessorPrefix(sig.Name, []string{r.config.SetterPrefix})
}

func (r *Resolver) resolveDefault(shape *Shape, entry *Entry) bool {
	owner, ok := shape.Contract(entry.Signature.Owner)
	if !ok || !owner.HasDefault(entry.Signature.Name) {
		return false
	}

	entry.Strategy = StrategyDefault
	entry.Explanation = explDefaultBody
	shape.Diagnostics.AddInfo(diagnostic.CodeDefaultBody, explDefaultBody, shape.Key.String(), entry.Signature.Name)

	return true
}

func (r *Resolver) unresolved(shape *Shape, entry Entry, info *analyze.TypeInfo) Entry {
	entry.Strategy = StrategyNoOp
	entry.Explanation = explNoDelegate

	var suggestions []string
	if info != nil {
		suggestions = match.Suggest(entry.Signature.Name, entry.Signature.Result(), info, r.config.MaxSuggestions)
	}

	if closest, ok := common.First(suggestions); ok {
		entry.Explanation += ", closest: " + closest
	}

	shape.Diagnostics.AddWarning(diagnostic.CodeUnresolvedMethod, explNoDelegate,
		shape.Key.String(), entry.Signature.String(), suggestions...)

	return entry
}

func (r *Resolver) scoreResult(shape *Shape, entry *Entry) {
	declared := entry.Signature.Result()
	if declared == nil {
		entry.Compat = match.TypeIdentical
		return
	}

	result := match.ScoreTypeCompatibility(entry.Path.Result(), declared)
	entry.Compat = result.Compatibility

	if result.Compatibility < match.TypeAssignable {
		shape.Diagnostics.AddInfo(diagnostic.CodeCoercedResult,
			fmt.Sprintf("%s -> %s: %s", result.SourceType, result.TargetType, result.Reason),
			shape.Key.String(), entry.Signature.Name)
	}
}

func (r *Resolver) finish(shape *Shape) error {
	if !r.config.StrictMode {
		return nil
	}

	var strict diagnostic.Diagnostics
	for _, d := range shape.Diagnostics.ByCode(diagnostic.CodeUnresolvedMethod) {
		strict.AddError(d.Code, d.Message, d.Shape, d.Method)
	}

	shape.Diagnostics.Merge(strict)

	if err := shape.Diagnostics.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnresolvedMethods, err)
	}

	return nil
}

// findPath decomposes name into a chain of accessors of t. Accessors are
// tried in declaration order and the first complete chain wins; when none
// matches, embedded ancestors are searched the same way.
func (r *Resolver) findPath(s *search, t reflect.Type, name string, depth int, addressable, readOnly bool) (Path, bool) {
	if depth > r.config.MaxPathDepth {
		return nil, false
	}

	info := r.analyzer.Describe(t)

	// visited holds the pairs on the current chain only; a pair that failed
	// on one branch may still succeed on a shallower or writable one
	key := visitKey{t: info.Type, name: name}
	if s.visited[key] {
		return nil, false
	}

	s.visited[key] = true
	defer delete(s.visited, key)

	forms := match.NameForms(name, r.config.GetterPrefixes)

	for i := range info.Accessors {
		acc := &info.Accessors[i]
		if readOnly && acc.Kind == analyze.AccessorMethod {
			continue
		}

		for _, form := range forms {
			suffix, ok := strings.CutPrefix(form, acc.Name)
			if !ok {
				continue
			}

			if suffix == "" {
				if step, ok := r.terminal(s, acc, addressable); ok {
					return Path{step}, true
				}

				continue
			}

			if path, ok := r.descend(s, acc, suffix, depth, addressable); ok {
				return path, true
			}
		}
	}

	for i := range info.Ancestors {
		ancestor := &info.Ancestors[i]

		sub, ok := r.findPath(s, ancestor.Out[0], name, depth+1,
			addressableAfter(ancestor, addressable), readOnly || !ancestor.IsExported())
		if ok {
			return append(Path{stepOf(ancestor)}, sub...), true
		}
	}

	return nil, false
}

// terminal accepts an accessor whose name consumed the whole contract name.
func (r *Resolver) terminal(s *search, acc *analyze.Accessor, addressable bool) (Step, bool) {
	if s.store {
		if acc.Kind != analyze.AccessorField || !addressable {
			return Step{}, false
		}

		return Step{Kind: StepField, Name: acc.Name, Index: acc.Index, Type: acc.Result(), Terminal: true}, true
	}

	if !acc.ParamsMatch(s.sig.In, s.sig.Variadic) || !analyze.ValidResults(acc.Out) {
		return Step{}, false
	}

	if s.sig.Result() != nil && acc.Result() == nil {
		return Step{}, false
	}

	step := stepOf(acc)
	step.Terminal = true

	return step, true
}

// descend continues the search below a zero-argument accessor whose name is
// a proper prefix of the contract name.
func (r *Resolver) descend(s *search, acc *analyze.Accessor, suffix string, depth int, addressable bool) (Path, bool) {
	next := acc.Result()
	if !acc.IsZeroArg() || next == nil || !analyze.ValidResults(acc.Out) {
		return nil, false
	}

	head := stepOf(acc)

	if analyze.IsDictionary(next) {
		// a dictionary terminal cannot take the contract arguments
		if !s.store && len(s.sig.In) > 0 {
			return nil, false
		}

		key := keyStep(match.Decapitalize(suffix), next)
		key.Terminal = true

		return Path{head, key}, true
	}

	if !analyze.IsNavigable(next) {
		return nil, false
	}

	sub, ok := r.findPath(s, next, "Get"+match.Capitalize(suffix), depth+1, addressableAfter(acc, addressable), false)
	if !ok {
		return nil, false
	}

	return append(Path{head}, sub...), true
}

// addressableAfter reports whether the struct reached through acc can have
// its fields set: pointers always can, fields inherit from their parent.
func addressableAfter(acc *analyze.Accessor, parent bool) bool {
	result := acc.Result()
	if result == nil {
		return false
	}

	if result.Kind() == reflect.Pointer {
		return true
	}

	return acc.Kind != analyze.AccessorMethod && result.Kind() != reflect.Interface && parent
}

func methodPath(m *match.MethodMatch) Path {
	path := make(Path, 0, len(m.Ancestors)+1)
	for i := range m.Ancestors {
		path = append(path, stepOf(&m.Ancestors[i]))
	}

	step := stepOf(m.Method)
	step.Terminal = true

	return append(path, step)
}

// mergeSignatures flattens contracts in request order. Signatures are
// deduplicated by name and parameter types; the first contract wins.
func mergeSignatures(contracts []*analyze.Contract) []analyze.Signature {
	seen := map[analyze.SignatureKey]bool{}

	var merged []analyze.Signature
	for _, c := range contracts {
		for _, sig := range c.Signatures {
			if seen[sig.Key()] {
				continue
			}

			seen[sig.Key()] = true
			merged = append(merged, sig)
		}
	}

	return merged
}

func contractTypes(contracts []*analyze.Contract) []reflect.Type {
	types := make([]reflect.Type, 0, len(contracts))
	for _, c := range contracts {
		types = append(types, c.Type)
	}

	return types
}
