package match

import (
	"reflect"

	"projector/internal/analyze"
)

// MethodMatch is an exact delegate for a contract method. Ancestors holds
// the embedded fields to step through when the method was found on an
// ancestor rather than promoted onto the source type itself.
type MethodMatch struct {
	Ancestors []analyze.Accessor
	Method    *analyze.Accessor
}

// Result returns the delegate's value-carrying result type.
func (m *MethodMatch) Result() reflect.Type {
	return m.Method.Result()
}

// FindMethod searches t for a method with the signature's name, identical
// ordered parameter types and the same variadic flag. The method set of t
// already contains promoted methods; embedded ancestors are walked
// explicitly afterwards, which covers methods Go leaves unpromoted because
// two ancestors at the same depth declare them.
func FindMethod(a *analyze.Analyzer, t reflect.Type, sig *analyze.Signature) (*MethodMatch, bool) {
	return findMethod(a, t, sig, map[reflect.Type]bool{})
}

func findMethod(a *analyze.Analyzer, t reflect.Type, sig *analyze.Signature, visited map[reflect.Type]bool) (*MethodMatch, bool) {
	info := a.Describe(t)
	if visited[info.Type] {
		return nil, false
	}

	visited[info.Type] = true

	if m, ok := info.Method(sig.Name); ok && m.ParamsMatch(sig.In, sig.Variadic) && analyze.ValidResults(m.Out) {
		return &MethodMatch{Method: m}, true
	}

	for _, ancestor := range info.Ancestors {
		// methods of unexported ancestors cannot be called through reflect
		if !ancestor.IsExported() {
			continue
		}

		found, ok := findMethod(a, ancestor.Out[0], sig, visited)
		if !ok {
			continue
		}

		found.Ancestors = append([]analyze.Accessor{ancestor}, found.Ancestors...)

		return found, true
	}

	return nil, false
}
