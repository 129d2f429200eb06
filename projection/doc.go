// Package projection binds contracts to values that never declared them.
//
// A contract is a struct whose exported func-typed fields are its methods:
//
//	type OrderView struct {
//		projection.Proxy
//
//		GetNumber       func() string
//		GetCustomerName func() string
//		SetNumber       func(string)
//		Total           func() (float64, error)
//	}
//
// Project fills such a struct with functions that dispatch to the source.
// Each method resolves, once per (source type, contract set), to a direct
// method, an accessor path ("GetCustomerName" -> Customer.Name), a dictionary
// key, a default body or a zero-value stub. The resolved dispatch tables are
// cached per Engine.
//
// Key operations:
//   - Project, ProjectMultiple: object sources
//   - ProjectFromMap, ProjectMap: string keyed dictionaries
//   - ProjectAll, ProjectSet: collection views projecting their elements
//   - NewProxy, DynamicProxy: every method answered by a Handler
//   - Unwrap: the source behind any of the above
package projection
