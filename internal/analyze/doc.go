// Package analyze provides reflection descriptors of source and contract types.
//
// It walks runtime types with reflect to build an immutable, cached model of
// what a value exposes and what a contract asks for.
//
// Key types:
//   - TypeID: package import path + type name
//   - TypeInfo: accessors (fields, methods) and embedded ancestors of a type
//   - Accessor: one readable field, callable method or ancestor
//   - Contract: flattened method signatures of a contract struct
//   - Signature: one contract method (name, parameters, results, tag)
package analyze
