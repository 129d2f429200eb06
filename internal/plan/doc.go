// Package plan resolves contract signatures into immutable dispatch tables.
//
// Resolution order for object sources:
//  1. Direct delegate: a method with the same name and parameter types,
//     searched on the source and then on its embedded ancestors
//  2. Path: a chain of zero-argument accessors whose names compose the
//     contract method name, optionally ending in a dictionary key
//  3. Setter write-through: SetX(v) stores into the field or key behind X
//  4. Default body supplied by the contract
//  5. Zero-value stub, reported as an unresolved_method warning
//
// Dictionary sources resolve by naming convention alone and handler sources
// route every method to the handler.
package plan
