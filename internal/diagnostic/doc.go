// Package diagnostic provides structured warnings, errors, and explanations
// collected while an adapter shape is resolved.
//
// Key capabilities:
//   - Unresolved contract method warnings with near-miss suggestions
//   - Invalid contract reports
//   - Explanation of results that need coercion or projection
package diagnostic
