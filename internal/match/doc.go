// Package match decides how a contract method lines up with what a source
// type offers.
//
// Key functions:
//   - FindMethod: exact signature lookup on a type and its ancestors
//   - NameForms, TrimAccessorPrefix: accessor naming conventions
//   - ScoreTypeCompatibility: compatibility ladder between two reflect types
//   - RankCandidates, Suggest: near-miss accessor names for diagnostics
package match
