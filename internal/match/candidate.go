package match

import (
	"reflect"
	"sort"

	"projector/internal/analyze"
)

// Candidate is an accessor that nearly satisfies a contract method.
type Candidate struct {
	Accessor *analyze.Accessor

	// Scoring components
	NameScore  float64                 // Normalized Levenshtein similarity (0-1)
	TypeCompat TypeCompatibilityResult // Result type compatibility

	// Combined score for ranking (higher is better)
	CombinedScore float64
}

// CandidateList is a list of candidates with ranking functionality.
type CandidateList []Candidate

// MinSuggestionScore is the name similarity below which an accessor is not
// worth suggesting.
const MinSuggestionScore = 0.5

// RankCandidates scores every accessor of info against a contract method
// name and result type. Returns candidates sorted by combined score
// (descending).
func RankCandidates(name string, result reflect.Type, info *analyze.TypeInfo) CandidateList {
	candidates := make(CandidateList, 0, len(info.Accessors))

	for i := range info.Accessors {
		accessor := &info.Accessors[i]

		typeCompat := TypeCompatibilityResult{Compatibility: TypeIncompatible, Reason: "no result"}
		if out := accessor.Result(); out != nil && result != nil {
			typeCompat = ScoreTypeCompatibility(out, result)
		}

		nameScore := NameSimilarity(accessor.Name, name)

		candidates = append(candidates, Candidate{
			Accessor:      accessor,
			NameScore:     nameScore,
			TypeCompat:    typeCompat,
			CombinedScore: calculateCombinedScore(nameScore, typeCompat.Compatibility),
		})
	}

	sort.Sort(candidates)

	return candidates
}

// Suggest returns up to n accessor names of info that resemble name.
func Suggest(name string, result reflect.Type, info *analyze.TypeInfo, n int) []string {
	var names []string
	for _, c := range RankCandidates(name, result, info).Top(n) {
		if c.NameScore < MinSuggestionScore {
			continue
		}

		names = append(names, c.Accessor.String())
	}

	return names
}

// calculateCombinedScore computes a combined score from name similarity and type compatibility.
// Weights:
//   - Name similarity: 60% (0.0-0.6)
//   - Type compatibility: 40% (0.0-0.4)
func calculateCombinedScore(nameScore float64, typeCompat TypeCompatibility) float64 {
	const (
		nameWeight = 0.6
		typeWeight = 0.4
	)

	var typeScore float64

	switch typeCompat {
	case TypeIdentical:
		typeScore = 1.0
	case TypeAssignable:
		typeScore = 0.9
	case TypeConvertible:
		typeScore = 0.7
	case TypeNeedsTransform:
		typeScore = 0.4
	case TypeIncompatible:
		typeScore = 0.0
	}

	return nameScore*nameWeight + typeScore*typeWeight
}

// Len implements sort.Interface.
func (c CandidateList) Len() int { return len(c) }

// Swap implements sort.Interface.
func (c CandidateList) Swap(i, j int) { c[i], c[j] = c[j], c[i] }

// Less implements sort.Interface.
// Sorts by combined score descending, then by accessor name for determinism.
func (c CandidateList) Less(i, j int) bool {
	if c[i].CombinedScore != c[j].CombinedScore {
		return c[i].CombinedScore > c[j].CombinedScore
	}

	return c[i].Accessor.Name < c[j].Accessor.Name
}

// Top returns the top n candidates.
func (c CandidateList) Top(n int) CandidateList {
	if n >= len(c) {
		return c
	}

	return c[:n]
}
