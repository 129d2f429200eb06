package match

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// accessorTokens are leading tokens ignored when names are compared loosely.
var accessorTokens = map[string]struct{}{"get": {}, "is": {}, "set": {}}

// NormalizeIdent normalizes an identifier for fuzzy matching: CamelCase is
// tokenized, separators are dropped, a leading get/is/set token is ignored
// and the rest is case-folded.
func NormalizeIdent(s string) string {
	tokens := TokenizeIdent(s)
	if len(tokens) > 1 {
		if _, ok := accessorTokens[tokens[0]]; ok {
			tokens = tokens[1:]
		}
	}

	return strings.Join(tokens, "")
}

// TokenizeIdent splits an identifier into lowercase tokens.
func TokenizeIdent(s string) []string {
	tokens := tokenizeCamelCase(s)
	for i, t := range tokens {
		tokens[i] = strings.ToLower(t)
	}

	return tokens
}

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || unicode.IsUpper(r) {
		return s
	}

	return string(unicode.ToUpper(r)) + s[size:]
}

// Decapitalize lower-cases the first rune of s: "Int" -> "int", "URL" -> "uRL".
func Decapitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || unicode.IsLower(r) {
		return s
	}

	return string(unicode.ToLower(r)) + s[size:]
}

// TrimAccessorPrefix strips the first matching prefix from name. A prefix
// only counts when something follows it and that rest starts with an upper
// case letter, so "Issue" is not read as "Is" + "sue".
func TrimAccessorPrefix(name string, prefixes []string) (string, bool) {
	for _, prefix := range prefixes {
		rest, ok := strings.CutPrefix(name, prefix)
		if !ok || rest == "" {
			continue
		}

		if r, _ := utf8.DecodeRuneInString(rest); unicode.IsUpper(r) {
			return rest, true
		}
	}

	return name, false
}

// NameForms returns the names an accessor may carry for a contract method:
// the method name itself, then the name with a getter prefix stripped.
func NameForms(name string, getterPrefixes []string) []string {
	forms := []string{name}
	if bare, ok := TrimAccessorPrefix(name, getterPrefixes); ok {
		forms = append(forms, bare)
	}

	return forms
}

// DictionaryKey derives the key a dictionary-backed adapter uses for a
// contract method name: the accessor prefix is stripped and the first letter
// lowered ("GetInt" -> "int", "IsActive" -> "active", "Name" -> "name").
func DictionaryKey(name string, prefixes []string) string {
	bare, _ := TrimAccessorPrefix(name, prefixes)
	return Decapitalize(bare)
}

// tokenizeCamelCase splits a CamelCase or camelCase string into tokens.
// Examples:
//   - "OrderID" -> ["Order", "ID"]
//   - "XMLParser" -> ["XML", "Parser"]
//   - "getHTTPResponse" -> ["get", "HTTP", "Response"]
func tokenizeCamelCase(s string) []string {
	if s == "" {
		return nil
	}

	var (
		tokens  []string
		current strings.Builder
	)

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		if isSeparator(r) {
			flush()
			continue
		}

		if i > 0 && startsToken(runes, i) {
			flush()
		}

		current.WriteRune(r)
	}

	flush()

	return tokens
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == ' '
}

// startsToken splits on lower-to-upper transitions and before the last
// upper case rune of an acronym that is followed by a lower case rune.
func startsToken(runes []rune, i int) bool {
	r, prev := runes[i], runes[i-1]
	if !unicode.IsUpper(r) || isSeparator(prev) {
		return false
	}

	if !unicode.IsUpper(prev) {
		return true
	}

	return i+1 < len(runes) && unicode.IsLower(runes[i+1])
}
