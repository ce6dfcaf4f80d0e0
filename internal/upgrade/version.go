// Package upgrade classifies Splunk apps into upgrade-action buckets for a
// target platform major version.
package upgrade

import (
	"strconv"
	"strings"
)

// ParseVersionList leniently parses a compatibility column such as
// "['9.0', '9.1']" or "9.0, 9.1" into its tokens. Brackets and quotes are
// stripped, tokens are split on commas and trimmed, and empty tokens are
// dropped. It never fails: unparseable input yields an empty list.
func ParseVersionList(raw string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', '\'', '"':
			return -1
		}
		return r
	}, raw)

	var out []string
	for _, tok := range strings.Split(cleaned, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" || strings.EqualFold(tok, "n/a") {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// HasMajor reports whether any token belongs to the given major version,
// i.e. equals it or starts with "<major>.".
func HasMajor(tokens []string, major string) bool {
	if major == "" {
		return false
	}
	prefix := major + "."
	for _, tok := range tokens {
		if tok == major || strings.HasPrefix(tok, prefix) {
			return true
		}
	}
	return false
}

// Highest returns the maximum version token.
//
// When every token consists of integer dot components the tokens are
// compared numerically, component by component. If any token has a
// non-integer component the whole set is compared lexicographically instead
// and fallback is true, so the caller can flag the result for review. Both
// orders are total, which keeps the selection independent of input order.
func Highest(tokens []string) (highest string, fallback bool) {
	if len(tokens) == 0 {
		return "", false
	}

	parsed := make([][]int, len(tokens))
	for i, tok := range tokens {
		parts, ok := numericParts(tok)
		if !ok {
			fallback = true
			break
		}
		parsed[i] = parts
	}

	best := 0
	for i := 1; i < len(tokens); i++ {
		var cmp int
		if fallback {
			cmp = strings.Compare(tokens[i], tokens[best])
		} else {
			cmp = compareNumeric(parsed[i], parsed[best])
			if cmp == 0 {
				cmp = strings.Compare(tokens[i], tokens[best])
			}
		}
		if cmp > 0 {
			best = i
		}
	}
	return tokens[best], fallback
}

// CompareVersions orders two version strings with the same rule as Highest.
// The boolean is true when the lexicographic fallback was used.
func CompareVersions(a, b string) (int, bool) {
	pa, okA := numericParts(a)
	pb, okB := numericParts(b)
	if !okA || !okB {
		return strings.Compare(a, b), true
	}
	if cmp := compareNumeric(pa, pb); cmp != 0 {
		return cmp, false
	}
	return strings.Compare(a, b), false
}

func numericParts(v string) ([]int, bool) {
	fields := strings.Split(v, ".")
	parts := make([]int, len(fields))
	for i, f := range fields {
		if !isDigits(f) {
			return nil, false
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, false
		}
		parts[i] = n
	}
	return parts, true
}

// isDigits reports whether s is a non-empty run of ASCII digits. Signs and
// spaces that strconv.Atoi tolerates are rejected.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func compareNumeric(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}
