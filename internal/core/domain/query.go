package domain

import (
	"strings"
	"unicode"
)

// NormalizeQuery converts a raw query into its canonical cache-key form:
// lower-cased, punctuation folded to spaces, whitespace collapsed.
//
// The function is idempotent: NormalizeQuery(NormalizeQuery(q)) == NormalizeQuery(q),
// so distinct-looking but semantically equal queries collapse to one key.
func NormalizeQuery(q string) string {
	q = strings.ToLower(q)

	var b strings.Builder
	b.Grow(len(q))

	prevSpace := false
	for _, r := range q {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			prevSpace = false
			continue
		}
		// treat everything else as a space separator
		if !prevSpace {
			b.WriteRune(' ')
			prevSpace = true
		}
	}

	return strings.TrimSpace(b.String())
}

// SearchKey builds the Layer 1 cache key for a search query.
func SearchKey(query string) string {
	return "q:" + NormalizeQuery(query)
}

// RecordKey builds the Layer 1 cache key for a single record id.
func RecordKey(id string) string {
	return "id:" + strings.TrimSpace(id)
}
