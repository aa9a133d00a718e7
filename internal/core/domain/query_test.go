package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "Inception", "inception"},
		{"collapses whitespace", "  the   dark    knight ", "the dark knight"},
		{"strips punctuation", "Spider-Man: No Way Home!", "spider man no way home"},
		{"keeps digits", "Blade Runner 2049", "blade runner 2049"},
		{"empty", "", ""},
		{"only punctuation", "?!,.", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeQuery(tt.input))
		})
	}
}

func TestNormalizeQueryIdempotent(t *testing.T) {
	queries := []string{
		"Inception",
		"  The   MATRIX  ",
		"Spider-Man: Across the Spider-Verse",
		"Léon: The Professional",
		"12 Angry Men",
		"",
	}

	for _, q := range queries {
		once := NormalizeQuery(q)
		assert.Equal(t, once, NormalizeQuery(once), "normalize must be idempotent for %q", q)
	}
}

func TestSearchKeyCollapsesEquivalentQueries(t *testing.T) {
	assert.Equal(t, SearchKey("The Dark Knight"), SearchKey("  the   dark KNIGHT?! "))
	assert.NotEqual(t, SearchKey("inception"), RecordKey("inception"))
}
