// Package normalizer converts provider-specific candidates into canonical
// records. Conversion is pure: the same candidate always yields the same
// record, and no coercion ever panics or errors on bad provider data: a
// field that cannot be coerced becomes nil.
package normalizer

import (
	"strconv"
	"strings"

	"github.com/Shubham12864/cinescope/internal/core/domain"
)

// placeholderValues are provider strings that mean "no data".
var placeholderValues = map[string]struct{}{
	"n/a":     {},
	"na":      {},
	"null":    {},
	"none":    {},
	"unknown": {},
	"-":       {},
}

// Normalize converts a raw adapter candidate into a CanonicalRecord.
// Returns a *domain.AdapterError of kind Malformed when the candidate has
// no usable title; every other field degrades to nil or empty instead.
func Normalize(c domain.RawCandidate) (domain.CanonicalRecord, error) {
	title := strings.TrimSpace(c.Title)
	if title == "" || isPlaceholder(title) {
		return domain.CanonicalRecord{}, domain.NewAdapterError(c.Source, domain.ErrorMalformed, domain.ErrInvalidInput)
	}

	year := coerceYear(c.Year)

	id := strings.TrimSpace(c.UpstreamID)
	if id == "" {
		id = domain.DeriveRecordID(title, year)
	}

	return domain.CanonicalRecord{
		ID:              id,
		Title:           title,
		Year:            year,
		Genres:          splitGenres(c.Genres),
		Rating:          coerceRating(c.Rating),
		Plot:            cleanText(c.Plot),
		ImageCandidates: cleanURLs(c.ImageURLs),
		Provenance: domain.Provenance{
			SourceName:      c.Source,
			ConfidenceScore: c.Confidence,
		},
	}, nil
}

// NormalizeAll converts a candidate batch, silently dropping malformed
// entries. A malformed record is a per-record condition, never fatal for
// the batch.
func NormalizeAll(candidates []domain.RawCandidate) []domain.CanonicalRecord {
	records := make([]domain.CanonicalRecord, 0, len(candidates))
	for _, c := range candidates {
		rec, err := Normalize(c)
		if err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records
}

// coerceYear extracts a 4-digit year from provider values like "2010",
// "2010–2014" or "2010-". Non-numeric values coerce to nil, never error.
func coerceYear(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" || isPlaceholder(raw) {
		return nil
	}

	digits := make([]rune, 0, 4)
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
			if len(digits) == 4 {
				break
			}
		} else if len(digits) > 0 {
			break
		}
	}
	if len(digits) != 4 {
		return nil
	}

	year, err := strconv.Atoi(string(digits))
	if err != nil || year < 1870 || year > 2100 {
		return nil
	}
	return &year
}

// coerceRating parses a 0-10 rating. Values on a 0-100 scale are folded
// down; anything non-numeric or out of range coerces to nil.
func coerceRating(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" || isPlaceholder(raw) {
		return nil
	}

	// Tolerate "8.8/10" style values.
	if idx := strings.IndexByte(raw, '/'); idx > 0 {
		raw = raw[:idx]
	}

	val, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil
	}
	if val > 10 && val <= 100 {
		val /= 10
	}
	if val < 0 || val > 10 {
		return nil
	}
	return &val
}

// splitGenres turns a delimited genre string into a deduplicated list.
func splitGenres(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || isPlaceholder(raw) {
		return nil
	}

	seen := make(map[string]struct{})
	var genres []string
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '|' || r == ';'
	}) {
		g := strings.TrimSpace(part)
		if g == "" || isPlaceholder(g) {
			continue
		}
		key := strings.ToLower(g)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		genres = append(genres, g)
	}
	return genres
}

// cleanText trims a free-text field, mapping placeholders to empty.
func cleanText(raw string) string {
	raw = strings.TrimSpace(raw)
	if isPlaceholder(raw) {
		return ""
	}
	return raw
}

// cleanURLs drops empty and placeholder URL values, preserving order.
func cleanURLs(urls []string) []string {
	var out []string
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" || isPlaceholder(u) {
			continue
		}
		out = append(out, u)
	}
	return out
}

func isPlaceholder(v string) bool {
	_, ok := placeholderValues[strings.ToLower(strings.TrimSpace(v))]
	return ok
}
