package cinemeta

import (
	"regexp"
	"strings"

	"github.com/Shubham12864/cinescope/internal/core/domain"
)

// The find page renders each hit as an anchor to /title/tt<digits>/ with
// the display title as the anchor text, followed by a span carrying the
// year. Markup shifts over time; the patterns below only rely on the
// stable parts (title href, anchor text, a nearby 4-digit year).
var (
	findAnchorRe = regexp.MustCompile(`<a[^>]+href="/title/(tt\d+)/[^"]*"[^>]*>([^<]+)</a>`)
	findYearRe   = regexp.MustCompile(`\b((?:18|19|20)\d{2})\b`)

	titleNameRe   = regexp.MustCompile(`<meta property="og:title" content="([^"(]+)`)
	titleYearRe   = regexp.MustCompile(`<meta property="og:title" content="[^"]*\((\d{4})\)`)
	titlePosterRe = regexp.MustCompile(`<meta property="og:image" content="([^"]+)"`)
	titlePlotRe   = regexp.MustCompile(`<meta name="description" content="([^"]+)"`)
	genreChipRe   = regexp.MustCompile(`"genres?":\s*\[([^\]]+)\]`)
	quotedRe      = regexp.MustCompile(`"([^"]+)"`)
	findMarkerRe  = regexp.MustCompile(`(?i)(find|search|results|no results)`)
)

// yearWindow is how far past a result anchor the year may appear.
const yearWindow = 120

// parseFindPage extracts candidates from the find results markup.
// Rows that fail to parse are skipped; a bad row never fails the page.
// The year is taken from a short window after each anchor, covering both
// "(2010)" and "<span>2010</span>" renderings.
func parseFindPage(page string) []domain.RawCandidate {
	matches := findAnchorRe.FindAllStringSubmatchIndex(page, -1)

	seen := make(map[string]struct{})
	var candidates []domain.RawCandidate
	for _, m := range matches {
		id := page[m[2]:m[3]]
		title := strings.TrimSpace(htmlUnescape(page[m[4]:m[5]]))
		if title == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		window := page[m[1]:min(m[1]+yearWindow, len(page))]
		// Stop the window at the next result anchor.
		if next := strings.Index(window, "/title/tt"); next >= 0 {
			window = window[:next]
		}

		var year string
		if y := findYearRe.FindString(window); y != "" {
			year = y
		}

		candidates = append(candidates, domain.RawCandidate{
			Source:     "cinemeta",
			UpstreamID: id,
			Title:      title,
			Year:       year,
			Confidence: ScrapeConfidence,
		})
	}
	return candidates
}

// parseTitlePage extracts one candidate from a title page via its meta tags.
func parseTitlePage(id, page string) (*domain.RawCandidate, bool) {
	name := titleNameRe.FindStringSubmatch(page)
	if name == nil {
		return nil, false
	}

	candidate := &domain.RawCandidate{
		Source:     "cinemeta",
		UpstreamID: id,
		Title:      strings.TrimSpace(htmlUnescape(name[1])),
		Confidence: ScrapeConfidence,
	}

	if m := titleYearRe.FindStringSubmatch(page); m != nil {
		candidate.Year = m[1]
	}
	if m := titlePlotRe.FindStringSubmatch(page); m != nil {
		candidate.Plot = htmlUnescape(m[1])
	}
	if m := titlePosterRe.FindStringSubmatch(page); m != nil {
		candidate.ImageURLs = []string{m[1]}
	}
	if m := genreChipRe.FindStringSubmatch(page); m != nil {
		var genres []string
		for _, q := range quotedRe.FindAllStringSubmatch(m[1], -1) {
			genres = append(genres, q[1])
		}
		candidate.Genres = strings.Join(genres, ", ")
	}

	return candidate, true
}

// looksLikeFindPage reports whether the markup resembles a results page at
// all, distinguishing "zero hits" from a blocked or rewritten page.
func looksLikeFindPage(page string) bool {
	return findMarkerRe.MatchString(page)
}

// htmlUnescape covers the entities the scraped pages actually emit.
func htmlUnescape(s string) string {
	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&#x27;", "'",
		"&#39;", "'",
		"&quot;", `"`,
		"&lt;", "<",
		"&gt;", ">",
	)
	return replacer.Replace(s)
}
