// Package imaging generates deterministic placeholder artwork and fetches
// upstream image bytes with size enforcement.
package imaging

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Shubham12864/cinescope/internal/core/domain"
)

// palette holds the placeholder background colours. The colour is picked
// from the title hash, so a given title always renders the same card.
var palette = []string{
	"#1f2a44", "#2d1f44", "#44301f", "#1f4436", "#442a1f", "#24344d", "#3d2440",
}

const maxTitleLine = 18

// GeneratePlaceholder renders a same-aspect SVG poster carrying the title
// text. Output is byte-for-byte deterministic for a given (title, size)
// pair, so placeholder keys can be cached forever.
func GeneratePlaceholder(title string, size domain.ImageSize) *domain.ResolvedImage {
	size = size.Normalize()

	display := strings.TrimSpace(title)
	if display == "" {
		display = "Untitled"
	}

	bg := palette[hashString(domain.NormalizeQuery(display))%uint32(len(palette))]
	lines := wrapTitle(display, maxTitleLine, 4)
	fontSize := size.Width / 12

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		size.Width, size.Height, size.Width, size.Height)
	fmt.Fprintf(&b, `<rect width="100%%" height="100%%" fill="%s"/>`, bg)
	fmt.Fprintf(&b, `<rect x="%d" y="%d" width="%d" height="%d" fill="none" stroke="#ffffff33" stroke-width="2"/>`,
		size.Width/20, size.Height/20, size.Width-size.Width/10, size.Height-size.Height/10)

	startY := size.Height/2 - (len(lines)-1)*fontSize/2
	for i, line := range lines {
		fmt.Fprintf(&b,
			`<text x="50%%" y="%d" fill="#ffffff" font-family="Helvetica, Arial, sans-serif" font-size="%d" font-weight="bold" text-anchor="middle">%s</text>`,
			startY+i*(fontSize+fontSize/3), fontSize, escapeXML(line))
	}
	fmt.Fprintf(&b, `<text x="50%%" y="%d" fill="#ffffff88" font-family="Helvetica, Arial, sans-serif" font-size="%d" text-anchor="middle">no artwork</text>`,
		size.Height-size.Height/12, fontSize/2)
	b.WriteString(`</svg>`)

	data := []byte(b.String())
	return &domain.ResolvedImage{
		Data:        data,
		ContentType: "image/svg+xml",
		ContentHash: domain.ContentHash(data),
		Generated:   true,
	}
}

// wrapTitle breaks the title into at most maxLines lines of roughly
// lineLen characters, ellipsising overflow.
func wrapTitle(title string, lineLen, maxLines int) []string {
	words := strings.Fields(title)

	var lines []string
	var current string
	for _, w := range words {
		if current == "" {
			current = w
			continue
		}
		if len(current)+1+len(w) <= lineLen {
			current += " " + w
			continue
		}
		lines = append(lines, current)
		current = w
		if len(lines) == maxLines {
			break
		}
	}
	if current != "" && len(lines) < maxLines {
		lines = append(lines, current)
	}

	if len(lines) == maxLines && len(strings.Join(lines, " ")) < len(strings.Join(words, " ")) {
		lines[maxLines-1] = truncateRunes(lines[maxLines-1], lineLen-1) + "…"
	}

	for i, line := range lines {
		if utf8.RuneCountInString(line) > lineLen+4 {
			lines[i] = truncateRunes(line, lineLen+3) + "…"
		}
	}
	return lines
}

// truncateRunes cuts s to at most n runes. Byte slicing would split
// multi-byte titles mid-rune and leak invalid UTF-8 into the SVG.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

func escapeXML(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return replacer.Replace(s)
}

// hashString is FNV-1a; stdlib hash/fnv allocates, and only 32 bits of
// spread are needed for palette selection.
func hashString(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}
