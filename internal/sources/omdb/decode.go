package omdb

import (
	"strings"

	"github.com/Shubham12864/cinescope/internal/core/domain"
)

// OMDb reports success in-band: Response is the string "True" or "False",
// with Error carrying the reason on failure. Both payload shapes decode
// through explicit structs; nothing untyped passes this boundary.

type searchResponse struct {
	Search       []searchItem `json:"Search"`
	TotalResults string       `json:"totalResults"`
	Response     string       `json:"Response"`
	Error        string       `json:"Error"`
}

type searchItem struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	IMDbID string `json:"imdbID"`
	Type   string `json:"Type"`
	Poster string `json:"Poster"`
}

type detailResponse struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Genre      string `json:"Genre"`
	Plot       string `json:"Plot"`
	Poster     string `json:"Poster"`
	IMDbRating string `json:"imdbRating"`
	IMDbID     string `json:"imdbID"`
	Response   string `json:"Response"`
	Error      string `json:"Error"`
}

func (r searchResponse) ok() bool { return strings.EqualFold(r.Response, "True") }
func (r detailResponse) ok() bool { return strings.EqualFold(r.Response, "True") }

// noMatches distinguishes "nothing found" from real API failures.
func (r searchResponse) noMatches() bool { return noMatchesMessage(r.Error) }
func (r detailResponse) noMatches() bool { return noMatchesMessage(r.Error) }

func noMatchesMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "not found") || strings.Contains(lower, "too many results")
}

func (r searchResponse) toCandidates() []domain.RawCandidate {
	candidates := make([]domain.RawCandidate, 0, len(r.Search))
	for _, item := range r.Search {
		if item.IMDbID == "" && item.Title == "" {
			continue
		}
		candidates = append(candidates, domain.RawCandidate{
			Source:     "omdb",
			UpstreamID: item.IMDbID,
			Title:      item.Title,
			Year:       item.Year,
			ImageURLs:  []string{item.Poster},
			Confidence: SearchConfidence,
		})
	}
	return candidates
}

func (r detailResponse) toCandidate() domain.RawCandidate {
	return domain.RawCandidate{
		Source:     "omdb",
		UpstreamID: r.IMDbID,
		Title:      r.Title,
		Year:       r.Year,
		Genres:     r.Genre,
		Rating:     r.IMDbRating,
		Plot:       r.Plot,
		ImageURLs:  []string{r.Poster},
		Confidence: SearchConfidence,
	}
}
