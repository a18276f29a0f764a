package result

import "strings"

// Placeholder values for missing bibliographic fields. The API contract
// guarantees these fields are always present, never null.
const (
	UnknownTitle   = "Unknown Title"
	UnknownJournal = "Unknown Journal"
	UnknownYear    = "Unknown Year"
	UnknownAuthors = "Unknown Authors"
)

// Fixed summary strings. Summary generation failure never fails a search.
const (
	SummaryNoResults   = "No relevant results found."
	SummaryUnavailable = "Summary generation failed."
)

// Hit is one (document id, score) entry in a ranking. Score semantics are
// local to the producer: cosine similarity for the indices, a fusion score in
// (0, 1] after RRF, and an unbounded model score after reranking.
type Hit struct {
	ID    string
	Score float64
}

// Article is a fully assembled search result. PMCID is always a top-level
// (parent) identifier, never a sub-entity id.
type Article struct {
	PMCID   string  `json:"pmc_id"`
	Title   string  `json:"title"`
	Journal string  `json:"journal"`
	Year    string  `json:"year"`
	Authors string  `json:"authors"`
	Score   float64 `json:"score"`
}

// Response is the search output unit.
type Response struct {
	Results []Article `json:"results"`
	Summary string    `json:"summary,omitempty"`
}

// maxDisplayedAuthors is how many author names appear before "et al.".
const maxDisplayedAuthors = 3

// FormatAuthors joins the first three author names with ", ", appending
// " et al." when more exist. An empty list yields the Unknown placeholder.
func FormatAuthors(names []string) string {
	if len(names) == 0 {
		return UnknownAuthors
	}
	shown := names
	if len(shown) > maxDisplayedAuthors {
		shown = shown[:maxDisplayedAuthors]
	}
	formatted := strings.Join(shown, ", ")
	if len(names) > maxDisplayedAuthors {
		formatted += " et al."
	}
	return formatted
}

// OrUnknown substitutes a placeholder for a blank metadata field.
func OrUnknown(value, placeholder string) string {
	if strings.TrimSpace(value) == "" {
		return placeholder
	}
	return value
}
