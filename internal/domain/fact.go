package domain

// Metadata predicates written by the extraction pipeline. The assembler reads
// these from the parent document when formatting results.
const (
	PredTitle   = "has_title"
	PredJournal = "published_in"
	PredYear    = "published_year"
	PredAuthor  = "has_author"
)

// Fact is one subject-predicate-object triple from the knowledge graph.
// All three parts are opaque strings; facts are immutable once stored.
type Fact struct {
	Subject   string
	Predicate string
	Object    string
}

// Metadata holds the bibliographic fields of a top-level document.
// Zero-value fields mean the fact store has no such predicate for the id.
type Metadata struct {
	Title   string
	Journal string
	Year    string
	Authors []string
}
