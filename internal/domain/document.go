package domain

import "strings"

// Convention describes how corpus identifiers are recognized and related.
// Subjects carrying IDPrefix belong to the corpus; a sub-entity id is a parent
// id plus SubDelim plus a suffix (PMC123_treatment_0 belongs to PMC123).
type Convention struct {
	IDPrefix string
	SubDelim string
}

// DefaultConvention matches PMC article ids with "_"-delimited sub-entities.
func DefaultConvention() Convention {
	return Convention{IDPrefix: "PMC", SubDelim: "_"}
}

// Matches reports whether a subject id belongs to the corpus.
func (c Convention) Matches(id string) bool {
	return c.IDPrefix != "" && strings.HasPrefix(id, c.IDPrefix)
}

// Parent resolves an id to its top-level id: the prefix before the first
// delimiter. A top-level id resolves to itself.
func (c Convention) Parent(id string) string {
	if c.SubDelim == "" {
		return id
	}
	if head, _, ok := strings.Cut(id, c.SubDelim); ok {
		return head
	}
	return id
}

// Document is one searchable corpus entry, built once at load time and
// read-only afterward. ParentID is resolved at load so no query-time string
// splitting is needed; for top-level documents it equals ID.
type Document struct {
	ID       string
	ParentID string
	Text     string
	Facts    []Fact
}

// IsSubEntity reports whether the document is a component of another document.
func (d *Document) IsSubEntity() bool {
	return d.ParentID != d.ID
}
