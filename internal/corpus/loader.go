// Package corpus turns persisted facts into the immutable document snapshot
// the indices are built over.
package corpus

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spacebio/kgsearch/internal/domain"
)

// FactReader is the fact store read interface the loader consumes.
type FactReader interface {
	ListSubjects(ctx context.Context) ([]string, error)
	Facts(ctx context.Context, subject string) ([]domain.Fact, error)
}

// Corpus is a read-only snapshot of the document set. Built once at engine
// construction; safe for concurrent readers afterward.
type Corpus struct {
	ids  []string
	docs map[string]domain.Document
}

// Load builds the corpus from every subject matching the identifier
// convention. Document text is the space-joined concatenation of non-blank
// object values in fact order. An empty fact store yields an empty corpus,
// not an error.
func Load(ctx context.Context, src FactReader, conv domain.Convention, logger *zap.Logger) (*Corpus, error) {
	subjects, err := src.ListSubjects(ctx)
	if err != nil {
		return nil, err
	}

	c := &Corpus{docs: make(map[string]domain.Document)}

	for _, id := range subjects {
		if !conv.Matches(id) {
			continue
		}

		fs, err := src.Facts(ctx, id)
		if err != nil {
			return nil, err
		}

		var parts []string
		for _, f := range fs {
			if strings.TrimSpace(f.Object) == "" {
				continue
			}
			parts = append(parts, f.Object)
		}

		c.ids = append(c.ids, id)
		c.docs[id] = domain.Document{
			ID:       id,
			ParentID: conv.Parent(id),
			Text:     strings.Join(parts, " "),
			Facts:    fs,
		}
	}

	logger.Info("Corpus loaded",
		zap.Int("subjects", len(subjects)),
		zap.Int("documents", len(c.ids)),
	)

	return c, nil
}

// Len returns the number of documents.
func (c *Corpus) Len() int { return len(c.ids) }

// IDs returns document ids in insertion order. Callers must not mutate.
func (c *Corpus) IDs() []string { return c.ids }

// Texts returns document texts aligned with IDs.
func (c *Corpus) Texts() []string {
	texts := make([]string, len(c.ids))
	for i, id := range c.ids {
		texts[i] = c.docs[id].Text
	}
	return texts
}

// Doc looks up a document by id.
func (c *Corpus) Doc(id string) (domain.Document, bool) {
	d, ok := c.docs[id]
	return d, ok
}
