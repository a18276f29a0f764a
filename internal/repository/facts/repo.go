// Package facts persists knowledge-graph triples in the fact store.
//
// Layout: one set of subject ids under <prefix>subjects, and one list of
// JSON-encoded (predicate, object) pairs per subject under
// <prefix>facts:<subject>. The list preserves the order facts were written,
// which the corpus loader relies on when concatenating document text.
package facts

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spacebio/kgsearch/internal/domain"
)

// store is the consumer interface for fact persistence (ISP).
type store interface {
	SAdd(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	RPush(ctx context.Context, key string, values ...string) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
}

// factDTO is the stored form of one triple. The subject is the key, so only
// predicate and object are serialized.
type factDTO struct {
	Predicate string `json:"p"`
	Object    string `json:"o"`
}

// Repo reads and writes facts through a db store.
type Repo struct {
	store  store
	prefix string
}

// New creates a fact repository with the given key prefix (e.g. "kg:").
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

func (r *Repo) subjectsKey() string {
	return r.prefix + "subjects"
}

func (r *Repo) factsKey(subject string) string {
	return r.prefix + "facts:" + subject
}

// ListSubjects returns every subject id known to the store, sorted for
// deterministic corpus insertion order (the set itself is unordered).
func (r *Repo) ListSubjects(ctx context.Context) ([]string, error) {
	subjects, err := r.store.SMembers(ctx, r.subjectsKey())
	if err != nil {
		return nil, fmt.Errorf("%w: list subjects: %w", domain.ErrFactStore, err)
	}
	sort.Strings(subjects)
	return subjects, nil
}

// Facts returns all triples for a subject in insertion order.
// An unknown subject yields an empty slice, not an error.
func (r *Repo) Facts(ctx context.Context, subject string) ([]domain.Fact, error) {
	raw, err := r.store.LRange(ctx, r.factsKey(subject), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("%w: facts for %s: %w", domain.ErrFactStore, subject, err)
	}

	out := make([]domain.Fact, 0, len(raw))
	for i, entry := range raw {
		var dto factDTO
		if err := json.Unmarshal([]byte(entry), &dto); err != nil {
			return nil, fmt.Errorf("%w: malformed fact %d for %s: %w", domain.ErrFactStore, i, subject, err)
		}
		out = append(out, domain.Fact{
			Subject:   subject,
			Predicate: dto.Predicate,
			Object:    dto.Object,
		})
	}
	return out, nil
}

// Metadata gathers the bibliographic predicates of a subject. Missing
// predicates leave the corresponding field empty; the assembler substitutes
// placeholders.
func (r *Repo) Metadata(ctx context.Context, subject string) (domain.Metadata, error) {
	all, err := r.Facts(ctx, subject)
	if err != nil {
		return domain.Metadata{}, err
	}

	var meta domain.Metadata
	for _, f := range all {
		switch f.Predicate {
		case domain.PredTitle:
			meta.Title = f.Object
		case domain.PredJournal:
			meta.Journal = f.Object
		case domain.PredYear:
			meta.Year = f.Object
		case domain.PredAuthor:
			meta.Authors = append(meta.Authors, f.Object)
		}
	}
	return meta, nil
}

// Add appends facts for a subject and registers the subject id.
// Used by the ingestion CLI; the query path never writes.
func (r *Repo) Add(ctx context.Context, subject string, facts []domain.Fact) error {
	if len(facts) == 0 {
		return nil
	}

	values := make([]string, len(facts))
	for i, f := range facts {
		data, err := json.Marshal(factDTO{Predicate: f.Predicate, Object: f.Object})
		if err != nil {
			return fmt.Errorf("marshal fact: %w", err)
		}
		values[i] = string(data)
	}

	if err := r.store.RPush(ctx, r.factsKey(subject), values...); err != nil {
		return fmt.Errorf("%w: push facts for %s: %w", domain.ErrFactStore, subject, err)
	}
	if err := r.store.SAdd(ctx, r.subjectsKey(), subject); err != nil {
		return fmt.Errorf("%w: register subject %s: %w", domain.ErrFactStore, subject, err)
	}
	return nil
}
