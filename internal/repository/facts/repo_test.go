package facts

import (
	"context"
	"errors"
	"testing"

	"github.com/spacebio/kgsearch/internal/domain"
)

// memStore is an in-memory double for the db store.
type memStore struct {
	sets  map[string]map[string]struct{}
	lists map[string][]string
	err   error
}

func newMemStore() *memStore {
	return &memStore{
		sets:  make(map[string]map[string]struct{}),
		lists: make(map[string][]string),
	}
}

func (m *memStore) SAdd(ctx context.Context, key string, members ...string) error {
	if m.err != nil {
		return m.err
	}
	if m.sets[key] == nil {
		m.sets[key] = make(map[string]struct{})
	}
	for _, mem := range members {
		m.sets[key][mem] = struct{}{}
	}
	return nil
}

func (m *memStore) SMembers(ctx context.Context, key string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []string
	for mem := range m.sets[key] {
		out = append(out, mem)
	}
	return out, nil
}

func (m *memStore) RPush(ctx context.Context, key string, values ...string) error {
	if m.err != nil {
		return m.err
	}
	m.lists[key] = append(m.lists[key], values...)
	return nil
}

func (m *memStore) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.lists[key], nil
}

func TestRepo_AddAndFacts(t *testing.T) {
	store := newMemStore()
	repo := New(store, "kg:")
	ctx := context.Background()

	in := []domain.Fact{
		{Subject: "PMC1", Predicate: domain.PredTitle, Object: "Study A"},
		{Subject: "PMC1", Predicate: "studies_species", Object: "Mus musculus"},
	}
	if err := repo.Add(ctx, "PMC1", in); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, err := repo.Facts(ctx, "PMC1")
	if err != nil {
		t.Fatalf("Facts: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d facts, want 2", len(got))
	}
	// Insertion order must survive the round trip.
	if got[0].Predicate != domain.PredTitle || got[0].Object != "Study A" {
		t.Errorf("facts[0] = %+v", got[0])
	}
	if got[1].Object != "Mus musculus" {
		t.Errorf("facts[1] = %+v", got[1])
	}
	if got[0].Subject != "PMC1" {
		t.Errorf("subject = %q", got[0].Subject)
	}
}

func TestRepo_ListSubjectsSorted(t *testing.T) {
	store := newMemStore()
	repo := New(store, "kg:")
	ctx := context.Background()

	for _, id := range []string{"PMC3", "PMC1", "PMC2"} {
		if err := repo.Add(ctx, id, []domain.Fact{{Object: "x"}}); err != nil {
			t.Fatalf("Add(%s): %v", id, err)
		}
	}

	subjects, err := repo.ListSubjects(ctx)
	if err != nil {
		t.Fatalf("ListSubjects: %v", err)
	}
	want := []string{"PMC1", "PMC2", "PMC3"}
	if len(subjects) != len(want) {
		t.Fatalf("subjects = %v", subjects)
	}
	for i := range want {
		if subjects[i] != want[i] {
			t.Errorf("subjects[%d] = %q, want %q", i, subjects[i], want[i])
		}
	}
}

func TestRepo_FactsUnknownSubject(t *testing.T) {
	repo := New(newMemStore(), "kg:")

	got, err := repo.Facts(context.Background(), "PMC999")
	if err != nil {
		t.Fatalf("Facts: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d facts for unknown subject, want 0", len(got))
	}
}

func TestRepo_Metadata(t *testing.T) {
	store := newMemStore()
	repo := New(store, "kg:")
	ctx := context.Background()

	err := repo.Add(ctx, "PMC1", []domain.Fact{
		{Predicate: domain.PredTitle, Object: "Study A"},
		{Predicate: domain.PredJournal, Object: "Astrobiology"},
		{Predicate: domain.PredYear, Object: "2021"},
		{Predicate: domain.PredAuthor, Object: "Kim"},
		{Predicate: domain.PredAuthor, Object: "Lee"},
		{Predicate: "studies_species", Object: "ignored"},
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	meta, err := repo.Metadata(ctx, "PMC1")
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if meta.Title != "Study A" || meta.Journal != "Astrobiology" || meta.Year != "2021" {
		t.Errorf("meta = %+v", meta)
	}
	if len(meta.Authors) != 2 || meta.Authors[0] != "Kim" || meta.Authors[1] != "Lee" {
		t.Errorf("authors = %v", meta.Authors)
	}
}

func TestRepo_MetadataMissingPredicates(t *testing.T) {
	store := newMemStore()
	repo := New(store, "kg:")
	ctx := context.Background()

	if err := repo.Add(ctx, "PMC1", []domain.Fact{{Predicate: "other", Object: "x"}}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	meta, err := repo.Metadata(ctx, "PMC1")
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if meta.Title != "" || meta.Journal != "" || meta.Year != "" || meta.Authors != nil {
		t.Errorf("meta should be zero-valued: %+v", meta)
	}
}

func TestRepo_StoreErrorsWrapped(t *testing.T) {
	boom := errors.New("connection refused")
	repo := New(&memStore{err: boom}, "kg:")
	ctx := context.Background()

	if _, err := repo.ListSubjects(ctx); !errors.Is(err, domain.ErrFactStore) || !errors.Is(err, boom) {
		t.Errorf("ListSubjects err = %v", err)
	}
	if _, err := repo.Facts(ctx, "PMC1"); !errors.Is(err, domain.ErrFactStore) {
		t.Errorf("Facts err = %v", err)
	}
	if err := repo.Add(ctx, "PMC1", []domain.Fact{{Object: "x"}}); !errors.Is(err, domain.ErrFactStore) {
		t.Errorf("Add err = %v", err)
	}
}

func TestRepo_MalformedFact(t *testing.T) {
	store := newMemStore()
	store.lists["kg:facts:PMC1"] = []string{"not json"}
	repo := New(store, "kg:")

	if _, err := repo.Facts(context.Background(), "PMC1"); !errors.Is(err, domain.ErrFactStore) {
		t.Errorf("expected ErrFactStore for malformed entry, got %v", err)
	}
}

func TestRepo_AddEmpty(t *testing.T) {
	store := newMemStore()
	repo := New(store, "kg:")

	if err := repo.Add(context.Background(), "PMC1", nil); err != nil {
		t.Fatalf("Add(nil): %v", err)
	}
	if len(store.sets["kg:subjects"]) != 0 {
		t.Error("empty add registered a subject")
	}
}

func TestRepo_KeyPrefix(t *testing.T) {
	store := newMemStore()
	repo := New(store, "kg:")

	if err := repo.Add(context.Background(), "PMC1", []domain.Fact{{Object: "x"}}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, ok := store.sets["kg:subjects"]; !ok {
		t.Error("subjects key not prefixed")
	}
	if _, ok := store.lists["kg:facts:PMC1"]; !ok {
		t.Error("facts key not prefixed")
	}
}
