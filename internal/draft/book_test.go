package draft

import (
	"context"
	"encoding/json"
	"slices"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestBook(store Store, lectureID, examID string) *Book {
	b := NewBook(store, lectureID, examID, zerolog.Nop())
	b.now = func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }
	return b
}

func TestSingleChoiceKeepsOnlyLatest(t *testing.T) {
	b := newTestBook(NewMemoryStore(), "lec", "exam")

	for _, a := range []string{"A1", "A2", "A2", "A3", "A1"} {
		b.RecordSingleChoice("Q1", a)
		got := b.Selected("Q1")
		if len(got) != 1 || got[0] != a {
			t.Fatalf("after choosing %s selection = %v", a, got)
		}
	}
}

func TestMultiChoiceToggleIsItsOwnInverse(t *testing.T) {
	b := newTestBook(NewMemoryStore(), "lec", "exam")
	b.RecordMultiChoice("Q2", "B1")

	before := b.IsSelected("Q2", "B2")
	b.RecordMultiChoice("Q2", "B2")
	b.RecordMultiChoice("Q2", "B2")
	if after := b.IsSelected("Q2", "B2"); after != before {
		t.Fatalf("double toggle changed membership: %v -> %v", before, after)
	}

	b.RecordMultiChoice("Q2", "B3")
	if got := b.Selected("Q2"); !slices.Equal(got, []string{"B1", "B3"}) {
		t.Fatalf("selection = %v, want [B1 B3]", got)
	}

	b.RecordMultiChoice("Q2", "B1")
	b.RecordMultiChoice("Q2", "B3")
	if b.IsAnswered("Q2") {
		t.Fatal("question still answered after removing every option")
	}
}

func TestAnsweredCount(t *testing.T) {
	b := newTestBook(NewMemoryStore(), "lec", "exam")
	b.RecordSingleChoice("Q1", "A1")
	b.RecordMultiChoice("Q3", "C1")
	b.RecordMultiChoice("Q3", "C1")

	if got := b.AnsweredCount([]string{"Q1", "Q2", "Q3"}); got != 1 {
		t.Fatalf("answered = %d, want 1", got)
	}
}

func TestPersistRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	b := newTestBook(store, "lec", "exam")
	b.RecordSingleChoice("Q1", "A2")
	b.RecordMultiChoice("Q2", "B1")
	b.RecordMultiChoice("Q2", "B3")
	b.SetCurrentIndex(1)
	if err := b.Persist(ctx); err != nil {
		t.Fatalf("persist: %v", err)
	}

	raw, err := store.Load(ctx, b.Key())
	if err != nil {
		t.Fatalf("load raw: %v", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatalf("stored payload is not JSON: %v", err)
	}
	if snap.CurrentQuestionIndex != 1 || snap.SavedAt.IsZero() {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	restored := newTestBook(store, "lec", "exam")
	ok, err := restored.Restore(ctx)
	if err != nil || !ok {
		t.Fatalf("restore = %v, %v", ok, err)
	}
	if got := restored.Selected("Q2"); !slices.Equal(got, []string{"B1", "B3"}) {
		t.Fatalf("Q2 = %v", got)
	}
	if got := restored.Selected("Q1"); !slices.Equal(got, []string{"A2"}) {
		t.Fatalf("Q1 = %v", got)
	}
	if restored.CurrentIndex() != 1 {
		t.Fatalf("index = %d, want 1", restored.CurrentIndex())
	}
}

func TestDraftsAreScopedPerLectureAndExam(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	a := newTestBook(store, "lectureA", "examA")
	a.RecordSingleChoice("Q1", "A1")
	if err := a.Persist(ctx); err != nil {
		t.Fatalf("persist: %v", err)
	}

	for _, scope := range [][2]string{{"lectureB", "examB"}, {"lectureA", "examB"}, {"lectureB", "examA"}} {
		other := newTestBook(store, scope[0], scope[1])
		ok, err := other.Restore(ctx)
		if err != nil {
			t.Fatalf("restore %v: %v", scope, err)
		}
		if ok || other.IsAnswered("Q1") {
			t.Fatalf("draft of lectureA/examA leaked into %v", scope)
		}
	}
}

func TestRestoreIgnoresMalformedDraft(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	b := newTestBook(store, "lec", "exam")
	_ = store.Save(ctx, b.Key(), []byte("{not json"))

	ok, err := b.Restore(ctx)
	if ok || err != nil {
		t.Fatalf("restore of malformed draft = %v, %v; want false, nil", ok, err)
	}
}

func TestRestoreDropsEmptyAndDuplicateIDs(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	b := newTestBook(store, "lec", "exam")
	_ = store.Save(ctx, b.Key(), []byte(`{"answers":{"Q1":["A1","A1",""],"Q2":[],"":["X"]},"currentQuestionIndex":-3}`))

	ok, err := b.Restore(ctx)
	if !ok || err != nil {
		t.Fatalf("restore = %v, %v", ok, err)
	}
	if got := b.Selected("Q1"); !slices.Equal(got, []string{"A1"}) {
		t.Fatalf("Q1 = %v, want [A1]", got)
	}
	if b.IsAnswered("Q2") || b.IsAnswered("") {
		t.Fatal("empty entries survived restore")
	}
	if b.CurrentIndex() != 0 {
		t.Fatalf("index = %d, want 0", b.CurrentIndex())
	}
}

func TestClearRemovesPersistedDraft(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	b := newTestBook(store, "lec", "exam")
	b.RecordSingleChoice("Q1", "A1")
	_ = b.Persist(ctx)

	if err := b.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if b.IsAnswered("Q1") {
		t.Fatal("in-memory selection survived clear")
	}
	if _, err := store.Load(ctx, b.Key()); err != ErrNotFound {
		t.Fatalf("load after clear err = %v, want ErrNotFound", err)
	}
}

// gatedStore holds every Save until release is closed.
type gatedStore struct {
	*MemoryStore
	entered chan struct{}
	release chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{
		MemoryStore: NewMemoryStore(),
		entered:     make(chan struct{}, 8),
		release:     make(chan struct{}),
	}
}

func (s *gatedStore) Save(ctx context.Context, key string, payload []byte) error {
	s.entered <- struct{}{}
	<-s.release
	return s.MemoryStore.Save(ctx, key, payload)
}

func TestDiscardWinsOverSaveInFlight(t *testing.T) {
	ctx := context.Background()
	store := newGatedStore()
	b := newTestBook(store, "lec", "exam")
	b.RecordSingleChoice("Q1", "A1")

	saved := make(chan error, 1)
	go func() { saved <- b.Persist(ctx) }()
	<-store.entered

	discarded := make(chan error, 1)
	go func() { discarded <- b.Discard(ctx) }()

	close(store.release)
	if err := <-saved; err != nil {
		t.Fatalf("persist: %v", err)
	}
	if err := <-discarded; err != nil {
		t.Fatalf("discard: %v", err)
	}

	if _, err := store.Load(ctx, b.Key()); err != ErrNotFound {
		t.Fatalf("load after discard err = %v, want ErrNotFound", err)
	}

	b.RecordSingleChoice("Q1", "A2")
	if err := b.Persist(ctx); err != nil {
		t.Fatalf("persist after discard: %v", err)
	}
	if _, err := store.Load(ctx, b.Key()); err != ErrNotFound {
		t.Fatalf("draft written after discard, err = %v", err)
	}
}

func TestClearKeepsBookUsable(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	b := newTestBook(store, "lec", "exam")

	if err := b.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	b.RecordSingleChoice("Q1", "A1")
	if err := b.Persist(ctx); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if _, err := store.Load(ctx, b.Key()); err != nil {
		t.Fatalf("load after clear and persist: %v", err)
	}
}
