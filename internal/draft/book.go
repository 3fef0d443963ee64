package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-trainee/internal/config"
)

// Snapshot is the persisted form of a draft.
type Snapshot struct {
	Answers              map[string][]string `json:"answers"`
	SavedAt              time.Time           `json:"savedAt"`
	CurrentQuestionIndex int                 `json:"currentQuestionIndex"`
}

// Book holds the selections of one exam attempt, keyed by question id.
type Book struct {
	mu      sync.Mutex
	store   Store
	key     string
	answers map[string][]string
	current int
	now     func() time.Time
	log     zerolog.Logger

	// io orders store writes so a save still in flight cannot land after a
	// delete.
	io        sync.Mutex
	discarded bool
}

// NewBook creates an empty draft scoped to one lecture's exam.
func NewBook(store Store, lectureID, examID string, log zerolog.Logger) *Book {
	return &Book{
		store:   store,
		key:     config.CacheKey.DraftKey(lectureID, examID),
		answers: make(map[string][]string),
		now:     time.Now,
		log:     log.With().Str("component", "draft").Logger(),
	}
}

// Key returns the storage key of this draft.
func (b *Book) Key() string { return b.key }

// RecordSingleChoice makes answerID the only selection of the question.
func (b *Book) RecordSingleChoice(questionID, answerID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.answers[questionID] = []string{answerID}
}

// RecordMultiChoice toggles answerID in the question's selections.
func (b *Book) RecordMultiChoice(questionID, answerID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	selected := b.answers[questionID]
	if i := slices.Index(selected, answerID); i >= 0 {
		selected = slices.Delete(selected, i, i+1)
	} else {
		selected = append(selected, answerID)
	}
	if len(selected) == 0 {
		delete(b.answers, questionID)
		return
	}
	b.answers[questionID] = selected
}

// Selected returns a copy of the question's selections in selection order.
func (b *Book) Selected(questionID string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.answers[questionID])
}

// IsSelected reports whether answerID is selected for the question.
func (b *Book) IsSelected(questionID, answerID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Contains(b.answers[questionID], answerID)
}

// IsAnswered reports whether the question has at least one selection.
func (b *Book) IsAnswered(questionID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.answers[questionID]) > 0
}

// AnsweredCount counts the given questions that have a selection.
func (b *Book) AnsweredCount(questionIDs []string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, id := range questionIDs {
		if len(b.answers[id]) > 0 {
			n++
		}
	}
	return n
}

// SetCurrentIndex records the question the trainee is looking at.
func (b *Book) SetCurrentIndex(i int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = i
}

// CurrentIndex returns the last viewed question index.
func (b *Book) CurrentIndex() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Persist overwrites the stored draft with the in-memory state. It does
// nothing once the draft has been discarded.
func (b *Book) Persist(ctx context.Context) error {
	b.io.Lock()
	defer b.io.Unlock()
	if b.discarded {
		return nil
	}

	b.mu.Lock()
	snap := Snapshot{
		Answers:              make(map[string][]string, len(b.answers)),
		SavedAt:              b.now().UTC(),
		CurrentQuestionIndex: b.current,
	}
	for q, a := range b.answers {
		snap.Answers[q] = slices.Clone(a)
	}
	b.mu.Unlock()

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := b.store.Save(ctx, b.key, payload); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// Restore loads a previously persisted draft. Missing or malformed data
// reports false and leaves the draft empty.
func (b *Book) Restore(ctx context.Context) (bool, error) {
	payload, err := b.store.Load(ctx, b.key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load draft: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		b.log.Debug().Err(err).Str("key", b.key).Msg("Ignoring malformed draft")
		return false, nil
	}
	if snap.CurrentQuestionIndex < 0 {
		snap.CurrentQuestionIndex = 0
	}

	answers := make(map[string][]string, len(snap.Answers))
	for q, a := range snap.Answers {
		a = uniqueIDs(a)
		if q != "" && len(a) > 0 {
			answers[q] = a
		}
	}

	b.mu.Lock()
	b.answers = answers
	b.current = snap.CurrentQuestionIndex
	b.mu.Unlock()
	return true, nil
}

// Clear deletes the stored draft and forgets all selections.
func (b *Book) Clear(ctx context.Context) error {
	b.io.Lock()
	defer b.io.Unlock()
	return b.clearLocked(ctx)
}

// Discard clears the draft for good: later Persist calls are no-ops. Used
// once the attempt has been submitted.
func (b *Book) Discard(ctx context.Context) error {
	b.io.Lock()
	defer b.io.Unlock()
	b.discarded = true
	return b.clearLocked(ctx)
}

func (b *Book) clearLocked(ctx context.Context) error {
	b.mu.Lock()
	b.answers = make(map[string][]string)
	b.current = 0
	b.mu.Unlock()

	if err := b.store.Delete(ctx, b.key); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

// uniqueIDs drops empty and repeated ids, keeping first-seen order.
func uniqueIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
