package session

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/conorfennell/flashmind/internal/domain"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

// memStore is an in-memory CardStore.
type memStore struct {
	cards    []domain.Card
	logs     []domain.ReviewLog
	writeErr error
}

func (m *memStore) Cards() []domain.Card {
	return append([]domain.Card(nil), m.cards...)
}

func (m *memStore) WriteCard(card domain.Card) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	for i := range m.cards {
		if m.cards[i].ID == card.ID {
			m.cards[i] = card
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memStore) AppendLog(log domain.ReviewLog) error {
	m.logs = append(m.logs, log)
	return nil
}

func (m *memStore) card(id string) domain.Card {
	for _, c := range m.cards {
		if c.ID == id {
			return c
		}
	}
	return domain.Card{}
}

func newStore() *memStore {
	mk := func(id, deck string, due time.Time) domain.Card {
		c := domain.NewCard(id, deck, domain.Draft{Front: id, Back: id}, t0.Add(-72*time.Hour))
		c.DueDate = due
		return c
	}
	return &memStore{cards: []domain.Card{
		mk("c1", "d1", t0.Add(-time.Hour)),
		mk("c2", "d1", t0.Add(-2*time.Hour)),
		mk("c3", "d2", t0.Add(-3*time.Hour)),
		mk("c4", "d1", t0.Add(time.Hour)),
	}}
}

func startAt(store CardStore, deck string) *Session {
	n := 0
	return Start(store, deck,
		WithClock(func() time.Time { return t0 }),
		WithIDFunc(func() string { n++; return fmt.Sprintf("log-%d", n) }),
	)
}

func TestStartSnapshotsDueSet(t *testing.T) {
	s := startAt(newStore(), "d1")

	if s.Finished() {
		t.Fatal("Expected session to be active")
	}
	if _, total := s.Progress(); total != 2 {
		t.Errorf("Expected 2 due cards in d1, but got %d", total)
	}
	cur, ok := s.Current()
	if !ok || cur.ID != "c2" {
		t.Errorf("Expected earliest due card c2 first, but got %q", cur.ID)
	}
	if s.ID == "" {
		t.Error("Expected session to have an id")
	}
}

func TestNothingDue(t *testing.T) {
	s := startAt(newStore(), "empty-deck")
	if !s.Finished() {
		t.Error("Expected a session with nothing due to be finished")
	}
	if _, ok := s.Current(); ok {
		t.Error("Expected no current card")
	}
	if _, err := s.Submit(domain.Good); !errors.Is(err, ErrFinished) {
		t.Errorf("Expected ErrFinished, but got %v", err)
	}
}

func TestSubmitWritesCardAndLog(t *testing.T) {
	store := newStore()
	s := startAt(store, "d1")

	out, err := s.Submit(domain.Good)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if out.Card.ID != "c2" || out.Card.State != domain.StateReview || out.Card.Interval != 1 {
		t.Errorf("Expected c2 graduated to review/1, but got %+v", out.Card)
	}
	if got := store.card("c2"); got.State != domain.StateReview || !got.DueDate.Equal(t0.Add(24*time.Hour)) {
		t.Errorf("Expected stored card to be updated, but got %+v", got)
	}
	if len(store.logs) != 1 || store.logs[0].CardID != "c2" || store.logs[0].Grade != domain.Good || store.logs[0].ID != "log-1" {
		t.Errorf("Expected one log for c2, but got %+v", store.logs)
	}
	if !store.logs[0].Timestamp.Equal(t0) {
		t.Errorf("Expected log at %v, but got %v", t0, store.logs[0].Timestamp)
	}
	if out.Requeued || out.Finished {
		t.Errorf("Expected neither requeue nor finish, but got %+v", out)
	}
}

func TestAgainRequeues(t *testing.T) {
	store := newStore()
	s := startAt(store, "d1")

	out, err := s.Submit(domain.Again)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !out.Requeued {
		t.Fatal("Expected lapsed card to be requeued")
	}
	if _, total := s.Progress(); total != 3 {
		t.Errorf("Expected queue to grow to 3, but got %d", total)
	}

	if _, err := s.Submit(domain.Good); err != nil { // c1
		t.Fatalf("Submit: %v", err)
	}
	cur, ok := s.Current()
	if !ok || cur.ID != "c2" {
		t.Fatalf("Expected requeued c2 to come back, but got %q", cur.ID)
	}
	if cur.State != domain.StateLearning {
		t.Errorf("Expected requeued copy to carry the updated state, but got %s", cur.State)
	}

	out, err = s.Submit(domain.Hard)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !out.Finished || !s.Finished() {
		t.Error("Expected session to finish after the requeued card")
	}
	if got := store.card("c2"); got.State != domain.StateReview || got.Interval != 1 {
		t.Errorf("Expected c2 to graduate on its second attempt, but got %+v", got)
	}
	if reviewed, _ := s.Progress(); reviewed != 3 || len(store.logs) != 3 {
		t.Errorf("Expected 3 reviews and 3 logs, but got %d and %d", reviewed, len(store.logs))
	}
	if _, err := s.Submit(domain.Good); !errors.Is(err, ErrFinished) {
		t.Errorf("Expected ErrFinished after completion, but got %v", err)
	}
}

func TestSubmitRejectsInvalidGrade(t *testing.T) {
	store := newStore()
	s := startAt(store, "")
	if _, err := s.Submit(domain.Grade(0)); !errors.Is(err, ErrInvalidGrade) {
		t.Errorf("Expected ErrInvalidGrade, but got %v", err)
	}
	if len(store.logs) != 0 || s.Remaining() != 3 {
		t.Error("Expected an invalid grade to leave the session untouched")
	}
}

func TestSubmitStoreFailure(t *testing.T) {
	store := newStore()
	store.writeErr = errors.New("disk full")
	s := startAt(store, "")
	if _, err := s.Submit(domain.Good); err == nil {
		t.Fatal("Expected write failure to surface")
	}
	if s.Remaining() != 3 {
		t.Errorf("Expected the session not to advance, but %d remain", s.Remaining())
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	s := startAt(newStore(), "d2")
	r.Add(s)

	found, err := r.Do(s.ID, func(s *Session) error {
		_, err := s.Submit(domain.Easy)
		return err
	})
	if !found || err != nil {
		t.Fatalf("Do: found=%v err=%v", found, err)
	}
	_, err = r.Do(s.ID, func(s *Session) error {
		_, err := s.Submit(domain.Easy)
		return err
	})
	if !errors.Is(err, ErrFinished) {
		t.Errorf("Expected ErrFinished from a finished registered session, but got %v", err)
	}
	if found, _ := r.Do("missing", func(*Session) error { return nil }); found {
		t.Error("Expected unknown id not to be found")
	}
	if !r.Remove(s.ID) || r.Len() != 0 {
		t.Error("Expected session to be removed")
	}
}

func TestSubmitSkipsCardsOfDeletedDeck(t *testing.T) {
	store := newStore()
	s := startAt(store, "d1")
	if s.Remaining() != 2 {
		t.Fatalf("Expected 2 due cards in d1, but got %d", s.Remaining())
	}

	// Deleting the deck cascades to its cards.
	var kept []domain.Card
	for _, c := range store.cards {
		if c.DeckID != "d1" {
			kept = append(kept, c)
		}
	}
	store.cards = kept

	for i := 0; i < 2; i++ {
		out, err := s.Submit(domain.Good)
		if err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
		if !out.Skipped {
			t.Errorf("Expected submit %d to be skipped", i)
		}
		if out.Finished != (i == 1) {
			t.Errorf("Expected finished=%v after submit %d, but got %v", i == 1, i, out.Finished)
		}
	}
	if len(store.logs) != 0 {
		t.Errorf("Expected no logs for vanished cards, but got %d", len(store.logs))
	}
	if reviewed, _ := s.Progress(); reviewed != 0 {
		t.Errorf("Expected 0 reviewed, but got %d", reviewed)
	}
	if _, err := s.Submit(domain.Good); !errors.Is(err, ErrFinished) {
		t.Errorf("Expected ErrFinished, but got %v", err)
	}
}

func TestRegistryLocksPerSession(t *testing.T) {
	r := NewRegistry()
	a := startAt(newStore(), "d1")
	b := startAt(newStore(), "d2")
	r.Add(a)
	r.Add(b)

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Do(a.ID, func(*Session) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	graded := make(chan error, 1)
	go func() {
		_, err := r.Do(b.ID, func(s *Session) error {
			_, err := s.Submit(domain.Good)
			return err
		})
		graded <- err
	}()

	select {
	case err := <-graded:
		if err != nil {
			t.Errorf("Expected grading b to succeed, but got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Expected b to be graded while a is busy")
	}
	close(release)
	<-done
}
