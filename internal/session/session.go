// Package session sequences the due cards of one study sitting.
//
// A Session is Active while it has a current card and Finished once its
// queue is drained. A session that starts with nothing due is Finished from
// the outset.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/flashmind/internal/domain"
	"github.com/conorfennell/flashmind/internal/srs"
)

var (
	ErrFinished     = errors.New("session finished")
	ErrInvalidGrade = domain.ErrInvalidGrade
)

// CardStore is the collaborator a session reads due cards from and writes
// review results to.
type CardStore interface {
	Cards() []domain.Card
	WriteCard(card domain.Card) error
	AppendLog(log domain.ReviewLog) error
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces time.Now as the session's notion of "now".
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// WithIDFunc replaces the uuid generator used for review log ids.
func WithIDFunc(newID func() string) Option {
	return func(s *Session) {
		s.newID = newID
	}
}

// WithParams sets the scheduler constants.
func WithParams(p *srs.Params) Option {
	return func(s *Session) {
		s.params = p
	}
}

// Session is the review state machine over a queue snapshotted at start.
type Session struct {
	ID     string
	DeckID string

	store  CardStore
	params *srs.Params
	now    func() time.Time
	newID  func() string

	queue    []domain.Card
	index    int
	reviewed int
}

// Outcome describes the effect of one graded review. Skipped is set when
// the card vanished from the store after the session started; no log is
// written for it.
type Outcome struct {
	Card     domain.Card      `json:"card"`
	Log      domain.ReviewLog `json:"log"`
	Requeued bool             `json:"requeued"`
	Skipped  bool             `json:"skipped"`
	Finished bool             `json:"finished"`
}

// Start snapshots the cards of deckID that are due now. An empty deckID
// reviews every deck.
func Start(store CardStore, deckID string, opts ...Option) *Session {
	s := &Session{
		ID:     uuid.NewString(),
		DeckID: deckID,
		store:  store,
		params: srs.DefaultParams(),
		now:    domain.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.queue = srs.Due(store.Cards(), deckID, s.now())
	return s
}

// Current returns the card under review. It reports false once the session
// is finished.
func (s *Session) Current() (domain.Card, bool) {
	if s.Finished() {
		return domain.Card{}, false
	}
	return s.queue[s.index], true
}

// Finished reports whether no further grades are accepted.
func (s *Session) Finished() bool {
	return s.index >= len(s.queue)
}

// Progress returns how many reviews were submitted and the current queue
// length, which grows when lapsed cards are requeued.
func (s *Session) Progress() (reviewed, total int) {
	return s.reviewed, len(s.queue)
}

// Remaining returns the number of queue entries not yet reviewed, the current
// one included.
func (s *Session) Remaining() int {
	return len(s.queue) - s.index
}

// Submit grades the current card, persists the result and advances.
// A card graded Again is appended to the end of the queue so it comes back
// before the session ends. A card no longer in the store is skipped.
func (s *Session) Submit(g domain.Grade) (Outcome, error) {
	if !g.IsValid() {
		return Outcome{}, fmt.Errorf("%w: %d", ErrInvalidGrade, int(g))
	}
	card, ok := s.Current()
	if !ok {
		return Outcome{}, ErrFinished
	}

	now := s.now()
	updated := s.params.Review(card, g, now)
	log := domain.ReviewLog{
		ID:        s.newID(),
		CardID:    card.ID,
		Grade:     g,
		Timestamp: now,
	}

	if err := s.store.WriteCard(updated); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Deleted along with its deck; drop it from the queue.
			s.index++
			return Outcome{Card: card, Skipped: true, Finished: s.Finished()}, nil
		}
		return Outcome{}, fmt.Errorf("write card %s: %w", card.ID, err)
	}
	if err := s.store.AppendLog(log); err != nil {
		return Outcome{}, fmt.Errorf("append review log for card %s: %w", card.ID, err)
	}

	out := Outcome{Card: updated, Log: log}
	if g == domain.Again && updated.Interval == 0 {
		s.queue = append(s.queue, updated)
		out.Requeued = true
	}
	s.index++
	s.reviewed++
	out.Finished = s.Finished()
	return out, nil
}
