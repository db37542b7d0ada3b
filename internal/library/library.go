// Package library owns the in-memory collection document.
//
// Every update is computed as a new domain.Document and swapped in whole, then
// handed to the storage backend. Save failures are logged and otherwise
// ignored: the in-memory document stays authoritative for the process.
package library

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/flashmind/internal/domain"
	"github.com/conorfennell/flashmind/internal/store"
)

// Palette holds the pastel colours assigned to new decks in turn.
var Palette = []string{"#E0F2FE", "#DCFCE7", "#F3E8FF", "#FCE7F3", "#FEF9C3"}

// Default name and description of a deck created without them.
const (
	DefaultDeckName        = "New Deck"
	DefaultDeckDescription = "Tap to edit description"
)

// Option configures a Library.
type Option func(*Library)

// WithClock replaces domain.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Library) {
		l.now = now
	}
}

// WithIDFunc replaces the uuid generator for new decks and cards.
func WithIDFunc(newID func() string) Option {
	return func(l *Library) {
		l.newID = newID
	}
}

// Library is the single owner of the collection.
type Library struct {
	mu      sync.Mutex
	doc     domain.Document
	backend store.Backend
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// Open loads the document from backend.
func Open(ctx context.Context, backend store.Backend, logger *slog.Logger, opts ...Option) *Library {
	l := &Library{
		backend: backend,
		logger:  logger,
		now:     domain.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.doc = backend.Load(ctx).Clone()
	logger.Info("Library loaded",
		slog.Int("decks", len(l.doc.Decks)),
		slog.Int("cards", len(l.doc.Cards)),
		slog.Int("logs", len(l.doc.Logs)))
	return l
}

// commit swaps in doc and persists it. Callers hold l.mu.
func (l *Library) commit(doc domain.Document) {
	l.doc = doc
	if err := l.backend.Save(context.Background(), doc); err != nil {
		l.logger.Error("Failed to save document", slog.String("error", err.Error()))
	}
}

// Snapshot returns a copy of the whole document.
func (l *Library) Snapshot() domain.Document {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.doc.Clone()
}

// Cards returns every card in insertion order.
func (l *Library) Cards() []domain.Card {
	return l.Snapshot().Cards
}

// Card returns the card with the given id.
func (l *Library) Card(id string) (domain.Card, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.doc.Card(id)
	if !ok {
		return domain.Card{}, fmt.Errorf("card %s: %w", id, domain.ErrNotFound)
	}
	return c, nil
}

// WriteCard replaces a stored card with its updated version.
func (l *Library) WriteCard(card domain.Card) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	doc, err := l.doc.ReplaceCard(card)
	if err != nil {
		return err
	}
	l.commit(doc)
	return nil
}

// AppendLog records a review event.
func (l *Library) AppendLog(log domain.ReviewLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.commit(l.doc.AppendLog(log))
	return nil
}

// Decks returns every deck in creation order.
func (l *Library) Decks() []domain.Deck {
	return l.Snapshot().Decks
}

// Deck returns the deck with the given id.
func (l *Library) Deck(id string) (domain.Deck, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	d, ok := l.doc.Deck(id)
	if !ok {
		return domain.Deck{}, fmt.Errorf("deck %s: %w", id, domain.ErrNotFound)
	}
	return d, nil
}

// CardsInDeck returns the cards of a deck.
func (l *Library) CardsInDeck(deckID string) ([]domain.Card, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.doc.Deck(deckID); !ok {
		return nil, fmt.Errorf("deck %s: %w", deckID, domain.ErrNotFound)
	}
	return l.doc.Clone().CardsInDeck(deckID), nil
}

// CreateDeck adds an empty deck. Blank names and descriptions get defaults.
func (l *Library) CreateDeck(name, description string) domain.Deck {
	l.mu.Lock()
	defer l.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultDeckName
	}
	description = strings.TrimSpace(description)
	if description == "" {
		description = DefaultDeckDescription
	}
	color := Palette[len(l.doc.Decks)%len(Palette)]

	deck := domain.NewDeck(l.newID(), name, description, color, l.now())
	l.commit(l.doc.AddDeck(deck))
	l.logger.Info("Deck created", slog.String("deck_id", deck.ID), slog.String("name", deck.Name))
	return deck
}

// DeckPatch lists the deck fields to change; nil fields are left alone.
type DeckPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

// UpdateDeck applies a patch to a deck.
func (l *Library) UpdateDeck(id string, p DeckPatch) (domain.Deck, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	deck, ok := l.doc.Deck(id)
	if !ok {
		return domain.Deck{}, fmt.Errorf("deck %s: %w", id, domain.ErrNotFound)
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return domain.Deck{}, fmt.Errorf("%w: deck name must not be empty", domain.ErrInvalid)
		}
		deck.Name = name
	}
	if p.Description != nil {
		deck.Description = strings.TrimSpace(*p.Description)
	}
	if p.Color != nil {
		deck.Color = *p.Color
	}
	doc, err := l.doc.UpdateDeck(deck)
	if err != nil {
		return domain.Deck{}, err
	}
	l.commit(doc)
	return deck, nil
}

// DeleteDeck removes a deck and all of its cards.
func (l *Library) DeleteDeck(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := len(l.doc.CardsInDeck(id))
	doc, err := l.doc.DeleteDeck(id)
	if err != nil {
		return err
	}
	l.commit(doc)
	l.logger.Info("Deck deleted", slog.String("deck_id", id), slog.Int("cards_removed", removed))
	return nil
}

// AddDrafts accepts drafts into a deck as new cards. Either every draft is
// valid and all are added, or none is.
func (l *Library) AddDrafts(deckID string, drafts []domain.Draft) ([]domain.Card, error) {
	for i, d := range drafts {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("%w: draft %d: %v", domain.ErrInvalid, i, err)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cards := make([]domain.Card, len(drafts))
	for i, d := range drafts {
		cards[i] = domain.NewCard(l.newID(), deckID, d, now)
	}
	doc, err := l.doc.AddCards(cards...)
	if err != nil {
		return nil, err
	}
	l.commit(doc)
	l.logger.Info("Cards added", slog.String("deck_id", deckID), slog.Int("count", len(cards)))
	return cards, nil
}

// Settings returns the user settings.
func (l *Library) Settings() domain.Settings {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.doc.Settings
}

// UpdateSettings replaces the user settings.
func (l *Library) UpdateSettings(s domain.Settings) error {
	if s.DailyTarget <= 0 {
		return fmt.Errorf("%w: daily target must be positive", domain.ErrInvalid)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.commit(l.doc.WithSettings(s))
	return nil
}
