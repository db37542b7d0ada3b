package domain

import (
	"fmt"
	"slices"
	"time"
)

// DefaultDailyTarget is the number of reviews per day the stats compare against.
const DefaultDailyTarget = 20

// Settings holds user preferences stored alongside the collection.
type Settings struct {
	DarkMode    bool `json:"darkMode"`
	DailyTarget int  `json:"dailyTarget"`
}

// Document is the whole persisted collection.
//
// Methods never modify the receiver: every update returns a new Document
// whose slices are fresh copies, so a Document handed to a reader stays
// valid while the owner keeps changing its own.
type Document struct {
	Decks    []Deck      `json:"decks"`
	Cards    []Card      `json:"cards"`
	Logs     []ReviewLog `json:"logs"`
	Settings Settings    `json:"settings"`
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	out := Document{
		Decks:    slices.Clone(d.Decks),
		Cards:    make([]Card, len(d.Cards)),
		Logs:     slices.Clone(d.Logs),
		Settings: d.Settings,
	}
	for i, c := range d.Cards {
		c.Tags = slices.Clone(c.Tags)
		out.Cards[i] = c
	}
	if out.Decks == nil {
		out.Decks = []Deck{}
	}
	if out.Logs == nil {
		out.Logs = []ReviewLog{}
	}
	return out
}

// Deck looks up a deck by id.
func (d Document) Deck(id string) (Deck, bool) {
	i := slices.IndexFunc(d.Decks, func(dk Deck) bool { return dk.ID == id })
	if i < 0 {
		return Deck{}, false
	}
	return d.Decks[i], true
}

// Card looks up a card by id.
func (d Document) Card(id string) (Card, bool) {
	i := slices.IndexFunc(d.Cards, func(c Card) bool { return c.ID == id })
	if i < 0 {
		return Card{}, false
	}
	return d.Cards[i], true
}

// CardsInDeck returns the cards owned by deckID in insertion order.
func (d Document) CardsInDeck(deckID string) []Card {
	out := []Card{}
	for _, c := range d.Cards {
		if c.DeckID == deckID {
			out = append(out, c)
		}
	}
	return out
}

// AddDeck appends a deck.
func (d Document) AddDeck(deck Deck) Document {
	out := d.Clone()
	out.Decks = append(out.Decks, deck)
	return out
}

// UpdateDeck replaces the deck with the same id.
func (d Document) UpdateDeck(deck Deck) (Document, error) {
	out := d.Clone()
	i := slices.IndexFunc(out.Decks, func(dk Deck) bool { return dk.ID == deck.ID })
	if i < 0 {
		return d, fmt.Errorf("deck %s: %w", deck.ID, ErrNotFound)
	}
	out.Decks[i] = deck
	return out, nil
}

// DeleteDeck removes a deck together with all of its cards.
// Review logs are append-only and are kept.
func (d Document) DeleteDeck(id string) (Document, error) {
	if _, ok := d.Deck(id); !ok {
		return d, fmt.Errorf("deck %s: %w", id, ErrNotFound)
	}
	out := d.Clone()
	out.Decks = slices.DeleteFunc(out.Decks, func(dk Deck) bool { return dk.ID == id })
	out.Cards = slices.DeleteFunc(out.Cards, func(c Card) bool { return c.DeckID == id })
	return out, nil
}

// AddCards appends cards. Every card must belong to an existing deck.
func (d Document) AddCards(cards ...Card) (Document, error) {
	for _, c := range cards {
		if _, ok := d.Deck(c.DeckID); !ok {
			return d, fmt.Errorf("deck %s: %w", c.DeckID, ErrNotFound)
		}
	}
	out := d.Clone()
	out.Cards = append(out.Cards, cards...)
	return out, nil
}

// ReplaceCard swaps in an updated card with the same id.
func (d Document) ReplaceCard(card Card) (Document, error) {
	out := d.Clone()
	i := slices.IndexFunc(out.Cards, func(c Card) bool { return c.ID == card.ID })
	if i < 0 {
		return d, fmt.Errorf("card %s: %w", card.ID, ErrNotFound)
	}
	out.Cards[i] = card
	return out, nil
}

// AppendLog records a review event and stamps the reviewed card's deck.
func (d Document) AppendLog(log ReviewLog) Document {
	out := d.Clone()
	out.Logs = append(out.Logs, log)
	if c, ok := out.Card(log.CardID); ok {
		for i := range out.Decks {
			if out.Decks[i].ID == c.DeckID && log.Timestamp.After(out.Decks[i].LastReviewed) {
				out.Decks[i].LastReviewed = log.Timestamp
			}
		}
	}
	return out
}

// WithSettings replaces the settings.
func (d Document) WithSettings(s Settings) Document {
	out := d.Clone()
	out.Settings = s
	return out
}

// LogsSince returns the logs recorded at or after t.
func (d Document) LogsSince(t time.Time) []ReviewLog {
	out := []ReviewLog{}
	for _, l := range d.Logs {
		if !l.Timestamp.Before(t) {
			out = append(out, l)
		}
	}
	return out
}
