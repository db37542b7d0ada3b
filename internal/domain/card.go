package domain

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Initial scheduling values of a freshly created card.
const (
	DefaultEase     = 2.5
	DefaultInterval = 0
)

// MinEase is the lowest ease factor a card may carry.
const MinEase = 1.3

// Card represents a single front/back flashcard with its scheduling fields.
type Card struct {
	ID          string    `json:"id"`
	DeckID      string    `json:"deckId"`
	Front       string    `json:"front"`
	Back        string    `json:"back"`
	Ease        float64   `json:"ease"`
	Interval    int       `json:"interval"` // whole days
	DueDate     time.Time `json:"dueDate"`
	Repetitions int       `json:"repetitions"`
	State       State     `json:"state"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewCard turns an accepted draft into a card of the given deck.
// The card is due immediately.
func NewCard(id, deckID string, d Draft, now time.Time) Card {
	d = d.Normalize()
	return Card{
		ID:          id,
		DeckID:      deckID,
		Front:       d.Front,
		Back:        d.Back,
		Ease:        DefaultEase,
		Interval:    DefaultInterval,
		DueDate:     now,
		Repetitions: 0,
		State:       StateNew,
		Tags:        d.Tags,
		CreatedAt:   now,
	}
}

// Deck groups cards by DeckID.
type Deck struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Color        string    `json:"color"`
	CreatedAt    time.Time `json:"createdAt"`
	LastReviewed time.Time `json:"lastReviewed"` // zero until the first review
}

// NewDeck creates an empty deck.
func NewDeck(id, name, description, color string, now time.Time) Deck {
	return Deck{
		ID:          id,
		Name:        name,
		Description: description,
		Color:       color,
		CreatedAt:   now,
	}
}

// ReviewLog records a single review event for a card.
type ReviewLog struct {
	ID        string    `json:"id"`
	CardID    string    `json:"cardId"`
	Grade     Grade     `json:"grade"`
	Timestamp time.Time `json:"timestamp"`
}

// Draft is a proposed card that has not been accepted into a deck yet.
// Drafts come from the content generator or the markdown importer and are
// untrusted until Validate passes.
type Draft struct {
	Front string   `json:"front" validate:"required"`
	Back  string   `json:"back" validate:"required"`
	Tags  []string `json:"tags" validate:"dive,required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Normalize trims the text fields and drops blank tags.
func (d Draft) Normalize() Draft {
	out := Draft{
		Front: strings.TrimSpace(d.Front),
		Back:  strings.TrimSpace(d.Back),
		Tags:  []string{},
	}
	for _, tag := range d.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out.Tags = append(out.Tags, tag)
		}
	}
	return out
}

// Validate reports whether the normalized draft has a front and a back.
func (d Draft) Validate() error {
	return validate.Struct(d.Normalize())
}
