package srs

import (
	"slices"
	"time"

	"github.com/conorfennell/flashmind/internal/domain"
)

// Due returns the cards whose due date is at or before now, earliest first.
// An empty deckID selects across all decks. Cards due at the same instant
// keep their relative order from the input.
func Due(cards []domain.Card, deckID string, now time.Time) []domain.Card {
	out := []domain.Card{}
	for _, c := range cards {
		if deckID != "" && c.DeckID != deckID {
			continue
		}
		if !c.DueDate.After(now) {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.Card) int {
		return a.DueDate.Compare(b.DueDate)
	})
	return out
}

// IsDue reports whether c is due at now.
func IsDue(c domain.Card, now time.Time) bool {
	return !c.DueDate.After(now)
}
