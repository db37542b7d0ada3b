// Package stats summarizes review activity and deck progress.
package stats

import (
	"time"

	"github.com/conorfennell/flashmind/internal/domain"
	"github.com/conorfennell/flashmind/internal/srs"
)

// MatureInterval is the interval, in days, above which a review card counts
// as mature.
const MatureInterval = 21

// DefaultDays is the length of the daily activity window.
const DefaultDays = 7

// DeckCounts is the per-deck breakdown shown next to a deck.
type DeckCounts struct {
	New      int     `json:"new"`
	Learning int     `json:"learning"`
	Review   int     `json:"review"`
	Total    int     `json:"total"`
	Due      int     `json:"due"`
	Progress float64 `json:"progress"` // percent of cards seen at least once
}

// CountDeck tallies the cards of deckID by state.
func CountDeck(cards []domain.Card, deckID string, now time.Time) DeckCounts {
	var dc DeckCounts
	for _, c := range cards {
		if c.DeckID != deckID {
			continue
		}
		dc.Total++
		switch c.State {
		case domain.StateNew:
			dc.New++
		case domain.StateLearning, domain.StateRelearning:
			dc.Learning++
		case domain.StateReview:
			dc.Review++
		}
		if srs.IsDue(c, now) {
			dc.Due++
		}
	}
	if dc.Total > 0 {
		dc.Progress = float64(dc.Total-dc.New) / float64(dc.Total) * 100
	}
	return dc
}

// DailyStat is the number of reviews on one UTC day.
type DailyStat struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// Summary is the collection-wide statistics view.
type Summary struct {
	TotalReviews int         `json:"totalReviews"`
	Learning     int         `json:"learning"` // cards not in the review state
	Young        int         `json:"young"`
	Mature       int         `json:"mature"`
	Due          int         `json:"due"`
	Today        int         `json:"today"`
	DailyTarget  int         `json:"dailyTarget"`
	Daily        []DailyStat `json:"daily"`
}

// Summarize computes the statistics of doc as of now over the last days
// UTC days, today included. days <= 0 selects DefaultDays.
func Summarize(doc domain.Document, now time.Time, days int) Summary {
	if days <= 0 {
		days = DefaultDays
	}
	s := Summary{
		TotalReviews: len(doc.Logs),
		DailyTarget:  doc.Settings.DailyTarget,
		Daily:        make([]DailyStat, days),
	}

	for _, c := range doc.Cards {
		switch {
		case c.State == domain.StateNew || c.State == domain.StateLearning || c.State == domain.StateRelearning:
			s.Learning++
		case c.State == domain.StateReview && c.Interval > MatureInterval:
			s.Mature++
		case c.State == domain.StateReview:
			s.Young++
		}
		if srs.IsDue(c, now) {
			s.Due++
		}
	}

	today := now.UTC().Format(time.DateOnly)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		date := now.UTC().AddDate(0, 0, i-(days-1)).Format(time.DateOnly)
		s.Daily[i] = DailyStat{Date: date}
		index[date] = i
	}
	for _, l := range doc.Logs {
		date := l.Timestamp.UTC().Format(time.DateOnly)
		if i, ok := index[date]; ok {
			s.Daily[i].Count++
		}
		if date == today {
			s.Today++
		}
	}
	return s
}
