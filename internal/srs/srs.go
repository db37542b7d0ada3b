// Package srs implements the spaced-repetition scheduler and the due-set
// selector. Both are pure: they take "now" as an argument and never touch
// storage.
package srs

import (
	"math"
	"time"

	"github.com/conorfennell/flashmind/internal/domain"
)

// Day is the length of one interval unit. No calendar or timezone adjustment
// is applied.
const Day = 24 * time.Hour

// Params holds the constants of the SM-2 variant.
type Params struct {
	MinEase            float64 // floor applied whenever ease decreases
	AgainPenalty       float64 // ease decrease on a lapse
	HardPenalty        float64 // ease decrease on Hard
	EasyBonus          float64 // ease increase on Easy
	HardModifier       float64 // interval multiplier on Hard
	EasyModifier       float64 // extra multiplier on top of ease for Easy
	GraduatingInterval int     // days after leaving new/learning
	SecondInterval     int     // days after the second successful review
}

// DefaultParams returns the scheduler constants.
func DefaultParams() *Params {
	return &Params{
		MinEase:            domain.MinEase,
		AgainPenalty:       0.2,
		HardPenalty:        0.15,
		EasyBonus:          0.15,
		HardModifier:       1.2,
		EasyModifier:       1.3,
		GraduatingInterval: 1,
		SecondInterval:     6,
	}
}

// Scheduling is the subset of card fields the scheduler reads and writes.
type Scheduling struct {
	Ease        float64
	Interval    int
	Repetitions int
	State       domain.State
	DueDate     time.Time
}

// SchedulingOf extracts the scheduling fields of a card.
func SchedulingOf(c domain.Card) Scheduling {
	return Scheduling{
		Ease:        c.Ease,
		Interval:    c.Interval,
		Repetitions: c.Repetitions,
		State:       c.State,
		DueDate:     c.DueDate,
	}
}

// Apply copies the scheduling fields onto a card.
func (s Scheduling) Apply(c domain.Card) domain.Card {
	c.Ease = s.Ease
	c.Interval = s.Interval
	c.Repetitions = s.Repetitions
	c.State = s.State
	c.DueDate = s.DueDate
	return c
}

// Next computes the scheduling fields after one review graded g at now.
// Every (current, g) pair has a result; grades outside Again..Easy leave ease
// untouched and use a modifier of 1.
func (p *Params) Next(current Scheduling, g domain.Grade, now time.Time) Scheduling {
	if g == domain.Again {
		return Scheduling{
			Ease:        math.Max(p.MinEase, current.Ease-p.AgainPenalty),
			Interval:    0,
			Repetitions: 0,
			State:       domain.StateLearning,
			DueDate:     now,
		}
	}

	ease := p.nextEase(current.Ease, g)
	next := Scheduling{
		Ease:        ease,
		Repetitions: current.Repetitions + 1,
		State:       current.State,
	}

	switch {
	case current.State == domain.StateNew || current.State == domain.StateLearning:
		next.Interval = p.GraduatingInterval
		next.State = domain.StateReview
	case current.Repetitions == 0:
		next.Interval = p.GraduatingInterval
	case current.Repetitions == 1:
		next.Interval = p.SecondInterval
	default:
		next.Interval = int(math.Ceil(float64(current.Interval) * p.modifier(ease, g)))
	}

	next.DueDate = now.Add(time.Duration(next.Interval) * Day)
	return next
}

// Review returns the card as it is after being graded g at now.
func (p *Params) Review(c domain.Card, g domain.Grade, now time.Time) domain.Card {
	return p.Next(SchedulingOf(c), g, now).Apply(c)
}

func (p *Params) nextEase(ease float64, g domain.Grade) float64 {
	switch g {
	case domain.Hard:
		return math.Max(p.MinEase, ease-p.HardPenalty)
	case domain.Easy:
		return ease + p.EasyBonus
	default:
		return ease
	}
}

func (p *Params) modifier(ease float64, g domain.Grade) float64 {
	switch g {
	case domain.Hard:
		return p.HardModifier
	case domain.Good:
		return ease
	case domain.Easy:
		return ease * p.EasyModifier
	default:
		return 1
	}
}
