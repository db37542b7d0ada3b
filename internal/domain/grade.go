package domain

import (
	"encoding"
	"encoding/json"
	"fmt"
)

// Grade is the reviewer's rating of one recall attempt.
type Grade int

const (
	Again Grade = iota + 1 // failed to recall
	Hard                   // recalled with significant difficulty
	Good                   // recalled with some effort
	Easy                   // recalled effortlessly
)

var (
	gradeNames  = [...]string{Again: "again", Hard: "hard", Good: "good", Easy: "easy"}
	gradeByName = map[string]Grade{
		"again": Again,
		"hard":  Hard,
		"good":  Good,
		"easy":  Easy,
	}
)

var (
	_ fmt.Stringer             = Grade(0)
	_ json.Marshaler           = Grade(0)
	_ json.Unmarshaler         = (*Grade)(nil)
	_ encoding.TextMarshaler   = Grade(0)
	_ encoding.TextUnmarshaler = (*Grade)(nil)
)

// Grades lists every valid grade in ascending quality.
var Grades = []Grade{Again, Hard, Good, Easy}

// IsValid reports whether g is Again through Easy.
func (g Grade) IsValid() bool {
	return g >= Again && g <= Easy
}

// String returns the lowercase grade name, or "Grade(n)" for invalid values.
func (g Grade) String() string {
	if g.IsValid() {
		return gradeNames[g]
	}
	return fmt.Sprintf("Grade(%d)", int(g))
}

// ParseGrade parses a grade name ("again", "hard", "good", "easy") or its
// number ("1" through "4").
func ParseGrade(s string) (Grade, error) {
	if g, ok := gradeByName[s]; ok {
		return g, nil
	}
	if len(s) == 1 && s[0] >= '1' && s[0] <= '4' {
		return Grade(s[0] - '0'), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidGrade, s)
}

// MarshalText implements encoding.TextMarshaler.
func (g Grade) MarshalText() ([]byte, error) {
	if !g.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidGrade, int(g))
	}
	return []byte(gradeNames[g]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Grade) UnmarshalText(text []byte) error {
	v, ok := gradeByName[string(text)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidGrade, text)
	}
	*g = v
	return nil
}

// MarshalJSON implements json.Marshaler. Grade serializes as a JSON string.
func (g Grade) MarshalJSON() ([]byte, error) {
	text, err := g.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler.
func (g *Grade) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidGrade, data)
	}
	return g.UnmarshalText([]byte(s))
}
