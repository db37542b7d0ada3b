package domain

import (
	"encoding"
	"encoding/json"
	"fmt"
)

// State is the learning stage of a card.
type State int

const (
	StateNew        State = iota // never reviewed
	StateLearning                // lapsed, waiting to graduate again
	StateReview                  // graduated to day intervals
	StateRelearning              // declared for compatibility, never produced by the scheduler
)

var (
	stateNames  = [...]string{StateNew: "new", StateLearning: "learning", StateReview: "review", StateRelearning: "relearning"}
	stateByName = map[string]State{
		"new":        StateNew,
		"learning":   StateLearning,
		"review":     StateReview,
		"relearning": StateRelearning,
	}
)

var (
	_ fmt.Stringer             = State(0)
	_ json.Marshaler           = State(0)
	_ json.Unmarshaler         = (*State)(nil)
	_ encoding.TextMarshaler   = State(0)
	_ encoding.TextUnmarshaler = (*State)(nil)
)

// IsValid reports whether s is one of the declared states.
func (s State) IsValid() bool {
	return s >= StateNew && s <= StateRelearning
}

// String returns the lowercase state name, or "State(n)" for invalid values.
func (s State) String() string {
	if s.IsValid() {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ParseState parses a lowercase state name.
func ParseState(name string) (State, error) {
	s, ok := stateByName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidState, name)
	}
	return s, nil
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidState, int(s))
	}
	return []byte(stateNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	v, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// MarshalJSON implements json.Marshaler. State serializes as a JSON string.
func (s State) MarshalJSON() ([]byte, error) {
	text, err := s.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *State) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidState, data)
	}
	return s.UnmarshalText([]byte(str))
}
