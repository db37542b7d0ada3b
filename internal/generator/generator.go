// Package generator turns free text into draft cards.
package generator

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/flashmind/internal/domain"
)

// ErrGenerate is wrapped by every generation failure. Callers are expected
// to let the user retry; nothing is retried automatically.
var ErrGenerate = errors.New("card generation failed")

// MaxSourceLength is the number of characters of source text sent along.
const MaxSourceLength = 10000

// DefaultCount is the number of cards requested when none is given.
const DefaultCount = 5

// Kind selects the card format.
type Kind string

const (
	KindQA    Kind = "qa"
	KindMCQ   Kind = "mcq"
	KindCloze Kind = "cloze"
)

// Request describes one generation call.
type Request struct {
	Text  string `json:"text" validate:"required"`
	Count int    `json:"count" validate:"min=1,max=50"`
	Kind  Kind   `json:"kind" validate:"oneof=qa mcq cloze"`
}

// Generator produces draft cards from source text.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]domain.Draft, error)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Normalize fills defaults and truncates the source text.
func (r Request) Normalize() Request {
	if r.Count == 0 {
		r.Count = DefaultCount
	}
	if r.Kind == "" {
		r.Kind = KindQA
	}
	if runes := []rune(r.Text); len(runes) > MaxSourceLength {
		r.Text = string(runes[:MaxSourceLength])
	}
	return r
}

// Validate checks a normalized request.
func (r Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalid, err)
	}
	return nil
}

// Prompt returns the instruction sent with the source text.
func (r Request) Prompt() string {
	prompt := fmt.Sprintf("Create %d study flashcards from the following text. ", r.Count)
	switch r.Kind {
	case KindMCQ:
		prompt += "Format them as Multiple Choice Questions in the front, and the correct answer with explanation in the back."
	case KindCloze:
		prompt += "Format them as fill-in-the-blank statements (cloze deletion)."
	default:
		prompt += "Format them as Question and Answer pairs."
	}
	return prompt
}

// keepValid drops drafts without a front or a back.
func keepValid(drafts []domain.Draft) (valid []domain.Draft, dropped int) {
	valid = make([]domain.Draft, 0, len(drafts))
	for _, d := range drafts {
		if d.Validate() != nil {
			dropped++
			continue
		}
		valid = append(valid, d.Normalize())
	}
	return valid, dropped
}
