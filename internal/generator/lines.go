package generator

import (
	"bufio"
	"context"
	"strings"

	"github.com/conorfennell/flashmind/internal/domain"
)

// lineSeparators split a glossary line into front and back, first match wins.
var lineSeparators = []string{"::", " - ", ": "}

// Lines builds drafts offline from glossary-style text, one
// "term: definition" (or "term :: definition", "term - definition") per line.
// Lines without a separator are skipped.
type Lines struct{}

// Generate returns up to req.Count drafts in source order.
func (Lines) Generate(_ context.Context, req Request) ([]domain.Draft, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	drafts := []domain.Draft{}
	scanner := bufio.NewScanner(strings.NewReader(req.Text))
	for scanner.Scan() && len(drafts) < req.Count {
		line := strings.TrimSpace(scanner.Text())
		line = strings.TrimLeft(line, "-*• ")
		for _, sep := range lineSeparators {
			front, back, ok := strings.Cut(line, sep)
			if !ok {
				continue
			}
			d := domain.Draft{Front: front, Back: back}
			if req.Kind == KindCloze {
				d = domain.Draft{Front: "____: " + strings.TrimSpace(back), Back: front}
			}
			if d.Validate() == nil {
				drafts = append(drafts, d.Normalize())
			}
			break
		}
	}
	return drafts, nil
}
