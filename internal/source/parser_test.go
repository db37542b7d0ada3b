package source

import (
	"reflect"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name          string
		input         string
		expectedCards int
		expectedFront string
		expectedBack  string
		expectedTags  []string
	}{
		{
			name:          "Simple Q&A",
			input:         "Q: What is the capital of France?\nA: Paris",
			expectedCards: 1,
			expectedFront: "What is the capital of France?",
			expectedBack:  "Paris",
		},
		{
			name:          "Tags",
			input:         "Q: What is 1+1?\nA: 2\nT: math, arithmetic",
			expectedCards: 1,
			expectedFront: "What is 1+1?",
			expectedBack:  "2",
			expectedTags:  []string{"math", "arithmetic"},
		},
		{
			name: "Multiline back",
			input: `
Q: What are the primary colors?
A: Red
Blue
Yellow
`,
			expectedCards: 1,
			expectedFront: "What are the primary colors?",
			expectedBack:  "Red\nBlue\nYellow",
		},
		{
			name: "Two cards",
			input: `
Q: First question
A: First answer

Q: Second question
A: Second answer
`,
			expectedCards: 2,
		},
		{
			name: "Separator ends a card",
			input: `Q: First
A: One
---
Notes between cards are ignored.
---
Q: Second
A: Two`,
			expectedCards: 2,
		},
		{
			name:          "No cards, just text",
			input:         "This is a file with no questions.",
			expectedCards: 0,
		},
		{
			name:          "Answer without question is dropped",
			input:         "A: orphan answer\nT: lost",
			expectedCards: 0,
		},
		{
			name:          "Question without answer is kept",
			input:         "Q: Unanswered",
			expectedCards: 1,
			expectedFront: "Unanswered",
		},
		{
			name:          "Prefixes with no space",
			input:         "Q:Question\nA:Answer",
			expectedCards: 1,
			expectedFront: "Question",
			expectedBack:  "Answer",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			drafts, err := Parse(strings.NewReader(tc.input))
			if err != nil {
				t.Fatalf("Parse() returned an unexpected error: %v", err)
			}
			if len(drafts) != tc.expectedCards {
				t.Fatalf("Expected %d cards, but got %d", tc.expectedCards, len(drafts))
			}
			if tc.expectedCards != 1 {
				return
			}
			d := drafts[0]
			if d.Front != tc.expectedFront {
				t.Errorf("Expected Front to be '%s', but got '%s'", tc.expectedFront, d.Front)
			}
			if d.Back != tc.expectedBack {
				t.Errorf("Expected Back to be '%s', but got '%s'", tc.expectedBack, d.Back)
			}
			if tc.expectedTags != nil && !reflect.DeepEqual(d.Tags, tc.expectedTags) {
				t.Errorf("Expected Tags to be %v, but got %v", tc.expectedTags, d.Tags)
			}
		})
	}
}

func TestParseSecondCardFields(t *testing.T) {
	drafts, err := Parse(strings.NewReader("Q: one\nA: 1\nQ: two\nA: 2\nT: numbers"))
	if err != nil {
		t.Fatal(err)
	}
	if len(drafts) != 2 {
		t.Fatalf("Expected 2 cards, but got %d", len(drafts))
	}
	if drafts[0].Tags != nil {
		t.Errorf("Expected first card to have no tags, but got %v", drafts[0].Tags)
	}
	if drafts[1].Front != "two" || drafts[1].Back != "2" || !reflect.DeepEqual(drafts[1].Tags, []string{"numbers"}) {
		t.Errorf("Unexpected second card %+v", drafts[1])
	}
}
