// Package source imports cards from markdown files kept in a local
// directory or a git repository.
package source

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/flashmind/internal/domain"
)

const (
	frontPrefix = "Q:"
	backPrefix  = "A:"
	tagsPrefix  = "T:"
	separator   = "---"
)

type field int

const (
	seeking field = iota
	readingFront
	readingBack
	readingTags
)

// ParseFile reads the markdown file at path and extracts its cards.
func ParseFile(path string) ([]domain.Draft, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse extracts cards from markdown. A card starts with a "Q:" line,
// followed by "A:" and optionally "T:" (comma separated tags). Values may
// span several lines. A "---" line or the next "Q:" ends the card. Blocks
// without a front are dropped; blocks without a back are kept and left to
// Draft validation.
func Parse(r io.Reader) ([]domain.Draft, error) {
	scanner := bufio.NewScanner(r)
	var (
		drafts  []domain.Draft
		current domain.Draft
		block   []string
		state   = seeking
	)

	flush := func() {
		if len(block) == 0 {
			return
		}
		content := strings.TrimSpace(strings.Join(block, "\n"))
		switch state {
		case readingFront:
			current.Front = content
		case readingBack:
			current.Back = content
		case readingTags:
			current.Tags = splitTags(content)
		}
		block = nil
	}

	finish := func() {
		flush()
		if strings.TrimSpace(current.Front) != "" {
			drafts = append(drafts, current)
		}
		current = domain.Draft{}
		state = seeking
	}

	for scanner.Scan() {
		line := scanner.Text()

		if strings.TrimSpace(line) == separator {
			finish()
			continue
		}

		next, rest, ok := cutPrefix(line)
		if !ok {
			if state != seeking {
				block = append(block, line)
			}
			continue
		}

		if next == readingFront && state != seeking {
			finish()
		} else {
			flush()
		}
		state = next
		block = append(block, rest)
	}
	finish()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return drafts, nil
}

// cutPrefix reports which field line starts and the value after the prefix
// and one optional space.
func cutPrefix(line string) (field, string, bool) {
	for prefix, f := range map[string]field{
		frontPrefix: readingFront,
		backPrefix:  readingBack,
		tagsPrefix:  readingTags,
	} {
		if rest, ok := strings.CutPrefix(line, prefix); ok {
			return f, strings.TrimPrefix(rest, " "), true
		}
	}
	return seeking, "", false
}

func splitTags(s string) []string {
	tags := []string{}
	for _, tag := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' }) {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
