package source

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Normalize joins the front and back of a card after lowercasing, trimming
// and normalizing line endings, so cosmetic edits do not change identity.
func Normalize(front, back string) string {
	part := func(s string) string {
		s = strings.ToLower(s)
		s = strings.ReplaceAll(s, "\r\n", "\n")
		return strings.TrimSpace(s)
	}
	// Newline keeps "ab"+"c" and "a"+"bc" apart.
	return part(front) + "\n" + part(back)
}

// Hash returns the hex SHA-256 of the normalized card content.
func Hash(front, back string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(Normalize(front, back))))
}
