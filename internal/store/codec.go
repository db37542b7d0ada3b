package store

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/conorfennell/flashmind/internal/domain"
)

// Encode renders the document as indented JSON.
func Encode(doc domain.Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return data, nil
}

// Decode parses a document. Missing collections decode as empty ones and
// card ease is floored at domain.MinEase.
func Decode(data []byte) (domain.Document, error) {
	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Document{}, fmt.Errorf("failed to decode document: %w", err)
	}
	if doc.Decks == nil {
		doc.Decks = []domain.Deck{}
	}
	if doc.Cards == nil {
		doc.Cards = []domain.Card{}
	}
	if doc.Logs == nil {
		doc.Logs = []domain.ReviewLog{}
	}
	if doc.Settings.DailyTarget <= 0 {
		doc.Settings.DailyTarget = domain.DefaultDailyTarget
	}
	floorEase(doc.Cards)
	return doc, nil
}

// floorEase raises missing or out-of-range ease factors to domain.MinEase.
func floorEase(cards []domain.Card) {
	for i := range cards {
		cards[i].Ease = math.Max(domain.MinEase, cards[i].Ease)
	}
}

// ExportFileName returns the backup file name for the day of now.
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("flashmind_backup_%s.json", now.UTC().Format(time.DateOnly))
}

// Export writes the document into dir and returns the file path.
func Export(doc domain.Document, dir string, now time.Time) (string, error) {
	data, err := Encode(doc)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, ExportFileName(now))
	if err := writeFileAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// writeFileAtomic writes through a temp file in the same directory so readers
// never observe a half-written document.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".flashmind-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
