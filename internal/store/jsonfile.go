package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/conorfennell/flashmind/internal/domain"
)

// JSONFile keeps the document as a single JSON file.
type JSONFile struct {
	path   string
	logger *slog.Logger
	now    func() time.Time
}

// NewJSONFile returns a backend reading and writing path.
func NewJSONFile(path string, logger *slog.Logger) *JSONFile {
	return &JSONFile{path: path, logger: logger, now: domain.Now}
}

// Path returns the file the document lives in.
func (f *JSONFile) Path() string {
	return f.path
}

// Load reads the document, falling back to the seed document.
func (f *JSONFile) Load(_ context.Context) domain.Document {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			f.logger.Info("No saved document, starting from seed", "path", f.path)
		} else {
			f.logger.Warn("Failed to read document, starting from seed", "path", f.path, "error", err)
		}
		return Seed(f.now())
	}
	doc, err := Decode(data)
	if err != nil {
		f.logger.Warn("Saved document is corrupt, starting from seed", "path", f.path, "error", err)
		return Seed(f.now())
	}
	return doc
}

// Save writes the whole document.
func (f *JSONFile) Save(_ context.Context, doc domain.Document) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create data dir %s: %w", dir, err)
		}
	}
	return writeFileAtomic(f.path, data)
}

// Close is a no-op; the file is not held open.
func (f *JSONFile) Close() error {
	return nil
}
