// Package store persists the collection document.
//
// Loading never fails: a missing or unreadable document is replaced by the
// seed document and the problem is only logged.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/conorfennell/flashmind/internal/domain"
)

// Backend kinds accepted by Open.
const (
	KindJSON   = "json"
	KindSQLite = "sqlite"
)

// Backend loads and saves the whole document.
type Backend interface {
	// Load returns the persisted document, or the seed document when there
	// is nothing usable to load.
	Load(ctx context.Context) domain.Document
	// Save replaces the persisted document.
	Save(ctx context.Context, doc domain.Document) error
	Close() error
}

// Open creates the backend of the given kind at path.
func Open(kind, path string, logger *slog.Logger) (Backend, error) {
	switch kind {
	case KindJSON, "":
		return NewJSONFile(path, logger), nil
	case KindSQLite:
		return OpenSQLite(path, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", kind)
	}
}
