package source

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/conorfennell/flashmind/internal/domain"
)

// Library is the part of the card library the importer writes through.
type Library interface {
	CardsInDeck(deckID string) ([]domain.Card, error)
	AddDrafts(deckID string, drafts []domain.Draft) ([]domain.Card, error)
}

// SyncFunc brings a remote repository up to date in a local directory.
type SyncFunc func(ctx context.Context, repoURL, dir string, logger *slog.Logger) error

// Report summarizes one import run.
type Report struct {
	Location string   `json:"location"`
	Files    int      `json:"files"`
	Parsed   int      `json:"parsed"`
	Added    int      `json:"added"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

// Importer adds the cards found in markdown sources to decks.
type Importer struct {
	lib      Library
	reposDir string
	logger   *slog.Logger
	sync     SyncFunc
}

// NewImporter returns an importer that clones remote sources below reposDir.
func NewImporter(lib Library, reposDir string, logger *slog.Logger) *Importer {
	return &Importer{lib: lib, reposDir: reposDir, logger: logger, sync: SyncRepo}
}

// WithSync replaces the repository sync step.
func (im *Importer) WithSync(fn SyncFunc) *Importer {
	im.sync = fn
	return im
}

// Import reads every markdown file at location, a local file, a local
// directory or a git URL, and adds the cards not already in the deck.
// Cards are matched on their content hash, so importing the same source
// twice adds nothing. Unreadable files and invalid cards are reported, not
// fatal.
func (im *Importer) Import(ctx context.Context, deckID, location string) (Report, error) {
	report := Report{Location: location, Errors: []string{}}

	existing, err := im.lib.CardsInDeck(deckID)
	if err != nil {
		return report, err
	}
	seen := make(map[string]bool, len(existing))
	for _, c := range existing {
		seen[Hash(c.Front, c.Back)] = true
	}

	root, err := im.resolve(ctx, location)
	if err != nil {
		return report, err
	}

	var drafts []domain.Draft
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !isMarkdown(path) {
			return nil
		}

		report.Files++
		fileDrafts, parseErr := ParseFile(path)
		if parseErr != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("parsing %s: %v", path, parseErr))
			return nil
		}
		for _, draft := range fileDrafts {
			report.Parsed++
			if err := draft.Validate(); err != nil {
				report.Skipped++
				report.Errors = append(report.Errors, fmt.Sprintf("%s: card %q: missing front or back", path, draft.Front))
				continue
			}
			draft = draft.Normalize()
			hash := Hash(draft.Front, draft.Back)
			if seen[hash] {
				report.Skipped++
				continue
			}
			seen[hash] = true
			drafts = append(drafts, draft)
		}
		return nil
	})
	if walkErr != nil {
		return report, fmt.Errorf("walking %s: %w", root, walkErr)
	}

	if len(drafts) > 0 {
		added, err := im.lib.AddDrafts(deckID, drafts)
		if err != nil {
			return report, err
		}
		report.Added = len(added)
	}

	im.logger.Info("Import complete",
		slog.String("deck_id", deckID),
		slog.String("location", location),
		slog.Int("files", report.Files),
		slog.Int("parsed", report.Parsed),
		slog.Int("added", report.Added),
		slog.Int("skipped", report.Skipped),
		slog.Int("errors", len(report.Errors)),
	)
	return report, nil
}

// resolve returns the local path to walk for location, syncing it first
// when it is a git URL.
func (im *Importer) resolve(ctx context.Context, location string) (string, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", fmt.Errorf("%w: empty source location", domain.ErrInvalid)
	}

	if IsGitURL(location) {
		dir, err := RepoPath(im.reposDir, location)
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrInvalid, err)
		}
		if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
			return "", fmt.Errorf("creating repos dir: %w", err)
		}
		if err := im.sync(ctx, location, dir, im.logger); err != nil {
			return "", err
		}
		return dir, nil
	}

	if _, err := os.Stat(location); err != nil {
		return "", fmt.Errorf("%w: source %s: %v", domain.ErrInvalid, location, err)
	}
	return location, nil
}

func isMarkdown(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".md")
}
