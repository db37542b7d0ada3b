package source

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for a burst of file events
// to settle before re-importing.
const DefaultDebounce = 500 * time.Millisecond

// Source binds a local markdown path to the deck its cards go to.
type Source struct {
	DeckID string
	Path   string
}

// ImportCallback is called after each watcher-driven import.
type ImportCallback func(src Source, report Report, err error)

// Watch re-imports a source whenever a markdown file below it is created,
// written or renamed, until ctx is cancelled. Git sources are skipped; they
// are only refreshed by an explicit import.
func Watch(ctx context.Context, im *Importer, sources []Source, debounce time.Duration, logger *slog.Logger, cb ImportCallback) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	var local []Source
	for _, src := range sources {
		if IsGitURL(src.Path) {
			logger.Debug("watcher: skipping git source", slog.String("url", src.Path))
			continue
		}
		abs, err := filepath.Abs(src.Path)
		if err != nil {
			return err
		}
		src.Path = abs
		if err := watchSource(w, abs); err != nil {
			logger.Warn("watcher: cannot watch source",
				slog.String("path", abs),
				slog.String("error", err.Error()))
			continue
		}
		local = append(local, src)
	}
	logger.Info("watcher: started", slog.Int("sources", len(local)))

	pending := make(map[int]bool)
	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info("watcher: stopped")
			return nil

		case <-timer.C:
			for i := range pending {
				src := local[i]
				report, err := im.Import(ctx, src.DeckID, src.Path)
				if err != nil {
					logger.Warn("watcher: import failed",
						slog.String("path", src.Path),
						slog.String("error", err.Error()))
				}
				if cb != nil {
					cb(src, report, err)
				}
			}
			clear(pending)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					continue
				}
			}
			if !isMarkdown(ev.Name) || ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}

			matched := false
			for i, src := range local {
				if contains(src.Path, ev.Name) {
					pending[i] = true
					matched = true
				}
			}
			if matched {
				logger.Debug("watcher: change", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
				timer.Reset(debounce)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// watchSource watches a source directory recursively, or the directory
// holding a single-file source.
func watchSource(w *fsnotify.Watcher, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return w.Add(filepath.Dir(path))
	}
	return addDirsRecursive(w, path)
}

// addDirsRecursive adds root and all its subdirectories, .git excluded.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}

// contains reports whether name is root itself or lies below it.
func contains(root, name string) bool {
	if name == root {
		return true
	}
	rel, err := filepath.Rel(root, name)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
