package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-git/v5"
)

// SyncRepo clones the repository at repoURL into dir, or pulls the latest
// changes when dir already holds a clone.
func SyncRepo(ctx context.Context, repoURL, dir string, logger *slog.Logger) error {
	_, err := os.Stat(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Info("Cloning repository", slog.String("url", repoURL), slog.String("dir", dir))
		if _, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{URL: repoURL}); err != nil {
			return fmt.Errorf("clone %s: %w", repoURL, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("stat %s: %w", dir, err)
	}

	logger.Info("Pulling repository", slog.String("dir", dir))
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return fmt.Errorf("open repo %s: %w", dir, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree %s: %w", dir, err)
	}
	err = worktree.PullContext(ctx, &git.PullOptions{RemoteName: git.DefaultRemoteName})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("pull %s: %w", dir, err)
	}
	return nil
}

// IsGitURL reports whether location names a remote repository rather than
// a local path.
func IsGitURL(location string) bool {
	if u, err := url.Parse(location); err == nil {
		switch u.Scheme {
		case "http", "https", "ssh", "git":
			return true
		}
	}
	return strings.HasPrefix(location, "git@") && strings.Contains(location, ":")
}

// RepoPath maps a repository URL to its clone directory under baseDir,
// e.g. https://github.com/a/b.git becomes baseDir/github.com/a/b.
func RepoPath(baseDir, repoURL string) (string, error) {
	if u, err := url.Parse(repoURL); err == nil && u.Host != "" {
		return joinRepoPath(baseDir, repoURL, u.Hostname(), u.Path)
	}

	// scp-like syntax: user@host:owner/repo.git
	userHost, path, ok := strings.Cut(repoURL, ":")
	if !ok {
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}
	_, host, ok := strings.Cut(userHost, "@")
	if !ok {
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}
	return joinRepoPath(baseDir, repoURL, host, path)
}

func joinRepoPath(baseDir, repoURL, host, path string) (string, error) {
	path = strings.Trim(strings.TrimSuffix(path, ".git"), "/")
	if host == "" || path == "" || slices.Contains(strings.Split(path, "/"), "..") {
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}
	return filepath.Join(baseDir, host, filepath.FromSlash(path)), nil
}
