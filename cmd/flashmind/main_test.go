package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// runCLI runs the command line against a data file in dir.
func runCLI(t *testing.T, dir, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	args = append([]string{"--data", filepath.Join(dir, "flashmind.json"), "--log-level", "error"}, args...)
	err := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), err
}

func TestDecksCommand(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "", "decks")
	if err != nil {
		t.Fatalf("decks: %v", err)
	}
	if !strings.Contains(out, "default-deck-1") || !strings.Contains(out, "General Knowledge") {
		t.Errorf("Expected the seed deck in the listing, but got:\n%s", out)
	}
}

func TestReviewCommand(t *testing.T) {
	dir := t.TempDir()

	out, err := runCLI(t, dir, "", "due")
	if err != nil {
		t.Fatalf("due: %v", err)
	}
	if !strings.Contains(out, "What is the capital of France?") {
		t.Errorf("Expected the seed card to be due, but got:\n%s", out)
	}

	// Enter flips, "x" is not a grade and is asked again, 3 grades good.
	out, err = runCLI(t, dir, "\nx\n3\n", "review", "--deck", "default-deck-1")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	for _, want := range []string{"[1/1] What is the capital of France?", "Paris", "Next review in 1 day(s).", "Session complete: 1 review(s)."} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected review output to contain %q, but got:\n%s", want, out)
		}
	}

	out, err = runCLI(t, dir, "", "due")
	if err != nil {
		t.Fatalf("due: %v", err)
	}
	if !strings.Contains(out, "All caught up") {
		t.Errorf("Expected nothing due after the review, but got:\n%s", out)
	}

	out, err = runCLI(t, dir, "", "stats")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(out, "Total reviews") || !strings.Contains(out, "1 / 20") {
		t.Errorf("Unexpected stats output:\n%s", out)
	}
}

func TestReviewQuitKeepsGrades(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, dir, "q\n", "review")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if strings.Contains(out, "Session complete") {
		t.Errorf("Expected the session to stop early, but got:\n%s", out)
	}
}

func TestImportAndExportCommands(t *testing.T) {
	dir := t.TempDir()
	notes := filepath.Join(dir, "notes")
	if err := os.MkdirAll(notes, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(notes, "go.md"), []byte("Q: Zero value of a map?\nA: nil\nT: go"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, dir, "", "import", "default-deck-1", notes)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "1 added") {
		t.Errorf("Unexpected import output: %s", out)
	}

	backups := filepath.Join(dir, "backups")
	out, err = runCLI(t, dir, "", "export", backups)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(backups, "flashmind_backup_*.json"))
	if len(matches) != 1 || !strings.Contains(out, matches[0]) {
		t.Errorf("Expected one backup file, but got %v (%s)", matches, out)
	}
}

func TestUsageErrors(t *testing.T) {
	testCases := [][]string{
		{"frobnicate"},
		{"import", "only-deck"},
	}
	for _, args := range testCases {
		if _, err := runCLI(t, t.TempDir(), "", args...); !errors.Is(err, errUsage) {
			t.Errorf("%v: expected errUsage, but got %v", args, err)
		}
	}

	if _, err := runCLI(t, t.TempDir(), "", "due", "--deck", "missing"); err == nil {
		t.Error("Expected an unknown deck to fail")
	}
	if _, err := runCLI(t, t.TempDir(), "", "--backend", "mongo", "decks"); err == nil {
		t.Error("Expected an invalid backend to fail validation")
	}
}
