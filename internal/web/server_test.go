package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/conorfennell/flashmind/internal/domain"
	"github.com/conorfennell/flashmind/internal/generator"
	"github.com/conorfennell/flashmind/internal/library"
	"github.com/conorfennell/flashmind/internal/source"
	"github.com/conorfennell/flashmind/internal/store"
)

const seedDeck = "default-deck-1"

type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, generator.Request) ([]domain.Draft, error) {
	return nil, fmt.Errorf("%w: upstream unavailable", generator.ErrGenerate)
}

// testServer serves a library opened on an empty data file, so it starts
// from the seed deck. The clock runs a minute ahead so the seed card is due.
func testServer(t *testing.T, gen generator.Generator) (*Server, *library.Library) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := store.NewJSONFile(filepath.Join(t.TempDir(), "flashmind.json"), logger)
	lib := library.Open(context.Background(), backend, logger)
	now := domain.Now().Add(time.Minute)
	srv := NewServer(lib, gen, source.NewImporter(lib, t.TempDir(), logger), logger,
		WithClock(func() time.Time { return now }))
	return srv, lib
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	srv, _ := testServer(t, generator.Lines{})
	w := do(t, srv, http.MethodGet, "/health/live", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("health: status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestDeckLifecycle(t *testing.T) {
	srv, _ := testServer(t, generator.Lines{})

	w := do(t, srv, http.MethodGet, "/api/decks", nil)
	list := decodeBody[struct{ Decks []deckView }](t, w)
	if len(list.Decks) != 1 || list.Decks[0].ID != seedDeck || list.Decks[0].Counts.Total != 1 || list.Decks[0].Counts.Due != 1 {
		t.Fatalf("Expected the seed deck with one due card, but got %+v", list.Decks)
	}

	w = do(t, srv, http.MethodPost, "/api/decks", map[string]string{"name": "Go"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	deck := decodeBody[domain.Deck](t, w)

	w = do(t, srv, http.MethodPatch, "/api/decks/"+deck.ID, map[string]string{"name": "Golang"})
	if w.Code != http.StatusOK || decodeBody[domain.Deck](t, w).Name != "Golang" {
		t.Errorf("patch status = %d, body = %s", w.Code, w.Body.String())
	}
	if w = do(t, srv, http.MethodPatch, "/api/decks/"+deck.ID, map[string]string{"name": "  "}); w.Code != http.StatusBadRequest {
		t.Errorf("Expected blank name to be rejected, but got %d", w.Code)
	}

	w = do(t, srv, http.MethodPost, "/api/decks/"+deck.ID+"/cards", map[string]any{
		"cards": []domain.Draft{{Front: "Zero value of int?", Back: "0"}, {Front: "Start a goroutine?", Back: "go"}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("add cards status = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(t, srv, http.MethodGet, "/api/decks/"+deck.ID+"/cards", nil)
	if cards := decodeBody[struct{ Cards []domain.Card }](t, w).Cards; len(cards) != 2 {
		t.Errorf("Expected 2 cards, but got %d", len(cards))
	}

	w = do(t, srv, http.MethodGet, "/api/due", nil)
	if cards := decodeBody[struct{ Cards []domain.Card }](t, w).Cards; len(cards) != 3 {
		t.Errorf("Expected 3 due cards across decks, but got %d", len(cards))
	}
	w = do(t, srv, http.MethodGet, "/api/decks/"+deck.ID+"/due", nil)
	if cards := decodeBody[struct{ Cards []domain.Card }](t, w).Cards; len(cards) != 2 {
		t.Errorf("Expected 2 due cards in deck, but got %d", len(cards))
	}

	if w = do(t, srv, http.MethodDelete, "/api/decks/"+deck.ID, nil); w.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", w.Code)
	}
	if w = do(t, srv, http.MethodGet, "/api/decks/"+deck.ID+"/cards", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, but got %d", w.Code)
	}
	if w = do(t, srv, http.MethodDelete, "/api/decks/"+deck.ID, nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 deleting twice, but got %d", w.Code)
	}
}

func TestAddCardsRejectsBadInput(t *testing.T) {
	srv, lib := testServer(t, generator.Lines{})
	testCases := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{"invalid draft", "/api/decks/" + seedDeck + "/cards", map[string]any{"cards": []domain.Draft{{Front: "ok", Back: "ok"}, {Front: "no back"}}}, http.StatusBadRequest},
		{"no cards", "/api/decks/" + seedDeck + "/cards", map[string]any{"cards": []domain.Draft{}}, http.StatusBadRequest},
		{"unknown deck", "/api/decks/nope/cards", map[string]any{"cards": []domain.Draft{{Front: "q", Back: "a"}}}, http.StatusNotFound},
		{"not json", "/api/decks/" + seedDeck + "/cards", "{", http.StatusBadRequest},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if w := do(t, srv, http.MethodPost, tc.path, tc.body); w.Code != tc.status {
				t.Errorf("Expected %d, but got %d: %s", tc.status, w.Code, w.Body.String())
			}
		})
	}
	if n := len(lib.Cards()); n != 1 {
		t.Errorf("Expected rejected batches to add nothing, but have %d cards", n)
	}
}

func TestReviewSession(t *testing.T) {
	srv, lib := testServer(t, generator.Lines{})

	if w := do(t, srv, http.MethodPost, "/api/sessions", map[string]string{"deckId": "nope"}); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for an unknown deck, but got %d", w.Code)
	}

	w := do(t, srv, http.MethodPost, "/api/sessions", map[string]string{"deckId": seedDeck})
	if w.Code != http.StatusCreated {
		t.Fatalf("start status = %d, body = %s", w.Code, w.Body.String())
	}
	sess := decodeBody[sessionView](t, w)
	if sess.Card == nil || sess.Card.ID != "c1" || sess.Total != 1 || sess.Finished {
		t.Fatalf("Unexpected session %+v", sess)
	}
	base := "/api/sessions/" + sess.ID

	for _, bad := range []any{map[string]any{"grade": 7}, map[string]any{"grade": "meh"}, map[string]any{}} {
		if w := do(t, srv, http.MethodPost, base+"/grade", bad); w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for %v, but got %d", bad, w.Code)
		}
	}

	w = do(t, srv, http.MethodPost, base+"/grade", map[string]any{"grade": "again"})
	if w.Code != http.StatusOK {
		t.Fatalf("grade status = %d, body = %s", w.Code, w.Body.String())
	}
	out := decodeBody[struct {
		Card     domain.Card
		Requeued bool
		Session  sessionView
	}](t, w)
	if !out.Requeued || out.Session.Finished || out.Session.Total != 2 || out.Card.State != domain.StateLearning {
		t.Errorf("Expected the lapsed card to be requeued, but got %+v", out)
	}

	w = do(t, srv, http.MethodPost, base+"/grade", map[string]any{"grade": 3})
	out = decodeBody[struct {
		Card     domain.Card
		Requeued bool
		Session  sessionView
	}](t, w)
	if !out.Session.Finished || out.Card.State != domain.StateReview || out.Card.Interval != 1 {
		t.Errorf("Expected the session to finish with a graduated card, but got %+v", out)
	}

	if w = do(t, srv, http.MethodPost, base+"/grade", map[string]any{"grade": 3}); w.Code != http.StatusConflict {
		t.Errorf("Expected 409 after the session finished, but got %d", w.Code)
	}
	if w = do(t, srv, http.MethodGet, base, nil); w.Code != http.StatusOK || !decodeBody[sessionView](t, w).Finished {
		t.Errorf("Expected finished session view, but got %d %s", w.Code, w.Body.String())
	}
	if n := len(lib.Snapshot().Logs); n != 2 {
		t.Errorf("Expected 2 review logs, but got %d", n)
	}

	if w = do(t, srv, http.MethodDelete, base, nil); w.Code != http.StatusNoContent {
		t.Errorf("end status = %d", w.Code)
	}
	if w = do(t, srv, http.MethodGet, base, nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after ending, but got %d", w.Code)
	}

	w = do(t, srv, http.MethodGet, "/api/stats", nil)
	summary := decodeBody[struct {
		TotalReviews int
		Today        int
		Daily        []struct{ Count int }
	}](t, w)
	if summary.TotalReviews != 2 || summary.Today != 2 || len(summary.Daily) != 7 {
		t.Errorf("Unexpected stats %+v", summary)
	}
}

func TestGradeAfterDeckDeleted(t *testing.T) {
	srv, lib := testServer(t, generator.Lines{})

	w := do(t, srv, http.MethodPost, "/api/sessions", map[string]string{"deckId": seedDeck})
	if w.Code != http.StatusCreated {
		t.Fatalf("start status = %d, body = %s", w.Code, w.Body.String())
	}
	sess := decodeBody[sessionView](t, w)

	if w = do(t, srv, http.MethodDelete, "/api/decks/"+seedDeck, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}

	w = do(t, srv, http.MethodPost, "/api/sessions/"+sess.ID+"/grade", map[string]any{"grade": "good"})
	if w.Code != http.StatusOK {
		t.Fatalf("grade status = %d, body = %s", w.Code, w.Body.String())
	}
	out := decodeBody[struct {
		Skipped bool
		Session sessionView
	}](t, w)
	if !out.Skipped || !out.Session.Finished {
		t.Errorf("Expected the vanished card to be skipped and the session to finish, but got %+v", out)
	}
	if n := len(lib.Snapshot().Logs); n != 0 {
		t.Errorf("Expected no review logs, but got %d", n)
	}
}

func TestGenerate(t *testing.T) {
	srv, _ := testServer(t, generator.Lines{})
	path := "/api/decks/" + seedDeck + "/generate"

	w := do(t, srv, http.MethodPost, path, map[string]any{"text": "Goroutine: a lightweight thread\nChannel: a typed conduit", "count": 5})
	if w.Code != http.StatusOK {
		t.Fatalf("generate status = %d, body = %s", w.Code, w.Body.String())
	}
	if drafts := decodeBody[struct{ Drafts []domain.Draft }](t, w).Drafts; len(drafts) != 2 {
		t.Errorf("Expected 2 drafts, but got %+v", drafts)
	}

	if w = do(t, srv, http.MethodPost, path, map[string]any{"text": ""}); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty text, but got %d", w.Code)
	}
	if w = do(t, srv, http.MethodPost, "/api/decks/nope/generate", map[string]any{"text": "x: y"}); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for an unknown deck, but got %d", w.Code)
	}

	failing, _ := testServer(t, failingGenerator{})
	w = do(t, failing, http.MethodPost, path, map[string]any{"text": "anything"})
	if w.Code != http.StatusBadGateway || !strings.Contains(w.Body.String(), "try again") {
		t.Errorf("Expected 502 with a retry hint, but got %d %s", w.Code, w.Body.String())
	}
}

func TestImport(t *testing.T) {
	srv, lib := testServer(t, generator.Lines{})
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "cards.md"), []byte("Q: Imported?\nA: yes"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := do(t, srv, http.MethodPost, "/api/decks/"+seedDeck+"/import", map[string]string{"location": dir})
	if w.Code != http.StatusOK {
		t.Fatalf("import status = %d, body = %s", w.Code, w.Body.String())
	}
	if report := decodeBody[source.Report](t, w); report.Added != 1 {
		t.Errorf("Expected 1 card added, but got %+v", report)
	}
	if n := len(lib.Cards()); n != 2 {
		t.Errorf("Expected 2 cards, but got %d", n)
	}

	if w = do(t, srv, http.MethodPost, "/api/decks/"+seedDeck+"/import", map[string]string{"location": filepath.Join(dir, "missing")}); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a missing path, but got %d", w.Code)
	}
}

func TestSettingsAndExport(t *testing.T) {
	srv, _ := testServer(t, generator.Lines{})

	if w := do(t, srv, http.MethodPut, "/api/settings", domain.Settings{DailyTarget: 0}); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a zero target, but got %d", w.Code)
	}
	if w := do(t, srv, http.MethodPut, "/api/settings", domain.Settings{DarkMode: true, DailyTarget: 50}); w.Code != http.StatusOK {
		t.Errorf("settings status = %d", w.Code)
	}
	if got := decodeBody[domain.Settings](t, do(t, srv, http.MethodGet, "/api/settings", nil)); !got.DarkMode || got.DailyTarget != 50 {
		t.Errorf("Unexpected settings %+v", got)
	}

	if w := do(t, srv, http.MethodGet, "/api/stats?days=0", nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for days=0, but got %d", w.Code)
	}

	w := do(t, srv, http.MethodGet, "/api/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "flashmind_backup_") {
		t.Errorf("Unexpected Content-Disposition %q", cd)
	}
	doc, err := store.Decode(w.Body.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(doc.Decks) != 1 || doc.Settings.DailyTarget != 50 {
		t.Errorf("Unexpected exported document %+v", doc)
	}
}
