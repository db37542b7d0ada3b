package web

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/conorfennell/flashmind/internal/domain"
	"github.com/conorfennell/flashmind/internal/generator"
	"github.com/conorfennell/flashmind/internal/library"
	"github.com/conorfennell/flashmind/internal/srs"
	"github.com/conorfennell/flashmind/internal/stats"
)

type deckView struct {
	domain.Deck
	Counts stats.DeckCounts `json:"counts"`
}

// handleListDecks lists every deck with its card counts.
func (s *Server) handleListDecks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc := s.lib.Snapshot()
		now := s.now()
		views := make([]deckView, 0, len(doc.Decks))
		for _, d := range doc.Decks {
			views = append(views, deckView{Deck: d, Counts: stats.CountDeck(doc.Cards, d.ID, now)})
		}
		writeJSON(w, http.StatusOK, map[string]any{"decks": views})
	}
}

func (s *Server) handleCreateDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		}
		if !decode(w, r, &req) {
			return
		}
		writeJSON(w, http.StatusCreated, s.lib.CreateDeck(req.Name, req.Description))
	}
}

func (s *Server) handleUpdateDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch library.DeckPatch
		if !decode(w, r, &patch) {
			return
		}
		deck, err := s.lib.UpdateDeck(chi.URLParam(r, "deckID"), patch)
		if err != nil {
			s.writeError(w, "update deck", err)
			return
		}
		writeJSON(w, http.StatusOK, deck)
	}
}

// handleDeleteDeck removes a deck together with its cards.
func (s *Server) handleDeleteDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.lib.DeleteDeck(chi.URLParam(r, "deckID")); err != nil {
			s.writeError(w, "delete deck", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleListCards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cards, err := s.lib.CardsInDeck(chi.URLParam(r, "deckID"))
		if err != nil {
			s.writeError(w, "list cards", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"cards": cards})
	}
}

// handleAddCards accepts reviewed drafts into a deck. The whole batch is
// rejected when one draft is invalid.
func (s *Server) handleAddCards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Cards []domain.Draft `json:"cards"`
		}
		if !decode(w, r, &req) {
			return
		}
		if len(req.Cards) == 0 {
			writeJSON(w, http.StatusBadRequest, errorBody("cards are required"))
			return
		}
		cards, err := s.lib.AddDrafts(chi.URLParam(r, "deckID"), req.Cards)
		if err != nil {
			s.writeError(w, "add cards", err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"cards": cards})
	}
}

// handleDue lists due cards, oldest first, for one deck or for all of them.
func (s *Server) handleDue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deckID := chi.URLParam(r, "deckID")
		if deckID != "" {
			if _, err := s.lib.Deck(deckID); err != nil {
				s.writeError(w, "due cards", err)
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"cards": srs.Due(s.lib.Cards(), deckID, s.now())})
	}
}

// handleGenerate proposes drafts for a deck. Nothing is saved until the
// client posts the drafts it keeps to the cards endpoint.
func (s *Server) handleGenerate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deckID := chi.URLParam(r, "deckID")
		if _, err := s.lib.Deck(deckID); err != nil {
			s.writeError(w, "generate", err)
			return
		}
		var req generator.Request
		if !decode(w, r, &req) {
			return
		}
		drafts, err := s.gen.Generate(r.Context(), req)
		if err != nil {
			s.writeError(w, "generate", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"drafts": drafts})
	}
}

func (s *Server) handleImport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.importer == nil {
			s.writeError(w, "import", errors.New("import is not configured"))
			return
		}
		var req struct {
			Location string `json:"location"`
		}
		if !decode(w, r, &req) {
			return
		}
		report, err := s.importer.Import(r.Context(), chi.URLParam(r, "deckID"), req.Location)
		if err != nil {
			s.writeError(w, "import", err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}
