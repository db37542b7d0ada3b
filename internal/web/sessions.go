package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/conorfennell/flashmind/internal/domain"
	"github.com/conorfennell/flashmind/internal/session"
)

type sessionView struct {
	ID        string       `json:"id"`
	DeckID    string       `json:"deckId"`
	Card      *domain.Card `json:"card"` // nil once finished
	Reviewed  int          `json:"reviewed"`
	Total     int          `json:"total"`
	Remaining int          `json:"remaining"`
	Finished  bool         `json:"finished"`
}

func viewOf(sess *session.Session) sessionView {
	v := sessionView{ID: sess.ID, DeckID: sess.DeckID, Remaining: sess.Remaining(), Finished: sess.Finished()}
	v.Reviewed, v.Total = sess.Progress()
	if card, ok := sess.Current(); ok {
		v.Card = &card
	}
	return v
}

// handleStartSession snapshots the due cards of a deck, or of every deck
// when deckId is empty.
func (s *Server) handleStartSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			DeckID string `json:"deckId"`
		}
		if !decode(w, r, &req) {
			return
		}
		if req.DeckID != "" {
			if _, err := s.lib.Deck(req.DeckID); err != nil {
				s.writeError(w, "start session", err)
				return
			}
		}
		sess := session.Start(s.lib, req.DeckID, session.WithClock(s.now), session.WithParams(s.params))
		s.sessions.Add(sess)
		writeJSON(w, http.StatusCreated, viewOf(sess))
	}
}

func (s *Server) handleGetSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var v sessionView
		found, _ := s.sessions.Do(chi.URLParam(r, "sessionID"), func(sess *session.Session) error {
			v = viewOf(sess)
			return nil
		})
		if !found {
			writeJSON(w, http.StatusNotFound, errorBody("session not found"))
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// handleGrade grades the current card of a session. The grade is a number
// from 1 to 4 or one of again, hard, good, easy.
func (s *Server) handleGrade() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Grade json.RawMessage `json:"grade"`
		}
		if !decode(w, r, &req) {
			return
		}
		g, err := parseGrade(req.Grade)
		if err != nil {
			s.writeError(w, "grade", err)
			return
		}

		var resp struct {
			session.Outcome
			Session sessionView `json:"session"`
		}
		found, err := s.sessions.Do(chi.URLParam(r, "sessionID"), func(sess *session.Session) error {
			out, err := sess.Submit(g)
			if err != nil {
				return err
			}
			resp.Outcome = out
			resp.Session = viewOf(sess)
			return nil
		})
		if !found {
			writeJSON(w, http.StatusNotFound, errorBody("session not found"))
			return
		}
		if err != nil {
			s.writeError(w, "grade", err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) handleEndSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.sessions.Remove(chi.URLParam(r, "sessionID")) {
			writeJSON(w, http.StatusNotFound, errorBody("session not found"))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func parseGrade(raw json.RawMessage) (domain.Grade, error) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return domain.Grade(n), nil
	}
	var g domain.Grade
	if err := json.Unmarshal(raw, &g); err != nil {
		return 0, fmt.Errorf("%w: %s", domain.ErrInvalidGrade, raw)
	}
	return g, nil
}
