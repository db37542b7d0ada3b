package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/conorfennell/flashmind/internal/domain"
	"github.com/conorfennell/flashmind/internal/stats"
	"github.com/conorfennell/flashmind/internal/store"
)

// handleStats summarizes review activity. ?days= widens the daily window.
func (s *Server) handleStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := stats.DefaultDays
		if raw := r.URL.Query().Get("days"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > 366 {
				writeJSON(w, http.StatusBadRequest, errorBody("days must be between 1 and 366"))
				return
			}
			days = n
		}
		writeJSON(w, http.StatusOK, stats.Summarize(s.lib.Snapshot(), s.now(), days))
	}
}

func (s *Server) handleGetSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.lib.Settings())
	}
}

func (s *Server) handleUpdateSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var settings domain.Settings
		if !decode(w, r, &settings) {
			return
		}
		if err := s.lib.UpdateSettings(settings); err != nil {
			s.writeError(w, "update settings", err)
			return
		}
		writeJSON(w, http.StatusOK, settings)
	}
}

// handleExport downloads the whole document as a dated backup file.
func (s *Server) handleExport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := store.Encode(s.lib.Snapshot())
		if err != nil {
			s.writeError(w, "export", err)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", store.ExportFileName(s.now())))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
