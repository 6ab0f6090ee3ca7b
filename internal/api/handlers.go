package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	keyword := strings.TrimSpace(r.URL.Query().Get("q"))
	if keyword == "" {
		s.respondWithError(w, http.StatusBadRequest, "Empty query")
		return
	}

	result := s.deals.Search(r.Context(), keyword)
	s.respondWithJSON(w, http.StatusOK, result)
}

func (s *Server) handleTopDeals(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, s.aggregate.Top(r.Context()))
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Helper Functions ---

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
