package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"webindexer/internal/ranking"
)

type searchResponse struct {
	Query   string           `json:"query"`
	Results []ranking.Result `json:"results"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	limit := s.opts.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.metrics.IncSearch("bad_request")
			s.respondWithError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	results, err := s.searcher.Search(r.Context(), query, limit)
	if err != nil {
		if errors.Is(err, ranking.ErrInvalidLimit) {
			s.metrics.IncSearch("bad_request")
			s.respondWithError(w, http.StatusBadRequest, "limit must be positive")
			return
		}
		s.logger.Error("search failed", zap.String("query", query), zap.Error(err))
		s.metrics.IncSearch("error")
		s.respondWithError(w, http.StatusInternalServerError, "Could not run search")
		return
	}
	if results == nil {
		results = []ranking.Result{}
	}

	s.metrics.IncSearch("ok")
	s.respondWithJSON(w, http.StatusOK, searchResponse{Query: query, Results: results})
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	s.respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Helper Functions ---

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("encode response", zap.Error(err))
		code = http.StatusInternalServerError
		response = []byte(`{"error":"internal error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}
