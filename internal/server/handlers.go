package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"ragqa/internal/domain"
)

type answerRequest struct {
	Query string `json:"query"`
}

type linkJSON struct {
	Score float64 `json:"score"`
	Link  string  `json:"link"`
	Title string  `json:"title"`
	URL   string  `json:"url"`
}

type answerResponse struct {
	QueryID   string     `json:"query_id,omitempty"`
	Answer    string     `json:"answer"`
	Matches   []linkJSON `json:"matches"`
	NoResults bool       `json:"no_results"`
	Error     string     `json:"error,omitempty"`
	Stage     string     `json:"stage,omitempty"`
}

const maxRequestBytes = 1 << 20

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ans, err := s.service.Answer(r.Context(), req.Query)
	if errors.Is(err, domain.ErrEmptyQuery) {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	resp := toResponse(ans)
	if err != nil {
		s.logger.Error("answer failed", zap.Error(err))
		resp.Error = err.Error()
		resp.Stage = domain.FailedStage(err).String()
		s.respondJSON(w, statusFor(err), resp)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func toResponse(ans *domain.Answer) answerResponse {
	resp := answerResponse{Matches: []linkJSON{}}
	if ans == nil {
		return resp
	}
	resp.QueryID = ans.QueryID
	resp.Answer = ans.Text
	resp.NoResults = ans.NoResults()
	for _, l := range ans.Matches {
		resp.Matches = append(resp.Matches, linkJSON{Score: l.Score, Link: l.Link, Title: l.Title, URL: l.URL})
	}
	return resp
}

// statusFor maps pipeline failures to gateway statuses: the remote service
// was unreachable (504) or answered badly (502).
func statusFor(err error) int {
	if domain.IsNetwork(err) {
		return http.StatusGatewayTimeout
	}
	if domain.IsUpstream(err) || domain.IsShape(err) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
