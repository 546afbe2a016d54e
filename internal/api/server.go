// Package api exposes the orchestrator over HTTP: async run submission and
// polling, plus the synchronous direct-search pass-throughs.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"investor-research/internal/common/config"
	"investor-research/internal/common/errors"
	"investor-research/internal/common/logger"
	"investor-research/internal/models"
	"investor-research/internal/orchestrator"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type directSearcher interface {
	SearchCompanies(ctx context.Context, q models.CompanySearchQuery) ([]models.Company, error)
	SearchPeople(ctx context.Context, q models.PersonSearchQuery) ([]models.Person, error)
}

type Server struct {
	orch     *orchestrator.Orchestrator
	searcher directSearcher
	log      logger.Logger
	srv      *http.Server
}

func NewServer(cfg config.ServerConfig, orch *orchestrator.Orchestrator, searcher directSearcher, log logger.Logger) *Server {
	s := &Server{
		orch:     orch,
		searcher: searcher,
		log:      log,
	}

	s.srv = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.Handler(),
		ReadTimeout:  config.GetDuration(cfg.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.WriteTimeout),
	}

	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /orchestrate", s.handleSubmit)
	mux.HandleFunc("GET /runs/{id}", s.handleGetRun)
	mux.HandleFunc("DELETE /runs/{id}", s.handleCancelRun)
	mux.HandleFunc("POST /search/companies", s.handleSearchCompanies)
	mux.HandleFunc("POST /search/people", s.handleSearchPeople)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

func (s *Server) ListenAndServe() error {
	s.log.Info("HTTP server listening", map[string]interface{}{"address": s.srv.Addr})
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req models.OrchestrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.NewValidationFailedError("request body is not valid JSON"))
		return
	}

	resp, err := s.orch.Submit(req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusAccepted, resp)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.orch.GetRun(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.orch.Cancel(id); err != nil {
		s.writeError(w, err)
		return
	}

	run, err := s.orch.GetRun(id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleSearchCompanies(w http.ResponseWriter, r *http.Request) {
	var q models.CompanySearchQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		s.writeError(w, errors.NewValidationFailedError("request body is not valid JSON"))
		return
	}

	companies, err := s.searcher.SearchCompanies(r.Context(), q)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"companies": companies})
}

func (s *Server) handleSearchPeople(w http.ResponseWriter, r *http.Request) {
	var q models.PersonSearchQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		s.writeError(w, errors.NewValidationFailedError("request body is not valid JSON"))
		return
	}

	people, err := s.searcher.SearchPeople(r.Context(), q)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"people": people})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("Failed to encode response", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := map[string]interface{}{"error": err.Error()}

	if stdErr, ok := err.(*errors.StandardError); ok {
		status = httpStatus(stdErr.Code)
		body = map[string]interface{}{
			"code":    string(stdErr.Code),
			"message": stdErr.Message,
			"details": stdErr.Details,
		}
	}

	s.writeJSON(w, status, body)
}

func httpStatus(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeValidationFailed:
		return http.StatusBadRequest
	case errors.ErrCodeRunNotFound:
		return http.StatusNotFound
	case errors.ErrCodeRunTerminal:
		return http.StatusConflict
	case errors.ErrCodeAdapterTimeout, errors.ErrCodeParseAPITimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
