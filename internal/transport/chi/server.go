// Package chi implements the HTTP API: POST /api/search and GET /healthz.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/spacebio/kgsearch/internal/domain"
	"github.com/spacebio/kgsearch/internal/domain/search/request"
	"github.com/spacebio/kgsearch/internal/logger"
	healthuc "github.com/spacebio/kgsearch/internal/usecase/health"
	searchuc "github.com/spacebio/kgsearch/internal/usecase/search"
)

// errorResponse is the JSON error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes returned by the API.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeUpstreamFailed   = "upstream_failed"
	codeInternal         = "internal_error"
)

// sentinelMapping maps a domain sentinel to an HTTP status and error code.
type sentinelMapping struct {
	sentinel error
	status   int
	code     string
}

// Server handles the search and health endpoints.
type Server struct {
	search   *searchuc.Service
	health   *healthuc.Service
	logger   *zap.Logger
	mappings []sentinelMapping
}

// NewServer creates an HTTP API server.
func NewServer(search *searchuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	return &Server{
		search: search,
		health: health,
		logger: logger,
		mappings: []sentinelMapping{
			{domain.ErrInvalidRequest, http.StatusBadRequest, codeValidationFailed},
			{domain.ErrEmbeddingProvider, http.StatusBadGateway, codeUpstreamFailed},
			{domain.ErrScoringProvider, http.StatusBadGateway, codeUpstreamFailed},
			{domain.ErrFactStore, http.StatusBadGateway, codeUpstreamFailed},
		},
	}
}

// searchRequest is the POST /api/search body. include_summary defaults to
// true when omitted, matching the original client contract.
type searchRequest struct {
	Query          string `json:"query"`
	TopK           int    `json:"top_k"`
	IncludeSummary *bool  `json:"include_summary"`
}

// Search handles POST /api/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var body searchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	includeSummary := true
	if body.IncludeSummary != nil {
		includeSummary = *body.IncludeSummary
	}

	req, err := request.New(body.Query, body.TopK, includeSummary)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp, err := s.search.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Health handles GET /healthz.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// handleDomainError maps domain sentinels to HTTP responses.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range s.mappings {
		if errors.Is(err, m.sentinel) {
			writeError(w, m.status, m.code, err.Error())
			return
		}
	}
	logger.FromContext(r.Context(), s.logger).Error("unhandled error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
