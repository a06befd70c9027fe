package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchgate/internal/domain"
	"github.com/kailas-cloud/searchgate/internal/gateway"
	"github.com/kailas-cloud/searchgate/internal/health"
	"github.com/kailas-cloud/searchgate/internal/tenant"
)

// Server binds the gateway's three request pipelines and the health/metrics
// endpoints to HTTP handlers.
type Server struct {
	gateway *gateway.Gateway
	prober  *health.Prober
	logger  *zap.Logger
}

func NewServer(g *gateway.Gateway, prober *health.Prober, logger *zap.Logger) *Server {
	return &Server{gateway: g, prober: prober, logger: logger}
}

type searchBody = domain.Request

type suggestBody struct {
	Prefix string   `json:"prefix"`
	Entity []string `json:"entity,omitempty"`
	Limit  int      `json:"limit,omitempty"`
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenant.Resolve(r.Header)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	var req searchBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.CodeBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := s.gateway.Search(r.Context(), req, tenantID, claimsFromContext(r.Context()))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Suggest handles POST /suggest.
func (s *Server) Suggest(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenant.Resolve(r.Header)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	var req suggestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.CodeBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := s.gateway.Suggest(r.Context(), req.Prefix, req.Entity, req.Limit, tenantID, claimsFromContext(r.Context()))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Explain handles POST /explain.
func (s *Server) Explain(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenant.Resolve(r.Header)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	var req searchBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.CodeBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := s.gateway.Explain(req, tenantID, claimsFromContext(r.Context()))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Health handles GET /health. Unauthenticated, reports the last cached
// probe result.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := s.prober.Last()
	status := http.StatusOK
	if report.Status != health.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// Ready handles GET /ready. 200 iff the aggregated status is healthy or
// degraded; 503 otherwise.
func (s *Server) Ready(w http.ResponseWriter, r *http.Request) {
	if s.prober.Ready() {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, domain.ErrorEnvelope{Code: code, Message: message})
}

// writeDomainError maps a domain sentinel error to the status code and
// envelope code of spec §7. Anything unrecognized is an internal error.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrMissingTenant):
		writeError(w, http.StatusBadRequest, domain.CodeMissingTenant, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, domain.CodeForbidden, err.Error())
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, domain.CodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrEngineError):
		if s.logger != nil {
			s.logger.Warn("engine error", zap.Error(err))
		}
		writeError(w, http.StatusInternalServerError, domain.CodeEngineError, err.Error())
	case errors.Is(err, domain.ErrNotImplemented):
		writeError(w, http.StatusNotImplemented, domain.CodeBadRequest, err.Error())
	default:
		if s.logger != nil {
			s.logger.Error("internal error", zap.Error(err))
		}
		writeError(w, http.StatusInternalServerError, domain.CodeInternal, "internal error")
	}
}
