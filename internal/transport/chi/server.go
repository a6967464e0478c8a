package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/propmatch/internal/domain"
	dommatch "github.com/kailas-cloud/propmatch/internal/domain/match"
	"github.com/kailas-cloud/propmatch/internal/logger"
	healthuc "github.com/kailas-cloud/propmatch/internal/usecase/health"
	matchuc "github.com/kailas-cloud/propmatch/internal/usecase/match"
)

// Client-facing messages. Details stay in the logs.
const (
	msgThemeRequired  = "Theme is required"
	msgInvalidBody    = "Invalid request body"
	msgInternalError  = "Internal server error"
	maxRequestBodyLen = 1 << 20
)

// Suggester ranks proposals for a theme/tags query.
type Suggester interface {
	Suggest(ctx context.Context, theme, tags string, opts ...matchuc.Option) ([]dommatch.Match, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the suggestion API.
type Server struct {
	suggester     Suggester
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(suggester Suggester, health HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		suggester: suggester,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrThemeRequired, http.StatusBadRequest, msgThemeRequired),
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, msgInvalidBody),
	}
	return s
}

// Register mounts the API routes on r.
func (s *Server) Register(r chi.Router) {
	r.Post("/suggest-project-name", s.SuggestProjectName)
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())
}

// SuggestProjectName handles POST /suggest-project-name.
func (s *Server) SuggestProjectName(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyLen)).Decode(&req); err != nil {
		logger.FromContextOr(r.Context(), s.logger).Warn("Invalid request body", zap.Error(err))
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	matches, err := s.suggester.Suggest(ctx, req.Theme, req.Tags)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	names := make([]suggestedName, len(matches))
	for i := range matches {
		names[i] = suggestedName{ProjectTitle: matches[i].Title()}
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, suggestResponse{SuggestedProjectNames: names})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:  string(report.Status),
		Checks:  checks,
		Entries: report.Entries,
	})
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage.Used() {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens()))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, msg string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContextOr(r.Context(), s.logger)
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("Rejected request", zap.Error(err))
			return
		}
	}
	log.Error("Error in suggest-project-name", zap.Error(err))
	writeError(w, http.StatusInternalServerError, msgInternalError)
}
