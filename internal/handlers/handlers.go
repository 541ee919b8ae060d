package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/XavierBriggs/fortuna/services/goal-analysis/internal/analysis"
	"github.com/XavierBriggs/fortuna/services/goal-analysis/pkg/models"
)

// maxRequestBytes bounds the analysis request body
const maxRequestBytes = 64 << 10

// AnalysisService is what the HTTP surface needs from the analyzer
type AnalysisService interface {
	Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error)
	Suggest(ctx context.Context, query string) ([]models.TeamRef, error)
	Recent(ctx context.Context, limit int) ([]models.AnalysisResult, error)
	DefaultStrategy() string
}

// Pinger reports whether a backing store is reachable
type Pinger func(ctx context.Context) error

// Handler contains dependencies for HTTP handlers
type Handler struct {
	svc    AnalysisService
	checks map[string]Pinger
	page   *template.Template
	logger *slog.Logger
}

// NewHandler creates a new handler. checks are run by the health endpoint.
func NewHandler(svc AnalysisService, checks map[string]Pinger, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		svc:    svc,
		checks: checks,
		page:   pageTemplate,
		logger: logger.With(slog.String("component", "http")),
	}
}

// HealthCheck returns service health and the state of optional stores
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	deps := make(map[string]string, len(h.checks))
	status := http.StatusOK
	for name, ping := range h.checks {
		if err := ping(ctx); err != nil {
			h.logger.Warn("health check failed", slog.String("dependency", name), slog.Any("error", err))
			deps[name] = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "healthy"
	}

	health := "healthy"
	if status != http.StatusOK {
		health = "degraded"
	}

	respondJSON(w, status, map[string]interface{}{
		"status":       health,
		"service":      "goal-analysis",
		"strategy":     h.svc.DefaultStrategy(),
		"dependencies": deps,
		"timestamp":    time.Now().UTC(),
	})
}

// SearchTeams returns team suggestions for a partial name
// Query params: q
func (h *Handler) SearchTeams(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	teams, err := h.svc.Suggest(r.Context(), query)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if teams == nil {
		teams = []models.TeamRef{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"teams": teams,
		"count": len(teams),
	})
}

// Analyze runs an analysis for two teams
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req models.AnalysisRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		h.respondError(w, &models.ValidationError{Field: "body", Reason: fmt.Sprintf("invalid request: %v", err)})
		return
	}

	result, err := h.svc.Analyze(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// RecentAnalyses lists recorded runs, newest first
// Query params: limit
func (h *Handler) RecentAnalyses(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 20)

	runs, err := h.svc.Recent(r.Context(), limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if runs == nil {
		runs = []models.AnalysisResult{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
		"limit": limit,
	})
}

// ErrorStatus maps an analysis error to an HTTP status and a stable error code
func ErrorStatus(err error) (int, string) {
	if errors.Is(err, analysis.ErrHistoryDisabled) {
		return http.StatusServiceUnavailable, "history_disabled"
	}

	code := models.ErrorCode(err)
	switch code {
	case models.CodeTimeout:
		return http.StatusGatewayTimeout, code
	case models.CodeCancelled:
		return http.StatusServiceUnavailable, code
	case models.CodeInvalidInput:
		return http.StatusBadRequest, code
	case models.CodeNotFound:
		return http.StatusNotFound, code
	case models.CodeTransport:
		return http.StatusBadGateway, code
	default:
		return http.StatusInternalServerError, code
	}
}

// Helper functions

func parseIntParam(r *http.Request, param string, defaultValue int) int {
	valueStr := r.URL.Query().Get(param)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("error encoding response", slog.Any("error", err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	status, code := ErrorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", slog.String("code", code), slog.Any("error", err))
	}

	respondJSON(w, status, models.ErrorResponse{
		Error: err.Error(),
		Code:  code,
	})
}
