package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/XavierBriggs/fortuna/services/goal-analysis/internal/analysis"
	"github.com/XavierBriggs/fortuna/services/goal-analysis/internal/handlers"
	"github.com/XavierBriggs/fortuna/services/goal-analysis/internal/telemetry"
	"github.com/XavierBriggs/fortuna/services/goal-analysis/pkg/goalstats"
	"github.com/XavierBriggs/fortuna/services/goal-analysis/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockService implements handlers.AnalysisService for testing
type MockService struct {
	result     *models.AnalysisResult
	analyzeErr error
	teams      []models.TeamRef
	suggestErr error
	runs       []models.AnalysisResult
	recentErr  error

	lastRequest models.AnalysisRequest
	lastLimit   int
}

func (m *MockService) Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	m.lastRequest = req
	if m.analyzeErr != nil {
		return nil, m.analyzeErr
	}
	result := *m.result
	result.Capital = req.Capital
	return &result, nil
}

func (m *MockService) Suggest(ctx context.Context, query string) ([]models.TeamRef, error) {
	return m.teams, m.suggestErr
}

func (m *MockService) Recent(ctx context.Context, limit int) ([]models.AnalysisResult, error) {
	m.lastLimit = limit
	return m.runs, m.recentErr
}

func (m *MockService) DefaultStrategy() string { return models.StrategyFirst }

func sampleResult(t *testing.T) *models.AnalysisResult {
	t.Helper()
	stats, err := goalstats.Compute("Arsenal", []goalstats.MatchResult{
		{GoalsFor: 2, GoalsAgainst: 1},
		{GoalsFor: 2, GoalsAgainst: 1},
	})
	require.NoError(t, err)

	return &models.AnalysisResult{
		ID:       "run-1",
		Strategy: models.StrategyFirst,
		Window:   10,
		Teams: [2]models.TeamOutcome{
			{Team: models.TeamRef{ID: 42, Name: "Arsenal"}, Status: models.OutcomeOK, Stats: &stats},
			{Team: models.TeamRef{ID: 7, Name: "Newco FC"}, Status: models.OutcomeInsufficientData},
		},
	}
}

func newHandler(svc *MockService, checks map[string]handlers.Pinger) *handlers.Handler {
	return handlers.NewHandler(svc, checks, telemetry.Discard())
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]handlers.Pinger
		wantStatus int
		wantHealth string
	}{
		{
			name:       "no optional stores",
			wantStatus: http.StatusOK,
			wantHealth: "healthy",
		},
		{
			name: "redis down",
			checks: map[string]handlers.Pinger{
				"redis": func(context.Context) error { return errors.New("connection refused") },
			},
			wantStatus: http.StatusServiceUnavailable,
			wantHealth: "degraded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHandler(&MockService{}, tt.checks)

			req := httptest.NewRequest("GET", "/health", nil)
			w := httptest.NewRecorder()
			h.HealthCheck(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, tt.wantHealth, body["status"])
			assert.Equal(t, "goal-analysis", body["service"])
		})
	}
}

func TestSearchTeams(t *testing.T) {
	svc := &MockService{teams: []models.TeamRef{{ID: 42, Name: "Arsenal"}, {ID: 1, Name: "Arsenal Tula"}}}
	h := newHandler(svc, nil)

	req := httptest.NewRequest("GET", "/api/v1/teams/search?q=Arsen", nil)
	w := httptest.NewRecorder()
	h.SearchTeams(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Teams []models.TeamRef `json:"teams"`
		Count int              `json:"count"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, 42, body.Teams[0].ID)
}

func TestSearchTeams_ShortQuery(t *testing.T) {
	svc := &MockService{suggestErr: &models.ValidationError{Field: "query", Reason: "must be at least 3 characters"}}
	h := newHandler(svc, nil)

	req := httptest.NewRequest("GET", "/api/v1/teams/search?q=Ar", nil)
	w := httptest.NewRecorder()
	h.SearchTeams(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyze_Success(t *testing.T) {
	svc := &MockService{result: sampleResult(t)}
	h := newHandler(svc, nil)

	body := `{"home":{"query":"Arsenal"},"away":{"query":"Newco"},"capital":100}`
	req := httptest.NewRequest("POST", "/api/v1/analysis", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Analyze(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Arsenal", svc.lastRequest.Home.Query)
	require.NotNil(t, svc.lastRequest.Capital)
	assert.Equal(t, 100.0, *svc.lastRequest.Capital)

	var result models.AnalysisResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	assert.Equal(t, models.OutcomeInsufficientData, result.Teams[1].Status)
	assert.InDelta(t, 2.0, result.Teams[0].Stats.AverageFor, 1e-9)
	assert.InDelta(t, 1.0, result.Teams[0].Stats.ScoredInMatchRate, 1e-9)
}

func TestAnalyze_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", &models.NotFoundError{Query: "Atlantis"}, http.StatusNotFound, models.CodeNotFound},
		{"validation", &models.ValidationError{Field: "home", Reason: "team name is required"}, http.StatusBadRequest, models.CodeInvalidInput},
		{"transport", &models.TransportError{Endpoint: "/fixtures", StatusCode: 500}, http.StatusBadGateway, models.CodeTransport},
		{
			"provider timeout",
			&models.TransportError{Endpoint: "/fixtures", Err: context.DeadlineExceeded},
			http.StatusGatewayTimeout,
			models.CodeTimeout,
		},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, models.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHandler(&MockService{analyzeErr: tt.err}, nil)

			body := `{"home":{"query":"Atlantis"},"away":{"query":"Chelsea"}}`
			req := httptest.NewRequest("POST", "/api/v1/analysis", strings.NewReader(body))
			w := httptest.NewRecorder()
			h.Analyze(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)

			var resp models.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestAnalyze_InvalidJSON(t *testing.T) {
	h := newHandler(&MockService{}, nil)

	req := httptest.NewRequest("POST", "/api/v1/analysis", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	h.Analyze(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecentAnalyses(t *testing.T) {
	svc := &MockService{runs: []models.AnalysisResult{*sampleResult(t)}}
	h := newHandler(svc, nil)

	req := httptest.NewRequest("GET", "/api/v1/analysis/recent?limit=5", nil)
	w := httptest.NewRecorder()
	h.RecentAnalyses(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, svc.lastLimit)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.EqualValues(t, 1, body["count"])
}

func TestRecentAnalyses_HistoryDisabled(t *testing.T) {
	h := newHandler(&MockService{recentErr: analysis.ErrHistoryDisabled}, nil)

	req := httptest.NewRequest("GET", "/api/v1/analysis/recent", nil)
	w := httptest.NewRecorder()
	h.RecentAnalyses(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "history_disabled", resp.Code)
}

func TestIndex(t *testing.T) {
	h := newHandler(&MockService{}, nil)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	h.Index(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	page := w.Body.String()
	assert.Contains(t, page, `name="home"`)
	assert.Contains(t, page, `name="away"`)
	assert.Contains(t, page, `name="capital"`)
	assert.Contains(t, page, `<option value="first" selected>`)
}

func postForm(h *handlers.Handler, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/analyze", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.AnalyzeForm(w, req)
	return w
}

func TestAnalyzeForm_RendersCards(t *testing.T) {
	svc := &MockService{result: sampleResult(t)}
	h := newHandler(svc, nil)

	w := postForm(h, url.Values{
		"home":    {"Arsenal"},
		"away":    {"Newco"},
		"capital": {"250"},
		"away_id": {"7"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 7, svc.lastRequest.Away.TeamID)

	page := w.Body.String()
	assert.Contains(t, page, "Arsenal")
	assert.Contains(t, page, "2.00")
	assert.Contains(t, page, "100.00%")
	assert.Contains(t, page, "no data")
	assert.Contains(t, page, "Capital: 250.00")
}

func TestAnalyzeForm_InvalidCapital(t *testing.T) {
	svc := &MockService{result: sampleResult(t)}
	h := newHandler(svc, nil)

	w := postForm(h, url.Values{"home": {"Arsenal"}, "away": {"Chelsea"}, "capital": {"lots"}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "capital: must be a number")
	assert.Empty(t, svc.lastRequest.Home.Query, "analysis must not run")
}

func TestAnalyzeForm_NotFound(t *testing.T) {
	h := newHandler(&MockService{analyzeErr: &models.NotFoundError{Query: "Atlantis"}}, nil)

	w := postForm(h, url.Values{"home": {"Atlantis"}, "away": {"Chelsea"}})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "no team matches")
}
