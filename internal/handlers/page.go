package handlers

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/XavierBriggs/fortuna/services/goal-analysis/internal/display"
	"github.com/XavierBriggs/fortuna/services/goal-analysis/pkg/models"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// pageData feeds templates/index.html
type pageData struct {
	Home       string
	Away       string
	HomeID     string
	AwayID     string
	Capital    string
	Strategy   string
	Strategies []string
	Cards      []display.Card
	Echoed     string
	Error      string
}

// Index renders the empty analysis form
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, h.newPage())
}

// AnalyzeForm handles the form submit and renders both team cards
func (h *Handler) AnalyzeForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		data := h.newPage()
		data.Error = "could not read form"
		h.render(w, http.StatusBadRequest, data)
		return
	}

	data := h.newPage()
	data.Home = strings.TrimSpace(r.PostFormValue("home"))
	data.Away = strings.TrimSpace(r.PostFormValue("away"))
	data.HomeID = r.PostFormValue("home_id")
	data.AwayID = r.PostFormValue("away_id")
	data.Capital = strings.TrimSpace(r.PostFormValue("capital"))
	if s := r.PostFormValue("strategy"); s != "" {
		data.Strategy = s
	}

	req, err := formRequest(data)
	if err != nil {
		data.Error = err.Error()
		h.render(w, http.StatusBadRequest, data)
		return
	}

	result, err := h.svc.Analyze(r.Context(), req)
	if err != nil {
		status, _ := ErrorStatus(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("form analysis failed", slog.Any("error", err))
		}
		data.Error = err.Error()
		h.render(w, status, data)
		return
	}

	cards := display.Cards(result)
	data.Cards = cards[:]
	data.Echoed = display.Capital(result.Capital)
	h.render(w, http.StatusOK, data)
}

func (h *Handler) newPage() pageData {
	return pageData{
		Strategy:   h.svc.DefaultStrategy(),
		Strategies: []string{models.StrategyFirst, models.StrategyDirect, models.StrategySuggestions},
	}
}

func (h *Handler) render(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.page.Execute(w, data); err != nil {
		h.logger.Error("error rendering page", slog.Any("error", err))
	}
}

// formRequest converts posted form values into an analysis request.
// Capital is optional; when present it must be a number.
func formRequest(data pageData) (models.AnalysisRequest, error) {
	req := models.AnalysisRequest{
		Home:     models.TeamSelection{Query: data.Home},
		Away:     models.TeamSelection{Query: data.Away},
		Strategy: data.Strategy,
	}

	var err error
	if req.Home.TeamID, err = optionalID("home_id", data.HomeID); err != nil {
		return req, err
	}
	if req.Away.TeamID, err = optionalID("away_id", data.AwayID); err != nil {
		return req, err
	}

	if data.Capital != "" {
		capital, err := strconv.ParseFloat(data.Capital, 64)
		if err != nil {
			return req, &models.ValidationError{Field: "capital", Reason: "must be a number"}
		}
		req.Capital = &capital
	}
	return req, nil
}

func optionalID(field, value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	id, err := strconv.Atoi(value)
	if err != nil {
		return 0, &models.ValidationError{Field: field, Reason: "must be a team id"}
	}
	return id, nil
}
