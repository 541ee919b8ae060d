package models

import (
	"time"

	"github.com/XavierBriggs/fortuna/services/goal-analysis/pkg/goalstats"
)

// Team resolution strategies
const (
	StrategyDirect      = "direct"      // free-text name, exact match preferred
	StrategySuggestions = "suggestions" // id picked from a suggestion list
	StrategyFirst       = "first"       // first search candidate
)

// Per-team outcome statuses
const (
	OutcomeOK               = "ok"
	OutcomeInsufficientData = "insufficient_data"
)

// TeamRef identifies a team at the data provider
type TeamRef struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`
	Logo    string `json:"logo,omitempty"`
}

// TeamSelection is one side of an analysis request.
// Query is the typed name; TeamID is set when picked from suggestions.
type TeamSelection struct {
	Query  string `json:"query"`
	TeamID int    `json:"team_id,omitempty"`
}

// AnalysisRequest is the inbound form: two teams plus available capital
type AnalysisRequest struct {
	Home TeamSelection `json:"home"`
	Away TeamSelection `json:"away"`

	// Capital is accepted and echoed back. No computation reads it.
	Capital *float64 `json:"capital,omitempty"`

	// Strategy overrides the configured resolution strategy when set
	Strategy string `json:"strategy,omitempty"`
}

// TeamOutcome is the analysis result for one team
type TeamOutcome struct {
	Team   TeamRef                   `json:"team"`
	Status string                    `json:"status"`
	Stats  *goalstats.TeamStatistics `json:"stats,omitempty"`
}

// AnalysisResult is the outcome of one analysis run
type AnalysisResult struct {
	ID         string         `json:"id"`
	Strategy   string         `json:"strategy"`
	Window     int            `json:"window"`
	Teams      [2]TeamOutcome `json:"teams"`
	Capital    *float64       `json:"capital,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}
