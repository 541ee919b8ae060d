package goalstats

import (
	"errors"
	"fmt"
	"math"
)

// DefaultWindow is the number of most recent matches considered per team
const DefaultWindow = 10

// ErrInsufficientData is returned when there are no matches to describe.
// Callers surface it as a per-team "no data" state instead of rendering NaN.
var ErrInsufficientData = errors.New("insufficient data")

// ErrInvalidInput marks malformed input (negative goals, mismatched series)
var ErrInvalidInput = errors.New("invalid input")

// MatchResult is one historical match seen from the analysed team's side
type MatchResult struct {
	GoalsFor     int `json:"goals_for"`
	GoalsAgainst int `json:"goals_against"`
}

// TeamStatistics holds descriptive statistics for one team's recent matches
type TeamStatistics struct {
	TeamLabel      string  `json:"team"`
	Matches        int     `json:"matches"`
	AverageFor     float64 `json:"average_for"`
	AverageAgainst float64 `json:"average_against"`
	StddevFor      float64 `json:"stddev_for"`

	// ScoredInMatchRate is the share of matches in which the team scored at
	// least once. The original screen labelled this "both teams to score";
	// goals against are not consulted.
	ScoredInMatchRate float64 `json:"scored_in_match_rate"`

	RawGoalsFor     []int `json:"goals_for"`
	RawGoalsAgainst []int `json:"goals_against"`
}

// ValidationError reports the first offending match in the input
type ValidationError struct {
	Index  int
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid match input: %s", e.Reason)
	}
	return fmt.Sprintf("invalid match %d: %s", e.Index, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// Compute derives TeamStatistics from a team's matches
//
// Formula (N = len(matches)):
//
//	averageFor     = sum(goalsFor) / N
//	averageAgainst = sum(goalsAgainst) / N
//	stddevFor      = sqrt(sum((g - averageFor)^2) / N)   population variance
//	scoredRate     = count(goalsFor > 0) / N
//
// Example: [{2,1},{2,1},{2,1}] -> averageFor 2, averageAgainst 1, stddev 0, rate 1.0
//
// N = 0 returns ErrInsufficientData. Negative goal counts return a *ValidationError.
func Compute(label string, matches []MatchResult) (TeamStatistics, error) {
	for i, m := range matches {
		if m.GoalsFor < 0 || m.GoalsAgainst < 0 {
			return TeamStatistics{}, &ValidationError{
				Index:  i,
				Reason: fmt.Sprintf("negative goal count (for=%d against=%d)", m.GoalsFor, m.GoalsAgainst),
			}
		}
	}

	n := len(matches)
	if n == 0 {
		return TeamStatistics{}, fmt.Errorf("%s: %w", label, ErrInsufficientData)
	}

	goalsFor := make([]int, n)
	goalsAgainst := make([]int, n)
	sumFor, sumAgainst, scored := 0, 0, 0
	for i, m := range matches {
		goalsFor[i] = m.GoalsFor
		goalsAgainst[i] = m.GoalsAgainst
		sumFor += m.GoalsFor
		sumAgainst += m.GoalsAgainst
		if m.GoalsFor > 0 {
			scored++
		}
	}

	count := float64(n)
	avgFor := float64(sumFor) / count
	avgAgainst := float64(sumAgainst) / count

	variance := 0.0
	for _, g := range goalsFor {
		d := float64(g) - avgFor
		variance += d * d
	}
	variance /= count

	return TeamStatistics{
		TeamLabel:         label,
		Matches:           n,
		AverageFor:        avgFor,
		AverageAgainst:    avgAgainst,
		StddevFor:         math.Sqrt(variance),
		ScoredInMatchRate: float64(scored) / count,
		RawGoalsFor:       goalsFor,
		RawGoalsAgainst:   goalsAgainst,
	}, nil
}

// FromSeries pairs two parallel goal series into matches.
// The series must have equal length.
func FromSeries(goalsFor, goalsAgainst []int) ([]MatchResult, error) {
	if len(goalsFor) != len(goalsAgainst) {
		return nil, &ValidationError{
			Index:  -1,
			Reason: fmt.Sprintf("series length mismatch (for=%d against=%d)", len(goalsFor), len(goalsAgainst)),
		}
	}

	matches := make([]MatchResult, len(goalsFor))
	for i := range goalsFor {
		matches[i] = MatchResult{GoalsFor: goalsFor[i], GoalsAgainst: goalsAgainst[i]}
	}
	return matches, nil
}
