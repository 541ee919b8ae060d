package display

import (
	"fmt"
	"strconv"

	"github.com/XavierBriggs/fortuna/services/goal-analysis/pkg/models"
)

// NoData is shown in place of statistics for a team without match history
const NoData = "no data"

// Decimal formats x with two decimal places
func Decimal(x float64) string {
	return strconv.FormatFloat(x, 'f', 2, 64)
}

// Percent formats a rate in [0,1] as a percentage with two decimal places
func Percent(rate float64) string {
	return Decimal(rate*100) + "%"
}

// Line is one labelled row of a team card
type Line struct {
	Label string
	Value string
}

// Card is the rendered view of one team's outcome
type Card struct {
	Title  string
	Status string
	Lines  []Line
}

// TeamCard builds the display rows for a team outcome
func TeamCard(outcome models.TeamOutcome) Card {
	card := Card{
		Title:  outcome.Team.Name,
		Status: outcome.Status,
	}

	if outcome.Stats == nil {
		card.Lines = []Line{{Label: "Statistics", Value: NoData}}
		return card
	}

	s := outcome.Stats
	card.Lines = []Line{
		{Label: "Matches", Value: strconv.Itoa(s.Matches)},
		{Label: "Goals scored (avg)", Value: Decimal(s.AverageFor)},
		{Label: "Goals conceded (avg)", Value: Decimal(s.AverageAgainst)},
		{Label: "Goals scored (std dev)", Value: Decimal(s.StddevFor)},
		{Label: "Scored in match", Value: Percent(s.ScoredInMatchRate)},
	}
	return card
}

// Cards returns the home and away cards of a result
func Cards(result *models.AnalysisResult) [2]Card {
	return [2]Card{TeamCard(result.Teams[0]), TeamCard(result.Teams[1])}
}

// Capital formats the echoed capital, or "-" when none was given
func Capital(capital *float64) string {
	if capital == nil {
		return "-"
	}
	return Decimal(*capital)
}

// String renders a card as plain text
func (c Card) String() string {
	out := c.Title + "\n"
	for _, l := range c.Lines {
		out += fmt.Sprintf("  %-24s %s\n", l.Label+":", l.Value)
	}
	return out
}
