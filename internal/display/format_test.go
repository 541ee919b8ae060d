package display_test

import (
	"testing"

	"github.com/XavierBriggs/fortuna/services/goal-analysis/internal/display"
	"github.com/XavierBriggs/fortuna/services/goal-analysis/pkg/goalstats"
	"github.com/XavierBriggs/fortuna/services/goal-analysis/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimal(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{2, "2.00"},
		{1.6, "1.60"},
		{1.4966629547, "1.50"},
		{0.816496580927726, "0.82"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, display.Decimal(tt.in))
	}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "100.00%", display.Percent(1))
	assert.Equal(t, "0.00%", display.Percent(0))
	assert.Equal(t, "80.00%", display.Percent(0.8))
	assert.Equal(t, "66.67%", display.Percent(2.0/3.0))
}

func TestTeamCard_WithStats(t *testing.T) {
	stats, err := goalstats.Compute("Arsenal", []goalstats.MatchResult{
		{GoalsFor: 0, GoalsAgainst: 0},
		{GoalsFor: 1, GoalsAgainst: 0},
		{GoalsFor: 2, GoalsAgainst: 0},
	})
	require.NoError(t, err)

	card := display.TeamCard(models.TeamOutcome{
		Team:   models.TeamRef{ID: 42, Name: "Arsenal"},
		Status: models.OutcomeOK,
		Stats:  &stats,
	})

	assert.Equal(t, "Arsenal", card.Title)
	require.Len(t, card.Lines, 5)
	assert.Equal(t, "3", card.Lines[0].Value)
	assert.Equal(t, "1.00", card.Lines[1].Value)
	assert.Equal(t, "0.00", card.Lines[2].Value)
	assert.Equal(t, "0.82", card.Lines[3].Value)
	assert.Equal(t, "66.67%", card.Lines[4].Value)
}

func TestTeamCard_InsufficientData(t *testing.T) {
	card := display.TeamCard(models.TeamOutcome{
		Team:   models.TeamRef{ID: 7, Name: "Newco FC"},
		Status: models.OutcomeInsufficientData,
	})

	require.Len(t, card.Lines, 1)
	assert.Equal(t, display.NoData, card.Lines[0].Value)
	assert.Contains(t, card.String(), "no data")
}

func TestCapital(t *testing.T) {
	assert.Equal(t, "-", display.Capital(nil))
	v := 250.5
	assert.Equal(t, "250.50", display.Capital(&v))
}
