package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveytab/domain/survey"
)

func payload(labels []string, first, second []float64) *survey.ChartPayload {
	return &survey.ChartPayload{
		Axis:   "B2. Participated in OGSTEP",
		Labels: labels,
		Datasets: []survey.Series{
			{Label: "Treatment", Data: first},
			{Label: "Control", Data: second},
		},
	}
}

func TestInsightsHeadline(t *testing.T) {
	got := Insights(payload([]string{"Yes", "No"}, []float64{40, 60}, []float64{30, 55}), survey.ModeColumnPercent)

	require.Len(t, got, 3)
	assert.Equal(t, "Treatment group shows 10.0 percentage points higher yes compared with the control group.", got[0])
	assert.Contains(t, got[0], "10.0 percentage points higher yes")
	assert.Equal(t, ColumnPercentNote, got[1])
	assert.Equal(t, PercentModeNote, got[2])
}

func TestInsightsDirectionAndTies(t *testing.T) {
	lower := Insights(payload([]string{"A", "B"}, []float64{10, 20}, []float64{15, 25}), survey.ModeCount)
	require.Len(t, lower, 3)
	assert.Contains(t, lower[0], "5.0 percentage points lower a ")
	assert.Equal(t, CountModeNote, lower[2])

	zero := Insights(payload([]string{"Same"}, []float64{50}, []float64{50}), survey.ModeRowPercent)
	assert.Contains(t, zero[0], "0.0 percentage points lower same")

	negTie := Insights(payload([]string{"A", "B"}, []float64{10, 30}, []float64{20, 20}), survey.ModeRowPercent)
	assert.Contains(t, negTie[0], "lower a ")
}

func TestInsightsNeedsTwoSeries(t *testing.T) {
	assert.Nil(t, Insights(nil, survey.ModeCount))
	assert.Nil(t, Insights(&survey.ChartPayload{Labels: []string{"a"}, Datasets: []survey.Series{{Data: []float64{1}}}}, survey.ModeCount))
	assert.Nil(t, Insights(payload(nil, nil, nil), survey.ModeCount))
	assert.Nil(t, Insights(payload([]string{"a"}, nil, []float64{1}), survey.ModeCount))
}
