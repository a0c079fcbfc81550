package crosstab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveytab/domain/survey"
)

func TestCohortChartPercentagesPerGroup(t *testing.T) {
	labels := []string{"Yes", "No", "Yes", "Yes", "No", "Yes"}
	groups := []string{"treatment", "treatment", "control", "control", "control", "common"}
	specs := []SeriesSpec{
		{Key: "treatment", Label: "Treatment", Colour: "#2563eb"},
		{Key: "control", Label: "Control", Colour: "#16a34a"},
	}

	chart := CohortChart("B2. Participated", labels, groups, specs, nil)
	require.NotNil(t, chart)
	assert.Equal(t, "B2. Participated", chart.Axis)
	assert.Equal(t, []string{"Yes", "No"}, chart.Labels)
	require.Len(t, chart.Datasets, 2)
	assert.Equal(t, []float64{50, 50}, chart.Datasets[0].Data)
	assert.Equal(t, []float64{66.7, 33.3}, chart.Datasets[1].Data)
	assert.Equal(t, "#16a34a", chart.Datasets[1].Colour)
}

func TestCohortChartZeroFillsAndOrders(t *testing.T) {
	labels := []string{"Often", "Never", "Never"}
	groups := []string{"treatment", "control", "control"}
	specs := []SeriesSpec{{Key: "treatment", Label: "Treatment"}, {Key: "control", Label: "Control"}}

	chart := CohortChart("F1", labels, groups, specs, []string{"Never", "Rarely", "Often"})
	require.NotNil(t, chart)
	assert.Equal(t, []string{"Never", "Often"}, chart.Labels)
	for _, s := range chart.Datasets {
		assert.Len(t, s.Data, len(chart.Labels))
	}
	assert.Equal(t, []float64{0, 100}, chart.Datasets[0].Data)
	assert.Equal(t, []float64{100, 0}, chart.Datasets[1].Data)
}

func TestCohortChartNothingToCompare(t *testing.T) {
	assert.Nil(t, CohortChart("x", []string{"a"}, []string{"common"}, nil, nil))
	assert.Nil(t, CohortChart("x", []string{"a"}, []string{"common"}, []SeriesSpec{{Key: "treatment"}}, nil))
}

func TestViewChart(t *testing.T) {
	tbl := sampleTable(t)
	chart := ViewChart(tbl.Normalize(survey.ModeRowPercent), "B2_Participation")

	assert.Equal(t, survey.ChartStackedBar, chart.Kind)
	assert.Equal(t, "Percent", chart.Labels.Y)
	require.Len(t, chart.Series, 2)
	assert.Equal(t, "Male", chart.Series[0].Name)
	assert.Equal(t, []survey.Point{{X: "Yes", Y: 50}, {X: "No", Y: 0}}, chart.Series[0].Data)

	dist, err := BuildDistribution(Bucket(texts("a", "b", "a"), Policy{}), nil)
	require.NoError(t, err)
	bars := DistributionChart(dist, "q")
	assert.Equal(t, survey.ChartBar, bars.Kind)
	assert.Equal(t, []survey.Point{{X: "a", Y: 2}, {X: "b", Y: 1}}, bars.Series[0].Data)
}
