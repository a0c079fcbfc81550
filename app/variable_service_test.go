package app

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveytab/domain/core"
	"surveytab/domain/survey"
	"surveytab/internal/codebook"
	apperrors "surveytab/internal/errors"
	"surveytab/internal/render"
	"surveytab/internal/testkit"
)

func variableRequest(variable, topbreak string) VariableRequest {
	req := DefaultVariableRequest()
	req.Variable = variable
	req.TopBreak = topbreak
	return req
}

func pointXs(s survey.PointSeries) []string {
	xs := make([]string, len(s.Data))
	for i, p := range s.Data {
		xs[i] = p.X
	}
	return xs
}

func TestParseVariableQuery(t *testing.T) {
	req := ParseVariableQuery(url.Values{"variable": {"A7_Sex"}})
	assert.Equal(t, "A7_Sex", req.Variable)
	assert.Equal(t, "rowpct", req.Stat)
	assert.Equal(t, 12, req.LimitCategories)
	assert.Equal(t, 10, req.Bins)
	assert.Equal(t, 1, req.MinCount)
	assert.True(t, req.DropMissing)
	assert.Zero(t, req.Take)

	req = ParseVariableQuery(url.Values{
		"variable":         {"A8_Age"},
		"topbreak":         {"A7_Sex"},
		"stat":             {"colpct"},
		"limit_categories": {"abc"},
		"bins":             {"5"},
		"min_count":        {"3"},
		"drop_missing":     {"No"},
		"take":             {"50"},
	})
	assert.Equal(t, "A7_Sex", req.TopBreak)
	assert.Equal(t, "colpct", req.Stat)
	assert.Equal(t, 12, req.LimitCategories)
	assert.Equal(t, 5, req.Bins)
	assert.Equal(t, 3, req.MinCount)
	assert.False(t, req.DropMissing)
	assert.Equal(t, 50, req.Take)
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		in   string
		def  bool
		want bool
	}{
		{"1", false, true},
		{"YES", false, true},
		{"true", false, true},
		{"0", true, false},
		{"no", true, false},
		{"False", true, false},
		{"maybe", true, true},
		{"", false, false},
	}
	for _, tt := range tests {
		if got := ParseBool(tt.in, tt.def); got != tt.want {
			t.Errorf("ParseBool(%q, %v) = %v, want %v", tt.in, tt.def, got, tt.want)
		}
	}
}

func TestVariableCategoricalTable(t *testing.T) {
	svc := newVariableService(fixtureDataset())

	table, err := svc.Table(context.Background(), variableRequest("H3_ContinueWithoutSupport", "A7_Sex"))
	require.NoError(t, err)

	require.NotNil(t, table.Meta.TopBreak)
	assert.Equal(t, "A7_Sex", *table.Meta.TopBreak)
	assert.Equal(t, "H3_ContinueWithoutSupport", table.Meta.Variable)
	assert.Equal(t, 6, table.Meta.N)
	assert.Equal(t, "rowpct", table.Meta.Stat)
	assert.Empty(t, table.Meta.Notes)

	assert.Contains(t, table.HTML, "Statistic: rowpct")
	assert.Equal(t, survey.ChartStackedBar, table.Chart.Kind)
	assert.Equal(t, "Percent", table.Chart.Labels.Y)
	// One series per answer, one point per top break category.
	require.Len(t, table.Chart.Series, 3)
	assert.Equal(t, "Yes", table.Chart.Series[0].Name)
	assert.Equal(t, []string{"Male", "Female"}, pointXs(table.Chart.Series[0]))
	// Male: Yes, No, Yes.
	assert.Equal(t, 66.7, table.Chart.Series[0].Data[0].Y)
}

func TestVariableTruncationNote(t *testing.T) {
	svc := newVariableService(fixtureDataset())

	req := variableRequest("H3_ContinueWithoutSupport", "A7_Sex")
	req.LimitCategories = 2
	req.Stat = "counts"
	table, err := svc.Table(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"Variable categories limited to top 2"}, table.Meta.Notes)
	assert.Equal(t, "Count", table.Chart.Labels.Y)
	names := []string{table.Chart.Series[0].Name, table.Chart.Series[1].Name}
	assert.Equal(t, []string{"Yes", "Other"}, names)
}

func TestVariableRareCategoryNote(t *testing.T) {
	svc := newVariableService(fixtureDataset())

	req := variableRequest("H3_ContinueWithoutSupport", "A7_Sex")
	req.MinCount = 2
	req.Stat = "counts"
	table, err := svc.Table(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"Variable categories seen fewer than 2 times merged into Other (n<2)"}, table.Meta.Notes)

	names := make([]string, 0, len(table.Chart.Series))
	for _, s := range table.Chart.Series {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "Other (n<2)")
	assert.NotContains(t, names, "No")

	dist, err := svc.Table(context.Background(), variableRequest("A7_Sex", ""))
	require.NoError(t, err)
	assert.Empty(t, dist.Meta.Notes)
}

func TestVariableNumericOverflowIsValidationError(t *testing.T) {
	ds := testkit.Rows(
		map[string]any{"A7_Sex": "Male", "A8_Age": -1e308},
		map[string]any{"A7_Sex": "Male", "A8_Age": 1e308},
		map[string]any{"A7_Sex": "Female", "A8_Age": 40},
	)
	svc := newVariableService(ds)

	_, err := svc.Table(context.Background(), variableRequest("A8_Age", "A7_Sex"))
	appErr := requireCode(t, err, apperrors.CodeValidationError)
	assert.Contains(t, appErr.Message, "too large to summarize")
}

func TestVariableNumericSummary(t *testing.T) {
	svc := newVariableService(fixtureDataset())

	table, err := svc.Table(context.Background(), variableRequest("A8_Age", "A7_Sex"))
	require.NoError(t, err)

	assert.Equal(t, "summary", table.Meta.Stat)
	assert.Equal(t, 5, table.Meta.N)
	assert.Equal(t, []string{"Histogram computed with 10 bins"}, table.Meta.Notes)
	assert.Contains(t, table.HTML, "A8_Age summary by A7_Sex")

	chart := table.Chart
	assert.Equal(t, survey.ChartGroupedBar, chart.Kind)
	require.Len(t, chart.Series, 1)
	means := chart.Series[0]
	assert.Equal(t, []string{"Male", "Female"}, pointXs(means))
	assert.InDelta(t, 26.5, means.Data[0].Y, 1e-9)
	assert.InDelta(t, 43.0, means.Data[1].Y, 1e-9)
	require.NotNil(t, means.Data[0].Error)

	require.NotNil(t, chart.Histogram)
	assert.Equal(t, survey.ChartHistogram, chart.Histogram.Kind)
	total := 0.0
	for _, s := range chart.Histogram.Series {
		require.Len(t, s.Data, 10)
		for _, p := range s.Data {
			total += p.Y
		}
	}
	assert.Equal(t, 5.0, total)
}

func TestVariableBandedTopBreak(t *testing.T) {
	svc := newVariableService(fixtureDataset())

	table, err := svc.Table(context.Background(), variableRequest("B2_Participation", "A8_Age"))
	require.NoError(t, err)
	assert.Equal(t, 5, table.Meta.N)
	require.NotEmpty(t, table.Chart.Series)
	assert.Equal(t, []string{"15-24", "25-34", "35-44", "55+"}, pointXs(table.Chart.Series[0]))
}

func TestVariableDistribution(t *testing.T) {
	svc := newVariableService(fixtureDataset())

	table, err := svc.Table(context.Background(), variableRequest("H3_ContinueWithoutSupport", ""))
	require.NoError(t, err)

	assert.Nil(t, table.Meta.TopBreak)
	assert.Equal(t, "counts", table.Meta.Stat)
	assert.Equal(t, 6, table.Meta.N)
	assert.Contains(t, table.HTML, "Distribution of H3_ContinueWithoutSupport")

	assert.Equal(t, survey.ChartBar, table.Chart.Kind)
	require.Len(t, table.Chart.Series, 1)
	assert.Equal(t, []string{"Yes", "Unsure", "No"}, pointXs(table.Chart.Series[0]))
	assert.Equal(t, 3.0, table.Chart.Series[0].Data[0].Y)
}

func TestVariableDistributionExpandsMultiSelect(t *testing.T) {
	svc := newVariableService(fixtureDataset())

	table, err := svc.Table(context.Background(), variableRequest("B4_SupportType", ""))
	require.NoError(t, err)
	assert.Equal(t, 6, table.Meta.N)
	assert.Equal(t, []string{"Training", "Finance", "Inputs"}, pointXs(table.Chart.Series[0]))
}

func TestVariableTake(t *testing.T) {
	svc := newVariableService(fixtureDataset())

	req := variableRequest("A7_Sex", "")
	req.Take = 2
	table, err := svc.Table(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Meta.N)
}

func TestVariableValidationOrder(t *testing.T) {
	ctx := context.Background()

	empty := newVariableService(survey.Dataset{})
	_, err := empty.Table(ctx, DefaultVariableRequest())
	appErr := requireCode(t, err, apperrors.CodeEmptyDataset)
	assert.Equal(t, "Dataset is empty", appErr.Message)

	svc := newVariableService(fixtureDataset())
	cases := []struct {
		name string
		req  VariableRequest
		msg  string
		kind error
	}{
		{"missing variable", DefaultVariableRequest(), "variable parameter is required", core.ErrMissingParam},
		{"bad stat before unknown variable", VariableRequest{Variable: "Nope", Stat: "mean"}, "Unsupported stat 'mean'", core.ErrInvalidMode},
		{"unknown variable", variableRequest("Nope", "AlsoNope"), "Unknown variable 'Nope'", core.ErrUnknownField},
		{"unknown top break", variableRequest("A7_Sex", "Nope"), "Unknown top break 'Nope'", core.ErrUnknownField},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Table(ctx, tc.req)
			appErr := requireCode(t, err, apperrors.CodeValidationError)
			assert.Equal(t, tc.msg, appErr.Message)
			assert.ErrorIs(t, err, tc.kind)
		})
	}
}

func TestVariableEmptyJoinMessages(t *testing.T) {
	svc := newVariableService(fixtureDataset())
	ctx := context.Background()

	_, err := svc.Table(ctx, variableRequest("Z_Blank", "A7_Sex"))
	appErr := requireCode(t, err, apperrors.CodeEmptyJoin)
	assert.Equal(t, "No overlapping records for the selected fields", appErr.Message)

	_, err = svc.Table(ctx, variableRequest("Z_Blank", ""))
	appErr = requireCode(t, err, apperrors.CodeEmptyJoin)
	assert.Equal(t, "No records available for the selected variable", appErr.Message)
}

func TestSchemaCandidates(t *testing.T) {
	cb := codebook.Default()
	ds := testkit.NewSurveyGenerator(testkit.DefaultSurveyConfig(), cb).Generate()
	svc := NewVariableService(providerFor(ds), cb, render.New())

	schema, err := svc.Schema(context.Background())
	require.NoError(t, err)

	assert.Len(t, schema.Fields, len(ds.Fields))
	assert.Contains(t, schema.NumericCandidates, "A8_Age")
	assert.Contains(t, schema.NumericCandidates, "A11_HouseholdSize")
	assert.Contains(t, schema.CategoricalCandidates, "A7_Sex")
	assert.NotContains(t, schema.CategoricalCandidates, "SubmissionID")

	require.GreaterOrEqual(t, len(schema.TopbreakCandidates), 5)
	assert.Equal(t, []string{"A3_LGA", "A7_Sex", "A8_Age", "C4_EmploymentStatus", "H1_Satisfaction"}, schema.TopbreakCandidates[:5])
	rest := schema.TopbreakCandidates[5:]
	assert.IsNonDecreasing(t, rest)
	assert.NotContains(t, rest, "A7_Sex")
}

func TestSchemaOnEmptyDataset(t *testing.T) {
	svc := newVariableService(survey.Dataset{})

	schema, err := svc.Schema(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, schema.Fields)
	assert.Empty(t, schema.TopbreakCandidates)
}

func TestVariableResultsCachedPerSnapshot(t *testing.T) {
	provider := providerFor(fixtureDataset())
	svc := NewVariableService(provider, codebook.Default(), render.NewWithClock(fixedClock))
	ctx := context.Background()
	req := DefaultVariableRequest()
	req.Variable = "H3_ContinueWithoutSupport"
	req.TopBreak = "A7_Sex"

	first, err := svc.Table(ctx, req)
	require.NoError(t, err)
	first.Meta.Notes = append(first.Meta.Notes, "caller note")

	second, err := svc.Table(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.HTML, second.HTML)
	assert.NotContains(t, second.Meta.Notes, "caller note")
	assert.Equal(t, 1, svc.results.Len())

	_, err = provider.Refresh(ctx)
	require.NoError(t, err)
	_, err = svc.Table(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 2, svc.results.Len())
}
