package crosstab

import "surveytab/domain/survey"

// SeriesSpec names one group compared on a cohort chart.
type SeriesSpec struct {
	Key    string
	Label  string
	Colour string
}

// CohortChart compares the share of each label within each named group.
// labels and groups are parallel: groups[i] is the group of labels[i].
// Values are percentages of the group's own total, so groups of different
// size compare directly. It returns nil when there is nothing to compare.
func CohortChart(axis string, labels, groups []string, specs []SeriesSpec, order []string) *survey.ChartPayload {
	if len(specs) == 0 {
		return nil
	}
	wanted := make(map[string]int, len(specs))
	for k, s := range specs {
		wanted[s.Key] = k
	}

	counts := make([]map[string]int, len(specs))
	for k := range counts {
		counts[k] = make(map[string]int)
	}
	totals := make([]int, len(specs))
	var observed []string
	for i, l := range labels {
		k, ok := wanted[groups[i]]
		if !ok {
			continue
		}
		counts[k][l]++
		totals[k]++
		observed = append(observed, l)
	}
	if len(observed) == 0 {
		return nil
	}

	payload := &survey.ChartPayload{
		Axis:   axis,
		Labels: survey.OrderLabels(observed, order),
	}
	for k, s := range specs {
		data := make([]float64, len(payload.Labels))
		for i, l := range payload.Labels {
			data[i] = percent(float64(counts[k][l]), float64(totals[k]))
		}
		payload.Datasets = append(payload.Datasets, survey.Series{
			Label:  s.Label,
			Colour: s.Colour,
			Data:   data,
		})
	}
	return payload
}

// ViewChart draws a normalized view as stacked bars: one series per column,
// one point per row.
func ViewChart(v View, axis string) *survey.VariableChart {
	chart := &survey.VariableChart{
		Kind:   survey.ChartStackedBar,
		X:      axis,
		Labels: survey.AxisLabels{X: axis, Y: yLabel(v.Mode)},
	}
	for j, col := range v.Cols {
		s := survey.PointSeries{Name: col, Data: make([]survey.Point, len(v.Rows))}
		for i, row := range v.Rows {
			s.Data[i] = survey.Point{X: row, Y: v.Cells[i][j]}
		}
		chart.Series = append(chart.Series, s)
	}
	return chart
}

// DistributionChart draws a one-axis table as plain bars of counts.
func DistributionChart(t *Table, axis string) *survey.VariableChart {
	s := survey.PointSeries{Name: "count", Data: make([]survey.Point, len(t.Rows))}
	for i, row := range t.Rows {
		s.Data[i] = survey.Point{X: row, Y: float64(t.RowTotals[i])}
	}
	return &survey.VariableChart{
		Kind:   survey.ChartBar,
		X:      axis,
		Series: []survey.PointSeries{s},
		Labels: survey.AxisLabels{X: axis, Y: "Count"},
	}
}

func yLabel(m survey.Mode) string {
	if m.IsPercent() {
		return "Percent"
	}
	return "Count"
}
