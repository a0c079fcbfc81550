package profiling

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	gonumstat "gonum.org/v1/gonum/stat"

	"surveytab/domain/core"
	"surveytab/domain/survey"
)

// DefaultBins is the histogram bin count when none is requested.
const DefaultBins = 10

// NumericOptions configures SummarizeNumeric.
type NumericOptions struct {
	Bins       int
	GroupOrder []string
}

// GroupSummary holds descriptive statistics for one group.
type GroupSummary struct {
	Group  string  `json:"group"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
}

// Histogram shares one set of equal-width bins across all groups.
type Histogram struct {
	Edges  []float64        `json:"edges"`
	Labels []string         `json:"labels"`
	Counts map[string][]int `json:"counts"`
}

// NumericSummary is the per-group summary of a numeric field.
type NumericSummary struct {
	N         int            `json:"n"`
	Groups    []GroupSummary `json:"groups"`
	Histogram Histogram      `json:"histogram"`
}

// SummarizeNumeric summarizes values by group. groups and values are
// parallel; entries with an empty group or a non-numeric value are skipped.
// Std is the sample standard deviation (n-1 denominator) and is 0 for a
// group of one. Histogram bins span the minimum to maximum over every group;
// each bin is half-open except the last, which is closed.
func SummarizeNumeric(groups []string, values []survey.Value, opts NumericOptions) (*NumericSummary, error) {
	if len(groups) != len(values) {
		return nil, fmt.Errorf("profiling: %d groups for %d values", len(groups), len(values))
	}
	bins := opts.Bins
	if bins <= 0 {
		bins = DefaultBins
	}

	byGroup := make(map[string][]float64)
	var seen []string
	var all []float64
	for i, g := range groups {
		if g == "" {
			continue
		}
		f, ok := values[i].Float()
		if !ok {
			continue
		}
		byGroup[g] = append(byGroup[g], f)
		seen = append(seen, g)
		all = append(all, f)
	}
	if len(all) == 0 {
		return nil, core.ErrEmptyJoin
	}

	summary := &NumericSummary{N: len(all)}
	order := survey.OrderLabels(seen, opts.GroupOrder)
	for _, g := range order {
		gs, err := describeGroup(g, byGroup[g])
		if err != nil {
			return nil, err
		}
		summary.Groups = append(summary.Groups, gs)
	}

	lo, hi := floats.Min(all), floats.Max(all)
	summary.Histogram = histogram(order, byGroup, lo, hi, bins)
	return summary, nil
}

func describeGroup(name string, data []float64) (GroupSummary, error) {
	mean, err := stats.Mean(data)
	if err != nil {
		return GroupSummary{}, err
	}
	median, err := stats.Median(data)
	if err != nil {
		return GroupSummary{}, err
	}
	std := 0.0
	if len(data) > 1 {
		std, err = stats.StandardDeviationSample(data)
		if err != nil {
			return GroupSummary{}, err
		}
	}
	if !isFinite(mean) || !isFinite(std) {
		return GroupSummary{}, fmt.Errorf("%w: values of group '%s' are too large to summarize", core.ErrValidation, name)
	}
	return GroupSummary{Group: name, Count: len(data), Mean: mean, Median: median, Std: std}, nil
}

func histogram(order []string, byGroup map[string][]float64, lo, hi float64, bins int) Histogram {
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	edges := spanEdges(lo, hi, bins)

	// stat.Histogram treats the last bin as half-open; nudge its upper
	// divider so the maximum lands inside.
	dividers := append([]float64(nil), edges...)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	h := Histogram{
		Edges:  edges,
		Labels: make([]string, bins),
		Counts: make(map[string][]int, len(order)),
	}
	for i := 0; i < bins; i++ {
		h.Labels[i] = fmt.Sprintf("%.1f–%.1f", edges[i], edges[i+1])
	}

	buf := make([]float64, bins)
	for _, g := range order {
		sorted := append([]float64(nil), byGroup[g]...)
		sort.Float64s(sorted)
		for i := range buf {
			buf[i] = 0
		}
		gonumstat.Histogram(buf, dividers, sorted, nil)
		counts := make([]int, bins)
		for i, c := range buf {
			counts[i] = int(c)
		}
		h.Counts[g] = counts
	}
	return h
}

// spanEdges returns bins+1 equal-width edges from lo to hi. A range wider
// than float64 can hold is stepped in scaled form.
func spanEdges(lo, hi float64, bins int) []float64 {
	if !math.IsInf(hi-lo, 0) {
		return floats.Span(make([]float64, bins+1), lo, hi)
	}
	step := hi/float64(bins) - lo/float64(bins)
	edges := make([]float64, bins+1)
	for i := range edges {
		edges[i] = lo + float64(i)*step
	}
	edges[bins] = hi
	return edges
}

func isFinite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

// Charts draws the summary as a bar per group mean with std error bars and
// a histogram of the shared bins.
func (s *NumericSummary) Charts(axis, variable string) *survey.VariableChart {
	means := survey.PointSeries{Name: "mean"}
	for _, g := range s.Groups {
		std := g.Std
		means.Data = append(means.Data, survey.Point{X: g.Group, Y: g.Mean, Error: &std})
	}

	hist := &survey.VariableChart{
		Kind:   survey.ChartHistogram,
		X:      "value_bin",
		Labels: survey.AxisLabels{X: "Value bin", Y: "Count"},
	}
	for _, g := range s.Groups {
		ps := survey.PointSeries{Name: g.Group}
		for i, label := range s.Histogram.Labels {
			ps.Data = append(ps.Data, survey.Point{X: label, Y: float64(s.Histogram.Counts[g.Group][i])})
		}
		hist.Series = append(hist.Series, ps)
	}

	return &survey.VariableChart{
		Kind:      survey.ChartGroupedBar,
		X:         axis,
		Series:    []survey.PointSeries{means},
		Labels:    survey.AxisLabels{X: axis, Y: "Mean " + variable},
		Histogram: hist,
	}
}
