// Package analysis derives short narrative observations from chart payloads.
package analysis

import (
	"fmt"
	"math"
	"strings"

	"surveytab/domain/survey"
)

// Guidance sentences appended after the headline comparison.
const (
	ColumnPercentNote = "Column percentages allow stakeholders to compare programme reach between pathways regardless of sample size differences."
	CountModeNote     = "Switch to Row % or Total % to normalise for different respondent bases across banners."
	PercentModeNote   = "Download the crosstab to slice deeper by demographics or support type combinations."
)

// Insights compares the first two series of a payload. The headline names
// the label with the largest absolute difference (the earliest label wins a
// tie); a positive difference reads "higher" and anything else "lower".
// It returns nil when there is nothing to compare.
func Insights(p *survey.ChartPayload, mode survey.Mode) []string {
	if p == nil || len(p.Labels) == 0 || len(p.Datasets) < 2 {
		return nil
	}
	first, second := p.Datasets[0], p.Datasets[1]

	n := len(p.Labels)
	if len(first.Data) < n {
		n = len(first.Data)
	}
	if len(second.Data) < n {
		n = len(second.Data)
	}
	if n == 0 {
		return nil
	}

	best, delta := 0, first.Data[0]-second.Data[0]
	for i := 1; i < n; i++ {
		d := first.Data[i] - second.Data[i]
		if math.Abs(d) > math.Abs(delta) {
			best, delta = i, d
		}
	}

	direction := "lower"
	if delta > 0 {
		direction = "higher"
	}

	insights := []string{
		fmt.Sprintf("%s group shows %.1f percentage points %s %s compared with the %s group.",
			first.Label, math.Abs(delta), direction, strings.ToLower(p.Labels[best]), strings.ToLower(second.Label)),
		ColumnPercentNote,
	}
	if mode == survey.ModeCount {
		insights = append(insights, CountModeNote)
	} else {
		insights = append(insights, PercentModeNote)
	}
	return insights
}
