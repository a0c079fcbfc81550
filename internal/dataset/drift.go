package dataset

import (
	"math"
	"sort"

	"surveytab/domain/survey"
)

// DriftSeverity ranks how disruptive a schema change is for saved requests
type DriftSeverity int

const (
	DriftSeverityNone DriftSeverity = iota
	DriftSeverityLow
	DriftSeverityMedium
	DriftSeverityHigh
)

func (s DriftSeverity) String() string {
	switch s {
	case DriftSeverityLow:
		return "low"
	case DriftSeverityMedium:
		return "medium"
	case DriftSeverityHigh:
		return "high"
	default:
		return "none"
	}
}

// ChangeType names what changed about a field between snapshots
type ChangeType string

const (
	ChangeFieldAdded       ChangeType = "field_added"
	ChangeFieldRemoved     ChangeType = "field_removed"
	ChangeKindChanged      ChangeType = "kind_changed"
	ChangeMultiSelect      ChangeType = "multi_select_changed"
	ChangeCardinalityShift ChangeType = "cardinality_shift"
)

// FieldChange is one detected difference
type FieldChange struct {
	Field    string        `json:"field"`
	Type     ChangeType    `json:"type"`
	Old      interface{}   `json:"old,omitempty"`
	New      interface{}   `json:"new,omitempty"`
	Severity DriftSeverity `json:"severity"`
}

// DriftReport compares the field descriptors of two snapshots
type DriftReport struct {
	Changes     []FieldChange `json:"changes"`
	Severity    DriftSeverity `json:"severity"`
	ImpactScore float64       `json:"impact_score"`
}

// DriftThresholds configures drift sensitivity
type DriftThresholds struct {
	CardinalityChangePercent float64
	KindChangePenalty        float64
	FieldRemovalPenalty      float64
	FieldAdditionPenalty     float64
}

// DefaultDriftThresholds returns the thresholds the cache uses
func DefaultDriftThresholds() DriftThresholds {
	return DriftThresholds{
		CardinalityChangePercent: 50,
		KindChangePenalty:        3,
		FieldRemovalPenalty:      5,
		FieldAdditionPenalty:     0.5,
	}
}

// DriftDetector finds schema changes between consecutive snapshots
type DriftDetector struct {
	thresholds DriftThresholds
}

// NewDriftDetector creates a detector
func NewDriftDetector(thresholds DriftThresholds) *DriftDetector {
	return &DriftDetector{thresholds: thresholds}
}

// Detect lists the changes from baseline to current, ordered by field name
func (d *DriftDetector) Detect(baseline, current []survey.FieldDescriptor) *DriftReport {
	report := &DriftReport{Changes: []FieldChange{}}
	old := survey.IndexFields(baseline)
	cur := survey.IndexFields(current)

	for name, f := range old {
		if _, ok := cur[name]; !ok {
			report.Changes = append(report.Changes, FieldChange{
				Field: name, Type: ChangeFieldRemoved, Old: f.Kind, Severity: DriftSeverityHigh,
			})
		}
	}
	for name, f := range cur {
		prev, ok := old[name]
		if !ok {
			report.Changes = append(report.Changes, FieldChange{
				Field: name, Type: ChangeFieldAdded, New: f.Kind, Severity: DriftSeverityLow,
			})
			continue
		}
		report.Changes = append(report.Changes, d.compare(prev, f)...)
	}

	sort.SliceStable(report.Changes, func(i, j int) bool {
		return report.Changes[i].Field < report.Changes[j].Field
	})
	for _, c := range report.Changes {
		if c.Severity > report.Severity {
			report.Severity = c.Severity
		}
	}
	report.ImpactScore = d.impact(report.Changes)
	return report
}

func (d *DriftDetector) compare(prev, cur survey.FieldDescriptor) []FieldChange {
	if prev.Kind != cur.Kind {
		// categorical <-> ordinal keeps aggregation; only the order changes
		severity := DriftSeverityHigh
		if prev.Kind.IsCategorical() && cur.Kind.IsCategorical() {
			severity = DriftSeverityLow
		}
		return []FieldChange{{Field: cur.Name, Type: ChangeKindChanged, Old: prev.Kind, New: cur.Kind, Severity: severity}}
	}

	var changes []FieldChange
	if prev.MultiSelect != cur.MultiSelect {
		changes = append(changes, FieldChange{
			Field: cur.Name, Type: ChangeMultiSelect, Old: prev.MultiSelect, New: cur.MultiSelect, Severity: DriftSeverityMedium,
		})
	}
	if cur.Kind.IsCategorical() && d.cardinalityShifted(prev.DistinctCount, cur.DistinctCount) {
		changes = append(changes, FieldChange{
			Field: cur.Name, Type: ChangeCardinalityShift, Old: prev.DistinctCount, New: cur.DistinctCount, Severity: DriftSeverityLow,
		})
	}
	return changes
}

func (d *DriftDetector) cardinalityShifted(prev, cur int) bool {
	if prev == 0 {
		return cur > 10
	}
	pct := math.Abs(float64(cur-prev)) / float64(prev) * 100
	return pct > d.thresholds.CardinalityChangePercent
}

// impact is a weighted 0-1 score over the changes
func (d *DriftDetector) impact(changes []FieldChange) float64 {
	if len(changes) == 0 {
		return 0
	}
	total := 0.0
	for _, c := range changes {
		total += float64(c.Severity) * d.multiplier(c.Type)
	}
	max := float64(len(changes)) * float64(DriftSeverityHigh) * d.thresholds.FieldRemovalPenalty
	if max == 0 {
		return 0
	}
	return math.Min(1, total/max)
}

func (d *DriftDetector) multiplier(t ChangeType) float64 {
	switch t {
	case ChangeFieldRemoved:
		return d.thresholds.FieldRemovalPenalty
	case ChangeKindChanged:
		return d.thresholds.KindChangePenalty
	case ChangeFieldAdded:
		return d.thresholds.FieldAdditionPenalty
	case ChangeMultiSelect:
		return 2
	default:
		return 1.5
	}
}
