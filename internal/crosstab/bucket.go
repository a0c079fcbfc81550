package crosstab

import (
	"fmt"
	"sort"

	"surveytab/domain/survey"
)

const (
	// OtherLabel collects categories cut by the cardinality cap.
	OtherLabel = "Other"
	// DefaultMissingLabel replaces missing values when they are kept.
	DefaultMissingLabel = "Missing"
)

// RareLabel is the bucket for categories seen fewer than k times.
func RareLabel(k int) string {
	return fmt.Sprintf("Other (n<%d)", k)
}

// Policy bounds the label set produced by Bucket.
type Policy struct {
	Cap          int // 0 = unlimited
	MinCount     int
	DropMissing  bool
	MissingLabel string
}

// Bucketed is a bucketed sequence. Labels and Rows are parallel: Rows[i] is
// the index of the source value that produced Labels[i].
type Bucketed struct {
	Labels      []string
	Rows        []int
	RawDistinct int
	Truncated   bool
	Merged      bool
}

// Len returns the number of bucketed entries.
func (b Bucketed) Len() int { return len(b.Labels) }

// Distinct returns the label set in first-appearance order.
func (b Bucketed) Distinct() []string {
	return survey.OrderLabels(b.Labels, nil)
}

// Bucket reduces raw values to a bounded label set. Missing values (and
// multi-select values with no selections) are dropped or relabeled, labels
// rarer than MinCount are merged, and when more than Cap labels remain the
// Cap-1 most frequent are kept and the rest become "Other". Frequency ties
// go to the label that appeared first.
func Bucket(values []survey.Value, p Policy) Bucketed {
	missing := p.MissingLabel
	if missing == "" {
		missing = DefaultMissingLabel
	}

	out := Bucketed{
		Labels: make([]string, 0, len(values)),
		Rows:   make([]int, 0, len(values)),
	}
	raw := make(map[string]bool)
	for i, v := range values {
		if isMissing(v) {
			if p.DropMissing {
				continue
			}
			out.Labels = append(out.Labels, missing)
			out.Rows = append(out.Rows, i)
			continue
		}
		label := v.String()
		raw[label] = true
		out.Labels = append(out.Labels, label)
		out.Rows = append(out.Rows, i)
	}
	out.RawDistinct = len(raw)
	if len(out.Labels) == 0 {
		return out
	}

	if p.MinCount > 1 {
		counts := frequencies(out.Labels)
		rare := RareLabel(p.MinCount)
		for i, l := range out.Labels {
			if counts[l].n < p.MinCount {
				if l != rare {
					out.Merged = true
				}
				out.Labels[i] = rare
			}
		}
	}

	counts := frequencies(out.Labels)
	if p.Cap > 0 && len(counts) > p.Cap {
		ranked := make([]string, 0, len(counts))
		for l := range counts {
			ranked = append(ranked, l)
		}
		sort.Slice(ranked, func(i, j int) bool {
			a, b := counts[ranked[i]], counts[ranked[j]]
			if a.n != b.n {
				return a.n > b.n
			}
			return a.first < b.first
		})
		keep := make(map[string]bool, p.Cap-1)
		for _, l := range ranked[:p.Cap-1] {
			keep[l] = true
		}
		for i, l := range out.Labels {
			if !keep[l] && l != OtherLabel {
				out.Labels[i] = OtherLabel
				out.Truncated = true
			}
		}
	}
	return out
}

type frequency struct {
	n     int
	first int
}

func frequencies(labels []string) map[string]frequency {
	counts := make(map[string]frequency)
	for i, l := range labels {
		f, ok := counts[l]
		if !ok {
			f.first = i
		}
		f.n++
		counts[l] = f
	}
	return counts
}

func isMissing(v survey.Value) bool {
	if v.IsMissing() {
		return true
	}
	return v.Kind() == survey.KindMulti && len(v.Items()) == 0
}
