package app

import (
	"context"
	"sort"

	"surveytab/domain/snapshot"
	"surveytab/domain/survey"
	"surveytab/internal/codebook"
	apperrors "surveytab/internal/errors"
	"surveytab/ports"
)

// breakColumn reads a field as categories. Fields with a codebook band are
// cut into band labels first (values that are not numbers become missing).
// The second result is the display order: band labels, the ordinal order,
// or nil for first appearance.
func breakColumn(cb *codebook.Codebook, snap *snapshot.Snapshot, ds survey.Dataset, field string) ([]survey.Value, []string) {
	values := ds.Column(field)
	if band, ok := cb.Band(field); ok {
		out := make([]survey.Value, len(values))
		for i, v := range values {
			f, ok := v.Float()
			if !ok {
				continue
			}
			if label, ok := band.Apply(f); ok {
				out[i] = survey.Text(label)
			}
		}
		return out, band.Labels
	}
	return values, displayOrder(cb, snap, field)
}

func displayOrder(cb *codebook.Codebook, snap *snapshot.Snapshot, field string) []string {
	if fd, ok := snap.Field(field); ok && len(fd.OrderedCategories) > 0 {
		return fd.OrderedCategories
	}
	return cb.Order(field)
}

// multiFields keeps the fields that hold selection lists, either declared in
// the codebook or detected in the snapshot.
func multiFields(cb *codebook.Codebook, snap *snapshot.Snapshot, fields ...string) []string {
	var out []string
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f] {
			continue
		}
		seen[f] = true
		fd, ok := snap.Field(f)
		if cb.IsMultiSelect(f) || (ok && fd.MultiSelect) {
			out = append(out, f)
		}
	}
	return out
}

// frequencyOrder sorts labels by descending count; ties keep first appearance.
func frequencyOrder(labels []string) []string {
	counts := make(map[string]int)
	for _, l := range labels {
		counts[l]++
	}
	order := survey.OrderLabels(labels, nil)
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	return order
}

// loadSnapshot fetches the current snapshot, classifying failures.
func loadSnapshot(ctx context.Context, provider ports.SnapshotProvider) (*snapshot.Snapshot, error) {
	snap, err := provider.Get(ctx)
	if err != nil {
		return nil, apperrors.FromDomain(err)
	}
	return snap, nil
}
