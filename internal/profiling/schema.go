// Package profiling describes dataset fields and summarizes numeric fields.
package profiling

import (
	"surveytab/domain/core"
	"surveytab/domain/survey"
)

// NumericThreshold is the share of parseable values that makes a field numeric.
const NumericThreshold = 0.8

// InferSchema classifies every field of the dataset. Fields with a declared
// order are ordinal; otherwise a field is numeric when at least 80% of its
// non-missing values parse as numbers. Selections of multi-select values are
// counted individually toward distinct_count and are never numeric.
func InferSchema(ds survey.Dataset, ordinals map[string][]string) []survey.FieldDescriptor {
	fields := make([]survey.FieldDescriptor, 0, len(ds.Fields))
	for _, name := range ds.Fields {
		fields = append(fields, describe(name, ds.Column(name), ordinals[name]))
	}
	return fields
}

// RequireSchema is InferSchema for callers that cannot work without data.
func RequireSchema(ds survey.Dataset, ordinals map[string][]string) ([]survey.FieldDescriptor, error) {
	if ds.Len() == 0 {
		return nil, core.ErrEmptyDataset
	}
	return InferSchema(ds, ordinals), nil
}

func describe(name string, values []survey.Value, order []string) survey.FieldDescriptor {
	distinct := make(map[string]bool)
	present, numeric := 0, 0
	multi := false

	for _, v := range values {
		switch v.Kind() {
		case survey.KindMissing:
			continue
		case survey.KindMulti:
			items := v.Items()
			if len(items) == 0 {
				continue
			}
			multi = true
			present++
			for _, it := range items {
				distinct[it] = true
			}
		default:
			present++
			distinct[v.String()] = true
			if _, ok := v.Float(); ok {
				numeric++
			}
		}
	}

	fd := survey.FieldDescriptor{
		Name:          name,
		Kind:          survey.FieldCategorical,
		DistinctCount: len(distinct),
		MultiSelect:   multi,
	}
	if present > 0 {
		fd.NumericRatio = float64(numeric) / float64(present)
	}
	switch {
	case len(order) > 0:
		fd.Kind = survey.FieldOrdinal
		fd.OrderedCategories = append([]string(nil), order...)
	case present > 0 && fd.NumericRatio >= NumericThreshold:
		fd.Kind = survey.FieldNumeric
	}
	return fd
}
