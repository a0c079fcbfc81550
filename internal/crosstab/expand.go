// Package crosstab turns survey records into contingency tables: multi-select
// expansion, categorical bucketing, count tables with margins and their
// percentage views.
package crosstab

import "surveytab/domain/survey"

// Expand replicates each record once per selection of every named field.
// A record whose named field is missing or has no selections is dropped.
// Scalar values pass through. Expanding several fields yields their
// cartesian product; expansions of one record stay contiguous.
func Expand(ds survey.Dataset, fields []string) survey.Dataset {
	if len(fields) == 0 {
		return ds.View()
	}
	out := make([]survey.Record, 0, len(ds.Records))
	for _, rec := range ds.Records {
		out = append(out, expandRecord(rec, fields)...)
	}
	return survey.Dataset{Fields: ds.Fields, Records: out}
}

func expandRecord(rec survey.Record, fields []string) []survey.Record {
	current := []survey.Record{rec}
	for _, field := range fields {
		var next []survey.Record
		for _, r := range current {
			v := r.Get(field)
			switch v.Kind() {
			case survey.KindMissing:
				continue
			case survey.KindMulti:
				for _, item := range v.Items() {
					next = append(next, r.With(field, survey.Text(item)))
				}
			default:
				next = append(next, r)
			}
		}
		if len(next) == 0 {
			return nil
		}
		current = next
	}
	return current
}

// SelectionCount sums list lengths of a field over the dataset; scalars count
// once and missing values not at all.
func SelectionCount(ds survey.Dataset, field string) int {
	n := 0
	for _, rec := range ds.Records {
		v := rec.Get(field)
		switch v.Kind() {
		case survey.KindMissing:
		case survey.KindMulti:
			n += len(v.Items())
		default:
			n++
		}
	}
	return n
}
