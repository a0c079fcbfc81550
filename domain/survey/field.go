package survey

// FieldKind classifies how a field is aggregated.
type FieldKind string

const (
	FieldCategorical FieldKind = "categorical"
	FieldNumeric     FieldKind = "numeric"
	// FieldOrdinal fields aggregate as categorical and carry a display order.
	FieldOrdinal FieldKind = "ordinal"
)

// IsCategorical reports whether the field aggregates as categories.
func (k FieldKind) IsCategorical() bool {
	return k == FieldCategorical || k == FieldOrdinal
}

// FieldDescriptor describes one field of a dataset snapshot.
type FieldDescriptor struct {
	Name              string    `json:"name"`
	Kind              FieldKind `json:"type"`
	DistinctCount     int       `json:"distinct_count"`
	NumericRatio      float64   `json:"numeric_ratio"`
	MultiSelect       bool      `json:"multi_select,omitempty"`
	OrderedCategories []string  `json:"ordered_categories,omitempty"`
}

// FieldIndex looks descriptors up by name.
type FieldIndex map[string]FieldDescriptor

// IndexFields builds a lookup over a descriptor list.
func IndexFields(fields []FieldDescriptor) FieldIndex {
	idx := make(FieldIndex, len(fields))
	for _, f := range fields {
		idx[f.Name] = f
	}
	return idx
}
