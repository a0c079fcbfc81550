package survey

import (
	"encoding/json"
	"sort"
	"strings"
)

// Record maps field names to values. An absent field reads as Missing.
type Record map[string]Value

// Get returns the value of a field, Missing when absent.
func (r Record) Get(field string) Value {
	if r == nil {
		return Missing()
	}
	return r[field]
}

// With returns a copy of the record with one field replaced.
func (r Record) With(field string, v Value) Record {
	out := make(Record, len(r)+1)
	for k, val := range r {
		out[k] = val
	}
	out[field] = v
	return out
}

// Dataset is an ordered sequence of records sharing a field namespace.
// Datasets are treated as immutable: every operation returns a new view.
type Dataset struct {
	Fields  []string `json:"fields"`
	Records []Record `json:"records"`
}

// NewDataset builds a dataset and derives the field list in first-appearance
// order. Within a record, keys are visited in sorted order so the result does
// not depend on map iteration.
func NewDataset(records []Record) Dataset {
	seen := make(map[string]bool)
	var fields []string
	for _, rec := range records {
		for _, k := range sortedKeys(rec) {
			if !seen[k] {
				seen[k] = true
				fields = append(fields, k)
			}
		}
	}
	return Dataset{Fields: fields, Records: records}
}

// FromRows converts decoded JSON-ish rows through FromAny.
func FromRows(rows []map[string]any) Dataset {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec := make(Record, len(row))
		for k, raw := range row {
			rec[strings.TrimSpace(k)] = FromAny(raw)
		}
		records = append(records, rec)
	}
	return NewDataset(records)
}

// Len returns the number of records.
func (d Dataset) Len() int { return len(d.Records) }

// HasField reports whether the dataset declares a field.
func (d Dataset) HasField(name string) bool {
	for _, f := range d.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// Head returns the first n records; n <= 0 means all.
func (d Dataset) Head(n int) Dataset {
	if n <= 0 || n >= len(d.Records) {
		return d.View()
	}
	return Dataset{Fields: d.Fields, Records: d.Records[:n:n]}
}

// Filter returns the records for which keep returns true.
func (d Dataset) Filter(keep func(Record) bool) Dataset {
	out := make([]Record, 0, len(d.Records))
	for _, rec := range d.Records {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	return Dataset{Fields: d.Fields, Records: out}
}

// View returns a private slice header over the same records. Records are
// never mutated in place, so sharing them is safe.
func (d Dataset) View() Dataset {
	records := make([]Record, len(d.Records))
	copy(records, d.Records)
	fields := make([]string, len(d.Fields))
	copy(fields, d.Fields)
	return Dataset{Fields: fields, Records: records}
}

// Column returns the values of one field in record order.
func (d Dataset) Column(field string) []Value {
	out := make([]Value, len(d.Records))
	for i, rec := range d.Records {
		out[i] = rec.Get(field)
	}
	return out
}

// UnmarshalJSON accepts either {"fields": [...], "records": [...]} or a bare
// array of row objects.
func (d *Dataset) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var records []Record
		if err := json.Unmarshal(data, &records); err != nil {
			return err
		}
		*d = NewDataset(records)
		return nil
	}
	var raw struct {
		Fields  []string `json:"fields"`
		Records []Record `json:"records"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ds := NewDataset(raw.Records)
	if len(raw.Fields) > 0 {
		ds.Fields = raw.Fields
	}
	*d = ds
	return nil
}

func sortedKeys(rec Record) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
