package survey

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueKind tags the shape of a single cell in a survey record.
type ValueKind int

const (
	KindMissing ValueKind = iota
	KindText
	KindNumber
	KindMulti
)

func (k ValueKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindMulti:
		return "multi"
	default:
		return "missing"
	}
}

// Value is one cell of a record. The zero value is Missing.
type Value struct {
	kind  ValueKind
	text  string
	num   float64
	items []string
}

// Missing returns the absent value.
func Missing() Value { return Value{} }

// Text returns a scalar string value. Blank strings collapse to Missing.
func Text(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return Missing()
	}
	return Value{kind: KindText, text: s}
}

// Number returns a scalar numeric value. NaN is treated as Missing.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Missing()
	}
	return Value{kind: KindNumber, num: f}
}

// Multi returns a multi-select value. Blank selections are dropped; an empty
// selection list is kept as an empty Multi so expansion can tell "answered
// nothing" apart from a scalar.
func Multi(items []string) Value {
	kept := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			kept = append(kept, it)
		}
	}
	return Value{kind: KindMulti, items: kept}
}

// FromAny converts a loosely typed decoded value (JSON, spreadsheet cell, SQL
// column) into a Value. This is the only place ambiguity is resolved.
func FromAny(x any) Value {
	switch v := x.(type) {
	case nil:
		return Missing()
	case Value:
		return v
	case string:
		return Text(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return Number(f)
		}
		return Text(v.String())
	case float64:
		return Number(v)
	case float32:
		return Number(float64(v))
	case int:
		return Number(float64(v))
	case int32:
		return Number(float64(v))
	case int64:
		return Number(float64(v))
	case bool:
		if v {
			return Text("true")
		}
		return Text("false")
	case []string:
		return Multi(v)
	case []any:
		items := make([]string, 0, len(v))
		for _, it := range v {
			if it == nil {
				continue
			}
			items = append(items, FromAny(it).String())
		}
		return Multi(items)
	default:
		return Text(fmt.Sprintf("%v", v))
	}
}

// Kind reports the value's tag.
func (v Value) Kind() ValueKind { return v.kind }

// IsMissing reports whether the value is absent.
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Items returns the selections of a Multi value, nil otherwise.
func (v Value) Items() []string {
	if v.kind != KindMulti {
		return nil
	}
	out := make([]string, len(v.items))
	copy(out, v.items)
	return out
}

// Float returns the numeric reading of the value. Text values are parsed;
// Missing and Multi values are not numeric.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindText:
		f, err := strconv.ParseFloat(v.text, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// String is the category label of the value.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindMulti:
		return strings.Join(v.items, ", ")
	default:
		return ""
	}
}

// MarshalJSON renders the value the way the dashboard payload carries it.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindText:
		return json.Marshal(v.text)
	case KindNumber:
		return json.Marshal(v.num)
	case KindMulti:
		if v.items == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.items)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes through FromAny.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}
