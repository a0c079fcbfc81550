package survey

import (
	"encoding/json"

	"surveytab/domain/core"
)

// Mode is the normalization applied to a contingency table.
type Mode int

const (
	ModeCount Mode = iota
	ModeRowPercent
	ModeColumnPercent
	ModeTotalPercent
)

// Table-request spellings.
var modeNames = map[Mode]string{
	ModeCount:         "count",
	ModeRowPercent:    "rowPercent",
	ModeColumnPercent: "columnPercent",
	ModeTotalPercent:  "totalPercent",
}

// Variable-request spellings.
var statNames = map[Mode]string{
	ModeCount:         "counts",
	ModeRowPercent:    "rowpct",
	ModeColumnPercent: "colpct",
	ModeTotalPercent:  "totalpct",
}

// ParseMode accepts the table-request spelling.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return ModeCount, core.NewInvalidModeError("mode", s)
}

// ParseStat accepts the variable-request spelling.
func ParseStat(s string) (Mode, error) {
	for m, name := range statNames {
		if name == s {
			return m, nil
		}
	}
	return ModeCount, core.NewInvalidModeError("stat", s)
}

// String returns the table-request spelling.
func (m Mode) String() string { return modeNames[m] }

// Stat returns the variable-request spelling.
func (m Mode) Stat() string { return statNames[m] }

// IsPercent reports whether cells are percentages.
func (m Mode) IsPercent() bool { return m != ModeCount }

// MarshalJSON writes the table-request spelling.
func (m Mode) MarshalJSON() ([]byte, error) { return json.Marshal(m.String()) }

// UnmarshalJSON accepts either spelling.
func (m *Mode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if parsed, err := ParseMode(s); err == nil {
		*m = parsed
		return nil
	}
	parsed, err := ParseStat(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
