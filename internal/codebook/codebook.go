// Package codebook carries survey field metadata: which fields are
// multi-select, display orders for ordinal answers, display labels, cohort
// definitions and numeric bands.
package codebook

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"surveytab/domain/core"
)

//go:embed default.yaml
var defaultYAML []byte

// Cohort is one enumerated survey path.
type Cohort struct {
	Key     string `yaml:"key" json:"key"`
	Label   string `yaml:"label" json:"label"`
	Colour  string `yaml:"colour" json:"colour"`
	Compare bool   `yaml:"compare" json:"compare"`
}

// Defaults are the breaks used when a table request names none.
type Defaults struct {
	SideBreak string `yaml:"side_break"`
	TopBreak  string `yaml:"top_break"`
}

// Band cuts a numeric field into right-closed intervals.
type Band struct {
	Edges  []float64 `yaml:"edges"`
	Labels []string  `yaml:"labels"`
}

// Codebook is the parsed survey metadata document.
type Codebook struct {
	CohortField      string              `yaml:"cohort_field"`
	Cohorts          []Cohort            `yaml:"cohorts"`
	Defaults         Defaults            `yaml:"defaults"`
	MultiSelect      []string            `yaml:"multi_select"`
	Ordinal          map[string][]string `yaml:"ordinal"`
	CuratedTopBreaks []string            `yaml:"curated_top_breaks"`
	Bands            map[string]Band     `yaml:"bands"`
	Labels           map[string]string   `yaml:"labels"`

	multi map[string]bool
	bands map[string]Band
}

// Default returns the embedded codebook.
func Default() *Codebook {
	cb, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded codebook is invalid: %v", err))
	}
	return cb
}

// Load reads a codebook file; an empty path yields the embedded default.
func Load(path string) (*Codebook, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read codebook: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a codebook document.
func Parse(data []byte) (*Codebook, error) {
	var cb Codebook
	if err := yaml.Unmarshal(data, &cb); err != nil {
		return nil, fmt.Errorf("parse codebook: %w", err)
	}
	if cb.CohortField == "" {
		cb.CohortField = "survey_path"
	}
	if err := cb.validate(); err != nil {
		return nil, err
	}
	cb.index()
	return &cb, nil
}

func (cb *Codebook) validate() error {
	seen := make(map[string]bool, len(cb.Cohorts))
	compared := 0
	for _, c := range cb.Cohorts {
		if c.Key == "" {
			return fmt.Errorf("codebook: cohort without key")
		}
		if seen[c.Key] {
			return fmt.Errorf("codebook: duplicate cohort %q", c.Key)
		}
		seen[c.Key] = true
		if c.Compare {
			compared++
		}
	}
	if compared > 2 {
		return fmt.Errorf("codebook: at most two cohorts can be compared, got %d", compared)
	}
	for field, b := range cb.Bands {
		if len(b.Labels) != len(b.Edges)+1 {
			return fmt.Errorf("codebook: band %q needs %d labels, got %d", field, len(b.Edges)+1, len(b.Labels))
		}
		for i := 1; i < len(b.Edges); i++ {
			if b.Edges[i] <= b.Edges[i-1] {
				return fmt.Errorf("codebook: band %q edges must increase", field)
			}
		}
	}
	return nil
}

func (cb *Codebook) index() {
	cb.multi = make(map[string]bool, len(cb.MultiSelect))
	for _, f := range cb.MultiSelect {
		cb.multi[f] = true
	}
	cb.bands = make(map[string]Band, len(cb.Bands))
	for f, b := range cb.Bands {
		cb.bands[strings.ToLower(f)] = b
	}
}

// Label returns the display label for a field, the field name when unknown.
func (cb *Codebook) Label(field string) string {
	if l, ok := cb.Labels[field]; ok {
		return l
	}
	return field
}

// JoinLabels joins the display labels of several fields with " + ".
func (cb *Codebook) JoinLabels(fields []string) string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = cb.Label(f)
	}
	return strings.Join(out, " + ")
}

// IsMultiSelect reports whether a field holds lists of selections.
func (cb *Codebook) IsMultiSelect(field string) bool {
	return cb.multi[field]
}

// Order returns the display order of an ordinal field, nil otherwise.
func (cb *Codebook) Order(field string) []string {
	return cb.Ordinal[field]
}

// Band returns the numeric banding for a field. Dashboard exports use
// lower-case keys, so lookup ignores case.
func (cb *Codebook) Band(field string) (Band, bool) {
	b, ok := cb.bands[strings.ToLower(field)]
	return b, ok
}

// Cohort looks up a cohort by key.
func (cb *Codebook) Cohort(key string) (Cohort, bool) {
	for _, c := range cb.Cohorts {
		if c.Key == key {
			return c, true
		}
	}
	return Cohort{}, false
}

// CohortKeys returns every cohort key in declaration order.
func (cb *Codebook) CohortKeys() []string {
	keys := make([]string, len(cb.Cohorts))
	for i, c := range cb.Cohorts {
		keys[i] = c.Key
	}
	return keys
}

// CohortLabel returns the display label of a cohort key.
func (cb *Codebook) CohortLabel(key string) string {
	if c, ok := cb.Cohort(key); ok && c.Label != "" {
		return c.Label
	}
	return key
}

// ValidatePaths rejects cohort keys the codebook does not declare. An empty
// selection means every cohort.
func (cb *Codebook) ValidatePaths(paths []string) ([]string, error) {
	if len(paths) == 0 {
		return cb.CohortKeys(), nil
	}
	out := make([]string, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		if _, ok := cb.Cohort(p); !ok {
			return nil, fmt.Errorf("%w: unknown path '%s'", core.ErrValidation, p)
		}
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out, nil
}

// ComparedCohorts returns the compare-enabled cohorts among the selected
// paths, in selection order.
func (cb *Codebook) ComparedCohorts(paths []string) []Cohort {
	var out []Cohort
	for _, p := range paths {
		if c, ok := cb.Cohort(p); ok && c.Compare {
			out = append(out, c)
		}
	}
	return out
}

// Apply maps a value to its band label.
func (b Band) Apply(v float64) (string, bool) {
	if math.IsNaN(v) || len(b.Labels) == 0 {
		return "", false
	}
	for i, edge := range b.Edges {
		if v <= edge {
			return b.Labels[i], true
		}
	}
	return b.Labels[len(b.Labels)-1], true
}
