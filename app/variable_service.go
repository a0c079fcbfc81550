package app

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"surveytab/domain/core"
	"surveytab/domain/snapshot"
	"surveytab/domain/survey"
	"surveytab/internal"
	"surveytab/internal/codebook"
	"surveytab/internal/crosstab"
	apperrors "surveytab/internal/errors"
	"surveytab/internal/profiling"
	"surveytab/internal/render"
	"surveytab/ports"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Variable request defaults.
const (
	DefaultLimitCategories = 12
	DefaultMinCount        = 1
	DefaultStat            = "rowpct"

	// resultCacheSize bounds the memoized variable tables.
	resultCacheSize = 256

	// MaxCandidateDistinct bounds the distinct values of a categorical
	// field offered as a candidate break.
	MaxCandidateDistinct = 30
)

// VariableRequest asks for one variable, optionally broken down by a top break.
type VariableRequest struct {
	TopBreak        string
	Variable        string
	Stat            string
	LimitCategories int
	Bins            int
	MinCount        int
	DropMissing     bool
	Take            int
}

// DefaultVariableRequest returns a request carrying every default.
func DefaultVariableRequest() VariableRequest {
	return VariableRequest{
		Stat:            DefaultStat,
		LimitCategories: DefaultLimitCategories,
		Bins:            profiling.DefaultBins,
		MinCount:        DefaultMinCount,
		DropMissing:     true,
	}
}

// ParseVariableQuery reads a request from query parameters. Unparseable
// numbers and booleans fall back to their defaults.
func ParseVariableQuery(q url.Values) VariableRequest {
	req := DefaultVariableRequest()
	req.TopBreak = strings.TrimSpace(q.Get("topbreak"))
	req.Variable = strings.TrimSpace(q.Get("variable"))
	if q.Has("stat") {
		req.Stat = q.Get("stat")
	}
	req.LimitCategories = intParam(q, "limit_categories", req.LimitCategories)
	req.Bins = intParam(q, "bins", req.Bins)
	req.MinCount = intParam(q, "min_count", req.MinCount)
	req.DropMissing = ParseBool(q.Get("drop_missing"), req.DropMissing)
	req.Take = intParam(q, "take", 0)
	return req
}

func intParam(q url.Values, key string, def int) int {
	if !q.Has(key) {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(q.Get(key)))
	if err != nil {
		return def
	}
	return n
}

// ParseBool accepts 1/true/yes and 0/false/no in any case.
func ParseBool(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return def
	}
}

// VariableMeta describes a variable table.
type VariableMeta struct {
	TopBreak *string  `json:"topbreak"`
	Variable string   `json:"variable"`
	N        int      `json:"n"`
	Stat     string   `json:"stat"`
	Notes    []string `json:"notes"`
}

// VariableTable is the result of a variable request.
type VariableTable struct {
	HTML  string                `json:"html"`
	Chart *survey.VariableChart `json:"chart"`
	Meta  VariableMeta          `json:"meta"`
}

// SchemaResponse lists the snapshot's fields and the candidates for each role.
type SchemaResponse struct {
	Fields                []survey.FieldDescriptor `json:"fields"`
	TopbreakCandidates    []string                 `json:"topbreak_candidates"`
	NumericCandidates     []string                 `json:"numeric_candidates"`
	CategoricalCandidates []string                 `json:"categorical_candidates"`
}

// VariableService answers single-variable and variable-by-break requests.
type VariableService struct {
	provider ports.SnapshotProvider
	codebook *codebook.Codebook
	renderer *render.Renderer
	results  *lru.Cache[string, *VariableTable]
	logger   *internal.Logger
}

// NewVariableService creates a variable service
func NewVariableService(provider ports.SnapshotProvider, cb *codebook.Codebook, renderer *render.Renderer) *VariableService {
	results, err := lru.New[string, *VariableTable](resultCacheSize)
	if err != nil {
		panic(fmt.Sprintf("variable result cache: %v", err))
	}
	return &VariableService{
		provider: provider,
		codebook: cb,
		renderer: renderer,
		results:  results,
		logger:   internal.DefaultLogger.With("variable"),
	}
}

// Table tabulates a variable. Requests are checked in order: empty dataset,
// missing variable, unsupported stat, unknown variable, unknown top break.
// A numeric variable with a top break is summarized per group; any other
// variable with a top break is crossed against it; without a top break the
// variable's distribution is counted.
func (s *VariableService) Table(ctx context.Context, req VariableRequest) (*VariableTable, error) {
	snap, err := loadSnapshot(ctx, s.provider)
	if err != nil {
		return nil, err
	}
	if snap.Len() == 0 {
		return nil, apperrors.EmptyDataset("Dataset is empty")
	}
	if req.Variable == "" {
		return nil, apperrors.FromDomain(core.NewMissingParamError("variable"))
	}
	if req.Stat == "" {
		req.Stat = DefaultStat
	}
	mode, err := survey.ParseStat(req.Stat)
	if err != nil {
		return nil, apperrors.FromDomain(err)
	}
	if req.LimitCategories < 0 {
		req.LimitCategories = DefaultLimitCategories
	}
	if req.Bins <= 0 {
		req.Bins = profiling.DefaultBins
	}
	if req.MinCount < 1 {
		req.MinCount = DefaultMinCount
	}

	ds := snap.View()
	if req.Take > 0 {
		ds = ds.Head(req.Take)
	}
	fd, ok := snap.Field(req.Variable)
	if !ok {
		return nil, apperrors.FromDomain(core.NewUnknownFieldError("variable", req.Variable))
	}
	if req.TopBreak != "" && !ds.HasField(req.TopBreak) {
		return nil, apperrors.FromDomain(core.NewUnknownFieldError("top break", req.TopBreak))
	}

	// results are keyed by snapshot, so a refresh never serves stale tables
	key := fmt.Sprintf("%s|%+v", snap.ID, req)
	if cached, ok := s.results.Get(key); ok {
		return cloneTable(cached), nil
	}

	policy := crosstab.Policy{
		Cap:         req.LimitCategories,
		MinCount:    req.MinCount,
		DropMissing: req.DropMissing,
	}

	var table *VariableTable
	switch {
	case req.TopBreak == "":
		table, err = s.distribution(snap, ds, req, policy)
	case fd.Kind == survey.FieldNumeric:
		table, err = s.numeric(snap, ds, req, policy)
	default:
		table, err = s.categorical(snap, ds, req, mode, policy)
	}
	if err != nil {
		return nil, err
	}
	s.logger.Debug("variable %s by %q: n=%d stat=%s", req.Variable, req.TopBreak, table.Meta.N, table.Meta.Stat)
	s.results.Add(key, table)
	return cloneTable(table), nil
}

// cloneTable copies the parts of a cached table a caller could append to.
func cloneTable(t *VariableTable) *VariableTable {
	out := *t
	out.Meta.Notes = append([]string{}, t.Meta.Notes...)
	return &out
}

func (s *VariableService) categorical(snap *snapshot.Snapshot, ds survey.Dataset, req VariableRequest, mode survey.Mode, policy crosstab.Policy) (*VariableTable, error) {
	expanded := crosstab.Expand(ds, multiFields(s.codebook, snap, req.TopBreak, req.Variable))

	topValues, topOrder := breakColumn(s.codebook, snap, expanded, req.TopBreak)
	top := crosstab.Bucket(topValues, policy)
	variable := crosstab.Bucket(expanded.Column(req.Variable), policy)

	table, err := crosstab.Build(top, variable, crosstab.BuildOptions{
		RowOrder: topOrder,
		ColOrder: displayOrder(s.codebook, snap, req.Variable),
	})
	if err != nil {
		return nil, emptyJoin(err, "No overlapping records for the selected fields")
	}

	view := table.Normalize(mode)
	header, rows := render.ViewRows(view, req.TopBreak)
	html := s.renderer.HTML(render.Document{
		Title:    fmt.Sprintf("%s by %s", req.Variable, req.TopBreak),
		Subtitle: "Statistic: " + mode.Stat(),
		Header:   header,
		Rows:     rows,
	})

	notes := []string{}
	notes = bucketNotes(notes, "Variable", variable, req)
	notes = bucketNotes(notes, "Top break", top, req)

	topBreak := req.TopBreak
	return &VariableTable{
		HTML:  html,
		Chart: crosstab.ViewChart(view, req.TopBreak),
		Meta: VariableMeta{
			TopBreak: &topBreak,
			Variable: req.Variable,
			N:        table.Grand,
			Stat:     mode.Stat(),
			Notes:    notes,
		},
	}, nil
}

func (s *VariableService) numeric(snap *snapshot.Snapshot, ds survey.Dataset, req VariableRequest, policy crosstab.Policy) (*VariableTable, error) {
	expanded := crosstab.Expand(ds, multiFields(s.codebook, snap, req.TopBreak))

	topValues, topOrder := breakColumn(s.codebook, snap, expanded, req.TopBreak)
	top := crosstab.Bucket(topValues, policy)

	groups := make([]string, expanded.Len())
	for i, src := range top.Rows {
		groups[src] = top.Labels[i]
	}
	summary, err := profiling.SummarizeNumeric(groups, expanded.Column(req.Variable), profiling.NumericOptions{
		Bins:       req.Bins,
		GroupOrder: topOrder,
	})
	if err != nil {
		return nil, emptyJoin(err, "No numeric values available for the selected fields")
	}

	header, rows := render.SummaryRows(summary, req.TopBreak)
	html := s.renderer.HTML(render.Document{
		Title:  fmt.Sprintf("%s summary by %s", req.Variable, req.TopBreak),
		Header: header,
		Rows:   rows,
	})

	notes := []string{fmt.Sprintf("Histogram computed with %d bins", req.Bins)}
	notes = bucketNotes(notes, "Top break", top, req)

	topBreak := req.TopBreak
	return &VariableTable{
		HTML:  html,
		Chart: summary.Charts(req.TopBreak, req.Variable),
		Meta: VariableMeta{
			TopBreak: &topBreak,
			Variable: req.Variable,
			N:        summary.N,
			Stat:     "summary",
			Notes:    notes,
		},
	}, nil
}

func (s *VariableService) distribution(snap *snapshot.Snapshot, ds survey.Dataset, req VariableRequest, policy crosstab.Policy) (*VariableTable, error) {
	expanded := crosstab.Expand(ds, multiFields(s.codebook, snap, req.Variable))
	variable := crosstab.Bucket(expanded.Column(req.Variable), policy)

	order := displayOrder(s.codebook, snap, req.Variable)
	if order == nil {
		order = frequencyOrder(variable.Labels)
	}
	table, err := crosstab.BuildDistribution(variable, order)
	if err != nil {
		return nil, emptyJoin(err, "No records available for the selected variable")
	}

	header, rows := render.DistributionRows(table, req.Variable)
	html := s.renderer.HTML(render.Document{
		Title:  "Distribution of " + req.Variable,
		Header: header,
		Rows:   rows,
	})

	notes := []string{}
	notes = bucketNotes(notes, "Variable", variable, req)

	return &VariableTable{
		HTML:  html,
		Chart: crosstab.DistributionChart(table, req.Variable),
		Meta: VariableMeta{
			Variable: req.Variable,
			N:        table.Grand,
			Stat:     survey.ModeCount.Stat(),
			Notes:    notes,
		},
	}, nil
}

// Schema lists the fields and the candidate breaks. Curated top breaks come
// first, then the other categorical fields with few enough distinct values,
// sorted.
func (s *VariableService) Schema(ctx context.Context) (*SchemaResponse, error) {
	snap, err := loadSnapshot(ctx, s.provider)
	if err != nil {
		return nil, err
	}

	resp := &SchemaResponse{
		Fields:                []survey.FieldDescriptor{},
		TopbreakCandidates:    []string{},
		NumericCandidates:     []string{},
		CategoricalCandidates: []string{},
	}
	resp.Fields = append(resp.Fields, snap.Fields...)

	for _, fd := range snap.Fields {
		switch {
		case fd.Kind == survey.FieldNumeric:
			resp.NumericCandidates = append(resp.NumericCandidates, fd.Name)
		case fd.Kind.IsCategorical() && fd.DistinctCount <= MaxCandidateDistinct:
			resp.CategoricalCandidates = append(resp.CategoricalCandidates, fd.Name)
		}
	}

	curated := make(map[string]bool)
	for _, name := range s.codebook.CuratedTopBreaks {
		if _, ok := snap.Field(name); ok && !curated[name] {
			curated[name] = true
			resp.TopbreakCandidates = append(resp.TopbreakCandidates, name)
		}
	}
	var auto []string
	for _, name := range resp.CategoricalCandidates {
		if !curated[name] {
			auto = append(auto, name)
		}
	}
	sort.Strings(auto)
	resp.TopbreakCandidates = append(resp.TopbreakCandidates, auto...)
	return resp, nil
}

// bucketNotes reports the relabeling Bucket applied to one axis.
func bucketNotes(notes []string, axis string, b crosstab.Bucketed, req VariableRequest) []string {
	if b.Merged {
		notes = append(notes, fmt.Sprintf("%s categories seen fewer than %d times merged into %s", axis, req.MinCount, crosstab.RareLabel(req.MinCount)))
	}
	if b.Truncated {
		notes = append(notes, fmt.Sprintf("%s categories limited to top %d", axis, req.LimitCategories))
	}
	return notes
}

func emptyJoin(err error, message string) error {
	if core.IsEmptyJoinError(err) {
		return apperrors.EmptyJoin(message, err)
	}
	return apperrors.FromDomain(err)
}
