package app

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"surveytab/domain/core"
	"surveytab/domain/snapshot"
	"surveytab/domain/survey"
	"surveytab/internal"
	"surveytab/internal/analysis"
	"surveytab/internal/codebook"
	"surveytab/internal/crosstab"
	apperrors "surveytab/internal/errors"
	"surveytab/internal/render"
	"surveytab/ports"
)

// maxConcurrentTables bounds the side breaks tabulated at once.
const maxConcurrentTables = 4

// TableRequest asks for one crosstab per side break against the top breaks.
type TableRequest struct {
	TopBreaks  []string `json:"topBreaks"`
	SideBreaks []string `json:"sideBreaks"`
	Mode       string   `json:"mode"`
	Paths      []string `json:"paths"`
}

// TableDescriptor is one rendered crosstab.
type TableDescriptor struct {
	SideBreak string      `json:"sideBreak"`
	Title     string      `json:"title"`
	HTML      string      `json:"html"`
	Mode      survey.Mode `json:"mode"`
}

// TableMetadata describes the data behind a response.
type TableMetadata struct {
	RowCount       int      `json:"rowCount"`
	AppliedFilters []string `json:"appliedFilters"`
}

// TableResponse is the result of a table request.
type TableResponse struct {
	Tables   []TableDescriptor    `json:"tables"`
	Chart    *survey.ChartPayload `json:"chart"`
	Insights []string             `json:"insights"`
	Metadata TableMetadata        `json:"metadata"`
}

// TableService builds cohort crosstabs for the dashboard.
type TableService struct {
	provider ports.SnapshotProvider
	codebook *codebook.Codebook
	renderer *render.Renderer
	logger   *internal.Logger
}

// NewTableService creates a table service
func NewTableService(provider ports.SnapshotProvider, cb *codebook.Codebook, renderer *render.Renderer) *TableService {
	return &TableService{
		provider: provider,
		codebook: cb,
		renderer: renderer,
		logger:   internal.DefaultLogger.With("table"),
	}
}

// Generate tabulates every side break against the combined top breaks over
// the selected cohorts, then compares the compared cohorts on the first side
// break. A failure on any side break fails the whole response.
func (s *TableService) Generate(ctx context.Context, req TableRequest) (*TableResponse, error) {
	if req.Mode == "" {
		req.Mode = survey.ModeCount.String()
	}
	mode, err := survey.ParseMode(req.Mode)
	if err != nil {
		return nil, apperrors.FromDomain(err)
	}
	if len(req.SideBreaks) == 0 && s.codebook.Defaults.SideBreak != "" {
		req.SideBreaks = []string{s.codebook.Defaults.SideBreak}
	}
	if len(req.TopBreaks) == 0 && s.codebook.Defaults.TopBreak != "" {
		req.TopBreaks = []string{s.codebook.Defaults.TopBreak}
	}
	if len(req.SideBreaks) == 0 {
		return nil, apperrors.FromDomain(core.NewMissingParamError("sideBreaks"))
	}
	for _, p := range req.Paths {
		if _, ok := s.codebook.Cohort(p); !ok {
			return nil, apperrors.FromDomain(core.NewUnknownFieldError("path", p))
		}
	}
	paths, err := s.codebook.ValidatePaths(req.Paths)
	if err != nil {
		return nil, apperrors.FromDomain(err)
	}

	snap, err := loadSnapshot(ctx, s.provider)
	if err != nil {
		return nil, err
	}
	ds := snap.View()
	for _, f := range req.SideBreaks {
		if !ds.HasField(f) {
			return nil, apperrors.FromDomain(core.NewUnknownFieldError("side break", f))
		}
	}
	for _, f := range req.TopBreaks {
		if !ds.HasField(f) {
			return nil, apperrors.FromDomain(core.NewUnknownFieldError("top break", f))
		}
	}

	filtered := s.filterCohorts(ds, paths)

	tables := make([]TableDescriptor, len(req.SideBreaks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentTables)
	for i, side := range req.SideBreaks {
		i, side := i, side
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			table, err := s.buildTable(snap, filtered, side, req.TopBreaks, mode)
			if err != nil {
				return err
			}
			tables[i] = *table
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperrors.FromDomain(err)
	}

	chart := s.cohortChart(snap, filtered, req.SideBreaks[0], paths)
	insights := analysis.Insights(chart, mode)
	if insights == nil {
		insights = []string{}
	}

	s.logger.Debug("generated %d tables over %d rows (mode %s)", len(tables), filtered.Len(), mode)
	return &TableResponse{
		Tables:   tables,
		Chart:    chart,
		Insights: insights,
		Metadata: TableMetadata{
			RowCount:       filtered.Len(),
			AppliedFilters: s.appliedFilters(paths, mode, req.TopBreaks),
		},
	}, nil
}

// filterCohorts keeps the records on the selected paths. Datasets without a
// cohort field are not filtered.
func (s *TableService) filterCohorts(ds survey.Dataset, paths []string) survey.Dataset {
	field := s.codebook.CohortField
	if !ds.HasField(field) {
		return ds
	}
	selected := make(map[string]bool, len(paths))
	for _, p := range paths {
		selected[p] = true
	}
	return ds.Filter(func(rec survey.Record) bool {
		return selected[rec.Get(field).String()]
	})
}

func (s *TableService) buildTable(snap *snapshot.Snapshot, ds survey.Dataset, side string, tops []string, mode survey.Mode) (*TableDescriptor, error) {
	fields := append([]string{side}, tops...)
	expanded := crosstab.Expand(ds, multiFields(s.codebook, snap, fields...))
	policy := crosstab.Policy{DropMissing: true}

	sideValues, sideOrder := breakColumn(s.codebook, snap, expanded, side)
	rows := crosstab.Bucket(sideValues, policy)

	breaks := make([]crosstab.Bucketed, len(tops))
	orders := make([][]string, len(tops))
	for k, top := range tops {
		values, order := breakColumn(s.codebook, snap, expanded, top)
		breaks[k] = crosstab.Bucket(values, policy)
		orders[k] = order
	}

	var table *crosstab.Table
	var err error
	if len(tops) == 0 {
		table, err = crosstab.BuildDistribution(rows, sideOrder)
	} else {
		table, err = crosstab.Build(rows, crosstab.Combine(breaks...), crosstab.BuildOptions{
			RowOrder: sideOrder,
			ColOrder: crosstab.ComboOrder(orders...),
		})
	}
	if err != nil {
		if core.IsEmptyJoinError(err) {
			return nil, core.NewEmptyJoinError(fields...)
		}
		return nil, err
	}

	sideLabel := s.codebook.Label(side)
	subtitle := "Overall distribution"
	titleSuffix := "Overall"
	if len(tops) > 0 {
		subtitle = s.codebook.JoinLabels(tops)
		titleSuffix = subtitle
	}

	header, body := render.ViewRows(table.Normalize(mode), sideLabel)
	html := s.renderer.HTML(render.Document{
		Title:    sideLabel,
		Subtitle: subtitle,
		Header:   header,
		Rows:     body,
	})
	return &TableDescriptor{
		SideBreak: side,
		Title:     fmt.Sprintf("%s vs. %s", sideLabel, titleSuffix),
		HTML:      html,
		Mode:      mode,
	}, nil
}

// cohortChart compares the compared cohorts' answer shares on one side break.
func (s *TableService) cohortChart(snap *snapshot.Snapshot, ds survey.Dataset, side string, paths []string) *survey.ChartPayload {
	compared := s.codebook.ComparedCohorts(paths)
	if len(compared) == 0 {
		return nil
	}
	specs := make([]crosstab.SeriesSpec, len(compared))
	for i, c := range compared {
		specs[i] = crosstab.SeriesSpec{Key: c.Key, Label: c.Label, Colour: c.Colour}
	}

	expanded := crosstab.Expand(ds, multiFields(s.codebook, snap, side))
	values, order := breakColumn(s.codebook, snap, expanded, side)
	b := crosstab.Bucket(values, crosstab.Policy{DropMissing: true})

	groups := make([]string, b.Len())
	for i, src := range b.Rows {
		groups[i] = expanded.Records[src].Get(s.codebook.CohortField).String()
	}
	return crosstab.CohortChart(s.codebook.Label(side), b.Labels, groups, specs, order)
}

func (s *TableService) appliedFilters(paths []string, mode survey.Mode, tops []string) []string {
	pathLabels := make([]string, len(paths))
	for i, p := range paths {
		pathLabels[i] = s.codebook.CohortLabel(p)
	}
	topLabels := make([]string, len(tops))
	for i, t := range tops {
		topLabels[i] = s.codebook.Label(t)
	}
	return []string{
		"Paths: " + strings.Join(pathLabels, ", "),
		"Display: " + mode.String(),
		"Top breaks: " + strings.Join(topLabels, ", "),
	}
}
