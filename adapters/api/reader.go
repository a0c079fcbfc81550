package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"surveytab/domain/core"
	"surveytab/domain/survey"
)

const sourceName = "dashboard"

// DashboardSource fetches survey rows from the dashboard JSON endpoint
type DashboardSource struct {
	config     *DashboardConfig
	httpClient *http.Client

	mu   sync.Mutex
	last FetchMetadata
}

// NewDashboardSource creates a dashboard source
func NewDashboardSource(config *DashboardConfig) *DashboardSource {
	return &DashboardSource{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

func (s *DashboardSource) Name() string { return sourceName }

// LastFetch returns metadata about the most recent successful fetch
func (s *DashboardSource) LastFetch() FetchMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Load retrieves and decodes the dashboard payload
func (s *DashboardSource) Load(ctx context.Context) (survey.Dataset, error) {
	start := time.Now()

	req, err := s.buildRequest(ctx)
	if err != nil {
		return survey.Dataset{}, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return survey.Dataset{}, core.NewUpstreamError(sourceName, fmt.Errorf("unable to reach dashboard endpoint: %w", err))
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return survey.Dataset{}, core.NewUpstreamError(sourceName, fmt.Errorf("failed to read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return survey.Dataset{}, core.NewUpstreamError(sourceName, fmt.Errorf("dashboard request failed with status %d", resp.StatusCode))
	}
	if !gjson.ValidBytes(body) {
		return survey.Dataset{}, core.NewUpstreamError(sourceName, fmt.Errorf("dashboard returned invalid JSON"))
	}

	rows, path := s.extractRows(body)
	ds := parseRows(rows)

	s.mu.Lock()
	s.last = FetchMetadata{
		URL:          s.config.URL,
		StatusCode:   resp.StatusCode,
		ContentType:  resp.Header.Get("Content-Type"),
		RowPath:      path,
		RecordsCount: ds.Len(),
		ResponseTime: time.Since(start),
		FetchedAt:    start,
	}
	s.mu.Unlock()

	return ds, nil
}

// buildRequest creates an HTTP request with authentication
func (s *DashboardSource) buildRequest(ctx context.Context) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.URL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range s.config.Headers {
		req.Header.Set(k, v)
	}
	switch s.config.AuthMethod {
	case "bearer":
		req.Header.Set("Authorization", "Bearer "+s.config.AuthToken)
	case "api_key":
		req.Header.Set("X-API-Key", s.config.AuthToken)
	}
	return req, nil
}

// extractRows picks the first non-empty row array. A bare top-level array
// is accepted as the rows themselves.
func (s *DashboardSource) extractRows(body []byte) (gjson.Result, string) {
	root := gjson.ParseBytes(body)
	if root.IsArray() {
		return root, "@this"
	}
	for _, path := range s.config.RowPaths {
		r := root.Get(path)
		if r.IsArray() && len(r.Array()) > 0 {
			return r, path
		}
	}
	return gjson.Result{}, ""
}

func parseRows(rows gjson.Result) survey.Dataset {
	var records []survey.Record
	rows.ForEach(func(_, row gjson.Result) bool {
		if !row.IsObject() {
			return true
		}
		rec := make(survey.Record)
		row.ForEach(func(key, val gjson.Result) bool {
			rec[key.String()] = valueOf(val)
			return true
		})
		records = append(records, rec)
		return true
	})
	return survey.NewDataset(records)
}

// valueOf maps one JSON cell onto a survey value
func valueOf(r gjson.Result) survey.Value {
	switch r.Type {
	case gjson.Null:
		return survey.Missing()
	case gjson.String:
		return survey.Text(r.Str)
	case gjson.Number:
		return survey.Number(r.Num)
	case gjson.True:
		return survey.Text("true")
	case gjson.False:
		return survey.Text("false")
	}
	if r.IsArray() {
		var items []string
		for _, it := range r.Array() {
			if v := valueOf(it); !v.IsMissing() {
				items = append(items, v.String())
			}
		}
		return survey.Multi(items)
	}
	return survey.Text(r.Raw)
}
