package postgres

import (
	"context"

	"surveytab/domain/core"
	"surveytab/domain/survey"
)

// ResponseSource serves the stored responses as a dataset source
type ResponseSource struct {
	repo   *ResponseRepository
	driver string
}

// NewResponseSource creates a dataset source over a response repository
func NewResponseSource(repo *ResponseRepository, driver string) *ResponseSource {
	return &ResponseSource{repo: repo, driver: driver}
}

func (s *ResponseSource) Name() string { return "sql:" + s.driver }

// Load reads every stored response; query failures are upstream errors
func (s *ResponseSource) Load(ctx context.Context) (survey.Dataset, error) {
	ds, err := s.repo.LoadResponses(ctx)
	if err != nil {
		return survey.Dataset{}, core.NewUpstreamError(s.Name(), err)
	}
	return ds, nil
}
