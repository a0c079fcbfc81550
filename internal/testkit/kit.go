package testkit

import (
	"context"
	"sync/atomic"

	"surveytab/domain/survey"
	"surveytab/internal/codebook"
)

// StaticSource serves a fixed dataset.
type StaticSource struct {
	name    string
	dataset survey.Dataset
	loads   atomic.Int64
}

// NewStaticSource wraps a dataset as a source
func NewStaticSource(name string, ds survey.Dataset) *StaticSource {
	return &StaticSource{name: name, dataset: ds}
}

// NewMockSource returns a source backed by the survey generator
func NewMockSource(config SurveyGeneratorConfig, cb *codebook.Codebook) *StaticSource {
	return NewStaticSource("mock", NewSurveyGenerator(config, cb).Generate())
}

func (s *StaticSource) Name() string { return s.name }

// Load returns a private view of the dataset
func (s *StaticSource) Load(ctx context.Context) (survey.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return survey.Dataset{}, err
	}
	s.loads.Add(1)
	return s.dataset.View(), nil
}

// Loads reports how many times Load succeeded
func (s *StaticSource) Loads() int64 { return s.loads.Load() }

// FuncSource adapts a function into a source, for failure injection in tests
type FuncSource struct {
	SourceName string
	LoadFunc   func(ctx context.Context) (survey.Dataset, error)
}

func (s FuncSource) Name() string { return s.SourceName }

func (s FuncSource) Load(ctx context.Context) (survey.Dataset, error) {
	return s.LoadFunc(ctx)
}

// Rows builds a dataset from loosely typed rows
func Rows(rows ...map[string]any) survey.Dataset {
	return survey.FromRows(rows)
}
