package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"surveytab/domain/survey"
	"surveytab/internal/codebook"
	"surveytab/internal/dataset"
	apperrors "surveytab/internal/errors"
	"surveytab/internal/render"
	"surveytab/internal/testkit"
	"surveytab/ports"
)

var fixedClock = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) }

func fixtureDataset() survey.Dataset {
	return testkit.Rows(
		map[string]any{"survey_path": "treatment", "B2_Participation": "Yes", "A7_Sex": "Male", "H3_ContinueWithoutSupport": "Yes", "B4_SupportType": []any{"Training", "Finance"}, "A8_Age": 23, "Z_Blank": ""},
		map[string]any{"survey_path": "treatment", "B2_Participation": "Yes", "A7_Sex": "Female", "H3_ContinueWithoutSupport": "Yes", "B4_SupportType": []any{"Training"}, "A8_Age": 30, "Z_Blank": ""},
		map[string]any{"survey_path": "treatment", "B2_Participation": "No", "A7_Sex": "Female", "H3_ContinueWithoutSupport": "Unsure", "B4_SupportType": []any{}, "A8_Age": 41, "Z_Blank": ""},
		map[string]any{"survey_path": "control", "B2_Participation": "No", "A7_Sex": "Male", "H3_ContinueWithoutSupport": "No", "B4_SupportType": []any{"Finance"}, "A8_Age": 30, "Z_Blank": ""},
		map[string]any{"survey_path": "control", "B2_Participation": "Yes", "A7_Sex": "Female", "H3_ContinueWithoutSupport": "Unsure", "B4_SupportType": []any{"Inputs"}, "A8_Age": 58, "Z_Blank": ""},
		map[string]any{"survey_path": "common", "B2_Participation": "No", "A7_Sex": "Male", "H3_ContinueWithoutSupport": "Yes", "B4_SupportType": []any{"Training"}, "A8_Age": "unknown", "Z_Blank": ""},
	)
}

func providerFor(ds survey.Dataset) ports.SnapshotProvider {
	cb := codebook.Default()
	return dataset.NewCache(testkit.NewStaticSource("fixture", ds), cb.Ordinal)
}

func newTableService(ds survey.Dataset) *TableService {
	return NewTableService(providerFor(ds), codebook.Default(), render.NewWithClock(fixedClock))
}

func newVariableService(ds survey.Dataset) *VariableService {
	return NewVariableService(providerFor(ds), codebook.Default(), render.NewWithClock(fixedClock))
}

func failingProvider() ports.SnapshotProvider {
	src := testkit.FuncSource{
		SourceName: "broken",
		LoadFunc: func(ctx context.Context) (survey.Dataset, error) {
			return survey.Dataset{}, errors.New("connection refused")
		},
	}
	return dataset.NewCache(src, nil)
}

func requireCode(t *testing.T, err error, code string) *apperrors.AppError {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok, "expected an AppError, got %T", err)
	require.Equal(t, code, appErr.Code)
	return appErr
}
