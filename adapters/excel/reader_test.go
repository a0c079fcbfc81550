package excel

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"surveytab/domain/survey"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
		require.NoError(t, f.DeleteSheet("Sheet1"))
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "responses.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestFileSourceReadsWorkbook(t *testing.T) {
	path := writeWorkbook(t, "Responses", [][]interface{}{
		{"survey_path", "A8_Age", "C5_SupportType"},
		{"treatment", 31, "Training;Finance"},
		{"control", 45, ""},
		{"treatment", "", "Inputs"},
	})

	cfg := DefaultFileConfig(path)
	cfg.MultiSelect = []string{"C5_SupportType"}
	src := NewFileSource(cfg)
	assert.Equal(t, "file:responses.xlsx", src.Name())

	ds, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())
	assert.Equal(t, []string{"survey_path", "A8_Age", "C5_SupportType"}, ds.Fields)

	first := ds.Records[0]
	assert.Equal(t, "treatment", first.Get("survey_path").String())
	age, ok := first.Get("A8_Age").Float()
	require.True(t, ok)
	assert.Equal(t, 31.0, age)
	assert.Equal(t, []string{"Training", "Finance"}, first.Get("C5_SupportType").Items())

	assert.True(t, ds.Records[1].Get("C5_SupportType").IsMissing())
	assert.True(t, ds.Records[2].Get("A8_Age").IsMissing())
}

func TestFileSourceNamedSheet(t *testing.T) {
	f := excelize.NewFile()
	_, err := f.NewSheet("Second")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"ignored"}))
	require.NoError(t, f.SetSheetRow("Second", "A1", &[]interface{}{"A7_Sex"}))
	require.NoError(t, f.SetSheetRow("Second", "A2", &[]interface{}{"Female"}))
	path := filepath.Join(t.TempDir(), "two.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	cfg := DefaultFileConfig(path)
	cfg.Sheet = "Second"
	ds, err := NewFileSource(cfg).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())
	assert.Equal(t, "Female", ds.Records[0].Get("A7_Sex").String())
}

func TestFileSourceReadsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "responses.csv")
	content := "survey_path,H1_Satisfaction,C5_SupportType\n" +
		"treatment,Satisfied,Training; Finance\n" +
		"control,,\n" +
		"control,Neutral\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := DefaultFileConfig(path)
	cfg.MultiSelect = []string{"C5_SupportType"}
	ds, err := NewFileSource(cfg).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())

	assert.Equal(t, []string{"Training", "Finance"}, ds.Records[0].Get("C5_SupportType").Items())
	assert.True(t, ds.Records[1].Get("H1_Satisfaction").IsMissing())
	assert.Equal(t, survey.KindMissing, ds.Records[2].Get("C5_SupportType").Kind())
	assert.Equal(t, "Neutral", ds.Records[2].Get("H1_Satisfaction").String())
}

func TestFileSourceMissingFile(t *testing.T) {
	src := NewFileSource(DefaultFileConfig(filepath.Join(t.TempDir(), "nope.csv")))
	_, err := src.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CSV file not found")
}

func TestFileConfigValidate(t *testing.T) {
	assert.Error(t, FileConfig{}.Validate())
	assert.Error(t, FileConfig{FilePath: "x.csv"}.Validate())
	assert.NoError(t, DefaultFileConfig("x.csv").Validate())
}
