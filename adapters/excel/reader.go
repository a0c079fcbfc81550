package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"surveytab/domain/survey"
	"surveytab/internal"
)

// FileSource reads survey responses from an .xlsx workbook or a .csv file
type FileSource struct {
	config   FileConfig
	fileType string // "xlsx" or "csv"
	multi    map[string]bool
	logger   *internal.Logger
}

// NewFileSource creates a source that handles both Excel and CSV files
func NewFileSource(config FileConfig) *FileSource {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		fileType = "csv"
	}
	multi := make(map[string]bool, len(config.MultiSelect))
	for _, f := range config.MultiSelect {
		multi[f] = true
	}
	if config.Separator == "" {
		config.Separator = ";"
	}
	return &FileSource{
		config:   config,
		fileType: fileType,
		multi:    multi,
		logger:   internal.DefaultLogger.With("file"),
	}
}

func (s *FileSource) Name() string {
	return "file:" + filepath.Base(s.config.FilePath)
}

// Load reads the file and converts every cell into a survey value
func (s *FileSource) Load(ctx context.Context) (survey.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return survey.Dataset{}, err
	}
	data, err := s.ReadData()
	if err != nil {
		return survey.Dataset{}, err
	}
	return s.toDataset(data), nil
}

// ReadData reads the raw header and rows of the file
func (s *FileSource) ReadData() (*SheetData, error) {
	if _, err := os.Stat(s.config.FilePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(s.fileType), s.config.FilePath)
	}

	var (
		rows [][]string
		err  error
	)
	start := time.Now()
	switch s.fileType {
	case "csv":
		rows, err = s.readCSV()
	default:
		rows, err = s.readWorkbook()
	}
	if err != nil {
		return nil, err
	}
	s.logger.Debug("%s read in %.2fms (%d rows)", s.Name(), float64(time.Since(start).Nanoseconds())/1e6, len(rows))

	if len(rows) < 1 {
		return nil, fmt.Errorf("%s file must have a header row", strings.ToUpper(s.fileType))
	}
	return processRows(rows), nil
}

func (s *FileSource) readWorkbook() ([][]string, error) {
	f, err := excelize.OpenFile(s.config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := s.config.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func (s *FileSource) readCSV() ([][]string, error) {
	file, err := os.Open(s.config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

// processRows converts raw string rows into SheetData. Short rows leave
// their trailing cells empty.
func processRows(rows [][]string) *SheetData {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(header)
	}

	dataRows := make([]RawRowData, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rowData := make(RawRowData, len(headers))
		for j, cell := range row {
			if j < len(headers) && headers[j] != "" {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}
	return &SheetData{Headers: headers, Rows: dataRows}
}

func (s *FileSource) toDataset(data *SheetData) survey.Dataset {
	records := make([]survey.Record, 0, len(data.Rows))
	for _, row := range data.Rows {
		rec := make(survey.Record, len(row))
		for header, cell := range row {
			rec[header] = s.cellValue(header, cell)
		}
		records = append(records, rec)
	}

	fields := make([]string, 0, len(data.Headers))
	for _, h := range data.Headers {
		if h != "" {
			fields = append(fields, h)
		}
	}
	return survey.Dataset{Fields: fields, Records: records}
}

// cellValue splits multi-select columns on the separator and reads numeric
// cells as numbers.
func (s *FileSource) cellValue(header, cell string) survey.Value {
	if s.multi[header] {
		if cell == "" {
			return survey.Missing()
		}
		return survey.Multi(strings.Split(cell, s.config.Separator))
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil && !math.IsInf(f, 0) {
		return survey.Number(f)
	}
	return survey.FromAny(cell)
}
