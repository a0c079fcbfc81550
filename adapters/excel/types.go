package excel

// RawRowData represents a row of raw cells keyed by header
type RawRowData map[string]string

// SheetData represents the raw contents of one sheet or CSV file
type SheetData struct {
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
}
