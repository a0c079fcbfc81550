package excel

import "fmt"

// FileConfig holds configuration for a spreadsheet or CSV data source
type FileConfig struct {
	FilePath    string   `json:"file_path"`
	Sheet       string   `json:"sheet"`
	MultiSelect []string `json:"multi_select"`
	Separator   string   `json:"separator"`
}

// DefaultFileConfig returns sensible defaults for file processing
func DefaultFileConfig(path string) FileConfig {
	return FileConfig{
		FilePath:  path,
		Separator: ";",
	}
}

// Validate checks the configuration
func (c FileConfig) Validate() error {
	if c.FilePath == "" {
		return fmt.Errorf("file path is required")
	}
	if c.Separator == "" {
		return fmt.Errorf("multi-select separator is required")
	}
	return nil
}
