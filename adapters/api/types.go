package api

import (
	"time"
)

// FetchMetadata describes the last dashboard fetch
type FetchMetadata struct {
	URL          string        `json:"url"`
	StatusCode   int           `json:"status_code"`
	ContentType  string        `json:"content_type"`
	RowPath      string        `json:"row_path"`
	RecordsCount int           `json:"records_count"`
	ResponseTime time.Duration `json:"response_time"`
	FetchedAt    time.Time     `json:"fetched_at"`
}
