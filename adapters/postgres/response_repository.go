package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"surveytab/domain/core"
	"surveytab/domain/survey"
	"surveytab/ports"
)

// responseRow is one stored survey response
type responseRow struct {
	ID       string `db:"id"`
	Position int    `db:"position"`
	Payload  string `db:"payload"`
}

// ResponseRepository stores survey responses as JSON payloads in
// survey_responses, ordered by position
type ResponseRepository struct {
	db *sqlx.DB
}

var _ ports.ResponseRepository = (*ResponseRepository)(nil)

// NewResponseRepository creates a new response repository
func NewResponseRepository(db *sqlx.DB) *ResponseRepository {
	return &ResponseRepository{db: db}
}

// SaveResponses appends records after the current last position
func (r *ResponseRepository) SaveResponses(ctx context.Context, records []survey.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var last int
	if err := tx.GetContext(ctx, &last, `SELECT COALESCE(MAX(position), -1) FROM survey_responses`); err != nil {
		return 0, fmt.Errorf("failed to read last position: %w", err)
	}

	for i, rec := range records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal response %d: %w", i, err)
		}
		row := responseRow{
			ID:       core.NewID().String(),
			Position: last + 1 + i,
			Payload:  string(payload),
		}
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO survey_responses (id, position, payload)
			VALUES (:id, :position, :payload)
		`, row); err != nil {
			return 0, fmt.Errorf("failed to insert response %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit responses: %w", err)
	}
	return len(records), nil
}

// CountResponses returns the number of stored responses
func (r *ResponseRepository) CountResponses(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM survey_responses`); err != nil {
		return 0, fmt.Errorf("failed to count responses: %w", err)
	}
	return n, nil
}

// LoadResponses reads every stored response in position order
func (r *ResponseRepository) LoadResponses(ctx context.Context) (survey.Dataset, error) {
	var rows []responseRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, position, payload
		FROM survey_responses
		ORDER BY position
	`)
	if err != nil {
		return survey.Dataset{}, fmt.Errorf("failed to query responses: %w", err)
	}

	records := make([]survey.Record, 0, len(rows))
	for _, row := range rows {
		var rec survey.Record
		if err := json.Unmarshal([]byte(row.Payload), &rec); err != nil {
			return survey.Dataset{}, fmt.Errorf("failed to unmarshal response %s: %w", row.ID, err)
		}
		records = append(records, rec)
	}
	return survey.NewDataset(records), nil
}

// DeleteAll removes every stored response
func (r *ResponseRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM survey_responses`); err != nil {
		return fmt.Errorf("failed to delete responses: %w", err)
	}
	return nil
}
