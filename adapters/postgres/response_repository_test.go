package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveytab/domain/core"
	"surveytab/internal/migration"
	"surveytab/internal/testkit"
)

func setupDB(t *testing.T) *ResponseRepository {
	t.Helper()
	db, err := Connect(DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	runner := migration.NewRunner()
	require.NoError(t, runner.Run(context.Background(), db))
	// Running twice is a no-op.
	require.NoError(t, runner.Run(context.Background(), db))
	applied, err := runner.Applied(context.Background(), db)
	require.NoError(t, err)
	require.True(t, applied)

	return NewResponseRepository(db)
}

func TestResponseRepositoryRoundTrip(t *testing.T) {
	repo := setupDB(t)
	ctx := context.Background()

	first := testkit.Rows(
		map[string]any{"survey_path": "treatment", "A8_Age": 31, "support": []any{"Training", "Finance"}},
		map[string]any{"survey_path": "control", "A8_Age": nil},
	)
	second := testkit.Rows(
		map[string]any{"survey_path": "self_started", "A8_Age": 52},
	)

	n, err := repo.SaveResponses(ctx, first.Records)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = repo.SaveResponses(ctx, second.Records)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	count, err := repo.CountResponses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	ds, err := NewResponseSource(repo, DriverSQLite).Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())

	assert.Equal(t, "treatment", ds.Records[0].Get("survey_path").String())
	assert.Equal(t, []string{"Training", "Finance"}, ds.Records[0].Get("support").Items())
	assert.True(t, ds.Records[1].Get("A8_Age").IsMissing())
	age, ok := ds.Records[2].Get("A8_Age").Float()
	require.True(t, ok)
	assert.Equal(t, 52.0, age)
}

func TestSaveNothing(t *testing.T) {
	repo := setupDB(t)
	n, err := repo.SaveResponses(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestResponseSourceWrapsQueryErrors(t *testing.T) {
	repo := setupDB(t)
	require.NoError(t, migration.NewRunner().Reset(context.Background(), repo.db))

	_, err := NewResponseSource(repo, DriverSQLite).Load(context.Background())
	require.Error(t, err)
	assert.True(t, core.IsUpstreamError(err))
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	_, err := Connect("mysql", "x")
	assert.Error(t, err)
}
