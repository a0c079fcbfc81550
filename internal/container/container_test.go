package container

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveytab/internal/config"
	apperrors "surveytab/internal/errors"
	"surveytab/internal/testkit"
)

func TestNewWithMockSource(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		Source: config.SourceConfig{Kind: config.SourceMock},
		Mock:   config.MockConfig{Rows: 40, Seed: 3},
	}
	c, err := New(ctx, cfg)
	require.NoError(t, err)
	defer c.Shutdown(ctx)

	assert.Equal(t, "mock", c.Source.Name())
	assert.Nil(t, c.DB)

	c.Warm(ctx)
	snap := c.Cache.Peek()
	require.NotNil(t, snap)
	assert.Equal(t, 40, snap.Len())
}

func TestNewWithFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "responses.csv")
	require.NoError(t, os.WriteFile(path, []byte("survey_path,B4_SupportType\ntreatment,Training;Finance\n"), 0o644))

	ctx := context.Background()
	cfg := &config.Config{Source: config.SourceConfig{Kind: config.SourceFile, File: path}}
	c, err := New(ctx, cfg)
	require.NoError(t, err)

	snap, err := c.Cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Training", "Finance"}, snap.View().Records[0].Get("B4_SupportType").Items())
}

func TestNewWithSQLSource(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		Source:   config.SourceConfig{Kind: config.SourceSQL},
		Database: config.DatabaseConfig{Driver: "sqlite3", URL: ":memory:"},
	}
	c, err := New(ctx, cfg)
	require.NoError(t, err)
	defer c.Shutdown(ctx)
	require.NotNil(t, c.DB)

	rows := testkit.NewSurveyGenerator(testkit.DefaultSurveyConfig(), c.Codebook).Generate()
	n, err := c.Responses.SaveResponses(ctx, rows.Records[:10])
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	snap, err := c.Cache.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, snap.Len())
	assert.Equal(t, "sql:sqlite3", snap.Source)
}

func TestNewRejectsBadCodebook(t *testing.T) {
	cfg := &config.Config{
		Source:   config.SourceConfig{Kind: config.SourceMock, FetchTimeout: time.Second},
		Mock:     config.MockConfig{Rows: 10},
		Codebook: filepath.Join(t.TempDir(), "missing.yaml"),
	}
	_, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))
}
