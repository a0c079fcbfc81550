package ui

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTableDefaults(t *testing.T) {
	h := NewServer(fixtureServices()).Handler()

	w, body := do(t, h, http.MethodPost, "/generate_table", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	tables := body["tables"].([]interface{})
	require.Len(t, tables, 1)
	first := tables[0].(map[string]interface{})
	assert.Equal(t, "B2_Participation", first["sideBreak"])
	assert.Equal(t, "B2. Participated in OGSTEP vs. A7. Sex", first["title"])
	assert.Contains(t, first["html"], "<table>")

	meta := body["metadata"].(map[string]interface{})
	assert.Equal(t, 4.0, meta["rowCount"])
	assert.NotNil(t, body["chart"])
}

func TestGenerateTableRequestErrors(t *testing.T) {
	h := NewServer(fixtureServices()).Handler()

	w, body := do(t, h, http.MethodPost, "/generate_table", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid JSON body", body["error"])

	w, body = do(t, h, http.MethodPost, "/generate_table", `{"mode":"bogus"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Unsupported mode 'bogus'", body["error"])

	w, body = do(t, h, http.MethodPost, "/generate_table", `{"sideBreaks":["Nope"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Unknown side break 'Nope'", body["error"])
}

func TestAnalysisTableEndpoint(t *testing.T) {
	h := NewServer(fixtureServices()).Handler()

	w, body := do(t, h, http.MethodGet, "/api/analysis_table?variable=B2_Participation&topbreak=A7_Sex&stat=counts", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	meta := body["meta"].(map[string]interface{})
	assert.Equal(t, "B2_Participation", meta["variable"])
	assert.Equal(t, "A7_Sex", meta["topbreak"])
	assert.Equal(t, 4.0, meta["n"])
	assert.Equal(t, "counts", meta["stat"])

	w, body = do(t, h, http.MethodGet, "/api/analysis_table", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "variable parameter is required", body["error"])
}

func TestSchemaEndpoint(t *testing.T) {
	h := NewServer(fixtureServices()).Handler()

	w, body := do(t, h, http.MethodGet, "/api/schema", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["fields"], 4)
	assert.Contains(t, body["numeric_candidates"], "A8_Age")
	assert.Contains(t, body["topbreak_candidates"], "A7_Sex")
}

func TestDatasetStatusAndRefresh(t *testing.T) {
	h := NewServer(fixtureServices()).Handler()

	w, body := do(t, h, http.MethodGet, "/api/dataset/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["loaded"])

	w, body = do(t, h, http.MethodPost, "/api/dataset/refresh", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["loaded"])
	assert.Equal(t, 4.0, body["records"])
	assert.Equal(t, "fixture", body["source"])
	assert.Contains(t, body, "loadedAt")
	assert.GreaterOrEqual(t, body["ageSeconds"], 0.0)

	w, body = do(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["dataset"].(map[string]interface{})["loaded"])
}

func TestUpstreamFailureIsBadGateway(t *testing.T) {
	h := NewServer(brokenServices()).Handler()

	w, body := do(t, h, http.MethodPost, "/generate_table", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Dataset source is unavailable", body["error"])

	w, _ = do(t, h, http.MethodPost, "/api/dataset/refresh", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestPreflight(t *testing.T) {
	h := NewServer(fixtureServices()).Handler()

	w, _ := do(t, h, http.MethodOptions, "/generate_table", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
