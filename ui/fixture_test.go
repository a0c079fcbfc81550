package ui

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"surveytab/app"
	"surveytab/domain/survey"
	"surveytab/internal/codebook"
	"surveytab/internal/dataset"
	"surveytab/internal/render"
	"surveytab/internal/testkit"
	"surveytab/ports"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func fixtureRows() survey.Dataset {
	return testkit.Rows(
		map[string]any{"survey_path": "treatment", "B2_Participation": "Yes", "A7_Sex": "Male", "A8_Age": 23},
		map[string]any{"survey_path": "treatment", "B2_Participation": "No", "A7_Sex": "Female", "A8_Age": 37},
		map[string]any{"survey_path": "control", "B2_Participation": "Yes", "A7_Sex": "Female", "A8_Age": 45},
		map[string]any{"survey_path": "control", "B2_Participation": "No", "A7_Sex": "Male", "A8_Age": 52},
	)
}

func servicesFor(provider ports.SnapshotProvider) Services {
	cb := codebook.Default()
	renderer := render.New()
	return Services{
		Tables:    app.NewTableService(provider, cb, renderer),
		Variables: app.NewVariableService(provider, cb, renderer),
		Snapshots: provider,
	}
}

func fixtureServices() Services {
	return servicesFor(dataset.NewCache(testkit.NewStaticSource("fixture", fixtureRows()), nil))
}

func brokenServices() Services {
	src := testkit.FuncSource{
		SourceName: "broken",
		LoadFunc: func(ctx context.Context) (survey.Dataset, error) {
			return survey.Dataset{}, errors.New("dial tcp: connection refused")
		},
	}
	return servicesFor(dataset.NewCache(src, nil))
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), w.Body.String())
	}
	return w, decoded
}
