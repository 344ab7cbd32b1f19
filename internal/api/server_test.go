package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveydash/adapters/excel"
	"surveydash/adapters/kobo"
	"surveydash/app"
	"surveydash/domain/dataset"
	"surveydash/internal/session"
)

type stubSource struct {
	table *dataset.Table
}

func (s stubSource) Load(ctx context.Context, q dataset.Query) (*dataset.Table, error) {
	return s.table, nil
}

type countingSource struct {
	loads int
}

func (s *countingSource) Load(ctx context.Context, q dataset.Query) (*dataset.Table, error) {
	s.loads++
	return surveyTable(), nil
}

func surveyTable() *dataset.Table {
	return dataset.FromRecords(
		[]string{"gen_info/province", "gen_info/district", "gen_info/sex", "age"},
		[][]string{
			{"Kabul", "Paghman", "female", "34"},
			{"Kabul", "Paghman", "male", "41"},
			{"Herat", "Injil", "female", "29"},
		},
	)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	service := app.NewDashboardService(app.Dependencies{
		Registry: kobo.NewRegistry([]dataset.Source{{Name: "IMM", AssetUID: "uid1"}}),
		Source:   stubSource{table: surveyTable()},
		Sessions: session.NewManager(time.Hour),
	})
	return NewServer(service, gin.TestMode)
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, s *Server) string {
	t.Helper()
	w := doJSON(t, s, http.MethodPost, "/api/sessions", map[string]string{"dataset": "IMM", "submitted_after": "2024-01-01"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var info session.Info
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, 3, info.Rows)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), info.SubmittedAfter)
	return info.ID.String()
}

func TestCreateSessionRefreshBypassesCache(t *testing.T) {
	gin.SetMode(gin.TestMode)
	source := &countingSource{}
	service := app.NewDashboardService(app.Dependencies{
		Registry: kobo.NewRegistry([]dataset.Source{{Name: "IMM", AssetUID: "uid1"}}),
		Source:   kobo.NewCachedSource(source, time.Hour),
		Sessions: session.NewManager(time.Hour),
	})
	s := NewServer(service, gin.TestMode)

	for i := 0; i < 2; i++ {
		w := doJSON(t, s, http.MethodPost, "/api/sessions", map[string]interface{}{"dataset": "IMM"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	assert.Equal(t, 1, source.loads)

	w := doJSON(t, s, http.MethodPost, "/api/sessions", map[string]interface{}{"dataset": "IMM", "refresh": true})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 2, source.loads)
}

func TestHealthAndCatalog(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/datasets", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"asset_uid":"uid1"`)

	w = doJSON(t, s, http.MethodGet, "/api/interventions", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Cash_for_Work")

	w = doJSON(t, s, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "surveydash_active_sessions")
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	w := doJSON(t, s, http.MethodGet, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodDelete, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionErrors(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/sessions", map[string]string{"dataset": "unknown"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, s, http.MethodPost, "/api/sessions", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, s, http.MethodPost, "/api/sessions", map[string]string{"dataset": "IMM", "submitted_after": "yesterday"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/sessions/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCommands(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)
	path := "/api/sessions/" + id + "/commands"

	w := doJSON(t, s, http.MethodPost, path, map[string]interface{}{
		"kind":    "filter",
		"filters": map[string][]string{"gen_info/sex": {"female"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Rows  int `json:"rows"`
		Table struct {
			Columns []string `json:"columns"`
			Index   []int    `json:"index"`
		} `json:"table"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Rows)
	assert.Equal(t, []int{0, 2}, resp.Table.Index)

	w = doJSON(t, s, http.MethodPost, path, map[string]interface{}{"kind": "describe", "columns": []string{"age"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"median":34`)

	w = doJSON(t, s, http.MethodPost, path, map[string]interface{}{"kind": "pivot"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, s, http.MethodPost, path, map[string]interface{}{"kind": "outliers", "column": "height"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, s, http.MethodPost, path, map[string]interface{}{"kind": "intervention", "intervention": "Fishing"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExport(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	w := doJSON(t, s, http.MethodPost, "/api/sessions/"+id+"/export", map[string]interface{}{
		"kind":    "group_counts",
		"columns": []string{"gen_info/province"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, excel.ContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "group_counts.xlsx")

	table, err := excel.Read(w.Body, excel.FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, "Herat", table.Row(0).Get("gen_info/province").Text())
}

func TestReport(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	// the stub survey lacks the gardening plot columns
	w := doJSON(t, s, http.MethodGet, "/api/sessions/"+id+"/report/Vegetable_Home_Gardening", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/sessions/"+id+"/report/Unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReportsWithoutArchive(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/api/reports", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "CONFIG_INVALID")
}

func TestUploadSession(t *testing.T) {
	s := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "households.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("province,age\nKabul,30\nHerat,\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var info session.Info
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "households.csv", info.Dataset)
	assert.Equal(t, 2, info.Rows)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(context.DeadlineExceeded))
}
