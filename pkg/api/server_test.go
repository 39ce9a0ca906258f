package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/ssargent/dbckit/pkg/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "test-key"

type staticCatalog struct {
	tables map[string]*LoadedTable
	broken map[string]error
}

func (c *staticCatalog) Names() []string {
	var names []string
	for name := range c.tables {
		names = append(names, name)
	}
	for name := range c.broken {
		names = append(names, name)
	}
	names = append(names, "Missing")
	sort.Strings(names)
	return names
}

func (c *staticCatalog) Load(name string) (*LoadedTable, error) {
	if err, ok := c.broken[name]; ok {
		return nil, err
	}
	if lt, ok := c.tables[name]; ok {
		return lt, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
}

type testResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func setupRouter(t *testing.T, apiKey string) http.Handler {
	t.Helper()
	reg := testRegistry(t)
	s, _ := reg.Lookup("Lock")
	decoded, err := table.Decode(lockFile(t, reg, 10, 20, 30), s)
	require.NoError(t, err)

	catalog := &staticCatalog{
		tables: map[string]*LoadedTable{
			"Lock": {Table: decoded, Revision: "r1"},
		},
		broken: map[string]error{"Corrupt": &LoadError{Table: "Corrupt", Err: errors.New("disk on fire")}},
	}
	return NewRouter(catalog, ServerConfig{APIKey: apiKey}, prometheus.NewRegistry(), nil)
}

func doRequest(t *testing.T, h http.Handler, path string, withKey bool) (*httptest.ResponseRecorder, testResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if withKey {
		req.Header.Set("X-API-Key", testAPIKey)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp testResponse
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestRouter_Health(t *testing.T) {
	h := setupRouter(t, testAPIKey)

	rec, resp := doRequest(t, h, "/api/v1/health", true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.JSONEq(t, `{"status":"healthy"}`, string(resp.Data))

	rec, resp = doRequest(t, h, "/api/v1/health", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Missing X-API-Key header", resp.Error)
}

func TestRouter_NoAuthConfigured(t *testing.T) {
	h := setupRouter(t, "")
	rec, _ := doRequest(t, h, "/api/v1/health", false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_ListTables(t *testing.T) {
	h := setupRouter(t, testAPIKey)

	rec, resp := doRequest(t, h, "/api/v1/tables", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var infos []TableInfo
	require.NoError(t, json.Unmarshal(resp.Data, &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, TableInfo{
		Name:            "Lock",
		File:            "Lock.dbc",
		Revision:        "r1",
		Records:         3,
		Fields:          11,
		RecordSize:      44,
		StringBlockSize: 16, // "Lock" three times under the legacy policy
	}, infos[0])
}

func TestRouter_GetTable(t *testing.T) {
	h := setupRouter(t, testAPIKey)

	t.Run("first page", func(t *testing.T) {
		rec, resp := doRequest(t, h, "/api/v1/tables/Lock", true)
		require.Equal(t, http.StatusOK, rec.Code)

		var page TableResponse
		require.NoError(t, json.Unmarshal(resp.Data, &page))
		assert.Equal(t, "Lock", page.Name)
		assert.Equal(t, 0, page.Offset)
		assert.Equal(t, defaultPageSize, page.Limit)
		require.Len(t, page.Rows, 3)
		assert.Equal(t, float64(10), page.Rows[0]["id"])
		assert.Equal(t, "Item", page.Rows[0]["type"])
		assert.Equal(t, "Lock", page.Rows[0]["name"].(map[string]any)["enGB"])
	})

	t.Run("offset and limit", func(t *testing.T) {
		rec, resp := doRequest(t, h, "/api/v1/tables/Lock?offset=1&limit=1", true)
		require.Equal(t, http.StatusOK, rec.Code)

		var page TableResponse
		require.NoError(t, json.Unmarshal(resp.Data, &page))
		require.Len(t, page.Rows, 1)
		assert.Equal(t, float64(20), page.Rows[0]["id"])
	})

	t.Run("offset past end", func(t *testing.T) {
		rec, resp := doRequest(t, h, "/api/v1/tables/Lock?offset=50", true)
		require.Equal(t, http.StatusOK, rec.Code)

		var page TableResponse
		require.NoError(t, json.Unmarshal(resp.Data, &page))
		assert.Empty(t, page.Rows)
	})

	testCases := []struct {
		name   string
		path   string
		status int
	}{
		{name: "bad limit", path: "/api/v1/tables/Lock?limit=0", status: http.StatusBadRequest},
		{name: "huge limit", path: "/api/v1/tables/Lock?limit=5000", status: http.StatusBadRequest},
		{name: "bad offset", path: "/api/v1/tables/Lock?offset=-1", status: http.StatusBadRequest},
		{name: "unknown table", path: "/api/v1/tables/Missing", status: http.StatusNotFound},
		{name: "broken table", path: "/api/v1/tables/Corrupt", status: http.StatusInternalServerError},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec, resp := doRequest(t, h, tc.path, true)
			assert.Equal(t, tc.status, rec.Code)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestRouter_GetRow(t *testing.T) {
	h := setupRouter(t, testAPIKey)

	rec, resp := doRequest(t, h, "/api/v1/tables/Lock/rows/20", true)
	require.Equal(t, http.StatusOK, rec.Code)
	var row map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &row))
	assert.Equal(t, float64(20), row["id"])

	rec, resp = doRequest(t, h, "/api/v1/tables/Lock/rows/21", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, resp.Error, "Row 21 not found")

	rec, _ = doRequest(t, h, "/api/v1/tables/Lock/rows/abc", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doRequest(t, h, "/api/v1/tables/Missing/rows/1", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_Metrics(t *testing.T) {
	h := setupRouter(t, testAPIKey)

	doRequest(t, h, "/api/v1/tables/Lock/rows/20", true)
	doRequest(t, h, "/api/v1/tables/Lock/rows/99", true)
	doRequest(t, h, "/api/v1/health", true)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, `dbc_row_lookups_total{result="hit",table="Lock"} 1`)
	assert.Contains(t, text, `dbc_row_lookups_total{result="miss",table="Lock"} 1`)
	assert.Contains(t, text, `dbc_table_rows{table="Lock"} 3`)
	assert.Contains(t, text, `dbc_health_checks_total{status="success"} 1`)
	assert.Contains(t, text, "dbc_http_requests_total")
	assert.Contains(t, text, `dbc_auth_requests_total{status="success"} 3`)
}

func TestRouter_MetricsUnknownTablesShareOneSeries(t *testing.T) {
	h := setupRouter(t, testAPIKey)

	for i := 0; i < 20; i++ {
		doRequest(t, h, fmt.Sprintf("/api/v1/tables/bogus%d", i), true)
		doRequest(t, h, fmt.Sprintf("/api/v1/tables/bogus%d/rows/1", i), true)
	}
	doRequest(t, h, "/api/v1/tables/Corrupt", true)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	assert.NotContains(t, text, "bogus")
	assert.Contains(t, text, `dbc_table_loads_total{status="error",table="unknown"} 40`)
	assert.Contains(t, text, `dbc_table_loads_total{status="error",table="Corrupt"} 1`)
}
