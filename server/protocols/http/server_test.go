package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gear6io/metastore/server/catalog"
	"github.com/gear6io/metastore/server/config"
	memstore "github.com/gear6io/metastore/server/metadata/memory"
	memfs "github.com/gear6io/metastore/server/storage/memory"
	"github.com/gear6io/metastore/server/types"
	"github.com/gear6io/metastore/server/warehouse"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.LoadDefaultConfig()
	cfg.Warehouse.Dir = "/wh"
	cfg.Properties["hive.exec.scratchdir"] = "/tmp/hive"

	wh, err := warehouse.New("/wh", zerolog.Nop(), memfs.NewMemoryStorage("file"))
	require.NoError(t, err)
	h, err := catalog.NewHandler(catalog.Options{
		Config:    cfg,
		Backend:   memstore.NewBackend(zerolog.Nop()),
		Warehouse: wh,
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)

	pool := catalog.NewWorkerPool(4, 16, zerolog.Nop())
	require.NoError(t, pool.Start())
	t.Cleanup(func() { pool.Stop() })

	return NewServer(cfg.Server, h, pool, zerolog.Nop())
}

func call(t *testing.T, s *Server, op string, body interface{}) (int, string) {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/"+op, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestOperationsRoundTrip(t *testing.T) {
	s := newTestServer(t)

	status, _ := call(t, s, "create_database", Request{Name: "d1"})
	require.Equal(t, http.StatusOK, status)

	tbl := &types.Table{
		DBName:    "d1",
		TableName: "t1",
		TableType: types.ManagedTable,
		Sd: &types.StorageDescriptor{
			Cols: []types.FieldSchema{{Name: "id", Type: "bigint"}},
		},
		PartitionKeys: []types.FieldSchema{{Name: "ds", Type: "string"}},
	}
	status, body := call(t, s, "create_table", Request{TableDef: tbl})
	require.Equal(t, http.StatusOK, status, body)

	status, body = call(t, s, "append_partition", Request{DB: "d1", Table: "t1", Values: []string{"2024-01-01"}})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "file:///wh/d1/t1/ds=2024-01-01", gjson.Get(body, "result.sd.location").String())

	status, body = call(t, s, "get_partition_by_name", Request{DB: "d1", Table: "t1", PartName: "ds=2024-01-01"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "2024-01-01", gjson.Get(body, "result.values.0").String())

	status, body = call(t, s, "get_partition_names", Request{DB: "d1", Table: "t1"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, `["ds=2024-01-01"]`, gjson.Get(body, "result").Raw)

	status, body = call(t, s, "get_tables", Request{DB: "d1", Pattern: "t*"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, `["t1"]`, gjson.Get(body, "result").Raw)

	status, body = call(t, s, "get_schema", Request{DB: "d1", Table: "t1"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, int64(2), gjson.Get(body, "result.#").Int())

	status, body = call(t, s, "drop_partition", Request{DB: "d1", Table: "t1", Values: []string{"2024-01-01"}, DeleteData: true})
	require.Equal(t, http.StatusOK, status, body)
	assert.True(t, gjson.Get(body, "result").Bool())
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)
	status, _ := call(t, s, "create_database", Request{Name: "d1"})
	require.Equal(t, http.StatusOK, status)

	cases := []struct {
		name   string
		op     string
		req    Request
		status int
		kind   types.Kind
	}{
		{"duplicate", "create_database", Request{Name: "d1"}, http.StatusConflict, types.KindAlreadyExists},
		{"missing", "get_database", Request{Name: "nope"}, http.StatusNotFound, types.KindNoSuchObject},
		{"invalid name", "create_database", Request{Name: "bad name"}, http.StatusBadRequest, types.KindInvalidObject},
		{"drop default", "drop_database", Request{Name: "default"}, http.StatusUnprocessableEntity, types.KindInvalidOperation},
		{"config denied", "get_config_value", Request{Name: "javax.jdo.option.ConnectionPassword"}, http.StatusForbidden, types.KindConfigAccessDenied},
		{"unknown verb", "launch_rockets", Request{}, http.StatusUnprocessableEntity, types.KindInvalidOperation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := call(t, s, tc.op, tc.req)
			assert.Equal(t, tc.status, status, body)
			assert.Equal(t, string(tc.kind), gjson.Get(body, "error.type").String())
			assert.Equal(t, types.CodeOf(tc.kind).String(), gjson.Get(body, "error.code").String())
			assert.NotEmpty(t, gjson.Get(body, "error.message").String())
		})
	}
}

func TestMalformedBody(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/get_database", strings.NewReader("{"))
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestConfigValue(t *testing.T) {
	s := newTestServer(t)
	status, body := call(t, s, "get_config_value", Request{Name: "hive.exec.scratchdir", Default: "x"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "/tmp/hive", gjson.Get(body, "result").String())
}

func TestServiceEndpoints(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, err = s.App().Test(httptest.NewRequest(http.MethodGet, "/version", nil), -1)
	require.NoError(t, err)
	data, _ := io.ReadAll(resp.Body)
	assert.Equal(t, catalog.Version, gjson.GetBytes(data, "version").String())

	call(t, s, "get_databases", nil)
	resp, err = s.App().Test(httptest.NewRequest(http.MethodGet, "/status", nil), -1)
	require.NoError(t, err)
	data, _ = io.ReadAll(resp.Body)
	assert.Equal(t, catalog.StatusAlive, gjson.GetBytes(data, "status").String())
	assert.Equal(t, int64(4), gjson.GetBytes(data, "pool.total_workers").Int())
	assert.GreaterOrEqual(t, gjson.GetBytes(data, "sessions").Int(), int64(1))

	resp, err = s.App().Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	data, _ = io.ReadAll(resp.Body)
	assert.Contains(t, string(data), "metastore_calls_total")
}

func TestOperationsAreSorted(t *testing.T) {
	ops := Operations()
	assert.Contains(t, ops, "add_partitions")
	assert.IsIncreasing(t, ops)
}
