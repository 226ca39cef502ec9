package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/simple_mysql_go/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testServer(t *testing.T) (*Server, *gin.Engine) {
	t.Helper()

	h := store.New(store.WithDialect(store.SQLite{}), store.WithTablePrefix("app_"))
	require.NoError(t, h.Connect(testContext(t), store.Credentials{Database: ":memory:"}))
	t.Cleanup(func() { _ = h.Close() })

	_, err := h.Query(testContext(t), "CREATE TABLE {prefix}users (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL, team TEXT)")
	require.NoError(t, err)

	srv := NewServer(h, 5*time.Second)
	return srv, srv.Router()
}

func do(t *testing.T, router *gin.Engine, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

func insertUser(t *testing.T, router *gin.Engine, name, team string) float64 {
	t.Helper()
	code, out := do(t, router, http.MethodPost, "/api/v1/tables/%7Bprefix%7Dusers/rows", map[string]any{
		"values": map[string]any{"name": name, "team": team},
	})
	require.Equal(t, http.StatusCreated, code)
	return out["id"].(float64)
}

func TestAPI_Server_Health(t *testing.T) {
	t.Parallel()

	srv, router := testServer(t)
	code, out := do(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ok", out["status"])

	require.NoError(t, srv.helper.Close())
	code, _ = do(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusServiceUnavailable, code)
}

func TestAPI_Server_InsertAndLastID(t *testing.T) {
	t.Parallel()

	_, router := testServer(t)
	id := insertUser(t, router, "Ann", "red")
	require.Positive(t, id)

	code, out := do(t, router, http.MethodGet, "/api/v1/last-id", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, id, out["id"])

	code, out = do(t, router, http.MethodGet, "/api/v1/tables/%7Bprefix%7Dusers/count", nil)
	require.Equal(t, http.StatusOK, code)
	require.EqualValues(t, 1, out["count"])
}

func TestAPI_Server_Query(t *testing.T) {
	t.Parallel()

	_, router := testServer(t)
	insertUser(t, router, "Ann", "red")
	insertUser(t, router, "Bob", "red")
	insertUser(t, router, "Cid", "blue")

	t.Run("grouped table", func(t *testing.T) {
		code, out := do(t, router, http.MethodPost, "/api/v1/query", map[string]any{
			"sql":                  "SELECT name, team FROM {prefix}users ORDER BY id",
			"index":                "team",
			"allow_duplicate_keys": true,
		})
		require.Equal(t, http.StatusOK, code)
		grouped := out["grouped"].(map[string]any)
		require.Len(t, grouped["red"], 2)
		require.Len(t, grouped["blue"], 1)
		require.Equal(t, []any{"red", "blue"}, out["keys"])
	})

	t.Run("line with args", func(t *testing.T) {
		code, out := do(t, router, http.MethodPost, "/api/v1/query", map[string]any{
			"sql":  "SELECT name FROM {prefix}users WHERE team = ?",
			"args": []any{"blue"},
			"mode": "line",
		})
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, map[string]any{"name": "Cid"}, out["row"])
	})

	t.Run("no rows", func(t *testing.T) {
		code, _ := do(t, router, http.MethodPost, "/api/v1/query", map[string]any{
			"sql": "SELECT * FROM {prefix}users WHERE team = 'green'",
		})
		require.Equal(t, http.StatusNotFound, code)
	})

	t.Run("bad sql", func(t *testing.T) {
		code, out := do(t, router, http.MethodPost, "/api/v1/query", map[string]any{
			"sql": "SELECT * FROM {prefix}nope",
		})
		require.Equal(t, http.StatusUnprocessableEntity, code)
		require.Equal(t, "HY000", out["sqlstate"])
	})

	t.Run("missing sql", func(t *testing.T) {
		code, _ := do(t, router, http.MethodPost, "/api/v1/query", map[string]any{})
		require.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("unknown mode", func(t *testing.T) {
		code, _ := do(t, router, http.MethodPost, "/api/v1/query", map[string]any{"sql": "SELECT 1", "mode": "all"})
		require.Equal(t, http.StatusBadRequest, code)
	})
}

func TestAPI_Server_UpdateDelete(t *testing.T) {
	t.Parallel()

	_, router := testServer(t)
	insertUser(t, router, "Ann", "red")
	insertUser(t, router, "Bob", "red")

	code, _ := do(t, router, http.MethodPatch, "/api/v1/tables/%7Bprefix%7Dusers/rows", map[string]any{
		"values":    map[string]any{"team": "blue"},
		"condition": "team = ?",
		"args":      []any{"red"},
	})
	require.Equal(t, http.StatusOK, code)

	code, out := do(t, router, http.MethodGet, "/api/v1/tables/%7Bprefix%7Dusers/count?condition=team%3D%27blue%27", nil)
	require.Equal(t, http.StatusOK, code)
	require.EqualValues(t, 1, out["count"])

	code, _ = do(t, router, http.MethodPatch, "/api/v1/tables/%7Bprefix%7Dusers/rows", map[string]any{
		"values":    map[string]any{},
		"condition": "id = 1",
	})
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, router, http.MethodDelete, "/api/v1/tables/%7Bprefix%7Dusers/rows", map[string]any{})
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, router, http.MethodDelete, "/api/v1/tables/%7Bprefix%7Dusers/rows", map[string]any{
		"condition": "name = ?",
		"args":      []any{"Ann"},
	})
	require.Equal(t, http.StatusOK, code)

	code, out = do(t, router, http.MethodGet, "/api/v1/logs/work", nil)
	require.Equal(t, http.StatusOK, code)
	work := out["work"].(map[string]any)
	require.Equal(t, []any{
		"1 Row(s) inserted.",
		"1 Row(s) inserted.",
		"1 Row(s) updated.",
		"1 Row(s) counted.",
		"1 Row(s) deleted.",
	}, work["app_users"])

	code, out = do(t, router, http.MethodGet, "/api/v1/logs/errors", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, []any{
		"No data provided for UPDATE operation.",
		"No condition provided for DELETE operation.",
	}, out["errors"])
}

func TestAPI_Server_Disconnected(t *testing.T) {
	t.Parallel()

	srv := NewServer(store.New(), time.Second)
	router := srv.Router()

	code, _ := do(t, router, http.MethodGet, "/api/v1/last-id", nil)
	require.Equal(t, http.StatusServiceUnavailable, code)

	_, out := do(t, router, http.MethodGet, "/api/v1/logs/errors", nil)
	require.Equal(t, []any{"No active database connection."}, out["errors"])
}

func TestAPI_Server_Metrics(t *testing.T) {
	t.Parallel()

	_, router := testServer(t)
	do(t, router, http.MethodGet, "/health", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "simple_mysql_http_requests_total")
	require.Contains(t, rec.Body.String(), "simple_mysql_queries_total")
}
