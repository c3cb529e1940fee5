package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prodreport/pkg/models"
)

func TestParseRecords(t *testing.T) {
	got, err := parseRecords([]byte(`[{"fecha":"2024-01-15","completado":"1.234,5","kg":12,"x":null,"ok":true}]`))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.RawRecord{"fecha": "2024-01-15", "completado": "1.234,5", "kg": 12.0, "x": nil, "ok": true}, got[0])

	got, err = parseRecords([]byte(`{"data":[{"a":1},{"a":2}]}`))
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = parseRecords([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = parseRecords([]byte(`{"rows":[]}`))
	assert.Error(t, err)
	_, err = parseRecords([]byte(`[1,2]`))
	assert.Error(t, err)
	_, err = parseRecords([]byte(`[{"a":`))
	assert.Error(t, err)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"data":[{"CveCliente":"C0010","fecha":"2024-02-01","completado":10}]}`), 0o600))

	got, err := (&FileSource{Path: path}).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "C0010", got[0]["CveCliente"])

	_, err = (&FileSource{Path: filepath.Join(t.TempDir(), "missing.json")}).Fetch(context.Background())
	assert.Error(t, err)
}

func restFixture(n int) []string {
	rows := make([]string, n)
	for i := range rows {
		rows[i] = fmt.Sprintf(`{"id":%d,"fecha":"2024-01-%02d","completado":%d}`, i+1, i+1, (i+1)*10)
	}
	return rows
}

func newRESTServer(t *testing.T, rows []string, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/rest/v1/production_records" || r.URL.Query().Get("select") != "*" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("apikey") != "secret" || r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"no api key"}`))
			return
		}
		var from, to int
		if _, err := fmt.Sscanf(r.Header.Get("Range"), "%d-%d", &from, &to); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if from >= len(rows) && from > 0 {
			w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
			return
		}
		if to >= len(rows) {
			to = len(rows) - 1
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte("[" + strings.Join(rows[from:to+1], ",") + "]"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func fastRetries(s *RESTSource) *RESTSource {
	s.Client.RetryWaitMin = time.Millisecond
	s.Client.RetryWaitMax = 5 * time.Millisecond
	return s
}

func TestRESTSource_Pages(t *testing.T) {
	var calls atomic.Int32
	srv := newRESTServer(t, restFixture(5), &calls)

	src := fastRetries(NewRESTSource(srv.URL+"/", "production_records", "secret"))
	src.PageSize = 2
	got, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, int32(3), calls.Load())
	for i, r := range got {
		assert.Equal(t, float64(i+1), r["id"])
	}
}

func TestRESTSource_ExactPageBoundary(t *testing.T) {
	var calls atomic.Int32
	srv := newRESTServer(t, restFixture(4), &calls)

	src := fastRetries(NewRESTSource(srv.URL, "production_records", "secret"))
	src.PageSize = 2
	got, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 4)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRESTSource_Errors(t *testing.T) {
	var calls atomic.Int32
	srv := newRESTServer(t, restFixture(1), &calls)

	_, err := fastRetries(NewRESTSource(srv.URL, "production_records", "wrong")).Fetch(context.Background())
	assert.ErrorContains(t, err, "401")

	_, err = fastRetries(NewRESTSource(srv.URL, "bad table", "secret")).Fetch(context.Background())
	assert.ErrorContains(t, err, "invalid table name")
}

func TestRESTSource_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"id":1}]`))
	}))
	t.Cleanup(srv.Close)

	got, err := fastRetries(NewRESTSource(srv.URL, "production_records", "")).Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestNew(t *testing.T) {
	src, closeFn, err := New(Options{Kind: File, Path: "x.json"})
	require.NoError(t, err)
	assert.IsType(t, &FileSource{}, src)
	assert.NoError(t, closeFn())

	src, _, err = New(Options{Kind: REST, URL: "http://localhost", Table: "t", PageSize: 7})
	require.NoError(t, err)
	assert.Equal(t, 7, src.(*RESTSource).PageSize)

	db := filepath.Join(t.TempDir(), "prod.db")
	src, closeFn, err = New(Options{Kind: "sqlite", DSN: db, Table: "production_records"})
	require.NoError(t, err)
	assert.NotNil(t, src)
	assert.NoError(t, closeFn())

	_, closeFn, err = New(Options{Kind: "ftp"})
	assert.Error(t, err)
	assert.NotNil(t, closeFn)

	_, _, err = New(Options{Kind: REST})
	assert.Error(t, err)
}
