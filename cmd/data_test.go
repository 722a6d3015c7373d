package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/bea-cli/internal/cache"
	"github.com/sells-group/bea-cli/internal/export"
	"github.com/sells-group/bea-cli/internal/store"
	"github.com/sells-group/bea-cli/pkg/bea"
	"github.com/sells-group/bea-cli/pkg/bea/codes"
)

func TestParseParams(t *testing.T) {
	opts, err := parseParams([]string{"tablename=CAINC1", "Year = 2021,2022", "Custom=x=y"})
	require.NoError(t, err)
	assert.Equal(t, "CAINC1", opts.TableName)
	assert.Equal(t, "2021,2022", opts.Year)
	assert.Equal(t, "x=y", opts.Extra["Custom"])

	for _, bad := range []string{"Year", "=2022", ""} {
		_, err := parseParams([]string{bad})
		assert.Error(t, err, "input %q", bad)
	}
}

func TestCacheKey(t *testing.T) {
	a := cacheKey(codes.MethodGetData, bea.Options{Dataset: codes.Regional, TableName: "CAINC1", Year: "2022"})
	b := cacheKey(codes.MethodGetData, bea.Options{Dataset: codes.Regional, TableName: "CAINC1", Year: "2022"})
	c := cacheKey(codes.MethodGetData, bea.Options{Dataset: codes.Regional, TableName: "CAINC1", Year: "2021"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, "GetData?"))
	assert.Contains(t, a, "TABLENAME=CAINC1")
	assert.NotContains(t, a, "USERID")
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "bea.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestFetchData_ResponseCache(t *testing.T) {
	srv, hits := fakeBEA(t)
	client := bea.NewClient("test-key", bea.WithBaseURL(srv.URL), bea.WithRateLimit(0))
	st := newTestStore(t)
	ctx := context.Background()
	opts := bea.Options{Dataset: codes.Regional, TableName: "CAINC1"}

	resp, err := fetchData(ctx, client, st, opts, time.Hour)
	require.NoError(t, err)
	assert.Len(t, resp.Results.Data, 2)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))

	resp, err = fetchData(ctx, client, st, opts, time.Hour)
	require.NoError(t, err)
	assert.Len(t, resp.Results.Data, 2)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits), "second call should be served from the cache")

	// No TTL bypasses the cache.
	_, err = fetchData(ctx, client, st, opts, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(hits))
}

func TestFetchData_CacheHitKeepsExpiry(t *testing.T) {
	srv, hits := fakeBEA(t)
	client := bea.NewClient("test-key", bea.WithBaseURL(srv.URL), bea.WithRateLimit(0))
	st := newTestStore(t)
	ctx := context.Background()
	opts := bea.Options{Dataset: codes.Regional, TableName: "CAINC1"}
	ttl := 800 * time.Millisecond

	_, err := fetchData(ctx, client, st, opts, ttl)
	require.NoError(t, err)

	// Reads inside the TTL are hits and must not push the expiry out.
	for i := 0; i < 2; i++ {
		time.Sleep(250 * time.Millisecond)
		_, err = fetchData(ctx, client, st, opts, ttl)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))

	time.Sleep(500 * time.Millisecond)
	_, err = fetchData(ctx, client, st, opts, ttl)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(hits), "entry older than the ttl must be refetched")
}

func TestFetchData_NoStore(t *testing.T) {
	srv, hits := fakeBEA(t)
	client := bea.NewClient("test-key", bea.WithBaseURL(srv.URL), bea.WithRateLimit(0))

	for i := 0; i < 2; i++ {
		_, err := fetchData(context.Background(), client, nil, bea.Options{Dataset: codes.NIPA}, time.Hour)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(hits))
}

func TestFetchData_APIErrorNotCached(t *testing.T) {
	srv, _ := fakeBEA(t)
	client := bea.NewClient("wrong-key", bea.WithBaseURL(srv.URL), bea.WithRateLimit(0))
	st := newTestStore(t)
	opts := bea.Options{Dataset: codes.NIPA}

	_, err := fetchData(context.Background(), client, st, opts, time.Hour)
	require.Error(t, err)
	assert.True(t, bea.IsKind(err, bea.KindHTTPStatus))

	body, err := st.GetCachedResponse(context.Background(), cacheKey(codes.MethodGetData, opts))
	require.NoError(t, err)
	assert.Nil(t, body)
}

func TestFormatData(t *testing.T) {
	resp, err := bea.ParseData([]byte(dataBody))
	require.NoError(t, err)

	var buf bytes.Buffer
	formatData(&buf, &resp.Results, 0)
	out := buf.String()
	assert.Contains(t, out, "Personal income (Thousands of dollars)")
	assert.Contains(t, out, "GeoName")
	assert.Contains(t, out, "Alabama")
	assert.Contains(t, out, "245123456")
	assert.Contains(t, out, "[1] (D) Not shown.")
	assert.NotContains(t, out, "more rows")

	buf.Reset()
	formatData(&buf, &resp.Results, 1)
	out = buf.String()
	assert.Contains(t, out, "Alabama")
	assert.NotContains(t, out, "Alaska")
	assert.Contains(t, out, "... 1 more rows")
}

func TestFormatValues(t *testing.T) {
	resp, err := bea.ParseParameterValues([]byte(parameterValuesBody))
	require.NoError(t, err)

	var buf bytes.Buffer
	formatValues(&buf, resp.Results)
	out := buf.String()
	assert.Contains(t, out, "KEY")
	assert.Contains(t, out, "Note")
	assert.Contains(t, out, "CAINC1")
	assert.Contains(t, out, "annual")
}

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	runs := []store.Run{
		{ID: "abc12345-6789-0000-0000-000000000000", Dataset: codes.Regional, Statistic: "Personal income", Rows: 3143, CreatedAt: now},
		{ID: "def12345-6789-0000-0000-000000000000", Dataset: codes.NIPA, PublicTable: strings.Repeat("T", 50), CreatedAt: now},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)
	out := buf.String()
	assert.Contains(t, out, "DATASET")
	assert.Contains(t, out, "abc12345")
	assert.NotContains(t, out, "abc12345-")
	assert.Contains(t, out, "Regional")
	assert.Contains(t, out, "3143")
	assert.Contains(t, out, "2025-06-15 10:30")
	assert.Contains(t, out, strings.Repeat("T", 37)+"...")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789"))
	assert.Equal(t, "short", truncateID("short"))
}

func TestCheckDatasets(t *testing.T) {
	srv, _ := fakeBEA(t)
	client := bea.NewClient("test-key", bea.WithBaseURL(srv.URL), bea.WithRateLimit(0))
	dir, err := cache.New(t.TempDir())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, checkDatasets(context.Background(), &buf, client, dir))
	assert.Contains(t, buf.String(), "OK: 2 datasets")

	list, err := dir.LoadDatasetsBinary()
	require.NoError(t, err)
	require.Len(t, list.Datasets, 2)
	assert.Equal(t, codes.NIPA, list.Datasets[0].DatasetName)
}

func TestCheckDatasets_FetchError(t *testing.T) {
	srv, _ := fakeBEA(t)
	client := bea.NewClient("wrong-key", bea.WithBaseURL(srv.URL), bea.WithRateLimit(0))
	dir, err := cache.New(t.TempDir())
	require.NoError(t, err)

	err = checkDatasets(context.Background(), &bytes.Buffer{}, client, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "check datasets: fetch")
}

func TestSameDatasets(t *testing.T) {
	a := bea.DatasetList{Datasets: []bea.DatasetInfo{{DatasetName: codes.NIPA, DatasetDescription: "x"}}}
	assert.True(t, sameDatasets(a, a))
	assert.True(t, sameDatasets(bea.DatasetList{Datasets: []bea.DatasetInfo{}}, bea.DatasetList{}))
	assert.False(t, sameDatasets(a, bea.DatasetList{}))
	assert.False(t, sameDatasets(a, bea.DatasetList{Datasets: []bea.DatasetInfo{{DatasetName: codes.NIPA, DatasetDescription: "y"}}}))
}

func TestDataAndRunsCommands(t *testing.T) {
	srv, _ := fakeBEA(t)
	dir := setupEnv(t, srv.URL)
	xlsxPath := filepath.Join(dir, "out.xlsx")

	out, err := execute(t, "data", "Regional", "-p", "TableName=CAINC1", "-p", "Year=2022",
		"--store", "--xlsx", xlsxPath, "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Alabama")
	assert.Contains(t, out, "... 1 more rows")

	rows, err := export.ReadXLSX(xlsxPath, export.DataSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	out, err = execute(t, "runs", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Regional")
	assert.Contains(t, out, "Personal income")

	st, err := store.NewSQLite(filepath.Join(dir, "bea.db"))
	require.NoError(t, err)
	runs, err := st.ListRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	require.NoError(t, st.Close())
	require.Len(t, runs, 1)
	runID := runs[0].ID

	out, err = execute(t, "runs", "show", runID)
	require.NoError(t, err)
	assert.Contains(t, out, `"rows": 2`)
	assert.Contains(t, out, `"TableName": "CAINC1"`)

	out, err = execute(t, "runs", "delete", runID)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted run")

	_, err = execute(t, "runs", "delete", runID)
	assert.Error(t, err)

	out, err = execute(t, "runs", "prune")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 0 expired responses")
}

func TestValuesCommand(t *testing.T) {
	srv, _ := fakeBEA(t)
	setupEnv(t, srv.URL)

	out, err := execute(t, "values", "Regional", "TableName")
	require.NoError(t, err)
	assert.Contains(t, out, "CAINC1")

	_, err = execute(t, "values", "Regional", "NotAParameter")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown parameter")
}

func TestCheckParams(t *testing.T) {
	srv, hits := fakeBEA(t)
	client := bea.NewClient("test-key", bea.WithBaseURL(srv.URL), bea.WithRateLimit(0))
	dir, err := cache.New(t.TempDir())
	require.NoError(t, err)

	// With a cached dataset list only those datasets are fetched.
	require.NoError(t, checkDatasets(context.Background(), &bytes.Buffer{}, client, dir))
	atomic.StoreInt32(hits, 0)

	var buf bytes.Buffer
	require.NoError(t, checkParams(context.Background(), &buf, client, dir, 2))
	assert.Contains(t, buf.String(), "2 datasets ok, 0 failed")
	assert.Equal(t, int32(2), atomic.LoadInt32(hits))

	body, err := dir.ReadJSON(paramsFile(codes.Regional))
	require.NoError(t, err)
	resp, err := bea.ParseParameterList(body)
	require.NoError(t, err)
	assert.Len(t, resp.Results.Parameters, 2)
}

func TestCheckParams_ReportsFailures(t *testing.T) {
	srv, _ := fakeBEA(t)
	client := bea.NewClient("wrong-key", bea.WithBaseURL(srv.URL), bea.WithRateLimit(0))
	dir, err := cache.New(t.TempDir())
	require.NoError(t, err)

	var buf bytes.Buffer
	err = checkParams(context.Background(), &buf, client, dir, 0)
	require.Error(t, err)
	assert.Contains(t, buf.String(), "FAIL NIPA")
	assert.Contains(t, err.Error(), "datasets failed")
}
