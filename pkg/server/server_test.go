package server

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"prodreport/pkg/calculator"
	"prodreport/pkg/models"
)

func record(date, client string, qty float64) models.Record {
	d, _ := time.Parse("2006-01-02", date)
	return models.Record{Date: d, ClientName: client, Product: "Bolsa", Plant: client, CompletedQty: qty}
}

func newTestServer() *Server {
	records := []models.Record{
		record("2023-01-10", "CMPC Osorno", 100),
		record("2024-01-10", "CMPC Osorno", 300),
		record("2024-02-10", "Til Til", 40),
	}
	engine := calculator.NewEngine(calculator.NewSnapshot(records), 0)
	return New(engine, models.ReportConfig{TopN: 10, TrailingMonths: 3, IncludeZero: true, Locale: "es"})
}

func do(s *Server, method, uri string) *fasthttp.RequestCtx {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	s.Handle(&ctx)
	return &ctx
}

func TestHandle_Report(t *testing.T) {
	ctx := do(newTestServer(), fasthttp.MethodGet, "/api/report?year=2024&client=CMPC%20Osorno&anchor=032024")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "application/json", string(ctx.Response.Header.ContentType()))

	var report models.Report
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &report))
	assert.Equal(t, 3, report.TotalRecords)
	assert.Equal(t, 1, report.FilteredRecords)
	assert.Equal(t, 300.0, report.TotalProduction)
	require.Len(t, report.PreviousPeriod, 3)
	assert.Equal(t, "2023-12", report.PreviousPeriod[0].Key)
	assert.Equal(t, 300.0, report.PreviousPeriod[1].Total)
	assert.Len(t, report.Interannual, 12)
}

func TestHandle_Health(t *testing.T) {
	ctx := do(newTestServer(), fasthttp.MethodGet, "/api/health")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var health HealthResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 3, health.Records)
	assert.NotEmpty(t, health.Snapshot)
}

func TestHandle_Errors(t *testing.T) {
	s := newTestServer()
	cases := []struct {
		method string
		uri    string
		status int
	}{
		{fasthttp.MethodPost, "/api/report", fasthttp.StatusMethodNotAllowed},
		{fasthttp.MethodGet, "/api/unknown", fasthttp.StatusNotFound},
		{fasthttp.MethodGet, "/api/report?year=twenty", fasthttp.StatusBadRequest},
		{fasthttp.MethodGet, "/api/report?month=12", fasthttp.StatusBadRequest},
		{fasthttp.MethodGet, "/api/report?histMonth=marzo", fasthttp.StatusBadRequest},
		{fasthttp.MethodGet, "/api/report?from=01-01-2024", fasthttp.StatusBadRequest},
		{fasthttp.MethodGet, "/api/report?top=0", fasthttp.StatusBadRequest},
		{fasthttp.MethodGet, "/api/report?anchor=2024-03", fasthttp.StatusBadRequest},
		{fasthttp.MethodGet, "/api/report?includeZero=maybe", fasthttp.StatusBadRequest},
	}
	for _, tc := range cases {
		ctx := do(s, tc.method, tc.uri)
		assert.Equal(t, tc.status, ctx.Response.StatusCode(), tc.uri)

		var e ErrorResponse
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &e), tc.uri)
		assert.Equal(t, tc.status, e.Status, tc.uri)
		assert.NotEmpty(t, e.Message, tc.uri)
	}
}

func TestParseQuery(t *testing.T) {
	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)
	args.Parse("year=2024&month=0&from=2024-01-01&to=2024-01-31&client=Til%20Til&top=3&months=6&yearA=2022&yearB=2023&analysisYear=2023&histYear=2023&histMonth=5&histClient=X&includeZero=false&locale=en")

	cfg, err := ParseQuery(args, models.ReportConfig{TopN: 10, IncludeZero: true})
	require.NoError(t, err)
	assert.Equal(t, "2024", cfg.Filter.Year)
	assert.Equal(t, "0", cfg.Filter.Month)
	assert.Equal(t, "Til Til", cfg.Filter.Client)
	require.NotNil(t, cfg.Filter.DateFrom)
	require.NotNil(t, cfg.Filter.DateTo)
	assert.Equal(t, 31, cfg.Filter.DateTo.Day())
	assert.Equal(t, models.Filter{Year: "2023", Month: "5", Client: "X"}, cfg.HistoricalFilter)
	assert.Equal(t, 3, cfg.TopN)
	assert.Equal(t, 6, cfg.TrailingMonths)
	assert.Equal(t, 2022, cfg.CompareYearA)
	assert.Equal(t, 2023, cfg.CompareYearB)
	assert.Equal(t, 2023, cfg.AnalysisYear)
	assert.False(t, cfg.IncludeZero)
	assert.Equal(t, "en", cfg.Locale)
	assert.Nil(t, cfg.Anchor)
}

func TestParseQuery_Defaults(t *testing.T) {
	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)

	cfg, err := ParseQuery(args, models.ReportConfig{TopN: 5, Locale: "es"})
	require.NoError(t, err)
	assert.Equal(t, models.AllFilter(), cfg.Filter)
	assert.Equal(t, 5, cfg.TopN)
	assert.Equal(t, "es", cfg.Locale)
}
