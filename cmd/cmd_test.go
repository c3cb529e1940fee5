package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prodreport/internal/config"
	"prodreport/pkg/calculator"
	"prodreport/pkg/models"
)

func reportFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("report", pflag.ContinueOnError)
	addReportFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestReportConfigFromFlags(t *testing.T) {
	defaults := models.ReportConfig{TopN: 10, TrailingMonths: 3, IncludeZero: true, Locale: "es"}
	fs := reportFlags(t, "--year", "2024", "--month", "2", "--client", "Til Til", "--top", "5",
		"--anchor", "042024", "--year-a", "2022", "--include-zero=false", "--hist-year", "2023", "--hist-month", "5")

	rc, err := reportConfigFromFlags(fs, defaults)
	require.NoError(t, err)
	assert.Equal(t, models.Filter{Year: "2024", Month: "2", Client: "Til Til"}, rc.Filter)
	assert.Equal(t, models.Filter{Year: "2023", Month: "5", Client: models.All}, rc.HistoricalFilter)
	assert.Equal(t, 5, rc.TopN)
	assert.Equal(t, 3, rc.TrailingMonths)
	assert.Equal(t, 2022, rc.CompareYearA)
	assert.Zero(t, rc.CompareYearB)
	assert.False(t, rc.IncludeZero)
	require.NotNil(t, rc.Anchor)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), *rc.Anchor)
	assert.Equal(t, "es", rc.Locale)
}

func TestReportConfigFromFlags_Defaults(t *testing.T) {
	defaults := models.ReportConfig{TopN: 7, TrailingMonths: 4, IncludeZero: true}
	rc, err := reportConfigFromFlags(reportFlags(t), defaults)
	require.NoError(t, err)
	assert.Equal(t, models.AllFilter(), rc.Filter)
	assert.Equal(t, 7, rc.TopN)
	assert.Equal(t, 4, rc.TrailingMonths)
	assert.True(t, rc.IncludeZero)
	assert.Nil(t, rc.Anchor)
}

func TestReportConfigFromFlags_BadValues(t *testing.T) {
	_, err := reportConfigFromFlags(reportFlags(t, "--from", "2024/01/01"), models.ReportConfig{})
	assert.ErrorContains(t, err, "--from")

	_, err = reportConfigFromFlags(reportFlags(t, "--to", "yesterday"), models.ReportConfig{})
	assert.ErrorContains(t, err, "--to")

	_, err = reportConfigFromFlags(reportFlags(t, "--anchor", "2024-04"), models.ReportConfig{})
	assert.ErrorContains(t, err, "--anchor")

	for _, args := range [][]string{
		{"--month", "12"},
		{"--month", "marzo"},
		{"--year", "twenty"},
		{"--hist-month", "-1"},
		{"--hist-year", "last"},
	} {
		_, err = reportConfigFromFlags(reportFlags(t, args...), models.ReportConfig{})
		assert.ErrorContains(t, err, args[0], args)
	}
}

func TestLoadSnapshot_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.json")
	export := `[
  {"fecha":"2024-01-10","CveCliente":" C0010 ","Descripcion":"Bolsa","completado":"1.500"},
  {"fecha":"2024-02-10","cliente":"Otro","completado":20},
  {"CveCliente":"C0010","completado":5}
]`
	require.NoError(t, os.WriteFile(path, []byte(export), 0o600))

	cfg := &config.Config{
		Source:  config.SourceConfig{Kind: "file", Path: path, PageSize: 1000},
		Clients: config.DefaultClients(),
	}
	snap, err := loadSnapshot(context.Background(), cfg, false)
	require.NoError(t, err)
	require.Len(t, snap.Records, 2)
	assert.Equal(t, "CMPC Osorno", snap.Records[0].ClientName)
	assert.Equal(t, "Otro", snap.Records[1].ClientName)

	report := calculator.Build(snap.Records, models.ReportConfig{})
	assert.Equal(t, []int{2024}, report.AvailableYears)
}

func TestPrintReport(t *testing.T) {
	records := []models.Record{
		{Date: time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC), ClientName: "A", Plant: "A", Product: "Bolsa", CompletedQty: 100},
		{Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), ClientName: "A", Plant: "A", Product: "Bolsa", CompletedQty: 150},
		{Date: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), ClientName: "B", Plant: "B", Product: "Film", CompletedQty: 10},
	}
	report := calculator.Build(records, models.ReportConfig{IncludeZero: true})

	var out bytes.Buffer
	printReport(&out, report)
	text := out.String()
	assert.Contains(t, text, "Period: marzo 2024")
	assert.Contains(t, text, "(+60.0%)")
	assert.Contains(t, text, "CLIENT")
	assert.Contains(t, text, "Top product: Bolsa 250.00 (96.2%)")
	assert.Contains(t, text, "Cohorts 2024")
	assert.Contains(t, text, "growing")
	assert.Contains(t, text, "new")

	out.Reset()
	require.NoError(t, printJSON(&out, report.Cohorts))
	assert.Contains(t, out.String(), `"growing"`)
}
