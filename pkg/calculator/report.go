package calculator

import (
	"strconv"
	"time"

	"prodreport/pkg/models"
)

const (
	defaultTopN           = 10
	defaultArticleTopN    = 8
	defaultTrailingMonths = 3
)

var now = time.Now

// Defaults fills the zero fields of cfg.
func Defaults(cfg models.ReportConfig) models.ReportConfig {
	cfg.Filter = normalizeFilter(cfg.Filter)
	cfg.HistoricalFilter = normalizeFilter(cfg.HistoricalFilter)
	if cfg.TopN <= 0 {
		cfg.TopN = defaultTopN
	}
	if cfg.ArticleTopN <= 0 {
		cfg.ArticleTopN = defaultArticleTopN
	}
	if cfg.TrailingMonths <= 0 {
		cfg.TrailingMonths = defaultTrailingMonths
	}
	cfg.Locale = localeOrDefault(cfg.Locale)
	return cfg
}

// Build computes every report view over records. records are not modified.
func Build(records []models.Record, cfg models.ReportConfig) models.Report {
	cfg = Defaults(cfg)
	years := AvailableYears(records)
	filtered := ApplyFilter(records, cfg.Filter)
	opts := Options{DropZero: !cfg.IncludeZero}

	yearA, yearB := compareYears(years, cfg.CompareYearA, cfg.CompareYearB)
	analysisYear := cfg.AnalysisYear
	if analysisYear == 0 && len(years) > 0 {
		analysisYear = years[len(years)-1]
	}

	trajectory := models.Filter{Year: cfg.Filter.Year, Month: cfg.Filter.Month, Client: models.All}

	report := models.Report{
		GeneratedAt:      now().UTC().Format(time.RFC3339),
		TotalRecords:     len(records),
		FilteredRecords:  len(filtered),
		TotalProduction:  Sum(filtered, CompletedQty),
		Efficiency:       round(Efficiency(filtered), 1),
		AvailableYears:   years,
		AvailableClients: DistinctClients(records),
		ByClient:         Aggregate(filtered, ByClient, CompletedQty, withTop(opts, cfg.TopN)),
		ByPlant:          Aggregate(filtered, ByPlant, CompletedQty, opts),
		TopProducts:      Aggregate(filtered, ByProduct, CompletedQty, withTop(opts, cfg.TopN)),
		ByArticle:        Aggregate(filtered, ByArticle, CompletedQty, withTop(opts, cfg.ArticleTopN)),
		ProductShare:     TopProductShare(filtered, CompletedQty),
		Historical:       MonthlySeries(ApplyFilter(records, cfg.HistoricalFilter), CompletedQty, cfg.Locale),
		PreviousPeriod:   TrailingMonths(records, anchorFor(cfg), cfg.TrailingMonths, CompletedQty, cfg.Locale),
		Summary:          Summarize(records, cfg.Locale),
		Trajectory:       DrillDown(records, trajectory, CompletedQty, cfg.Locale),
		CompareYearA:     yearA,
		CompareYearB:     yearB,
		AnalysisYear:     analysisYear,
	}

	cmp := CompareYears(records, yearA, yearB, CompletedQty, cfg.Locale)
	report.Interannual = cmp[:]

	if analysisYear != 0 {
		report.Cohorts = ClassifyClients(ClientYearTotals(records, CompletedQty), analysisYear, PriorYears(years, analysisYear), cfg.TopN)
	} else {
		report.Cohorts = ClassifyClients(nil, 0, nil, 0)
	}
	return report
}

func withTop(opts Options, n int) Options {
	opts.TopN = n
	return opts
}

// compareYears defaults to the two most recent available years.
func compareYears(years []int, a, b int) (int, int) {
	if a == 0 && len(years) > 0 {
		a = years[0]
		if len(years) > 1 {
			a = years[len(years)-2]
		}
	}
	if b == 0 && len(years) > 0 {
		b = years[len(years)-1]
	}
	return a, b
}

// anchorFor picks the trailing window anchor: explicit anchor, then DateFrom,
// then the first day of the filtered year/month, defaulting to January of the current year.
func anchorFor(cfg models.ReportConfig) time.Time {
	if cfg.Anchor != nil {
		return *cfg.Anchor
	}
	if cfg.Filter.DateFrom != nil {
		return startOfDay(*cfg.Filter.DateFrom)
	}
	year := now().Year()
	if y, err := strconv.Atoi(cfg.Filter.Year); err == nil {
		year = y
	}
	month := 0
	if m, err := strconv.Atoi(cfg.Filter.Month); err == nil && m >= 0 && m <= 11 {
		month = m
	}
	return time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.UTC)
}
