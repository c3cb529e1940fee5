package models

import (
	"time"
)

/*
LOAD → raw records as handed over by a source (database, REST, file).
*/

// RawRecord is one production transaction as read from a source. Field names
// and value types are not guaranteed; see the normalizer for the accepted aliases.
type RawRecord map[string]any

// ClientMapping maps a trimmed client code to its display name.
type ClientMapping map[string]string

// NoClient is the label used when neither a mapped code nor a raw name exists.
const NoClient = "Sin Cliente"

// NoProduct labels records without a product description.
const NoProduct = "Sin producto"

// Record is a normalized production record.
type Record struct {
	Date          time.Time
	ClientCode    string
	HasClientCode bool
	ClientName    string // never empty, falls back to NoClient
	Product       string
	Plant         string
	CompletedQty  float64 // >= 0
	PlannedQty    float64 // >= 0

	// Year/Month carry explicit period fields (año/mes) when the raw record has them.
	// Month is 0-based.
	Year      int
	Month     int
	HasPeriod bool
}

// Period returns the (year, month) of a record, explicit fields first.
func (r Record) Period() (int, int) {
	if r.HasPeriod {
		return r.Year, r.Month
	}
	return r.Date.Year(), int(r.Date.Month()) - 1
}

/*
FILTER → predicates applied before any aggregation
*/

// All disables a Filter predicate.
const All = "all"

// Filter holds conjunctive predicates. Year is "all" or a year ("2024"), Month is
// "all" or a 0-based month ("0".."11"). A nil DateFrom/DateTo disables that bound.
type Filter struct {
	Year     string     `json:"year"`
	Month    string     `json:"month"`
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`
	Client   string     `json:"client"`
}

// AllFilter returns a filter with every predicate disabled.
func AllFilter() Filter {
	return Filter{Year: All, Month: All, Client: All}
}

/*
COMPUTE → aggregate result values
*/

// Bucket is a named aggregate total.
type Bucket struct {
	Key   string  `json:"key"`
	Total float64 `json:"total"`
}

// TimeSeriesPoint is one calendar month of a dense series.
type TimeSeriesPoint struct {
	Key   string  `json:"key"`   // "YYYY-MM"
	Label string  `json:"label"` // localized short month name
	Total float64 `json:"total"`
}

// MonthlyComparison carries the totals of two years for one month.
type MonthlyComparison struct {
	Month int     `json:"month"` // 0-based
	Label string  `json:"label"`
	YearA float64 `json:"year_a"`
	YearB float64 `json:"year_b"`
	Diff  float64 `json:"diff"` // YearB - YearA
}

// CohortEntry is one client's position against its historical baseline.
type CohortEntry struct {
	Client      string  `json:"client"`
	Current     float64 `json:"current"`
	Baseline    float64 `json:"baseline"`
	Delta       float64 `json:"delta"`
	HasBaseline bool    `json:"has_baseline"`
}

// Cohorts partitions clients by year-over-year trend.
type Cohorts struct {
	Growing   []CohortEntry `json:"growing"`
	Declining []CohortEntry `json:"declining"`
	New       []CohortEntry `json:"new"`
	Lost      []CohortEntry `json:"lost"`
}

// DrillDownPoint is one x-axis position of the drill-down view.
type DrillDownPoint struct {
	Key      string             `json:"key"`
	Label    string             `json:"label"`
	ByClient map[string]float64 `json:"by_client"`
}

// DrillDown is the per-client production trajectory at year, month or day granularity.
type DrillDown struct {
	Granularity string           `json:"granularity"` // "year", "month" or "day"
	Points      []DrillDownPoint `json:"points"`
	Clients     []string         `json:"clients"`
}

// Summary holds the executive KPIs of the latest available period.
type Summary struct {
	PeriodLabel          string   `json:"period_label"`
	Year                 int      `json:"year"`
	Month                int      `json:"month"`
	TotalProduction      float64  `json:"total_production"`
	PrevMonthProduction  float64  `json:"prev_month_production"`
	LastYearProduction   float64  `json:"last_year_production"`
	InterannualVariation *float64 `json:"interannual_variation"`
	ActiveClients        int      `json:"active_clients"`
	Efficiency           float64  `json:"efficiency"`
}

// ProductShare is the leading product of a record set and its leading client.
// Both shares are percentages of the total of the whole set.
type ProductShare struct {
	Product        string  `json:"product"`
	Total          float64 `json:"total"`
	Rest           float64 `json:"rest"`
	Share          float64 `json:"share"`
	TopClient      string  `json:"top_client"`
	TopClientTotal float64 `json:"top_client_total"`
	TopClientShare float64 `json:"top_client_share"`
}

// Report gathers every dashboard view for one ReportConfig.
type Report struct {
	GeneratedAt      string              `json:"generated_at"`
	TotalRecords     int                 `json:"total_records"`
	FilteredRecords  int                 `json:"filtered_records"`
	TotalProduction  float64             `json:"total_production"`
	Efficiency       float64             `json:"efficiency"`
	AvailableYears   []int               `json:"available_years"`
	AvailableClients []string            `json:"available_clients"`
	ByClient         []Bucket            `json:"by_client"`
	ByPlant          []Bucket            `json:"by_plant"`
	TopProducts      []Bucket            `json:"top_products"`
	ByArticle        []Bucket            `json:"by_article"`
	ProductShare     *ProductShare       `json:"product_share"`
	Historical       []TimeSeriesPoint   `json:"historical"`
	PreviousPeriod   []TimeSeriesPoint   `json:"previous_period"`
	Interannual      []MonthlyComparison `json:"interannual"`
	Cohorts          Cohorts             `json:"cohorts"`
	Summary          Summary             `json:"summary"`
	Trajectory       DrillDown           `json:"trajectory"`
	CompareYearA     int                 `json:"compare_year_a"`
	CompareYearB     int                 `json:"compare_year_b"`
	AnalysisYear     int                 `json:"analysis_year"`
}

/*
CONFIG → parameters of one report computation
*/

// ReportConfig drives calculator.Build. Zero years mean "pick from the data".
type ReportConfig struct {
	Filter           Filter     `json:"filter"`
	HistoricalFilter Filter     `json:"historical_filter"`
	CompareYearA     int        `json:"compare_year_a"`
	CompareYearB     int        `json:"compare_year_b"`
	AnalysisYear     int        `json:"analysis_year"`
	TopN             int        `json:"top_n"`
	ArticleTopN      int        `json:"article_top_n"`
	TrailingMonths   int        `json:"trailing_months"`
	Anchor           *time.Time `json:"anchor,omitempty"`
	IncludeZero      bool       `json:"include_zero"`
	Locale           string     `json:"locale"`
}
