package calculator

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"prodreport/pkg/models"
)

var shortMonths = map[string][12]string{
	"es": {"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sept", "oct", "nov", "dic"},
	"en": {"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"},
}

var longMonths = map[string][12]string{
	"es": {"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"},
	"en": {"january", "february", "march", "april", "may", "june", "july", "august", "september", "october", "november", "december"},
}

const defaultLocale = "es"

func localeOrDefault(locale string) string {
	if _, ok := shortMonths[locale]; ok {
		return locale
	}
	return defaultLocale
}

// shortMonthLabel returns the short month name with its first letter upper-cased ("Sept").
func shortMonthLabel(locale string, month int) string {
	if month < 0 || month > 11 {
		return ""
	}
	locale = localeOrDefault(locale)
	// a Caser keeps state, one per call
	return cases.Title(language.Make(locale)).String(shortMonths[locale][month])
}

func longMonthName(locale string, month int) string {
	if month < 0 || month > 11 {
		return ""
	}
	return longMonths[localeOrDefault(locale)][month]
}

// monthStart returns the first instant of t's calendar month in UTC.
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// monthsBetweenInclusive lists the first day of every month from start to end.
func monthsBetweenInclusive(start, end time.Time) []time.Time {
	cur := monthStart(start)
	last := monthStart(end)
	var out []time.Time
	for !cur.After(last) {
		out = append(out, cur)
		cur = cur.AddDate(0, 1, 0)
	}
	return out
}

// formatMonthKey renders a 0-based month as "YYYY-MM".
func formatMonthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month+1)
}

// parseMonthKey("YYYY-MM") -> year, 0-based month
func parseMonthKey(key string) (int, int, error) {
	if len(key) != 7 || key[4] != '-' {
		return 0, 0, fmt.Errorf("expected YYYY-MM, got %q", key)
	}
	year, err := strconv.Atoi(key[:4])
	if err != nil {
		return 0, 0, fmt.Errorf("year: %w", err)
	}
	month, err := strconv.Atoi(key[5:])
	if err != nil {
		return 0, 0, fmt.Errorf("month: %w", err)
	}
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("invalid month %d", month)
	}
	return year, month - 1, nil
}

// ParseAnchor("MMYYYY") -> first day of that month, UTC
func ParseAnchor(mmyyyy string) (time.Time, error) {
	if len(mmyyyy) != 6 {
		return time.Time{}, fmt.Errorf("expected MMYYYY (e.g. 032024), got %q", mmyyyy)
	}
	for _, c := range mmyyyy {
		if c < '0' || c > '9' {
			return time.Time{}, fmt.Errorf("expected MMYYYY (e.g. 032024), got %q", mmyyyy)
		}
	}
	month := int(mmyyyy[0]-'0')*10 + int(mmyyyy[1]-'0')
	year := int(mmyyyy[2]-'0')*1000 + int(mmyyyy[3]-'0')*100 + int(mmyyyy[4]-'0')*10 + int(mmyyyy[5]-'0')
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("invalid month %d", month)
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), nil
}

// TrailingMonths returns exactly n dense monthly points covering the n calendar
// months before anchor's month, oldest first. Months without records total 0.
func TrailingMonths(records []models.Record, anchor time.Time, n int, value ValueFunc, locale string) []models.TimeSeriesPoint {
	if n <= 0 {
		return []models.TimeSeriesPoint{}
	}
	end := monthStart(anchor)
	start := end.AddDate(0, -n, 0)

	points := make([]models.TimeSeriesPoint, 0, n)
	index := make(map[string]int, n)
	for _, m := range monthsBetweenInclusive(start, end.AddDate(0, -1, 0)) {
		key := formatMonthKey(m.Year(), int(m.Month())-1)
		index[key] = len(points)
		points = append(points, models.TimeSeriesPoint{
			Key:   key,
			Label: shortMonthLabel(locale, int(m.Month())-1),
		})
	}

	// Records are bucketed by their own calendar month, as the filter sees them.
	for _, r := range records {
		if r.Date.IsZero() {
			continue
		}
		if i, ok := index[formatMonthKey(r.Date.Year(), int(r.Date.Month())-1)]; ok {
			points[i].Total += value(r)
		}
	}
	return points
}

// CompareYears sums value per month for yearA and yearB. Explicit year/month
// fields of a record take precedence over its date.
func CompareYears(records []models.Record, yearA, yearB int, value ValueFunc, locale string) [12]models.MonthlyComparison {
	var out [12]models.MonthlyComparison
	for m := range out {
		out[m] = models.MonthlyComparison{Month: m, Label: shortMonthLabel(locale, m)}
	}

	for _, r := range records {
		if r.Date.IsZero() && !r.HasPeriod {
			continue
		}
		year, month := r.Period()
		if month < 0 || month > 11 {
			continue
		}
		v := value(r)
		if year == yearA {
			out[month].YearA += v
		}
		if year == yearB {
			out[month].YearB += v
		}
	}

	for m := range out {
		out[m].Diff = out[m].YearB - out[m].YearA
	}
	return out
}

// DrillDown groups per client by year when f.Year is "all", by month when
// f.Month is "all", and by day otherwise. Records are filtered by f first.
func DrillDown(records []models.Record, f models.Filter, value ValueFunc, locale string) models.DrillDown {
	f = normalizeFilter(f)
	granularity := "day"
	switch {
	case f.Year == models.All:
		granularity = "year"
	case f.Month == models.All:
		granularity = "month"
	}

	type point struct {
		sortKey int
		models.DrillDownPoint
	}
	points := map[string]*point{}
	clients := map[string]struct{}{}

	for _, r := range ApplyFilter(records, f) {
		d := r.Date
		var key, label string
		var sortKey int
		switch granularity {
		case "year":
			sortKey = d.Year()
			key = strconv.Itoa(sortKey)
			label = key
		case "month":
			sortKey = int(d.Month()) - 1
			key = strconv.Itoa(sortKey)
			label = shortMonthLabel(locale, sortKey)
		default:
			sortKey = d.Day()
			key = strconv.Itoa(sortKey)
			label = key
		}

		p, ok := points[key]
		if !ok {
			p = &point{sortKey: sortKey, DrillDownPoint: models.DrillDownPoint{Key: key, Label: label, ByClient: map[string]float64{}}}
			points[key] = p
		}
		p.ByClient[r.ClientName] += value(r)
		clients[r.ClientName] = struct{}{}
	}

	ordered := make([]*point, 0, len(points))
	for _, p := range points {
		ordered = append(ordered, p)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].sortKey < ordered[j].sortKey })

	out := models.DrillDown{
		Granularity: granularity,
		Points:      make([]models.DrillDownPoint, 0, len(ordered)),
		Clients:     make([]string, 0, len(clients)),
	}
	for _, p := range ordered {
		out.Points = append(out.Points, p.DrillDownPoint)
	}
	for c := range clients {
		out.Clients = append(out.Clients, c)
	}
	sort.Strings(out.Clients)
	return out
}
