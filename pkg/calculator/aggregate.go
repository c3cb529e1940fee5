package calculator

import (
	"sort"
	"strconv"

	"prodreport/pkg/models"
)

// KeyFunc extracts a grouping key. Records for which ok is false are skipped.
type KeyFunc func(r models.Record) (key string, ok bool)

// ValueFunc extracts the summed value of a record.
type ValueFunc func(r models.Record) float64

// Options tunes Aggregate.
type Options struct {
	TopN      int  // keep the first N buckets after sorting, 0 keeps all
	Ascending bool // smallest totals first
	DropZero  bool // omit buckets whose total is exactly 0
}

func ByClient(r models.Record) (string, bool)  { return r.ClientName, true }
func ByProduct(r models.Record) (string, bool) { return r.Product, true }
func ByPlant(r models.Record) (string, bool)   { return r.Plant, true }

// ByArticle keys by product like ByProduct, but groups records without a
// description under "Varios".
func ByArticle(r models.Record) (string, bool) {
	if r.Product == "" || r.Product == models.NoProduct {
		return "Varios", true
	}
	return r.Product, true
}

// ByMonth keys a record by its "YYYY-MM" period.
func ByMonth(r models.Record) (string, bool) {
	if r.Date.IsZero() && !r.HasPeriod {
		return "", false
	}
	y, m := r.Period()
	return formatMonthKey(y, m), true
}

// ByYear keys a record by its period year.
func ByYear(r models.Record) (string, bool) {
	if r.Date.IsZero() && !r.HasPeriod {
		return "", false
	}
	y, _ := r.Period()
	return strconv.Itoa(y), true
}

func CompletedQty(r models.Record) float64 { return r.CompletedQty }
func PlannedQty(r models.Record) float64   { return r.PlannedQty }

// Aggregate groups records by key, sums value per group and sorts the buckets
// by total, descending unless opts.Ascending. Equal totals keep first-seen order.
func Aggregate(records []models.Record, key KeyFunc, value ValueFunc, opts Options) []models.Bucket {
	totals := make(map[string]float64)
	order := make([]string, 0)
	for _, r := range records {
		k, ok := key(r)
		if !ok {
			continue
		}
		if _, seen := totals[k]; !seen {
			order = append(order, k)
		}
		totals[k] += value(r)
	}

	buckets := make([]models.Bucket, 0, len(order))
	for _, k := range order {
		if opts.DropZero && totals[k] == 0 {
			continue
		}
		buckets = append(buckets, models.Bucket{Key: k, Total: totals[k]})
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		if opts.Ascending {
			return buckets[i].Total < buckets[j].Total
		}
		return buckets[i].Total > buckets[j].Total
	})

	if opts.TopN > 0 && len(buckets) > opts.TopN {
		buckets = buckets[:opts.TopN]
	}
	return buckets
}

// Sum adds value over records.
func Sum(records []models.Record, value ValueFunc) float64 {
	total := 0.0
	for _, r := range records {
		total += value(r)
	}
	return total
}

// MonthlySeries returns one point per "YYYY-MM" present in records, in chronological order.
func MonthlySeries(records []models.Record, value ValueFunc, locale string) []models.TimeSeriesPoint {
	buckets := Aggregate(records, ByMonth, value, Options{})
	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].Key < buckets[j].Key })

	out := make([]models.TimeSeriesPoint, 0, len(buckets))
	for _, b := range buckets {
		_, m, _ := parseMonthKey(b.Key)
		out = append(out, models.TimeSeriesPoint{Key: b.Key, Label: shortMonthLabel(locale, m), Total: b.Total})
	}
	return out
}

// AvailableYears lists the distinct period years in ascending order.
func AvailableYears(records []models.Record) []int {
	seen := map[int]struct{}{}
	years := make([]int, 0)
	for _, r := range records {
		if r.Date.IsZero() && !r.HasPeriod {
			continue
		}
		y, _ := r.Period()
		if _, ok := seen[y]; ok {
			continue
		}
		seen[y] = struct{}{}
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// DistinctClients lists resolved client names, sorted.
func DistinctClients(records []models.Record) []string {
	seen := map[string]struct{}{}
	clients := make([]string, 0)
	for _, r := range records {
		if _, ok := seen[r.ClientName]; ok {
			continue
		}
		seen[r.ClientName] = struct{}{}
		clients = append(clients, r.ClientName)
	}
	sort.Strings(clients)
	return clients
}

// Efficiency is completed over planned, as a percentage. 0 when nothing was planned.
func Efficiency(records []models.Record) float64 {
	planned := Sum(records, PlannedQty)
	if planned <= 0 {
		return 0
	}
	return Sum(records, CompletedQty) / planned * 100
}
