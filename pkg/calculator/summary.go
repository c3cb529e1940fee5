package calculator

import (
	"fmt"
	"math"

	"prodreport/pkg/models"
)

// Summarize computes the executive KPIs of the latest period found in records:
// its production, the previous month, the same month a year before, the
// interannual variation and the number of active clients.
func Summarize(records []models.Record, locale string) models.Summary {
	type period struct{ year, month int }
	var last *period
	for _, r := range records {
		if r.Date.IsZero() && !r.HasPeriod {
			continue
		}
		y, m := r.Period()
		if last == nil || y > last.year || (y == last.year && m > last.month) {
			last = &period{y, m}
		}
	}
	if last == nil {
		return models.Summary{}
	}

	prevYear, prevMonth := last.year, last.month-1
	if prevMonth < 0 {
		prevYear, prevMonth = prevYear-1, 11
	}

	var current, previous, lastYear float64
	active := map[string]struct{}{}
	for _, r := range records {
		if r.Date.IsZero() && !r.HasPeriod {
			continue
		}
		y, m := r.Period()
		switch {
		case y == last.year && m == last.month:
			current += r.CompletedQty
			active[r.ClientName] = struct{}{}
		case y == prevYear && m == prevMonth:
			previous += r.CompletedQty
		}
		if y == last.year-1 && m == last.month {
			lastYear += r.CompletedQty
		}
	}

	s := models.Summary{
		PeriodLabel:         fmt.Sprintf("%s %d", longMonthName(locale, last.month), last.year),
		Year:                last.year,
		Month:               last.month,
		TotalProduction:     current,
		PrevMonthProduction: previous,
		LastYearProduction:  lastYear,
		ActiveClients:       len(active),
		Efficiency:          round(Efficiency(records), 1),
	}
	if lastYear > 0 {
		v := round((current-lastYear)/lastYear*100, 1)
		s.InterannualVariation = &v
	}
	return s
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
