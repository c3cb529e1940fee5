package calculator

import (
	"sort"

	"prodreport/pkg/models"
)

// ClientYearTotals sums value per client and period year.
func ClientYearTotals(records []models.Record, value ValueFunc) map[string]map[int]float64 {
	totals := make(map[string]map[int]float64)
	for _, r := range records {
		if r.Date.IsZero() && !r.HasPeriod {
			continue
		}
		year, _ := r.Period()
		byYear, ok := totals[r.ClientName]
		if !ok {
			byYear = make(map[int]float64)
			totals[r.ClientName] = byYear
		}
		byYear[year] += value(r)
	}
	return totals
}

// PriorYears returns the years of available strictly before analysisYear, ascending.
func PriorYears(available []int, analysisYear int) []int {
	out := make([]int, 0, len(available))
	for _, y := range available {
		if y < analysisYear {
			out = append(out, y)
		}
	}
	sort.Ints(out)
	return out
}

// ClassifyClients splits clients into growing, declining, new and lost cohorts
// for analysisYear against the mean of their recorded prior-year totals. A year
// counts as recorded for a client when its total is positive. Lost clients carry
// their best prior-year total as Baseline. topN <= 0 keeps every entry.
func ClassifyClients(totals map[string]map[int]float64, analysisYear int, priorYears []int, topN int) models.Cohorts {
	out := models.Cohorts{
		Growing:   []models.CohortEntry{},
		Declining: []models.CohortEntry{},
		New:       []models.CohortEntry{},
		Lost:      []models.CohortEntry{},
	}

	clients := make([]string, 0, len(totals))
	for c := range totals {
		clients = append(clients, c)
	}
	sort.Strings(clients)

	for _, client := range clients {
		years := totals[client]
		current := years[analysisYear]
		hasCurrent := current > 0

		var prior []float64
		for _, y := range priorYears {
			if y == analysisYear {
				continue
			}
			if v := years[y]; v > 0 {
				prior = append(prior, v)
			}
		}

		switch {
		case hasCurrent && len(prior) == 0:
			out.New = append(out.New, models.CohortEntry{Client: client, Current: current, Delta: current})
		case !hasCurrent && len(prior) > 0:
			best := maxOf(prior)
			out.Lost = append(out.Lost, models.CohortEntry{Client: client, Baseline: best, Delta: -best, HasBaseline: true})
		case hasCurrent:
			baseline := mean(prior)
			e := models.CohortEntry{Client: client, Current: current, Baseline: baseline, Delta: current - baseline, HasBaseline: true}
			if e.Delta > 0 {
				out.Growing = append(out.Growing, e)
			} else if e.Delta < 0 {
				out.Declining = append(out.Declining, e)
			}
		}
	}

	sort.SliceStable(out.New, func(i, j int) bool { return out.New[i].Current > out.New[j].Current })
	sort.SliceStable(out.Lost, func(i, j int) bool { return out.Lost[i].Baseline > out.Lost[j].Baseline })
	sort.SliceStable(out.Growing, func(i, j int) bool { return out.Growing[i].Delta > out.Growing[j].Delta })
	sort.SliceStable(out.Declining, func(i, j int) bool { return out.Declining[i].Delta < out.Declining[j].Delta })

	out.New = truncate(out.New, topN)
	out.Lost = truncate(out.Lost, topN)
	out.Growing = truncate(out.Growing, topN)
	out.Declining = truncate(out.Declining, topN)
	return out
}

func truncate(entries []models.CohortEntry, n int) []models.CohortEntry {
	if n > 0 && len(entries) > n {
		return entries[:n]
	}
	return entries
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

func maxOf(values []float64) float64 {
	best := values[0]
	for _, v := range values[1:] {
		if v > best {
			best = v
		}
	}
	return best
}
