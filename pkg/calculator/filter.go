package calculator

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"prodreport/pkg/models"
)

// ApplyFilter returns the records matching every active predicate of f, in input order.
// A DateFrom after DateTo simply matches nothing.
func ApplyFilter(records []models.Record, f models.Filter) []models.Record {
	f = normalizeFilter(f)
	var from, to time.Time
	if f.DateFrom != nil {
		from = startOfDay(*f.DateFrom)
	}
	if f.DateTo != nil {
		to = endOfDay(*f.DateTo)
	}

	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if r.Date.IsZero() {
			continue
		}
		if f.Year != models.All && strconv.Itoa(r.Date.Year()) != f.Year {
			continue
		}
		if f.Month != models.All && strconv.Itoa(int(r.Date.Month())-1) != f.Month {
			continue
		}
		if f.DateFrom != nil && r.Date.Before(from) {
			continue
		}
		if f.DateTo != nil && r.Date.After(to) {
			continue
		}
		if f.Client != models.All && r.ClientName != f.Client {
			continue
		}
		out = append(out, r)
	}
	return out
}

// NewFilter builds a Filter from user-supplied text. Empty values mean "all";
// a date that does not parse disables only that bound.
func NewFilter(year, month, from, to, client string) models.Filter {
	f := models.Filter{
		Year:   strings.TrimSpace(year),
		Month:  strings.TrimSpace(month),
		Client: strings.TrimSpace(client),
	}
	if d, err := parseDay(from); err == nil {
		f.DateFrom = &d
	}
	if d, err := parseDay(to); err == nil {
		f.DateTo = &d
	}
	return normalizeFilter(f)
}

// CheckYear accepts "", "all" or a year number.
func CheckYear(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || s == models.All {
		return nil
	}
	if _, err := strconv.Atoi(s); err != nil {
		return fmt.Errorf("must be %q or a year, got %q", models.All, s)
	}
	return nil
}

// CheckMonth accepts "", "all" or a zero-based month, 0 (January) to 11.
func CheckMonth(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || s == models.All {
		return nil
	}
	if m, err := strconv.Atoi(s); err != nil || m < 0 || m > 11 {
		return fmt.Errorf("must be %q or a month between 0 and 11, got %q", models.All, s)
	}
	return nil
}

func normalizeFilter(f models.Filter) models.Filter {
	if f.Year == "" {
		f.Year = models.All
	}
	if f.Month == "" {
		f.Month = models.All
	}
	if f.Client == "" {
		f.Client = models.All
	}
	return f
}

func parseDay(s string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(s))
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
