package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/goccy/go-json"

	"prodreport/pkg/models"
)

func printJSON(w io.Writer, v any) error {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(body))
	return err
}

func printReport(out io.Writer, r models.Report) {
	s := r.Summary
	fmt.Fprintf(out, "Period: %s\n", s.PeriodLabel)
	fmt.Fprintf(out, "Records: %d (%d after filter)\n", r.TotalRecords, r.FilteredRecords)
	fmt.Fprintf(out, "Production: %.2f  Efficiency: %.1f%%\n", r.TotalProduction, r.Efficiency)
	fmt.Fprintf(out, "Latest month: %.2f  previous: %.2f  a year before: %.2f", s.TotalProduction, s.PrevMonthProduction, s.LastYearProduction)
	if s.InterannualVariation != nil {
		fmt.Fprintf(out, "  (%+.1f%%)", *s.InterannualVariation)
	}
	fmt.Fprintf(out, "  active clients: %d\n", s.ActiveClients)

	printBuckets(out, "CLIENT", r.ByClient)
	printBuckets(out, "PLANT", r.ByPlant)
	printBuckets(out, "PRODUCT", r.TopProducts)
	if ps := r.ProductShare; ps != nil {
		fmt.Fprintf(out, "\nTop product: %s %.2f (%.1f%%), top client %s %.2f (%.1f%%)\n",
			ps.Product, ps.Total, ps.Share, ps.TopClient, ps.TopClientTotal, ps.TopClientShare)
	}
	printSeries(out, "MONTH", r.PreviousPeriod)
	printComparison(out, r.CompareYearA, r.CompareYearB, r.Interannual)
	printCohorts(out, r.AnalysisYear, r.Cohorts)
}

func printBuckets(out io.Writer, title string, buckets []models.Bucket) {
	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "%s\tTOTAL\t\n", title)
	for _, b := range buckets {
		fmt.Fprintf(w, "%s\t%.2f\t\n", b.Key, b.Total)
	}
	w.Flush()
}

func printSeries(out io.Writer, title string, points []models.TimeSeriesPoint) {
	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "%s\t\tTOTAL\t\n", title)
	for _, p := range points {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t\n", p.Key, p.Label, p.Total)
	}
	w.Flush()
}

func printComparison(out io.Writer, yearA, yearB int, months []models.MonthlyComparison) {
	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "MONTH\t%d\t%d\tDIFF\t\n", yearA, yearB)
	var totalA, totalB float64
	for _, m := range months {
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%+.2f\t\n", m.Label, m.YearA, m.YearB, m.Diff)
		totalA += m.YearA
		totalB += m.YearB
	}
	fmt.Fprintf(w, "TOTAL\t%.2f\t%.2f\t%+.2f\t\n", totalA, totalB, totalB-totalA)
	w.Flush()
}

func printCohorts(out io.Writer, year int, c models.Cohorts) {
	fmt.Fprintf(out, "\nCohorts %d\n", year)
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "COHORT\tCLIENT\tCURRENT\tBASELINE\tDELTA\t")
	for _, group := range []struct {
		name    string
		entries []models.CohortEntry
	}{
		{"growing", c.Growing},
		{"declining", c.Declining},
		{"new", c.New},
		{"lost", c.Lost},
	} {
		for _, e := range group.entries {
			baseline := "-"
			if e.HasBaseline {
				baseline = fmt.Sprintf("%.2f", e.Baseline)
			}
			fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%+.2f\t\n", group.name, e.Client, e.Current, baseline, e.Delta)
		}
	}
	w.Flush()
}
