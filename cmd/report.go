package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"prodreport/pkg/calculator"
	"prodreport/pkg/models"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Prints the full production report.",
	Long: `Prints the full production report for the selected filter: KPIs, totals by
client, plant and product, the trailing months before the selected period, the
year-over-year comparison and client cohorts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, engine, err := loadEngine(cmd)
		if err != nil {
			return err
		}
		rc, err := reportConfigFromFlags(cmd.Flags(), cfg.ReportDefaults())
		if err != nil {
			return err
		}
		report, err := engine.Report(rc)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(os.Stdout, report)
		}
		printReport(os.Stdout, report)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().Bool("json", false, "Print the report as JSON")
	addReportFlags(reportCmd.Flags())
}

func addReportFlags(fs *pflag.FlagSet) {
	addFilterFlags(fs)
	fs.String("hist-year", "all", "Year of the historical series")
	fs.String("hist-month", "all", "Month of the historical series, 0 (January) to 11 (December)")
	fs.String("hist-client", "all", "Client of the historical series")
	fs.Int("top", 0, "Number of clients and products to list (default report.top_n)")
	fs.Int("months", 0, "Trailing months before the selected period (default report.trailing_months)")
	fs.String("anchor", "", "Month the trailing window ends before, as MMYYYY")
	fs.Int("year-a", 0, "First compared year (default: second most recent)")
	fs.Int("year-b", 0, "Second compared year (default: most recent)")
	fs.Int("analysis-year", 0, "Cohort analysis year (default: most recent)")
	fs.Bool("include-zero", true, "Keep clients, plants and products with a zero total")
}

func addFilterFlags(fs *pflag.FlagSet) {
	fs.String("year", "all", "Filter by year")
	fs.String("month", "all", "Filter by month, 0 (January) to 11 (December)")
	fs.String("from", "", "Filter from this day, YYYY-MM-DD")
	fs.String("to", "", "Filter up to this day inclusive, YYYY-MM-DD")
	fs.String("client", "all", "Filter by resolved client name")
}

func filterFromFlags(fs *pflag.FlagSet) (models.Filter, error) {
	year, _ := fs.GetString("year")
	month, _ := fs.GetString("month")
	from, _ := fs.GetString("from")
	to, _ := fs.GetString("to")
	client, _ := fs.GetString("client")

	if err := calculator.CheckYear(year); err != nil {
		return models.Filter{}, fmt.Errorf("--year %w", err)
	}
	if err := calculator.CheckMonth(month); err != nil {
		return models.Filter{}, fmt.Errorf("--month %w", err)
	}
	f := calculator.NewFilter(year, month, from, to, client)
	if from != "" && f.DateFrom == nil {
		return f, fmt.Errorf("--from %q is not a YYYY-MM-DD date", from)
	}
	if to != "" && f.DateTo == nil {
		return f, fmt.Errorf("--to %q is not a YYYY-MM-DD date", to)
	}
	return f, nil
}

// reportConfigFromFlags overrides defaults with every flag the user set.
func reportConfigFromFlags(fs *pflag.FlagSet, defaults models.ReportConfig) (models.ReportConfig, error) {
	rc := defaults
	f, err := filterFromFlags(fs)
	if err != nil {
		return rc, err
	}
	rc.Filter = f

	histYear, _ := fs.GetString("hist-year")
	histMonth, _ := fs.GetString("hist-month")
	histClient, _ := fs.GetString("hist-client")
	if err := calculator.CheckYear(histYear); err != nil {
		return rc, fmt.Errorf("--hist-year %w", err)
	}
	if err := calculator.CheckMonth(histMonth); err != nil {
		return rc, fmt.Errorf("--hist-month %w", err)
	}
	rc.HistoricalFilter = calculator.NewFilter(histYear, histMonth, "", "", histClient)

	for flag, dst := range map[string]*int{
		"top":           &rc.TopN,
		"months":        &rc.TrailingMonths,
		"year-a":        &rc.CompareYearA,
		"year-b":        &rc.CompareYearB,
		"analysis-year": &rc.AnalysisYear,
	} {
		if fs.Changed(flag) {
			*dst, _ = fs.GetInt(flag)
		}
	}
	if fs.Changed("include-zero") {
		rc.IncludeZero, _ = fs.GetBool("include-zero")
	}
	if anchor, _ := fs.GetString("anchor"); anchor != "" {
		a, err := calculator.ParseAnchor(anchor)
		if err != nil {
			return rc, fmt.Errorf("--anchor: %w", err)
		}
		rc.Anchor = &a
	}
	return rc, nil
}
