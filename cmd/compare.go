package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compares monthly production of two years.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, engine, err := loadEngine(cmd)
		if err != nil {
			return err
		}
		rc := cfg.ReportDefaults()
		rc.CompareYearA, _ = cmd.Flags().GetInt("year-a")
		rc.CompareYearB, _ = cmd.Flags().GetInt("year-b")

		report, err := engine.Report(rc)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(os.Stdout, report.Interannual)
		}
		printComparison(os.Stdout, report.CompareYearA, report.CompareYearB, report.Interannual)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(compareCmd)
	compareCmd.Flags().Int("year-a", 0, "First year (default: second most recent)")
	compareCmd.Flags().Int("year-b", 0, "Second year (default: most recent)")
	compareCmd.Flags().Bool("json", false, "Print the comparison as JSON")
}
