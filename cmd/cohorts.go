package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// cohortsCmd represents the cohorts command
var cohortsCmd = &cobra.Command{
	Use:   "cohorts",
	Short: "Prints growing, declining, new and lost clients for a year.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, engine, err := loadEngine(cmd)
		if err != nil {
			return err
		}
		rc := cfg.ReportDefaults()
		rc.AnalysisYear, _ = cmd.Flags().GetInt("year")
		if cmd.Flags().Changed("top") {
			rc.TopN, _ = cmd.Flags().GetInt("top")
		}

		report, err := engine.Report(rc)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(os.Stdout, report.Cohorts)
		}
		printCohorts(os.Stdout, report.AnalysisYear, report.Cohorts)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cohortsCmd)
	cohortsCmd.Flags().Int("year", 0, "Analysis year (default: most recent)")
	cohortsCmd.Flags().Int("top", 0, "Entries per cohort (default report.top_n)")
	cohortsCmd.Flags().Bool("json", false, "Print the cohorts as JSON")
}
