package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// yearsCmd represents the years command
var yearsCmd = &cobra.Command{
	Use:   "years",
	Short: "Lists the years and clients present in the data.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, engine, err := loadEngine(cmd)
		if err != nil {
			return err
		}
		report, err := engine.Report(cfg.ReportDefaults())
		if err != nil {
			return err
		}

		if len(report.AvailableYears) == 0 {
			fmt.Println("No dated records found.")
			return nil
		}
		for _, y := range report.AvailableYears {
			fmt.Println(y)
		}
		if withClients, _ := cmd.Flags().GetBool("clients"); withClients {
			fmt.Println()
			for _, c := range report.AvailableClients {
				fmt.Println(c)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(yearsCmd)
	yearsCmd.Flags().Bool("clients", false, "Also list the resolved client names")
}
