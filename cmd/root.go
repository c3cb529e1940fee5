package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"prodreport/internal/config"
	"prodreport/internal/utils"
)

var (
	cfgFile  string
	settings *viper.Viper
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "prodreport",
	Short: "Production reports by client, plant, product and period.",
	Long: `prodreport loads production records from a database, a PostgREST endpoint or a
JSON export, resolves client names and prints aggregated reports: totals by
client and plant, top products, trailing months, year-over-year comparison and
client cohorts. The same reports can be served as JSON with "prodreport serve".`,
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.prodreport.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().Bool("progress", false, "Show a progress bar while fetching records")
	rootCmd.PersistentFlags().String("source", "", "Override source.kind (mysql, postgres, sqlite, rest, file)")
	rootCmd.PersistentFlags().String("dsn", "", "Override source.dsn")
	rootCmd.PersistentFlags().String("file", "", "Override source.path")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	if err := utils.SetLogLevel(levelString); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	v, err := config.New(cfgFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	_ = v.BindPFlag("source.kind", rootCmd.PersistentFlags().Lookup("source"))
	_ = v.BindPFlag("source.dsn", rootCmd.PersistentFlags().Lookup("dsn"))
	_ = v.BindPFlag("source.path", rootCmd.PersistentFlags().Lookup("file"))
	settings = v
}

func loadConfig() (*config.Config, error) {
	if settings == nil {
		initConfig()
	}
	return config.Load(settings)
}
