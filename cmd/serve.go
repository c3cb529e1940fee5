package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"prodreport/internal/config"
	"prodreport/internal/utils"
	"prodreport/pkg/calculator"
	"prodreport/pkg/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves reports as JSON on /api/report",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = settings.BindPFlag("server.listen", cmd.Flags().Lookup("listen"))
		cfg, engine, err := loadEngine(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if refresh, _ := cmd.Flags().GetDuration("refresh"); refresh > 0 {
			go refreshLoop(ctx, cfg, engine, refresh)
		}
		return server.New(engine, cfg.ReportDefaults()).ListenAndServe(ctx, cfg.Server.Listen)
	},
}

// refreshLoop reloads the source every interval and swaps the engine snapshot
// when the data changed.
func refreshLoop(ctx context.Context, cfg *config.Config, engine *calculator.Engine, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap, err := loadSnapshot(ctx, cfg, false)
			if err != nil {
				utils.Log.Errorf("refresh: %v", err)
				continue
			}
			if snap.ID == engine.Snapshot().ID {
				utils.Log.Debugf("refresh: data unchanged")
				continue
			}
			engine.Replace(snap)
		}
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	serveCmd.Flags().Duration("refresh", 0, "Reload the source at this interval (0 to disable)")
}
