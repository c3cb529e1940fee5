package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"prodreport/internal/config"
	"prodreport/internal/utils"
	"prodreport/pkg/calculator"
	"prodreport/pkg/normalizer"
	"prodreport/pkg/source"
)

// loadSnapshot fetches every raw record from the configured source and
// normalizes it against the configured client mapping.
func loadSnapshot(ctx context.Context, cfg *config.Config, progress bool) (calculator.Snapshot, error) {
	src, closeSource, err := source.New(cfg.SourceOptions(progress))
	if err != nil {
		return calculator.Snapshot{}, err
	}
	defer closeSource()

	raws, err := src.Fetch(ctx)
	if err != nil {
		return calculator.Snapshot{}, err
	}

	records, excluded := normalizer.NewResolver(cfg.ClientMapping(), nil).NormalizeAll(raws)
	if excluded > 0 {
		utils.Log.Warnf("%d of %d records have no usable date and were excluded", excluded, len(raws))
	}
	snap := calculator.NewSnapshot(records)
	utils.Log.Infof("snapshot %s: %d records", snap.ID, len(records))
	return snap, nil
}

// loadEngine is the common prelude of every report command.
func loadEngine(cmd *cobra.Command) (*config.Config, *calculator.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	progress, _ := cmd.Flags().GetBool("progress")
	snap, err := loadSnapshot(cmd.Context(), cfg, progress)
	if err != nil {
		return nil, nil, err
	}
	return cfg, calculator.NewEngine(snap, 0), nil
}
