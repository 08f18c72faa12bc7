package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mkaravas/intake/internal/common"
	"github.com/mkaravas/intake/internal/review"
	"github.com/mkaravas/intake/internal/template"
)

var (
	exportOutput       string
	exportFormat       string
	exportApprovedOnly bool
)

var exportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Export a reviewed run from the review store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return exportRun(cmd.Context(), args[0])
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "out/unified_records.xlsx", "output file path")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "xlsx", "output format: xlsx or csv")
	exportCmd.Flags().BoolVar(&exportApprovedOnly, "approved-only", false, "export only approved records")
}

func exportRun(parent context.Context, runID string) error {
	logger := newLogger()
	cfg := common.LoadConfig()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	store, err := review.Open(cfg.Review.DataDir)
	if err != nil {
		return fmt.Errorf("opening review store: %w", err)
	}
	defer store.Close()

	rows, err := store.ExportRows(ctx, runID, exportApprovedOnly)
	if err != nil {
		return fmt.Errorf("loading run %s: %w", runID, err)
	}
	if len(rows) == 0 {
		logger.Warn("export.empty", "run_id", runID, "approved_only", exportApprovedOnly)
	}

	sink, err := newSink(exportFormat, exportOutput, logger)
	if err != nil {
		return err
	}
	res, err := sink.Write(ctx, template.Headers(), rows)
	if err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	logger.Info("export.run.ok", "run_id", runID, "rows", res.RowsWritten, "path", exportOutput)
	return nil
}
