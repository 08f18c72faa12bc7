package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mkaravas/intake/internal/common"
	"github.com/mkaravas/intake/internal/enrich"
	"github.com/mkaravas/intake/internal/export"
	"github.com/mkaravas/intake/internal/ingest"
	"github.com/mkaravas/intake/internal/llm"
	"github.com/mkaravas/intake/internal/llm/openai"
	"github.com/mkaravas/intake/internal/pipeline"
	"github.com/mkaravas/intake/internal/quality"
	"github.com/mkaravas/intake/internal/review"
)

var (
	runDataDir string
	runOutput  string
	runFormat  string
	runDryRun  bool
	runSave    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline over a data directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd.Context())
	},
}

func init() {
	runCmd.Flags().StringVarP(&runDataDir, "data-dir", "d", "data", "directory containing forms/, invoices/, emails/")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "out/unified_records.xlsx", "output file path")
	runCmd.Flags().StringVarP(&runFormat, "format", "f", "xlsx", "output format: xlsx or csv")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "run every stage but skip writing the output file")
	runCmd.Flags().BoolVar(&runSave, "save", false, "persist the run to the review store")
}

func runPipeline(parent context.Context) error {
	logger := newLogger()
	cfg := common.LoadConfig()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	sink, err := newSink(runFormat, runOutput, logger)
	if err != nil {
		return err
	}

	orch := pipeline.NewOrchestrator(
		ingest.NewLoader(cfg.Loader, logger),
		quality.NewValidator(cfg.Quality),
		enrich.NewEngine(cfg.Enrichment, newBackend(cfg, logger), logger),
		sink,
		logger,
	)

	result, err := orch.Run(ctx, runDataDir, runDryRun)
	if err != nil {
		return err
	}

	if runSave && !runDryRun {
		store, err := review.Open(cfg.Review.DataDir)
		if err != nil {
			return common.WrapError(err, "opening review store")
		}
		defer store.Close()
		if err := store.SaveRun(ctx, result.Manifest.RunID, runDataDir, result.Records); err != nil {
			return common.WrapError(err, "saving run")
		}
		logger.Info("review.run.saved", "run_id", result.Manifest.RunID)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result.Manifest); err != nil {
		return err
	}

	if result.Manifest.SinkError != "" {
		return fmt.Errorf("%w: %s", common.ErrSinkFailure, result.Manifest.SinkError)
	}
	return nil
}

func newSink(format, path string, logger *slog.Logger) (export.Sink, error) {
	switch format {
	case "xlsx":
		return export.NewXLSXSink(path, logger), nil
	case "csv":
		return export.NewCSVSink(path, logger), nil
	default:
		return nil, fmt.Errorf("unknown format %q (want xlsx or csv)", format)
	}
}

func newBackend(cfg *common.Config, logger *slog.Logger) llm.InsightExtractor {
	if cfg.Enrichment.Disabled {
		return nil
	}
	return openai.NewClient(openai.Config{
		APIKey:          cfg.Enrichment.APIKey,
		BaseURL:         cfg.Enrichment.BaseURL,
		Model:           cfg.Enrichment.Model,
		Temperature:     cfg.Enrichment.Temperature,
		Timeout:         cfg.Enrichment.Timeout,
		RetryBackoff:    cfg.Enrichment.RetryBackoff,
		LenientOptional: true,
	}, logger)
}
