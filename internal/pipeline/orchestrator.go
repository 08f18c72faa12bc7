// Package pipeline sequences the intake stages: load, validate, enrich,
// map, export. Each stage consumes the complete record set of the previous
// one as a fresh snapshot; there is no partial hand-off within a run.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mkaravas/intake/constants"
	"github.com/mkaravas/intake/internal/entity"
	"github.com/mkaravas/intake/internal/enrich"
	"github.com/mkaravas/intake/internal/export"
	"github.com/mkaravas/intake/internal/ingest"
	"github.com/mkaravas/intake/internal/quality"
	"github.com/mkaravas/intake/internal/template"
)

// Manifest summarizes one pipeline run: what succeeded, what was
// downgraded, and what was skipped. A run always finishes with a manifest;
// there is no silent partial output.
type Manifest struct {
	RunID            string                             `json:"run_id"`
	Root             string                             `json:"root"`
	StartedAt        time.Time                          `json:"started_at"`
	FinishedAt       time.Time                          `json:"finished_at"`
	TotalRecords     int                                `json:"total_records"`
	QualityCounts    map[constants.QualityStatus]int    `json:"quality_counts"`
	EnrichmentCounts map[constants.EnrichmentSource]int `json:"enrichment_counts"`
	Alerts           []ingest.Alert                     `json:"alerts,omitempty"`
	DryRun           bool                               `json:"dry_run"`
	RowsWritten      int                                `json:"rows_written"`
	SinkError        string                             `json:"sink_error,omitempty"`
}

// Result is the full output of a run: the manifest plus the final record
// snapshot and its mapped rows, which stay available to the caller even
// when the sink write failed.
type Result struct {
	Manifest Manifest
	Records  []*entity.UnifiedRecord
	Rows     []template.Row
}

// Orchestrator wires the stages together.
type Orchestrator struct {
	loader    *ingest.Loader
	validator *quality.Validator
	engine    *enrich.Engine
	sink      export.Sink
	logger    *slog.Logger
}

func NewOrchestrator(loader *ingest.Loader, validator *quality.Validator, engine *enrich.Engine, sink export.Sink, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		loader:    loader,
		validator: validator,
		engine:    engine,
		sink:      sink,
		logger:    logger,
	}
}

// Run executes all stages over the intake root. Only whole-run
// preconditions (missing root) abort; everything scoped to one file or
// record has already been converted into alerts, notes, or fallbacks by the
// time it reaches this level. A failing sink write produces a
// partial-success manifest, not an error.
func (o *Orchestrator) Run(ctx context.Context, root string, dryRun bool) (*Result, error) {
	manifest := Manifest{
		RunID:     uuid.New().String(),
		Root:      root,
		StartedAt: time.Now().UTC(),
		DryRun:    dryRun,
	}
	o.logger.Info("pipeline.start", "run_id", manifest.RunID, "root", root, "dry_run", dryRun)

	// Stage 1: Loaded.
	loaded, alerts, err := o.loader.Load(ctx, root)
	if err != nil {
		return nil, err
	}
	manifest.Alerts = alerts
	o.logger.Info("pipeline.loaded", "run_id", manifest.RunID, "records", len(loaded), "alerts", len(alerts))

	// Stage 2: Validated.
	validated := o.validator.ValidateAll(entity.CloneAll(loaded))
	o.logger.Info("pipeline.validated", "run_id", manifest.RunID, "records", len(validated))

	// Stage 3: Enriched.
	enriched := o.engine.EnrichAll(ctx, entity.CloneAll(validated))
	o.logger.Info("pipeline.enriched", "run_id", manifest.RunID, "records", len(enriched))

	// Stage 4: Mapped.
	rows := template.MapAll(enriched)

	manifest.TotalRecords = len(enriched)
	manifest.QualityCounts = map[constants.QualityStatus]int{}
	manifest.EnrichmentCounts = map[constants.EnrichmentSource]int{}
	for _, rec := range enriched {
		manifest.QualityCounts[rec.Quality.Status]++
		if rec.Enrichment != nil {
			manifest.EnrichmentCounts[rec.Enrichment.Source]++
		}
	}

	if !dryRun && o.sink != nil {
		res, err := o.sink.Write(ctx, template.Headers(), rows)
		if err != nil {
			// Partial success: the records are computed and returned, only
			// the write is reported as failed.
			manifest.SinkError = err.Error()
			o.logger.Error("pipeline.sink.failed", "run_id", manifest.RunID, "error", err)
		} else {
			manifest.RowsWritten = res.RowsWritten
		}
	}

	manifest.FinishedAt = time.Now().UTC()
	o.logger.Info("pipeline.done",
		"run_id", manifest.RunID,
		"total", manifest.TotalRecords,
		"rows_written", manifest.RowsWritten,
		"alerts", len(manifest.Alerts),
		"elapsed_ms", manifest.FinishedAt.Sub(manifest.StartedAt).Milliseconds(),
	)

	return &Result{Manifest: manifest, Records: enriched, Rows: rows}, nil
}
