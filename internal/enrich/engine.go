// Package enrich attaches summary/category metadata to unified records.
// Two interchangeable strategies share one contract: a deterministic
// heuristic that is always available, and an optional backend that may fail
// at any time. A backend failure downgrades that one record to the
// heuristic result; it never fails the run and never affects other records.
package enrich

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mkaravas/intake/constants"
	"github.com/mkaravas/intake/internal/common"
	"github.com/mkaravas/intake/internal/entity"
	"github.com/mkaravas/intake/internal/llm"
)

// Engine enriches one record at a time.
type Engine struct {
	backend   llm.InsightExtractor // nil → heuristic only
	heuristic *Heuristic
	timeout   time.Duration
	workers   int
	logger    *slog.Logger
}

// NewEngine builds the engine. The disabled toggle selects the heuristic
// implementation at construction time; stages never re-check configuration.
func NewEngine(cfg common.EnrichmentConfig, backend llm.InsightExtractor, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Disabled {
		backend = nil
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Engine{
		backend:   backend,
		heuristic: NewHeuristic(cfg.SummaryMaxChars),
		timeout:   timeout,
		workers:   4,
		logger:    logger,
	}
}

// Enrich attaches an enrichment block to the record. The heuristic result
// is the floor: whatever the backend does, the record ends up with a
// non-empty summary and a category.
func (e *Engine) Enrich(ctx context.Context, rec *entity.UnifiedRecord) {
	if e.backend != nil {
		if insights, ok := e.fromBackend(ctx, rec); ok {
			rec.Enrichment = insights
			return
		}
	}
	fallback := e.heuristic.Insights(rec)
	rec.Enrichment = &fallback
}

// EnrichAll runs enrichment across the whole record set. Records are
// processed concurrently but each call's success or failure is independent:
// one record's backend timeout downgrades only that record.
func (e *Engine) EnrichAll(ctx context.Context, records []*entity.UnifiedRecord) []*entity.UnifiedRecord {
	g := new(errgroup.Group)
	g.SetLimit(e.workers)
	for _, rec := range records {
		g.Go(func() error {
			e.Enrich(ctx, rec)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures become fallbacks
	return records
}

// fromBackend asks the intelligent backend for insights, bounded by the
// configured timeout. Any failure path reports ok=false so the caller falls
// back; the error never propagates.
func (e *Engine) fromBackend(ctx context.Context, rec *entity.UnifiedRecord) (*entity.Enrichment, bool) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	subject, _ := rec.Field(constants.FieldSubject)
	if subject == "" {
		subject, _ = rec.Field(constants.FieldService)
	}
	req := llm.EnrichRequest{
		SourceType:        string(rec.SourceType),
		Subject:           subject,
		Text:              recordText(rec),
		AllowedCategories: Categories,
	}

	insights, _, err := e.backend.ExtractInsights(callCtx, req)
	if err != nil {
		e.logger.Warn("enrich.backend.fallback", "record_id", rec.RecordID, "error", err)
		return nil, false
	}
	if strings.TrimSpace(insights.Summary) == "" || strings.TrimSpace(insights.Category) == "" {
		e.logger.Warn("enrich.backend.fallback", "record_id", rec.RecordID, "error", "empty summary or category")
		return nil, false
	}

	confidence := insights.Confidence
	if confidence <= 0 {
		confidence = 0.9
	}
	return &entity.Enrichment{
		Summary:    strings.TrimSpace(insights.Summary),
		Category:   insights.Category,
		Confidence: confidence,
		Source:     constants.EnrichmentAI,
	}, true
}
