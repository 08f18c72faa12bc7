package enrich

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mkaravas/intake/constants"
	"github.com/mkaravas/intake/internal/common"
	"github.com/mkaravas/intake/internal/entity"
	"github.com/mkaravas/intake/internal/llm"
)

// mockBackend implements llm.InsightExtractor for testing.
type mockBackend struct {
	insights llm.Insights
	err      error
	delay    time.Duration
	failOn   string // substring of request text that triggers err
	calls    int
}

func (m *mockBackend) ExtractInsights(ctx context.Context, req llm.EnrichRequest) (llm.Insights, []byte, error) {
	m.calls++
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return llm.Insights{}, nil, ctx.Err()
		}
	}
	if m.err != nil && (m.failOn == "" || strings.Contains(req.Text, m.failOn)) {
		return llm.Insights{}, nil, m.err
	}
	return m.insights, nil, nil
}

func TestEnrich_BackendSuccess(t *testing.T) {
	mock := &mockBackend{insights: llm.Insights{
		Summary:    "Customer asks for an SEO quote.",
		Category:   "quote_request",
		Confidence: 0.95,
	}}
	e := NewEngine(common.EnrichmentConfig{}, mock, nil)

	rec := formWithMessage("Θα ήθελα μια προσφορά για SEO.")
	e.Enrich(context.Background(), rec)

	if rec.Enrichment == nil {
		t.Fatal("no enrichment attached")
	}
	if rec.Enrichment.Source != constants.EnrichmentAI {
		t.Errorf("source = %q, want ai", rec.Enrichment.Source)
	}
	if rec.Enrichment.Summary != "Customer asks for an SEO quote." {
		t.Errorf("summary = %q", rec.Enrichment.Summary)
	}
}

func TestEnrich_BackendErrorFallsBack(t *testing.T) {
	mock := &mockBackend{err: errors.New("backend unavailable")}
	e := NewEngine(common.EnrichmentConfig{}, mock, nil)

	rec := formWithMessage("Υπάρχει πρόβλημα με τον λογαριασμό μου.")
	e.Enrich(context.Background(), rec)

	if rec.Enrichment == nil {
		t.Fatal("no enrichment attached")
	}
	if rec.Enrichment.Source != constants.EnrichmentHeuristic {
		t.Errorf("source = %q, want heuristic", rec.Enrichment.Source)
	}
	if rec.Enrichment.Category != "support" {
		t.Errorf("fallback category = %q", rec.Enrichment.Category)
	}
	if rec.Enrichment.Summary == "" {
		t.Error("fallback summary is empty")
	}
}

func TestEnrich_BackendTimeoutFallsBack(t *testing.T) {
	mock := &mockBackend{
		delay:    200 * time.Millisecond,
		insights: llm.Insights{Summary: "too late", Category: "support"},
	}
	e := NewEngine(common.EnrichmentConfig{Timeout: 20 * time.Millisecond}, mock, nil)

	rec := formWithMessage("αργή απάντηση")
	e.Enrich(context.Background(), rec)

	if rec.Enrichment.Source != constants.EnrichmentHeuristic {
		t.Errorf("source = %q, want heuristic after timeout", rec.Enrichment.Source)
	}
}

func TestEnrich_EmptyBackendResultFallsBack(t *testing.T) {
	mock := &mockBackend{insights: llm.Insights{Summary: "   ", Category: ""}}
	e := NewEngine(common.EnrichmentConfig{}, mock, nil)

	rec := formWithMessage("κάτι")
	e.Enrich(context.Background(), rec)
	if rec.Enrichment.Source != constants.EnrichmentHeuristic {
		t.Errorf("source = %q, want heuristic for empty backend result", rec.Enrichment.Source)
	}
}

func TestEnrich_DisabledIgnoresBackend(t *testing.T) {
	mock := &mockBackend{insights: llm.Insights{Summary: "from ai", Category: "support"}}
	e := NewEngine(common.EnrichmentConfig{Disabled: true}, mock, nil)

	rec := formWithMessage("οτιδήποτε")
	e.Enrich(context.Background(), rec)

	if mock.calls != 0 {
		t.Errorf("backend called %d times despite being disabled", mock.calls)
	}
	if rec.Enrichment.Source != constants.EnrichmentHeuristic {
		t.Errorf("source = %q", rec.Enrichment.Source)
	}
}

func TestEnrich_BareRecordGetsNonEmptySummary(t *testing.T) {
	e := NewEngine(common.EnrichmentConfig{Disabled: true}, nil, nil)

	rec := entity.NewRecord(constants.SourceForm, "forms/empty.html")
	e.Enrich(context.Background(), rec)

	if rec.Enrichment == nil {
		t.Fatal("no enrichment attached")
	}
	if rec.Enrichment.Summary == "" {
		t.Error("summary is empty")
	}
	if rec.Enrichment.Source != constants.EnrichmentHeuristic {
		t.Errorf("source = %q", rec.Enrichment.Source)
	}
}

func TestEnrichAll_PerRecordIndependence(t *testing.T) {
	mock := &mockBackend{
		insights: llm.Insights{Summary: "ai summary", Category: "support", Confidence: 0.9},
		err:      errors.New("boom"),
		failOn:   "FAILME",
	}
	e := NewEngine(common.EnrichmentConfig{}, mock, nil)

	good := formWithMessage("κανονικό μήνυμα")
	bad := formWithMessage("FAILME please")
	records := e.EnrichAll(context.Background(), []*entity.UnifiedRecord{good, bad})

	if records[0].Enrichment.Source != constants.EnrichmentAI {
		t.Errorf("healthy record source = %q, want ai", records[0].Enrichment.Source)
	}
	if records[1].Enrichment.Source != constants.EnrichmentHeuristic {
		t.Errorf("failed record source = %q, want heuristic", records[1].Enrichment.Source)
	}
}
