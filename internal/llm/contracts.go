package llm

import "context"

// Insights is the normalized shape we want from the model.
type Insights struct {
	Summary    string  `json:"summary"`
	Category   string  `json:"category"`
	Priority   string  `json:"priority,omitempty"`   // high | medium | low
	Confidence float32 `json:"confidence,omitempty"` // 0..1
}

// EnrichRequest carries the record text handed to the backend.
type EnrichRequest struct {
	SourceType        string
	Subject           string
	Text              string
	AllowedCategories []string
}

// InsightExtractor is the backend contract the enrichment engine depends
// on. A disabled or unreachable backend is equivalent to every call
// returning an error; the engine handles the fallback.
type InsightExtractor interface {
	ExtractInsights(ctx context.Context, req EnrichRequest) (Insights, []byte /*rawJSON*/, error)
}
