package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mkaravas/intake/internal/llm"
)

const systemPrompt = "You extract business metadata from customer documents. " +
	"Respond ONLY with a minimal JSON object containing 'summary', 'category', and optionally " +
	"'priority' and 'confidence'. Priority must be exactly high, medium, or low. The summary must " +
	"be a single, complete sentence in the same language as the source text that reflects the core " +
	"need expressed in the content, without lists, numbering, or trailing conjunctions."

// ExtractInsights implements llm.InsightExtractor over chat/completions.
// One retry with a fixed backoff; each attempt carries its own timeout so a
// stalled backend cannot hold up the caller.
func (c *Client) ExtractInsights(ctx context.Context, req llm.EnrichRequest) (llm.Insights, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.insights.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"source_type", req.SourceType,
		"text_len", len(req.Text),
		"allowed_categories", len(req.AllowedCategories),
	)

	schema := llm.BuildInsightsJSONSchema(req.AllowedCategories)
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": buildUserPrompt(req) + "\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}

	raw, _, err := llm.PostJSON(ctx, c.http, endpoint, body, headers, c.cfg.RetryBackoff, c.log)
	if err != nil {
		c.log.Warn("llm.insights.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Insights{}, nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return llm.Insights{}, raw, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return llm.Insights{}, raw, fmt.Errorf("no choices in openai response")
	}
	rawContent := []byte(strings.TrimSpace(cc.Choices[0].Message.Content))

	// Validate strictly first; optionally sanitize offenders and re-validate.
	if err := llm.ValidateJSONAgainstSchema(schema, rawContent); err != nil {
		if !c.cfg.LenientOptional {
			return llm.Insights{}, rawContent, fmt.Errorf("schema validation failed: %w", err)
		}
		cleaned, dropped, sErr := llm.SanitizeOptionalFields(rawContent)
		if sErr != nil {
			return llm.Insights{}, rawContent, fmt.Errorf("sanitize failed: %w", sErr)
		}
		if vErr := llm.ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			return llm.Insights{}, rawContent, fmt.Errorf("schema validation failed: %w", vErr)
		}
		c.log.Warn("llm.insights.lenient_sanitize_applied", "req_id", rid, "dropped", dropped)
		rawContent = cleaned
	}

	var out llm.Insights
	if err := json.Unmarshal(rawContent, &out); err != nil {
		return llm.Insights{}, rawContent, fmt.Errorf("unmarshal insights: %w", err)
	}

	c.log.Info("llm.insights.ok",
		"req_id", rid,
		"category", out.Category,
		"priority", out.Priority,
		"summary_len", len(out.Summary),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, rawContent, nil
}

// buildUserPrompt serializes the record fields the model needs; text is
// truncated so one oversized message cannot blow the token budget.
func buildUserPrompt(req llm.EnrichRequest) string {
	text := req.Text
	if runes := []rune(text); len(runes) > 1200 {
		text = string(runes[:1200])
	}
	fields := map[string]string{
		"source_type": req.SourceType,
		"subject":     req.Subject,
		"text":        text,
	}
	return mustJSON(fields)
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
