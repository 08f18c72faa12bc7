package enrich

import (
	"regexp"
	"strings"

	"github.com/mkaravas/intake/constants"
	"github.com/mkaravas/intake/internal/entity"
)

// Categories assigned by both strategies. The backend is constrained to the
// same taxonomy through its JSON schema.
var Categories = []string{
	"invoice",
	"quote_request",
	"support",
	"partnership",
	"general_inquiry",
}

// categoryKeywords drives the deterministic category assignment. Order
// matters: the first category with a keyword hit wins.
var categoryKeywords = []struct {
	category string
	words    []string
}{
	{"support", []string{"πρόβλημα", "βλάβη", "σφάλμα", "δεν λειτουργεί", "support", "issue", "error", "broken"}},
	{"quote_request", []string{"προσφορά", "κόστος", "τιμή", "quote", "pricing", "estimate"}},
	{"partnership", []string{"συνεργασία", "συνεργάτης", "partnership", "reseller"}},
	{"invoice", []string{"τιμολόγιο", "τιμολογιο", "invoice", "πληρωμή", "payment"}},
}

// priorityTranslations normalizes Greek priority labels.
var priorityTranslations = map[string]string{
	"υψηλή":   "high",
	"μεσαία":  "medium",
	"μέτρια":  "medium",
	"χαμηλή":  "low",
}

var sentenceSplit = regexp.MustCompile(`(?:[.!?;…])\s+`)

// Heuristic is the always-available enrichment strategy. It is a pure
// function of the record's text fields: same input, same output.
type Heuristic struct {
	maxChars int
}

func NewHeuristic(summaryMaxChars int) *Heuristic {
	if summaryMaxChars <= 0 {
		summaryMaxChars = 240
	}
	return &Heuristic{maxChars: summaryMaxChars}
}

// Insights derives summary, category, and confidence from the record.
func (h *Heuristic) Insights(rec *entity.UnifiedRecord) entity.Enrichment {
	text := recordText(rec)
	category, matched := h.category(rec, text)

	confidence := float32(0.5)
	if matched {
		confidence = 0.8
	}

	summary := h.summarize(rec, text)
	return entity.Enrichment{
		Summary:    summary,
		Category:   category,
		Confidence: confidence,
		Source:     constants.EnrichmentHeuristic,
	}
}

func (h *Heuristic) category(rec *entity.UnifiedRecord, text string) (string, bool) {
	if rec.SourceType == constants.SourceInvoice {
		return "invoice", true
	}
	if kind, ok := rec.Field(constants.FieldMessageKind); ok && kind == string(constants.KindInvoiceNotification) {
		return "invoice", true
	}
	low := strings.ToLower(text)
	for _, entry := range categoryKeywords {
		for _, w := range entry.words {
			if strings.Contains(low, w) {
				return entry.category, true
			}
		}
	}
	return "general_inquiry", false
}

// summarize produces a short extractive summary, keeping whole sentences
// within the character budget. It never returns the empty string: records
// with no usable text get a description built from what is known about
// them, falling back to source type and path.
func (h *Heuristic) summarize(rec *entity.UnifiedRecord, text string) string {
	if text != "" {
		return smartShorten(text, h.maxChars)
	}

	// Nothing textual to work from; describe the record instead.
	switch rec.SourceType {
	case constants.SourceInvoice:
		number, _ := rec.Field(constants.FieldInvoiceNumber)
		customer, _ := rec.Field(constants.FieldCustomer)
		switch {
		case number != "" && customer != "":
			return "Invoice " + number + " for " + customer
		case number != "":
			return "Invoice " + number
		case customer != "":
			return "Invoice for " + customer
		}
	default:
		subject, _ := rec.Field(constants.FieldSubject)
		service, _ := rec.Field(constants.FieldService)
		if s := strings.TrimSpace(subject + service); s != "" {
			return s
		}
	}
	return placeholderSummary(rec)
}

// placeholderSummary is the last-resort summary for records whose fields
// carry no text at all.
func placeholderSummary(rec *entity.UnifiedRecord) string {
	var noun string
	switch rec.SourceType {
	case constants.SourceForm:
		noun = "Contact form submission"
	case constants.SourceInvoice:
		noun = "Invoice"
	case constants.SourceEmail:
		noun = "Email message"
	default:
		noun = "Record"
	}
	return noun + " from " + rec.SourcePath
}

// NormalizePriority maps source priority labels to high/medium/low.
func NormalizePriority(value string) string {
	lowered := strings.ToLower(strings.TrimSpace(value))
	switch lowered {
	case "high", "medium", "low":
		return lowered
	}
	if translated, ok := priorityTranslations[lowered]; ok {
		return translated
	}
	return ""
}

// recordText picks the most meaningful free-text content per source type.
func recordText(rec *entity.UnifiedRecord) string {
	var keys []string
	switch rec.SourceType {
	case constants.SourceForm:
		keys = []string{constants.FieldMessage}
	case constants.SourceInvoice:
		keys = []string{constants.FieldDescription}
	case constants.SourceEmail:
		keys = []string{constants.FieldBody}
	}
	for _, key := range keys {
		if v, ok := rec.Field(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// smartShorten keeps whole sentences while staying under maxChars; when not
// even the first sentence fits, it truncates on a rune boundary.
func smartShorten(message string, maxChars int) string {
	normalized := strings.Join(strings.Fields(message), " ")
	if len([]rune(normalized)) <= maxChars {
		return normalized
	}

	var parts []string
	total := 0
	for _, sentence := range splitSentences(normalized) {
		projected := total + len([]rune(sentence))
		if len(parts) > 0 {
			projected++
		}
		if projected > maxChars {
			break
		}
		parts = append(parts, sentence)
		total = projected
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}

	runes := []rune(normalized)
	return strings.TrimSpace(string(runes[:maxChars-1])) + "…"
}

func splitSentences(text string) []string {
	var out []string
	last := 0
	for _, loc := range sentenceSplit.FindAllStringIndex(text, -1) {
		out = append(out, strings.TrimSpace(text[last:loc[1]]))
		last = loc[1]
	}
	if last < len(text) {
		out = append(out, strings.TrimSpace(text[last:]))
	}
	return out
}
