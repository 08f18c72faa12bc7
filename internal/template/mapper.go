// Package template projects unified records onto the published output
// column schema. Whatever the source type, every row carries the same
// column count; columns that do not apply are empty cells, never omitted.
package template

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mkaravas/intake/constants"
	"github.com/mkaravas/intake/internal/enrich"
	"github.com/mkaravas/intake/internal/entity"
)

// Row is one exported line, aligned with constants.TemplateHeaders.
type Row []string

// Headers returns the fixed column order.
func Headers() []string {
	return constants.TemplateHeaders
}

// MapRecord converts one record into a template row. Formatting here is
// presentation only (ISO date strings, two-decimal amounts, collapsed
// whitespace); the canonical values on the record stay untouched.
func MapRecord(rec *entity.UnifiedRecord) Row {
	get := func(key string) string {
		v, _ := rec.Field(key)
		return v
	}

	date := get(constants.FieldSubmittedAt)
	if date == "" {
		date = get(constants.FieldDate)
	}

	clientName := get(constants.FieldName)
	if clientName == "" {
		clientName = get(constants.FieldCustomer)
	}
	if clientName == "" {
		clientName = get(constants.FieldSender)
	}

	message := get(constants.FieldMessage)
	if message == "" {
		message = get(constants.FieldBody)
	}

	service := get(constants.FieldService)
	if service == "" {
		service = get(constants.FieldSubject)
	}

	priority := get(constants.FieldPriority)
	if normalized := enrich.NormalizePriority(priority); normalized != "" {
		priority = normalized
	}

	var summary, category, source string
	if rec.Enrichment != nil {
		summary = rec.Enrichment.Summary
		category = rec.Enrichment.Category
		source = string(rec.Enrichment.Source)
	}

	return Row{
		strings.ToUpper(string(rec.SourceType)),
		rec.SourcePath,
		date,
		cleanText(clientName),
		get(constants.FieldEmail),
		get(constants.FieldPhone),
		cleanText(get(constants.FieldCompany)),
		cleanText(service),
		formatAmount(get(constants.FieldNetAmount)),
		formatAmount(get(constants.FieldVATAmount)),
		formatAmount(get(constants.FieldTotalAmount)),
		get(constants.FieldInvoiceNumber),
		priority,
		cleanText(message),
		string(rec.Quality.Status),
		strings.Join(rec.Quality.Notes, "; "),
		cleanText(summary),
		category,
		source,
	}
}

// MapAll converts a record set into export rows, preserving order.
func MapAll(records []*entity.UnifiedRecord) []Row {
	rows := make([]Row, len(records))
	for i, rec := range records {
		rows[i] = MapRecord(rec)
	}
	return rows
}

// cleanText collapses whitespace runs without touching any other
// characters; multi-script content passes through byte for byte.
func cleanText(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// formatAmount renders a canonical decimal with exactly two places.
func formatAmount(value string) string {
	if value == "" {
		return ""
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return value
	}
	return fmt.Sprintf("%.2f", f)
}
