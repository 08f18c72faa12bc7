package extract

import (
	"os"
	"regexp"
	"strings"

	"github.com/mkaravas/intake/constants"
	"github.com/mkaravas/intake/internal/common"
	"github.com/mkaravas/intake/internal/entity"
)

// invoiceNumberPattern matches the fixed numbering scheme used on the
// invoices (Greek "ΤΙΜ-" or latin "INV-" prefix followed by digits).
var invoiceNumberPattern = regexp.MustCompile(`(?:ΤΙΜ|TIM|INV)[-‐–]?\d{3,}(?:[-‐–]\d+)*`)

// InvoiceExtractor parses one structured HTML invoice.
type InvoiceExtractor struct{}

func (InvoiceExtractor) SourceType() constants.SourceType { return constants.SourceInvoice }

// Extract reads an HTML invoice into a unified record. It locates labeled
// values in the flattened document text, handling both Greek and English
// label variants. The document is a ParseError when no amounts are found
// at all, and also when only a net amount is present: with neither VAT nor
// total there is nothing left to cross-check the net against.
func (InvoiceExtractor) Extract(path, sourceName string) (*entity.UnifiedRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.NewParseError(sourceName, "read invoice", err)
	}
	doc, err := parseHTML(data)
	if err != nil {
		return nil, common.NewParseError(sourceName, "parse invoice markup", err)
	}

	text := flattenText(doc)
	lines := strings.Split(text, "\n")

	netRaw := labelValue(lines, "Καθαρή Αξία", "Καθ. Αξία", "Net")
	vatRaw := labelValue(lines, "ΦΠΑ 24%", "ΦΠΑ", "VAT")
	totalRaw := labelValue(lines, "ΣΥΝΟΛΟ", "Σύνολο", "Total")
	if netRaw == "" && vatRaw == "" && totalRaw == "" {
		return nil, common.NewParseError(sourceName, "no amount lines found", nil)
	}
	if netRaw != "" && vatRaw == "" && totalRaw == "" {
		return nil, common.NewParseError(sourceName, "net amount without VAT or total lines", nil)
	}

	rec := entity.NewRecord(constants.SourceInvoice, sourceName)
	rec.SetField(constants.FieldCustomer, labelValue(lines, "Πελάτης", "Customer"))
	rec.SetField(constants.FieldDescription, labelValue(lines, "Περιγραφή", "Description"))

	number := labelValue(lines, "Αριθμός", "Invoice")
	if m := invoiceNumberPattern.FindString(text); m != "" {
		number = m
	}
	rec.SetField(constants.FieldInvoiceNumber, number)

	if raw := labelValue(lines, "Ημερομηνία", "Date"); raw != "" {
		normalized, _ := NormalizeDate(raw)
		rec.SetField(constants.FieldDate, normalized)
	}

	setAmount(rec, constants.FieldNetAmount, netRaw)
	setAmount(rec, constants.FieldVATAmount, vatRaw)
	setAmount(rec, constants.FieldTotalAmount, totalRaw)
	return rec, nil
}

func setAmount(rec *entity.UnifiedRecord, key, raw string) {
	if raw == "" {
		return
	}
	if normalized, err := NormalizeAmount(raw); err == nil {
		rec.SetField(key, normalized)
	}
}

// labelValue scans flattened lines for the first matching label and returns
// the text after it. When a label ends its line (table layouts flatten the
// value into the next cell line) the following line is used, provided it is
// not itself another label.
func labelValue(lines []string, labels ...string) string {
	for _, label := range labels {
		lowLabel := strings.ToLower(label)
		for i, line := range lines {
			low := strings.ToLower(line)
			idx := strings.Index(low, lowLabel)
			if idx < 0 {
				continue
			}
			value := line[idx+len(label):]
			value = strings.TrimLeft(value, ": ")
			if value == "" && i+1 < len(lines) {
				candidate := strings.TrimSpace(lines[i+1])
				if candidate != "" && !containsAnyLabel(candidate, labels) {
					value = candidate
				}
			}
			return strings.Trim(value, " -")
		}
	}
	return ""
}

func containsAnyLabel(line string, labels []string) bool {
	low := strings.ToLower(line)
	for _, label := range labels {
		if strings.Contains(low, strings.ToLower(label)) {
			return true
		}
	}
	return false
}
