package enrich

import (
	"reflect"
	"strings"
	"testing"

	"github.com/mkaravas/intake/constants"
	"github.com/mkaravas/intake/internal/entity"
)

func formWithMessage(message string) *entity.UnifiedRecord {
	rec := entity.NewRecord(constants.SourceForm, "forms/test.html")
	rec.SetField(constants.FieldMessage, message)
	return rec
}

func TestHeuristicCategory(t *testing.T) {
	cases := []struct {
		message string
		want    string
	}{
		{"Έχουμε πρόβλημα με τον server", "support"},
		{"The login page is broken", "support"},
		{"Θα ήθελα μια προσφορά για το έργο", "quote_request"},
		{"Interested in a partnership with your company", "partnership"},
		{"Σχετικά με το τιμολόγιο του Μαρτίου", "invoice"},
		{"Καλησπέρα, στείλτε μου περισσότερα", "general_inquiry"},
	}
	h := NewHeuristic(0)
	for _, tc := range cases {
		got := h.Insights(formWithMessage(tc.message))
		if got.Category != tc.want {
			t.Errorf("category(%q) = %q, want %q", tc.message, got.Category, tc.want)
		}
	}
}

func TestHeuristicConfidence(t *testing.T) {
	h := NewHeuristic(0)
	matched := h.Insights(formWithMessage("υπάρχει σφάλμα στην εφαρμογή"))
	if matched.Confidence != 0.8 {
		t.Errorf("matched confidence = %v, want 0.8", matched.Confidence)
	}
	unmatched := h.Insights(formWithMessage("τίποτα συγκεκριμένο"))
	if unmatched.Confidence != 0.5 {
		t.Errorf("unmatched confidence = %v, want 0.5", unmatched.Confidence)
	}
}

func TestHeuristicInvoiceSourceAlwaysInvoice(t *testing.T) {
	h := NewHeuristic(0)
	rec := entity.NewRecord(constants.SourceInvoice, "invoices/x.html")
	rec.SetField(constants.FieldDescription, "Υπηρεσίες φιλοξενίας")
	got := h.Insights(rec)
	if got.Category != "invoice" {
		t.Errorf("category = %q, want invoice", got.Category)
	}
	if got.Source != constants.EnrichmentHeuristic {
		t.Errorf("source = %q", got.Source)
	}
}

func TestHeuristicInvoiceNotificationEmail(t *testing.T) {
	h := NewHeuristic(0)
	rec := entity.NewRecord(constants.SourceEmail, "emails/x.eml")
	rec.SetField(constants.FieldBody, "Συνημμένο θα βρείτε το παραστατικό.")
	rec.SetField(constants.FieldMessageKind, string(constants.KindInvoiceNotification))
	if got := h.Insights(rec); got.Category != "invoice" {
		t.Errorf("category = %q, want invoice", got.Category)
	}
}

func TestHeuristicDeterministic(t *testing.T) {
	h := NewHeuristic(120)
	rec := formWithMessage("Θα ήθελα μια προσφορά. Το έργο είναι επείγον! Παρακαλώ απαντήστε σύντομα.")
	a := h.Insights(rec)
	b := h.Insights(rec)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("same record produced different insights: %+v vs %+v", a, b)
	}
}

func TestSmartShorten(t *testing.T) {
	short := smartShorten("Μικρό μήνυμα.", 240)
	if short != "Μικρό μήνυμα." {
		t.Errorf("short text changed: %q", short)
	}

	long := "Πρώτη πρόταση εδώ. Δεύτερη πρόταση ακολουθεί. " + strings.Repeat("Γέμισμα κειμένου ακόμα. ", 30)
	got := smartShorten(long, 50)
	if got != "Πρώτη πρόταση εδώ. Δεύτερη πρόταση ακολουθεί." {
		t.Errorf("smartShorten kept partial sentences: %q", got)
	}

	// When not even the first sentence fits, truncation must respect rune
	// boundaries in multi-byte text.
	tight := smartShorten("Παπαδόπουλος και Σία μακροσκελής περιγραφή χωρίς τέλος", 10)
	if !strings.HasSuffix(tight, "…") {
		t.Errorf("tight truncation = %q", tight)
	}
	if len([]rune(tight)) > 10 {
		t.Errorf("tight truncation too long: %q (%d runes)", tight, len([]rune(tight)))
	}
}

func TestNormalizePriority(t *testing.T) {
	cases := map[string]string{
		"high":    "high",
		"Υψηλή":   "high",
		"υψηλή":   "high",
		"Μεσαία":  "medium",
		"μέτρια":  "medium",
		"Χαμηλή":  "low",
		"LOW":     "low",
		"urgent?": "",
		"":        "",
	}
	for in, want := range cases {
		if got := NormalizePriority(in); got != want {
			t.Errorf("NormalizePriority(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHeuristicEmptyTextFallsBackToDescription(t *testing.T) {
	h := NewHeuristic(0)
	rec := entity.NewRecord(constants.SourceInvoice, "invoices/x.html")
	rec.SetField(constants.FieldInvoiceNumber, "ΤΙΜ-2024-004")
	rec.SetField(constants.FieldCustomer, "Παπαδόπουλος ΑΕ")
	got := h.Insights(rec)
	if got.Summary != "Invoice ΤΙΜ-2024-004 for Παπαδόπουλος ΑΕ" {
		t.Errorf("summary = %q", got.Summary)
	}
}

func TestHeuristicBareRecordSummaryNeverEmpty(t *testing.T) {
	cases := []struct {
		sourceType constants.SourceType
		sourcePath string
		want       string
	}{
		{constants.SourceForm, "forms/x.html", "Contact form submission from forms/x.html"},
		{constants.SourceInvoice, "invoices/y.html", "Invoice from invoices/y.html"},
		{constants.SourceEmail, "emails/z.eml", "Email message from emails/z.eml"},
	}
	h := NewHeuristic(0)
	for _, tc := range cases {
		rec := entity.NewRecord(tc.sourceType, tc.sourcePath)
		got := h.Insights(rec)
		if got.Summary != tc.want {
			t.Errorf("%s summary = %q, want %q", tc.sourceType, got.Summary, tc.want)
		}
	}
}
