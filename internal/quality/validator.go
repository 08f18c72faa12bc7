// Package quality applies per-source-type validation rules to unified
// records. Validation annotates, never rejects: every record comes back
// with a status and the complete list of issues found.
package quality

import (
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/mkaravas/intake/constants"
	"github.com/mkaravas/intake/internal/common"
	"github.com/mkaravas/intake/internal/entity"
)

var emailPattern = regexp.MustCompile(`^[\w.+-]+@[\w-]+(\.[\w-]+)+$`)

// Validator holds the tunable rule constants.
type Validator struct {
	vatRate      float64
	vatTolerance float64
}

func NewValidator(cfg common.QualityConfig) *Validator {
	rate := cfg.VATRate
	if rate <= 0 {
		rate = 1.24
	}
	tol := cfg.VATTolerance
	if tol <= 0 {
		tol = 0.01
	}
	return &Validator{vatRate: rate, vatTolerance: tol}
}

// Validate applies all rules for the record's source type and overwrites
// its quality annotation. It is a pure function of the single record, never
// returns an error, and never short-circuits: every violated rule surfaces
// as its own note.
func (v *Validator) Validate(rec *entity.UnifiedRecord) {
	var notes []string
	status := constants.QualityOK

	warn := func(note string) {
		notes = append(notes, note)
		if status != constants.QualityError {
			status = constants.QualityWarning
		}
	}
	fail := func(note string) {
		notes = append(notes, note)
		status = constants.QualityError
	}

	switch rec.SourceType {
	case constants.SourceForm:
		if _, ok := rec.Field(constants.FieldName); !ok {
			warn("missing name")
		}
		email, hasEmail := rec.Field(constants.FieldEmail)
		_, hasPhone := rec.Field(constants.FieldPhone)
		if !hasEmail && !hasPhone {
			fail("no contact information")
		}
		if hasEmail && !emailPattern.MatchString(email) {
			warn("malformed email address: " + email)
		}
		v.checkDate(rec, constants.FieldSubmittedAt, warn)

	case constants.SourceInvoice:
		if _, ok := rec.Field(constants.FieldInvoiceNumber); !ok {
			fail("missing invoice number")
		}
		if _, ok := rec.Field(constants.FieldCustomer); !ok {
			warn("missing customer name")
		}
		v.checkDate(rec, constants.FieldDate, warn)
		v.checkAmounts(rec, warn, fail)

	case constants.SourceEmail:
		if _, ok := rec.Field(constants.FieldSender); !ok {
			warn("missing sender")
		}
		if body, ok := rec.Field(constants.FieldBody); !ok || body == "" {
			warn("empty email body")
		}
		v.checkDate(rec, constants.FieldDate, warn)
	}

	rec.Quality = entity.Quality{Status: status, Notes: notes}
}

// ValidateAll annotates every record in place and returns the same slice.
func (v *Validator) ValidateAll(records []*entity.UnifiedRecord) []*entity.UnifiedRecord {
	for _, rec := range records {
		v.Validate(rec)
	}
	return records
}

// checkDate flags date fields the extractor could not normalize to ISO.
func (v *Validator) checkDate(rec *entity.UnifiedRecord, key string, warn func(string)) {
	raw, ok := rec.Field(key)
	if !ok {
		warn("missing " + key)
		return
	}
	if _, err := time.Parse("2006-01-02", raw); err != nil {
		warn("unparseable date: " + raw)
	}
}

// checkAmounts verifies presence, sign, and VAT consistency of the
// monetary triple. Each violation is its own note.
func (v *Validator) checkAmounts(rec *entity.UnifiedRecord, warn, fail func(string)) {
	amounts := map[string]float64{}
	for _, key := range []string{constants.FieldNetAmount, constants.FieldVATAmount, constants.FieldTotalAmount} {
		value, ok := rec.Amount(key)
		if !ok {
			warn("missing " + key)
			continue
		}
		if value < 0 {
			fail(fmt.Sprintf("negative %s: %.2f", key, value))
			continue
		}
		amounts[key] = value
	}

	net, hasNet := amounts[constants.FieldNetAmount]
	total, hasTotal := amounts[constants.FieldTotalAmount]
	if hasNet && hasTotal {
		expected := net * v.vatRate
		if math.Abs(expected-total) >= v.vatTolerance {
			fail(fmt.Sprintf("VAT mismatch: total %.2f, expected %.2f (net %.2f × %.2f)",
				total, expected, net, v.vatRate))
		}
	}
}
