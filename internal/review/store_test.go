package review

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/mkaravas/intake/constants"
	"github.com/mkaravas/intake/internal/common"
	"github.com/mkaravas/intake/internal/entity"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecords() []*entity.UnifiedRecord {
	form := entity.NewRecord(constants.SourceForm, "forms/a.html")
	form.SetField(constants.FieldName, "Γιώργος Παπαδόπουλος")
	form.SetField(constants.FieldEmail, "g@example.gr")
	form.Quality = entity.Quality{Status: constants.QualityOK}
	form.Enrichment = &entity.Enrichment{Summary: "s", Category: "general_inquiry", Confidence: 0.5, Source: constants.EnrichmentHeuristic}

	inv := entity.NewRecord(constants.SourceInvoice, "invoices/b.html")
	inv.SetField(constants.FieldInvoiceNumber, "ΤΙΜ-2024-001")
	inv.SetField(constants.FieldNetAmount, "1000.00")
	inv.Quality = entity.Quality{Status: constants.QualityWarning, Notes: []string{"missing customer name"}}

	return []*entity.UnifiedRecord{form, inv}
}

func TestSaveAndLoadRun(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	records := sampleRecords()

	if err := s.SaveRun(ctx, "run-1", "data", records); err != nil {
		t.Fatalf("SaveRun() error: %v", err)
	}
	loaded, err := s.Load(ctx, "run-1")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d records", len(loaded))
	}
	if loaded[0].RecordID != records[0].RecordID {
		t.Errorf("order not preserved: %q", loaded[0].RecordID)
	}
	if got, _ := loaded[0].Field(constants.FieldName); got != "Γιώργος Παπαδόπουλος" {
		t.Errorf("name = %q", got)
	}
	if loaded[1].Quality.Notes[0] != "missing customer name" {
		t.Errorf("quality notes lost: %v", loaded[1].Quality)
	}
	if loaded[0].Review == nil || loaded[0].Review.Approval != constants.ApprovalPending {
		t.Errorf("review block = %+v, want pending", loaded[0].Review)
	}
}

func TestApplyEdit(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	records := sampleRecords()
	if err := s.SaveRun(ctx, "run-1", "data", records); err != nil {
		t.Fatal(err)
	}

	rec, err := s.ApplyEdit(ctx, records[0].RecordID, constants.FieldName, "Diorthomeno Onoma")
	if err != nil {
		t.Fatalf("ApplyEdit() error: %v", err)
	}
	if got, _ := rec.Field(constants.FieldName); got != "Diorthomeno Onoma" {
		t.Errorf("edited name = %q", got)
	}
	if rec.Review == nil || !rec.Review.Edited {
		t.Errorf("review = %+v, want edited", rec.Review)
	}
	if len(rec.Review.EditedFields) != 1 || rec.Review.EditedFields[0] != constants.FieldName {
		t.Errorf("edited fields = %v", rec.Review.EditedFields)
	}

	// The stored snapshot stays untouched; the edit lives in the log.
	loaded, err := s.Load(ctx, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := loaded[0].Field(constants.FieldName); got != "Diorthomeno Onoma" {
		t.Errorf("replayed name = %q", got)
	}

	// Last edit wins.
	rec, err = s.ApplyEdit(ctx, records[0].RecordID, constants.FieldName, "Teliko Onoma")
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := rec.Field(constants.FieldName); got != "Teliko Onoma" {
		t.Errorf("after second edit name = %q", got)
	}
}

func TestApplyEdit_EditedFieldsSorted(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	records := sampleRecords()
	if err := s.SaveRun(ctx, "run-1", "data", records); err != nil {
		t.Fatal(err)
	}

	for _, field := range []string{constants.FieldPhone, constants.FieldCompany, constants.FieldMessage} {
		if _, err := s.ApplyEdit(ctx, records[0].RecordID, field, "x"); err != nil {
			t.Fatalf("ApplyEdit(%s) error: %v", field, err)
		}
	}

	want := []string{constants.FieldCompany, constants.FieldMessage, constants.FieldPhone}
	for i := 0; i < 3; i++ {
		loaded, err := s.Load(ctx, "run-1")
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(loaded[0].Review.EditedFields, want) {
			t.Fatalf("edited fields = %v, want %v", loaded[0].Review.EditedFields, want)
		}
	}
}

func TestApplyEdit_UnknownFieldRejected(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	records := sampleRecords()
	if err := s.SaveRun(ctx, "run-1", "data", records); err != nil {
		t.Fatal(err)
	}

	_, err := s.ApplyEdit(ctx, records[0].RecordID, "no_such_field", "x")
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("ApplyEdit() error = %v, want ErrInvalidInput", err)
	}
}

func TestApplyEdit_UnknownRecord(t *testing.T) {
	s := openStore(t)
	_, err := s.ApplyEdit(context.Background(), "form-deadbeef00000000", constants.FieldName, "x")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("ApplyEdit() error = %v, want ErrNotFound", err)
	}
}

func TestSetApproval(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	records := sampleRecords()
	if err := s.SaveRun(ctx, "run-1", "data", records); err != nil {
		t.Fatal(err)
	}

	rec, err := s.SetApproval(ctx, records[0].RecordID, constants.ApprovalApproved)
	if err != nil {
		t.Fatalf("SetApproval() error: %v", err)
	}
	if rec.Review.Approval != constants.ApprovalApproved {
		t.Errorf("approval = %q", rec.Review.Approval)
	}

	// The decision is last-write-wins.
	rec, err = s.SetApproval(ctx, records[0].RecordID, constants.ApprovalRejected)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Review.Approval != constants.ApprovalRejected {
		t.Errorf("approval = %q", rec.Review.Approval)
	}

	if _, err := s.SetApproval(ctx, records[0].RecordID, "maybe"); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("bogus status error = %v, want ErrInvalidInput", err)
	}
}

func TestExportRows_ApprovedOnly(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	records := sampleRecords()
	if err := s.SaveRun(ctx, "run-1", "data", records); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SetApproval(ctx, records[0].RecordID, constants.ApprovalApproved); err != nil {
		t.Fatal(err)
	}

	all, err := s.ExportRows(ctx, "run-1", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("all rows = %d, want 2", len(all))
	}

	approved, err := s.ExportRows(ctx, "run-1", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(approved) != 1 {
		t.Errorf("approved rows = %d, want 1", len(approved))
	}
}
