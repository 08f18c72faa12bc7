package extract

import (
	"os"

	"github.com/mkaravas/intake/constants"
	"github.com/mkaravas/intake/internal/common"
	"github.com/mkaravas/intake/internal/entity"
)

// FormExtractor parses one labeled-field HTML contact form.
type FormExtractor struct{}

func (FormExtractor) SourceType() constants.SourceType { return constants.SourceForm }

// Extract reads an HTML form document into a unified record. Individually
// missing fields stay null; a document with no field containers at all is a
// ParseError.
func (FormExtractor) Extract(path, sourceName string) (*entity.UnifiedRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.NewParseError(sourceName, "read form", err)
	}
	doc, err := parseHTML(data)
	if err != nil {
		return nil, common.NewParseError(sourceName, "parse form markup", err)
	}
	if !hasFormFields(doc) {
		return nil, common.NewParseError(sourceName, "no recognizable form fields", nil)
	}

	rec := entity.NewRecord(constants.SourceForm, sourceName)
	rec.SetField(constants.FieldName, inputValue(doc, "full_name"))
	rec.SetField(constants.FieldEmail, inputValue(doc, "email"))
	rec.SetField(constants.FieldPhone, inputValue(doc, "phone"))
	rec.SetField(constants.FieldCompany, inputValue(doc, "company"))
	rec.SetField(constants.FieldService, selectedOption(doc, "service"))
	rec.SetField(constants.FieldPriority, selectedOption(doc, "priority"))
	rec.SetField(constants.FieldMessage, textareaValue(doc, "message"))

	if raw := inputValue(doc, "submission_date"); raw != "" {
		normalized, _ := NormalizeDate(raw)
		rec.SetField(constants.FieldSubmittedAt, normalized)
	}
	return rec, nil
}
