package extract

import (
	"github.com/mkaravas/intake/constants"
	"github.com/mkaravas/intake/internal/entity"
)

// Extractor parses one source file into a unified record.
//
// path is the on-disk location to read; sourceName is the root-relative
// reference stored on the record (it seeds the deterministic record id, so
// it must not depend on where the intake root happens to be mounted).
//
// A file that cannot be recognized at all yields a *common.ParseError;
// individually missing fields never do — they stay explicit nulls for the
// quality validator to note.
type Extractor interface {
	SourceType() constants.SourceType
	Extract(path, sourceName string) (*entity.UnifiedRecord, error)
}

// ForFolder returns the extractor handling a given intake subfolder.
// Dispatch is a static lookup; unknown folders return false.
func ForFolder(folder string) (Extractor, bool) {
	switch constants.SourceFolders[folder] {
	case constants.SourceForm:
		return &FormExtractor{}, true
	case constants.SourceInvoice:
		return &InvoiceExtractor{}, true
	case constants.SourceEmail:
		return NewEmailExtractor(), true
	}
	return nil, false
}
