package constants

import "strings"

// SourceType tags the origin format of a unified record.
type SourceType string

const (
	SourceForm    SourceType = "form"
	SourceInvoice SourceType = "invoice"
	SourceEmail   SourceType = "email"
)

// Field names, shared between extractors, validation, and the template mapper.
const (
	FieldName        = "name"
	FieldEmail       = "email"
	FieldPhone       = "phone"
	FieldCompany     = "company"
	FieldService     = "service"
	FieldMessage     = "message"
	FieldPriority    = "priority"
	FieldSubmittedAt = "submitted_at"

	FieldInvoiceNumber = "invoice_number"
	FieldDate          = "date"
	FieldCustomer      = "customer"
	FieldNetAmount     = "net_amount"
	FieldVATAmount     = "vat_amount"
	FieldTotalAmount   = "total_amount"
	FieldDescription   = "description"

	FieldSender      = "sender"
	FieldSubject     = "subject"
	FieldBody        = "body"
	FieldMessageKind = "message_kind"
)

// fieldKeys holds the fixed field set per source type. Every record carries
// exactly these keys; absent values are explicit nulls, never missing keys.
var fieldKeys = map[SourceType][]string{
	SourceForm: {
		FieldName, FieldEmail, FieldPhone, FieldCompany,
		FieldService, FieldMessage, FieldPriority, FieldSubmittedAt,
	},
	SourceInvoice: {
		FieldInvoiceNumber, FieldDate, FieldCustomer,
		FieldNetAmount, FieldVATAmount, FieldTotalAmount, FieldDescription,
	},
	SourceEmail: {
		FieldSender, FieldSubject, FieldBody, FieldDate, FieldMessageKind,
	},
}

// FieldKeys returns the fixed field-key set for a source type.
func FieldKeys(st SourceType) []string {
	return fieldKeys[st]
}

// SourceFolders maps intake subfolder names to the record type they produce.
// Dispatch is static per folder, never by sniffing file contents.
var SourceFolders = map[string]SourceType{
	"forms":    SourceForm,
	"invoices": SourceInvoice,
	"emails":   SourceEmail,
}

// FolderOrder fixes the group order of records within a run: forms first,
// then invoices, then emails.
var FolderOrder = []string{"forms", "invoices", "emails"}

// FolderExtensions holds the recognized file extension per subfolder.
// Files with other extensions are ignored, not errored.
var FolderExtensions = map[string]string{
	"forms":    "html",
	"invoices": "html",
	"emails":   "eml",
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
