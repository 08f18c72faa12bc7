package constants

// TemplateHeaders is the published output column order. Every exported row
// has exactly this column count regardless of source type; columns that do
// not apply to a record's type are emitted as empty cells.
var TemplateHeaders = []string{
	"Type",
	"Source",
	"Date",
	"Client_Name",
	"Email",
	"Phone",
	"Company",
	"Service_Interest",
	"Amount",
	"VAT",
	"Total_Amount",
	"Invoice_Number",
	"Priority",
	"Message",
	"Quality_Status",
	"Quality_Notes",
	"Summary",
	"Category",
	"Enrichment_Source",
}
