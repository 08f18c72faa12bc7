package constants

// QualityStatus is the per-record annotation set by the quality validator.
type QualityStatus string

// Stable values (these exact strings appear in exports and the review store).
const (
	QualityOK      QualityStatus = "ok"
	QualityWarning QualityStatus = "warning"
	QualityError   QualityStatus = "error"
)

// EnrichmentSource records which strategy produced a record's enrichment.
type EnrichmentSource string

const (
	EnrichmentHeuristic EnrichmentSource = "heuristic"
	EnrichmentAI        EnrichmentSource = "ai"
)

// ApprovalStatus is owned by the review layer; the pipeline never moves it
// past its initial pending value.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// MessageKind classifies an email source.
type MessageKind string

const (
	KindInquiry             MessageKind = "inquiry"
	KindInvoiceNotification MessageKind = "invoice_notification"
)
