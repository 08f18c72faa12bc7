package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/mkaravas/intake/constants"
)

// UnifiedRecord is the normalized representation of one source document,
// independent of its origin format. It is created once by an extractor and
// annotated in place by the quality and enrichment stages; the review layer
// never mutates it directly.
type UnifiedRecord struct {
	RecordID   string               `json:"record_id"`
	SourceType constants.SourceType `json:"source_type"`
	SourcePath string               `json:"source_path"`

	// Fields carries exactly the fixed key set for SourceType. A nil value
	// is an explicit null; keys are never absent.
	Fields map[string]*string `json:"fields"`

	Quality    Quality     `json:"quality"`
	Enrichment *Enrichment `json:"enrichment,omitempty"`
	Review     *Review     `json:"review,omitempty"`
}

// Quality is the validator's annotation. Re-validation overwrites both
// fields; notes never accumulate across runs.
type Quality struct {
	Status constants.QualityStatus `json:"status"`
	Notes  []string                `json:"notes,omitempty"`
}

// Enrichment is the derived summary/category metadata attached to a record.
type Enrichment struct {
	Summary    string                     `json:"summary"`
	Category   string                     `json:"category"`
	Confidence float32                    `json:"confidence"`
	Source     constants.EnrichmentSource `json:"source"`
}

// Review is owned by the review collaborator.
type Review struct {
	Approval     constants.ApprovalStatus `json:"approval"`
	Edited       bool                     `json:"edited"`
	EditedFields []string                 `json:"edited_fields,omitempty"`
	EditedAt     time.Time                `json:"edited_at,omitzero"`
}

// NewRecordID derives the stable record identifier from source type and
// source path. The same input always yields the same id, so re-runs over an
// unchanged directory can be diffed and correlated in review.
func NewRecordID(st constants.SourceType, sourcePath string) string {
	sum := sha256.Sum256([]byte(string(st) + ":" + sourcePath))
	return string(st) + "-" + hex.EncodeToString(sum[:])[:16]
}

// NewRecord creates a record with every field key of the type's fixed set
// present and explicitly null.
func NewRecord(st constants.SourceType, sourcePath string) *UnifiedRecord {
	fields := make(map[string]*string, len(constants.FieldKeys(st)))
	for _, key := range constants.FieldKeys(st) {
		fields[key] = nil
	}
	return &UnifiedRecord{
		RecordID:   NewRecordID(st, sourcePath),
		SourceType: st,
		SourcePath: sourcePath,
		Fields:     fields,
	}
}

// SetField stores a non-empty value; empty strings stay explicit nulls.
func (r *UnifiedRecord) SetField(key, value string) {
	if value == "" {
		return
	}
	v := value
	r.Fields[key] = &v
}

// Field returns the value for key and whether it is non-null.
func (r *UnifiedRecord) Field(key string) (string, bool) {
	v, ok := r.Fields[key]
	if !ok || v == nil {
		return "", false
	}
	return *v, true
}

// Amount parses the canonical decimal stored under key.
func (r *UnifiedRecord) Amount(key string) (float64, bool) {
	raw, ok := r.Field(key)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Clone returns a deep copy. Stages hand each other fresh snapshots so no
// stage can mutate a record already consumed by a later one.
func (r *UnifiedRecord) Clone() *UnifiedRecord {
	out := *r
	out.Fields = make(map[string]*string, len(r.Fields))
	for k, v := range r.Fields {
		if v == nil {
			out.Fields[k] = nil
			continue
		}
		val := *v
		out.Fields[k] = &val
	}
	if r.Quality.Notes != nil {
		out.Quality.Notes = append([]string(nil), r.Quality.Notes...)
	}
	if r.Enrichment != nil {
		e := *r.Enrichment
		out.Enrichment = &e
	}
	if r.Review != nil {
		rv := *r.Review
		rv.EditedFields = append([]string(nil), r.Review.EditedFields...)
		out.Review = &rv
	}
	return &out
}

// CloneAll deep-copies a full record set.
func CloneAll(records []*UnifiedRecord) []*UnifiedRecord {
	out := make([]*UnifiedRecord, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
