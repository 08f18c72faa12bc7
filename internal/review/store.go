// Package review implements the human-in-the-loop collaborator: it
// snapshots pipeline runs and records reviewer activity as an append-only
// edit log keyed by record id. The original ingestion snapshot is never
// mutated; loading a record replays its edits over a copy.
package review

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mkaravas/intake/constants"
	"github.com/mkaravas/intake/internal/common"
	"github.com/mkaravas/intake/internal/entity"
	"github.com/mkaravas/intake/internal/template"
)

// Store wraps a SQLite database holding run snapshots, edits, and
// approvals.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the review database in dataDir and applies the
// schema. Pass ":memory:" as dataDir for an in-memory database (used by
// tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "review.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Single connection avoids "database is locked" under concurrent edits;
	// review traffic is serialized per record anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.bootstrap(); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) bootstrap() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS runs (
	run_id     TEXT PRIMARY KEY,
	root       TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS records (
	run_id    TEXT NOT NULL REFERENCES runs(run_id),
	record_id TEXT NOT NULL,
	position  INTEGER NOT NULL,
	payload   TEXT NOT NULL,
	PRIMARY KEY (run_id, record_id)
);
CREATE TABLE IF NOT EXISTS edits (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	record_id TEXT NOT NULL,
	field     TEXT NOT NULL,
	value     TEXT,
	edited_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_edits_record ON edits(record_id);
CREATE TABLE IF NOT EXISTS approvals (
	record_id  TEXT PRIMARY KEY,
	status     TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);`)
	return err
}

// SaveRun stores an immutable snapshot of one pipeline run.
func (s *Store) SaveRun(ctx context.Context, runID, root string, records []*entity.UnifiedRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO runs (run_id, root) VALUES (?, ?)`, runID, root); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for i, rec := range records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal record %s: %w", rec.RecordID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO records (run_id, record_id, position, payload) VALUES (?, ?, ?, ?)`,
			runID, rec.RecordID, i, string(payload)); err != nil {
			return fmt.Errorf("insert record %s: %w", rec.RecordID, err)
		}
	}
	return tx.Commit()
}

// Load returns the run's records with the review block populated and all
// recorded edits replayed over copies of the stored snapshots.
func (s *Store) Load(ctx context.Context, runID string) ([]*entity.UnifiedRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM records WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []*entity.UnifiedRecord
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		var rec entity.UnifiedRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	for _, rec := range records {
		if err := s.applyReviewState(ctx, rec); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// applyReviewState replays edits and approval onto one record copy.
func (s *Store) applyReviewState(ctx context.Context, rec *entity.UnifiedRecord) error {
	review := &entity.Review{Approval: constants.ApprovalPending}

	rows, err := s.db.QueryContext(ctx,
		`SELECT field, value, edited_at FROM edits WHERE record_id = ? ORDER BY id`, rec.RecordID)
	if err != nil {
		return fmt.Errorf("query edits: %w", err)
	}
	defer rows.Close()

	edited := map[string]bool{}
	for rows.Next() {
		var field string
		var value sql.NullString
		var editedAt time.Time
		if err := rows.Scan(&field, &value, &editedAt); err != nil {
			return fmt.Errorf("scan edit: %w", err)
		}
		if _, ok := rec.Fields[field]; !ok {
			continue // field from another source type; id collision is not possible, but be safe
		}
		if value.Valid {
			v := value.String
			rec.Fields[field] = &v
		} else {
			rec.Fields[field] = nil
		}
		edited[field] = true
		review.Edited = true
		review.EditedAt = editedAt.UTC()
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate edits: %w", err)
	}
	for field := range edited {
		review.EditedFields = append(review.EditedFields, field)
	}
	sort.Strings(review.EditedFields)

	var status string
	err = s.db.QueryRowContext(ctx,
		`SELECT status FROM approvals WHERE record_id = ?`, rec.RecordID).Scan(&status)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("query approval: %w", err)
	default:
		review.Approval = constants.ApprovalStatus(status)
	}

	rec.Review = review
	return nil
}

// ApplyEdit appends one field edit and returns the record with all edits
// replayed. Last applied edit wins; attribution is by timestamp.
func (s *Store) ApplyEdit(ctx context.Context, recordID, field, value string) (*entity.UnifiedRecord, error) {
	rec, err := s.latestSnapshot(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if _, ok := rec.Fields[field]; !ok {
		return nil, fmt.Errorf("field %q not valid for %s record: %w", field, rec.SourceType, common.ErrInvalidInput)
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO edits (record_id, field, value, edited_at) VALUES (?, ?, ?, ?)`,
		recordID, field, value, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("insert edit: %w", err)
	}

	if err := s.applyReviewState(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// SetApproval records the review decision for a record. Approval is a
// last-write-wins cell, not a log: the latest decision is the decision.
func (s *Store) SetApproval(ctx context.Context, recordID string, status constants.ApprovalStatus) (*entity.UnifiedRecord, error) {
	switch status {
	case constants.ApprovalPending, constants.ApprovalApproved, constants.ApprovalRejected:
	default:
		return nil, fmt.Errorf("approval status %q: %w", status, common.ErrInvalidInput)
	}

	rec, err := s.latestSnapshot(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO approvals (record_id, status, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(record_id) DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at`,
		recordID, string(status), time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("upsert approval: %w", err)
	}

	if err := s.applyReviewState(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// ExportRows maps a run's reviewed records to template rows, optionally
// keeping only approved ones.
func (s *Store) ExportRows(ctx context.Context, runID string, approvedOnly bool) ([]template.Row, error) {
	records, err := s.Load(ctx, runID)
	if err != nil {
		return nil, err
	}
	var rows []template.Row
	for _, rec := range records {
		if approvedOnly && (rec.Review == nil || rec.Review.Approval != constants.ApprovalApproved) {
			continue
		}
		rows = append(rows, template.MapRecord(rec))
	}
	return rows, nil
}

// latestSnapshot finds the most recent run containing recordID and returns
// a copy of the stored record.
func (s *Store) latestSnapshot(ctx context.Context, recordID string) (*entity.UnifiedRecord, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT r.payload FROM records r
		 JOIN runs ON runs.run_id = r.run_id
		 WHERE r.record_id = ?
		 ORDER BY runs.created_at DESC LIMIT 1`, recordID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %s: %w", recordID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query record: %w", err)
	}
	var rec entity.UnifiedRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return &rec, nil
}
