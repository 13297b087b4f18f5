package recordstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/joelkehle/lease-audit/internal/analysis"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS audits (
	audit_id    TEXT PRIMARY KEY,
	status      TEXT NOT NULL,
	filename    TEXT NOT NULL DEFAULT '',
	source_path TEXT NOT NULL DEFAULT '',
	pdf_path    TEXT NOT NULL DEFAULT '',
	analysis    TEXT,
	error       TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
`

const upsertAudit = `
INSERT INTO audits (audit_id, status, filename, source_path, pdf_path, analysis, error, created_at, updated_at)
VALUES (:audit_id, :status, :filename, :source_path, :pdf_path, :analysis, :error, :created_at, :updated_at)
ON CONFLICT(audit_id) DO UPDATE SET
	status = excluded.status,
	filename = excluded.filename,
	source_path = excluded.source_path,
	pdf_path = excluded.pdf_path,
	analysis = excluded.analysis,
	error = excluded.error,
	updated_at = excluded.updated_at
`

type auditRow struct {
	AuditID    string         `db:"audit_id"`
	Status     string         `db:"status"`
	Filename   string         `db:"filename"`
	SourcePath string         `db:"source_path"`
	PDFPath    string         `db:"pdf_path"`
	Analysis   sql.NullString `db:"analysis"`
	Error      string         `db:"error"`
	CreatedAt  string         `db:"created_at"`
	UpdatedAt  string         `db:"updated_at"`
}

// SQLiteStore persists records to a single SQLite table.
type SQLiteStore struct {
	db *sqlx.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, auditID string) (Record, error) {
	var row auditRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM audits WHERE audit_id = ?", auditID)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, auditID)
	}
	if err != nil {
		return Record{}, fmt.Errorf("get audit: %w", err)
	}
	return row.record()
}

func (s *SQLiteStore) Upsert(ctx context.Context, rec Record) error {
	if rec.AuditID == "" {
		return fmt.Errorf("audit_id is required")
	}
	row, err := rowFor(rec)
	if err != nil {
		return err
	}
	if _, err := s.db.NamedExecContext(ctx, upsertAudit, row); err != nil {
		return fmt.Errorf("upsert audit: %w", err)
	}
	return nil
}

func rowFor(rec Record) (auditRow, error) {
	row := auditRow{
		AuditID:    rec.AuditID,
		Status:     string(rec.Status),
		Filename:   rec.Filename,
		SourcePath: rec.SourcePath,
		PDFPath:    rec.PDFPath,
		Error:      rec.Error,
		CreatedAt:  rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:  rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if rec.Analysis != nil {
		blob, err := json.Marshal(rec.Analysis)
		if err != nil {
			return auditRow{}, fmt.Errorf("marshal analysis: %w", err)
		}
		row.Analysis = sql.NullString{String: string(blob), Valid: true}
	}
	return row, nil
}

func (r auditRow) record() (Record, error) {
	rec := Record{
		AuditID:    r.AuditID,
		Status:     Status(r.Status),
		Filename:   r.Filename,
		SourcePath: r.SourcePath,
		PDFPath:    r.PDFPath,
		Error:      r.Error,
	}
	var err error
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, r.CreatedAt); err != nil {
		return Record{}, fmt.Errorf("parse created_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, r.UpdatedAt); err != nil {
		return Record{}, fmt.Errorf("parse updated_at: %w", err)
	}
	if r.Analysis.Valid {
		var a analysis.Result
		if err := json.Unmarshal([]byte(r.Analysis.String), &a); err != nil {
			return Record{}, fmt.Errorf("unmarshal analysis: %w", err)
		}
		rec.Analysis = &a
	}
	return rec, nil
}
