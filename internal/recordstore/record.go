package recordstore

import (
	"context"
	"errors"
	"time"

	"github.com/joelkehle/lease-audit/internal/analysis"
)

type Status string

const (
	StatusUploaded  Status = "uploaded"
	StatusAnalyzed  Status = "analyzed"
	StatusPaid      Status = "paid"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
)

var ErrNotFound = errors.New("record not found")

// Record is the persisted state of one audit. Analysis is nil until the lease
// has been analyzed.
type Record struct {
	AuditID    string           `json:"audit_id"`
	Status     Status           `json:"status"`
	Filename   string           `json:"filename,omitempty"`
	SourcePath string           `json:"source_path,omitempty"`
	PDFPath    string           `json:"pdf_path,omitempty"`
	Analysis   *analysis.Result `json:"analysis,omitempty"`
	Error      string           `json:"error,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// Store is a keyed record store. Upsert replaces the whole record.
type Store interface {
	Get(ctx context.Context, auditID string) (Record, error)
	Upsert(ctx context.Context, rec Record) error
	Close() error
}
