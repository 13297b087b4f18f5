package audit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/joelkehle/lease-audit/internal/blobstore"
	"github.com/joelkehle/lease-audit/internal/ingest"
	"github.com/joelkehle/lease-audit/internal/lease"
	"github.com/joelkehle/lease-audit/internal/recordstore"
)

const sampleLease = `COMMERCIAL LEASE AGREEMENT
Tenant: Blue Finch Coffee LLC
Landlord: Harbor Point Properties LLC
Base Rent: $5,000 per month. Rent shall increase annually by 3%.
Term of 36 months.
Tenant shall pay CAM charges of $2,000 per month. CAM charges are uncapped.`

type fixture struct {
	svc     *Service
	blobs   *blobstore.FSStore
	records *recordstore.MemoryStore
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	blobs, err := blobstore.NewFSStore(t.TempDir(), "http://localhost:8080", []byte("test-secret"))
	require.NoError(t, err)
	records := recordstore.NewMemoryStore()
	n := 0
	svc := NewService(blobs, records, ingest.New(), Options{
		Logger: zaptest.NewLogger(t),
		Now:    func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
		NewID: func() string {
			n++
			return fmt.Sprintf("audit-%d", n)
		},
	})
	return fixture{svc: svc, blobs: blobs, records: records}
}

func TestLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	rec, err := f.svc.Submit(ctx, "lease.txt", []byte(sampleLease))
	require.NoError(t, err)
	assert.Equal(t, "audit-1", rec.AuditID)
	assert.Equal(t, recordstore.StatusUploaded, rec.Status)
	assert.Equal(t, "uploads/audit-1/lease.txt", rec.SourcePath)

	rec, err = f.svc.Analyze(ctx, rec.AuditID)
	require.NoError(t, err)
	assert.Equal(t, recordstore.StatusAnalyzed, rec.Status)
	assert.Equal(t, "reports/audit-1.pdf", rec.PDFPath)
	require.NotNil(t, rec.Analysis)
	require.NotNil(t, rec.Analysis.Tenant)
	assert.Equal(t, "Blue Finch Coffee LLC", *rec.Analysis.Tenant)
	assert.Equal(t, 65, rec.Analysis.Health.Score)
	assert.Equal(t, lease.RiskMedium, rec.Analysis.RiskLevel)
	assert.Len(t, rec.Analysis.RentSchedule, 3)

	_, err = f.svc.ReportURL(ctx, rec.AuditID)
	require.Error(t, err)
	assert.Equal(t, CodePaymentRequired, CodeOf(err))
	_, err = f.svc.ReportPDF(ctx, rec.AuditID)
	assert.Equal(t, CodePaymentRequired, CodeOf(err))

	rec, err = f.svc.MarkPaid(ctx, rec.AuditID)
	require.NoError(t, err)
	assert.Equal(t, recordstore.StatusPaid, rec.Status)

	u, err := f.svc.ReportURL(ctx, rec.AuditID)
	require.NoError(t, err)
	assert.Contains(t, u, "/blobs/reports/audit-1.pdf?")

	pdf, err := f.svc.ReportPDF(ctx, rec.AuditID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))

	md, err := f.svc.SummaryMarkdown(ctx, rec.AuditID)
	require.NoError(t, err)
	assert.Contains(t, md, "Blue Finch Coffee LLC")

	got, err := f.svc.Get(ctx, rec.AuditID)
	require.NoError(t, err)
	assert.Equal(t, recordstore.StatusDelivered, got.Status)

	again, err := f.svc.MarkPaid(ctx, rec.AuditID)
	require.NoError(t, err)
	assert.Equal(t, recordstore.StatusDelivered, again.Status, "paying twice does not regress status")
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rec, err := f.svc.Submit(ctx, "lease.txt", []byte(sampleLease))
	require.NoError(t, err)
	first, err := f.svc.Analyze(ctx, rec.AuditID)
	require.NoError(t, err)
	pdf1, err := f.blobs.Download(ctx, first.PDFPath)
	require.NoError(t, err)

	second, err := f.svc.Analyze(ctx, rec.AuditID)
	require.NoError(t, err)
	pdf2, err := f.blobs.Download(ctx, second.PDFPath)
	require.NoError(t, err)
	assert.Equal(t, pdf1, pdf2)
	assert.Equal(t, first.Analysis.Health, second.Analysis.Health)
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Submit(context.Background(), "lease.txt", nil)
	require.Error(t, err)
	assert.Equal(t, CodeValidation, CodeOf(err))

	var ae *Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, http.StatusBadRequest, ae.Status())
}

func TestAnalyzeWithoutTextFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rec, err := f.svc.Submit(ctx, "scan.txt", []byte("   \n\t "))
	require.NoError(t, err)

	_, err = f.svc.Analyze(ctx, rec.AuditID)
	require.Error(t, err)
	assert.Equal(t, CodeValidation, CodeOf(err))
	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageIngest, se.Stage)
	assert.ErrorIs(t, err, ingest.ErrNoText)

	got, err := f.svc.Get(ctx, rec.AuditID)
	require.NoError(t, err)
	assert.Equal(t, recordstore.StatusFailed, got.Status)
	assert.True(t, strings.HasPrefix(got.Error, "ingest:"), got.Error)
}

func TestAnalyzeLeaseWithoutCam(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rec, err := f.svc.Submit(ctx, "lease.txt", []byte("Tenant: Acme LLC. Base Rent: $4,000 per month. Term of 24 months."))
	require.NoError(t, err)
	rec, err = f.svc.Analyze(ctx, rec.AuditID)
	require.NoError(t, err)
	assert.Equal(t, lease.HealthInsufficientData, rec.Analysis.Health.Status)
	assert.Equal(t, 100, rec.Analysis.Health.Score)
}

func TestMarkPaidBeforeAnalysis(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rec, err := f.svc.Submit(ctx, "lease.txt", []byte(sampleLease))
	require.NoError(t, err)
	_, err = f.svc.MarkPaid(ctx, rec.AuditID)
	assert.Equal(t, CodeConflict, CodeOf(err))
	_, err = f.svc.ReportURL(ctx, rec.AuditID)
	assert.Equal(t, CodeConflict, CodeOf(err))
}

func TestUnknownAudit(t *testing.T) {
	f := newFixture(t)
	for name, call := range map[string]func() error{
		"get":     func() error { _, err := f.svc.Get(context.Background(), "nope"); return err },
		"analyze": func() error { _, err := f.svc.Analyze(context.Background(), "nope"); return err },
		"paid":    func() error { _, err := f.svc.MarkPaid(context.Background(), "nope"); return err },
		"report":  func() error { _, err := f.svc.ReportURL(context.Background(), "nope"); return err },
	} {
		err := call()
		assert.Equal(t, CodeNotFound, CodeOf(err), name)
		assert.ErrorIs(t, err, recordstore.ErrNotFound, name)
	}
}

func TestConcurrentAnalyze(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rec, err := f.svc.Submit(ctx, "lease.txt", []byte(sampleLease))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Analyze(ctx, rec.AuditID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	got, err := f.svc.Get(ctx, rec.AuditID)
	require.NoError(t, err)
	assert.Equal(t, recordstore.StatusAnalyzed, got.Status)
}

func TestLocksArePruned(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Analyze(ctx, "unknown-audit")
	assert.Equal(t, CodeNotFound, CodeOf(err))
	_, err = f.svc.MarkPaid(ctx, "unknown-audit")
	assert.Equal(t, CodeNotFound, CodeOf(err))
	assert.Empty(t, f.svc.locks, "lookups of unknown audits leave no lock entries")

	rec, err := f.svc.Submit(ctx, "lease.txt", []byte(sampleLease))
	require.NoError(t, err)
	_, err = f.svc.Analyze(ctx, rec.AuditID)
	require.NoError(t, err)
	_, err = f.svc.MarkPaid(ctx, rec.AuditID)
	require.NoError(t, err)
	_, err = f.svc.ReportPDF(ctx, rec.AuditID)
	require.NoError(t, err)
	assert.Empty(t, f.svc.locks)
}

// reportUploadFails stores uploads but refuses report writes.
type reportUploadFails struct {
	blobstore.Store
}

func (r reportUploadFails) Upload(ctx context.Context, p string, data []byte, contentType string) error {
	if strings.HasPrefix(p, "reports/") {
		return errors.New("bucket unavailable")
	}
	return r.Store.Upload(ctx, p, data, contentType)
}

func TestAnalyzeReportUploadFailureMarksAuditFailed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewService(reportUploadFails{Store: f.blobs}, f.records, ingest.New(), Options{Logger: zaptest.NewLogger(t)})

	rec, err := svc.Submit(ctx, "lease.txt", []byte(sampleLease))
	require.NoError(t, err)

	got, err := svc.Analyze(ctx, rec.AuditID)
	require.Error(t, err)
	assert.Equal(t, CodeInternal, CodeOf(err))
	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageUpload, se.Stage)

	assert.Equal(t, recordstore.StatusFailed, got.Status)
	assert.Nil(t, got.Analysis, "returned record carries no unsaved analysis")
	assert.Empty(t, got.PDFPath)

	stored, err := svc.Get(ctx, rec.AuditID)
	require.NoError(t, err)
	assert.Equal(t, got, stored, "returned record matches what was persisted")
	assert.True(t, strings.HasPrefix(stored.Error, "upload:"), stored.Error)
}
