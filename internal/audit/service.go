// Package audit runs a lease through upload, analysis, payment and delivery.
package audit

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/joelkehle/lease-audit/internal/analysis"
	"github.com/joelkehle/lease-audit/internal/blobstore"
	"github.com/joelkehle/lease-audit/internal/ingest"
	"github.com/joelkehle/lease-audit/internal/recordstore"
	"github.com/joelkehle/lease-audit/internal/report"
)

const (
	StageDownload = "download"
	StageIngest   = "ingest"
	StageAnalyze  = "analyze"
	StageRender   = "render"
	StageUpload   = "upload"
	StagePersist  = "persist"
)

// TextExtractor turns an uploaded document into lease text.
type TextExtractor interface {
	Text(ctx context.Context, filename string, blob []byte) (ingest.Result, error)
}

type Options struct {
	Report report.Options
	URLTTL time.Duration
	Logger *zap.Logger
	Now    func() time.Time
	NewID  func() string
}

type Service struct {
	blobs   blobstore.Store
	records recordstore.Store
	text    TextExtractor
	opts    Options
	log     *zap.Logger
	tracer  trace.Tracer

	mu    sync.Mutex
	locks map[string]*auditLock
}

// auditLock is a per-audit mutex shared by the callers currently holding or
// waiting on it. The entry is dropped when the last one releases it.
type auditLock struct {
	mu   sync.Mutex
	refs int
}

func NewService(blobs blobstore.Store, records recordstore.Store, text TextExtractor, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.URLTTL <= 0 {
		opts.URLTTL = 15 * time.Minute
	}
	if opts.Report.Theme.PageWidth == 0 {
		opts.Report = report.DefaultOptions()
	}
	return &Service{
		blobs:   blobs,
		records: records,
		text:    text,
		opts:    opts,
		log:     opts.Logger,
		tracer:  otel.Tracer("github.com/joelkehle/lease-audit/internal/audit"),
		locks:   map[string]*auditLock{},
	}
}

// lock serializes state transitions for one audit.
func (s *Service) lock(auditID string) func() {
	s.mu.Lock()
	l, ok := s.locks[auditID]
	if !ok {
		l = &auditLock{}
		s.locks[auditID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(s.locks, auditID)
		}
		s.mu.Unlock()
	}
}

func (s *Service) Get(ctx context.Context, auditID string) (recordstore.Record, error) {
	rec, err := s.records.Get(ctx, auditID)
	if errors.Is(err, recordstore.ErrNotFound) {
		return recordstore.Record{}, newError(CodeNotFound, "audit not found: "+auditID, err)
	}
	if err != nil {
		return recordstore.Record{}, newError(CodeInternal, "load audit", err)
	}
	return rec, nil
}

// Submit stores the uploaded lease and creates an audit in the uploaded state.
func (s *Service) Submit(ctx context.Context, filename string, blob []byte) (recordstore.Record, error) {
	ctx, span := s.tracer.Start(ctx, "audit.submit")
	defer span.End()

	if len(blob) == 0 {
		return recordstore.Record{}, newError(CodeValidation, "lease document is empty", nil)
	}
	if len(blob) > ingest.MaxDocumentBytes {
		return recordstore.Record{}, newError(CodeValidation, "lease document is too large", ingest.ErrTooLarge)
	}
	id := s.opts.NewID()
	span.SetAttributes(attribute.String("audit.id", id))

	src := blobstore.UploadPath(id, filename)
	if err := s.blobs.Upload(ctx, src, blob, contentType(filename, blob)); err != nil {
		return recordstore.Record{}, s.fail(span, newError(CodeInternal, "store upload", &StageError{Stage: StageUpload, Err: err}))
	}
	now := s.opts.Now().UTC()
	rec := recordstore.Record{
		AuditID:    id,
		Status:     recordstore.StatusUploaded,
		Filename:   filename,
		SourcePath: src,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.records.Upsert(ctx, rec); err != nil {
		return recordstore.Record{}, s.fail(span, newError(CodeInternal, "save audit", &StageError{Stage: StagePersist, Err: err}))
	}
	s.log.Info("audit submitted", zap.String("audit_id", id), zap.String("filename", filename), zap.Int("bytes", len(blob)))
	return rec, nil
}

// Analyze extracts, scores and renders the report for an uploaded lease.
// Analyzing an audit that already has a report returns it unchanged. When a
// stage fails the audit is persisted as failed with the stage error.
func (s *Service) Analyze(ctx context.Context, auditID string) (recordstore.Record, error) {
	ctx, span := s.tracer.Start(ctx, "audit.analyze", trace.WithAttributes(attribute.String("audit.id", auditID)))
	defer span.End()

	if _, err := s.Get(ctx, auditID); err != nil {
		return recordstore.Record{}, s.fail(span, err)
	}
	unlock := s.lock(auditID)
	defer unlock()

	rec, err := s.Get(ctx, auditID)
	if err != nil {
		return recordstore.Record{}, s.fail(span, err)
	}
	if rec.Analysis != nil && rec.PDFPath != "" && rec.Status != recordstore.StatusFailed {
		return rec, nil
	}

	out, stageErr := s.run(ctx, rec)
	if stageErr != nil {
		failed := rec
		failed.Status = recordstore.StatusFailed
		failed.Error = stageErr.Error()
		failed.UpdatedAt = s.opts.Now().UTC()
		if err := s.records.Upsert(ctx, failed); err != nil {
			s.log.Error("failed to record audit failure", zap.String("audit_id", auditID), zap.Error(err))
			failed = rec
		}
		s.log.Warn("audit analysis failed", zap.String("audit_id", auditID), zap.String("stage", stageErr.Stage), zap.Error(stageErr.Err))
		code := CodeInternal
		if stageErr.Stage == StageIngest && (errors.Is(stageErr, ingest.ErrNoText) || errors.Is(stageErr, ingest.ErrTooLarge)) {
			code = CodeValidation
		}
		return failed, s.fail(span, newError(code, "analysis failed", stageErr))
	}

	next := rec
	next.Analysis = &out.result
	next.PDFPath = out.pdfPath
	next.Status = recordstore.StatusAnalyzed
	next.Error = ""
	next.UpdatedAt = s.opts.Now().UTC()
	if err := s.records.Upsert(ctx, next); err != nil {
		return rec, s.fail(span, newError(CodeInternal, "save audit", &StageError{Stage: StagePersist, Err: err}))
	}
	span.SetAttributes(
		attribute.String("audit.risk_level", string(out.result.RiskLevel)),
		attribute.Int("audit.health_score", out.result.Health.Score),
	)
	s.log.Info("audit analyzed",
		zap.String("audit_id", auditID),
		zap.Int("health_score", out.result.Health.Score),
		zap.String("risk_level", string(out.result.RiskLevel)),
		zap.Int("report_bytes", out.pdfBytes))
	return next, nil
}

// runOutcome is what a successful pipeline run produced.
type runOutcome struct {
	result   analysis.Result
	pdfPath  string
	pdfBytes int
}

// run downloads, extracts, analyzes, renders and stores the report for rec.
// It does not touch the record store.
func (s *Service) run(ctx context.Context, rec recordstore.Record) (runOutcome, *StageError) {
	var (
		blob []byte
		text ingest.Result
		pdf  []byte
		out  runOutcome
	)
	stages := []struct {
		name string
		fn   func(context.Context) error
	}{
		{StageDownload, func(ctx context.Context) (err error) {
			blob, err = s.blobs.Download(ctx, rec.SourcePath)
			return err
		}},
		{StageIngest, func(ctx context.Context) (err error) {
			text, err = s.text.Text(ctx, rec.Filename, blob)
			return err
		}},
		{StageAnalyze, func(context.Context) error {
			out.result = analysis.Analyze(text.Text)
			return nil
		}},
		{StageRender, func(context.Context) (err error) {
			opts := s.opts.Report
			opts.AuditID = rec.AuditID
			pdf, _, err = report.Render(out.result, opts)
			return err
		}},
		{StageUpload, func(ctx context.Context) error {
			out.pdfPath = blobstore.ReportPath(rec.AuditID)
			out.pdfBytes = len(pdf)
			return s.blobs.Upload(ctx, out.pdfPath, pdf, "application/pdf")
		}},
	}
	for _, st := range stages {
		if err := s.stage(ctx, st.name, st.fn); err != nil {
			return runOutcome{}, err
		}
	}
	return out, nil
}

func (s *Service) stage(ctx context.Context, name string, fn func(context.Context) error) *StageError {
	ctx, span := s.tracer.Start(ctx, "audit.stage."+name)
	defer span.End()
	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return &StageError{Stage: name, Err: err}
	}
	return nil
}

// MarkPaid is called by the checkout webhook once payment clears.
func (s *Service) MarkPaid(ctx context.Context, auditID string) (recordstore.Record, error) {
	ctx, span := s.tracer.Start(ctx, "audit.mark_paid", trace.WithAttributes(attribute.String("audit.id", auditID)))
	defer span.End()

	if _, err := s.Get(ctx, auditID); err != nil {
		return recordstore.Record{}, s.fail(span, err)
	}
	unlock := s.lock(auditID)
	defer unlock()

	rec, err := s.Get(ctx, auditID)
	if err != nil {
		return recordstore.Record{}, s.fail(span, err)
	}
	switch rec.Status {
	case recordstore.StatusPaid, recordstore.StatusDelivered:
		return rec, nil
	case recordstore.StatusAnalyzed:
	default:
		return rec, s.fail(span, newError(CodeConflict, "audit has not been analyzed: status "+string(rec.Status), nil))
	}
	next := rec
	next.Status = recordstore.StatusPaid
	next.UpdatedAt = s.opts.Now().UTC()
	if err := s.records.Upsert(ctx, next); err != nil {
		return rec, s.fail(span, newError(CodeInternal, "save audit", err))
	}
	s.log.Info("audit paid", zap.String("audit_id", auditID))
	return next, nil
}

// ReportURL returns a time-limited link to the rendered PDF.
func (s *Service) ReportURL(ctx context.Context, auditID string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "audit.report_url", trace.WithAttributes(attribute.String("audit.id", auditID)))
	defer span.End()

	rec, err := s.deliverable(ctx, auditID)
	if err != nil {
		return "", s.fail(span, err)
	}
	u, err := s.blobs.SignedURL(ctx, rec.PDFPath, s.opts.URLTTL)
	if err != nil {
		return "", s.fail(span, newError(CodeInternal, "sign report url", err))
	}
	if err := s.markDelivered(ctx, auditID); err != nil {
		return "", s.fail(span, err)
	}
	return u, nil
}

// ReportPDF returns the rendered PDF bytes.
func (s *Service) ReportPDF(ctx context.Context, auditID string) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "audit.report_pdf", trace.WithAttributes(attribute.String("audit.id", auditID)))
	defer span.End()

	rec, err := s.deliverable(ctx, auditID)
	if err != nil {
		return nil, s.fail(span, err)
	}
	pdf, err := s.blobs.Download(ctx, rec.PDFPath)
	if err != nil {
		return nil, s.fail(span, newError(CodeInternal, "load report", err))
	}
	if err := s.markDelivered(ctx, auditID); err != nil {
		return nil, s.fail(span, err)
	}
	return pdf, nil
}

// SummaryMarkdown returns the markdown summary of a paid audit.
func (s *Service) SummaryMarkdown(ctx context.Context, auditID string) (string, error) {
	rec, err := s.deliverable(ctx, auditID)
	if err != nil {
		return "", err
	}
	return analysis.BuildMarkdown(*rec.Analysis, rec.AuditID, rec.UpdatedAt), nil
}

func (s *Service) deliverable(ctx context.Context, auditID string) (recordstore.Record, error) {
	rec, err := s.Get(ctx, auditID)
	if err != nil {
		return recordstore.Record{}, err
	}
	switch rec.Status {
	case recordstore.StatusPaid, recordstore.StatusDelivered:
	case recordstore.StatusAnalyzed:
		return rec, newError(CodePaymentRequired, "payment required before the report is released", nil)
	default:
		return rec, newError(CodeConflict, "report not ready: status "+string(rec.Status), nil)
	}
	if rec.Analysis == nil || rec.PDFPath == "" {
		return rec, newError(CodeConflict, "report missing for audit", nil)
	}
	return rec, nil
}

func (s *Service) markDelivered(ctx context.Context, auditID string) error {
	unlock := s.lock(auditID)
	defer unlock()
	rec, err := s.Get(ctx, auditID)
	if err != nil {
		return err
	}
	if rec.Status == recordstore.StatusDelivered {
		return nil
	}
	rec.Status = recordstore.StatusDelivered
	rec.UpdatedAt = s.opts.Now().UTC()
	if err := s.records.Upsert(ctx, rec); err != nil {
		return newError(CodeInternal, "save audit", err)
	}
	s.log.Info("audit delivered", zap.String("audit_id", auditID))
	return nil
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func contentType(filename string, blob []byte) string {
	if ingest.IsPDF(blob) || strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return "application/pdf"
	}
	return "text/plain; charset=utf-8"
}
