package httpapi

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/joelkehle/lease-audit/internal/audit"
	"github.com/joelkehle/lease-audit/internal/recordstore"
	"github.com/joelkehle/lease-audit/internal/summary"
)

// Service is the audit lifecycle the API exposes.
type Service interface {
	Submit(ctx context.Context, filename string, blob []byte) (recordstore.Record, error)
	Get(ctx context.Context, auditID string) (recordstore.Record, error)
	Analyze(ctx context.Context, auditID string) (recordstore.Record, error)
	MarkPaid(ctx context.Context, auditID string) (recordstore.Record, error)
	ReportURL(ctx context.Context, auditID string) (string, error)
	ReportPDF(ctx context.Context, auditID string) ([]byte, error)
	SummaryMarkdown(ctx context.Context, auditID string) (string, error)
}

type SummaryPDFRenderer interface {
	Render(ctx context.Context, htmlDoc string) ([]byte, error)
}

// SignedBlobs serves blobs behind signed URLs for the filesystem backend.
type SignedBlobs interface {
	Verify(p, expires, sig string) error
	Download(ctx context.Context, p string) ([]byte, error)
}

type Options struct {
	MaxUploadBytes int64
	// WebhookSecret keys the X-Checkout-Signature HMAC on payment
	// notifications. With no secret every notification is refused.
	WebhookSecret string
	Blobs         SignedBlobs
	SummaryPDF    SummaryPDFRenderer
	Logger        *zap.Logger
}

type Server struct {
	svc  Service
	opts Options
	log  *zap.Logger
}

func NewServer(svc Service, opts Options) http.Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 20 << 20
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	s := &Server{svc: svc, opts: opts, log: opts.Logger}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /audits", s.handleSubmit)
	mux.HandleFunc("GET /audits/{id}", s.handleGet)
	mux.HandleFunc("POST /audits/{id}/analyze", s.handleAnalyze)
	mux.HandleFunc("POST /audits/{id}/paid", s.handlePaid)
	mux.HandleFunc("GET /audits/{id}/report", s.handleReportURL)
	mux.HandleFunc("GET /audits/{id}/report.pdf", s.handleReportPDF)
	mux.HandleFunc("GET /audits/{id}/summary", s.handleSummary)
	mux.HandleFunc("GET /audits/{id}/summary.pdf", s.handleSummaryPDF)
	mux.HandleFunc("GET /blobs/", s.handleBlob)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return s.logRequests(mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"ok": false,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}

func writeAuditError(w http.ResponseWriter, err error) {
	var ae *audit.Error
	if errors.As(err, &ae) {
		writeError(w, ae.Status(), ae.Code, ae.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, audit.CodeInternal, err.Error())
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	filename, blob, err := readUpload(r)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, audit.CodeValidation, "upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, audit.CodeValidation, err.Error())
		return
	}
	rec, err := s.svc.Submit(r.Context(), filename, blob)
	if err != nil {
		writeAuditError(w, err)
		return
	}
	if r.URL.Query().Get("analyze") == "true" {
		if rec, err = s.svc.Analyze(r.Context(), rec.AuditID); err != nil {
			writeAuditError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "audit": rec})
}

// readUpload accepts a multipart "file" field or a raw request body named by
// the filename query parameter.
func readUpload(r *http.Request) (string, []byte, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", nil, errors.New("multipart field \"file\" is required")
		}
		defer file.Close()
		blob, err := io.ReadAll(file)
		if err != nil {
			return "", nil, err
		}
		return path.Base(header.Filename), blob, nil
	}
	blob, err := io.ReadAll(r.Body)
	if err != nil {
		return "", nil, err
	}
	name := strings.TrimSpace(r.URL.Query().Get("filename"))
	if name == "" {
		name = "lease.txt"
		if strings.HasPrefix(r.Header.Get("Content-Type"), "application/pdf") {
			name = "lease.pdf"
		}
	}
	return name, blob, nil
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeAuditError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "audit": rec})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.Analyze(r.Context(), r.PathValue("id"))
	if err != nil {
		writeAuditError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "audit": rec})
}

// maxWebhookBytes bounds a payment notification body.
const maxWebhookBytes = 64 << 10

func (s *Server) handlePaid(w http.ResponseWriter, r *http.Request) {
	blob, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, audit.CodeValidation, "webhook body too large")
			return
		}
		writeError(w, http.StatusBadRequest, audit.CodeValidation, "unreadable body")
		return
	}
	if err := s.verifySignature(r.Header.Get("X-Checkout-Signature"), blob); err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
		return
	}
	rec, err := s.svc.MarkPaid(r.Context(), r.PathValue("id"))
	if err != nil {
		writeAuditError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "audit": rec})
}

func (s *Server) verifySignature(signature string, payload []byte) error {
	if s.opts.WebhookSecret == "" {
		return errors.New("payment webhooks are not configured")
	}
	sig := strings.TrimSpace(signature)
	if sig == "" {
		return errors.New("X-Checkout-Signature required")
	}
	if strings.HasPrefix(strings.ToLower(sig), "sha256=") {
		sig = sig[len("sha256="):]
	}
	provided, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return errors.New("invalid signature encoding")
	}
	mac := hmac.New(sha256.New, []byte(s.opts.WebhookSecret))
	_, _ = mac.Write(payload)
	if !hmac.Equal(mac.Sum(nil), provided) {
		return errors.New("invalid signature")
	}
	return nil
}

func (s *Server) handleReportURL(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.ReportURL(r.Context(), r.PathValue("id"))
	if err != nil {
		writeAuditError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "url": u})
}

func (s *Server) handleReportPDF(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	pdf, err := s.svc.ReportPDF(r.Context(), id)
	if err != nil {
		writeAuditError(w, err)
		return
	}
	writePDF(w, "lease-audit-"+id+".pdf", pdf)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	doc, err := s.summaryHTML(r)
	if err != nil {
		writeAuditError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, doc)
}

func (s *Server) handleSummaryPDF(w http.ResponseWriter, r *http.Request) {
	if s.opts.SummaryPDF == nil {
		writeError(w, http.StatusNotImplemented, "unavailable", "summary pdf rendering is not configured")
		return
	}
	doc, err := s.summaryHTML(r)
	if err != nil {
		writeAuditError(w, err)
		return
	}
	pdf, err := s.opts.SummaryPDF.Render(r.Context(), doc)
	if err != nil {
		s.log.Error("summary pdf render failed", zap.String("audit_id", r.PathValue("id")), zap.Error(err))
		writeError(w, http.StatusInternalServerError, audit.CodeInternal, "failed to render summary pdf")
		return
	}
	writePDF(w, "lease-audit-"+r.PathValue("id")+"-summary.pdf", pdf)
}

func (s *Server) summaryHTML(r *http.Request) (string, error) {
	id := r.PathValue("id")
	md, err := s.svc.SummaryMarkdown(r.Context(), id)
	if err != nil {
		return "", err
	}
	return summary.HTML("Lease Audit "+id, md)
}

func (s *Server) handleBlob(w http.ResponseWriter, r *http.Request) {
	if s.opts.Blobs == nil {
		http.NotFound(w, r)
		return
	}
	key := strings.TrimPrefix(r.URL.Path, "/blobs/")
	q := r.URL.Query()
	if err := s.opts.Blobs.Verify(key, q.Get("expires"), q.Get("sig")); err != nil {
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
		return
	}
	blob, err := s.opts.Blobs.Download(r.Context(), key)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if strings.HasSuffix(key, ".pdf") {
		writePDF(w, path.Base(key), blob)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(blob)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func writePDF(w http.ResponseWriter, filename string, pdf []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+filename+`"`)
	_, _ = w.Write(pdf)
}
