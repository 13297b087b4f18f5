// Package ingest turns uploaded lease documents into plain text.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MaxDocumentBytes = 20 * 1024 * 1024
	maxTextRunes     = 200000
	minPrintableRun  = 24
)

var (
	ErrTooLarge = errors.New("document too large")
	ErrNoText   = errors.New("no extractable text found")
)

type Result struct {
	Text      string
	Method    string
	Truncated bool
}

// Extractor converts a document to text. PDFs go through pdftotext when it
// is installed and fall back to printable byte runs otherwise.
type Extractor struct {
	PdfToText string
}

func New() *Extractor {
	p := strings.TrimSpace(os.Getenv("PDFTOTEXT_PATH"))
	if p == "" {
		p = "pdftotext"
	}
	return &Extractor{PdfToText: p}
}

func IsPDF(blob []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(blob, " \t\r\n"), []byte("%PDF-"))
}

func (e *Extractor) Text(ctx context.Context, filename string, blob []byte) (Result, error) {
	if len(blob) > MaxDocumentBytes {
		return Result{}, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(blob))
	}
	if !IsPDF(blob) && !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		text := string(blob)
		if !utf8.ValidString(text) {
			text = strings.ToValidUTF8(text, " ")
		}
		if strings.TrimSpace(text) == "" {
			return Result{}, ErrNoText
		}
		return truncate(text, "plain"), nil
	}

	if text, err := e.runPdfToText(ctx, blob); err == nil && strings.TrimSpace(text) != "" {
		return truncate(text, "pdftotext"), nil
	}

	fallback := printableText(blob)
	if strings.TrimSpace(fallback) == "" {
		return Result{}, ErrNoText
	}
	return truncate(fallback, "byte-fallback"), nil
}

func (e *Extractor) runPdfToText(ctx context.Context, blob []byte) (string, error) {
	if e.PdfToText == "" {
		return "", errors.New("pdftotext disabled")
	}
	dir, err := os.MkdirTemp("", "lease-ingest-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "lease.pdf")
	if err := os.WriteFile(path, blob, 0o600); err != nil {
		return "", err
	}
	out, err := exec.CommandContext(ctx, e.PdfToText, "-layout", path, "-").Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func printableText(blob []byte) string {
	var runs []string
	var b strings.Builder
	flush := func() {
		s := strings.TrimSpace(b.String())
		if len(s) >= minPrintableRun {
			runs = append(runs, s)
		}
		b.Reset()
	}
	for _, c := range blob {
		r := rune(c)
		if c < utf8.RuneSelf && (unicode.IsPrint(r) || r == '\n' || r == '\t' || r == '\r') {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return strings.TrimSpace(strings.Join(runs, "\n"))
}

func truncate(text, method string) Result {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) <= maxTextRunes {
		return Result{Text: trimmed, Method: method}
	}
	return Result{Text: string([]rune(trimmed)[:maxTextRunes]), Method: method, Truncated: true}
}
