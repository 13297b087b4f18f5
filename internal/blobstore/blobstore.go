package blobstore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

var (
	ErrNotFound    = errors.New("blob not found")
	ErrInvalidPath = errors.New("invalid blob path")
)

// Store holds uploaded leases and rendered reports.
type Store interface {
	Download(ctx context.Context, p string) ([]byte, error)
	Upload(ctx context.Context, p string, data []byte, contentType string) error
	SignedURL(ctx context.Context, p string, ttl time.Duration) (string, error)
}

// UploadPath is where an audit's source document is kept.
func UploadPath(auditID, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "lease.txt"
	}
	return path.Join("uploads", auditID, name)
}

// ReportPath is where an audit's rendered PDF is kept.
func ReportPath(auditID string) string {
	return path.Join("reports", auditID+".pdf")
}

// cleanKey rejects absolute and escaping paths and returns the canonical key.
func cleanKey(p string) (string, error) {
	if p == "" || strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return clean, nil
}
