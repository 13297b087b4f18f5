package blobstore

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// FSStore keeps blobs under a root directory. Signed URLs point at BaseURL
// and carry an HMAC over the key and expiry that Verify checks.
type FSStore struct {
	root    string
	baseURL string
	secret  []byte
	now     func() time.Time
}

func NewFSStore(root, baseURL string, secret []byte) (*FSStore, error) {
	if root == "" {
		return nil, fmt.Errorf("blob root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &FSStore{root: root, baseURL: baseURL, secret: secret, now: time.Now}, nil
}

func (s *FSStore) file(p string) (string, string, error) {
	key, err := cleanKey(p)
	if err != nil {
		return "", "", err
	}
	return key, filepath.Join(s.root, filepath.FromSlash(key)), nil
}

func (s *FSStore) Download(_ context.Context, p string) ([]byte, error) {
	_, full, err := s.file(p)
	if err != nil {
		return nil, err
	}
	blob, err := os.ReadFile(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	return blob, err
}

func (s *FSStore) Upload(_ context.Context, p string, data []byte, _ string) error {
	_, full, err := s.file(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, full)
}

func (s *FSStore) SignedURL(_ context.Context, p string, ttl time.Duration) (string, error) {
	key, full, err := s.file(p)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(full); errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	exp := s.now().Add(ttl).Unix()
	q := url.Values{}
	q.Set("expires", strconv.FormatInt(exp, 10))
	q.Set("sig", s.sign(key, exp))
	return s.baseURL + "/blobs/" + key + "?" + q.Encode(), nil
}

// Verify checks a signature produced by SignedURL.
func (s *FSStore) Verify(p, expires, sig string) error {
	key, err := cleanKey(p)
	if err != nil {
		return err
	}
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return fmt.Errorf("bad expiry: %w", err)
	}
	if s.now().Unix() > exp {
		return fmt.Errorf("signed url expired")
	}
	if !hmac.Equal([]byte(sig), []byte(s.sign(key, exp))) {
		return fmt.Errorf("bad signature")
	}
	return nil
}

func (s *FSStore) sign(key string, exp int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s\n%d", key, exp)
	return hex.EncodeToString(mac.Sum(nil))
}
