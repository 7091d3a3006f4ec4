// internal/app/system/artifacts/artifacts.go
//
// Package artifacts stores generated files (invoices) by slash-separated key
// on the local filesystem or in S3.
package artifacts

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrNotFound is returned by Open when no artifact exists at the key.
var ErrNotFound = errors.New("artifact not found")

// ErrInvalidKey is returned for empty keys or keys that escape the store root.
var ErrInvalidKey = errors.New("invalid artifact key")

// PutOptions carries metadata for Put.
type PutOptions struct {
	ContentType string
}

// Store persists artifacts. Implementations are safe for concurrent use.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts *PutOptions) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// ReadAll opens key and reads it fully.
func ReadAll(ctx context.Context, s Store, key string) ([]byte, error) {
	rc, err := s.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// cleanKey normalizes key and rejects anything that is not a relative path
// inside the store.
func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	if key == "" || strings.HasPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}
