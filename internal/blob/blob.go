// Package blob stores attachment bytes on the local filesystem or in an
// S3-compatible bucket.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Get for unknown keys.
var ErrNotFound = errors.New("blob not found")

// Info describes a stored object.
type Info struct {
	Key         string
	Size        int64
	ContentType string
}

// Store is the attachment storage backend.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Drivers.
const (
	DriverFS = "fs"
	DriverS3 = "s3"
)

// Options selects and configures a backend.
type Options struct {
	Driver string
	Dir    string
	S3     S3Config
}

// Open returns the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "", DriverFS:
		return NewFS(opts.Dir)
	case DriverS3:
		return NewS3(ctx, opts.S3)
	default:
		return nil, fmt.Errorf("unknown blob driver %q", opts.Driver)
	}
}

// NewKey returns a fresh object key under prefix, keeping ext.
func NewKey(prefix, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return path.Join(prefix, uuid.NewString()+ext)
}

func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("empty key")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}
