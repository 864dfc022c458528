// Package storage keeps document bytes in an S3-compatible object store. Objects
// are streamed in and out; nothing is staged on local disk.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound is returned by Get when no object exists under the key.
var ErrObjectNotFound = errors.New("object not found")

// PutObjectOptions describe an upload. Size is the exact byte count, or -1 when
// unknown and the backend has to chunk.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo is what the store reports about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is the object store behind document uploads and downloads.
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get streams the object. A missing key yields ErrObjectNotFound before any byte is read.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Stat reports the object without reading it, or ErrObjectNotFound.
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	// Delete removes the object; a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a credential-free download URL valid for expiry.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
