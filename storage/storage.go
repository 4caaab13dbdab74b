// Package storage persists uploaded contract files. The core only needs
// "given bytes and a destination name, persist them durably and return a
// stable path"; the backend behind that contract is configurable.
package storage

import (
	"context"
	"io"
)

// Store is the file storage contract consumed by the upload path.
type Store interface {
	// Save persists the reader's bytes under objectName and returns the
	// stable path the file can later be read from.
	Save(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error)
	// Open returns a reader over a previously saved object.
	Open(ctx context.Context, objectName string) (io.ReadCloser, error)
	// Delete removes a previously saved object.
	Delete(ctx context.Context, objectName string) error
}
