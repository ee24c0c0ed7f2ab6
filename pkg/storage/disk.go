// Package storage abstracts the file stores the service reads inventory
// exports from and writes reconciliation reports to.
//
// Two drivers are available:
//
//   - "local": local filesystem rooted at a directory
//
//   - "s3": S3-compatible object storage (AWS S3, MinIO, R2, Spaces)
//
//     m := storage.NewManager("local")
//     m.Register("local", storage.NewLocal(".", ""))
//     data, err := m.Default().Get(ctx, "csv/warehouse_counts.csv")
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotExist is returned (wrapped) when a path does not exist on a disk.
var ErrNotExist = errors.New("storage: file does not exist")

// Disk is the filesystem driver interface.
type Disk interface {
	// Put writes content to path, creating parent directories as needed.
	Put(ctx context.Context, path string, content []byte) error

	// Get returns the full content of the file at path.
	Get(ctx context.Context, path string) ([]byte, error)

	// Exists reports whether a file exists at path.
	Exists(ctx context.Context, path string) (bool, error)

	// LastModified returns the file's last-modified time.
	LastModified(ctx context.Context, path string) (time.Time, error)

	// Delete removes a file. Returns nil if the file did not exist.
	Delete(ctx context.Context, path string) error

	// URL returns the public URL for path, or "" when the disk has none.
	URL(path string) string
}
