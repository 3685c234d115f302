package objectstore

import (
	"context"
	"io"
)

// Store is the content-addressed object store holding blob bytes too
// large to inline in the structured store.
type Store interface {
	// Put streams an object to path. Size must be the exact byte count.
	// Writing to an existing path is a no-op for identical content
	// because paths are derived from content hashes.
	Put(ctx context.Context, path string, r io.Reader, size int64, contentType string) error

	// Get opens an object for reading. Returns ErrObjectNotFound if the
	// path does not exist. Caller must close the reader.
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Exists reports whether an object is present at path.
	Exists(ctx context.Context, path string) (bool, error)
}
