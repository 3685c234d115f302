package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/poiesic/sift/core"
	"github.com/poiesic/sift/objectstore"
	"github.com/poiesic/sift/storage"
)

// InlineThreshold is the largest blob stored directly in the structured
// store. Anything bigger goes to the object store.
const InlineThreshold = 600 * 1024

// Store deduplicates content by primary hash and places the bytes either
// inline in the structured store or in the object store.
type Store struct {
	db      storage.Store
	objects objectstore.Store
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewStore creates a content store over structured and object storage.
func NewStore(db storage.Store, objects objectstore.Store, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrStorageRequired
	}
	if objects == nil {
		return nil, ErrObjectStoreRequired
	}

	s := &Store{
		db:      db,
		objects: objects,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// ObjectPath returns the object-store path for a blob: the hash fans out
// under a two-character shard so listings stay manageable.
func ObjectPath(dataset, hash string) string {
	shard := "00"
	if len(hash) >= 2 {
		shard = hash[:2]
	}
	return fmt.Sprintf("%s/blobs/%s/%s", dataset, shard, hash)
}

// PutFile ingests the file at path: hashes it in one streaming pass,
// stores the bytes if the hash is new, and upserts the blob row. Returns
// the blob and whether it was net-new for the dataset.
func (s *Store) PutFile(ctx context.Context, dataset, path string) (*core.BlobRef, bool, error) {
	digest, err := core.HashFile(path)
	if err != nil {
		return nil, false, err
	}

	existing, err := s.db.GetBlob(ctx, dataset, digest.SHA3_256)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, false, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	ref, err := s.place(ctx, dataset, digest, f)
	if err != nil {
		return nil, false, err
	}
	return ref, true, nil
}

// PutReader ingests content from a stream, spooling to a temporary file
// so the bytes are read exactly once even though the hash must be known
// before they can be placed.
func (s *Store) PutReader(ctx context.Context, dataset string, r io.Reader) (*core.BlobRef, bool, error) {
	spool, err := os.CreateTemp("", "sift-spool-*")
	if err != nil {
		return nil, false, err
	}
	defer func() {
		spool.Close()
		os.Remove(spool.Name())
	}()

	hasher := core.NewMultiHasher()
	if _, err := io.Copy(spool, io.TeeReader(r, hasher)); err != nil {
		return nil, false, err
	}
	digest := hasher.Digest()

	existing, err := s.db.GetBlob(ctx, dataset, digest.SHA3_256)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, false, err
	}

	if _, err := spool.Seek(0, io.SeekStart); err != nil {
		return nil, false, err
	}
	ref, err := s.place(ctx, dataset, digest, spool)
	if err != nil {
		return nil, false, err
	}
	return ref, true, nil
}

// place stores the bytes for a new hash and writes the blob row.
func (s *Store) place(ctx context.Context, dataset string, digest core.Digest, r io.Reader) (*core.BlobRef, error) {
	ref := &core.BlobRef{
		Dataset:   dataset,
		Hash:      digest.SHA3_256,
		Size:      digest.Size,
		MD5:       digest.MD5,
		SHA1:      digest.SHA1,
		SHA256:    digest.SHA256,
		CreatedAt: time.Now().UTC(),
	}

	if digest.Size <= InlineThreshold {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		if int64(len(data)) != digest.Size {
			return nil, ErrSizeMismatch
		}
		if err := s.db.PutInlineValue(ctx, dataset, ref.Hash, data); err != nil {
			return nil, err
		}
		ref.Inline = true
	} else {
		ref.ObjectPath = ObjectPath(dataset, ref.Hash)
		if err := s.objects.Put(ctx, ref.ObjectPath, r, digest.Size, "application/octet-stream"); err != nil {
			return nil, err
		}
	}

	if _, err := s.db.PutBlobs(ctx, ref); err != nil {
		return nil, err
	}
	return ref, nil
}

// Open returns a reader over a blob's bytes, wherever they live.
func (s *Store) Open(ctx context.Context, dataset, hash string) (io.ReadCloser, error) {
	ref, err := s.db.GetBlob(ctx, dataset, hash)
	if err != nil {
		return nil, err
	}
	return s.OpenRef(ctx, ref)
}

// OpenRef returns a reader over a blob's bytes using an already-loaded
// blob row.
func (s *Store) OpenRef(ctx context.Context, ref *core.BlobRef) (io.ReadCloser, error) {
	if ref.Inline {
		data, err := s.db.GetInlineValue(ctx, ref.Dataset, ref.Hash)
		if err != nil {
			return nil, err
		}
		if int64(len(data)) != ref.Size {
			return nil, ErrSizeMismatch
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	return s.objects.Get(ctx, ref.ObjectPath)
}
