package vfs

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/poiesic/sift/content"
	"github.com/poiesic/sift/core"
	"github.com/poiesic/sift/storage"
)

const (
	// dirBatchSize is how many directory rows are written per batch.
	dirBatchSize = 10

	// fileBatchCount and fileBatchBytes bound one file batch. A single
	// file larger than the byte bound still forms a batch of one.
	fileBatchCount = 100
	fileBatchBytes = 50 * 1024 * 1024
)

// ScanResult summarizes one registration pass. NewBlobs drives the
// decision to re-plan: a pass that discovered no new content is a no-op.
type ScanResult struct {
	NewBlobs       int
	NewFiles       int
	NewDirectories int
	ScannedFiles   int
	ScannedBytes   int64
	Skipped        int
}

// Entry is one logical file to register from an in-memory source, such
// as an archive member or an email attachment.
type Entry struct {
	Path   string
	Reader io.Reader
}

// Registrar builds the logical file view: it walks sources, ingests
// bytes through the content store, and writes directory and file rows
// in bounded batches.
type Registrar struct {
	content *content.Store
	db      storage.Store
	logger  *slog.Logger
}

// Option configures a Registrar.
type Option func(*Registrar) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registrar) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRegistrar creates a Registrar.
func NewRegistrar(contentStore *content.Store, db storage.Store, opts ...Option) (*Registrar, error) {
	if contentStore == nil {
		return nil, ErrContentStoreRequired
	}
	if db == nil {
		return nil, ErrStorageRequired
	}

	r := &Registrar{
		content: contentStore,
		db:      db,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ScanRoot walks the dataset root and registers every regular file at
// the top level of the logical tree. Unreadable files are counted as
// skipped, not fatal: one bad file never aborts a scan.
func (r *Registrar) ScanRoot(ctx context.Context, ds *core.Dataset) (*ScanResult, error) {
	info, err := os.Stat(ds.Root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, ErrRootNotDirectory
	}

	result := &ScanResult{}
	var dirBatch []*core.VFSDirectory
	var fileBatch []*core.VFSFile
	var fileBatchSize int64

	flushDirs := func() error {
		if len(dirBatch) == 0 {
			return nil
		}
		created, err := r.db.PutDirectories(ctx, dirBatch...)
		if err != nil {
			return err
		}
		result.NewDirectories += created
		dirBatch = dirBatch[:0]
		return nil
	}
	flushFiles := func() error {
		if len(fileBatch) == 0 {
			return nil
		}
		created, err := r.db.PutFiles(ctx, fileBatch...)
		if err != nil {
			return err
		}
		result.NewFiles += created
		fileBatch = fileBatch[:0]
		fileBatchSize = 0
		return nil
	}

	err = filepath.WalkDir(ds.Root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			r.logger.Warn("skipping unreadable entry", "path", path, "error", walkErr)
			result.Skipped++
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(ds.Root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			dirBatch = append(dirBatch, &core.VFSDirectory{
				Dataset: ds.ID,
				Path:    rel,
				Owner:   ds.Owner,
			})
			if len(dirBatch) >= dirBatchSize {
				return flushDirs()
			}
			return nil
		}
		if !d.Type().IsRegular() {
			result.Skipped++
			return nil
		}

		ref, created, err := r.content.PutFile(ctx, ds.ID, path)
		if err != nil {
			r.logger.Warn("skipping unreadable file", "path", path, "error", err)
			result.Skipped++
			return nil
		}
		if created {
			result.NewBlobs++
		}
		result.ScannedFiles++
		result.ScannedBytes += ref.Size

		fileBatch = append(fileBatch, &core.VFSFile{
			Dataset: ds.ID,
			Path:    rel,
			Hash:    ref.Hash,
			Size:    ref.Size,
		})
		fileBatchSize += ref.Size
		if len(fileBatch) >= fileBatchCount || fileBatchSize >= fileBatchBytes {
			return flushFiles()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := flushDirs(); err != nil {
		return nil, err
	}
	if err := flushFiles(); err != nil {
		return nil, err
	}
	return result, nil
}

// RegisterEntries ingests extracted container children under the given
// container hash. Entries are read sequentially; each one becomes a
// blob plus a file row linked to the container.
func (r *Registrar) RegisterEntries(ctx context.Context, dataset, container string, entries []Entry) (*ScanResult, error) {
	result := &ScanResult{}
	var fileBatch []*core.VFSFile
	var fileBatchSize int64

	flush := func() error {
		if len(fileBatch) == 0 {
			return nil
		}
		created, err := r.db.PutFiles(ctx, fileBatch...)
		if err != nil {
			return err
		}
		result.NewFiles += created
		fileBatch = fileBatch[:0]
		fileBatchSize = 0
		return nil
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ref, created, err := r.content.PutReader(ctx, dataset, entry.Reader)
		if err != nil {
			r.logger.Warn("skipping unreadable entry", "container", container, "path", entry.Path, "error", err)
			result.Skipped++
			continue
		}
		if created {
			result.NewBlobs++
		}
		result.ScannedFiles++
		result.ScannedBytes += ref.Size

		fileBatch = append(fileBatch, &core.VFSFile{
			Dataset:   dataset,
			Container: container,
			Path:      entry.Path,
			Hash:      ref.Hash,
			Size:      ref.Size,
		})
		fileBatchSize += ref.Size
		if len(fileBatch) >= fileBatchCount || fileBatchSize >= fileBatchBytes {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return result, nil
}

// RegisterDirectories writes directory rows for a container subtree.
func (r *Registrar) RegisterDirectories(ctx context.Context, dataset, container, owner string, paths []string) (int, error) {
	created := 0
	for start := 0; start < len(paths); start += dirBatchSize {
		end := min(start+dirBatchSize, len(paths))
		batch := make([]*core.VFSDirectory, 0, end-start)
		for _, p := range paths[start:end] {
			batch = append(batch, &core.VFSDirectory{
				Dataset:   dataset,
				Container: container,
				Path:      p,
				Owner:     owner,
			})
		}
		n, err := r.db.PutDirectories(ctx, batch...)
		if err != nil {
			return created, err
		}
		created += n
	}
	return created, nil
}
