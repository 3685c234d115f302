package extract

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/poiesic/sift/core"
	"github.com/poiesic/sift/storage"
)

// maxContainerDepth bounds recursive container expansion. A zip of
// zips deeper than this is recorded as an error instead of expanded.
const maxContainerDepth = 16

// Item is one blob queued for extraction: its detected type, the
// staged local copy of its bytes, and its container nesting depth.
// Extractors read from the staged copy so the bytes are fetched from
// the object store once per plan execution, not once per extractor.
type Item struct {
	Ref   *core.BlobRef
	Type  *DetectedType
	Path  string
	Depth int
}

// Open returns a reader over the staged copy.
func (i *Item) Open() (io.ReadCloser, error) {
	return os.Open(i.Path)
}

// Extractor produces extraction output for one item.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, item *Item) error
}

// Router detects an item's types and runs the generic pass plus every
// kind-specific extractor registered for any of them. Extractor
// failures are recorded per item and never abort sibling extractors.
type Router struct {
	db      storage.Store
	generic Extractor
	byKind  map[core.Kind][]Extractor
	logger  *slog.Logger
}

// Option configures a Router.
type Option func(*Router) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRouter creates a Router with the generic extractor installed.
func NewRouter(db storage.Store, opts ...Option) (*Router, error) {
	if db == nil {
		return nil, ErrStorageRequired
	}

	r := &Router{
		db:      db,
		generic: NewGenericExtractor(db),
		byKind:  make(map[core.Kind][]Extractor),
	}
	r.logger = slog.Default()
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds an extractor for the given kinds.
func (r *Router) Register(e Extractor, kinds ...core.Kind) {
	for _, kind := range kinds {
		r.byKind[kind] = append(r.byKind[kind], e)
	}
}

// Detect resolves the blob's types from its staged copy, using the
// first known logical path to refine the extension.
func (r *Router) Detect(ctx context.Context, ref *core.BlobRef, localPath string) (*DetectedType, error) {
	paths, err := r.db.FilePaths(ctx, ref.Dataset, ref.Hash)
	if err != nil {
		return nil, err
	}
	logicalPath := ""
	if len(paths) > 0 {
		logicalPath = paths[0]
	}

	f, err := os.Open(localPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DetectReader(f, logicalPath)
}

// Process runs extraction for one staged blob at the given nesting
// depth. Every extractor registered for any detected kind runs, each
// at most once. Item-level extractor failures land in the error log;
// only storage failures propagate.
func (r *Router) Process(ctx context.Context, ref *core.BlobRef, localPath string, depth int) error {
	detected, err := r.Detect(ctx, ref, localPath)
	if err != nil {
		return r.recordFailure(ctx, ref, "detect", time.Now(), err)
	}

	item := &Item{Ref: ref, Type: detected, Path: localPath, Depth: depth}
	extractors := []Extractor{r.generic}
	seen := map[Extractor]bool{r.generic: true}
	for _, kind := range detected.Kinds {
		for _, e := range r.byKind[kind] {
			if seen[e] {
				continue
			}
			seen[e] = true
			extractors = append(extractors, e)
		}
	}

	for _, e := range extractors {
		start := time.Now()
		if err := e.Extract(ctx, item); err != nil {
			r.logger.Warn("extractor failed",
				"extractor", e.Name(),
				"hash", ref.Hash,
				"kinds", detected.KindLabel(),
				"error", err)
			if rerr := r.recordFailure(ctx, ref, e.Name(), start, err); rerr != nil {
				return rerr
			}
		}
	}
	return nil
}

func (r *Router) recordFailure(ctx context.Context, ref *core.BlobRef, task string, start time.Time, cause error) error {
	return r.db.Record(ctx, &core.ProcessingError{
		Dataset:   ref.Dataset,
		Hash:      ref.Hash,
		Task:      task,
		RunTime:   time.Since(start),
		Detail:    cause.Error(),
		Timestamp: time.Now().UTC(),
	})
}
