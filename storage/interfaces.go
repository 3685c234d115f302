package storage

import (
	"context"

	"github.com/poiesic/sift/core"
)

// DatasetRepository manages dataset registration. Datasets are created at
// onboarding and never deleted by the pipeline.
type DatasetRepository interface {
	// PutDataset upserts a dataset row keyed by ID, and a name index.
	PutDataset(ctx context.Context, ds *core.Dataset) error

	// GetDataset retrieves a dataset by ID. Returns ErrNotFound if absent.
	GetDataset(ctx context.Context, id string) (*core.Dataset, error)

	// GetDatasetByName retrieves a dataset by its unique name.
	GetDatasetByName(ctx context.Context, name string) (*core.Dataset, error)
}

// BlobRepository manages deduplicated blob metadata and inline values.
// All writes are merge-by-key: re-putting an existing key overwrites it.
type BlobRepository interface {
	// PutBlobs upserts blob metadata rows keyed by (dataset, hash).
	// Returns the number of keys that did not previously exist.
	PutBlobs(ctx context.Context, blobs ...*core.BlobRef) (int, error)

	// GetBlob retrieves one blob. Returns ErrNotFound if absent.
	GetBlob(ctx context.Context, dataset, hash string) (*core.BlobRef, error)

	// GetBlobs retrieves the blobs that exist among the given hashes,
	// in hash order. Missing hashes are skipped, not an error.
	GetBlobs(ctx context.Context, dataset string, hashes ...string) ([]*core.BlobRef, error)

	// PutInlineValue stores the raw bytes of a small blob.
	PutInlineValue(ctx context.Context, dataset, hash string, data []byte) error

	// GetInlineValue retrieves the raw bytes of an inline blob.
	GetInlineValue(ctx context.Context, dataset, hash string) ([]byte, error)
}

// VFSRepository manages the logical directory/file view over blobs.
type VFSRepository interface {
	// PutDirectories upserts directory rows keyed by (dataset, container,
	// path). Returns the number of net-new rows.
	PutDirectories(ctx context.Context, dirs ...*core.VFSDirectory) (int, error)

	// PutFiles upserts file rows keyed by (dataset, container, path) and
	// maintains the hash-to-path index. Returns the number of net-new rows.
	PutFiles(ctx context.Context, files ...*core.VFSFile) (int, error)

	// FilesByContainer lists the file rows linked to a container hash,
	// in path order. An empty container lists the top-level tree.
	FilesByContainer(ctx context.Context, dataset, container string) ([]*core.VFSFile, error)

	// FilePaths lists all logical paths referencing a blob hash.
	FilePaths(ctx context.Context, dataset, hash string) ([]string, error)
}

// PlanRepository manages plans, membership, and completion markers.
type PlanRepository interface {
	// PutMemberships claims item hashes for a plan. Membership is keyed by
	// (dataset, item hash) so an item holds at most one membership row;
	// the last writer for an item wins.
	PutMemberships(ctx context.Context, dataset, planHash string, itemHashes ...string) error

	// Membership returns the plan hash owning an item, or ErrNotFound.
	Membership(ctx context.Context, dataset, itemHash string) (string, error)

	// PutPlan upserts a plan row keyed by (dataset, plan hash).
	PutPlan(ctx context.Context, plan *core.Plan) error

	// GetPlan retrieves a plan. Returns ErrNotFound if absent.
	GetPlan(ctx context.Context, dataset, planHash string) (*core.Plan, error)

	// PendingPlans lists plan hashes with no completion row, in ascending
	// hash order, starting at startAfter (exclusive when non-empty),
	// up to limit.
	PendingPlans(ctx context.Context, dataset, startAfter string, limit int) ([]string, error)

	// MarkFinished writes the completion row for a plan.
	MarkFinished(ctx context.Context, dataset, planHash string) error

	// Finished reports whether a plan has a completion row.
	Finished(ctx context.Context, dataset, planHash string) (bool, error)

	// UnplannedBlobs lists blobs with no membership row, ordered by
	// (size ascending, hash ascending) for reproducible packing.
	UnplannedBlobs(ctx context.Context, dataset string) ([]*core.BlobRef, error)

	// CountUnplanned counts blobs with no membership row.
	CountUnplanned(ctx context.Context, dataset string) (int, error)
}

// ExtractionRepository manages extractor output: text/metadata records,
// container rows, email headers, and entity hits.
type ExtractionRepository interface {
	// PutRecords upserts extraction records keyed by
	// (dataset, hash, extractor, page).
	PutRecords(ctx context.Context, records ...*core.ExtractionRecord) error

	// RecordsByHashes retrieves all extraction records for the given
	// hashes, ordered by (hash, extractor, page).
	RecordsByHashes(ctx context.Context, dataset string, hashes ...string) ([]*core.ExtractionRecord, error)

	// PutContainer upserts a container row keyed by (dataset, hash).
	PutContainer(ctx context.Context, c *core.Container) error

	// GetContainer retrieves a container row. Returns ErrNotFound if absent.
	GetContainer(ctx context.Context, dataset, hash string) (*core.Container, error)

	// PutEmailHeader upserts the structured header row of a parsed email.
	PutEmailHeader(ctx context.Context, h *core.EmailHeader) error

	// GetEmailHeader retrieves an email header row.
	GetEmailHeader(ctx context.Context, dataset, hash string) (*core.EmailHeader, error)

	// PutEntityHits upserts entity hits keyed by
	// (dataset, hash, extractor, page, entity type).
	PutEntityHits(ctx context.Context, hits ...*core.EntityHit) error

	// EntityHitsByHash retrieves entity hits for one blob.
	EntityHitsByHash(ctx context.Context, dataset, hash string) ([]*core.EntityHit, error)
}

// ErrorLog is the append-only processing error log.
type ErrorLog interface {
	// Record appends error rows. Never merges: every failure is kept.
	Record(ctx context.Context, errs ...*core.ProcessingError) error

	// ErrorsByHash lists recorded errors for one item, oldest first.
	ErrorsByHash(ctx context.Context, dataset, hash string) ([]*core.ProcessingError, error)
}

// TermRepository maintains the bidirectional term encoding per field.
type TermRepository interface {
	// LookupTerms returns the known ids among values for a field.
	LookupTerms(ctx context.Context, dataset, field string, values []string) (map[string]uint64, error)

	// PutTerms stores value-to-id pairs in both directions.
	PutTerms(ctx context.Context, dataset, field string, pairs map[string]uint64) error

	// TermValue resolves an id back to its value. Returns ErrNotFound
	// for unknown ids.
	TermValue(ctx context.Context, dataset, field string, id uint64) (string, error)
}

// Store aggregates every repository over one backend.
type Store interface {
	DatasetRepository
	BlobRepository
	VFSRepository
	PlanRepository
	ExtractionRepository
	ErrorLog
	TermRepository

	// Close closes the storage backend and releases resources.
	Close() error
}
