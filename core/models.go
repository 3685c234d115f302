package core

import (
	"time"
)

// Dataset is the tenant boundary for all pipeline state. Every record in
// the structured store is scoped by the dataset ID.
type Dataset struct {
	ID         string
	Name       string
	SourceKind string // "disk" for filesystem trees
	Root       string // absolute path or URI of the source
	Owner      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// BlobRef describes one deduplicated unit of content. The primary hash is
// the natural key: identical bytes always yield the same BlobRef key no
// matter how many paths reference them.
type BlobRef struct {
	Dataset    string
	Hash       string // primary digest (sha3-256, hex)
	Size       int64
	MD5        string
	SHA1       string
	SHA256     string
	Inline     bool   // true when the bytes live in the structured store
	ObjectPath string // object-store path when Inline is false
	CreatedAt  time.Time
}

// VFSDirectory is a logical directory entry. Container is empty for
// top-level dataset trees and holds the parent container hash for
// directories extracted from archives or emails.
type VFSDirectory struct {
	Dataset   string
	Container string
	Path      string
	Owner     string
}

// VFSFile is a logical file entry referencing a deduplicated blob.
type VFSFile struct {
	Dataset   string
	Container string
	Path      string
	Hash      string
	Size      int64
}

// Container marks a blob as an expandable container (archive or email).
// Its children are the VFSFile rows whose Container equals Hash.
type Container struct {
	Dataset string
	Hash    string
	Kind    Kind
	Types   []string // detected MIME types, space-joined in the search layer
}

// Plan is a content-addressed batch of unprocessed blobs. Hash is derived
// from the sorted member set, so identical membership reproduces an
// identical plan identity.
type Plan struct {
	Dataset    string
	Hash       string
	Items      []string // member blob hashes in packing order (size asc, hash tiebreak)
	TotalBytes int64
	CreatedAt  time.Time
}

// PlanCompletion marks a plan as finished. Absence means pending or
// in-flight.
type PlanCompletion struct {
	Dataset    string
	PlanHash   string
	FinishedAt time.Time
}

// ExtractionRecord is the normalized output of one extractor for one blob.
// Page distinguishes chunks or pages within the same (hash, extractor)
// pair; multiple extractors may coexist for the same hash.
type ExtractionRecord struct {
	Dataset   string
	Hash      string
	Extractor string
	Page      uint32
	Text      string
	Metadata  map[string]string
}

// EmailHeader holds the structured header fields of a parsed email.
type EmailHeader struct {
	Dataset    string
	Hash       string
	Subject    string
	Addresses  string // "from: ...; to: ..." aggregation
	RawHeaders string // JSON map of all header fields
	DateSent   time.Time
}

// ProcessingError is one append-only failure row. Item-level failures are
// recorded here and never propagate to sibling items or the owning plan.
type ProcessingError struct {
	Dataset   string
	Hash      string
	Task      string
	RunTime   time.Duration
	Detail    string
	Timestamp time.Time
}

// EntityHit records entities recognized in extracted text, keyed so the
// provenance (which extractor, which page) is preserved.
type EntityHit struct {
	Dataset    string
	Hash       string
	Extractor  string
	Page       uint32
	EntityType string // PER, ORG, LOC, MISC
	Values     []string
}

// TermPair is one side of the bidirectional term encoding for a field.
// IDs are deterministic (see TermID) so rebuilds reuse the same encoding.
type TermPair struct {
	Dataset string
	Field   string
	Value   string
	ID      uint64
}
