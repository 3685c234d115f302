// Package storage defines the repository interfaces over the structured
// store and the value serialization used by backend implementations.
//
// # Architecture
//
// One Store aggregates per-entity repositories:
//
//   - DatasetRepository: dataset registration
//   - BlobRepository: deduplicated content metadata and inline values
//   - VFSRepository: the logical file/directory view
//   - PlanRepository: plans, membership, completion
//   - ExtractionRepository: extractor output and containers
//   - ErrorLog: append-only processing failures
//   - TermRepository: bidirectional term encodings
//
// Every write is keyed by a content hash or a content-derived composite
// key and behaves as a merge: re-writing an existing key overwrites it
// rather than erroring. This is what lets the pipeline re-run any stage
// safely under at-least-once delivery.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
