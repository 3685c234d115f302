// Package core defines the domain model of the ingestion pipeline:
// datasets, deduplicated blobs, the virtual file system built over them,
// processing plans, extraction output, and the deterministic hashing that
// gives every record its content-derived identity.
//
// All identities are content-derived: a blob is keyed by the primary
// digest of its bytes, a plan by the digest of its sorted member set, and
// a search term by a deterministic 63-bit encoding of its value. This is
// what makes every write in the pipeline an idempotent merge.
package core
