// Package objectstore provides blob byte storage behind a small Store
// interface, with an S3-compatible implementation backed by MinIO and an
// in-memory implementation for tests. Object paths are derived from
// content hashes, so repeated writes of the same bytes are harmless.
package objectstore
