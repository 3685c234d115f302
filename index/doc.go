// Package index aggregates extraction records into search documents:
// text, term-encoded facets, and recognized entities. Term ids are
// derived from the values themselves, so re-indexing reproduces the
// same encodings and upserts replace rather than duplicate.
package index
