// Package content places deduplicated blob bytes. Each blob is hashed in
// a single streaming pass; small blobs are inlined in the structured
// store, larger ones go to the object store under a hash-derived path.
// Ingesting identical bytes twice stores them once.
package content
