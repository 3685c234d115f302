// Package vfs builds the logical directory and file view of a dataset.
// The registrar walks disk roots and container expansions, routes bytes
// through the content store for deduplication, and writes directory and
// file rows in bounded batches so large trees never accumulate unbounded
// state in memory.
package vfs
