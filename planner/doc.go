// Package planner packs unprocessed blobs into content-addressed plans.
// Packing is greedy over a deterministic backlog order, so re-running
// the planner over the same backlog reproduces the same plans. A blob
// belongs to at most one plan at a time.
package planner
