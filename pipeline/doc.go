// Package pipeline chains the ingestion stages together: scan discovers
// content, planning packs the backlog, execution extracts it, and
// indexing ships the results to search. Stages communicate through the
// task queue and every handler is idempotent, so crashed or duplicated
// tasks re-run safely. Container expansion feeds discovered content
// back into planning until the dataset settles.
package pipeline
