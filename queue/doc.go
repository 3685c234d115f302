// Package queue moves tasks between pipeline stages. Tasks are grouped
// into worker classes so heavy parsing, OCR, and indexing run on fleets
// sized for them. The redis implementation backs multi-node deployments;
// the in-process implementation backs tests and single-node runs.
// Delivery is at-least-once and every handler is idempotent.
package queue
