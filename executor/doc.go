// Package executor runs pending plans. Plans execute with bounded
// concurrency; within a plan, each member is staged to local disk under
// a size-scaled deadline, verified, and routed through extraction. A
// plan finishes exactly once, after every member has been attempted,
// and member failures never block the barrier.
package executor
