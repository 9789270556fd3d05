// Package checkpoint memoizes function results on disk.
//
// Wrap derives a stable identity for a function's logic and arguments, maps
// it to a checkpoint directory, and on each call either loads a previously
// persisted result or invokes the function and persists the fresh one.
// Changing the function's behavior changes its logic digest, so old results
// are never served for new code; reformatting the source does not.
//
// Caching is transparent to the wrapped function's own success or failure:
// its errors propagate unchanged and are never cached, and any failure
// inside the caching machinery itself (lookup, deserialization,
// persistence) degrades to recomputation with a log line rather than
// failing the call.
//
// The layer is synchronous and does no cross-process coordination.
// Concurrent goroutines in one process collapse onto a single computation
// per identity; concurrent processes may both compute and both write, with
// last-writer-wins semantics.
package checkpoint
