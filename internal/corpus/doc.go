// Package corpus defines the canonical data model for one batch run: typed
// email records, the closed field registry expectations may reference, and
// the defect bookkeeping that separates missing values from malformed ones.
//
// A Record is pure data produced by the normalizer. Field access for
// validation goes through Value, which reports a parse-failed-but-present
// field as present with its raw text so ratio checks can count it as
// non-null-but-invalid. Records that lose their identity or body during
// normalization never enter the batch; they are tallied as dropped records
// with a bounded sample retained for diagnostics.
//
// Batch carries the immutable record set for a run plus derived Stats used by
// the anomaly detector, and computes an order-independent content hash that
// keys the batch in the run store.
package corpus
