// Package normalize turns raw source rows into canonical records.
//
// Normalization is total: a row never fails the run. Malformed field values
// become ParseDefects that keep the raw text, rows missing an id or body are
// dropped with a bounded sample, and everything else flows through. Dates
// get the corpus-specific cleaning treatment (trailing timezone
// abbreviations, single-digit days, two-digit years) before parsing, and
// parsed dates outside the configured plausibility window are defects too.
//
// The normalizer also derives the fields validation depends on: recipients
// merged from to/cc/bcc, a thread key peeled from the subject, and the
// original/reply/forward classification.
package normalize
