// Package ingest reads raw email rows from the supported sources.
//
// A Source yields column-keyed rows and nothing more; parsing into records is
// the normalizer's job. The CSV source handles header-driven exports with
// lenient column aliasing, so RFC 822 header names and snake_case columns
// load identically. The maildir source walks a directory of message files,
// extracting headers and plain-text bodies with charset-aware decoding.
//
// Any failure to read the source is a record-source error and aborts the run;
// rows that merely parse badly flow onward as defects instead.
package ingest
