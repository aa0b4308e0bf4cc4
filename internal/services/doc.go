// Package services defines shared utilities consumed by the pipeline stages
// and external collaborators.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and batch hashes for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper that keep the failure
//     taxonomy uniform: configuration and record-source errors abort a run,
//     everything else is recovered locally.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability) stays consistent across stages.
package services
