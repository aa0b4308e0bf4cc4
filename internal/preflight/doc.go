// Package preflight provides readiness checks for the paths and transports a
// run depends on.
//
// These checks run in two contexts:
//   - The pipeline runner verifies directory access before reading records so
//     a doomed run fails before any work happens.
//   - The CLI "mailvet check" command renders every check in one table.
//
// Checks gated by configuration (alert transport, storage) are skipped when
// the feature is off.
package preflight
