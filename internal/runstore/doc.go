// Package runstore persists completed pipeline runs to SQLite so reports can
// be reread and consecutive runs compared without rerunning validation.
package runstore
