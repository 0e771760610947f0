// Package history records batch runs and their per-item outcomes in SQLite.
//
// The store is an audit trail for the CLI, not the resolution cache: it is
// written once per finished run and read by the history commands.
package history
