// Package batch discovers movie files under a library root and resolves them
// concurrently through the identification engine.
//
// Runner fans items out to a bounded worker pool, stamps each context with
// the run and item identifiers for logging, and returns a Report in input
// order. Cancelling the context stops dispatch; anything not yet resolved is
// reported as cancelled. An optional Recorder persists finished reports.
package batch
