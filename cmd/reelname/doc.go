// Package main hosts the reelname CLI entrypoint and command graph.
//
// The Cobra command tree resolves movie file and folder names against TMDB,
// scans library directories on a worker pool, previews normalization and
// query plans, manages the persistent override catalog, and reads the batch
// history. It centralizes configuration resolution and logger setup so
// subcommands can focus on output.
//
// Keep this package lean: add functionality to the internal packages first,
// then surface it through dedicated commands or flags here.
package main
