// Package textutil provides small text helpers shared by the CLI and the batch
// runner: filename sanitization and naming-pattern rendering for resolved
// titles.
package textutil
