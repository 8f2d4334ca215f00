// Package main hosts the salescope CLI entrypoint and command graph.
//
// The Cobra command tree turns terminal invocations into analysis runs over
// tracker result directories, standalone track consolidation, queries against
// the local results database, and configuration scaffolding. Configuration
// resolution and logger setup live here so subcommands only wire internal
// packages together.
//
// Keep this package lean: new behavior belongs in the internal packages first
// and is surfaced here through dedicated commands or flags.
package main
