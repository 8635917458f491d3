// Package main hosts the spool CLI entrypoint and command graph.
//
// The Cobra-based command tree covers queue intake, item inspection,
// cancellation, configuration scaffolding, and running the daemon itself.
// Query commands open the queue store directly; the SQLite WAL journal lets
// them run safely alongside a live daemon. It centralizes configuration
// resolution so subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
