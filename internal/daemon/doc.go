// Package daemon runs the long-lived spool process: the workflow manager,
// the HTTP API, and a file lock that keeps a host to one instance.
package daemon
