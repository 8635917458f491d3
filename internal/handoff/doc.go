// Package handoff notifies downstream review tooling when an item completes
// the pipeline.
package handoff
