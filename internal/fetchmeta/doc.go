// Package fetchmeta resolves source metadata ahead of any media transfer so
// that unusable references fail fast and downstream validation has a duration
// to check against.
package fetchmeta
