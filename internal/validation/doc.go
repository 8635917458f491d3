// Package validation inspects stored artifacts and classifies their health.
// Verdicts feed the repair policy; the validator itself never mutates items
// or artifacts.
package validation
