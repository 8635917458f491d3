// Package logging provides slog construction and shared structured-field
// conventions for the pipeline. All components log through *slog.Logger
// instances built here, with standardized keys for component, item, stage,
// lane, and correlation identifiers.
package logging
