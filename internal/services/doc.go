// Package services holds the error taxonomy and context plumbing shared by
// stage executors and the workflow manager, plus typed clients for the
// external fetch/decode/transcribe commands in its subpackages.
//
// Errors carry a sentinel marker (ErrTransient, ErrValidation, ErrInput, ...)
// so the workflow can route failures without string matching: transient
// failures are absorbed by executor-local retries, validation failures go to
// the repair policy, input failures fail the item outright, and store I/O
// failures leave the item untouched.
package services
