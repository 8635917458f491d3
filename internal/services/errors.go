package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrExternalTool marks failures reported by external fetch/decode/transcribe commands.
	ErrExternalTool = errors.New("external tool error")
	// ErrValidation marks failing artifact verdicts routed to the repair policy.
	ErrValidation = errors.New("validation error")
	// ErrInput marks malformed or unsupported source references; repair cannot fix these.
	ErrInput = errors.New("invalid input")
	// ErrConfiguration marks unusable configuration discovered at runtime.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks lookups for items or artifacts that do not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks optimistic-concurrency commit failures; callers re-read and retry.
	ErrConflict = errors.New("version conflict")
	// ErrStoreIO marks artifact or queue store unavailability. It must never be
	// mistaken for content corruption: the item stays where it is.
	ErrStoreIO = errors.New("store io error")
	// ErrTransient marks short-lived failures absorbed by executor-local retries.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsRetryable reports whether a stage error should be handed to the repair
// policy rather than failing the item outright.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrInput) || errors.Is(err, ErrConfiguration) {
		return false
	}
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrExternalTool) || errors.Is(err, ErrTransient)
}

// ErrorDetails captures the user-facing portion of a classified error.
type ErrorDetails struct {
	Message string
}

// Details extracts the human-readable message following the sentinel prefix.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	msg := err.Error()
	for _, marker := range []error{ErrExternalTool, ErrValidation, ErrInput, ErrConfiguration, ErrNotFound, ErrConflict, ErrStoreIO, ErrTransient} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(msg, prefix) {
			return ErrorDetails{Message: strings.TrimPrefix(msg, prefix)}
		}
	}
	return ErrorDetails{Message: msg}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
