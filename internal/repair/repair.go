package repair

import (
	"spool/internal/validation"
)

// Action is the policy outcome for a failing validation verdict.
type Action string

const (
	// ActionNoAction means the artifact is healthy and processing continues.
	ActionNoAction Action = "no-action"
	// ActionReFetch sends the item back to the start of the failed stage.
	ActionReFetch Action = "re-fetch"
	// ActionAbandon marks the item permanently unprocessable.
	ActionAbandon Action = "abandon"
)

// Decide maps a verdict and the stage's retry history to a repair action.
// It is a pure function; callers pass the retry count recorded before this
// attempt, and the bound holds regardless of call order: once retryCount
// reaches maxRetries the answer is abandon, forever.
func Decide(verdict validation.Verdict, retryCount, maxRetries int) Action {
	if !verdict.Failing() {
		return ActionNoAction
	}
	if retryCount >= maxRetries {
		return ActionAbandon
	}
	return ActionReFetch
}
