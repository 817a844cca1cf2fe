package menu

import (
	"errors"
	"fmt"
)

// ErrGenerationUnavailable signals that no external generation credential is
// configured. It is absorbed by the orchestrator and never reaches the caller.
var ErrGenerationUnavailable = errors.New("text generation service is not configured")

// PreconditionError aborts generation before any external call is attempted.
// The only current cause is a missing questionnaire.
type PreconditionError struct {
	UserID  string
	Missing string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition failed for user %s: %s missing, complete your questionnaire first", e.UserID, e.Missing)
}

// GenerationFailedError wraps any transport, rate-limit, timeout or
// non-success response from the generation client.
type GenerationFailedError struct {
	Err error
}

func (e *GenerationFailedError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationFailedError) Unwrap() error { return e.Err }

// MalformedGenerationError means the parser rejected the model's output.
// Raw keeps the offending text for diagnostics; it is logged, not surfaced.
type MalformedGenerationError struct {
	Reason string
	Raw    string
}

func (e *MalformedGenerationError) Error() string {
	return fmt.Sprintf("malformed generation output: %s", e.Reason)
}

// PersistenceError means the store write failed. Fatal: no partial plan exists.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist meal plan: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// FallbackExhaustionError means the catalog had zero eligible templates after
// filtering. Fatal by definition: the fallback generator has nothing to build
// from.
type FallbackExhaustionError struct {
	Excluded    []string
	Preferences []string
}

func (e *FallbackExhaustionError) Error() string {
	return fmt.Sprintf("no eligible meal templates remain (preferences=%v, exclusions=%v)", e.Preferences, e.Excluded)
}
