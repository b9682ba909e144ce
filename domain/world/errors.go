package world

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyDescription is returned when no description text was supplied.
	ErrEmptyDescription = errors.New("description is required")

	// ErrOracleUnavailable means the oracle failed or timed out. Callers may retry.
	ErrOracleUnavailable = errors.New("oracle unavailable")
)

// OracleError wraps a failed oracle call.
type OracleError struct {
	Err     error
	Timeout bool
}

func (e *OracleError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("oracle unavailable: timed out: %v", e.Err)
	}
	return fmt.Sprintf("oracle unavailable: %v", e.Err)
}

// Is matches ErrOracleUnavailable.
func (e *OracleError) Is(target error) bool {
	return target == ErrOracleUnavailable
}

func (e *OracleError) Unwrap() error {
	return e.Err
}

// ExtractionError means the oracle reply held no parseable JSON object.
// Raw keeps the reply for diagnosis. Not retryable.
type ExtractionError struct {
	Reason string
	Raw    string
}

func (e *ExtractionError) Error() string {
	return "extraction failed: " + e.Reason
}
