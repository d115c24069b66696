package domain

import (
	"errors"
	"fmt"
	"time"
)

// MissingCredentialError is returned before any remote call when an API key is absent.
type MissingCredentialError struct {
	Name string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("missing credential: %s is not set", e.Name)
}

// InvalidInputError reports user input rejected before any remote call is made.
type InvalidInputError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// TransientServiceError is a remote failure worth retrying (network, 429, 5xx).
type TransientServiceError struct {
	Service string
	Status  int
	Err     error
}

func (e *TransientServiceError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: transient failure (status %d): %v", e.Service, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: transient failure: %v", e.Service, e.Err)
}

func (e *TransientServiceError) Unwrap() error { return e.Err }

// InvalidRequestError is a remote rejection that retrying cannot fix.
type InvalidRequestError struct {
	Service string
	Status  int
	Message string
}

func (e *InvalidRequestError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: request rejected (status %d): %s", e.Service, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: request rejected: %s", e.Service, e.Message)
}

// TimeoutError means a remote job did not reach a terminal status in time.
// No partial data accompanies it.
type TimeoutError struct {
	Service   string
	Operation string
	After     time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: %s timed out after %s", e.Service, e.Operation, e.After)
}

// SchemaViolationError names the first field of a raw payload that is missing or mistyped.
type SchemaViolationError struct {
	Field  string
	Reason string
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("schema violation on field %q: %s", e.Field, e.Reason)
}

// IsTransient reports whether err (or anything it wraps) is a TransientServiceError.
func IsTransient(err error) bool {
	var te *TransientServiceError
	return errors.As(err, &te)
}

// IsUserError reports whether err should be shown to the user as a bad-input message.
func IsUserError(err error) bool {
	var ie *InvalidInputError
	var mc *MissingCredentialError
	return errors.As(err, &ie) || errors.As(err, &mc)
}
