package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestErrorMessages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&MissingCredentialError{Name: "OPENAI_API_KEY"}, "missing credential: OPENAI_API_KEY is not set"},
		{&InvalidInputError{Field: "city", Reason: "is empty"}, "invalid city: is empty"},
		{&InvalidInputError{Field: "city", Value: "Qwxzzznotacity", Reason: "no matching place found"}, `invalid city "Qwxzzznotacity": no matching place found`},
		{&TransientServiceError{Service: "openai", Status: 503, Err: errors.New("unavailable")}, "openai: transient failure (status 503): unavailable"},
		{&TransientServiceError{Service: "openai", Err: errors.New("connection reset")}, "openai: transient failure: connection reset"},
		{&InvalidRequestError{Service: "hyperbrowser", Status: 400, Message: "bad schema"}, "hyperbrowser: request rejected (status 400): bad schema"},
		{&TimeoutError{Service: "hyperbrowser", Operation: "extract", After: 5 * time.Minute}, "hyperbrowser: extract timed out after 5m0s"},
		{&SchemaViolationError{Field: "title", Reason: "is missing"}, `schema violation on field "title": is missing`},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Errorf("Error() = %q, want %q", got, tc.want)
		}
	}
}

func TestClassification(t *testing.T) {
	transient := fmt.Errorf("extract: %w", &TransientServiceError{Service: "hyperbrowser", Status: 502})
	if !IsTransient(transient) {
		t.Fatal("wrapped transient error not detected")
	}
	if IsTransient(&InvalidRequestError{Service: "hyperbrowser", Status: 400}) {
		t.Fatal("invalid request must not be transient")
	}
	if !IsUserError(fmt.Errorf("search: %w", &InvalidInputError{Field: "from"})) || !IsUserError(&MissingCredentialError{Name: "X"}) {
		t.Fatal("user errors not detected")
	}
	if IsUserError(&SchemaViolationError{Field: "title"}) {
		t.Fatal("schema violation is not a user error")
	}
}

func TestJobStatusAndDuration(t *testing.T) {
	for s, terminal := range map[JobStatus]bool{JobPending: false, JobRunning: false, JobCompleted: true, JobFailed: true} {
		if s.Terminal() != terminal {
			t.Errorf("%s.Terminal() = %v", s, !terminal)
		}
	}
	for _, d := range []TripDuration{TripWeekend, TripOneWeek, TripTwoWeeks} {
		if !d.Valid() {
			t.Errorf("%q should be valid", d)
		}
	}
	if TripDuration("3 Days").Valid() {
		t.Error("unknown duration accepted")
	}
}
