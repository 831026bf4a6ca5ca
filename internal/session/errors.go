package session

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConsentRequired    = errors.New("consent has not been accepted")
	ErrSubmissionInFlight = errors.New("a submission is already in flight for this attempt")
	ErrAttemptNotFound    = errors.New("attempt not found")
	ErrNotOwner           = errors.New("attempt belongs to another person")
)

// InvalidPhaseError rejects an operation issued outside the phase it is
// valid in. It resolves locally and never alters the session phase.
type InvalidPhaseError struct {
	Op    string
	Phase Phase
}

func (e *InvalidPhaseError) Error() string {
	return fmt.Sprintf("%s is not valid in phase %s", e.Op, e.Phase)
}

// ValidationError rejects an answer value outside the question's option set,
// or a submit with required questions still unanswered. Missing carries the
// exact ids so the caller can message them individually.
type ValidationError struct {
	Reason  string
	Missing []string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return "required questions unanswered: " + strings.Join(e.Missing, ", ")
	}
	return e.Reason
}
