// Package provider holds what the collaborator HTTP clients share: the
// error taxonomy for failed exchanges and credential attachment.
package provider

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/arvanehlab/ravan_backend/pkg/reqctx"
)

// ErrConflict is returned when a conditional write lost the race to another
// requester (the backend's 409-equivalent). Never retried against the same
// resource.
var ErrConflict = errors.New("resource already claimed by another requester")

// NetworkError means the request could not reach the backend at all. The
// triggering action stays replayable by explicit user action.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: backend unreachable: %v", e.Op, e.Err)
}
func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError means the backend answered with a non-success status other
// than a conflict. Message carries the backend's human-readable reason.
type ServerError struct {
	Op      string
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: backend returned %d", e.Op, e.Status)
}

// Authorize copies the caller's opaque credential onto an outbound request.
// Issuance and verification belong to the authentication collaborator; this
// service only forwards what it received.
func Authorize(req *http.Request) {
	cred, ok := reqctx.CredentialFromContext(req.Context())
	if !ok {
		return
	}
	req.Header.Set("Authorization", "Bearer "+cred.Token)
	if cred.InstitutionID != "" {
		req.Header.Set("X-Institution-ID", cred.InstitutionID)
	}
}
