package reqctx

import "context"

// Credential is the identity material the surrounding authentication
// collaborator attached to the request. The token is opaque to this
// service: it is verified upstream and forwarded verbatim to the
// collaborator backends.
type Credential struct {
	// Token is the raw bearer token, without the "Bearer " prefix.
	Token string

	// PersonID identifies the person taking the assessment.
	PersonID string

	// InstitutionID scopes collaborator calls to an institution, when the
	// deployment is multi-institution. May be empty.
	InstitutionID string
}

// WithCredential stores the caller credential in the context.
func WithCredential(ctx context.Context, cred Credential) context.Context {
	return context.WithValue(ctx, keyCredential, cred)
}

// CredentialFromContext retrieves the caller credential from the context.
func CredentialFromContext(ctx context.Context) (Credential, bool) {
	v := ctx.Value(keyCredential)
	if v == nil {
		return Credential{}, false
	}
	cred, ok := v.(Credential)
	return cred, ok && cred.Token != ""
}
