package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/arvanehlab/ravan_backend/pkg/reqctx"
)

const LocalCredential = "credential"

// CredentialRequired extracts the opaque bearer token and person id issued
// by the surrounding authentication collaborator. The token is never
// verified here; it is attached to the request context so collaborator
// clients can forward it verbatim.
func CredentialRequired() fiber.Handler {
	return func(c fiber.Ctx) error {
		h := c.Get("Authorization")
		if h == "" {
			return fiber.ErrUnauthorized
		}

		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.ErrUnauthorized
		}
		token := strings.TrimSpace(parts[1])
		if token == "" {
			return fiber.ErrUnauthorized
		}

		personID := strings.TrimSpace(c.Get("X-Person-ID"))
		if personID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "X-Person-ID header is required")
		}

		cred := reqctx.Credential{
			Token:         token,
			PersonID:      personID,
			InstitutionID: strings.TrimSpace(c.Get("X-Institution-ID")),
		}

		c.Locals(LocalCredential, cred)
		c.SetContext(reqctx.WithCredential(c.Context(), cred))

		return c.Next()
	}
}

// CredentialFromFiber retrieves the caller credential stored by
// CredentialRequired.
func CredentialFromFiber(c fiber.Ctx) (reqctx.Credential, bool) {
	v := c.Locals(LocalCredential)
	cred, ok := v.(reqctx.Credential)
	return cred, ok && cred.Token != ""
}
