package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/arvanehlab/ravan_backend/internal/api/http/middleware"
	"github.com/arvanehlab/ravan_backend/internal/onboarding"
)

type OnboardingHandler struct {
	store onboarding.Store
}

func NewOnboardingHandler(store onboarding.Store) *OnboardingHandler {
	return &OnboardingHandler{store: store}
}

// GET /onboarding
func (h *OnboardingHandler) Get(c fiber.Ctx) error {
	cred, okCred := middleware.CredentialFromFiber(c)
	if !okCred {
		return unauthorized(c)
	}

	seen, err := h.store.Seen(c.Context(), cred.PersonID)
	if err != nil {
		return internalError(c)
	}
	return ok(c, fiber.Map{"seen": seen})
}

// PUT /onboarding
func (h *OnboardingHandler) MarkSeen(c fiber.Ctx) error {
	cred, okCred := middleware.CredentialFromFiber(c)
	if !okCred {
		return unauthorized(c)
	}

	if err := h.store.MarkSeen(c.Context(), cred.PersonID); err != nil {
		return internalError(c)
	}
	return noContent(c)
}
