package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/arvanehlab/ravan_backend/internal/api/http/handler"
)

func (r *Router) registerOnboardingRoutes(
	api fiber.Router,
	h *handler.OnboardingHandler,
	authRequired fiber.Handler,
) {
	onboarding := api.Group("/onboarding", authRequired)

	onboarding.Get("/", h.Get)
	onboarding.Put("/", h.MarkSeen)
}
