package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/arvanehlab/ravan_backend/internal/api/http/handler"
)

func (r *Router) registerEscalationRoutes(
	api fiber.Router,
	h *handler.EscalationHandler,
	authRequired fiber.Handler,
) {
	esc := api.Group("/attempts/:id/escalation", authRequired)

	esc.Get("/slots", h.Slots)
	esc.Post("/slots/:slotID/reserve", h.Reserve)
}
