package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/arvanehlab/ravan_backend/internal/api/http/handler"
)

func (r *Router) registerAttemptRoutes(
	api fiber.Router,
	h *handler.AttemptHandler,
	authRequired fiber.Handler,
) {
	attempts := api.Group("/attempts", authRequired)

	attempts.Post("/", h.Begin)
	attempts.Get("/:id", h.Get)

	attempts.Post("/:id/consent", h.Consent)
	attempts.Post("/:id/start", h.Start)

	attempts.Put("/:id/answers/:qid", h.SetAnswer)
	attempts.Post("/:id/next", h.Next)
	attempts.Post("/:id/previous", h.Previous)
	attempts.Post("/:id/jump", h.Jump)

	attempts.Post("/:id/submit", h.Submit)
	attempts.Post("/:id/abandon", h.Abandon)
}
