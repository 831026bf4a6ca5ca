package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/arvanehlab/ravan_backend/internal/api/http/middleware"
	"github.com/arvanehlab/ravan_backend/internal/assessment"
	"github.com/arvanehlab/ravan_backend/internal/escalation"
	"github.com/arvanehlab/ravan_backend/internal/provider"
	"github.com/arvanehlab/ravan_backend/internal/session"
)

type EscalationHandler struct {
	sessions *session.Manager
	svc      escalation.Service
}

func NewEscalationHandler(sessions *session.Manager, svc escalation.Service) *EscalationHandler {
	return &EscalationHandler{sessions: sessions, svc: svc}
}

// GET /attempts/:id/escalation/slots
func (h *EscalationHandler) Slots(c fiber.Ctx) error {
	res, err := h.completedResult(c)
	if err != nil {
		return escalationError(c, err)
	}

	slots, err := h.svc.OpenSlots(c.Context(), res.Severity)
	if err != nil {
		return escalationError(c, err)
	}
	return ok(c, fiber.Map{"severity": res.Severity, "slots": slots})
}

// POST /attempts/:id/escalation/slots/:slotID/reserve
func (h *EscalationHandler) Reserve(c fiber.Ctx) error {
	cred, okCred := middleware.CredentialFromFiber(c)
	if !okCred {
		return unauthorized(c)
	}

	res, err := h.completedResult(c)
	if err != nil {
		return escalationError(c, err)
	}

	slotID := c.Params("slotID")
	attempt, fresh, err := h.svc.Reserve(c.Context(), res.Severity, cred.PersonID, slotID)

	switch {
	case err == nil:
		return ok(c, fiber.Map{"booking": attempt})

	case errors.Is(err, escalation.ErrSlotTaken):
		// The stale slot is gone; the corrected window rides along so the
		// caller can re-render without a second round trip.
		if fresh == nil {
			fresh = []assessment.Slot{}
		}
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "slot already taken",
			"data":  fiber.Map{"booking": attempt, "slots": fresh},
		})

	default:
		return escalationError(c, err)
	}
}

func (h *EscalationHandler) completedResult(c fiber.Ctx) (*assessment.SubmissionResult, error) {
	cred, okCred := middleware.CredentialFromFiber(c)
	if !okCred {
		return nil, fiber.ErrUnauthorized
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, &session.ValidationError{Reason: "invalid attempt id"}
	}
	return h.sessions.CompletedResult(c.Context(), id, cred.PersonID)
}

func escalationError(c fiber.Ctx, err error) error {
	var (
		validationErr *session.ValidationError
		netErr        *provider.NetworkError
		srvErr        *provider.ServerError
	)

	switch {
	case errors.Is(err, session.ErrAttemptNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, session.ErrNotOwner):
		return forbidden(c)
	case errors.Is(err, escalation.ErrNotEligible):
		return forbidden(c)
	case errors.Is(err, escalation.ErrReserveInFlight):
		return conflict(c, err.Error())
	case errors.As(err, &validationErr):
		return badRequest(c, validationErr.Error())
	case errors.As(err, &netErr):
		return badGateway(c, netErr.Error())
	case errors.As(err, &srvErr):
		return badGateway(c, srvErr.Error())
	case errors.Is(err, fiber.ErrUnauthorized):
		return unauthorized(c)
	default:
		return internalError(c)
	}
}
