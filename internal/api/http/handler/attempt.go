package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/arvanehlab/ravan_backend/internal/api/http/middleware"
	"github.com/arvanehlab/ravan_backend/internal/assessment"
	"github.com/arvanehlab/ravan_backend/internal/provider"
	"github.com/arvanehlab/ravan_backend/internal/session"
)

type AttemptHandler struct {
	sessions *session.Manager
}

func NewAttemptHandler(sessions *session.Manager) *AttemptHandler {
	return &AttemptHandler{sessions: sessions}
}

// attemptView is the person-facing projection of one attempt. The advisory
// score is display-only; the authoritative score arrives with the result.
type attemptView struct {
	ID              string                       `json:"id"`
	AssessmentID    string                       `json:"assessmentId"`
	Title           string                       `json:"title"`
	Phase           string                       `json:"phase"`
	Index           int                          `json:"index"`
	QuestionCount   int                          `json:"questionCount"`
	Answered        int                          `json:"answered"`
	MissingRequired []string                     `json:"missingRequired"`
	CanSubmit       bool                         `json:"canSubmit"`
	ConsentAccepted bool                         `json:"consentAccepted"`
	AdvisoryScore   int                          `json:"advisoryScore"`
	Result          *assessment.SubmissionResult `json:"result,omitempty"`
}

func viewOf(s *session.Session) attemptView {
	def := s.Definition()
	missing := s.RequiredRemaining()
	return attemptView{
		ID:              s.ID().String(),
		AssessmentID:    def.ID,
		Title:           def.Title,
		Phase:           string(s.Phase()),
		Index:           s.Index(),
		QuestionCount:   len(def.Questions),
		Answered:        s.AnsweredCount(),
		MissingRequired: missing,
		CanSubmit:       len(missing) == 0,
		ConsentAccepted: s.Consent().Accepted,
		AdvisoryScore:   s.AdvisoryScore(),
		Result:          s.Result(),
	}
}

// POST /attempts
func (h *AttemptHandler) Begin(c fiber.Ctx) error {
	cred, okCred := middleware.CredentialFromFiber(c)
	if !okCred {
		return unauthorized(c)
	}

	var req struct {
		AssessmentID string `json:"assessmentId"`
	}
	if err := c.Bind().Body(&req); err != nil || req.AssessmentID == "" {
		return badRequest(c, "assessmentId is required")
	}

	s, err := h.sessions.Begin(c.Context(), cred.PersonID, req.AssessmentID)
	if err != nil {
		return attemptError(c, err)
	}
	return created(c, viewOf(s))
}

// GET /attempts/:id
func (h *AttemptHandler) Get(c fiber.Ctx) error {
	s, err := h.load(c)
	if err != nil {
		return attemptError(c, err)
	}
	return ok(c, viewOf(s))
}

// POST /attempts/:id/consent
func (h *AttemptHandler) Consent(c fiber.Ctx) error {
	s, err := h.load(c)
	if err != nil {
		return attemptError(c, err)
	}
	if err := s.AcceptConsent(); err != nil {
		return attemptError(c, err)
	}
	h.sessions.Touch(c.Context(), s)
	return ok(c, viewOf(s))
}

// POST /attempts/:id/start
func (h *AttemptHandler) Start(c fiber.Ctx) error {
	s, err := h.load(c)
	if err != nil {
		return attemptError(c, err)
	}
	if err := s.Start(); err != nil {
		return attemptError(c, err)
	}
	h.sessions.Touch(c.Context(), s)
	return ok(c, viewOf(s))
}

// PUT /attempts/:id/answers/:qid
func (h *AttemptHandler) SetAnswer(c fiber.Ctx) error {
	s, err := h.load(c)
	if err != nil {
		return attemptError(c, err)
	}

	var req struct {
		Value int `json:"value"`
	}
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "value is required")
	}

	if err := s.SetAnswer(c.Params("qid"), req.Value); err != nil {
		return attemptError(c, err)
	}
	h.sessions.Touch(c.Context(), s)
	return ok(c, viewOf(s))
}

// POST /attempts/:id/next
func (h *AttemptHandler) Next(c fiber.Ctx) error {
	s, err := h.load(c)
	if err != nil {
		return attemptError(c, err)
	}

	// From the last question Next submits; the view then carries the result.
	_, err = s.Next(c.Context())
	h.sessions.Touch(c.Context(), s)
	if err != nil {
		return attemptError(c, err)
	}
	return ok(c, viewOf(s))
}

// POST /attempts/:id/previous
func (h *AttemptHandler) Previous(c fiber.Ctx) error {
	s, err := h.load(c)
	if err != nil {
		return attemptError(c, err)
	}
	if err := s.Previous(); err != nil {
		return attemptError(c, err)
	}
	h.sessions.Touch(c.Context(), s)
	return ok(c, viewOf(s))
}

// POST /attempts/:id/jump
func (h *AttemptHandler) Jump(c fiber.Ctx) error {
	s, err := h.load(c)
	if err != nil {
		return attemptError(c, err)
	}

	var req struct {
		Index int `json:"index"`
	}
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "index is required")
	}

	if err := s.JumpTo(req.Index); err != nil {
		return attemptError(c, err)
	}
	h.sessions.Touch(c.Context(), s)
	return ok(c, viewOf(s))
}

// POST /attempts/:id/submit
func (h *AttemptHandler) Submit(c fiber.Ctx) error {
	s, err := h.load(c)
	if err != nil {
		return attemptError(c, err)
	}

	_, err = s.Submit(c.Context())
	h.sessions.Touch(c.Context(), s)
	if err != nil {
		return attemptError(c, err)
	}
	return ok(c, viewOf(s))
}

// POST /attempts/:id/abandon
func (h *AttemptHandler) Abandon(c fiber.Ctx) error {
	s, err := h.load(c)
	if err != nil {
		return attemptError(c, err)
	}
	if err := s.Abandon(); err != nil {
		return attemptError(c, err)
	}
	h.sessions.Touch(c.Context(), s)
	return noContent(c)
}

func (h *AttemptHandler) load(c fiber.Ctx) (*session.Session, error) {
	cred, okCred := middleware.CredentialFromFiber(c)
	if !okCred {
		return nil, fiber.ErrUnauthorized
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, &session.ValidationError{Reason: "invalid attempt id"}
	}
	return h.sessions.Get(c.Context(), id, cred.PersonID)
}

// attemptError maps the session error taxonomy onto HTTP statuses. Phase and
// consent violations resolve locally without touching session state; backend
// failures surface as 502 with the session already returned to InProgress.
func attemptError(c fiber.Ctx, err error) error {
	var (
		phaseErr      *session.InvalidPhaseError
		validationErr *session.ValidationError
		netErr        *provider.NetworkError
		srvErr        *provider.ServerError
	)

	switch {
	case errors.Is(err, session.ErrAttemptNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, session.ErrNotOwner):
		return forbidden(c)
	case errors.Is(err, session.ErrConsentRequired):
		return badRequest(c, err.Error())
	case errors.Is(err, session.ErrSubmissionInFlight):
		return conflict(c, err.Error())
	case errors.As(err, &phaseErr):
		return badRequest(c, phaseErr.Error())
	case errors.As(err, &validationErr):
		if len(validationErr.Missing) > 0 {
			return unprocessable(c, "required questions unanswered", fiber.Map{"missing": validationErr.Missing})
		}
		return unprocessable(c, validationErr.Error(), nil)
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
