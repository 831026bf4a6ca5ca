package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arvanehlab/ravan_backend/internal/assessment"
)

// ScoringGateway is the consuming side of the scoring authority. The
// returned result is authoritative; this package never derives severity
// locally.
type ScoringGateway interface {
	SubmitResponses(ctx context.Context, req SubmitRequest) (*assessment.SubmissionResult, error)
}

type SubmitRequest struct {
	AssessmentID    string
	Responses       []assessment.Response
	ConsentAccepted bool
	StartedAt       time.Time
}

// Session is one person's attempt at one assessment: the consent/navigation
// state machine plus the in-progress answer set. It is exclusively owned by
// that person; the mutex only serializes their own overlapping HTTP
// requests. Terminal sessions are discarded, never reused.
type Session struct {
	mu sync.Mutex

	id       uuid.UUID
	personID string
	def      *assessment.Definition

	phase     Phase
	index     int
	answers   *answerSet
	consent   assessment.ConsentRecord
	startedAt time.Time
	result    *assessment.SubmissionResult

	scoring ScoringGateway

	// onCompleted fires exactly once, after the Completed transition, with
	// the authoritative result. Set by the Manager.
	onCompleted func(s *Session, res *assessment.SubmissionResult)
}

func New(personID string, def *assessment.Definition, scoring ScoringGateway) *Session {
	return &Session{
		id:       uuid.New(),
		personID: personID,
		def:      def,
		phase:    PhaseConsent,
		answers:  newAnswerSet(def),
		scoring:  scoring,
	}
}

func (s *Session) ID() uuid.UUID    { return s.id }
func (s *Session) PersonID() string { return s.personID }

func (s *Session) Definition() *assessment.Definition { return s.def }

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Session) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

func (s *Session) Consent() assessment.ConsentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consent
}

// Result is nil until the session completes.
func (s *Session) Result() *assessment.SubmissionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

func (s *Session) AnsweredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers.count()
}

// RequiredRemaining lists the required questions still unanswered, in
// definition order. Submission is enabled iff this is empty.
func (s *Session) RequiredRemaining() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers.missingRequired()
}

func (s *Session) IsComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers.complete()
}

// AdvisoryScore is the local running sum of selected values. Display-only;
// the authoritative score comes from the scoring authority.
func (s *Session) AdvisoryScore() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers.advisorySum()
}

// transitionLocked enforces the phase table. Callers hold s.mu.
func (s *Session) transitionLocked(op string, to Phase) error {
	if !s.phase.canTransition(to) {
		return &InvalidPhaseError{Op: op, Phase: s.phase}
	}
	s.phase = to
	return nil
}

// AcceptConsent records consent and moves the session to Instructions.
// Valid only in the Consent phase.
func (s *Session) AcceptConsent() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseConsent {
		return &InvalidPhaseError{Op: "accept consent", Phase: s.phase}
	}
	if err := s.transitionLocked("accept consent", PhaseInstructions); err != nil {
		return err
	}
	s.consent = assessment.ConsentRecord{Accepted: true, AcceptedAt: time.Now().UTC()}
	return nil
}

// Start begins the questionnaire at index 0. Valid only in Instructions,
// which is only reachable after consent.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseInstructions {
		if !s.consent.Accepted {
			return ErrConsentRequired
		}
		return &InvalidPhaseError{Op: "start", Phase: s.phase}
	}
	if err := s.transitionLocked("start", PhaseInProgress); err != nil {
		return err
	}
	s.index = 0
	s.startedAt = time.Now().UTC()
	return nil
}

// SetAnswer records (or overwrites) an answer. Valid only while InProgress.
func (s *Session) SetAnswer(questionID string, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseInProgress {
		return &InvalidPhaseError{Op: "set answer", Phase: s.phase}
	}
	return s.answers.set(questionID, value)
}

// Next advances to the following question. From the last index it submits
// instead; the returned result is non-nil exactly in that case.
func (s *Session) Next(ctx context.Context) (*assessment.SubmissionResult, error) {
	s.mu.Lock()
	if s.phase != PhaseInProgress {
		phase := s.phase
		s.mu.Unlock()
		if phase == PhaseSubmitting {
			return nil, ErrSubmissionInFlight
		}
		return nil, &InvalidPhaseError{Op: "next", Phase: phase}
	}
	if s.index < len(s.def.Questions)-1 {
		s.index++
		s.mu.Unlock()
		return nil, nil
	}
	s.mu.Unlock()
	return s.Submit(ctx)
}

// Previous steps back one question; at index 0 it stays put. Navigation is
// free and never gated on answered status.
func (s *Session) Previous() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseInProgress {
		return &InvalidPhaseError{Op: "previous", Phase: s.phase}
	}
	if s.index > 0 {
		s.index--
	}
	return nil
}

// JumpTo moves to any index in range regardless of answered status.
func (s *Session) JumpTo(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseInProgress {
		return &InvalidPhaseError{Op: "jump", Phase: s.phase}
	}
	if index < 0 || index >= len(s.def.Questions) {
		return &ValidationError{Reason: "question index out of range"}
	}
	s.index = index
	return nil
}

// Submit sends the answer set to the scoring authority, exactly once at a
// time. On success the session completes with the authoritative result; on
// failure it returns to InProgress with every answer intact so the person
// can retry.
func (s *Session) Submit(ctx context.Context) (*assessment.SubmissionResult, error) {
	s.mu.Lock()
	if s.phase == PhaseSubmitting {
		s.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	if s.phase != PhaseInProgress {
		phase := s.phase
		s.mu.Unlock()
		return nil, &InvalidPhaseError{Op: "submit", Phase: phase}
	}
	if !s.consent.Accepted {
		s.mu.Unlock()
		return nil, ErrConsentRequired
	}
	if missing := s.answers.missingRequired(); len(missing) > 0 {
		s.mu.Unlock()
		return nil, &ValidationError{Missing: missing}
	}

	req := SubmitRequest{
		AssessmentID:    s.def.ID,
		Responses:       s.answers.ordered(),
		ConsentAccepted: s.consent.Accepted,
		StartedAt:       s.startedAt,
	}
	s.phase = PhaseSubmitting
	s.mu.Unlock()

	// Network call happens outside the lock; the Submitting phase is the
	// in-flight guard that rejects re-entrant submits meanwhile.
	res, err := s.scoring.SubmitResponses(ctx, req)

	s.mu.Lock()
	if err != nil {
		s.phase = PhaseInProgress
		s.mu.Unlock()
		return nil, err
	}
	s.phase = PhaseCompleted
	s.result = res
	hook := s.onCompleted
	s.mu.Unlock()

	if hook != nil {
		hook(s, res)
	}
	return res, nil
}

// Abandon is the explicit, user-initiated terminal failure. Valid from any
// non-terminal phase except while a submission is in flight.
func (s *Session) Abandon() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseSubmitting {
		return ErrSubmissionInFlight
	}
	return s.transitionLocked("abandon", PhaseFailed)
}
