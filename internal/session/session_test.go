package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arvanehlab/ravan_backend/internal/assessment"
	"github.com/arvanehlab/ravan_backend/internal/provider"
)

func likertOptions() []assessment.Option {
	return []assessment.Option{
		{Value: 0, Label: "Not at all"},
		{Value: 1, Label: "Several days"},
		{Value: 2, Label: "More than half the days"},
		{Value: 3, Label: "Nearly every day"},
	}
}

func testDefinition() *assessment.Definition {
	return &assessment.Definition{
		ID:    "phq-9",
		Code:  "PHQ9",
		Title: "Patient Health Questionnaire",
		Questions: []assessment.Question{
			{ID: "q1", Prompt: "Little interest or pleasure", Required: true, Options: likertOptions()},
			{ID: "q2", Prompt: "Feeling down", Required: true, Options: likertOptions()},
			{ID: "q3", Prompt: "Optional extra", Required: false, Options: likertOptions()},
		},
	}
}

type fakeScoring struct {
	fn func(ctx context.Context, req SubmitRequest) (*assessment.SubmissionResult, error)
}

func (f *fakeScoring) SubmitResponses(ctx context.Context, req SubmitRequest) (*assessment.SubmissionResult, error) {
	return f.fn(ctx, req)
}

func okScoring(severity assessment.Severity) *fakeScoring {
	return &fakeScoring{fn: func(ctx context.Context, req SubmitRequest) (*assessment.SubmissionResult, error) {
		total := 0
		for _, r := range req.Responses {
			total += r.Value
		}
		return &assessment.SubmissionResult{
			SubmissionID: "sub-1",
			TotalScore:   total,
			Severity:     severity,
			SubmittedAt:  time.Now().UTC(),
		}, nil
	}}
}

// startedSession returns a session already in the InProgress phase.
func startedSession(t *testing.T, scoring ScoringGateway) *Session {
	t.Helper()
	s := New("person-1", testDefinition(), scoring)
	if err := s.AcceptConsent(); err != nil {
		t.Fatalf("AcceptConsent: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s
}

func TestConsentGating(t *testing.T) {
	s := New("person-1", testDefinition(), okScoring(assessment.SeverityMild))

	if got := s.Phase(); got != PhaseConsent {
		t.Fatalf("new session phase = %s, want %s", got, PhaseConsent)
	}

	if err := s.Start(); !errors.Is(err, ErrConsentRequired) {
		t.Fatalf("Start before consent: got %v, want ErrConsentRequired", err)
	}

	var phaseErr *InvalidPhaseError
	if err := s.SetAnswer("q1", 1); !errors.As(err, &phaseErr) {
		t.Fatalf("SetAnswer before consent: got %v, want InvalidPhaseError", err)
	}
	if err := s.JumpTo(0); !errors.As(err, &phaseErr) {
		t.Fatalf("JumpTo before consent: got %v, want InvalidPhaseError", err)
	}

	if err := s.AcceptConsent(); err != nil {
		t.Fatalf("AcceptConsent: %v", err)
	}
	if got := s.Phase(); got != PhaseInstructions {
		t.Fatalf("phase after consent = %s, want %s", got, PhaseInstructions)
	}
	if !s.Consent().Accepted || s.Consent().AcceptedAt.IsZero() {
		t.Fatal("consent record not stamped")
	}

	// Consent is accepted exactly once.
	if err := s.AcceptConsent(); !errors.As(err, &phaseErr) {
		t.Fatalf("second AcceptConsent: got %v, want InvalidPhaseError", err)
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := s.Phase(); got != PhaseInProgress {
		t.Fatalf("phase after start = %s, want %s", got, PhaseInProgress)
	}
	if got := s.Index(); got != 0 {
		t.Fatalf("index after start = %d, want 0", got)
	}
}

func TestAnswerValidation(t *testing.T) {
	s := startedSession(t, okScoring(assessment.SeverityMild))

	var vErr *ValidationError

	if err := s.SetAnswer("nope", 1); !errors.As(err, &vErr) {
		t.Fatalf("unknown question id: got %v, want ValidationError", err)
	}
	if err := s.SetAnswer("q1", 7); !errors.As(err, &vErr) {
		t.Fatalf("value outside option set: got %v, want ValidationError", err)
	}

	if err := s.SetAnswer("q1", 2); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	// Overwriting is allowed any number of times.
	if err := s.SetAnswer("q1", 0); err != nil {
		t.Fatalf("overwrite answer: %v", err)
	}
	if got := s.AnsweredCount(); got != 1 {
		t.Fatalf("answered count = %d, want 1", got)
	}
	if got := s.AdvisoryScore(); got != 0 {
		t.Fatalf("advisory score = %d, want 0", got)
	}
}

func TestNavigation(t *testing.T) {
	s := startedSession(t, okScoring(assessment.SeverityMild))

	// Previous at the first question stays put.
	if err := s.Previous(); err != nil {
		t.Fatalf("Previous at 0: %v", err)
	}
	if got := s.Index(); got != 0 {
		t.Fatalf("index = %d, want 0", got)
	}

	// Next advances without requiring an answer.
	if _, err := s.Next(context.Background()); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got := s.Index(); got != 1 {
		t.Fatalf("index = %d, want 1", got)
	}

	// Jump anywhere in range, answered or not.
	if err := s.JumpTo(2); err != nil {
		t.Fatalf("JumpTo(2): %v", err)
	}
	if err := s.JumpTo(0); err != nil {
		t.Fatalf("JumpTo(0): %v", err)
	}

	var vErr *ValidationError
	if err := s.JumpTo(3); !errors.As(err, &vErr) {
		t.Fatalf("JumpTo out of range: got %v, want ValidationError", err)
	}
	if err := s.JumpTo(-1); !errors.As(err, &vErr) {
		t.Fatalf("JumpTo negative: got %v, want ValidationError", err)
	}
}

func TestSubmitRequiresCoverage(t *testing.T) {
	s := startedSession(t, okScoring(assessment.SeverityMild))

	if err := s.SetAnswer("q1", 1); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}

	var vErr *ValidationError
	if _, err := s.Submit(context.Background()); !errors.As(err, &vErr) {
		t.Fatalf("Submit with missing required: got %v, want ValidationError", err)
	} else if len(vErr.Missing) != 1 || vErr.Missing[0] != "q2" {
		t.Fatalf("missing ids = %v, want [q2]", vErr.Missing)
	}

	// A failed validation keeps the questionnaire live.
	if got := s.Phase(); got != PhaseInProgress {
		t.Fatalf("phase after rejected submit = %s, want %s", got, PhaseInProgress)
	}
	if got := s.RequiredRemaining(); len(got) != 1 || got[0] != "q2" {
		t.Fatalf("RequiredRemaining = %v, want [q2]", got)
	}
}

func TestNextFromLastQuestionSubmits(t *testing.T) {
	var seen []assessment.Response
	scoring := &fakeScoring{fn: func(ctx context.Context, req SubmitRequest) (*assessment.SubmissionResult, error) {
		seen = req.Responses
		return &assessment.SubmissionResult{SubmissionID: "sub-9", TotalScore: 3, Severity: assessment.SeverityMild}, nil
	}}
	s := startedSession(t, scoring)

	for _, id := range []string{"q1", "q2", "q3"} {
		if err := s.SetAnswer(id, 1); err != nil {
			t.Fatalf("SetAnswer(%s): %v", id, err)
		}
	}
	if err := s.JumpTo(2); err != nil {
		t.Fatalf("JumpTo(2): %v", err)
	}

	res, err := s.Next(context.Background())
	if err != nil {
		t.Fatalf("Next at last question: %v", err)
	}
	if res == nil || res.SubmissionID != "sub-9" {
		t.Fatalf("result = %+v, want submission sub-9", res)
	}
	if got := s.Phase(); got != PhaseCompleted {
		t.Fatalf("phase = %s, want %s", got, PhaseCompleted)
	}

	// The payload is ordered by definition, not by answer time.
	if len(seen) != 3 || seen[0].QuestionID != "q1" || seen[1].QuestionID != "q2" || seen[2].QuestionID != "q3" {
		t.Fatalf("submitted responses out of order: %+v", seen)
	}
}

func TestSubmitFailureIsResumable(t *testing.T) {
	calls := 0
	scoring := &fakeScoring{fn: func(ctx context.Context, req SubmitRequest) (*assessment.SubmissionResult, error) {
		calls++
		if calls == 1 {
			return nil, &provider.NetworkError{Op: "submit responses", Err: errors.New("connection refused")}
		}
		return &assessment.SubmissionResult{SubmissionID: "sub-2", TotalScore: 2, Severity: assessment.SeverityMinimal}, nil
	}}
	s := startedSession(t, scoring)

	if err := s.SetAnswer("q1", 1); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if err := s.SetAnswer("q2", 1); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}

	var netErr *provider.NetworkError
	if _, err := s.Submit(context.Background()); !errors.As(err, &netErr) {
		t.Fatalf("first submit: got %v, want NetworkError", err)
	}

	// Back in the questionnaire with every answer intact.
	if got := s.Phase(); got != PhaseInProgress {
		t.Fatalf("phase after failed submit = %s, want %s", got, PhaseInProgress)
	}
	if got := s.AnsweredCount(); got != 2 {
		t.Fatalf("answers lost: count = %d, want 2", got)
	}

	res, err := s.Submit(context.Background())
	if err != nil {
		t.Fatalf("retry submit: %v", err)
	}
	if res.SubmissionID != "sub-2" {
		t.Fatalf("retry result = %+v", res)
	}
	if calls != 2 {
		t.Fatalf("scoring called %d times, want 2", calls)
	}
}

func TestConcurrentSubmitSingleFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	scoring := &fakeScoring{fn: func(ctx context.Context, req SubmitRequest) (*assessment.SubmissionResult, error) {
		close(entered)
		<-release
		return &assessment.SubmissionResult{SubmissionID: "sub-3", Severity: assessment.SeverityModerate}, nil
	}}
	s := startedSession(t, scoring)

	if err := s.SetAnswer("q1", 1); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if err := s.SetAnswer("q2", 1); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}

	firstDone := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background())
		firstDone <- err
	}()

	<-entered

	// A second submit while the first is on the wire is rejected without
	// triggering another scoring call.
	if _, err := s.Submit(context.Background()); !errors.Is(err, ErrSubmissionInFlight) {
		t.Fatalf("duplicate submit: got %v, want ErrSubmissionInFlight", err)
	}
	if err := s.Abandon(); !errors.Is(err, ErrSubmissionInFlight) {
		t.Fatalf("abandon mid-submit: got %v, want ErrSubmissionInFlight", err)
	}

	close(release)
	if err := <-firstDone; err != nil {
		t.Fatalf("winning submit failed: %v", err)
	}
	if got := s.Phase(); got != PhaseCompleted {
		t.Fatalf("phase = %s, want %s", got, PhaseCompleted)
	}
}

func TestCompletedIsImmutable(t *testing.T) {
	s := startedSession(t, okScoring(assessment.SeveritySevere))

	if err := s.SetAnswer("q1", 3); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if err := s.SetAnswer("q2", 3); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	var phaseErr *InvalidPhaseError
	if err := s.SetAnswer("q1", 0); !errors.As(err, &phaseErr) {
		t.Fatalf("SetAnswer after completion: got %v, want InvalidPhaseError", err)
	}
	if _, err := s.Submit(context.Background()); !errors.As(err, &phaseErr) {
		t.Fatalf("re-submit after completion: got %v, want InvalidPhaseError", err)
	}
	if err := s.Abandon(); !errors.As(err, &phaseErr) {
		t.Fatalf("abandon after completion: got %v, want InvalidPhaseError", err)
	}

	res := s.Result()
	if res == nil || res.Severity != assessment.SeveritySevere {
		t.Fatalf("result = %+v, want severe", res)
	}
}

func TestAbandon(t *testing.T) {
	phases := []struct {
		name  string
		setup func(t *testing.T) *Session
	}{
		{"from consent", func(t *testing.T) *Session {
			return New("p", testDefinition(), okScoring(assessment.SeverityMild))
		}},
		{"from instructions", func(t *testing.T) *Session {
			s := New("p", testDefinition(), okScoring(assessment.SeverityMild))
			if err := s.AcceptConsent(); err != nil {
				t.Fatal(err)
			}
			return s
		}},
		{"from in progress", func(t *testing.T) *Session {
			return startedSession(t, okScoring(assessment.SeverityMild))
		}},
	}
	for _, tt := range phases {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.setup(t)
			if err := s.Abandon(); err != nil {
				t.Fatalf("Abandon: %v", err)
			}
			if got := s.Phase(); got != PhaseFailed {
				t.Fatalf("phase = %s, want %s", got, PhaseFailed)
			}
			if !s.Phase().Terminal() {
				t.Fatal("failed phase should be terminal")
			}
		})
	}
}
