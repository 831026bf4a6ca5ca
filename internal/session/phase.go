package session

// Phase is the position of an attempt in its lifecycle. Transitions are
// monotonic along Consent -> Instructions -> InProgress -> Submitting ->
// Completed/Failed; anything not in the table below is rejected.
type Phase string

const (
	PhaseConsent      Phase = "consent"
	PhaseInstructions Phase = "instructions"
	PhaseInProgress   Phase = "in_progress"
	PhaseSubmitting   Phase = "submitting"
	PhaseCompleted    Phase = "completed"
	PhaseFailed       Phase = "failed"
)

// transitions is the full set of legal phase changes. Submitting ->
// InProgress is the resumable-failure path; Failed is reachable from every
// non-terminal phase through user-initiated abandonment.
var transitions = map[Phase][]Phase{
	PhaseConsent:      {PhaseInstructions, PhaseFailed},
	PhaseInstructions: {PhaseInProgress, PhaseFailed},
	PhaseInProgress:   {PhaseSubmitting, PhaseFailed},
	PhaseSubmitting:   {PhaseCompleted, PhaseInProgress},
	PhaseCompleted:    {},
	PhaseFailed:       {},
}

func (p Phase) canTransition(to Phase) bool {
	for _, t := range transitions[p] {
		if t == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the attempt is finished; terminal attempts are
// discarded and a fresh one must be started instead.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed
}
