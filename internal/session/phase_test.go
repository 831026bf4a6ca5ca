package session

import "testing"

func TestPhaseTransitionTable(t *testing.T) {
	all := []Phase{PhaseConsent, PhaseInstructions, PhaseInProgress, PhaseSubmitting, PhaseCompleted, PhaseFailed}

	allowed := map[Phase]map[Phase]bool{
		PhaseConsent:      {PhaseInstructions: true, PhaseFailed: true},
		PhaseInstructions: {PhaseInProgress: true, PhaseFailed: true},
		PhaseInProgress:   {PhaseSubmitting: true, PhaseFailed: true},
		PhaseSubmitting:   {PhaseCompleted: true, PhaseInProgress: true},
		PhaseCompleted:    {},
		PhaseFailed:       {},
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[from][to]
			if got := from.canTransition(to); got != want {
				t.Errorf("canTransition(%s -> %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestTerminalPhases(t *testing.T) {
	terminal := map[Phase]bool{
		PhaseConsent:      false,
		PhaseInstructions: false,
		PhaseInProgress:   false,
		PhaseSubmitting:   false,
		PhaseCompleted:    true,
		PhaseFailed:       true,
	}
	for p, want := range terminal {
		if got := p.Terminal(); got != want {
			t.Errorf("Terminal(%s) = %v, want %v", p, got, want)
		}
	}
}
