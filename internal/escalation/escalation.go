// Package escalation drives the crisis-escalation workflow: after a
// moderate-or-worse result it offers a same-week appointment slot and runs
// the conflict-aware reservation exchange against the scheduling backend.
package escalation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/arvanehlab/ravan_backend/internal/assessment"
	"github.com/arvanehlab/ravan_backend/internal/provider"
)

// SlotGateway is the consuming side of the scheduling backend.
type SlotGateway interface {
	ListOpenSlots(ctx context.Context, from, to time.Time) ([]assessment.Slot, error)
	Reserve(ctx context.Context, slotID string) error
}

// ReservedFunc observes successful reservations, for confirmation alerting.
type ReservedFunc func(personID, slotID string)

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	// OpenSlots lists open slots in the escalation window [now, now+N days].
	// Stale listings are acceptable; reservation is conditional anyway.
	OpenSlots(ctx context.Context, severity assessment.Severity) ([]assessment.Slot, error)

	// Reserve requests one slot. On conflict the returned slot list is the
	// refetched, corrected window and err is ErrSlotTaken; the attempt
	// outcome distinguishes reserved/conflict/error.
	Reserve(ctx context.Context, severity assessment.Severity, personID, slotID string) (assessment.BookingAttempt, []assessment.Slot, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type service struct {
	slots      SlotGateway
	windowDays int
	onReserved ReservedFunc

	// inflight is the per-slot reservation guard: at most one reserve call
	// may be outstanding per slot id, no matter how often the person clicks.
	mu       sync.Mutex
	inflight map[string]struct{}
}

func New(slots SlotGateway, windowDays int, onReserved ReservedFunc) Service {
	if windowDays <= 0 {
		windowDays = 7
	}
	return &service{
		slots:      slots,
		windowDays: windowDays,
		onReserved: onReserved,
		inflight:   make(map[string]struct{}),
	}
}

func (s *service) window() (time.Time, time.Time) {
	now := time.Now().UTC()
	return now, now.AddDate(0, 0, s.windowDays)
}

func (s *service) OpenSlots(ctx context.Context, severity assessment.Severity) ([]assessment.Slot, error) {
	if !severity.RequiresEscalation() {
		return nil, ErrNotEligible
	}
	from, to := s.window()
	return s.slots.ListOpenSlots(ctx, from, to)
}

func (s *service) Reserve(ctx context.Context, severity assessment.Severity, personID, slotID string) (assessment.BookingAttempt, []assessment.Slot, error) {
	attempt := assessment.BookingAttempt{SlotID: slotID}

	if !severity.RequiresEscalation() {
		attempt.Outcome = assessment.BookingError
		return attempt, nil, ErrNotEligible
	}

	s.mu.Lock()
	if _, pending := s.inflight[slotID]; pending {
		s.mu.Unlock()
		attempt.Outcome = assessment.BookingError
		return attempt, nil, ErrReserveInFlight
	}
	s.inflight[slotID] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inflight, slotID)
		s.mu.Unlock()
	}()

	err := s.slots.Reserve(ctx, slotID)
	switch {
	case err == nil:
		attempt.Outcome = assessment.BookingReserved
		if s.onReserved != nil {
			s.onReserved(personID, slotID)
		}
		return attempt, nil, nil

	case errors.Is(err, provider.ErrConflict):
		// Lost the race. Never retry this slot; hand back the corrected
		// window so the stale entry disappears from the caller's list.
		attempt.Outcome = assessment.BookingConflict
		from, to := s.window()
		fresh, listErr := s.slots.ListOpenSlots(ctx, from, to)
		if listErr != nil {
			// The conflict outcome stands even if the refetch failed.
			return attempt, nil, ErrSlotTaken
		}
		return attempt, fresh, ErrSlotTaken

	default:
		// Transient failure: the slot stays visible for an explicit retry.
		attempt.Outcome = assessment.BookingError
		return attempt, nil, err
	}
}
