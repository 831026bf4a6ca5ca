package escalation

import "errors"

var (
	// ErrNotEligible rejects escalation operations for severities below the
	// moderate threshold.
	ErrNotEligible = errors.New("severity does not require escalation")

	// ErrSlotTaken means another requester won the slot. The same slot is
	// never retried; the caller gets a corrected list instead.
	ErrSlotTaken = errors.New("slot is no longer available")

	// ErrReserveInFlight rejects a duplicate reserve for a slot whose
	// previous request has not resolved yet (double-click guard).
	ErrReserveInFlight = errors.New("a reservation for this slot is already pending")
)
