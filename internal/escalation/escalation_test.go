package escalation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/arvanehlab/ravan_backend/internal/assessment"
	"github.com/arvanehlab/ravan_backend/internal/provider"
)

type fakeSlots struct {
	mu         sync.Mutex
	listCalls  int
	listSlots  []assessment.Slot
	listErr    error
	reserveFn  func(slotID string) error
	reserveLog []string
}

func (f *fakeSlots) ListOpenSlots(ctx context.Context, from, to time.Time) ([]assessment.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return f.listSlots, f.listErr
}

func (f *fakeSlots) Reserve(ctx context.Context, slotID string) error {
	f.mu.Lock()
	f.reserveLog = append(f.reserveLog, slotID)
	fn := f.reserveFn
	f.mu.Unlock()
	if fn != nil {
		return fn(slotID)
	}
	return nil
}

func openSlots(ids ...string) []assessment.Slot {
	out := make([]assessment.Slot, 0, len(ids))
	for i, id := range ids {
		out = append(out, assessment.Slot{
			ID:              id,
			StartTime:       time.Now().UTC().Add(time.Duration(i+1) * 24 * time.Hour),
			DurationMinutes: 50,
		})
	}
	return out
}

func TestSeverityGating(t *testing.T) {
	tests := []struct {
		severity assessment.Severity
		eligible bool
	}{
		{assessment.SeverityMinimal, false},
		{assessment.SeverityMild, false},
		{assessment.SeverityModerate, true},
		{assessment.SeveritySevere, true},
		{assessment.Severity("unexpected"), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			gw := &fakeSlots{listSlots: openSlots("s1")}
			svc := New(gw, 7, nil)

			_, err := svc.OpenSlots(context.Background(), tt.severity)
			if tt.eligible && err != nil {
				t.Fatalf("OpenSlots: %v", err)
			}
			if !tt.eligible && !errors.Is(err, ErrNotEligible) {
				t.Fatalf("OpenSlots: got %v, want ErrNotEligible", err)
			}

			attempt, _, err := svc.Reserve(context.Background(), tt.severity, "person-1", "s1")
			if tt.eligible {
				if err != nil {
					t.Fatalf("Reserve: %v", err)
				}
				if attempt.Outcome != assessment.BookingReserved {
					t.Fatalf("outcome = %s, want reserved", attempt.Outcome)
				}
			} else {
				if !errors.Is(err, ErrNotEligible) {
					t.Fatalf("Reserve: got %v, want ErrNotEligible", err)
				}
				if len(gw.reserveLog) != 0 {
					t.Fatal("ineligible reserve reached the backend")
				}
			}
		})
	}
}

func TestReserveSuccessNotifies(t *testing.T) {
	gw := &fakeSlots{}
	var gotPerson, gotSlot string
	svc := New(gw, 7, func(personID, slotID string) {
		gotPerson, gotSlot = personID, slotID
	})

	attempt, fresh, err := svc.Reserve(context.Background(), assessment.SeverityModerate, "person-1", "slot-a")
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if attempt.Outcome != assessment.BookingReserved || attempt.SlotID != "slot-a" {
		t.Fatalf("attempt = %+v", attempt)
	}
	if fresh != nil {
		t.Fatalf("fresh list on success = %v, want nil", fresh)
	}
	if gotPerson != "person-1" || gotSlot != "slot-a" {
		t.Fatalf("onReserved got (%s, %s)", gotPerson, gotSlot)
	}
}

func TestReserveConflictRefetchesList(t *testing.T) {
	gw := &fakeSlots{
		listSlots: openSlots("s2", "s3"),
		reserveFn: func(string) error { return provider.ErrConflict },
	}
	notified := false
	svc := New(gw, 7, func(string, string) { notified = true })

	attempt, fresh, err := svc.Reserve(context.Background(), assessment.SeveritySevere, "person-1", "s1")
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("Reserve: got %v, want ErrSlotTaken", err)
	}
	if attempt.Outcome != assessment.BookingConflict {
		t.Fatalf("outcome = %s, want conflict", attempt.Outcome)
	}
	if len(fresh) != 2 {
		t.Fatalf("corrected list = %v, want 2 slots", fresh)
	}
	if gw.listCalls != 1 {
		t.Fatalf("list calls = %d, want 1", gw.listCalls)
	}
	if notified {
		t.Fatal("onReserved fired for a lost race")
	}
	// The losing slot was tried exactly once: conflicts are never retried.
	if len(gw.reserveLog) != 1 {
		t.Fatalf("reserve calls = %v, want one", gw.reserveLog)
	}
}

func TestReserveConflictStandsWhenRefetchFails(t *testing.T) {
	gw := &fakeSlots{
		listErr:   errors.New("listing down"),
		reserveFn: func(string) error { return provider.ErrConflict },
	}
	svc := New(gw, 7, nil)

	attempt, fresh, err := svc.Reserve(context.Background(), assessment.SeverityModerate, "person-1", "s1")
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("Reserve: got %v, want ErrSlotTaken", err)
	}
	if attempt.Outcome != assessment.BookingConflict {
		t.Fatalf("outcome = %s, want conflict", attempt.Outcome)
	}
	if fresh != nil {
		t.Fatalf("fresh = %v, want nil when refetch fails", fresh)
	}
}

func TestReserveTransientErrorLeavesSlotRetryable(t *testing.T) {
	boom := &provider.NetworkError{Op: "reserve slot", Err: errors.New("timeout")}
	gw := &fakeSlots{reserveFn: func(string) error { return boom }}
	svc := New(gw, 7, nil)

	attempt, fresh, err := svc.Reserve(context.Background(), assessment.SeverityModerate, "person-1", "s1")
	var netErr *provider.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("Reserve: got %v, want NetworkError", err)
	}
	if attempt.Outcome != assessment.BookingError {
		t.Fatalf("outcome = %s, want error", attempt.Outcome)
	}
	if fresh != nil {
		t.Fatalf("fresh = %v, want nil", fresh)
	}

	// An explicit retry of the same slot is allowed after a transient error.
	gw.reserveFn = nil
	attempt, _, err = svc.Reserve(context.Background(), assessment.SeverityModerate, "person-1", "s1")
	if err != nil || attempt.Outcome != assessment.BookingReserved {
		t.Fatalf("retry after transient error: %+v, %v", attempt, err)
	}
}

func TestReserveInFlightGuard(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var enteredOnce sync.Once
	gw := &fakeSlots{reserveFn: func(string) error {
		enteredOnce.Do(func() { close(entered) })
		<-release
		return nil
	}}
	svc := New(gw, 7, nil)

	done := make(chan error, 1)
	go func() {
		_, _, err := svc.Reserve(context.Background(), assessment.SeveritySevere, "person-1", "s1")
		done <- err
	}()

	<-entered

	// Same slot while pending: rejected before reaching the backend.
	_, _, err := svc.Reserve(context.Background(), assessment.SeveritySevere, "person-1", "s1")
	if !errors.Is(err, ErrReserveInFlight) {
		t.Fatalf("duplicate reserve: got %v, want ErrReserveInFlight", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("winning reserve: %v", err)
	}

	// The guard releases once the exchange resolves.
	_, _, err = svc.Reserve(context.Background(), assessment.SeveritySevere, "person-1", "s1")
	if err != nil {
		t.Fatalf("reserve after guard release: %v", err)
	}
}

func TestConcurrentReservesOneWinner(t *testing.T) {
	// The backend arbitrates: first request wins, every later one conflicts.
	var mu sync.Mutex
	taken := false
	gw := &fakeSlots{
		listSlots: openSlots("s2"),
		reserveFn: func(string) error {
			mu.Lock()
			defer mu.Unlock()
			if taken {
				return provider.ErrConflict
			}
			taken = true
			return nil
		},
	}

	// Two distinct services model two independent processes racing for the
	// same slot; the per-process guard does not apply across them.
	svcA := New(gw, 7, nil)
	svcB := New(gw, 7, nil)

	type outcome struct {
		attempt assessment.BookingAttempt
		err     error
	}
	results := make(chan outcome, 2)
	var wg sync.WaitGroup
	for _, svc := range []Service{svcA, svcB} {
		wg.Add(1)
		go func(s Service) {
			defer wg.Done()
			a, _, err := s.Reserve(context.Background(), assessment.SeveritySevere, "person-x", "s1")
			results <- outcome{a, err}
		}(svc)
	}
	wg.Wait()
	close(results)

	var reserved, conflicted int
	for r := range results {
		switch r.attempt.Outcome {
		case assessment.BookingReserved:
			reserved++
		case assessment.BookingConflict:
			conflicted++
			if !errors.Is(r.err, ErrSlotTaken) {
				t.Fatalf("conflict outcome with err %v", r.err)
			}
		default:
			t.Fatalf("unexpected outcome %+v", r)
		}
	}
	if reserved != 1 || conflicted != 1 {
		t.Fatalf("reserved=%d conflicted=%d, want exactly one of each", reserved, conflicted)
	}
}
