package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/arvanehlab/ravan_backend/internal/assessment"
)

// DefinitionLoader is the consuming side of the assessment content
// provider. Definitions are immutable once loaded.
type DefinitionLoader interface {
	Load(ctx context.Context, assessmentID string) (*assessment.Definition, error)
}

// CompletedFunc observes the Completed transition of any attempt owned by
// the Manager. Used to publish the completion event for the escalation and
// alerting workers.
type CompletedFunc func(attemptID uuid.UUID, personID string, res *assessment.SubmissionResult)

// Manager owns every active attempt in this process. Each attempt is
// snapshotted to Redis after mutations so it survives a restart mid
// questionnaire; terminal attempts are discarded and only a compact result
// record is kept (with TTL) so the escalation flow can verify eligibility.
type Manager struct {
	mu     sync.Mutex
	active map[uuid.UUID]*Session

	defs        DefinitionLoader
	scoring     ScoringGateway
	rdb         *redis.Client
	ttl         time.Duration
	onCompleted CompletedFunc
}

func NewManager(defs DefinitionLoader, scoring ScoringGateway, rdb *redis.Client, snapshotTTL time.Duration, onCompleted CompletedFunc) *Manager {
	return &Manager{
		active:      make(map[uuid.UUID]*Session),
		defs:        defs,
		scoring:     scoring,
		rdb:         rdb,
		ttl:         snapshotTTL,
		onCompleted: onCompleted,
	}
}

// Begin starts a fresh attempt in the Consent phase.
func (m *Manager) Begin(ctx context.Context, personID, assessmentID string) (*Session, error) {
	def, err := m.defs.Load(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("load assessment definition: %w", err)
	}

	s := New(personID, def, m.scoring)
	s.onCompleted = m.handleCompleted

	m.mu.Lock()
	m.active[s.id] = s
	m.mu.Unlock()

	m.snapshot(ctx, s)
	return s, nil
}

// Get returns the caller's attempt, restoring it from its Redis snapshot if
// this process no longer holds it in memory.
func (m *Manager) Get(ctx context.Context, attemptID uuid.UUID, personID string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.active[attemptID]
	m.mu.Unlock()

	if !ok {
		restored, err := m.restore(ctx, attemptID)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		// Another request may have restored it first; keep the winner.
		if cur, dup := m.active[attemptID]; dup {
			restored = cur
		} else {
			m.active[attemptID] = restored
		}
		m.mu.Unlock()
		s = restored
	}

	if s.personID != personID {
		return nil, ErrNotOwner
	}
	return s, nil
}

// Touch persists the attempt's current state after a mutation. Terminal
// attempts are dropped from the registry instead.
func (m *Manager) Touch(ctx context.Context, s *Session) {
	if s.Phase().Terminal() {
		m.discard(ctx, s)
		return
	}
	m.snapshot(ctx, s)
}

// CompletedResult returns the result record of a completed attempt, for the
// escalation flow. The record expires with the snapshot TTL.
func (m *Manager) CompletedResult(ctx context.Context, attemptID uuid.UUID, personID string) (*assessment.SubmissionResult, error) {
	raw, err := m.rdb.Get(ctx, resultKey(attemptID)).Bytes()
	if err == redis.Nil {
		return nil, ErrAttemptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load result record: %w", err)
	}

	var rec resultRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode result record: %w", err)
	}
	if rec.PersonID != personID {
		return nil, ErrNotOwner
	}
	return &rec.Result, nil
}

// ---------------------------------------------------------------------------
// Persistence
// ---------------------------------------------------------------------------

// snapshotRecord holds exactly what resuming a questionnaire needs; the
// definition itself is re-fetched from the content provider on restore.
type snapshotRecord struct {
	ID           uuid.UUID                `json:"id"`
	PersonID     string                   `json:"person_id"`
	AssessmentID string                   `json:"assessment_id"`
	Phase        Phase                    `json:"phase"`
	Index        int                      `json:"index"`
	Answers      map[string]int           `json:"answers"`
	Consent      assessment.ConsentRecord `json:"consent"`
	StartedAt    time.Time                `json:"started_at"`
}

type resultRecord struct {
	PersonID string                      `json:"person_id"`
	Result   assessment.SubmissionResult `json:"result"`
}

func attemptKey(id uuid.UUID) string { return "attempt:" + id.String() }
func resultKey(id uuid.UUID) string  { return "attempt_result:" + id.String() }

func (m *Manager) snapshot(ctx context.Context, s *Session) {
	s.mu.Lock()
	rec := snapshotRecord{
		ID:           s.id,
		PersonID:     s.personID,
		AssessmentID: s.def.ID,
		Phase:        s.phase,
		Index:        s.index,
		Answers:      s.answers.values,
		Consent:      s.consent,
		StartedAt:    s.startedAt,
	}
	// A submission in flight is not a resumable position; resume back in
	// the questionnaire.
	if rec.Phase == PhaseSubmitting {
		rec.Phase = PhaseInProgress
	}
	raw, err := json.Marshal(rec)
	s.mu.Unlock()
	if err != nil {
		slog.Error("marshal attempt snapshot", "attempt_id", s.id, "err", err)
		return
	}

	if err := m.rdb.Set(ctx, attemptKey(s.id), raw, m.ttl).Err(); err != nil {
		// Snapshot loss only costs resumability, never the live attempt.
		slog.Warn("persist attempt snapshot", "attempt_id", s.id, "err", err)
	}
}

func (m *Manager) restore(ctx context.Context, attemptID uuid.UUID) (*Session, error) {
	raw, err := m.rdb.Get(ctx, attemptKey(attemptID)).Bytes()
	if err == redis.Nil {
		return nil, ErrAttemptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load attempt snapshot: %w", err)
	}

	var rec snapshotRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode attempt snapshot: %w", err)
	}

	def, err := m.defs.Load(ctx, rec.AssessmentID)
	if err != nil {
		return nil, fmt.Errorf("reload assessment definition: %w", err)
	}

	s := New(rec.PersonID, def, m.scoring)
	s.id = rec.ID
	s.phase = rec.Phase
	s.index = rec.Index
	s.consent = rec.Consent
	s.startedAt = rec.StartedAt
	for qid, v := range rec.Answers {
		// Drop any answer the current definition no longer declares.
		if q, ok := def.Question(qid); ok && q.HasOptionValue(v) {
			s.answers.values[qid] = v
		}
	}
	s.onCompleted = m.handleCompleted
	return s, nil
}

func (m *Manager) discard(ctx context.Context, s *Session) {
	m.mu.Lock()
	delete(m.active, s.id)
	m.mu.Unlock()

	if err := m.rdb.Del(ctx, attemptKey(s.id)).Err(); err != nil {
		slog.Warn("delete attempt snapshot", "attempt_id", s.id, "err", err)
	}
}

// handleCompleted runs once per attempt, after the Completed transition.
func (m *Manager) handleCompleted(s *Session, res *assessment.SubmissionResult) {
	ctx := context.Background()

	raw, err := json.Marshal(resultRecord{PersonID: s.personID, Result: *res})
	if err == nil {
		if err := m.rdb.Set(ctx, resultKey(s.id), raw, m.ttl).Err(); err != nil {
			slog.Warn("persist result record", "attempt_id", s.id, "err", err)
		}
	}

	m.discard(ctx, s)

	if m.onCompleted != nil {
		m.onCompleted(s.id, s.personID, res)
	}
}
