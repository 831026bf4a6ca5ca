package app

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/arvanehlab/ravan_backend/config"
	"github.com/arvanehlab/ravan_backend/internal/assessment"
	"github.com/arvanehlab/ravan_backend/internal/escalation"
	"github.com/arvanehlab/ravan_backend/internal/onboarding"
	"github.com/arvanehlab/ravan_backend/internal/provider/assessmentapi"
	"github.com/arvanehlab/ravan_backend/internal/provider/slotapi"
	"github.com/arvanehlab/ravan_backend/internal/session"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvideSessionManager,
		ProvideEscalationService,
		ProvideOnboardingStore,
	),
)

func ProvideSessionManager(cfg *config.Config, rdb *redis.Client, assess *assessmentapi.Client, nc *nats.Conn) *session.Manager {
	ttl := time.Duration(cfg.Session.SnapshotTTLMinutes) * time.Minute

	onCompleted := func(attemptID uuid.UUID, personID string, res *assessment.SubmissionResult) {
		raw, err := json.Marshal(completedEvent{PersonID: personID, Severity: string(res.Severity)})
		if err != nil {
			return
		}
		if err := nc.Publish(subjectAssessmentCompleted+attemptID.String(), raw); err != nil {
			slog.Warn("publish assessment completed event", "attempt_id", attemptID, "err", err)
		}
	}

	// The same client serves definition loading and scoring: both live on
	// the assessment backend.
	return session.NewManager(assess, assess, rdb, ttl, onCompleted)
}

func ProvideEscalationService(cfg *config.Config, slots *slotapi.Client, nc *nats.Conn) escalation.Service {
	onReserved := func(personID, slotID string) {
		raw, err := json.Marshal(reservedEvent{PersonID: personID, SlotID: slotID})
		if err != nil {
			return
		}
		if err := nc.Publish(subjectEscalationReserved+slotID, raw); err != nil {
			slog.Warn("publish escalation reserved event", "slot_id", slotID, "err", err)
		}
	}

	return escalation.New(slots, cfg.Escalation.WindowDays, onReserved)
}

func ProvideOnboardingStore(rdb *redis.Client) onboarding.Store {
	return onboarding.New(rdb)
}
