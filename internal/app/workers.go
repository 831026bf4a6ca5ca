package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"
	"go.uber.org/fx"

	"github.com/arvanehlab/ravan_backend/config"
	"github.com/arvanehlab/ravan_backend/internal/assessment"
	"github.com/arvanehlab/ravan_backend/pkg/email"
	"github.com/arvanehlab/ravan_backend/pkg/sms"
)

// WorkerModule registers all NATS event workers.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

type WorkerParams struct {
	fx.In

	Lc    fx.Lifecycle
	NC    *nats.Conn
	Cfg   *config.Config
	SMS   *sms.Client
	Email *email.Client
}

func RegisterWorkers(p WorkerParams) {
	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			startCrisisAlertWorker(p.NC, p.Cfg, p.SMS, p.Email)
			startBookingWorker(p.NC, p.Cfg, p.Email)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			// Drain handled by ProvideNatsClient
			return nil
		},
	})
}

// ---------------------------------------------------------------------------
// crisis_alert_worker
// ---------------------------------------------------------------------------

// startCrisisAlertWorker notifies the on-call care team when a completed
// assessment comes back severe. Alerting is best-effort: failures are logged
// and never surfaced to the person taking the assessment.
func startCrisisAlertWorker(nc *nats.Conn, cfg *config.Config, smsCli *sms.Client, emailCli *email.Client) {
	_, err := nc.Subscribe(subjectAssessmentCompleted+"*", func(msg *nats.Msg) {
		attemptID := strings.TrimPrefix(msg.Subject, subjectAssessmentCompleted)

		var ev completedEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			slog.Warn("crisis_alert_worker: bad event payload", "subject", msg.Subject, "err", err)
			return
		}

		sev, ok := assessment.ParseSeverity(ev.Severity)
		if !ok || sev != assessment.SeveritySevere {
			return
		}

		ctx := context.Background()
		care := cfg.Escalation.CareTeam

		if smsCli.IsEnabled() && care.Phone != "" {
			err := smsCli.SendCrisisAlert(ctx, care.Phone, cfg.SMS.SMSIR.TemplateID, ev.PersonID, ev.Severity)
			if err != nil {
				slog.Warn("crisis_alert_worker: sms send failed", "attempt_id", attemptID, "err", err)
			}
		}

		if emailCli.IsEnabled() && len(care.Email) > 0 {
			err := emailCli.Send(ctx, email.CrisisAlert(care.Email, ev.PersonID, attemptID, ev.Severity))
			if err != nil {
				slog.Warn("crisis_alert_worker: email send failed", "attempt_id", attemptID, "err", err)
			}
		}
	})
	if err != nil {
		slog.Error("crisis_alert_worker: subscribe assessment.completed failed", "err", err)
	}

	slog.Info("crisis_alert_worker: started")
}

// ---------------------------------------------------------------------------
// booking_worker
// ---------------------------------------------------------------------------

func startBookingWorker(nc *nats.Conn, cfg *config.Config, emailCli *email.Client) {
	_, err := nc.Subscribe(subjectEscalationReserved+"*", func(msg *nats.Msg) {
		var ev reservedEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			slog.Warn("booking_worker: bad event payload", "subject", msg.Subject, "err", err)
			return
		}

		care := cfg.Escalation.CareTeam
		if !emailCli.IsEnabled() || len(care.Email) == 0 {
			return
		}

		ctx := context.Background()
		err := emailCli.Send(ctx, email.BookingConfirmation(care.Email, ev.PersonID, ev.SlotID))
		if err != nil {
			slog.Warn("booking_worker: confirmation email failed", "slot_id", ev.SlotID, "err", err)
		}
	})
	if err != nil {
		slog.Error("booking_worker: subscribe escalation.reserved failed", "err", err)
	}

	slog.Info("booking_worker: started")
}
