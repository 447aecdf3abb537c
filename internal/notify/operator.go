// Package notify delivers best-effort reschedule notifications to field
// operators. Delivery failures are logged and counted, never surfaced to
// the scheduling transition that triggered them.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/meterflow/contatori/internal/appointments"
	"github.com/meterflow/contatori/internal/messaging"
	"github.com/meterflow/contatori/internal/observability/metrics"
	"github.com/meterflow/contatori/pkg/logging"
)

// Outcome classifies a notification attempt.
type Outcome string

const (
	// OutcomeDelivered means the gateway accepted the message.
	OutcomeDelivered Outcome = "delivered"
	// OutcomeNoTarget means no operator is linked to the appointment.
	OutcomeNoTarget Outcome = "no_target"
	// OutcomeFailed means resolution or delivery failed.
	OutcomeFailed Outcome = "failed"
)

// OperatorDirectory resolves the notification target for a serial number.
type OperatorDirectory interface {
	OperatorContact(ctx context.Context, serial string) (*appointments.OperatorContact, error)
}

// Notifier composes and sends the reschedule SMS to the assigned operator.
type Notifier struct {
	directory OperatorDirectory
	sms       messaging.SMSSender
	logger    *logging.Logger
	metrics   *metrics.NotifyMetrics
}

// NewNotifier creates an operator notifier.
func NewNotifier(directory OperatorDirectory, sms messaging.SMSSender, m *metrics.NotifyMetrics, logger *logging.Logger) *Notifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &Notifier{
		directory: directory,
		sms:       sms,
		logger:    logger,
		metrics:   m,
	}
}

// NotifyReschedule resolves the operator for serial and sends the slot
// change message. Never returns an error: every failure mode collapses
// into an Outcome so callers cannot accidentally couple scheduling
// success to delivery success.
func (n *Notifier) NotifyReschedule(ctx context.Context, serial string, previous, next appointments.Slot) Outcome {
	contact, err := n.directory.OperatorContact(ctx, serial)
	if err != nil {
		if errors.Is(err, appointments.ErrNoOperator) {
			n.logger.Warn("notify: no operator linked, skipping", "serial", serial)
			n.metrics.ObserveNotification(string(OutcomeNoTarget))
			return OutcomeNoTarget
		}
		n.logger.Error("notify: operator resolution failed", "error", err, "serial", serial)
		n.metrics.ObserveNotification(string(OutcomeFailed))
		return OutcomeFailed
	}

	body := composeRescheduleSMS(serial, contact, previous, next)
	if err := n.sms.SendSMS(ctx, contact.OperatorPhone, body); err != nil {
		n.logger.Error("notify: operator SMS failed", "error", err, "serial", serial, "operator", contact.OperatorName)
		n.metrics.ObserveNotification(string(OutcomeFailed))
		return OutcomeFailed
	}

	n.logger.Info("notify: operator SMS sent", "serial", serial, "operator", contact.OperatorName)
	n.metrics.ObserveNotification(string(OutcomeDelivered))
	return OutcomeDelivered
}

func composeRescheduleSMS(serial string, contact *appointments.OperatorContact, previous, next appointments.Slot) string {
	return fmt.Sprintf(`🔄 RIPROGRAMMAZIONE

Cliente: %s
Matricola: %s

❌ CANCELLATO:
%s - %s

✅ NUOVO:
%s - %s

📍 %s`,
		contact.CustomerName, serial,
		previous.DateString(), previous.TimeSlot,
		next.DateString(), next.TimeSlot,
		contact.Address)
}
