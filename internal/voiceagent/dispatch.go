// Package voiceagent maps voice-platform function calls onto the
// appointment lifecycle operations and renders the results the agent
// speaks back to the caller.
package voiceagent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/meterflow/contatori/internal/appointments"
	"github.com/meterflow/contatori/internal/calllog"
	"github.com/meterflow/contatori/internal/notify"
	"github.com/meterflow/contatori/internal/observability/metrics"
	"github.com/meterflow/contatori/pkg/logging"
)

// Function is one of the closed set of tools exposed to the voice agent.
type Function string

const (
	FunctionLookup     Function = "lookup_contatore"
	FunctionConfirm    Function = "conferma_appuntamento"
	FunctionReschedule Function = "riprogramma_appuntamento"
	FunctionEscalate   Function = "escalation_operatore"
)

// Spoken-Italian messages returned to the agent for TTS.
const (
	msgLookupNotFound  = "Matricola %s non trovata nel sistema. Verifichi di aver digitato correttamente il numero."
	msgNotFound        = "Contatore non trovato"
	msgConfirmed       = "Appuntamento confermato con successo. Non riceverà ulteriori comunicazioni."
	msgNoPreAssigned   = "Nessun appuntamento pre-assegnato da confermare per questa matricola."
	msgRescheduled     = "Appuntamento riprogrammato per %s alle %s. Operatore notificato."
	msgEscalated       = "La sto trasferendo al nostro operatore specializzato che la contatterà a breve."
	msgInvalidDate     = "Data non valida. Indicare la data nel formato anno-mese-giorno."
	msgInvalidTimeSlot = "Fascia oraria non valida. Indicare una fascia come 09:00-12:00."
	msgStorageError    = "Si è verificato un problema tecnico. La preghiamo di riprovare tra qualche minuto."
)

type appointmentStore interface {
	FindBySerial(ctx context.Context, serial string) (*appointments.Appointment, error)
	Confirm(ctx context.Context, serial string) (*appointments.ScheduleState, error)
	Reschedule(ctx context.Context, serial string, newDate time.Time, newSlot string) (*appointments.RescheduleOutcome, error)
}

type escalationLogger interface {
	LogEscalation(ctx context.Context, serial, reason string) (string, error)
}

type rescheduleNotifier interface {
	Enqueue(job notify.Job) bool
}

// Dispatcher routes function calls to lifecycle operations. Its contract
// is to always return a well-formed result value: lower-layer errors are
// converted into structured payloads with a spoken message, never
// propagated to the HTTP layer.
type Dispatcher struct {
	store    appointmentStore
	audit    escalationLogger
	notifier rescheduleNotifier
	metrics  *metrics.VoiceMetrics
	logger   *logging.Logger
}

// NewDispatcher wires the dispatcher to its lifecycle collaborators.
func NewDispatcher(store appointmentStore, audit escalationLogger, notifier rescheduleNotifier, m *metrics.VoiceMetrics, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		store:    store,
		audit:    audit,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
	}
}

// Dispatch executes the named function and returns its result payload.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, params map[string]string) any {
	start := time.Now()
	result, outcome := d.route(ctx, Function(name), params)
	d.metrics.ObserveDispatch(name, outcome, time.Since(start).Seconds())
	d.logger.Info("voiceagent: function dispatched",
		"function", name, "outcome", outcome, "matricola", params["matricola"])
	return result
}

func (d *Dispatcher) route(ctx context.Context, fn Function, params map[string]string) (any, string) {
	switch fn {
	case FunctionLookup:
		return d.lookup(ctx, params["matricola"])
	case FunctionConfirm:
		return d.confirm(ctx, params["matricola"])
	case FunctionReschedule:
		return d.reschedule(ctx, params["matricola"], params["nuova_data"], params["nuovo_orario"])
	case FunctionEscalate:
		return d.escalate(ctx, params["matricola"], params["motivo"])
	default:
		return UnrecognizedResult{Error: fmt.Sprintf("Function %s not recognized", fn)}, "unrecognized"
	}
}

func (d *Dispatcher) lookup(ctx context.Context, matricola string) (any, string) {
	a, err := d.store.FindBySerial(ctx, matricola)
	if errors.Is(err, appointments.ErrNotFound) {
		return LookupResult{Found: false, Message: fmt.Sprintf(msgLookupNotFound, matricola)}, "not_found"
	}
	if err != nil {
		d.logger.Error("voiceagent: lookup failed", "error", err, "matricola", matricola)
		return LookupResult{Found: false, Message: msgStorageError}, "error"
	}
	return LookupResult{Found: true, Contatore: contatoreView(a)}, "ok"
}

func (d *Dispatcher) confirm(ctx context.Context, matricola string) (any, string) {
	st, err := d.store.Confirm(ctx, matricola)
	switch {
	case errors.Is(err, appointments.ErrNotFound):
		return ConfirmResult{Success: false, Message: msgNotFound}, "not_found"
	case errors.Is(err, appointments.ErrNoPreAssignedSlot):
		return ConfirmResult{Success: false, Message: msgNoPreAssigned}, "no_slot"
	case err != nil:
		d.logger.Error("voiceagent: confirm failed", "error", err, "matricola", matricola)
		return ConfirmResult{Success: false, Message: msgStorageError}, "error"
	}
	return ConfirmResult{
		Success: true,
		Message: msgConfirmed,
		Appuntamento: &AppointmentView{
			Data:   st.ConfirmedDate.Format(appointments.DateFormat),
			Orario: st.ConfirmedSlot,
		},
	}, "ok"
}

func (d *Dispatcher) reschedule(ctx context.Context, matricola, nuovaData, nuovoOrario string) (any, string) {
	date, err := appointments.ParseDate(nuovaData)
	if err != nil {
		return RescheduleResult{Success: false, Message: msgInvalidDate}, "invalid_input"
	}
	slot, err := appointments.ValidateTimeSlot(nuovoOrario)
	if err != nil {
		return RescheduleResult{Success: false, Message: msgInvalidTimeSlot}, "invalid_input"
	}

	outcome, err := d.store.Reschedule(ctx, matricola, date, slot)
	if errors.Is(err, appointments.ErrNotFound) {
		return RescheduleResult{Success: false, Message: msgNotFound}, "not_found"
	}
	if err != nil {
		d.logger.Error("voiceagent: reschedule failed", "error", err, "matricola", matricola)
		return RescheduleResult{Success: false, Message: msgStorageError}, "error"
	}

	// The transition is committed; notification rides a background queue
	// and its fate never changes this result.
	if d.notifier != nil {
		d.notifier.Enqueue(notify.Job{
			Serial:   matricola,
			Previous: outcome.Previous,
			Next:     outcome.New,
		})
	}

	return RescheduleResult{
		Success: true,
		Message: fmt.Sprintf(msgRescheduled, outcome.New.DateString(), outcome.New.TimeSlot),
		VecchioAppuntamento: &AppointmentView{
			Data:   outcome.Previous.DateString(),
			Orario: outcome.Previous.TimeSlot,
		},
		NuovoAppuntamento: &AppointmentView{
			Data:   outcome.New.DateString(),
			Orario: outcome.New.TimeSlot,
		},
	}, "ok"
}

func (d *Dispatcher) escalate(ctx context.Context, matricola, motivo string) (any, string) {
	id, err := d.audit.LogEscalation(ctx, matricola, motivo)
	if errors.Is(err, calllog.ErrAppointmentNotFound) {
		return EscalationResult{Success: false, Message: msgNotFound}, "not_found"
	}
	if err != nil {
		d.logger.Error("voiceagent: escalation failed", "error", err, "matricola", matricola)
		return EscalationResult{Success: false, Message: msgStorageError}, "error"
	}
	return EscalationResult{Success: true, Message: msgEscalated, EscalationID: id}, "ok"
}

func contatoreView(a *appointments.Appointment) *ContatoreView {
	return &ContatoreView{
		Matricola:               a.SerialNumber,
		Cliente:                 a.CustomerName,
		Indirizzo:               a.Address,
		Servizio:                a.ServiceType,
		Committente:             a.CommittenteName,
		Operatore:               a.OperatoreName,
		Cantiere:                a.Cantiere,
		PreAssignedDate:         formatDate(a.PreAssignedDate),
		PreAssignedTimeSlot:     a.PreAssignedSlot,
		NeedsConfirmation:       a.NeedsConfirmation,
		HasScheduledAppointment: a.HasScheduledAppointment,
		ConfirmedDate:           formatDate(a.ConfirmedDate),
		ConfirmedTimeSlot:       a.ConfirmedSlot,
		DescrizioneAttivita:     a.DescrizioneAttivita,
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(appointments.DateFormat)
}
