package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meterflow/contatori/internal/appointments"
	"github.com/meterflow/contatori/pkg/logging"
)

type fakeDirectory struct {
	contact *appointments.OperatorContact
	err     error
}

func (f *fakeDirectory) OperatorContact(_ context.Context, _ string) (*appointments.OperatorContact, error) {
	return f.contact, f.err
}

type fakeSMS struct {
	sent []struct{ to, body string }
	err  error
}

func (f *fakeSMS) SendSMS(_ context.Context, to, body string) error {
	f.sent = append(f.sent, struct{ to, body string }{to, body})
	return f.err
}

func slotOn(date string, window string) appointments.Slot {
	d, _ := time.Parse(appointments.DateFormat, date)
	return appointments.Slot{Date: &d, TimeSlot: window}
}

func TestNotifyRescheduleDelivered(t *testing.T) {
	dir := &fakeDirectory{contact: &appointments.OperatorContact{
		OperatorName:  "Marco Rossi",
		OperatorPhone: "+393331234567",
		CustomerName:  "Mario Rossi",
		Address:       "Via Roma 123, Milano",
	}}
	sms := &fakeSMS{}
	n := NewNotifier(dir, sms, nil, logging.Default())

	outcome := n.NotifyReschedule(context.Background(), "M240567891",
		slotOn("2025-06-10", "09:00-12:00"), slotOn("2025-06-12", "14:00-17:00"))

	assert.Equal(t, OutcomeDelivered, outcome)
	require.Len(t, sms.sent, 1)
	assert.Equal(t, "+393331234567", sms.sent[0].to)
	assert.Contains(t, sms.sent[0].body, "Mario Rossi")
	assert.Contains(t, sms.sent[0].body, "M240567891")
	assert.Contains(t, sms.sent[0].body, "2025-06-10 - 09:00-12:00")
	assert.Contains(t, sms.sent[0].body, "2025-06-12 - 14:00-17:00")
	assert.Contains(t, sms.sent[0].body, "Via Roma 123, Milano")
}

func TestNotifyRescheduleNoTarget(t *testing.T) {
	dir := &fakeDirectory{err: appointments.ErrNoOperator}
	sms := &fakeSMS{}
	n := NewNotifier(dir, sms, nil, logging.Default())

	outcome := n.NotifyReschedule(context.Background(), "M1",
		slotOn("2025-06-10", "09:00-12:00"), slotOn("2025-06-12", "14:00-17:00"))

	assert.Equal(t, OutcomeNoTarget, outcome)
	assert.Empty(t, sms.sent)
}

func TestNotifyRescheduleDeliveryFailureIsIsolated(t *testing.T) {
	dir := &fakeDirectory{contact: &appointments.OperatorContact{
		OperatorName:  "Marco Rossi",
		OperatorPhone: "+393331234567",
	}}
	sms := &fakeSMS{err: errors.New("gateway timeout")}
	n := NewNotifier(dir, sms, nil, logging.Default())

	outcome := n.NotifyReschedule(context.Background(), "M1",
		slotOn("2025-06-10", "09:00-12:00"), slotOn("2025-06-12", "14:00-17:00"))

	assert.Equal(t, OutcomeFailed, outcome)
}

func TestNotifyRescheduleResolutionFailure(t *testing.T) {
	dir := &fakeDirectory{err: errors.New("connection refused")}
	n := NewNotifier(dir, &fakeSMS{}, nil, logging.Default())

	outcome := n.NotifyReschedule(context.Background(), "M1",
		slotOn("2025-06-10", "09:00-12:00"), slotOn("2025-06-12", "14:00-17:00"))

	assert.Equal(t, OutcomeFailed, outcome)
}
