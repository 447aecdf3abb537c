package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meterflow/contatori/internal/appointments"
	"github.com/meterflow/contatori/pkg/logging"
)

type blockingSMS struct {
	mu   sync.Mutex
	sent []string
	done chan struct{}
}

func (b *blockingSMS) SendSMS(_ context.Context, to, _ string) error {
	b.mu.Lock()
	b.sent = append(b.sent, to)
	b.mu.Unlock()
	select {
	case b.done <- struct{}{}:
	default:
	}
	return nil
}

func TestDispatcherProcessesJob(t *testing.T) {
	dir := &fakeDirectory{contact: &appointments.OperatorContact{
		OperatorName:  "Marco Rossi",
		OperatorPhone: "+393331234567",
	}}
	sms := &blockingSMS{done: make(chan struct{}, 1)}
	d := NewDispatcher(NewNotifier(dir, sms, nil, logging.Default()), 4, time.Second, nil, logging.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	ok := d.Enqueue(Job{
		Serial:   "M1",
		Previous: slotOn("2025-06-10", "09:00-12:00"),
		Next:     slotOn("2025-06-12", "14:00-17:00"),
	})
	require.True(t, ok)

	select {
	case <-sms.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not processed")
	}

	sms.mu.Lock()
	defer sms.mu.Unlock()
	assert.Equal(t, []string{"+393331234567"}, sms.sent)
}

func TestDispatcherDropsWhenQueueFull(t *testing.T) {
	dir := &fakeDirectory{err: appointments.ErrNoOperator}
	d := NewDispatcher(NewNotifier(dir, &fakeSMS{}, nil, logging.Default()), 1, time.Second, nil, logging.Default())

	// Run is never started, so the second enqueue finds the buffer full.
	assert.True(t, d.Enqueue(Job{Serial: "M1"}))
	assert.False(t, d.Enqueue(Job{Serial: "M2"}))
}

func TestDispatcherDrainsOnShutdown(t *testing.T) {
	dir := &fakeDirectory{contact: &appointments.OperatorContact{
		OperatorName:  "Marco Rossi",
		OperatorPhone: "+393331234567",
	}}
	sms := &blockingSMS{done: make(chan struct{}, 1)}
	d := NewDispatcher(NewNotifier(dir, sms, nil, logging.Default()), 4, time.Second, nil, logging.Default())

	require.True(t, d.Enqueue(Job{
		Serial:   "M1",
		Previous: slotOn("2025-06-10", "09:00-12:00"),
		Next:     slotOn("2025-06-12", "14:00-17:00"),
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop")
	}

	sms.mu.Lock()
	defer sms.mu.Unlock()
	assert.Len(t, sms.sent, 1)
}
