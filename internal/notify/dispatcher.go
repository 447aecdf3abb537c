package notify

import (
	"context"
	"time"

	"github.com/meterflow/contatori/internal/appointments"
	"github.com/meterflow/contatori/internal/observability/metrics"
	"github.com/meterflow/contatori/pkg/logging"
)

// Job is one queued operator notification.
type Job struct {
	Serial   string
	Previous appointments.Slot
	Next     appointments.Slot
}

// Dispatcher runs notifications on a background goroutine, decoupled from
// the transactional state transition that enqueued them. The queue is a
// bounded in-memory channel; when it is full the job is dropped and
// counted rather than blocking the caller.
type Dispatcher struct {
	notifier    *Notifier
	jobs        chan Job
	logger      *logging.Logger
	metrics     *metrics.NotifyMetrics
	sendTimeout time.Duration
}

// NewDispatcher creates a dispatcher with the given queue capacity.
func NewDispatcher(notifier *Notifier, buffer int, sendTimeout time.Duration, m *metrics.NotifyMetrics, logger *logging.Logger) *Dispatcher {
	if buffer <= 0 {
		buffer = 128
	}
	if sendTimeout <= 0 {
		sendTimeout = 15 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		notifier:    notifier,
		jobs:        make(chan Job, buffer),
		logger:      logger,
		metrics:     m,
		sendTimeout: sendTimeout,
	}
}

// Enqueue submits a job without blocking. Returns false when the queue is
// full; the loss is logged and counted, not surfaced.
func (d *Dispatcher) Enqueue(job Job) bool {
	select {
	case d.jobs <- job:
		return true
	default:
		d.logger.Error("notify: queue full, dropping notification", "serial", job.Serial)
		d.metrics.ObserveQueueDrop()
		return false
	}
}

// Run processes jobs until ctx is cancelled, then drains whatever is
// already queued.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.drain()
			return
		case job := <-d.jobs:
			d.process(job)
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case job := <-d.jobs:
			d.process(job)
		default:
			return
		}
	}
}

func (d *Dispatcher) process(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
	defer cancel()
	outcome := d.notifier.NotifyReschedule(ctx, job.Serial, job.Previous, job.Next)
	d.logger.Debug("notify: job processed", "serial", job.Serial, "outcome", string(outcome))
}
