package messaging

import (
	"context"

	"github.com/meterflow/contatori/pkg/logging"
)

// SMSSender sends a single text message to a phone number.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// StubSender logs instead of sending; used when no gateway token is
// configured and in tests.
type StubSender struct {
	logger *logging.Logger
}

// NewStubSender creates a no-op sender.
func NewStubSender(logger *logging.Logger) *StubSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubSender{logger: logger}
}

// SendSMS logs but doesn't send.
func (s *StubSender) SendSMS(ctx context.Context, to, body string) error {
	s.logger.Info("stub SMS sender: would send", "to", to, "body_len", len(body))
	return nil
}

var _ SMSSender = (*StubSender)(nil)
