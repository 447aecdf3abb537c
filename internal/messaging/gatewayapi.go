package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/meterflow/contatori/pkg/logging"
)

var gatewaySendTracer = otel.Tracer("contatori.internal.messaging.gatewayapi")

const defaultGatewayBaseURL = "https://gatewayapi.com"

// GatewaySender posts SMS messages through the GatewayAPI REST endpoint.
type GatewaySender struct {
	token      string
	sender     string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// GatewayConfig configures the GatewayAPI client.
type GatewayConfig struct {
	Token      string
	Sender     string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// NewGatewaySender builds a sender for GatewayAPI.
func NewGatewaySender(cfg GatewayConfig) *GatewaySender {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultGatewayBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	sender := cfg.Sender
	if sender == "" {
		sender = "AI-Contatori"
	}
	return &GatewaySender{
		token:      cfg.Token,
		sender:     sender,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

var _ SMSSender = (*GatewaySender)(nil)

// SendSMS dispatches a single SMS. The recipient is normalized to
// digits-only international form before submission.
func (s *GatewaySender) SendSMS(ctx context.Context, to, body string) error {
	if s.token == "" {
		return errors.New("messaging: gatewayapi token missing")
	}
	if strings.TrimSpace(body) == "" {
		return errors.New("messaging: body required")
	}
	msisdn, err := strconv.ParseUint(NormalizeMSISDN(to), 10, 64)
	if err != nil {
		return fmt.Errorf("messaging: invalid recipient %q", to)
	}

	ctx, span := gatewaySendTracer.Start(ctx, "messaging.gatewayapi.send")
	defer span.End()
	span.SetAttributes(attribute.String("contatori.sms.to", to))

	payload := struct {
		Sender     string `json:"sender"`
		Message    string `json:"message"`
		Recipients []struct {
			MSISDN uint64 `json:"msisdn"`
		} `json:"recipients"`
	}{
		Sender:  s.sender,
		Message: body,
		Recipients: []struct {
			MSISDN uint64 `json:"msisdn"`
		}{{MSISDN: msisdn}},
	}
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("messaging: marshal gatewayapi payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/rest/mtsms", bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("messaging: build gatewayapi request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("messaging: gatewayapi request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("messaging: gatewayapi send failed: status %d, body: %s",
			resp.StatusCode, strings.TrimSpace(string(respBody)))
		span.RecordError(err)
		s.logger.Error("gatewayapi send failed", "status", resp.StatusCode, "to", to)
		return err
	}

	var parsed struct {
		IDs []uint64 `json:"ids"`
	}
	if len(respBody) > 0 && json.Unmarshal(respBody, &parsed) == nil && len(parsed.IDs) > 0 {
		s.logger.Info("gatewayapi sms sent", "to", to, "gateway_id", parsed.IDs[0])
	} else {
		s.logger.Info("gatewayapi sms sent", "to", to)
	}
	return nil
}
