// Package calllog appends call and escalation events tied to appointments.
package calllog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType classifies a call log entry.
type EventType string

const (
	// EventEscalation marks a handoff request to a human operator.
	EventEscalation EventType = "escalation"
)

const escalationResult = "escalation_richiesta"

var (
	// ErrAppointmentNotFound is returned when the serial number resolves
	// to no appointment; the audit row is not written in that case.
	ErrAppointmentNotFound = errors.New("calllog: appointment not found")
)

// Entry is a single append-only audit record.
type Entry struct {
	ID           int64
	CallID       string
	ContatoreID  *int64
	SerialNumber string
	CustomerName string
	CallType     string
	Duration     *int
	Result       string
	Transcript   string
	CallDate     time.Time
}

// Service writes and reads call_logs rows.
type Service struct {
	db *sql.DB
}

// NewService creates a call log service.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// LogEscalation appends one escalation entry for the appointment matching
// serial and returns the generated escalation identifier. The appointment
// id is resolved explicitly first: an unknown serial is an error, not a
// silent zero-row insert.
func (s *Service) LogEscalation(ctx context.Context, serial, reason string) (string, error) {
	var contatoreID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM contatori WHERE serial_number = $1`, serial,
	).Scan(&contatoreID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrAppointmentNotFound
	}
	if err != nil {
		return "", fmt.Errorf("calllog: resolve appointment: %w", err)
	}

	escalationID := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO call_logs (call_id, contatore_id, call_type, result, ai_responses, call_date)
		VALUES ($1, $2, $3, $4, $5, NOW())`,
		escalationID, contatoreID, string(EventEscalation), escalationResult,
		fmt.Sprintf("Motivo: %s", reason),
	)
	if err != nil {
		return "", fmt.Errorf("calllog: insert escalation: %w", err)
	}
	return escalationID, nil
}

// AppendTranscript accumulates transcript fragments for a call. Fragments
// for the same call id are concatenated in arrival order.
func (s *Service) AppendTranscript(ctx context.Context, callID string, fragment json.RawMessage) error {
	if callID == "" {
		return errors.New("calllog: call id required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO call_logs (call_id, transcript, call_date)
		VALUES ($1, $2, NOW())
		ON CONFLICT (call_id) DO UPDATE SET
			transcript = call_logs.transcript || ' | ' || EXCLUDED.transcript`,
		callID, string(fragment),
	)
	if err != nil {
		return fmt.Errorf("calllog: append transcript: %w", err)
	}
	return nil
}

// FinalizeCall stamps duration, outcome and the full report onto the
// call's log row at end of call.
func (s *Service) FinalizeCall(ctx context.Context, callID string, duration int, result string, report json.RawMessage) error {
	if callID == "" {
		return errors.New("calllog: call id required")
	}
	if result == "" {
		result = "completed"
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE call_logs
		SET duration = $2, result = $3, ai_responses = $4
		WHERE call_id = $1`,
		callID, duration, result, string(report),
	)
	if err != nil {
		return fmt.Errorf("calllog: finalize call: %w", err)
	}
	return nil
}

// RecentCalls lists the latest entries joined with appointment display
// data, newest first.
func (s *Service) RecentCalls(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT cl.id, COALESCE(cl.call_id, ''), cl.contatore_id,
		       COALESCE(c.serial_number, ''), COALESCE(c.customer_name, ''),
		       COALESCE(cl.call_type, ''), cl.duration, COALESCE(cl.result, ''),
		       COALESCE(cl.transcript, ''), cl.call_date
		FROM call_logs cl
		LEFT JOIN contatori c ON cl.contatore_id = c.id
		ORDER BY cl.call_date DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("calllog: list recent calls: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID, &e.CallID, &e.ContatoreID,
			&e.SerialNumber, &e.CustomerName,
			&e.CallType, &e.Duration, &e.Result,
			&e.Transcript, &e.CallDate,
		); err != nil {
			return nil, fmt.Errorf("calllog: scan entry: %w", err)
		}
		out = append(out, e)
	}
	if out == nil {
		out = []Entry{}
	}
	return out, rows.Err()
}
