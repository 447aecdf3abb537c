// Package backoffice serves the read-only dashboard and listing views.
package backoffice

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Stats is the dashboard aggregate over the contatori table.
type Stats struct {
	TotalContatori int64 `json:"total_contatori"`
	DaConfermare   int64 `json:"da_confermare"`
	Confermati     int64 `json:"confermati"`
	ModificatiAI   int64 `json:"modificati_ai"`
}

// ContatoreRow is one line of the /api/contatori listing.
type ContatoreRow struct {
	ID                      int64      `json:"id"`
	SerialNumber            string     `json:"serial_number"`
	CustomerName            string     `json:"customer_name"`
	Address                 string     `json:"address"`
	ServiceType             string     `json:"service_type"`
	Cantiere                string     `json:"cantiere"`
	Priority                string     `json:"priority"`
	PreAssignedDate         *time.Time `json:"pre_assigned_date"`
	PreAssignedTimeSlot     string     `json:"pre_assigned_time_slot"`
	NeedsConfirmation       bool       `json:"needs_confirmation"`
	HasScheduledAppointment bool       `json:"has_scheduled_appointment"`
	ConfirmedDate           *time.Time `json:"confirmed_date"`
	ConfirmedTimeSlot       string     `json:"confirmed_time_slot"`
	ModifiedFromOriginal    bool       `json:"modified_from_original"`
	CommittenteNome         string     `json:"committente_nome"`
	OperatoreNome           string     `json:"operatore_nome"`
	LastUpdated             time.Time  `json:"last_updated"`
}

// OperatoreRow is one line of the /api/operatori listing.
type OperatoreRow struct {
	ID               int64    `json:"id"`
	Nome             string   `json:"nome"`
	Telefono         string   `json:"telefono"`
	Whatsapp         string   `json:"whatsapp"`
	ZoneCompetenza   []string `json:"zone_competenza"`
	Specializzazioni []string `json:"specializzazioni"`
	Attivo           bool     `json:"attivo"`
}

// Service runs the back-office read queries.
type Service struct {
	db *sql.DB
}

// NewService creates a back-office read service.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// DashboardStats aggregates appointment counts by lifecycle state.
func (s *Service) DashboardStats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) AS total_contatori,
		       COUNT(*) FILTER (WHERE needs_confirmation = true) AS da_confermare,
		       COUNT(*) FILTER (WHERE has_scheduled_appointment = true) AS confermati,
		       COUNT(*) FILTER (WHERE modified_from_original = true) AS modificati_ai
		FROM contatori`,
	).Scan(&st.TotalContatori, &st.DaConfermare, &st.Confermati, &st.ModificatiAI)
	if err != nil {
		return nil, fmt.Errorf("backoffice: dashboard stats: %w", err)
	}
	return &st, nil
}

// ListContatori returns the most recently touched appointments.
func (s *Service) ListContatori(ctx context.Context, limit int) ([]ContatoreRow, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.serial_number,
		       COALESCE(c.customer_name, ''), COALESCE(c.address, ''),
		       COALESCE(c.service_type, ''), COALESCE(c.cantiere, ''),
		       COALESCE(c.priority, ''),
		       c.pre_assigned_date, COALESCE(c.pre_assigned_time_slot, ''),
		       c.needs_confirmation, c.has_scheduled_appointment,
		       c.confirmed_date, COALESCE(c.confirmed_time_slot, ''),
		       c.modified_from_original,
		       COALESCE(comm.nome, ''), COALESCE(op.nome, ''),
		       c.last_updated
		FROM contatori c
		LEFT JOIN committenti comm ON c.committente_id = comm.id
		LEFT JOIN operatori op ON c.operatore_id = op.id
		ORDER BY c.last_updated DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("backoffice: list contatori: %w", err)
	}
	defer rows.Close()

	out := []ContatoreRow{}
	for rows.Next() {
		var r ContatoreRow
		if err := rows.Scan(
			&r.ID, &r.SerialNumber,
			&r.CustomerName, &r.Address,
			&r.ServiceType, &r.Cantiere,
			&r.Priority,
			&r.PreAssignedDate, &r.PreAssignedTimeSlot,
			&r.NeedsConfirmation, &r.HasScheduledAppointment,
			&r.ConfirmedDate, &r.ConfirmedTimeSlot,
			&r.ModifiedFromOriginal,
			&r.CommittenteNome, &r.OperatoreNome,
			&r.LastUpdated,
		); err != nil {
			return nil, fmt.Errorf("backoffice: scan contatore: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListOperatori returns active field operators with their coverage zones.
func (s *Service) ListOperatori(ctx context.Context) ([]OperatoreRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, nome, COALESCE(telefono, ''), COALESCE(whatsapp, ''),
		       zone_competenza, specializzazioni, attivo
		FROM operatori
		ORDER BY nome`)
	if err != nil {
		return nil, fmt.Errorf("backoffice: list operatori: %w", err)
	}
	defer rows.Close()

	out := []OperatoreRow{}
	for rows.Next() {
		var r OperatoreRow
		if err := rows.Scan(
			&r.ID, &r.Nome, &r.Telefono, &r.Whatsapp,
			pq.Array(&r.ZoneCompetenza), pq.Array(&r.Specializzazioni),
			&r.Attivo,
		); err != nil {
			return nil, fmt.Errorf("backoffice: scan operatore: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
