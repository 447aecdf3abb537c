package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Pool is the subset of pgxpool.Pool the repository needs; pgxmock
// satisfies it in tests.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides typed access to the contatori store. All state
// transitions are single atomic statements, or a transaction keyed by
// serial number where a read-modify-write is unavoidable.
type Repository struct {
	pool  Pool
	actor string
}

// NewRepository creates a repository backed by a pgx pool. actor is the
// tag stamped into modified_by on reschedules.
func NewRepository(pool Pool, actor string) *Repository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	if actor == "" {
		actor = "voice-agent"
	}
	return &Repository{pool: pool, actor: actor}
}

const findBySerialQuery = `
	SELECT c.id, c.serial_number,
	       COALESCE(c.customer_name, ''), COALESCE(c.customer_phone, ''),
	       COALESCE(c.address, ''), COALESCE(c.service_type, ''),
	       c.committente_id, c.operatore_id, COALESCE(c.cantiere, ''),
	       c.pre_assigned_date, COALESCE(c.pre_assigned_time_slot, ''),
	       c.needs_confirmation, c.has_scheduled_appointment,
	       c.confirmed_date, COALESCE(c.confirmed_time_slot, ''),
	       c.modified_from_original, c.original_date,
	       COALESCE(c.original_time_slot, ''),
	       c.modification_date, COALESCE(c.modified_by, ''), c.last_updated,
	       COALESCE(comm.nome, ''), COALESCE(comm.descrizione_attivita, ''),
	       COALESCE(op.nome, ''), COALESCE(op.telefono, '')
	FROM contatori c
	LEFT JOIN committenti comm ON c.committente_id = comm.id
	LEFT JOIN operatori op ON c.operatore_id = op.id
	WHERE c.serial_number = $1
`

// FindBySerial loads an appointment with its committente and operatore
// display data. Returns ErrNotFound for an unknown serial.
func (r *Repository) FindBySerial(ctx context.Context, serial string) (*Appointment, error) {
	var a Appointment
	err := r.pool.QueryRow(ctx, findBySerialQuery, serial).Scan(
		&a.ID, &a.SerialNumber,
		&a.CustomerName, &a.CustomerPhone,
		&a.Address, &a.ServiceType,
		&a.CommittenteID, &a.OperatoreID, &a.Cantiere,
		&a.PreAssignedDate, &a.PreAssignedSlot,
		&a.NeedsConfirmation, &a.HasScheduledAppointment,
		&a.ConfirmedDate, &a.ConfirmedSlot,
		&a.ModifiedFromOriginal, &a.OriginalDate,
		&a.OriginalSlot,
		&a.ModificationDate, &a.ModifiedBy, &a.LastUpdated,
		&a.CommittenteName, &a.DescrizioneAttivita,
		&a.OperatoreName, &a.OperatorePhone,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("appointments: find by serial: %w", err)
	}
	return &a, nil
}

// ScheduleState is the scheduling projection returned by Confirm.
type ScheduleState struct {
	ConfirmedDate time.Time
	ConfirmedSlot string
}

const confirmQuery = `
	UPDATE contatori
	SET has_scheduled_appointment = true,
	    confirmed_date = pre_assigned_date,
	    confirmed_time_slot = pre_assigned_time_slot,
	    needs_confirmation = false,
	    last_updated = NOW()
	WHERE serial_number = $1 AND pre_assigned_date IS NOT NULL
	RETURNING confirmed_date, confirmed_time_slot
`

// Confirm accepts the pre-assigned slot as the active one. Idempotent:
// confirming an already-confirmed appointment re-applies the same
// projection. An appointment with no pre-assigned slot cannot be
// confirmed; that would leave has_scheduled_appointment true with no
// confirmed slot.
func (r *Repository) Confirm(ctx context.Context, serial string) (*ScheduleState, error) {
	var st ScheduleState
	err := r.pool.QueryRow(ctx, confirmQuery, serial).Scan(&st.ConfirmedDate, &st.ConfirmedSlot)
	if errors.Is(err, pgx.ErrNoRows) {
		exists, existsErr := r.exists(ctx, serial)
		if existsErr != nil {
			return nil, existsErr
		}
		if exists {
			return nil, ErrNoPreAssignedSlot
		}
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("appointments: confirm: %w", err)
	}
	return &st, nil
}

// RescheduleOutcome carries the superseded and the newly active slot.
type RescheduleOutcome struct {
	Previous Slot
	New      Slot
}

const rescheduleSelectQuery = `
	SELECT pre_assigned_date, COALESCE(pre_assigned_time_slot, ''),
	       confirmed_date, COALESCE(confirmed_time_slot, '')
	FROM contatori
	WHERE serial_number = $1
	FOR UPDATE
`

const rescheduleUpdateQuery = `
	UPDATE contatori
	SET has_scheduled_appointment = true,
	    confirmed_date = $2,
	    confirmed_time_slot = $3,
	    needs_confirmation = false,
	    modified_from_original = true,
	    original_date = $4,
	    original_time_slot = $5,
	    modification_date = NOW(),
	    modified_by = $6,
	    last_updated = NOW()
	WHERE serial_number = $1
`

// Reschedule moves the appointment to a new slot, snapshotting whichever
// slot was active immediately before (confirmed takes precedence over
// pre-assigned). The read and conditional write run in one transaction
// with the row locked, so concurrent reschedules of the same serial
// cannot interleave and corrupt the snapshot.
func (r *Repository) Reschedule(ctx context.Context, serial string, newDate time.Time, newSlot string) (*RescheduleOutcome, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("appointments: begin reschedule: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		preDate  *time.Time
		preSlot  string
		confDate *time.Time
		confSlot string
	)
	err = tx.QueryRow(ctx, rescheduleSelectQuery, serial).Scan(&preDate, &preSlot, &confDate, &confSlot)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("appointments: read current slot: %w", err)
	}

	previous := Slot{Date: confDate, TimeSlot: confSlot}
	if confDate == nil {
		previous = Slot{Date: preDate, TimeSlot: preSlot}
	}

	if _, err := tx.Exec(ctx, rescheduleUpdateQuery,
		serial, newDate, newSlot, previous.Date, nullIfEmpty(previous.TimeSlot), r.actor,
	); err != nil {
		return nil, fmt.Errorf("appointments: apply reschedule: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("appointments: commit reschedule: %w", err)
	}

	return &RescheduleOutcome{
		Previous: previous,
		New:      Slot{Date: &newDate, TimeSlot: newSlot},
	}, nil
}

const operatorContactQuery = `
	SELECT COALESCE(op.nome, ''), COALESCE(op.telefono, ''),
	       COALESCE(c.customer_name, ''), COALESCE(c.address, '')
	FROM contatori c
	LEFT JOIN operatori op ON c.operatore_id = op.id
	WHERE c.serial_number = $1
`

// OperatorContact resolves the notification target for a serial number.
// Returns ErrNotFound for an unknown serial and ErrNoOperator when the
// appointment has no linked operator or the operator has no phone.
func (r *Repository) OperatorContact(ctx context.Context, serial string) (*OperatorContact, error) {
	var c OperatorContact
	err := r.pool.QueryRow(ctx, operatorContactQuery, serial).Scan(
		&c.OperatorName, &c.OperatorPhone, &c.CustomerName, &c.Address,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("appointments: operator contact: %w", err)
	}
	if c.OperatorPhone == "" {
		return nil, ErrNoOperator
	}
	return &c, nil
}

func (r *Repository) exists(ctx context.Context, serial string) (bool, error) {
	var one int
	err := r.pool.QueryRow(ctx, `SELECT 1 FROM contatori WHERE serial_number = $1`, serial).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("appointments: existence check: %w", err)
	}
	return true, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
