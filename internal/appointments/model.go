package appointments

import (
	"regexp"
	"strings"
	"time"
)

// DateFormat is the wire format for appointment dates.
const DateFormat = "2006-01-02"

var timeSlotPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d-([01]\d|2[0-3]):[0-5]\d$`)

// Appointment is the typed view of a contatori row, joined with the owning
// committente and assigned operatore display data. Scheduling fields that are
// absent in the store are nil/empty rather than loosely-typed nulls.
type Appointment struct {
	ID            int64
	SerialNumber  string
	CustomerName  string
	CustomerPhone string
	Address       string
	ServiceType   string
	CommittenteID *int64
	OperatoreID   *int64
	Cantiere      string

	PreAssignedDate *time.Time
	PreAssignedSlot string

	NeedsConfirmation       bool
	HasScheduledAppointment bool

	ConfirmedDate *time.Time
	ConfirmedSlot string

	ModifiedFromOriginal bool
	OriginalDate         *time.Time
	OriginalSlot         string
	ModificationDate     *time.Time
	ModifiedBy           string

	LastUpdated time.Time

	// Joined display data.
	CommittenteName     string
	DescrizioneAttivita string
	OperatoreName       string
	OperatorePhone      string
}

// Slot is a concrete date plus time window.
type Slot struct {
	Date     *time.Time
	TimeSlot string
}

// DateString renders the slot date in wire format, or "" when unset.
func (s Slot) DateString() string {
	if s.Date == nil {
		return ""
	}
	return s.Date.Format(DateFormat)
}

// CurrentSlot returns the active slot: the confirmed one when present,
// otherwise the pre-assigned one.
func (a *Appointment) CurrentSlot() Slot {
	if a.ConfirmedDate != nil {
		return Slot{Date: a.ConfirmedDate, TimeSlot: a.ConfirmedSlot}
	}
	return Slot{Date: a.PreAssignedDate, TimeSlot: a.PreAssignedSlot}
}

// OperatorContact is the read model used to address a reschedule
// notification to the assigned field operator.
type OperatorContact struct {
	OperatorName  string
	OperatorPhone string
	CustomerName  string
	Address       string
}

// ParseDate validates and parses a YYYY-MM-DD date.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateFormat, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// ValidateTimeSlot checks the HH:MM-HH:MM window format.
func ValidateTimeSlot(value string) (string, error) {
	value = strings.TrimSpace(value)
	if !timeSlotPattern.MatchString(value) {
		return "", ErrInvalidTimeSlot
	}
	return value, nil
}
