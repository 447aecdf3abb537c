package appointments

import "errors"

var (
	// ErrNotFound is returned when no appointment matches the serial number.
	ErrNotFound = errors.New("appointment not found")

	// ErrNoPreAssignedSlot is returned when confirm is called on an
	// appointment that was never given a pre-assigned slot.
	ErrNoPreAssignedSlot = errors.New("appointment has no pre-assigned slot")

	// ErrNoOperator is returned when the appointment exists but no field
	// operator is linked to it.
	ErrNoOperator = errors.New("no operator linked to appointment")

	// ErrInvalidDate is returned when a date is not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

	// ErrInvalidTimeSlot is returned when a time slot is not HH:MM-HH:MM.
	ErrInvalidTimeSlot = errors.New("invalid time slot, expected HH:MM-HH:MM")
)
