package appointment

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrPastDate            = errors.New("appointment date is in the past")
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrDoctorUnavailable   = errors.New("doctor is not accepting appointments")
	ErrSlotTaken           = errors.New("slot already booked")
	ErrInvalidTransition   = errors.New("status transition not allowed")
	ErrForbidden           = errors.New("appointment not visible to actor")
)
