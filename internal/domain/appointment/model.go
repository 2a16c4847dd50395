// Package appointment implements the booking core: slot availability,
// atomic booking with double-booking prevention, and the role-scoped
// appointment status lifecycle with its audit trail.
package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/medichannel/medichannel/internal/domain/directory"
)

// Status is an appointment lifecycle state.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

// ParseStatus validates a wire-level status value.
func ParseStatus(v string) (Status, bool) {
	switch Status(v) {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return Status(v), true
	}
	return "", false
}

// Appointment is a booked consultation. Date holds the calendar day at
// midnight UTC; StartTime is a wall-clock "15:04" string so lexicographic
// order matches chronological order within a day. Appointments are never
// deleted; cancellation is a status.
type Appointment struct {
	ID               uuid.UUID `json:"id"`
	PatientID        uuid.UUID `json:"patient_id"`
	DoctorID         uuid.UUID `json:"doctor_id"`
	Date             time.Time `json:"date"`
	StartTime        string    `json:"start_time"`
	Status           Status    `json:"status"`
	BookingReference string    `json:"booking_reference"`
	ConsultationFee  float64   `json:"consultation_fee"`
	Notes            string    `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// StartsAt combines Date and StartTime into an absolute instant (UTC).
func (a *Appointment) StartsAt() time.Time {
	t, err := time.Parse("15:04", a.StartTime)
	if err != nil {
		return a.Date
	}
	return time.Date(a.Date.Year(), a.Date.Month(), a.Date.Day(),
		t.Hour(), t.Minute(), 0, 0, time.UTC)
}

// Indicator derives the dashboard marker for an appointment from its status
// and start instant. The derivation is pure: a scheduled appointment starting
// within the next 30 minutes reads "upcoming", one whose start has passed
// reads "overdue", and everything else reads as its status.
func (a *Appointment) Indicator(now time.Time) string {
	if a.Status != StatusScheduled {
		return string(a.Status)
	}
	start := a.StartsAt()
	switch {
	case start.Before(now):
		return "overdue"
	case start.Sub(now) <= 30*time.Minute:
		return "upcoming"
	default:
		return string(StatusScheduled)
	}
}

// StatusLogEntry is one line of an appointment's append-only audit trail.
type StatusLogEntry struct {
	ID            int64     `json:"id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	OldStatus     Status    `json:"old_status"`
	NewStatus     Status    `json:"new_status"`
	ChangedBy     string    `json:"changed_by"`
	ChangedAt     time.Time `json:"changed_at"`
	Notes         string    `json:"notes,omitempty"`
}

// BookingRequest is the payload for booking an appointment.
type BookingRequest struct {
	DoctorID uuid.UUID                 `json:"doctor_id"`
	Date     string                    `json:"date"`
	Time     string                    `json:"time"`
	Patient  directory.PatientIdentity `json:"patient"`
	Reason   string                    `json:"reason,omitempty"`
}

// TransitionRequest is the payload for a status change.
type TransitionRequest struct {
	Target string `json:"target"`
	Notes  string `json:"notes,omitempty"`
}

// Detail is the joined confirmation view of an appointment, annotated with
// the dashboard indicator.
type Detail struct {
	Appointment
	DoctorName      string `json:"doctor_name"`
	DoctorSpecialty string `json:"doctor_specialty"`
	PatientName     string `json:"patient_name"`
	PatientEmail    string `json:"patient_email"`
	Indicator       string `json:"indicator"`
}
