// Package directory manages the doctor and patient records that the booking
// flow resolves against: doctor profiles with consultation fees and weekly
// working-hour windows, and patient identities keyed by email.
package directory

import (
	"time"

	"github.com/google/uuid"
)

// Doctor is a bookable practitioner. Available is a global flag; a doctor
// with Available=false cannot receive new bookings regardless of open slots.
type Doctor struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Specialty       string    `json:"specialty"`
	Email           string    `json:"email"`
	ConsultationFee float64   `json:"consultation_fee"`
	Available       bool      `json:"available"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// WorkingWindow is one contiguous stretch of a doctor's weekly schedule.
// Times are wall-clock strings in "15:04" form so that lexicographic order
// matches chronological order. A window with Break=true marks time inside a
// working stretch (lunch, rounds) that must not produce bookable slots.
type WorkingWindow struct {
	ID       uuid.UUID    `json:"id"`
	DoctorID uuid.UUID    `json:"doctor_id"`
	Weekday  time.Weekday `json:"weekday"`
	Start    string       `json:"start"`
	End      string       `json:"end"`
	Break    bool         `json:"break"`
}

// Patient is a booking identity. Email is the natural key: the booking flow
// looks a patient up by email and creates the record on first contact.
type Patient struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateDoctorRequest is the payload for registering a doctor.
type CreateDoctorRequest struct {
	Name            string  `json:"name"`
	Specialty       string  `json:"specialty"`
	Email           string  `json:"email"`
	ConsultationFee float64 `json:"consultation_fee"`
}

// UpdateDoctorRequest carries partial updates; nil fields are left unchanged.
type UpdateDoctorRequest struct {
	Name            *string  `json:"name,omitempty"`
	Specialty       *string  `json:"specialty,omitempty"`
	ConsultationFee *float64 `json:"consultation_fee,omitempty"`
	Available       *bool    `json:"available,omitempty"`
}

// WindowInput is one window in a schedule replacement request.
type WindowInput struct {
	Weekday int    `json:"weekday"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Break   bool   `json:"break"`
}

// PatientIdentity is the minimum needed to look up or create a patient.
type PatientIdentity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}
