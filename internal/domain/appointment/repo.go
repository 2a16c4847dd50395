package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repo is the persistence contract for appointments and their audit trail.
//
// Create must enforce the slot invariant atomically: at most one
// non-cancelled appointment per (doctor, date, start time), reporting
// ErrSlotTaken when a concurrent booking wins the slot.
//
// Transition must lock the appointment, call decide with the current state,
// and persist the status change together with the returned log entry in one
// atomic unit. An error from decide aborts without writing.
type Repo interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	BookedTimes(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error)
	ReferenceExists(ctx context.Context, ref string) (bool, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListAll(ctx context.Context, limit, offset int) ([]*Appointment, int, error)
	Transition(ctx context.Context, id uuid.UUID, decide func(current *Appointment) (*StatusLogEntry, error)) (*Appointment, error)
	LogEntries(ctx context.Context, appointmentID uuid.UUID) ([]*StatusLogEntry, error)
}
