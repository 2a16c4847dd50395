package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrDoctorNotFound  = errors.New("doctor not found")
	ErrPatientNotFound = errors.New("patient not found")
	ErrDuplicateEmail  = errors.New("email already registered")
)

// DoctorRepo is the persistence contract for doctors and their schedules.
type DoctorRepo interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	List(ctx context.Context, specialty string, limit, offset int) ([]*Doctor, int, error)
	Update(ctx context.Context, d *Doctor) error
	ReplaceWindows(ctx context.Context, doctorID uuid.UUID, windows []*WorkingWindow) error
	WindowsForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*WorkingWindow, error)
}

// PatientRepo is the persistence contract for patient identities.
type PatientRepo interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByEmail(ctx context.Context, email string) (*Patient, error)
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
}
