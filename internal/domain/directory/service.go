package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrInvalidInput = errors.New("invalid input")

// Service implements directory business logic over the repositories.
type Service struct {
	doctors  DoctorRepo
	patients PatientRepo
	logger   zerolog.Logger
}

func NewService(doctors DoctorRepo, patients PatientRepo, logger zerolog.Logger) *Service {
	return &Service{
		doctors:  doctors,
		patients: patients,
		logger:   logger.With().Str("component", "directory").Logger(),
	}
}

// CreateDoctor registers a new doctor, available by default.
func (s *Service) CreateDoctor(ctx context.Context, req CreateDoctorRequest) (*Doctor, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if req.ConsultationFee < 0 {
		return nil, fmt.Errorf("%w: consultation fee cannot be negative", ErrInvalidInput)
	}

	now := time.Now().UTC()
	d := &Doctor{
		ID:              uuid.New(),
		Name:            strings.TrimSpace(req.Name),
		Specialty:       strings.TrimSpace(req.Specialty),
		Email:           strings.ToLower(strings.TrimSpace(req.Email)),
		ConsultationFee: req.ConsultationFee,
		Available:       true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.doctors.Create(ctx, d); err != nil {
		return nil, err
	}

	s.logger.Info().Str("doctor_id", d.ID.String()).Str("specialty", d.Specialty).Msg("doctor registered")
	return d, nil
}

// GetDoctor returns a doctor by id.
func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}

// ListDoctors returns doctors, optionally filtered by specialty.
func (s *Service) ListDoctors(ctx context.Context, specialty string, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.List(ctx, specialty, limit, offset)
}

// UpdateDoctor applies a partial update to a doctor profile.
func (s *Service) UpdateDoctor(ctx context.Context, id uuid.UUID, req UpdateDoctorRequest) (*Doctor, error) {
	d, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		d.Name = strings.TrimSpace(*req.Name)
	}
	if req.Specialty != nil {
		d.Specialty = strings.TrimSpace(*req.Specialty)
	}
	if req.ConsultationFee != nil {
		if *req.ConsultationFee < 0 {
			return nil, fmt.Errorf("%w: consultation fee cannot be negative", ErrInvalidInput)
		}
		d.ConsultationFee = *req.ConsultationFee
	}
	if req.Available != nil {
		d.Available = *req.Available
	}
	d.UpdatedAt = time.Now().UTC()

	if err := s.doctors.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// SetWorkingHours replaces a doctor's weekly schedule. Windows must carry
// valid "15:04" times with start before end; break windows are allowed to
// overlap working windows since they carve time out of them.
func (s *Service) SetWorkingHours(ctx context.Context, doctorID uuid.UUID, inputs []WindowInput) ([]*WorkingWindow, error) {
	if _, err := s.doctors.GetByID(ctx, doctorID); err != nil {
		return nil, err
	}

	windows := make([]*WorkingWindow, 0, len(inputs))
	for _, in := range inputs {
		if in.Weekday < 0 || in.Weekday > 6 {
			return nil, fmt.Errorf("%w: weekday must be 0 (Sunday) through 6 (Saturday)", ErrInvalidInput)
		}
		if err := validateClock(in.Start); err != nil {
			return nil, err
		}
		if err := validateClock(in.End); err != nil {
			return nil, err
		}
		if in.Start >= in.End {
			return nil, fmt.Errorf("%w: window start %q must be before end %q", ErrInvalidInput, in.Start, in.End)
		}
		windows = append(windows, &WorkingWindow{
			ID:       uuid.New(),
			DoctorID: doctorID,
			Weekday:  time.Weekday(in.Weekday),
			Start:    in.Start,
			End:      in.End,
			Break:    in.Break,
		})
	}

	if err := s.doctors.ReplaceWindows(ctx, doctorID, windows); err != nil {
		return nil, err
	}
	s.logger.Info().Str("doctor_id", doctorID.String()).Int("windows", len(windows)).Msg("working hours replaced")
	return windows, nil
}

// WorkingHours returns a doctor's configured weekly windows.
func (s *Service) WorkingHours(ctx context.Context, doctorID uuid.UUID) ([]*WorkingWindow, error) {
	if _, err := s.doctors.GetByID(ctx, doctorID); err != nil {
		return nil, err
	}
	return s.doctors.WindowsForDoctor(ctx, doctorID)
}

// GetPatient returns a patient by id.
func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

// ListPatients returns registered patients.
func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}

// ResolvePatient finds a patient by email, creating the record on first
// contact. The booking flow depends on this so a new patient can book without
// a separate registration step.
func (s *Service) ResolvePatient(ctx context.Context, identity PatientIdentity) (*Patient, error) {
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if email == "" {
		return nil, fmt.Errorf("%w: patient email is required", ErrInvalidInput)
	}

	p, err := s.patients.GetByEmail(ctx, email)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrPatientNotFound) {
		return nil, err
	}

	if strings.TrimSpace(identity.Name) == "" {
		return nil, fmt.Errorf("%w: patient name is required for first booking", ErrInvalidInput)
	}
	p = &Patient{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(identity.Name),
		Email:     email,
		Phone:     strings.TrimSpace(identity.Phone),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.patients.Create(ctx, p); err != nil {
		// Lost a race with a concurrent first booking for the same email.
		if errors.Is(err, ErrDuplicateEmail) {
			return s.patients.GetByEmail(ctx, email)
		}
		return nil, err
	}

	s.logger.Info().Str("patient_id", p.ID.String()).Msg("patient registered")
	return p, nil
}

func validateClock(v string) error {
	if _, err := time.Parse("15:04", v); err != nil {
		return fmt.Errorf("%w: time %q must be in HH:MM form", ErrInvalidInput, v)
	}
	return nil
}
