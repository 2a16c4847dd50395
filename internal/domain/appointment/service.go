package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medichannel/medichannel/internal/domain/directory"
	"github.com/medichannel/medichannel/internal/platform/auth"
	"github.com/medichannel/medichannel/internal/platform/events"
)

const defaultReason = "General consultation"

// DoctorDirectory is the slice of the directory the booking core needs.
type DoctorDirectory interface {
	GetDoctor(ctx context.Context, id uuid.UUID) (*directory.Doctor, error)
	WorkingHours(ctx context.Context, id uuid.UUID) ([]*directory.WorkingWindow, error)
}

// PatientDirectory resolves booking identities to patient records.
type PatientDirectory interface {
	ResolvePatient(ctx context.Context, identity directory.PatientIdentity) (*directory.Patient, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*directory.Patient, error)
}

// Service implements slot resolution, booking, and the status lifecycle.
type Service struct {
	repo        Repo
	doctors     DoctorDirectory
	patients    PatientDirectory
	publisher   events.Publisher
	logger      zerolog.Logger
	slotMinutes int
	now         func() time.Time
}

func NewService(repo Repo, doctors DoctorDirectory, patients PatientDirectory,
	publisher events.Publisher, logger zerolog.Logger, slotMinutes int) *Service {
	if slotMinutes <= 0 {
		slotMinutes = 30
	}
	return &Service{
		repo:        repo,
		doctors:     doctors,
		patients:    patients,
		publisher:   publisher,
		logger:      logger.With().Str("component", "appointment").Logger(),
		slotMinutes: slotMinutes,
		now:         time.Now,
	}
}

// AvailableSlots returns the open slot times for a doctor on a calendar day,
// ascending. A weekday with no configured windows yields an empty list, not
// an error.
func (s *Service) AvailableSlots(ctx context.Context, doctorID uuid.UUID, dateStr string) ([]string, error) {
	date, err := parseDate(dateStr)
	if err != nil {
		return nil, err
	}
	if _, err := s.doctors.GetDoctor(ctx, doctorID); err != nil {
		return nil, mapDirectoryErr(err)
	}
	windows, err := s.doctors.WorkingHours(ctx, doctorID)
	if err != nil {
		return nil, mapDirectoryErr(err)
	}

	bookedTimes, err := s.repo.BookedTimes(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	booked := make(map[string]struct{}, len(bookedTimes))
	for _, t := range bookedTimes {
		booked[t] = struct{}{}
	}

	slots := buildSlots(windows, date.Weekday(), s.slotMinutes, booked)
	if slots == nil {
		slots = []string{}
	}
	return slots, nil
}

// Book validates and persists a new appointment. The slot conflict check and
// the insert are one atomic unit in the repository: under concurrent bookings
// of the same slot exactly one caller succeeds and the rest get ErrSlotTaken.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*Detail, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if _, err := time.Parse("15:04", req.Time); err != nil {
		return nil, fmt.Errorf("%w: time %q must be in HH:MM form", ErrInvalidInput, req.Time)
	}
	today := s.today()
	if date.Before(today) {
		return nil, ErrPastDate
	}

	doctor, err := s.doctors.GetDoctor(ctx, req.DoctorID)
	if err != nil {
		return nil, mapDirectoryErr(err)
	}
	if !doctor.Available {
		return nil, ErrDoctorUnavailable
	}

	patient, err := s.patients.ResolvePatient(ctx, req.Patient)
	if err != nil {
		return nil, mapDirectoryErr(err)
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = defaultReason
	}

	ref, err := newBookingReference(ctx, s.repo.ReferenceExists)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	a := &Appointment{
		ID:               uuid.New(),
		PatientID:        patient.ID,
		DoctorID:         doctor.ID,
		Date:             date,
		StartTime:        req.Time,
		Status:           StatusScheduled,
		BookingReference: ref,
		ConsultationFee:  doctor.ConsultationFee,
		Notes:            reason,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", a.ID.String()).
		Str("doctor_id", doctor.ID.String()).
		Str("booking_reference", ref).
		Str("date", req.Date).
		Str("time", req.Time).
		Msg("appointment booked")

	detail := s.detail(a, doctor, patient)
	s.emit(ctx, "appointment.booked", a, "", a.Status, patient.ID.String(), detail)
	return detail, nil
}

// Transition moves an appointment along a role-scoped edge of the lifecycle.
// The legality check runs inside the repository's row lock, so a concurrent
// transition loser re-validates against the committed state and fails with
// ErrInvalidTransition. The audit entry commits with the status change; event
// delivery afterwards is best-effort.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, actorID, role string, req TransitionRequest) (*Detail, error) {
	target, ok := ParseStatus(req.Target)
	if !ok {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, req.Target)
	}

	var oldStatus Status
	updated, err := s.repo.Transition(ctx, id, func(current *Appointment) (*StatusLogEntry, error) {
		if !CanTransition(role, current.Status, target) {
			return nil, fmt.Errorf("%w: %s may not move %s to %s",
				ErrInvalidTransition, role, current.Status, target)
		}
		oldStatus = current.Status
		return &StatusLogEntry{
			AppointmentID: current.ID,
			OldStatus:     current.Status,
			NewStatus:     target,
			ChangedBy:     actorID,
			ChangedAt:     s.now().UTC(),
			Notes:         req.Notes,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", id.String()).
		Str("old_status", string(oldStatus)).
		Str("new_status", string(target)).
		Str("actor", actorID).
		Msg("appointment status changed")

	detail, derr := s.detailFor(ctx, updated)
	if derr != nil {
		// The transition is committed; fall back to the bare record.
		detail = s.detail(updated, nil, nil)
	}
	s.emit(ctx, "appointment.status_changed", updated, oldStatus, target, actorID, detail)
	return detail, nil
}

// Get returns one appointment if it is visible to the actor.
func (s *Service) Get(ctx context.Context, id uuid.UUID, role, actorID string) (*Detail, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkVisibility(a, role, actorID); err != nil {
		return nil, err
	}
	return s.detailFor(ctx, a)
}

// History returns the append-only status log for a visible appointment.
func (s *Service) History(ctx context.Context, id uuid.UUID, role, actorID string) ([]*StatusLogEntry, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkVisibility(a, role, actorID); err != nil {
		return nil, err
	}
	return s.repo.LogEntries(ctx, id)
}

// AppointmentsFor lists appointments scoped by role: patients and doctors see
// their own, admins see everything. Each record carries its dashboard
// indicator derived from the current time.
func (s *Service) AppointmentsFor(ctx context.Context, role, actorID string, limit, offset int) ([]*Detail, int, error) {
	var (
		list  []*Appointment
		total int
		err   error
	)
	switch role {
	case auth.RolePatient:
		var pid uuid.UUID
		if pid, err = uuid.Parse(actorID); err != nil {
			return nil, 0, fmt.Errorf("%w: actor id is not a patient id", ErrInvalidInput)
		}
		list, total, err = s.repo.ListByPatient(ctx, pid, limit, offset)
	case auth.RoleDoctor:
		var did uuid.UUID
		if did, err = uuid.Parse(actorID); err != nil {
			return nil, 0, fmt.Errorf("%w: actor id is not a doctor id", ErrInvalidInput)
		}
		list, total, err = s.repo.ListByDoctor(ctx, did, limit, offset)
	case auth.RoleAdmin:
		list, total, err = s.repo.ListAll(ctx, limit, offset)
	default:
		return nil, 0, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	if err != nil {
		return nil, 0, err
	}

	doctors := make(map[uuid.UUID]*directory.Doctor)
	patients := make(map[uuid.UUID]*directory.Patient)
	details := make([]*Detail, 0, len(list))
	for _, a := range list {
		doctor, ok := doctors[a.DoctorID]
		if !ok {
			if doctor, err = s.doctors.GetDoctor(ctx, a.DoctorID); err != nil {
				doctor = nil
			}
			doctors[a.DoctorID] = doctor
		}
		patient, ok := patients[a.PatientID]
		if !ok {
			if patient, err = s.patients.GetPatient(ctx, a.PatientID); err != nil {
				patient = nil
			}
			patients[a.PatientID] = patient
		}
		details = append(details, s.detail(a, doctor, patient))
	}
	return details, total, nil
}

func (s *Service) checkVisibility(a *Appointment, role, actorID string) error {
	switch role {
	case auth.RoleAdmin:
		return nil
	case auth.RolePatient:
		if a.PatientID.String() == actorID {
			return nil
		}
	case auth.RoleDoctor:
		if a.DoctorID.String() == actorID {
			return nil
		}
	}
	return ErrForbidden
}

func (s *Service) detailFor(ctx context.Context, a *Appointment) (*Detail, error) {
	doctor, err := s.doctors.GetDoctor(ctx, a.DoctorID)
	if err != nil {
		return nil, mapDirectoryErr(err)
	}
	patient, err := s.patients.GetPatient(ctx, a.PatientID)
	if err != nil {
		return nil, mapDirectoryErr(err)
	}
	return s.detail(a, doctor, patient), nil
}

func (s *Service) detail(a *Appointment, doctor *directory.Doctor, patient *directory.Patient) *Detail {
	d := &Detail{
		Appointment: *a,
		Indicator:   a.Indicator(s.now().UTC()),
	}
	if doctor != nil {
		d.DoctorName = doctor.Name
		d.DoctorSpecialty = doctor.Specialty
	}
	if patient != nil {
		d.PatientName = patient.Name
		d.PatientEmail = patient.Email
	}
	return d
}

type statusEvent struct {
	AppointmentID string  `json:"appointment_id"`
	OldStatus     Status  `json:"old_status,omitempty"`
	NewStatus     Status  `json:"new_status"`
	Actor         string  `json:"actor"`
	Appointment   *Detail `json:"appointment"`
	Timestamp     string  `json:"timestamp"`
}

// emit publishes one event per interested topic. Delivery is at-most-once:
// failures are logged and never propagated to the caller, whose write has
// already committed.
func (s *Service) emit(ctx context.Context, eventType string, a *Appointment, oldStatus, newStatus Status, actorID string, detail *Detail) {
	if s.publisher == nil {
		return
	}
	payload := statusEvent{
		AppointmentID: a.ID.String(),
		OldStatus:     oldStatus,
		NewStatus:     newStatus,
		Actor:         actorID,
		Appointment:   detail,
		Timestamp:     s.now().UTC().Format(time.RFC3339),
	}
	topics := []string{
		"appointments",
		"doctor:" + a.DoctorID.String(),
		"patient:" + a.PatientID.String(),
	}
	for _, topic := range topics {
		ev, err := events.NewEvent(eventType, topic, payload)
		if err != nil {
			s.logger.Error().Err(err).Str("topic", topic).Msg("failed to build event")
			continue
		}
		if err := s.publisher.Publish(ctx, ev); err != nil {
			s.logger.Error().Err(err).Str("topic", topic).Str("event_type", eventType).
				Msg("event delivery failed")
		}
	}
}

// today truncates the current instant to a midnight-UTC calendar day,
// matching the storage form of Appointment.Date.
func (s *Service) today() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func parseDate(v string) (time.Time, error) {
	date, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be in YYYY-MM-DD form", ErrInvalidInput, v)
	}
	return date, nil
}

func mapDirectoryErr(err error) error {
	switch {
	case errors.Is(err, directory.ErrDoctorNotFound):
		return ErrDoctorNotFound
	case errors.Is(err, directory.ErrPatientNotFound):
		return ErrPatientNotFound
	case errors.Is(err, directory.ErrInvalidInput):
		return fmt.Errorf("%w: %s", ErrInvalidInput, err)
	default:
		return err
	}
}
