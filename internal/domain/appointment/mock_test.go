package appointment

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medichannel/medichannel/internal/domain/directory"
	"github.com/medichannel/medichannel/internal/platform/events"
)

// mockRepo is an in-memory Repo. The mutex spans the conflict check and the
// insert in Create, mirroring the database's partial unique index.
type mockRepo struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]*Appointment
	log          []*StatusLogEntry
	nextLogID    int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{appointments: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.appointments {
		if existing.Status != StatusCancelled &&
			existing.DoctorID == a.DoctorID &&
			existing.Date.Equal(a.Date) &&
			existing.StartTime == a.StartTime {
			return ErrSlotTaken
		}
	}
	cp := *a
	m.appointments[a.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) BookedTimes(_ context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var times []string
	for _, a := range m.appointments {
		if a.Status != StatusCancelled && a.DoctorID == doctorID && a.Date.Equal(date) {
			times = append(times, a.StartTime)
		}
	}
	return times, nil
}

func (m *mockRepo) ReferenceExists(_ context.Context, ref string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appointments {
		if a.BookingReference == ref {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return m.filter(func(a *Appointment) bool { return a.PatientID == patientID })
}

func (m *mockRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return m.filter(func(a *Appointment) bool { return a.DoctorID == doctorID })
}

func (m *mockRepo) ListAll(_ context.Context, limit, offset int) ([]*Appointment, int, error) {
	return m.filter(func(*Appointment) bool { return true })
}

func (m *mockRepo) filter(keep func(*Appointment) bool) ([]*Appointment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Appointment
	for _, a := range m.appointments {
		if keep(a) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) Transition(_ context.Context, id uuid.UUID, decide func(current *Appointment) (*StatusLogEntry, error)) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cur := *a
	entry, err := decide(&cur)
	if err != nil {
		return nil, err
	}
	a.Status = entry.NewStatus
	a.UpdatedAt = entry.ChangedAt
	m.nextLogID++
	entry.ID = m.nextLogID
	m.log = append(m.log, entry)
	cp := *a
	return &cp, nil
}

func (m *mockRepo) LogEntries(_ context.Context, appointmentID uuid.UUID) ([]*StatusLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*StatusLogEntry
	for _, e := range m.log {
		if e.AppointmentID == appointmentID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

// mockDirectory serves both directory interfaces from in-memory maps.
type mockDirectory struct {
	mu       sync.Mutex
	doctors  map[uuid.UUID]*directory.Doctor
	windows  map[uuid.UUID][]*directory.WorkingWindow
	patients map[uuid.UUID]*directory.Patient
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{
		doctors:  make(map[uuid.UUID]*directory.Doctor),
		windows:  make(map[uuid.UUID][]*directory.WorkingWindow),
		patients: make(map[uuid.UUID]*directory.Patient),
	}
}

func (m *mockDirectory) addDoctor(available bool, fee float64) *directory.Doctor {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := &directory.Doctor{
		ID:              uuid.New(),
		Name:            "Dr. Test",
		Specialty:       "General Medicine",
		Email:           "doctor@example.com",
		ConsultationFee: fee,
		Available:       available,
	}
	m.doctors[d.ID] = d
	return d
}

func (m *mockDirectory) addWindow(doctorID uuid.UUID, weekday time.Weekday, start, end string, isBreak bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.windows[doctorID] = append(m.windows[doctorID], &directory.WorkingWindow{
		ID:       uuid.New(),
		DoctorID: doctorID,
		Weekday:  weekday,
		Start:    start,
		End:      end,
		Break:    isBreak,
	})
}

func (m *mockDirectory) GetDoctor(_ context.Context, id uuid.UUID) (*directory.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.doctors[id]
	if !ok {
		return nil, directory.ErrDoctorNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *mockDirectory) WorkingHours(_ context.Context, id uuid.UUID) ([]*directory.WorkingWindow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.windows[id], nil
}

func (m *mockDirectory) ResolvePatient(_ context.Context, identity directory.PatientIdentity) (*directory.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.patients {
		if p.Email == identity.Email {
			cp := *p
			return &cp, nil
		}
	}
	p := &directory.Patient{
		ID:    uuid.New(),
		Name:  identity.Name,
		Email: identity.Email,
		Phone: identity.Phone,
	}
	m.patients[p.ID] = p
	cp := *p
	return &cp, nil
}

func (m *mockDirectory) GetPatient(_ context.Context, id uuid.UUID) (*directory.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, directory.ErrPatientNotFound
	}
	cp := *p
	return &cp, nil
}

// capturePublisher records published events; fail makes Publish error to
// exercise best-effort delivery.
type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
	fail   error
}

func (p *capturePublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) published() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Event, len(p.events))
	copy(out, p.events)
	return out
}
