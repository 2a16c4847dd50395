package appointment

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medichannel/medichannel/internal/domain/directory"
)

func newSlotService(repo *mockRepo, dir *mockDirectory) *Service {
	return NewService(repo, dir, dir, nil, zerolog.Nop(), 30)
}

func TestAvailableSlots(t *testing.T) {
	repo := newMockRepo()
	dir := newMockDirectory()
	svc := newSlotService(repo, dir)

	day := time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC)
	doctor := dir.addDoctor(true, 100)
	dir.addWindow(doctor.ID, day.Weekday(), "09:00", "12:00", false)
	dir.addWindow(doctor.ID, day.Weekday(), "10:30", "11:00", true)

	// One slot already booked.
	if err := repo.Create(context.Background(), &Appointment{
		ID: uuid.New(), DoctorID: doctor.ID, PatientID: uuid.New(),
		Date: day, StartTime: "09:30", Status: StatusScheduled,
	}); err != nil {
		t.Fatalf("seed booking failed: %v", err)
	}

	slots, err := svc.AvailableSlots(context.Background(), doctor.ID, "2030-01-07")
	if err != nil {
		t.Fatalf("AvailableSlots failed: %v", err)
	}

	want := []string{"09:00", "10:00", "11:00", "11:30"}
	if !reflect.DeepEqual(slots, want) {
		t.Errorf("slots = %v, want %v", slots, want)
	}
}

func TestAvailableSlotsExcludesBookedTimes(t *testing.T) {
	repo := newMockRepo()
	dir := newMockDirectory()
	svc := newSlotService(repo, dir)

	day := time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC)
	doctor := dir.addDoctor(true, 100)
	dir.addWindow(doctor.ID, day.Weekday(), "09:00", "11:00", false)

	booked := []string{"09:00", "10:30"}
	for _, bt := range booked {
		if err := repo.Create(context.Background(), &Appointment{
			ID: uuid.New(), DoctorID: doctor.ID, PatientID: uuid.New(),
			Date: day, StartTime: bt, Status: StatusConfirmed,
		}); err != nil {
			t.Fatalf("seed booking failed: %v", err)
		}
	}

	slots, err := svc.AvailableSlots(context.Background(), doctor.ID, "2030-01-07")
	if err != nil {
		t.Fatalf("AvailableSlots failed: %v", err)
	}
	for _, s := range slots {
		for _, bt := range booked {
			if s == bt {
				t.Errorf("slot %s is already booked", s)
			}
		}
	}
}

func TestAvailableSlotsCancelledFreesSlot(t *testing.T) {
	repo := newMockRepo()
	dir := newMockDirectory()
	svc := newSlotService(repo, dir)

	day := time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC)
	doctor := dir.addDoctor(true, 100)
	dir.addWindow(doctor.ID, day.Weekday(), "09:00", "10:00", false)

	if err := repo.Create(context.Background(), &Appointment{
		ID: uuid.New(), DoctorID: doctor.ID, PatientID: uuid.New(),
		Date: day, StartTime: "09:00", Status: StatusCancelled,
	}); err != nil {
		t.Fatalf("seed booking failed: %v", err)
	}

	slots, err := svc.AvailableSlots(context.Background(), doctor.ID, "2030-01-07")
	if err != nil {
		t.Fatalf("AvailableSlots failed: %v", err)
	}
	want := []string{"09:00", "09:30"}
	if !reflect.DeepEqual(slots, want) {
		t.Errorf("slots = %v, want %v (cancelled bookings must not block slots)", slots, want)
	}
}

func TestAvailableSlotsNoWindowsForWeekday(t *testing.T) {
	repo := newMockRepo()
	dir := newMockDirectory()
	svc := newSlotService(repo, dir)

	doctor := dir.addDoctor(true, 100)
	// No windows configured at all.

	slots, err := svc.AvailableSlots(context.Background(), doctor.ID, "2030-01-07")
	if err != nil {
		t.Fatalf("AvailableSlots failed: %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("expected empty slots, got %v", slots)
	}
}

func TestAvailableSlotsUnknownDoctor(t *testing.T) {
	svc := newSlotService(newMockRepo(), newMockDirectory())

	_, err := svc.AvailableSlots(context.Background(), uuid.New(), "2030-01-07")
	if !errors.Is(err, ErrDoctorNotFound) {
		t.Errorf("expected ErrDoctorNotFound, got %v", err)
	}
}

func TestAvailableSlotsBadDate(t *testing.T) {
	dir := newMockDirectory()
	svc := newSlotService(newMockRepo(), dir)
	doctor := dir.addDoctor(true, 100)

	_, err := svc.AvailableSlots(context.Background(), doctor.ID, "07/01/2030")
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAvailableSlotsIdempotentRead(t *testing.T) {
	repo := newMockRepo()
	dir := newMockDirectory()
	svc := newSlotService(repo, dir)

	day := time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC)
	doctor := dir.addDoctor(true, 100)
	dir.addWindow(doctor.ID, day.Weekday(), "09:00", "12:00", false)

	first, err := svc.AvailableSlots(context.Background(), doctor.ID, "2030-01-07")
	if err != nil {
		t.Fatalf("AvailableSlots failed: %v", err)
	}
	second, err := svc.AvailableSlots(context.Background(), doctor.ID, "2030-01-07")
	if err != nil {
		t.Fatalf("AvailableSlots failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated reads differ: %v vs %v", first, second)
	}
}

func TestBuildSlotsPartialBreakOverlap(t *testing.T) {
	doctorID := uuid.New()
	windows := []*directory.WorkingWindow{
		{DoctorID: doctorID, Weekday: time.Monday, Start: "09:00", End: "11:00"},
		// Break straddles the 09:45 boundary: both 09:30 and 10:00 slots
		// overlap it and must disappear.
		{DoctorID: doctorID, Weekday: time.Monday, Start: "09:45", End: "10:15", Break: true},
	}

	slots := buildSlots(windows, time.Monday, 30, nil)
	want := []string{"09:00", "10:30"}
	if !reflect.DeepEqual(slots, want) {
		t.Errorf("slots = %v, want %v", slots, want)
	}
}

func TestBuildSlotsIgnoresOtherWeekdays(t *testing.T) {
	doctorID := uuid.New()
	windows := []*directory.WorkingWindow{
		{DoctorID: doctorID, Weekday: time.Tuesday, Start: "09:00", End: "17:00"},
	}

	if slots := buildSlots(windows, time.Monday, 30, nil); len(slots) != 0 {
		t.Errorf("expected no Monday slots, got %v", slots)
	}
}
