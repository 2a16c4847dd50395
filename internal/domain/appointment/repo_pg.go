package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

const appointmentColumns = `id, patient_id, doctor_id, date, start_time, status,
	booking_reference, consultation_fee, notes, created_at, updated_at`

// RepoPG implements Repo backed by PostgreSQL. The slot invariant rides on a
// partial unique index over (doctor_id, date, start_time) where status is not
// cancelled, so conflicting inserts lose at commit rather than at check time.
type RepoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) *RepoPG {
	return &RepoPG{pool: pool}
}

func (r *RepoPG) Create(ctx context.Context, a *Appointment) error {
	query := `
		INSERT INTO appointment (` + appointmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		a.ID, a.PatientID, a.DoctorID, a.Date, a.StartTime, a.Status,
		a.BookingReference, a.ConsultationFee, a.Notes, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			if pgErr.ConstraintName == "appointment_booking_reference_key" {
				return fmt.Errorf("booking reference collision: %w", err)
			}
			return ErrSlotTaken
		}
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (r *RepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointment WHERE id = $1`

	a, err := scanAppointment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return a, nil
}

func (r *RepoPG) BookedTimes(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	query := `
		SELECT start_time FROM appointment
		WHERE doctor_id = $1 AND date = $2 AND status <> $3
		ORDER BY start_time`

	rows, err := r.pool.Query(ctx, query, doctorID, date, StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("booked times: %w", err)
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan booked time: %w", err)
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

func (r *RepoPG) ReferenceExists(ctx context.Context, ref string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM appointment WHERE booking_reference = $1)`, ref).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("reference exists: %w", err)
	}
	return exists, nil
}

func (r *RepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, "WHERE patient_id = $1", []interface{}{patientID}, limit, offset)
}

func (r *RepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, "WHERE doctor_id = $1", []interface{}{doctorID}, limit, offset)
}

func (r *RepoPG) ListAll(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, "", nil, limit, offset)
}

func (r *RepoPG) list(ctx context.Context, where string, args []interface{}, limit, offset int) ([]*Appointment, int, error) {
	countQuery := "SELECT COUNT(*) FROM appointment"
	if where != "" {
		countQuery += " " + where
	}
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT `+appointmentColumns+`
		FROM appointment %s
		ORDER BY date DESC, start_time DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var appointments []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan appointment: %w", err)
		}
		appointments = append(appointments, a)
	}
	return appointments, total, rows.Err()
}

// Transition locks the row with SELECT FOR UPDATE so a concurrent transition
// on the same appointment serializes here; the loser re-validates against the
// committed state inside decide.
func (r *RepoPG) Transition(ctx context.Context, id uuid.UUID, decide func(current *Appointment) (*StatusLogEntry, error)) (*Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + appointmentColumns + ` FROM appointment WHERE id = $1 FOR UPDATE`
	a, err := scanAppointment(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("lock appointment: %w", err)
	}

	entry, err := decide(a)
	if err != nil {
		return nil, err
	}

	a.Status = entry.NewStatus
	a.UpdatedAt = entry.ChangedAt
	if _, err := tx.Exec(ctx,
		`UPDATE appointment SET status = $2, updated_at = $3 WHERE id = $1`,
		a.ID, a.Status, a.UpdatedAt); err != nil {
		// Restoring a cancelled appointment collides with the slot index when
		// the slot has been rebooked in the meantime.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("update status: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO status_log (appointment_id, old_status, new_status, changed_by, changed_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.AppointmentID, entry.OldStatus, entry.NewStatus,
		entry.ChangedBy, entry.ChangedAt, entry.Notes); err != nil {
		return nil, fmt.Errorf("insert status log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return a, nil
}

func (r *RepoPG) LogEntries(ctx context.Context, appointmentID uuid.UUID) ([]*StatusLogEntry, error) {
	query := `
		SELECT id, appointment_id, old_status, new_status, changed_by, changed_at, notes
		FROM status_log
		WHERE appointment_id = $1
		ORDER BY changed_at, id`

	rows, err := r.pool.Query(ctx, query, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("list status log: %w", err)
	}
	defer rows.Close()

	var entries []*StatusLogEntry
	for rows.Next() {
		e := &StatusLogEntry{}
		if err := rows.Scan(&e.ID, &e.AppointmentID, &e.OldStatus, &e.NewStatus,
			&e.ChangedBy, &e.ChangedAt, &e.Notes); err != nil {
			return nil, fmt.Errorf("scan status log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	a := &Appointment{}
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.StartTime, &a.Status,
		&a.BookingReference, &a.ConsultationFee, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}
