package directory

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

// DoctorRepoPG implements DoctorRepo backed by PostgreSQL.
type DoctorRepoPG struct {
	pool *pgxpool.Pool
}

func NewDoctorRepoPG(pool *pgxpool.Pool) *DoctorRepoPG {
	return &DoctorRepoPG{pool: pool}
}

func (r *DoctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	query := `
		INSERT INTO doctor (id, name, specialty, email, consultation_fee, available, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		d.ID, d.Name, d.Specialty, d.Email, d.ConsultationFee, d.Available, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert doctor: %w", err)
	}
	return nil
}

func (r *DoctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	query := `
		SELECT id, name, specialty, email, consultation_fee, available, created_at, updated_at
		FROM doctor WHERE id = $1`

	d, err := scanDoctor(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("get doctor: %w", err)
	}
	return d, nil
}

func (r *DoctorRepoPG) List(ctx context.Context, specialty string, limit, offset int) ([]*Doctor, int, error) {
	where := ""
	args := []interface{}{}
	if specialty != "" {
		where = " WHERE specialty = $1"
		args = append(args, specialty)
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM doctor"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count doctors: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, name, specialty, email, consultation_fee, available, created_at, updated_at
		FROM doctor%s
		ORDER BY name
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list doctors: %w", err)
	}
	defer rows.Close()

	var doctors []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan doctor: %w", err)
		}
		doctors = append(doctors, d)
	}
	return doctors, total, rows.Err()
}

func (r *DoctorRepoPG) Update(ctx context.Context, d *Doctor) error {
	query := `
		UPDATE doctor
		SET name = $2, specialty = $3, consultation_fee = $4, available = $5, updated_at = $6
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query,
		d.ID, d.Name, d.Specialty, d.ConsultationFee, d.Available, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update doctor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

// ReplaceWindows swaps a doctor's entire weekly schedule in one transaction so
// readers never observe a half-replaced week.
func (r *DoctorRepoPG) ReplaceWindows(ctx context.Context, doctorID uuid.UUID, windows []*WorkingWindow) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM working_window WHERE doctor_id = $1`, doctorID); err != nil {
		return fmt.Errorf("clear windows: %w", err)
	}
	for _, w := range windows {
		_, err := tx.Exec(ctx, `
			INSERT INTO working_window (id, doctor_id, weekday, start_time, end_time, is_break)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			w.ID, w.DoctorID, int(w.Weekday), w.Start, w.End, w.Break)
		if err != nil {
			return fmt.Errorf("insert window: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (r *DoctorRepoPG) WindowsForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*WorkingWindow, error) {
	query := `
		SELECT id, doctor_id, weekday, start_time, end_time, is_break
		FROM working_window
		WHERE doctor_id = $1
		ORDER BY weekday, start_time`

	rows, err := r.pool.Query(ctx, query, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}
	defer rows.Close()

	var windows []*WorkingWindow
	for rows.Next() {
		w := &WorkingWindow{}
		var weekday int
		if err := rows.Scan(&w.ID, &w.DoctorID, &weekday, &w.Start, &w.End, &w.Break); err != nil {
			return nil, fmt.Errorf("scan window: %w", err)
		}
		w.Weekday = time.Weekday(weekday)
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	d := &Doctor{}
	err := row.Scan(&d.ID, &d.Name, &d.Specialty, &d.Email, &d.ConsultationFee,
		&d.Available, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// PatientRepoPG implements PatientRepo backed by PostgreSQL.
type PatientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepoPG(pool *pgxpool.Pool) *PatientRepoPG {
	return &PatientRepoPG{pool: pool}
}

func (r *PatientRepoPG) Create(ctx context.Context, p *Patient) error {
	query := `
		INSERT INTO patient (id, name, email, phone, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query, p.ID, p.Name, p.Email, p.Phone, p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (r *PatientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	query := `SELECT id, name, email, phone, created_at FROM patient WHERE id = $1`

	p := &Patient{}
	err := r.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return p, nil
}

func (r *PatientRepoPG) GetByEmail(ctx context.Context, email string) (*Patient, error) {
	query := `SELECT id, name, email, phone, created_at FROM patient WHERE email = $1`

	p := &Patient{}
	err := r.pool.QueryRow(ctx, query, email).Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("get patient by email: %w", err)
	}
	return p, nil
}

func (r *PatientRepoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patient`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}

	query := `
		SELECT id, name, email, phone, created_at
		FROM patient
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p := &Patient{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan patient: %w", err)
		}
		patients = append(patients, p)
	}
	return patients, total, rows.Err()
}
