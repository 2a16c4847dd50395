package billing

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

const invoiceColumns = `id, appointment_id, patient_id, amount, status, created_at, updated_at`

// RepoPG implements Repo backed by PostgreSQL.
type RepoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) *RepoPG {
	return &RepoPG{pool: pool}
}

func (r *RepoPG) CreateInvoice(ctx context.Context, inv *Invoice) error {
	query := `
		INSERT INTO invoice (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		inv.ID, inv.AppointmentID, inv.PatientID, inv.Amount, inv.Status, inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateInvoice
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

func (r *RepoPG) GetInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoice WHERE id = $1`
	return r.scanInvoiceRow(r.pool.QueryRow(ctx, query, id))
}

func (r *RepoPG) GetInvoiceByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoice WHERE appointment_id = $1`
	return r.scanInvoiceRow(r.pool.QueryRow(ctx, query, appointmentID))
}

func (r *RepoPG) ListInvoicesByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Invoice, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM invoice WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}

	query := `
		SELECT ` + invoiceColumns + `
		FROM invoice
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, patientID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*Invoice
	for rows.Next() {
		inv := &Invoice{}
		if err := rows.Scan(&inv.ID, &inv.AppointmentID, &inv.PatientID, &inv.Amount,
			&inv.Status, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, total, rows.Err()
}

func (r *RepoPG) UpdateInvoiceStatus(ctx context.Context, id uuid.UUID, status InvoiceStatus) (*Invoice, error) {
	query := `
		UPDATE invoice SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING ` + invoiceColumns

	return r.scanInvoiceRow(r.pool.QueryRow(ctx, query, id, status, time.Now().UTC()))
}

func (r *RepoPG) SettleInvoice(ctx context.Context, invoiceID uuid.UUID, p *Payment) (*Invoice, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO payment (id, invoice_id, amount, method, reference, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.InvoiceID, p.Amount, p.Method, p.Reference, p.PaidAt); err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}

	query := `
		UPDATE invoice SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING ` + invoiceColumns
	inv, err := r.scanInvoiceRow(tx.QueryRow(ctx, query, invoiceID, InvoicePaid, p.PaidAt))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return inv, nil
}

func (r *RepoPG) PaymentsForInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*Payment, error) {
	query := `
		SELECT id, invoice_id, amount, method, reference, paid_at
		FROM payment
		WHERE invoice_id = $1
		ORDER BY paid_at`

	rows, err := r.pool.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []*Payment
	for rows.Next() {
		p := &Payment{}
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.Method, &p.Reference, &p.PaidAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *RepoPG) scanInvoiceRow(row pgx.Row) (*Invoice, error) {
	inv := &Invoice{}
	err := row.Scan(&inv.ID, &inv.AppointmentID, &inv.PatientID, &inv.Amount,
		&inv.Status, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("scan invoice: %w", err)
	}
	return inv, nil
}
