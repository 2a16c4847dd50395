package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrInvoiceNotFound  = errors.New("invoice not found")
	ErrDuplicateInvoice = errors.New("appointment already invoiced")
)

// Repo is the persistence contract for invoices and payments.
//
// SettleInvoice must persist the payment and the invoice status change as one
// atomic unit.
type Repo interface {
	CreateInvoice(ctx context.Context, inv *Invoice) error
	GetInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error)
	GetInvoiceByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Invoice, error)
	ListInvoicesByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Invoice, int, error)
	UpdateInvoiceStatus(ctx context.Context, id uuid.UUID, status InvoiceStatus) (*Invoice, error)
	SettleInvoice(ctx context.Context, invoiceID uuid.UUID, p *Payment) (*Invoice, error)
	PaymentsForInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*Payment, error)
}
