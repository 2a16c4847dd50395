package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrAlreadyPaid   = errors.New("invoice already paid")
	ErrNotRefundable = errors.New("only paid invoices can be refunded")
)

// Service implements invoice and payment logic.
type Service struct {
	repo   Repo
	logger zerolog.Logger
}

func NewService(repo Repo, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "billing").Logger(),
	}
}

// InvoiceAppointment opens a pending invoice snapshotting the consultation
// fee. Invoicing the same appointment twice is a no-op returning the
// existing invoice.
func (s *Service) InvoiceAppointment(ctx context.Context, appointmentID, patientID uuid.UUID, amount float64) (*Invoice, error) {
	if amount < 0 {
		return nil, fmt.Errorf("%w: amount cannot be negative", ErrInvalidInput)
	}

	now := time.Now().UTC()
	inv := &Invoice{
		ID:            uuid.New(),
		AppointmentID: appointmentID,
		PatientID:     patientID,
		Amount:        amount,
		Status:        InvoicePending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.CreateInvoice(ctx, inv); err != nil {
		if errors.Is(err, ErrDuplicateInvoice) {
			return s.repo.GetInvoiceByAppointment(ctx, appointmentID)
		}
		return nil, err
	}

	s.logger.Info().
		Str("invoice_id", inv.ID.String()).
		Str("appointment_id", appointmentID.String()).
		Float64("amount", amount).
		Msg("invoice created")
	return inv, nil
}

// GetInvoice returns one invoice.
func (s *Service) GetInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return s.repo.GetInvoice(ctx, id)
}

// InvoiceForAppointment returns the invoice attached to an appointment.
func (s *Service) InvoiceForAppointment(ctx context.Context, appointmentID uuid.UUID) (*Invoice, error) {
	return s.repo.GetInvoiceByAppointment(ctx, appointmentID)
}

// InvoicesForPatient lists a patient's invoices, newest first.
func (s *Service) InvoicesForPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Invoice, int, error) {
	return s.repo.ListInvoicesByPatient(ctx, patientID, limit, offset)
}

// RecordPayment settles a pending invoice in full and marks it paid. The
// payment row and the status change commit together.
func (s *Service) RecordPayment(ctx context.Context, invoiceID uuid.UUID, req PaymentRequest) (*Invoice, error) {
	method := strings.TrimSpace(req.Method)
	if method == "" {
		return nil, fmt.Errorf("%w: payment method is required", ErrInvalidInput)
	}

	inv, err := s.repo.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status == InvoicePaid {
		return nil, ErrAlreadyPaid
	}

	p := &Payment{
		ID:        uuid.New(),
		InvoiceID: invoiceID,
		Amount:    inv.Amount,
		Method:    method,
		Reference: strings.TrimSpace(req.Reference),
		PaidAt:    time.Now().UTC(),
	}
	settled, err := s.repo.SettleInvoice(ctx, invoiceID, p)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("invoice_id", invoiceID.String()).
		Str("method", method).
		Float64("amount", p.Amount).
		Msg("payment recorded")
	return settled, nil
}

// Refund marks a paid invoice refunded. Moving the money back is the
// gateway's job; this only records the outcome.
func (s *Service) Refund(ctx context.Context, invoiceID uuid.UUID) (*Invoice, error) {
	inv, err := s.repo.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status != InvoicePaid {
		return nil, ErrNotRefundable
	}

	refunded, err := s.repo.UpdateInvoiceStatus(ctx, invoiceID, InvoiceRefunded)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("invoice_id", invoiceID.String()).Msg("invoice refunded")
	return refunded, nil
}

// Payments lists the payments recorded against an invoice.
func (s *Service) Payments(ctx context.Context, invoiceID uuid.UUID) ([]*Payment, error) {
	if _, err := s.repo.GetInvoice(ctx, invoiceID); err != nil {
		return nil, err
	}
	return s.repo.PaymentsForInvoice(ctx, invoiceID)
}
