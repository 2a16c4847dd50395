// Package billing tracks invoices for booked appointments and the payments
// recorded against them. Gateway integration stays behind the narrow
// RecordPayment surface; this package never talks to a processor itself.
package billing

import (
	"time"

	"github.com/google/uuid"
)

// InvoiceStatus is an invoice lifecycle state.
type InvoiceStatus string

const (
	InvoicePending  InvoiceStatus = "pending"
	InvoicePaid     InvoiceStatus = "paid"
	InvoiceRefunded InvoiceStatus = "refunded"
)

// Invoice snapshots the consultation fee at booking time, so later fee
// changes on the doctor profile never reprice an existing appointment.
type Invoice struct {
	ID            uuid.UUID     `json:"id"`
	AppointmentID uuid.UUID     `json:"appointment_id"`
	PatientID     uuid.UUID     `json:"patient_id"`
	Amount        float64       `json:"amount"`
	Status        InvoiceStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Payment records one settlement against an invoice.
type Payment struct {
	ID        uuid.UUID `json:"id"`
	InvoiceID uuid.UUID `json:"invoice_id"`
	Amount    float64   `json:"amount"`
	Method    string    `json:"method"`
	Reference string    `json:"reference,omitempty"`
	PaidAt    time.Time `json:"paid_at"`
}

// PaymentRequest is the payload for recording a payment.
type PaymentRequest struct {
	Method    string `json:"method"`
	Reference string `json:"reference,omitempty"`
}
