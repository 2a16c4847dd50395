package billing

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medichannel/medichannel/internal/platform/events"
)

// Invoicer is an event sink that opens an invoice whenever an appointment is
// booked. It listens on the shared "appointments" topic only, so the per-actor
// copies of the same event do not produce duplicate work.
type Invoicer struct {
	service *Service
	logger  zerolog.Logger
}

func NewInvoicer(service *Service, logger zerolog.Logger) *Invoicer {
	return &Invoicer{
		service: service,
		logger:  logger.With().Str("component", "billing-invoicer").Logger(),
	}
}

type bookedPayload struct {
	AppointmentID string `json:"appointment_id"`
	Appointment   struct {
		PatientID       uuid.UUID `json:"patient_id"`
		ConsultationFee float64   `json:"consultation_fee"`
	} `json:"appointment"`
}

// Publish implements events.Publisher. Errors are logged, not returned: a
// booking must never fail because invoicing did, and a missed invoice can be
// re-created on demand since InvoiceAppointment is idempotent.
func (i *Invoicer) Publish(ctx context.Context, event events.Event) error {
	if event.Type != "appointment.booked" || event.Topic != "appointments" {
		return nil
	}

	var payload bookedPayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		i.logger.Error().Err(err).Msg("could not decode booking event")
		return nil
	}
	appointmentID, err := uuid.Parse(payload.AppointmentID)
	if err != nil {
		i.logger.Error().Err(err).Msg("booking event carries an invalid appointment id")
		return nil
	}

	if _, err := i.service.InvoiceAppointment(ctx, appointmentID,
		payload.Appointment.PatientID, payload.Appointment.ConsultationFee); err != nil {
		i.logger.Error().Err(err).
			Str("appointment_id", payload.AppointmentID).
			Msg("failed to invoice booked appointment")
	}
	return nil
}
