package billing

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medichannel/medichannel/internal/platform/auth"
	"github.com/medichannel/medichannel/pkg/pagination"
)

// Handler exposes billing over HTTP.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires billing endpoints onto the API group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	inv := g.Group("/invoices")
	inv.GET("/mine", h.MyInvoices, auth.RequireRole(auth.RolePatient))
	inv.GET("/:id", h.GetInvoice)
	inv.GET("/:id/payments", h.Payments)
	inv.POST("/:id/payments", h.RecordPayment, auth.RequireRole(auth.RolePatient))
	inv.POST("/:id/refund", h.Refund, auth.RequireRole(auth.RoleAdmin))

	g.GET("/appointments/:id/invoice", h.InvoiceForAppointment)
}

func (h *Handler) MyInvoices(c echo.Context) error {
	ctx := c.Request().Context()
	patientID, err := uuid.Parse(auth.ActorIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "actor identity is not valid")
	}

	p := pagination.FromContext(c)
	invoices, total, err := h.service.InvoicesForPatient(ctx, patientID, p.Limit, p.Offset)
	if err != nil {
		return h.mapError(err)
	}
	if invoices == nil {
		invoices = []*Invoice{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(invoices, total, p.Limit, p.Offset))
}

func (h *Handler) GetInvoice(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid invoice id")
	}
	inv, err := h.service.GetInvoice(c.Request().Context(), id)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) InvoiceForAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	inv, err := h.service.InvoiceForAppointment(c.Request().Context(), id)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) RecordPayment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid invoice id")
	}
	var req PaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	inv, err := h.service.RecordPayment(c.Request().Context(), id, req)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) Refund(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid invoice id")
	}
	inv, err := h.service.Refund(c.Request().Context(), id)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) Payments(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid invoice id")
	}
	payments, err := h.service.Payments(c.Request().Context(), id)
	if err != nil {
		return h.mapError(err)
	}
	if payments == nil {
		payments = []*Payment{}
	}
	return c.JSON(http.StatusOK, payments)
}

func (h *Handler) mapError(err error) error {
	switch {
	case errors.Is(err, ErrInvoiceNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAlreadyPaid), errors.Is(err, ErrNotRefundable), errors.Is(err, ErrDuplicateInvoice):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
