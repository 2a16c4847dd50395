package appointment

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medichannel/medichannel/internal/platform/auth"
	"github.com/medichannel/medichannel/pkg/pagination"
)

// Handler exposes the booking core over HTTP. Every error is serialized as a
// stable machine-readable kind plus a human-readable message; internals are
// never leaked.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires the booking endpoints onto the API group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/doctors/:id/slots", h.AvailableSlots)

	appts := g.Group("/appointments")
	appts.POST("", h.Book, auth.RequireRole(auth.RolePatient))
	appts.GET("", h.List)
	appts.GET("/:id", h.Get)
	appts.GET("/:id/history", h.History)
	appts.POST("/:id/status", h.Transition)
}

func (h *Handler) AvailableSlots(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeError(c, http.StatusBadRequest, "validation", "invalid doctor id")
	}
	slots, err := h.service.AvailableSlots(c.Request().Context(), doctorID, c.QueryParam("date"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"doctor_id": doctorID,
		"date":      c.QueryParam("date"),
		"slots":     slots,
	})
}

func (h *Handler) Book(c echo.Context) error {
	var req BookingRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, http.StatusBadRequest, "validation", "invalid request body")
	}
	detail, err := h.service.Book(c.Request().Context(), req)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusCreated, detail)
}

func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	p := pagination.FromContext(c)
	details, total, err := h.service.AppointmentsFor(ctx,
		auth.RoleFromContext(ctx), auth.ActorIDFromContext(ctx), p.Limit, p.Offset)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(details, total, p.Limit, p.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeError(c, http.StatusBadRequest, "validation", "invalid appointment id")
	}
	ctx := c.Request().Context()
	detail, err := h.service.Get(ctx, id, auth.RoleFromContext(ctx), auth.ActorIDFromContext(ctx))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *Handler) History(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeError(c, http.StatusBadRequest, "validation", "invalid appointment id")
	}
	ctx := c.Request().Context()
	entries, err := h.service.History(ctx, id, auth.RoleFromContext(ctx), auth.ActorIDFromContext(ctx))
	if err != nil {
		return h.mapError(c, err)
	}
	if entries == nil {
		entries = []*StatusLogEntry{}
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *Handler) Transition(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeError(c, http.StatusBadRequest, "validation", "invalid appointment id")
	}
	var req TransitionRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, http.StatusBadRequest, "validation", "invalid request body")
	}
	ctx := c.Request().Context()
	detail, err := h.service.Transition(ctx, id,
		auth.ActorIDFromContext(ctx), auth.RoleFromContext(ctx), req)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *Handler) mapError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrPastDate), errors.Is(err, ErrDoctorUnavailable):
		return writeError(c, http.StatusBadRequest, "validation", err.Error())
	case errors.Is(err, ErrDoctorNotFound), errors.Is(err, ErrPatientNotFound), errors.Is(err, ErrAppointmentNotFound):
		return writeError(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ErrSlotTaken):
		return writeError(c, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, ErrInvalidTransition):
		return writeError(c, http.StatusBadRequest, "invalid_transition", err.Error())
	case errors.Is(err, ErrForbidden):
		return writeError(c, http.StatusForbidden, "forbidden", err.Error())
	default:
		return writeError(c, http.StatusInternalServerError, "internal", "internal server error")
	}
}

func writeError(c echo.Context, status int, kind, message string) error {
	return c.JSON(status, echo.Map{"error": kind, "message": message})
}
