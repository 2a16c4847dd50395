package directory

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medichannel/medichannel/internal/platform/auth"
	"github.com/medichannel/medichannel/pkg/pagination"
)

// Handler exposes the directory over HTTP.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires directory endpoints onto the API group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	doctors := g.Group("/doctors")
	doctors.GET("", h.ListDoctors)
	doctors.GET("/:id", h.GetDoctor)
	doctors.POST("", h.CreateDoctor, auth.RequireRole(auth.RoleAdmin))
	doctors.PATCH("/:id", h.UpdateDoctor, auth.RequireRole(auth.RoleDoctor, auth.RoleAdmin))
	doctors.GET("/:id/working-hours", h.WorkingHours)
	doctors.PUT("/:id/working-hours", h.SetWorkingHours, auth.RequireRole(auth.RoleDoctor, auth.RoleAdmin))

	patients := g.Group("/patients", auth.RequireRole(auth.RoleAdmin))
	patients.GET("", h.ListPatients)
	patients.GET("/:id", h.GetPatient)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	p := pagination.FromContext(c)
	doctors, total, err := h.service.ListDoctors(c.Request().Context(), c.QueryParam("specialty"), p.Limit, p.Offset)
	if err != nil {
		return h.mapError(err)
	}
	if doctors == nil {
		doctors = []*Doctor{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(doctors, total, p.Limit, p.Offset))
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	d, err := h.service.GetDoctor(c.Request().Context(), id)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) CreateDoctor(c echo.Context) error {
	var req CreateDoctorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	d, err := h.service.CreateDoctor(c.Request().Context(), req)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	var req UpdateDoctorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	d, err := h.service.UpdateDoctor(c.Request().Context(), id, req)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) WorkingHours(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	windows, err := h.service.WorkingHours(c.Request().Context(), id)
	if err != nil {
		return h.mapError(err)
	}
	if windows == nil {
		windows = []*WorkingWindow{}
	}
	return c.JSON(http.StatusOK, windows)
}

func (h *Handler) SetWorkingHours(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	var inputs []WindowInput
	if err := c.Bind(&inputs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	windows, err := h.service.SetWorkingHours(c.Request().Context(), id, inputs)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, windows)
}

func (h *Handler) ListPatients(c echo.Context) error {
	p := pagination.FromContext(c)
	patients, total, err := h.service.ListPatients(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return h.mapError(err)
	}
	if patients == nil {
		patients = []*Patient{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(patients, total, p.Limit, p.Offset))
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	p, err := h.service.GetPatient(c.Request().Context(), id)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) mapError(err error) error {
	switch {
	case errors.Is(err, ErrDoctorNotFound), errors.Is(err, ErrPatientNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicateEmail):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
