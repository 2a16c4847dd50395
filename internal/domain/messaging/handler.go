package messaging

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medichannel/medichannel/internal/platform/auth"
	"github.com/medichannel/medichannel/pkg/pagination"
)

// Handler exposes messaging over HTTP.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires messaging endpoints onto the API group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	msgs := g.Group("/messages", auth.RequireRole(auth.RolePatient, auth.RoleDoctor))
	msgs.POST("", h.Send)
	msgs.GET("/with/:id", h.Conversation)
	msgs.POST("/with/:id/read", h.MarkRead)
	msgs.GET("/unread", h.UnreadCount)
}

func (h *Handler) Send(c echo.Context) error {
	ctx := c.Request().Context()
	senderID, err := uuid.Parse(auth.ActorIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "actor identity is not valid")
	}

	var req SendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	m, err := h.service.Send(ctx, senderID, auth.RoleFromContext(ctx), req)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) Conversation(c echo.Context) error {
	ctx := c.Request().Context()
	actorID, err := uuid.Parse(auth.ActorIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "actor identity is not valid")
	}
	otherID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid counterpart id")
	}

	p := pagination.FromContext(c)
	messages, total, err := h.service.Conversation(ctx, actorID, otherID, p.Limit, p.Offset)
	if err != nil {
		return h.mapError(err)
	}
	if messages == nil {
		messages = []*Message{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(messages, total, p.Limit, p.Offset))
}

func (h *Handler) MarkRead(c echo.Context) error {
	ctx := c.Request().Context()
	actorID, err := uuid.Parse(auth.ActorIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "actor identity is not valid")
	}
	otherID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid counterpart id")
	}

	n, err := h.service.MarkRead(ctx, actorID, otherID)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"marked_read": n})
}

func (h *Handler) UnreadCount(c echo.Context) error {
	ctx := c.Request().Context()
	actorID, err := uuid.Parse(auth.ActorIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "actor identity is not valid")
	}

	n, err := h.service.UnreadCount(ctx, actorID)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"unread": n})
}

func (h *Handler) mapError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrMessageNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
