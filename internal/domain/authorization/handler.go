package authorization

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rcm/rcm/internal/platform/auth"
	"github.com/rcm/rcm/internal/platform/metrics"
	"github.com/rcm/rcm/pkg/pagination"
)

type Handler struct {
	svc *Service
	m   *metrics.Metrics
}

func NewHandler(svc *Service, m *metrics.Metrics) *Handler {
	return &Handler{svc: svc, m: m}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "biller", "front_desk", "clinician"))
	readGroup.GET("/authorizations", h.List)
	readGroup.GET("/authorizations/expiring", h.ExpiringAlerts)
	readGroup.GET("/authorizations/:id", h.Get)
	readGroup.GET("/authorizations/:id/visits", h.ListVisits)

	writeGroup := api.Group("", auth.RequireRole("admin", "biller", "front_desk"))
	writeGroup.POST("/authorizations", h.Create)
	writeGroup.PUT("/authorizations/:id", h.Update)
	writeGroup.DELETE("/authorizations/:id", h.Delete)
	writeGroup.POST("/authorizations/:id/submit", h.Submit)
	writeGroup.PUT("/authorizations/:id/status", h.UpdateStatus)
	writeGroup.POST("/authorizations/:id/visits", h.RecordVisit)
	writeGroup.POST("/authorizations/:id/renew", h.Renew)
	writeGroup.POST("/authorizations/:id/alerts/:tier/dismiss", h.DismissAlert)

	adminGroup := api.Group("", auth.RequireRole("admin"))
	adminGroup.POST("/authorizations/mark-expired", h.MarkExpired)
}

// httpError maps the domain sentinels onto HTTP statuses. Unrecognized errors
// surface as 500 and rely on the request logger for detail.
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "authorization not found")
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrExpired), errors.Is(err, ErrVisitsExhausted), errors.Is(err, ErrRenewalInitiated):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func (h *Handler) Create(c echo.Context) error {
	var a AuthorizationRequest
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &a); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	view, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)

	filter := Filter{Status: c.QueryParam("status")}
	if raw := c.QueryParam("patient_id"); raw != "" {
		pid, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		filter.PatientID = &pid
	}
	if raw := c.QueryParam("payer_id"); raw != "" {
		pid, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid payer_id")
		}
		filter.PayerID = &pid
	}
	if raw := c.QueryParam("expiring_within"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid expiring_within")
		}
		filter.ExpiringWithin = &days
	}

	views, total, err := h.svc.List(c.Request().Context(), filter, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(views, total, pg.Limit, pg.Offset))
}

func (h *Handler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var a AuthorizationRequest
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a.ID = id
	if err := h.svc.Update(c.Request().Context(), &a); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Submit(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	view, err := h.svc.Submit(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	h.m.StatusTransitions.WithLabelValues(StatusDraft, StatusPending).Inc()
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	view, from, err := h.svc.Decide(c.Request().Context(), id, body.Status)
	if err != nil {
		return httpError(err)
	}
	h.m.StatusTransitions.WithLabelValues(from, body.Status).Inc()
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) RecordVisit(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var event VisitUsageEvent
	if err := c.Bind(&event); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	event.AuthorizationID = id
	if event.RecordedBy == "" {
		event.RecordedBy = auth.UserIDFromContext(c.Request().Context())
	}

	result, err := h.svc.RecordVisit(c.Request().Context(), &event)
	if err != nil {
		switch {
		case errors.Is(err, ErrExpired):
			h.m.VisitsRejected.WithLabelValues("expired").Inc()
		case errors.Is(err, ErrVisitsExhausted):
			h.m.VisitsRejected.WithLabelValues("exhausted").Inc()
		}
		return httpError(err)
	}
	h.m.VisitsRecorded.Inc()
	return c.JSON(http.StatusCreated, result)
}

func (h *Handler) ListVisits(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	events, total, err := h.svc.ListVisits(c.Request().Context(), id, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(events, total, pg.Limit, pg.Offset))
}

func (h *Handler) Renew(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	successor, err := h.svc.Renew(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, successor)
}

func (h *Handler) ExpiringAlerts(c echo.Context) error {
	alerts, err := h.svc.ExpiringAlerts(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	h.m.AlertsComputed.Add(float64(len(alerts)))
	return c.JSON(http.StatusOK, map[string]interface{}{
		"alerts": alerts,
		"total":  len(alerts),
	})
}

func (h *Handler) DismissAlert(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	actor := auth.UserIDFromContext(c.Request().Context())
	if err := h.svc.DismissAlert(c.Request().Context(), id, c.Param("tier"), actor); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) MarkExpired(c echo.Context) error {
	n, err := h.svc.MarkExpired(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]int{"expired": n})
}
