package appointment

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medtrack/medtrack/internal/platform/auth"
	"github.com/medtrack/medtrack/internal/view"
	"github.com/medtrack/medtrack/pkg/pagination"
)

type Handler struct {
	svc   *Service
	links view.LinkResolver
}

func NewHandler(svc *Service, links view.LinkResolver) *Handler {
	return &Handler{svc: svc, links: links}
}

// RegisterRoutes mounts the appointment API and the portal pages on the
// authenticated group. The dashboard and logout routes are named so the
// view layer can resolve them.
func (h *Handler) RegisterRoutes(authed *echo.Group) {
	patientGroup := authed.Group("", auth.RequireRole(auth.RolePatient))
	patientGroup.POST("/appointments", h.Book)

	doctorGroup := authed.Group("", auth.RequireRole(auth.RoleDoctor))
	doctorGroup.POST("/appointments/:id/complete", h.Complete)

	authed.GET("/appointments", h.List)
	authed.POST("/appointments/:id/cancel", h.Cancel)

	authed.GET("/portal/dashboard", h.Dashboard).Name = view.RoutePatientDashboard
	authed.GET("/portal/appointments/:id", h.Detail)
}

type bookRequest struct {
	DoctorID string `json:"doctor_id"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Reason   string `json:"reason"`
}

func (h *Handler) Book(c echo.Context) error {
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	patientID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
	}
	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
	}

	a, err := h.svc.Book(c.Request().Context(), patientID, doctorID, req.Date, req.Time, req.Reason)
	if err != nil {
		if errors.Is(err, ErrSlotTaken) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	pg := pagination.FromContext(c)
	appts, total, err := h.svc.ListForUser(ctx, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(appts, total, pg.Limit, pg.Offset))
}

func (h *Handler) Complete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	a, err := h.svc.Complete(ctx, id, auth.UserIDFromContext(ctx))
	if err != nil {
		return statusError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	a, err := h.svc.Cancel(ctx, id, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx))
	if err != nil {
		return statusError(err)
	}
	return c.JSON(http.StatusOK, a)
}

type dashboardResponse struct {
	Name         string               `json:"name"`
	Role         string               `json:"role"`
	Appointments *pagination.Response `json:"appointments"`
}

// Dashboard returns the signed-in user's appointment overview.
func (h *Handler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	pg := pagination.FromContext(c)
	appts, total, err := h.svc.ListForUser(ctx, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, dashboardResponse{
		Name:         auth.UserNameFromContext(ctx),
		Role:         auth.RoleFromContext(ctx),
		Appointments: pagination.NewResponse(appts, total, pg.Limit, pg.Offset),
	})
}

// Detail renders the appointment detail view. A missing appointment, an
// unparseable id, or one owned by someone else all produce the not-found
// model with a 200, absence is part of the page, not a transport failure.
func (h *Handler) Detail(c echo.Context) error {
	ctx := c.Request().Context()

	var record *view.AppointmentRecord
	if id, err := uuid.Parse(c.Param("id")); err == nil {
		a, err := h.svc.Get(ctx, id, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx))
		switch {
		case err == nil:
			record = &view.AppointmentRecord{
				ID:     a.ID.String(),
				Doctor: a.DoctorName,
				Date:   a.Date,
				Time:   a.Time,
			}
		case errors.Is(err, ErrAppointmentNotFound):
			// record stays nil
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	model, err := view.Appointment(record, h.links)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if wantsHTML(c) {
		c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
		c.Response().WriteHeader(http.StatusOK)
		return view.Page(c.Response(), model)
	}
	return c.JSON(http.StatusOK, model)
}

func statusError(err error) error {
	switch {
	case errors.Is(err, ErrAppointmentNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotBooked):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func wantsHTML(c echo.Context) bool {
	accept := c.Request().Header.Get("Accept")
	return strings.Contains(accept, echo.MIMETextHTML)
}
