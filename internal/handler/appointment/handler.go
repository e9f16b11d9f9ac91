package appointment

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type AppointmentService interface {
	Book(ctx context.Context, patientID uuid.UUID, req *model.BookAppointmentRequest) (*model.Appointment, error)
	Update(ctx context.Context, callerID, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error)
	Cancel(ctx context.Context, id, callerID uuid.UUID) (*model.Appointment, error)
	ChangeStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) (*model.Appointment, error)
	DoctorDay(ctx context.Context, doctorID uuid.UUID, date time.Time, patientName string) ([]model.DoctorAppointmentView, error)
}

type Handler struct {
	service AppointmentService
	loc     *time.Location
}

// NewHandler reads query dates in loc, the clinic time zone.
func NewHandler(service AppointmentService, loc *time.Location) *Handler {
	return &Handler{service: service, loc: loc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	appointments := r.Group("/appointments")
	{
		appointments.GET("", auth.RequireRole(model.RoleDoctor), h.DoctorDay)

		patient := appointments.Group("", auth.RequireRole(model.RolePatient))
		patient.POST("", h.BookAppointment)
		patient.PUT("/:id", h.UpdateAppointment)
		patient.DELETE("/:id", h.CancelAppointment)

		appointments.PATCH("/:id/status", auth.RequireRole(model.RoleDoctor, model.RoleAdmin), h.ChangeStatus)
	}
}

// DoctorDay lists the calling doctor's appointments for ?date, optionally
// narrowed by ?patient_name.
func (h *Handler) DoctorDay(c *gin.Context) {
	caller, err := handler.Caller(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	date, err := handler.QueryDate(c, h.loc)
	if err != nil {
		_ = c.Error(err)
		return
	}

	views, err := h.service.DoctorDay(c.Request.Context(), caller.ID, date, c.Query("patient_name"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, views)
}

func (h *Handler) BookAppointment(c *gin.Context) {
	caller, err := handler.Caller(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req model.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(httputil.BindError(err))
		return
	}

	appointment, err := h.service.Book(c.Request.Context(), caller.ID, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondCreated(c, appointment)
}

func (h *Handler) UpdateAppointment(c *gin.Context) {
	caller, err := handler.Caller(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	id, err := handler.ParamID(c, "id", "appointment")
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req model.UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(httputil.BindError(err))
		return
	}

	appointment, err := h.service.Update(c.Request.Context(), caller.ID, id, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, appointment)
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	caller, err := handler.Caller(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	id, err := handler.ParamID(c, "id", "appointment")
	if err != nil {
		_ = c.Error(err)
		return
	}

	appointment, err := h.service.Cancel(c.Request.Context(), id, caller.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, appointment)
}

func (h *Handler) ChangeStatus(c *gin.Context) {
	id, err := handler.ParamID(c, "id", "appointment")
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req model.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(httputil.BindError(err))
		return
	}

	appointment, err := h.service.ChangeStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, appointment)
}
