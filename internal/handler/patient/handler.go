package patient

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/patient"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type Handler struct {
	service  patient.PatientService
	searcher patient.AppointmentSearcher
}

func NewHandler(service patient.PatientService, searcher patient.AppointmentSearcher) *Handler {
	return &Handler{
		service:  service,
		searcher: searcher,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	patients := r.Group("/patients")
	{
		patients.POST("", h.Signup)

		me := patients.Group("/me", auth.RequireRole(model.RolePatient))
		me.GET("", h.Profile)
		me.GET("/appointments", h.ListAppointments)
		me.GET("/appointments/filter", h.FilterAppointments)
	}
}

func (h *Handler) Signup(c *gin.Context) {
	var req model.CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(httputil.BindError(err))
		return
	}

	view, err := h.service.Signup(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondCreated(c, view)
}

func (h *Handler) Profile(c *gin.Context) {
	h.withCaller(c, func(ctx context.Context, id uuid.UUID) (interface{}, error) {
		return h.service.Profile(ctx, id)
	})
}

func (h *Handler) ListAppointments(c *gin.Context) {
	h.withCaller(c, func(ctx context.Context, id uuid.UUID) (interface{}, error) {
		return h.service.Appointments(ctx, id)
	})
}

// FilterAppointments narrows the caller's history by ?condition (past or
// future) and a doctor ?name substring.
func (h *Handler) FilterAppointments(c *gin.Context) {
	condition, name := c.Query("condition"), c.Query("name")
	h.withCaller(c, func(ctx context.Context, id uuid.UUID) (interface{}, error) {
		return h.searcher.SearchPatientAppointments(ctx, id, condition, name)
	})
}

func (h *Handler) withCaller(c *gin.Context, fn func(context.Context, uuid.UUID) (interface{}, error)) {
	caller, err := handler.Caller(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	data, err := fn(c.Request.Context(), caller.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, data)
}
