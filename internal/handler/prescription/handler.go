package prescription

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type PrescriptionService interface {
	Create(ctx context.Context, req *model.CreatePrescriptionRequest) (*model.Prescription, error)
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.Prescription, error)
}

type Handler struct {
	service PrescriptionService
}

func NewHandler(service PrescriptionService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	prescriptions := r.Group("/prescriptions", auth.RequireRole(model.RoleDoctor))
	{
		prescriptions.POST("", h.CreatePrescription)
		prescriptions.GET("/:appointmentId", h.GetPrescription)
	}
}

func (h *Handler) CreatePrescription(c *gin.Context) {
	var req model.CreatePrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(httputil.BindError(err))
		return
	}

	prescription, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondCreated(c, prescription)
}

func (h *Handler) GetPrescription(c *gin.Context) {
	id, err := handler.ParamID(c, "appointmentId", "appointment")
	if err != nil {
		_ = c.Error(err)
		return
	}

	prescription, err := h.service.GetByAppointment(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, prescription)
}
