package doctor

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/availability"
	"github.com/jwalitptl/clinic-api/internal/slot"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type DoctorService interface {
	Create(ctx context.Context, req *model.CreateDoctorRequest) (*model.Doctor, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
	List(ctx context.Context) ([]*model.Doctor, error)
	Update(ctx context.Context, id uuid.UUID, req *model.UpdateDoctorRequest) (*model.Doctor, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Directory interface {
	SearchDoctors(ctx context.Context, q model.DoctorQuery) ([]*model.Doctor, error)
}

type AvailabilityService interface {
	Availability(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error)
	Location() *time.Location
}

type Handler struct {
	doctors      DoctorService
	directory    Directory
	availability AvailabilityService
}

func NewHandler(doctors DoctorService, directory Directory, availability AvailabilityService) *Handler {
	return &Handler{
		doctors:      doctors,
		directory:    directory,
		availability: availability,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	doctors := r.Group("/doctors")
	{
		doctors.GET("", h.ListDoctors)
		doctors.GET("/filter", h.FilterDoctors)
		doctors.GET("/:id", h.GetDoctor)
		doctors.GET("/:id/availability",
			auth.RequireRole(model.RoleAdmin, model.RoleDoctor, model.RolePatient), h.GetAvailability)

		admin := doctors.Group("", auth.RequireRole(model.RoleAdmin))
		admin.POST("", h.CreateDoctor)
		admin.PUT("/:id", h.UpdateDoctor)
		admin.DELETE("/:id", h.DeleteDoctor)
	}
}

func (h *Handler) ListDoctors(c *gin.Context) {
	doctors, err := h.doctors.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, doctors)
}

// FilterDoctors searches the directory by name, specialty and AM/PM period.
func (h *Handler) FilterDoctors(c *gin.Context) {
	var q model.DoctorQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(httputil.BindError(err))
		return
	}

	doctors, err := h.directory.SearchDoctors(c.Request.Context(), q)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, doctors)
}

func (h *Handler) GetDoctor(c *gin.Context) {
	id, err := handler.ParamID(c, "id", "doctor")
	if err != nil {
		_ = c.Error(err)
		return
	}

	doctor, err := h.doctors.Get(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, doctor)
}

func (h *Handler) GetAvailability(c *gin.Context) {
	id, err := handler.ParamID(c, "id", "doctor")
	if err != nil {
		_ = c.Error(err)
		return
	}
	date, err := handler.QueryDate(c, h.availability.Location())
	if err != nil {
		_ = c.Error(err)
		return
	}

	var period *slot.Period
	if raw := c.Query("period"); raw != "" {
		p, ok := slot.ParsePeriod(raw)
		if !ok {
			_ = c.Error(apperrors.BadRequest("period must be AM or PM", nil))
			return
		}
		period = &p
	}

	slots, err := h.availability.Availability(c.Request.Context(), id, date)
	if err != nil {
		_ = c.Error(err)
		return
	}
	slots = availability.FilterByPeriod(slots, period)
	httputil.RespondWithSuccess(c, gin.H{
		"doctor_id": id,
		"date":      date.Format(handler.DateLayout),
		"available": slots,
	})
}

func (h *Handler) CreateDoctor(c *gin.Context) {
	var req model.CreateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(httputil.BindError(err))
		return
	}

	doctor, err := h.doctors.Create(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondCreated(c, doctor)
}

func (h *Handler) UpdateDoctor(c *gin.Context) {
	id, err := handler.ParamID(c, "id", "doctor")
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req model.UpdateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(httputil.BindError(err))
		return
	}

	doctor, err := h.doctors.Update(c.Request.Context(), id, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, doctor)
}

func (h *Handler) DeleteDoctor(c *gin.Context) {
	id, err := handler.ParamID(c, "id", "doctor")
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.doctors.Delete(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"message": "doctor deleted"})
}
