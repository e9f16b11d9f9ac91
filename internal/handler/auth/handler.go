package auth

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type LoginService interface {
	Login(ctx context.Context, role model.Role, identifier, password string) (*model.TokenResponse, error)
}

type Handler struct {
	svc LoginService
}

func NewHandler(svc LoginService) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts one public login endpoint per role.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/admin/login", h.Login(model.RoleAdmin))
	r.POST("/doctors/login", h.Login(model.RoleDoctor))
	r.POST("/patients/login", h.Login(model.RolePatient))
}

// Login exchanges credentials for a token scoped to role. Admins log in
// with their username, doctors and patients with their email.
func (h *Handler) Login(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(httputil.BindError(err))
			return
		}

		token, err := h.svc.Login(c.Request.Context(), role, req.Identifier, req.Password)
		if err != nil {
			_ = c.Error(err)
			return
		}

		httputil.RespondWithSuccess(c, token)
	}
}
