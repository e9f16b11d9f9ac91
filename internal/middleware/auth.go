package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

const ContextIdentity = "identity"

// Authenticator resolves a bearer token for one role.
type Authenticator interface {
	Authenticate(ctx context.Context, token string, role model.Role) (*model.Identity, error)
}

type AuthMiddleware struct {
	authenticator Authenticator
}

func NewAuthMiddleware(authenticator Authenticator) *AuthMiddleware {
	return &AuthMiddleware{authenticator: authenticator}
}

// RequireRole admits requests whose bearer token is valid for one of
// roles and stores the caller's identity in the context. Every token
// failure gets the same 401 body.
func (m *AuthMiddleware) RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c)
			return
		}

		for _, role := range roles {
			identity, err := m.authenticator.Authenticate(c.Request.Context(), token, role)
			if err == nil {
				c.Set(ContextIdentity, identity)
				c.Next()
				return
			}
			if !apperrors.Is(err, apperrors.ErrUnauthorized) {
				httputil.RespondWithError(c, err)
				return
			}
		}
		unauthorized(c)
	}
}

// IdentityFrom returns the identity set by RequireRole.
func IdentityFrom(c *gin.Context) (*model.Identity, bool) {
	v, ok := c.Get(ContextIdentity)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*model.Identity)
	return identity, ok
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, httputil.NewErrorResponse("unauthorized"))
}
