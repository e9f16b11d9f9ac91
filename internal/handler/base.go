// Package handler holds helpers shared by the per-resource gin handlers.
package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/errors"
)

// DateLayout is the calendar date format accepted in query strings.
const DateLayout = "2006-01-02"

// ParamID parses the path parameter name as a uuid.
func ParamID(c *gin.Context, name, resource string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, errors.BadRequest(fmt.Sprintf("invalid %s ID", resource), err)
	}
	return id, nil
}

// Caller returns the identity RequireRole stored on the context.
func Caller(c *gin.Context) (*model.Identity, error) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return nil, errors.Unauthorized(nil)
	}
	return identity, nil
}

// QueryDate reads the "date" query parameter as a calendar day in loc.
// A missing date means today.
func QueryDate(c *gin.Context, loc *time.Location) (time.Time, error) {
	raw := c.Query("date")
	if raw == "" {
		y, m, d := time.Now().In(loc).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
	}
	date, err := time.ParseInLocation(DateLayout, raw, loc)
	if err != nil {
		return time.Time{}, errors.BadRequest("invalid date format, expected YYYY-MM-DD", err)
	}
	return date, nil
}
