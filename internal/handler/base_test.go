package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/errors"
)

func testContext(target string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c
}

func TestParamID(t *testing.T) {
	id := uuid.New()
	c := testContext("/")
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	got, err := ParamID(c, "id", "doctor")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	c.Params = gin.Params{{Key: "id", Value: "42"}}
	_, err = ParamID(c, "id", "doctor")
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
	assert.Contains(t, err.Error(), "invalid doctor ID")
}

func TestQueryDate(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)

	date, err := QueryDate(testContext("/?date=2025-03-01"), loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, loc), date)

	_, err = QueryDate(testContext("/?date=01-03-2025"), loc)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))

	today, err := QueryDate(testContext("/"), loc)
	require.NoError(t, err)
	y, m, d := time.Now().In(loc).Date()
	assert.Equal(t, time.Date(y, m, d, 0, 0, 0, 0, loc), today)
}

func TestCaller(t *testing.T) {
	c := testContext("/")
	_, err := Caller(c)
	assert.True(t, errors.Is(err, errors.ErrUnauthorized))

	identity := &model.Identity{ID: uuid.New(), Role: model.RolePatient}
	c.Set(middleware.ContextIdentity, identity)
	got, err := Caller(c)
	require.NoError(t, err)
	assert.Same(t, identity, got)
}
