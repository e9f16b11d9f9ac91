package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

const (
	testDate     = "2030-03-01"
	testPassword = "secret-pass"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Response mirrors the JSON envelope every endpoint returns.
type Response struct {
	Code    int                    `json:"-"`
	Status  string                 `json:"status"`
	Message string                 `json:"message"`
	Data    json.RawMessage        `json:"data"`
	Details map[string]interface{} `json:"details"`
}

func (r Response) decode(t *testing.T, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Data, v), string(r.Data))
}

type client struct {
	t       *testing.T
	handler http.Handler
}

func (c *client) do(method, path string, body interface{}, token string) Response {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)

	resp := Response{Code: w.Code}
	require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func (c *client) login(path, identifier string) string {
	c.t.Helper()
	resp := c.do(http.MethodPost, path, model.LoginRequest{Identifier: identifier, Password: testPassword}, "")
	require.Equal(c.t, http.StatusOK, resp.Code, resp.Message)

	var token model.TokenResponse
	resp.decode(c.t, &token)
	require.NotEmpty(c.t, token.AccessToken)
	return token.AccessToken
}

func newTestApp(t *testing.T) *client {
	t.Helper()
	store := memory.NewStore()

	hasher := security.NewBcryptHasher(4)
	hash, err := hasher.Hash(testPassword)
	require.NoError(t, err)
	require.NoError(t, store.Admins().Create(context.Background(), &model.Admin{Username: "root", PasswordHash: hash}))

	cfg := &config.Config{
		JWT:        config.JWTConfig{Secret: "0123456789abcdef0123456789abcdef", Issuer: "clinic-test"},
		Scheduling: config.SchedulingConfig{Timezone: "UTC", BcryptCost: 4},
	}
	a, err := New(cfg, Deps{Repos: store.Repositories()})
	require.NoError(t, err)

	return &client{t: t, handler: a.Router.Engine()}
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	c := newTestApp(t)

	adminToken := c.login("/api/v1/admin/login", "root")

	resp := c.do(http.MethodPost, "/api/v1/doctors", model.CreateDoctorRequest{
		Name:           "Dr. Gregory House",
		Specialty:      "Diagnostics",
		Email:          "House@Clinic.test",
		Password:       testPassword,
		Phone:          "5550000001",
		AvailableTimes: []string{"09:00-10:00", "10:00-11:00", "2:00 PM - 3:00 PM"},
	}, adminToken)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Message)
	var doctor model.Doctor
	resp.decode(t, &doctor)
	assert.Equal(t, "house@clinic.test", doctor.Email)

	resp = c.do(http.MethodPost, "/api/v1/patients", model.CreatePatientRequest{
		Name:     "Alice Smith",
		Email:    "alice@mail.test",
		Password: testPassword,
		Phone:    "5551110000",
		Address:  "1 Main St",
	}, "")
	require.Equal(t, http.StatusCreated, resp.Code, resp.Message)

	patientToken := c.login("/api/v1/patients/login", "alice@mail.test")
	doctorToken := c.login("/api/v1/doctors/login", "house@clinic.test")

	availabilityPath := fmt.Sprintf("/api/v1/doctors/%s/availability?date=%s", doctor.ID, testDate)
	available := func() []string {
		resp := c.do(http.MethodGet, availabilityPath, nil, patientToken)
		require.Equal(t, http.StatusOK, resp.Code, resp.Message)
		var body struct {
			Available []string `json:"available"`
		}
		resp.decode(t, &body)
		return body.Available
	}
	assert.Equal(t, []string{"09:00-10:00", "10:00-11:00", "2:00 PM - 3:00 PM"}, available())

	resp = c.do(http.MethodGet, availabilityPath+"&period=pm", nil, patientToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Message)
	var afternoon struct {
		Available []string `json:"available"`
	}
	resp.decode(t, &afternoon)
	assert.Equal(t, []string{"2:00 PM - 3:00 PM"}, afternoon.Available)

	resp = c.do(http.MethodGet, availabilityPath+"&period=evening", nil, patientToken)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	book := map[string]interface{}{"doctor_id": doctor.ID, "start_time": testDate + "T09:00:00Z"}
	resp = c.do(http.MethodPost, "/api/v1/appointments", book, patientToken)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Message)
	var apt model.Appointment
	resp.decode(t, &apt)
	assert.Equal(t, model.AppointmentStatusScheduled, apt.Status)

	resp = c.do(http.MethodPost, "/api/v1/appointments", book, patientToken)
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, []interface{}{"10:00-11:00", "2:00 PM - 3:00 PM"}, resp.Details["available"])
	assert.Equal(t, []string{"10:00-11:00", "2:00 PM - 3:00 PM"}, available())

	resp = c.do(http.MethodGet, "/api/v1/appointments?date="+testDate+"&patient_name=alice", nil, doctorToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Message)
	var day []model.DoctorAppointmentView
	resp.decode(t, &day)
	require.Len(t, day, 1)
	assert.Equal(t, "Alice Smith", day[0].PatientName)

	resp = c.do(http.MethodPost, "/api/v1/prescriptions", map[string]interface{}{
		"appointment_id": apt.ID,
		"patient_name":   "Alice Smith",
		"medication":     "Ibuprofen",
		"dosage":         "200mg",
	}, doctorToken)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Message)

	resp = c.do(http.MethodGet, "/api/v1/patients/me/appointments/filter?condition=past&name=house", nil, patientToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Message)
	var past []model.AppointmentView
	resp.decode(t, &past)
	require.Len(t, past, 1)
	assert.Equal(t, model.AppointmentStatusPrescriptionAdded, past[0].Status)
	assert.Equal(t, "Dr. Gregory House", past[0].DoctorName)

	resp = c.do(http.MethodGet, "/api/v1/patients/me/appointments/filter?condition=someday", nil, patientToken)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestCancelReleasesSlotOverHTTP(t *testing.T) {
	c := newTestApp(t)
	adminToken := c.login("/api/v1/admin/login", "root")

	resp := c.do(http.MethodPost, "/api/v1/doctors", model.CreateDoctorRequest{
		Name:           "Dr. Lisa Cuddy",
		Specialty:      "Endocrinology",
		Email:          "cuddy@clinic.test",
		Password:       testPassword,
		Phone:          "5550000002",
		AvailableTimes: []string{"09:00-10:00"},
	}, adminToken)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Message)
	var doctor model.Doctor
	resp.decode(t, &doctor)

	resp = c.do(http.MethodPost, "/api/v1/patients", model.CreatePatientRequest{
		Name: "Bob Jones", Email: "bob@mail.test", Password: testPassword, Phone: "5552220000", Address: "2 Main St",
	}, "")
	require.Equal(t, http.StatusCreated, resp.Code, resp.Message)
	patientToken := c.login("/api/v1/patients/login", "bob@mail.test")

	resp = c.do(http.MethodPost, "/api/v1/appointments",
		map[string]interface{}{"doctor_id": doctor.ID, "start_time": testDate + "T09:00:00Z"}, patientToken)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Message)
	var apt model.Appointment
	resp.decode(t, &apt)

	resp = c.do(http.MethodDelete, "/api/v1/appointments/"+apt.ID.String(), nil, patientToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Message)
	resp.decode(t, &apt)
	assert.Equal(t, model.AppointmentStatusCancelled, apt.Status)

	resp = c.do(http.MethodGet, fmt.Sprintf("/api/v1/doctors/%s/availability?date=%s", doctor.ID, testDate), nil, patientToken)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, string(resp.Data), "09:00-10:00")
}

func TestRoleGatesOverHTTP(t *testing.T) {
	c := newTestApp(t)

	resp := c.do(http.MethodPost, "/api/v1/patients", model.CreatePatientRequest{
		Name: "Carol White", Email: "carol@mail.test", Password: testPassword, Phone: "5553330000", Address: "3 Main St",
	}, "")
	require.Equal(t, http.StatusCreated, resp.Code, resp.Message)
	patientToken := c.login("/api/v1/patients/login", "carol@mail.test")

	noToken := c.do(http.MethodPost, "/api/v1/doctors", map[string]string{}, "")
	wrongRole := c.do(http.MethodPost, "/api/v1/doctors", map[string]string{}, patientToken)
	garbage := c.do(http.MethodPost, "/api/v1/doctors", map[string]string{}, "not-a-token")
	for _, r := range []Response{noToken, wrongRole, garbage} {
		assert.Equal(t, http.StatusUnauthorized, r.Code)
		assert.Equal(t, "unauthorized", r.Message)
	}

	resp = c.do(http.MethodPost, "/api/v1/patients/login", model.LoginRequest{Identifier: "carol@mail.test", Password: "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "invalid credentials", resp.Message)

	resp = c.do(http.MethodGet, "/api/v1/patients/me", nil, patientToken)
	require.Equal(t, http.StatusOK, resp.Code)
	var me model.PatientView
	resp.decode(t, &me)
	assert.Equal(t, "carol@mail.test", me.Email)
	assert.NotContains(t, string(resp.Data), "password")

	resp = c.do(http.MethodPost, "/api/v1/patients", model.CreatePatientRequest{
		Name: "Carol Again", Email: "other@mail.test", Password: testPassword, Phone: "5553330000", Address: "3 Main St",
	}, "")
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = c.do(http.MethodPost, "/api/v1/patients", map[string]string{"name": "X"}, "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	c := newTestApp(t)

	resp := c.do(http.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "UP", resp.Status)

	c.do(http.MethodGet, "/api/v1/doctors", nil, "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "clinic_http_requests_total")
}
