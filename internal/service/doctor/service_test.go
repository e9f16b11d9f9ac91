package doctor

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	"github.com/jwalitptl/clinic-api/internal/service/directory"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate() { c.n++ }

func createRequest() *model.CreateDoctorRequest {
	return &model.CreateDoctorRequest{
		Name:           "Meredith Grey",
		Specialty:      "Surgery",
		Email:          "Grey@Clinic.test",
		Password:       "s3cret!",
		Phone:          "5550000001",
		AvailableTimes: []string{"09:00-10:00", "2:00 PM - 3:00 PM"},
	}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	inv := &countingInvalidator{}
	hasher := security.NewBcryptHasher(4)
	svc := NewService(store.Doctors(), hasher, inv, logger.Nop())

	d, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)
	assert.Equal(t, "grey@clinic.test", d.Email)
	assert.NoError(t, hasher.Compare(d.PasswordHash, "s3cret!"))
	assert.Equal(t, 1, inv.n)

	_, err = svc.Create(ctx, createRequest())
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))

	bad := createRequest()
	bad.Email = "other@clinic.test"
	bad.AvailableTimes = []string{"09:00", "after lunch"}
	_, err = svc.Create(ctx, bad)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewService(store.Doctors(), security.NewBcryptHasher(4), &countingInvalidator{}, logger.Nop())

	d, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)

	rating := 4.5
	updated, err := svc.Update(ctx, d.ID, &model.UpdateDoctorRequest{
		Rating:         &rating,
		AvailableTimes: []string{"11:00 to 12:00"},
	})
	require.NoError(t, err)
	assert.Equal(t, 4.5, updated.Rating)
	assert.Equal(t, "Meredith Grey", updated.Name)
	assert.Equal(t, []string{"11:00 to 12:00"}, []string(updated.AvailableTimes))

	_, err = svc.Update(ctx, d.ID, &model.UpdateDoctorRequest{AvailableTimes: []string{"noonish"}})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))

	_, err = svc.Update(ctx, uuid.New(), &model.UpdateDoctorRequest{Rating: &rating})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestDeleteCascadesAndRefreshesDirectory(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	dir := directory.NewService(store.Doctors(), store.Appointments(), time.Hour, metrics.NewNop())
	svc := NewService(store.Doctors(), security.NewBcryptHasher(4), dir, logger.Nop())

	d, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)
	apt := &model.Appointment{DoctorID: d.ID, PatientID: uuid.New(), StartTime: time.Now(), Status: model.AppointmentStatusScheduled}
	require.NoError(t, store.Appointments().Create(ctx, apt))

	listed, err := dir.SearchDoctors(ctx, model.DoctorQuery{})
	require.NoError(t, err)
	require.Len(t, listed, 1)

	require.NoError(t, svc.Delete(ctx, d.ID))

	listed, err = dir.SearchDoctors(ctx, model.DoctorQuery{})
	require.NoError(t, err)
	assert.Empty(t, listed)

	_, err = store.Appointments().Get(ctx, apt.ID)
	assert.Error(t, err)

	err = svc.Delete(ctx, d.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}
