package appointment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	"github.com/jwalitptl/clinic-api/internal/service/availability"
	"github.com/jwalitptl/clinic-api/internal/service/event"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

var day = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

type fixture struct {
	store   *memory.Store
	svc     *Service
	doctor  *model.Doctor
	patient *model.Patient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	doctor := &model.Doctor{
		Name:           "Dr. Meredith Grey",
		Specialty:      "Surgery",
		Email:          "grey@clinic.test",
		Phone:          "5550000001",
		AvailableTimes: []string{"09:00-10:00", "10:00-11:00", "2:00 PM - 3:00 PM"},
	}
	require.NoError(t, store.Doctors().Create(ctx, doctor))

	patient := newPatient(t, store, "Alice Smith", "5551110000")

	avail := availability.NewService(store.Doctors(), store.Appointments(), time.UTC)
	svc := NewService(store.Appointments(), store.Patients(), avail,
		event.NewService(store.Outbox(), logger.Nop()), logger.Nop(), metrics.NewNop())

	return &fixture{store: store, svc: svc, doctor: doctor, patient: patient}
}

// withRepo rebuilds the service on top of repo, keeping the fixture's data.
func (f *fixture) withRepo(repo repository.AppointmentRepository) {
	avail := availability.NewService(f.store.Doctors(), repo, time.UTC)
	f.svc = NewService(repo, f.store.Patients(), avail,
		event.NewService(f.store.Outbox(), logger.Nop()), logger.Nop(), metrics.NewNop())
}

// hookedAppointments runs onList once, the first time a day of
// appointments is read.
type hookedAppointments struct {
	repository.AppointmentRepository
	once   sync.Once
	onList func()
}

func (h *hookedAppointments) ListByDoctorAndRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*model.Appointment, error) {
	h.once.Do(h.onList)
	return h.AppointmentRepository.ListByDoctorAndRange(ctx, doctorID, from, to)
}

func newPatient(t *testing.T, store *memory.Store, name, phone string) *model.Patient {
	t.Helper()
	p := &model.Patient{Name: name, Email: phone + "@mail.test", Phone: phone, Address: "1 Main St"}
	require.NoError(t, store.Patients().Create(context.Background(), p))
	return p
}

func (f *fixture) book(t *testing.T, patientID uuid.UUID, start time.Time) *model.Appointment {
	t.Helper()
	apt, err := f.svc.Book(context.Background(), patientID, &model.BookAppointmentRequest{DoctorID: f.doctor.ID, StartTime: start})
	require.NoError(t, err)
	return apt
}

func TestBook(t *testing.T) {
	ctx := context.Background()

	t.Run("free slot", func(t *testing.T) {
		f := newFixture(t)
		apt := f.book(t, f.patient.ID, at(10, 0))

		assert.Equal(t, model.AppointmentStatusScheduled, apt.Status)
		assert.Equal(t, at(11, 0), apt.EndTime())

		free, err := f.svc.availability.Availability(ctx, f.doctor.ID, day)
		require.NoError(t, err)
		assert.Equal(t, []string{"09:00-10:00", "2:00 PM - 3:00 PM"}, free)

		pending, err := f.store.Outbox().GetPendingEvents(ctx, 10)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, model.EventAppointmentBooked, pending[0].EventType)
	})

	t.Run("unknown doctor", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Book(ctx, f.patient.ID, &model.BookAppointmentRequest{DoctorID: uuid.New(), StartTime: at(9, 0)})
		assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("time outside the template", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Book(ctx, f.patient.ID, &model.BookAppointmentRequest{DoctorID: f.doctor.ID, StartTime: at(9, 30)})
		require.True(t, apperrors.Is(err, apperrors.ErrSlotUnavailable))

		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, []string{"09:00-10:00", "10:00-11:00", "2:00 PM - 3:00 PM"}, appErr.Details["available"])
	})

	t.Run("taken slot lists what is left", func(t *testing.T) {
		f := newFixture(t)
		f.book(t, f.patient.ID, at(14, 0))

		other := newPatient(t, f.store, "Bob Jones", "5552220000")
		_, err := f.svc.Book(ctx, other.ID, &model.BookAppointmentRequest{DoctorID: f.doctor.ID, StartTime: at(14, 0)})
		require.True(t, apperrors.Is(err, apperrors.ErrSlotUnavailable))

		appErr, _ := apperrors.As(err)
		assert.Equal(t, []string{"09:00-10:00", "10:00-11:00"}, appErr.Details["available"])
	})

	t.Run("off-grid appointment blocks the hour", func(t *testing.T) {
		f := newFixture(t)
		other := newPatient(t, f.store, "Bob Jones", "5552220000")
		require.NoError(t, f.store.Appointments().Create(ctx, &model.Appointment{
			DoctorID:  f.doctor.ID,
			PatientID: other.ID,
			StartTime: at(8, 30),
			Status:    model.AppointmentStatusScheduled,
		}))

		_, err := f.svc.Book(ctx, f.patient.ID, &model.BookAppointmentRequest{DoctorID: f.doctor.ID, StartTime: at(9, 0)})
		require.True(t, apperrors.Is(err, apperrors.ErrSlotUnavailable))

		appErr, _ := apperrors.As(err)
		assert.Equal(t, []string{"10:00-11:00", "2:00 PM - 3:00 PM"}, appErr.Details["available"])
	})

	t.Run("seconds are dropped", func(t *testing.T) {
		f := newFixture(t)
		apt := f.book(t, f.patient.ID, at(9, 0).Add(42*time.Second))
		assert.Equal(t, at(9, 0), apt.StartTime)
	})
}

func TestValidateBooking(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.book(t, f.patient.ID, at(9, 0))

	v, err := f.svc.ValidateBooking(ctx, &model.Appointment{DoctorID: f.doctor.ID, StartTime: at(10, 0)})
	require.NoError(t, err)
	assert.Equal(t, Available, v)

	v, err = f.svc.ValidateBooking(ctx, &model.Appointment{DoctorID: f.doctor.ID, StartTime: at(9, 0)})
	require.NoError(t, err)
	assert.Equal(t, SlotUnavailable, v)

	v, err = f.svc.ValidateBooking(ctx, &model.Appointment{DoctorID: uuid.New(), StartTime: at(9, 0)})
	require.NoError(t, err)
	assert.Equal(t, DoctorNotFound, v)
}

func TestConcurrentBookingsOfOneSlot(t *testing.T) {
	f := newFixture(t)
	const n = 20

	patients := make([]*model.Patient, n)
	for i := range patients {
		patients[i] = newPatient(t, f.store, "Patient", uuid.NewString()[:10])
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		rejected  int
	)
	start := make(chan struct{})
	for _, p := range patients {
		wg.Add(1)
		go func(patientID uuid.UUID) {
			defer wg.Done()
			<-start
			_, err := f.svc.Book(context.Background(), patientID,
				&model.BookAppointmentRequest{DoctorID: f.doctor.ID, StartTime: at(9, 0)})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case apperrors.Is(err, apperrors.ErrSlotUnavailable), apperrors.Is(err, apperrors.ErrConflict):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(p.ID)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, rejected)
}

func TestBookCancelRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	before, err := f.svc.availability.Availability(ctx, f.doctor.ID, day)
	require.NoError(t, err)

	apt := f.book(t, f.patient.ID, at(10, 0))
	cancelled, err := f.svc.Cancel(ctx, apt.ID, f.patient.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)

	after, err := f.svc.availability.Availability(ctx, f.doctor.ID, day)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	stored, err := f.svc.Get(ctx, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, stored.Status, "cancel keeps the row")

	f.book(t, f.patient.ID, at(10, 0))
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	apt := f.book(t, f.patient.ID, at(9, 0))

	_, err := f.svc.Cancel(ctx, uuid.New(), f.patient.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	_, err = f.svc.Cancel(ctx, apt.ID, uuid.New())
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))

	_, err = f.svc.Cancel(ctx, apt.ID, f.patient.ID)
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, apt.ID, f.patient.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("move to a free slot", func(t *testing.T) {
		f := newFixture(t)
		apt := f.book(t, f.patient.ID, at(9, 0))

		moved, err := f.svc.Update(ctx, f.patient.ID, apt.ID,
			&model.UpdateAppointmentRequest{DoctorID: f.doctor.ID, StartTime: at(14, 0)})
		require.NoError(t, err)
		assert.Equal(t, at(14, 0), moved.StartTime)

		free, err := f.svc.availability.Availability(ctx, f.doctor.ID, day)
		require.NoError(t, err)
		assert.Equal(t, []string{"09:00-10:00", "10:00-11:00"}, free)
	})

	t.Run("keep own slot", func(t *testing.T) {
		f := newFixture(t)
		apt := f.book(t, f.patient.ID, at(9, 0))

		_, err := f.svc.Update(ctx, f.patient.ID, apt.ID,
			&model.UpdateAppointmentRequest{DoctorID: f.doctor.ID, StartTime: at(9, 0)})
		assert.NoError(t, err)
	})

	t.Run("slot held by someone else", func(t *testing.T) {
		f := newFixture(t)
		apt := f.book(t, f.patient.ID, at(9, 0))
		other := newPatient(t, f.store, "Bob Jones", "5552220000")
		f.book(t, other.ID, at(10, 0))

		_, err := f.svc.Update(ctx, f.patient.ID, apt.ID,
			&model.UpdateAppointmentRequest{DoctorID: f.doctor.ID, StartTime: at(10, 0)})
		assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
	})

	t.Run("not the owner", func(t *testing.T) {
		f := newFixture(t)
		apt := f.book(t, f.patient.ID, at(9, 0))

		_, err := f.svc.Update(ctx, uuid.New(), apt.ID,
			&model.UpdateAppointmentRequest{DoctorID: f.doctor.ID, StartTime: at(10, 0)})
		assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
	})

	t.Run("unknown doctor", func(t *testing.T) {
		f := newFixture(t)
		apt := f.book(t, f.patient.ID, at(9, 0))

		_, err := f.svc.Update(ctx, f.patient.ID, apt.ID,
			&model.UpdateAppointmentRequest{DoctorID: uuid.New(), StartTime: at(10, 0)})
		assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("cancelled appointments stay put", func(t *testing.T) {
		f := newFixture(t)
		apt := f.book(t, f.patient.ID, at(9, 0))
		_, err := f.svc.Cancel(ctx, apt.ID, f.patient.ID)
		require.NoError(t, err)

		_, err = f.svc.Update(ctx, f.patient.ID, apt.ID,
			&model.UpdateAppointmentRequest{DoctorID: f.doctor.ID, StartTime: at(10, 0)})
		assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
	})
}

func TestCancelDuringUpdateStaysCancelled(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	apt := f.book(t, f.patient.ID, at(9, 0))

	cancelled := make(chan error, 1)
	f.withRepo(&hookedAppointments{
		AppointmentRepository: f.store.Appointments(),
		onList: func() {
			go func() {
				_, err := f.svc.Cancel(ctx, apt.ID, f.patient.ID)
				cancelled <- err
			}()
		},
	})

	_, err := f.svc.Update(ctx, f.patient.ID, apt.ID,
		&model.UpdateAppointmentRequest{DoctorID: f.doctor.ID, StartTime: at(10, 0)})
	require.NoError(t, err)
	require.NoError(t, <-cancelled)

	stored, err := f.store.Appointments().Get(ctx, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, stored.Status)
}

func TestUpdateLosesToCancelFromAnotherWriter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	apt := f.book(t, f.patient.ID, at(9, 0))

	// The cancel bypasses the service locks, as a second process would.
	f.withRepo(&hookedAppointments{
		AppointmentRepository: f.store.Appointments(),
		onList: func() {
			require.NoError(t, f.store.Appointments().UpdateStatus(ctx, apt.ID, model.AppointmentStatusCancelled))
		},
	})

	_, err := f.svc.Update(ctx, f.patient.ID, apt.ID,
		&model.UpdateAppointmentRequest{DoctorID: f.doctor.ID, StartTime: at(10, 0)})
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))

	stored, err := f.store.Appointments().Get(ctx, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, stored.Status)
	assert.Equal(t, at(9, 0), stored.StartTime)
}

func TestChangeStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	apt := f.book(t, f.patient.ID, at(9, 0))

	got, err := f.svc.ChangeStatus(ctx, apt.ID, model.AppointmentStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, got.Status)

	// Not allowed by the state machine, applied anyway.
	got, err = f.svc.ChangeStatus(ctx, apt.ID, model.AppointmentStatusScheduled)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusScheduled, got.Status)

	_, err = f.svc.ChangeStatus(ctx, uuid.New(), model.AppointmentStatusCompleted)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	_, err = f.svc.ChangeStatus(ctx, apt.ID, "archived")
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestChangeStatusCannotReviveIntoTakenSlot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	apt := f.book(t, f.patient.ID, at(9, 0))
	_, err := f.svc.Cancel(ctx, apt.ID, f.patient.ID)
	require.NoError(t, err)
	f.book(t, f.patient.ID, at(9, 0))

	_, err = f.svc.ChangeStatus(ctx, apt.ID, model.AppointmentStatusScheduled)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestDoctorDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	bob := newPatient(t, f.store, "Bob Jones", "5552220000")

	f.book(t, f.patient.ID, at(9, 0))
	f.book(t, bob.ID, at(14, 0))
	cancelled := f.book(t, bob.ID, at(10, 0))
	_, err := f.svc.Cancel(ctx, cancelled.ID, bob.ID)
	require.NoError(t, err)

	all, err := f.svc.DoctorDay(ctx, f.doctor.ID, day, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Alice Smith", all[0].PatientName)
	assert.Equal(t, "Bob Jones", all[1].PatientName)

	filtered, err := f.svc.DoctorDay(ctx, f.doctor.ID, day, "BOB")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, bob.Phone, filtered[0].PatientPhone)
	assert.Equal(t, at(15, 0), filtered[0].EndTime)
}

func TestKeyedMutexReleasesKeys(t *testing.T) {
	k := newKeyedMutex()
	key := uuid.New()

	unlock := k.Lock(key)
	done := make(chan struct{})
	go func() {
		defer close(done)
		k.Lock(key)()
	}()

	unlock()
	<-done
	assert.Empty(t, k.locks)
}

func TestKeyedMutexLocksPairsInOrder(t *testing.T) {
	k := newKeyedMutex()
	a, b := uuid.New(), uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			k.Lock(a, b)()
		}()
		go func() {
			defer wg.Done()
			k.Lock(b, a, b)()
		}()
	}
	wg.Wait()
	assert.Empty(t, k.locks)
}
