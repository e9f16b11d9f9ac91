package appointment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/availability"
	"github.com/jwalitptl/clinic-api/internal/service/event"
	"github.com/jwalitptl/clinic-api/internal/slot"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

// BookingValidation is the outcome of checking a requested slot.
type BookingValidation int

const (
	Available BookingValidation = iota
	DoctorNotFound
	SlotUnavailable
)

func (v BookingValidation) String() string {
	switch v {
	case Available:
		return "available"
	case DoctorNotFound:
		return "doctor_not_found"
	case SlotUnavailable:
		return "slot_unavailable"
	}
	return "unknown"
}

type Service struct {
	repo         repository.AppointmentRepository
	patients     repository.PatientRepository
	availability *availability.Service
	events       event.Emitter
	logger       *logger.Logger
	metrics      *metrics.Metrics
	locks        *keyedMutex
}

func NewService(
	repo repository.AppointmentRepository,
	patients repository.PatientRepository,
	availability *availability.Service,
	events event.Emitter,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Service {
	return &Service{
		repo:         repo,
		patients:     patients,
		availability: availability,
		events:       events,
		logger:       logger,
		metrics:      metrics,
		locks:        newKeyedMutex(),
	}
}

// ValidateBooking checks apt's doctor and start against the doctor's
// availability on that day. It takes no lock; Book and Update repeat the
// check while holding the doctor's lock.
func (s *Service) ValidateBooking(ctx context.Context, apt *model.Appointment) (BookingValidation, error) {
	v, _, err := s.validate(ctx, apt.DoctorID, apt.StartTime, nil)
	return v, err
}

func (s *Service) validate(ctx context.Context, doctorID uuid.UUID, start time.Time, excludeID *uuid.UUID) (BookingValidation, []string, error) {
	local := start.In(s.availability.Location())
	free, err := s.availability.AvailabilityExcluding(ctx, doctorID, local, excludeID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return DoctorNotFound, nil, nil
		}
		return 0, nil, err
	}

	want := slot.FromTime(local).String()
	for _, descriptor := range free {
		if c, ok := slot.Canonical(descriptor); ok && c == want {
			return Available, free, nil
		}
	}
	return SlotUnavailable, free, nil
}

// Book reserves a slot for the patient. Validation and insert run under
// the doctor's lock; the store's overlap constraint catches writers in
// other processes.
func (s *Service) Book(ctx context.Context, patientID uuid.UUID, req *model.BookAppointmentRequest) (*model.Appointment, error) {
	start := req.StartTime.Truncate(time.Minute)

	unlock := s.locks.Lock(req.DoctorID)
	defer unlock()

	if err := s.checkSlot(ctx, "book", req.DoctorID, start, nil); err != nil {
		return nil, err
	}

	apt := &model.Appointment{
		DoctorID:  req.DoctorID,
		PatientID: patientID,
		StartTime: start,
		Status:    model.AppointmentStatusScheduled,
	}
	if err := s.repo.Create(ctx, apt); err != nil {
		return nil, s.commitError("book", err)
	}

	s.recordOutcome("book", "booked")
	s.emit(ctx, model.EventAppointmentBooked, event.NewAppointmentPayload(apt))
	return apt, nil
}

// Update moves the caller's scheduled appointment to another doctor or
// time. The appointment's own slot does not count against it. Both the
// current and the target doctor are locked so the move serializes with
// cancels and status changes on either side.
func (s *Service) Update(ctx context.Context, callerID, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	start := req.StartTime.Truncate(time.Minute)

	apt, unlock, err := s.lockAppointment(ctx, id, req.DoctorID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if apt.PatientID != callerID {
		return nil, apperrors.Unauthorized(nil)
	}
	if apt.Status != model.AppointmentStatusScheduled {
		return nil, apperrors.Conflict("only scheduled appointments can be changed", nil)
	}

	if err := s.checkSlot(ctx, "update", req.DoctorID, start, &apt.ID); err != nil {
		if apperrors.Is(err, apperrors.ErrSlotUnavailable) {
			return nil, apperrors.Conflict("requested slot is already taken", err)
		}
		return nil, err
	}

	apt.DoctorID = req.DoctorID
	apt.StartTime = start
	if err := s.repo.Update(ctx, apt); err != nil {
		return nil, s.commitError("update", err)
	}

	s.recordOutcome("update", "moved")
	s.emit(ctx, model.EventAppointmentUpdated, event.NewAppointmentPayload(apt))
	return apt, nil
}

// Cancel soft-cancels the caller's appointment, freeing its slot.
func (s *Service) Cancel(ctx context.Context, id, callerID uuid.UUID) (*model.Appointment, error) {
	apt, unlock, err := s.lockAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if apt.PatientID != callerID {
		return nil, apperrors.Unauthorized(nil)
	}
	if apt.Status != model.AppointmentStatusScheduled {
		return nil, apperrors.Conflict("appointment is not scheduled", nil)
	}

	if err := s.repo.UpdateStatus(ctx, apt.ID, model.AppointmentStatusCancelled); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, apperrors.Internal(err)
	}
	previous := apt.Status
	apt.Status = model.AppointmentStatusCancelled

	s.metrics.StatusTransitions.WithLabelValues(string(previous), string(apt.Status)).Inc()
	s.recordOutcome("cancel", "cancelled")
	s.emit(ctx, model.EventAppointmentCancelled, event.NewAppointmentPayload(apt))
	return apt, nil
}

// ChangeStatus sets the status of an existing appointment. Transitions the
// state machine does not allow are logged and still applied.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) (*model.Appointment, error) {
	if !status.Valid() {
		return nil, apperrors.BadRequest("unknown appointment status", nil)
	}

	apt, unlock, err := s.lockAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	previous := apt.Status
	if !previous.CanTransitionTo(status) {
		s.logger.Warn("Applying status change outside the state machine",
			"appointment_id", id.String(),
			"from", string(previous),
			"to", string(status))
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NotFound("appointment", err)
		case errors.Is(err, repository.ErrConflict):
			return nil, apperrors.Conflict("slot is taken by another appointment", err)
		}
		return nil, apperrors.Internal(err)
	}
	apt.Status = status

	s.metrics.StatusTransitions.WithLabelValues(string(previous), string(status)).Inc()
	payload := event.NewAppointmentPayload(apt)
	payload.PreviousStatus = previous
	s.emit(ctx, model.EventAppointmentStatus, payload)
	return apt, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, apperrors.Internal(err)
	}
	return apt, nil
}

// DoctorDay lists the doctor's non-cancelled appointments on date, with
// an optional case-insensitive patient-name substring filter.
func (s *Service) DoctorDay(ctx context.Context, doctorID uuid.UUID, date time.Time, patientName string) ([]model.DoctorAppointmentView, error) {
	from, to := availability.DayBounds(date, s.availability.Location())
	apts, err := s.repo.ListByDoctorAndRange(ctx, doctorID, from, to)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	needle := strings.ToLower(strings.TrimSpace(patientName))
	views := make([]model.DoctorAppointmentView, 0, len(apts))
	for _, a := range apts {
		p, err := s.patients.Get(ctx, a.PatientID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, apperrors.Internal(err)
		}
		if needle != "" && !strings.Contains(strings.ToLower(p.Name), needle) {
			continue
		}
		views = append(views, model.DoctorAppointmentView{
			ID:           a.ID,
			PatientID:    p.ID,
			PatientName:  p.Name,
			PatientPhone: p.Phone,
			StartTime:    a.StartTime,
			EndTime:      a.EndTime(),
			Status:       a.Status,
		})
	}
	return views, nil
}

// lockAppointment locks the appointment's doctor plus any extra doctors,
// then reads the appointment again so callers act on the locked state.
// The caller must run the returned unlock.
func (s *Service) lockAppointment(ctx context.Context, id uuid.UUID, extra ...uuid.UUID) (*model.Appointment, func(), error) {
	seen, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	unlock := s.locks.Lock(append([]uuid.UUID{seen.DoctorID}, extra...)...)
	apt, err := s.Get(ctx, id)
	if err != nil {
		unlock()
		return nil, nil, err
	}
	if apt.DoctorID != seen.DoctorID {
		unlock()
		return nil, nil, apperrors.Conflict("appointment was changed concurrently, retry", nil)
	}
	return apt, unlock, nil
}

func (s *Service) checkSlot(ctx context.Context, op string, doctorID uuid.UUID, start time.Time, excludeID *uuid.UUID) error {
	v, free, err := s.validate(ctx, doctorID, start, excludeID)
	if err != nil {
		return err
	}
	switch v {
	case DoctorNotFound:
		s.recordOutcome(op, v.String())
		return apperrors.NotFound("doctor", nil)
	case SlotUnavailable:
		s.recordOutcome(op, v.String())
		return apperrors.SlotUnavailable(free)
	}

	// Availability compares canonical starts only; an appointment that
	// starts off the template grid can still intersect the hour.
	overlaps, err := s.repo.HasOverlap(ctx, doctorID, start, excludeID)
	if err != nil {
		return apperrors.Internal(err)
	}
	if overlaps {
		s.recordOutcome(op, SlotUnavailable.String())
		return apperrors.SlotUnavailable(without(free, slot.FromTime(start.In(s.availability.Location())).String()))
	}
	return nil
}

func without(descriptors []string, canonical string) []string {
	out := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		if c, ok := slot.Canonical(d); ok && c == canonical {
			continue
		}
		out = append(out, d)
	}
	return out
}

func (s *Service) commitError(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrConflict):
		s.recordOutcome(op, "conflict")
		return apperrors.Conflict("slot was taken by a concurrent booking", err)
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("appointment", err)
	}
	return apperrors.Internal(err)
}

func (s *Service) recordOutcome(op, outcome string) {
	s.metrics.BookingOutcomes.WithLabelValues(op, outcome).Inc()
}

// emit never fails the operation; the appointment is already committed.
func (s *Service) emit(ctx context.Context, eventType string, payload event.AppointmentPayload) {
	if err := s.events.Emit(ctx, eventType, payload); err != nil {
		s.logger.Error(err, "Failed to queue event",
			"event_type", eventType,
			"appointment_id", payload.AppointmentID.String())
	}
}
