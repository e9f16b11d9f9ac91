package prescription

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/event"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

// StatusChanger moves an appointment to a new status.
type StatusChanger interface {
	ChangeStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) (*model.Appointment, error)
}

type Service struct {
	repo         repository.PrescriptionRepository
	appointments repository.AppointmentRepository
	status       StatusChanger
	validator    validator.Validator
	events       event.Emitter
	logger       *logger.Logger
}

func NewService(
	repo repository.PrescriptionRepository,
	appointments repository.AppointmentRepository,
	status StatusChanger,
	validator validator.Validator,
	events event.Emitter,
	logger *logger.Logger,
) *Service {
	return &Service{
		repo:         repo,
		appointments: appointments,
		status:       status,
		validator:    validator,
		events:       events,
		logger:       logger,
	}
}

// Create records the single prescription of an appointment and marks the
// appointment prescription_added.
func (s *Service) Create(ctx context.Context, req *model.CreatePrescriptionRequest) (*model.Prescription, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	apt, err := s.appointments.Get(ctx, req.AppointmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, apperrors.Internal(err)
	}

	_, err = s.repo.GetByAppointmentID(ctx, req.AppointmentID)
	switch {
	case err == nil:
		return nil, apperrors.Conflict("appointment already has a prescription", nil)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.Internal(err)
	}
	if !apt.Status.CanTransitionTo(model.AppointmentStatusPrescriptionAdded) {
		return nil, apperrors.Conflict("a "+string(apt.Status)+" appointment cannot receive a prescription", nil)
	}

	p := &model.Prescription{
		AppointmentID: req.AppointmentID,
		PatientName:   req.PatientName,
		Medication:    req.Medication,
		Dosage:        req.Dosage,
		DoctorNotes:   req.DoctorNotes,
		RefillCount:   req.RefillCount,
		PharmacyName:  req.PharmacyName,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.Conflict("appointment already has a prescription", err)
		}
		return nil, apperrors.Internal(err)
	}

	// The prescription and the status change land together or not at all.
	if _, err := s.status.ChangeStatus(ctx, req.AppointmentID, model.AppointmentStatusPrescriptionAdded); err != nil {
		if delErr := s.repo.Delete(ctx, p.ID); delErr != nil {
			s.logger.Error(delErr, "Failed to roll back prescription",
				"prescription_id", p.ID.String(),
				"appointment_id", req.AppointmentID.String())
		}
		return nil, err
	}

	if err := s.events.Emit(ctx, model.EventPrescriptionCreated, event.PrescriptionPayload{
		PrescriptionID: p.ID,
		AppointmentID:  p.AppointmentID,
	}); err != nil {
		s.logger.Error(err, "Failed to queue event", "prescription_id", p.ID.String())
	}
	return p, nil
}

func (s *Service) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.Prescription, error) {
	p, err := s.repo.GetByAppointmentID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("prescription", err)
		}
		return nil, apperrors.Internal(err)
	}
	return p, nil
}
