package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

// Emitter records a domain event for asynchronous delivery.
type Emitter interface {
	Emit(ctx context.Context, eventType string, payload interface{}) error
}

// AppointmentPayload is the body of every appointment.* event.
type AppointmentPayload struct {
	AppointmentID  uuid.UUID               `json:"appointment_id"`
	DoctorID       uuid.UUID               `json:"doctor_id"`
	PatientID      uuid.UUID               `json:"patient_id"`
	StartTime      time.Time               `json:"start_time"`
	Status         model.AppointmentStatus `json:"status"`
	PreviousStatus model.AppointmentStatus `json:"previous_status,omitempty"`
}

func NewAppointmentPayload(a *model.Appointment) AppointmentPayload {
	return AppointmentPayload{
		AppointmentID: a.ID,
		DoctorID:      a.DoctorID,
		PatientID:     a.PatientID,
		StartTime:     a.StartTime,
		Status:        a.Status,
	}
}

type PrescriptionPayload struct {
	PrescriptionID uuid.UUID `json:"prescription_id"`
	AppointmentID  uuid.UUID `json:"appointment_id"`
}

// Service writes events to the outbox; pkg/worker relays them.
type Service struct {
	outboxRepo repository.OutboxRepository
	logger     *logger.Logger
}

func NewService(outboxRepo repository.OutboxRepository, logger *logger.Logger) *Service {
	return &Service{
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

func (s *Service) Emit(ctx context.Context, eventType string, payload interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	event := &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   payloadJSON,
		Status:    model.OutboxStatusPending,
	}

	if err := s.outboxRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}

	s.logger.Debug("Event queued", "event_id", event.ID.String(), "event_type", eventType)
	return nil
}

// Nop discards events.
type Nop struct{}

func (Nop) Emit(context.Context, string, interface{}) error { return nil }
