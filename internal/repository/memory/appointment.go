package memory

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

type appointmentRepository struct{ s *Store }

// overlapsLocked mirrors the appointments_no_overlap exclusion constraint.
func (s *Store) overlapsLocked(doctorID uuid.UUID, start time.Time, excludeID *uuid.UUID) bool {
	for _, a := range s.appointments {
		if a.DoctorID != doctorID || a.Status == model.AppointmentStatusCancelled {
			continue
		}
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		if a.Overlaps(start) {
			return true
		}
	}
	return false
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if appointment.Status != model.AppointmentStatusCancelled &&
		r.s.overlapsLocked(appointment.DoctorID, appointment.StartTime, nil) {
		return repository.ErrConflict
	}
	appointment.Touch(r.s.now())
	r.s.appointments[appointment.ID] = copyAppointment(appointment)
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyAppointment(a), nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.appointments[appointment.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if current.Status != model.AppointmentStatusScheduled {
		return repository.ErrConflict
	}
	if r.s.overlapsLocked(appointment.DoctorID, appointment.StartTime, &appointment.ID) {
		return repository.ErrConflict
	}
	current.DoctorID = appointment.DoctorID
	current.StartTime = appointment.StartTime
	current.UpdatedAt = r.s.now()

	appointment.Status = current.Status
	appointment.UpdatedAt = current.UpdatedAt
	return nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.appointments[id]
	if !ok {
		return repository.ErrNotFound
	}
	if a.Status == model.AppointmentStatusCancelled && status != model.AppointmentStatusCancelled &&
		r.s.overlapsLocked(a.DoctorID, a.StartTime, &a.ID) {
		return repository.ErrConflict
	}
	a.Status = status
	a.UpdatedAt = r.s.now()
	return nil
}

func (r *appointmentRepository) ListByDoctorAndRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*model.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*model.Appointment
	for _, a := range r.s.appointments {
		if a.DoctorID != doctorID || a.Status == model.AppointmentStatusCancelled {
			continue
		}
		if a.StartTime.Before(from) || !a.StartTime.Before(to) {
			continue
		}
		out = append(out, copyAppointment(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *appointmentRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*model.Appointment
	for _, a := range r.s.appointments {
		if a.PatientID == patientID {
			out = append(out, copyAppointment(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

func (r *appointmentRepository) HasOverlap(ctx context.Context, doctorID uuid.UUID, start time.Time, excludeID *uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.overlapsLocked(doctorID, start, excludeID), nil
}

type prescriptionRepository struct{ s *Store }

func (r *prescriptionRepository) Create(ctx context.Context, p *model.Prescription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.prescriptions[p.AppointmentID]; ok {
		return repository.ErrConflict
	}
	if _, ok := r.s.appointments[p.AppointmentID]; !ok {
		return errors.New("prescription references unknown appointment")
	}
	p.Touch(r.s.now())
	c := *p
	r.s.prescriptions[p.AppointmentID] = &c
	return nil
}

func (r *prescriptionRepository) GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*model.Prescription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.prescriptions[appointmentID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (r *prescriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for appointmentID, p := range r.s.prescriptions {
		if p.ID == id {
			delete(r.s.prescriptions, appointmentID)
			return nil
		}
	}
	return repository.ErrNotFound
}

type outboxRepository struct{ s *Store }

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	if event == nil || event.Payload == nil || !json.Valid(event.Payload) {
		return errors.New("outbox event requires a JSON payload")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.Status = model.OutboxStatusPending
	event.CreatedAt = now
	event.UpdatedAt = now
	c := *event
	r.s.outbox = append(r.s.outbox, &c)
	return nil
}

func (r *outboxRepository) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*model.OutboxEvent
	for _, e := range r.s.outbox {
		if len(out) == limit {
			break
		}
		if e.Status == model.OutboxStatusPending {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *outboxRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, e := range r.s.outbox {
		if e.ID != id {
			continue
		}
		now := r.s.now()
		e.Status = status
		e.ErrorMessage = errMsg
		e.UpdatedAt = now
		if status == model.OutboxStatusProcessed {
			e.ProcessedAt = &now
		} else {
			e.RetryCount++
		}
		return nil
	}
	return repository.ErrNotFound
}
