package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

const appointmentColumns = `id, doctor_id, patient_id, start_time, status, created_at, updated_at`

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(base BaseRepository) repository.AppointmentRepository {
	return &appointmentRepository{base}
}

// Create relies on the appointments_no_overlap exclusion constraint as the
// last line against double booking across processes.
func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, doctor_id, patient_id, start_time, end_time, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	appointment.Touch(time.Now())

	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.DoctorID,
		appointment.PatientID,
		appointment.StartTime,
		appointment.EndTime(),
		appointment.Status,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	return mapError("create appointment", err)
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, mapError("get appointment", err)
	}
	return &appointment, nil
}

// Update moves a scheduled appointment. The status is never written here;
// a row that is no longer scheduled yields ErrConflict.
func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	query := `
		UPDATE appointments
		SET doctor_id = $1, start_time = $2, end_time = $3, updated_at = $4
		WHERE id = $5 AND status = 'scheduled'
		RETURNING status
	`
	appointment.UpdatedAt = time.Now()

	var status model.AppointmentStatus
	err := r.db.GetContext(ctx, &status, query,
		appointment.DoctorID,
		appointment.StartTime,
		appointment.EndTime(),
		appointment.UpdatedAt,
		appointment.ID,
	)
	if err == nil {
		appointment.Status = status
		return nil
	}

	err = mapError("update appointment", err)
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)`, appointment.ID); err != nil {
		return mapError("update appointment", err)
	}
	if exists {
		return fmt.Errorf("update appointment: not scheduled: %w", repository.ErrConflict)
	}
	return err
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error {
	query := `UPDATE appointments SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return mapError("update appointment status", err)
	}
	return expectRows("update appointment status", result)
}

func (r *appointmentRepository) ListByDoctorAndRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE doctor_id = $1
		AND start_time >= $2
		AND start_time < $3
		AND status <> 'cancelled'
		ORDER BY start_time ASC
	`

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, doctorID, from, to); err != nil {
		return nil, mapError("list doctor appointments", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE patient_id = $1
		ORDER BY start_time DESC
	`

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, patientID); err != nil {
		return nil, mapError("list patient appointments", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) HasOverlap(ctx context.Context, doctorID uuid.UUID, start time.Time, excludeID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1
			AND status <> 'cancelled'
			AND start_time < $3
			AND end_time > $2
	`
	args := []interface{}{doctorID, start, start.Add(model.AppointmentDuration)}

	if excludeID != nil {
		query += " AND id <> $4"
		args = append(args, *excludeID)
	}
	query += ")"

	var overlaps bool
	if err := r.db.GetContext(ctx, &overlaps, query, args...); err != nil {
		return false, mapError("check appointment overlap", err)
	}
	return overlaps, nil
}
