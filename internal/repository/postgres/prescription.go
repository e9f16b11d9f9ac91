package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

type prescriptionRepository struct {
	BaseRepository
}

func NewPrescriptionRepository(base BaseRepository) repository.PrescriptionRepository {
	return &prescriptionRepository{base}
}

func (r *prescriptionRepository) Create(ctx context.Context, p *model.Prescription) error {
	query := `
		INSERT INTO prescriptions (
			id, appointment_id, patient_name, medication, dosage,
			doctor_notes, refill_count, pharmacy_name, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	p.Touch(time.Now())

	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.AppointmentID,
		p.PatientName,
		p.Medication,
		p.Dosage,
		p.DoctorNotes,
		p.RefillCount,
		p.PharmacyName,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return mapError("create prescription", err)
}

func (r *prescriptionRepository) GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*model.Prescription, error) {
	query := `
		SELECT id, appointment_id, patient_name, medication, dosage,
			   doctor_notes, refill_count, pharmacy_name, created_at, updated_at
		FROM prescriptions
		WHERE appointment_id = $1
	`

	var p model.Prescription
	if err := r.db.GetContext(ctx, &p, query, appointmentID); err != nil {
		return nil, mapError("get prescription", err)
	}
	return &p, nil
}

func (r *prescriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM prescriptions WHERE id = $1`, id)
	if err != nil {
		return mapError("delete prescription", err)
	}
	return expectRows("delete prescription", result)
}
