package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

const patientColumns = `id, name, email, phone, password_hash, address, date_of_birth,
	emergency_contact, insurance_provider, created_at, updated_at`

type patientRepository struct {
	BaseRepository
}

func NewPatientRepository(base BaseRepository) repository.PatientRepository {
	return &patientRepository{base}
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (` + patientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	patient.Touch(time.Now())

	_, err := r.db.ExecContext(ctx, query,
		patient.ID,
		patient.Name,
		patient.Email,
		patient.Phone,
		patient.PasswordHash,
		patient.Address,
		patient.DateOfBirth,
		patient.EmergencyContact,
		patient.InsuranceProvider,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	return mapError("create patient", err)
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`

	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, query, id); err != nil {
		return nil, mapError("get patient", err)
	}
	return &patient, nil
}

func (r *patientRepository) GetByEmail(ctx context.Context, email string) (*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE lower(email) = lower($1)`

	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, query, email); err != nil {
		return nil, mapError("get patient by email", err)
	}
	return &patient, nil
}

func (r *patientRepository) FindByEmailOrPhone(ctx context.Context, email, phone string) (*model.Patient, error) {
	query := `
		SELECT ` + patientColumns + `
		FROM patients
		WHERE lower(email) = lower($1) OR phone = $2
		LIMIT 1
	`

	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, query, email, phone); err != nil {
		return nil, mapError("find patient by email or phone", err)
	}
	return &patient, nil
}
