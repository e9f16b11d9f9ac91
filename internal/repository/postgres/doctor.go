package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

const doctorColumns = `id, name, specialty, email, password_hash, phone, available_times,
	years_of_experience, clinic_address, rating, created_at, updated_at`

type doctorRepository struct {
	BaseRepository
}

func NewDoctorRepository(base BaseRepository) repository.DoctorRepository {
	return &doctorRepository{base}
}

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	query := `
		INSERT INTO doctors (` + doctorColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	doctor.Touch(time.Now())

	_, err := r.db.ExecContext(ctx, query,
		doctor.ID,
		doctor.Name,
		doctor.Specialty,
		doctor.Email,
		doctor.PasswordHash,
		doctor.Phone,
		doctor.AvailableTimes,
		doctor.YearsOfExperience,
		doctor.ClinicAddress,
		doctor.Rating,
		doctor.CreatedAt,
		doctor.UpdatedAt,
	)
	return mapError("create doctor", err)
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE id = $1`

	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, id); err != nil {
		return nil, mapError("get doctor", err)
	}
	return &doctor, nil
}

func (r *doctorRepository) GetByEmail(ctx context.Context, email string) (*model.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE lower(email) = lower($1)`

	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, email); err != nil {
		return nil, mapError("get doctor by email", err)
	}
	return &doctor, nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	query := `
		UPDATE doctors
		SET name = $1, specialty = $2, phone = $3, available_times = $4,
			years_of_experience = $5, clinic_address = $6, rating = $7, updated_at = $8
		WHERE id = $9
	`
	doctor.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		doctor.Name,
		doctor.Specialty,
		doctor.Phone,
		doctor.AvailableTimes,
		doctor.YearsOfExperience,
		doctor.ClinicAddress,
		doctor.Rating,
		doctor.UpdatedAt,
		doctor.ID,
	)
	if err != nil {
		return mapError("update doctor", err)
	}
	return expectRows("update doctor", result)
}

func (r *doctorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM appointments WHERE doctor_id = $1`, id); err != nil {
			return mapError("delete doctor appointments", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM doctors WHERE id = $1`, id)
		if err != nil {
			return mapError("delete doctor", err)
		}
		return expectRows("delete doctor", result)
	})
}

func (r *doctorRepository) List(ctx context.Context) ([]*model.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors ORDER BY name ASC`

	var doctors []*model.Doctor
	if err := r.db.SelectContext(ctx, &doctors, query); err != nil {
		return nil, mapError("list doctors", err)
	}
	return doctors, nil
}
