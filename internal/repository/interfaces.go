package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write violates a uniqueness or
	// appointment overlap constraint.
	ErrConflict = errors.New("record conflicts with existing data")
)

// All repository interfaces in one file
type (
	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		GetByEmail(ctx context.Context, email string) (*model.Doctor, error)
		Update(ctx context.Context, doctor *model.Doctor) error
		// Delete removes the doctor together with their appointments.
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.Doctor, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		GetByEmail(ctx context.Context, email string) (*model.Patient, error)
		FindByEmailOrPhone(ctx context.Context, email, phone string) (*model.Patient, error)
	}

	AdminRepository interface {
		Create(ctx context.Context, admin *model.Admin) error
		GetByUsername(ctx context.Context, username string) (*model.Admin, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		// Update moves a scheduled appointment to appointment's doctor and
		// start. It never writes the status and returns ErrConflict when
		// the stored appointment is no longer scheduled.
		Update(ctx context.Context, appointment *model.Appointment) error
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error
		// ListByDoctorAndRange returns non-cancelled appointments of the
		// doctor starting in [from, to), ordered by start time.
		ListByDoctorAndRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*model.Appointment, error)
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error)
		// HasOverlap reports whether a non-cancelled appointment of the
		// doctor other than excludeID intersects [start, start+1h).
		HasOverlap(ctx context.Context, doctorID uuid.UUID, start time.Time, excludeID *uuid.UUID) (bool, error)
	}

	PrescriptionRepository interface {
		Create(ctx context.Context, prescription *model.Prescription) error
		GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*model.Prescription, error)
		Delete(ctx context.Context, id uuid.UUID) error
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error
	}
)

// Repositories bundles one implementation of every repository so the
// storage driver can be chosen at startup.
type Repositories struct {
	Doctors       DoctorRepository
	Patients      PatientRepository
	Admins        AdminRepository
	Appointments  AppointmentRepository
	Prescriptions PrescriptionRepository
	Outbox        OutboxRepository
}
