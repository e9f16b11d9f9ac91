// Package memory is an in-process implementation of the repository
// interfaces. It enforces the same uniqueness and overlap constraints as
// the postgres schema and backs the "memory" database driver and the
// service tests.
package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

type Store struct {
	mu            sync.RWMutex
	doctors       map[uuid.UUID]*model.Doctor
	patients      map[uuid.UUID]*model.Patient
	admins        map[string]*model.Admin
	appointments  map[uuid.UUID]*model.Appointment
	prescriptions map[uuid.UUID]*model.Prescription
	outbox        []*model.OutboxEvent
	now           func() time.Time
}

func NewStore() *Store {
	return &Store{
		doctors:       make(map[uuid.UUID]*model.Doctor),
		patients:      make(map[uuid.UUID]*model.Patient),
		admins:        make(map[string]*model.Admin),
		appointments:  make(map[uuid.UUID]*model.Appointment),
		prescriptions: make(map[uuid.UUID]*model.Prescription),
		now:           time.Now,
	}
}

func (s *Store) Doctors() repository.DoctorRepository             { return &doctorRepository{s} }
func (s *Store) Patients() repository.PatientRepository           { return &patientRepository{s} }
func (s *Store) Admins() repository.AdminRepository               { return &adminRepository{s} }
func (s *Store) Appointments() repository.AppointmentRepository   { return &appointmentRepository{s} }
func (s *Store) Prescriptions() repository.PrescriptionRepository { return &prescriptionRepository{s} }
func (s *Store) Outbox() repository.OutboxRepository              { return &outboxRepository{s} }

func copyDoctor(d *model.Doctor) *model.Doctor {
	c := *d
	c.AvailableTimes = append([]string(nil), d.AvailableTimes...)
	return &c
}

func copyPatient(p *model.Patient) *model.Patient {
	c := *p
	return &c
}

func copyAppointment(a *model.Appointment) *model.Appointment {
	c := *a
	return &c
}

func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Doctors:       s.Doctors(),
		Patients:      s.Patients(),
		Admins:        s.Admins(),
		Appointments:  s.Appointments(),
		Prescriptions: s.Prescriptions(),
		Outbox:        s.Outbox(),
	}
}
