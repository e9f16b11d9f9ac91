package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

type doctorRepository struct{ s *Store }

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, d := range r.s.doctors {
		if strings.EqualFold(d.Email, doctor.Email) {
			return repository.ErrConflict
		}
	}
	doctor.Touch(r.s.now())
	r.s.doctors[doctor.ID] = copyDoctor(doctor)
	return nil
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	d, ok := r.s.doctors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyDoctor(d), nil
}

func (r *doctorRepository) GetByEmail(ctx context.Context, email string) (*model.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, d := range r.s.doctors {
		if strings.EqualFold(d.Email, email) {
			return copyDoctor(d), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.doctors[doctor.ID]; !ok {
		return repository.ErrNotFound
	}
	doctor.UpdatedAt = r.s.now()
	r.s.doctors[doctor.ID] = copyDoctor(doctor)
	return nil
}

func (r *doctorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.doctors[id]; !ok {
		return repository.ErrNotFound
	}
	for aid, a := range r.s.appointments {
		if a.DoctorID == id {
			delete(r.s.appointments, aid)
			delete(r.s.prescriptions, aid)
		}
	}
	delete(r.s.doctors, id)
	return nil
}

func (r *doctorRepository) List(ctx context.Context) ([]*model.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	doctors := make([]*model.Doctor, 0, len(r.s.doctors))
	for _, d := range r.s.doctors {
		doctors = append(doctors, copyDoctor(d))
	}
	sort.Slice(doctors, func(i, j int) bool {
		if doctors[i].Name == doctors[j].Name {
			return doctors[i].ID.String() < doctors[j].ID.String()
		}
		return doctors[i].Name < doctors[j].Name
	})
	return doctors, nil
}

type patientRepository struct{ s *Store }

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, p := range r.s.patients {
		if strings.EqualFold(p.Email, patient.Email) || p.Phone == patient.Phone {
			return repository.ErrConflict
		}
	}
	patient.Touch(r.s.now())
	r.s.patients[patient.ID] = copyPatient(patient)
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.patients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyPatient(p), nil
}

func (r *patientRepository) GetByEmail(ctx context.Context, email string) (*model.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.patients {
		if strings.EqualFold(p.Email, email) {
			return copyPatient(p), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *patientRepository) FindByEmailOrPhone(ctx context.Context, email, phone string) (*model.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.patients {
		if strings.EqualFold(p.Email, email) || p.Phone == phone {
			return copyPatient(p), nil
		}
	}
	return nil, repository.ErrNotFound
}

// DeletePatient exists for tests exercising revocation by deletion.
func (s *Store) DeletePatient(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.patients, id)
}

type adminRepository struct{ s *Store }

func (r *adminRepository) Create(ctx context.Context, admin *model.Admin) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.admins[admin.Username]; ok {
		return repository.ErrConflict
	}
	admin.Touch(r.s.now())
	c := *admin
	r.s.admins[admin.Username] = &c
	return nil
}

func (r *adminRepository) GetByUsername(ctx context.Context, username string) (*model.Admin, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.admins[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *a
	return &c, nil
}
