package patient

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

type PatientService interface {
	Signup(ctx context.Context, req *model.CreatePatientRequest) (*model.PatientView, error)
	Profile(ctx context.Context, id uuid.UUID) (*model.PatientView, error)
	Appointments(ctx context.Context, id uuid.UUID) ([]model.AppointmentView, error)
}

// AppointmentSearcher renders a patient's appointments as views.
type AppointmentSearcher interface {
	SearchPatientAppointments(ctx context.Context, patientID uuid.UUID, condition, doctorName string) ([]model.AppointmentView, error)
}

type Service struct {
	repo     repository.PatientRepository
	hasher   security.PasswordHasher
	searcher AppointmentSearcher
	logger   *logger.Logger
}

func NewService(repo repository.PatientRepository, hasher security.PasswordHasher, searcher AppointmentSearcher, logger *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		hasher:   hasher,
		searcher: searcher,
		logger:   logger,
	}
}

// Signup registers a patient. Email and phone must both be unused.
func (s *Service) Signup(ctx context.Context, req *model.CreatePatientRequest) (*model.PatientView, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	_, err := s.repo.FindByEmailOrPhone(ctx, email, req.Phone)
	switch {
	case err == nil:
		return nil, apperrors.Conflict("email or phone already registered", nil)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.Internal(err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordShort) {
			return nil, apperrors.BadRequest("password is too short", err)
		}
		return nil, apperrors.Internal(err)
	}

	p := &model.Patient{
		Name:              req.Name,
		Email:             email,
		Phone:             req.Phone,
		PasswordHash:      hash,
		Address:           req.Address,
		DateOfBirth:       req.DateOfBirth,
		EmergencyContact:  req.EmergencyContact,
		InsuranceProvider: req.InsuranceProvider,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.Conflict("email or phone already registered", err)
		}
		return nil, apperrors.Internal(err)
	}

	s.logger.Info("Patient registered", "patient_id", p.ID.String())
	view := p.View()
	return &view, nil
}

func (s *Service) Profile(ctx context.Context, id uuid.UUID) (*model.PatientView, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, apperrors.Internal(err)
	}
	view := p.View()
	return &view, nil
}

// Appointments returns the patient's full history.
func (s *Service) Appointments(ctx context.Context, id uuid.UUID) ([]model.AppointmentView, error) {
	return s.searcher.SearchPatientAppointments(ctx, id, "", "")
}
