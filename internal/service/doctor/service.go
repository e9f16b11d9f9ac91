package doctor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/slot"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

// Invalidator is told whenever the doctor directory changes.
type Invalidator interface {
	Invalidate()
}

type Service struct {
	repo   repository.DoctorRepository
	hasher security.PasswordHasher
	cache  Invalidator
	logger *logger.Logger
}

func NewService(repo repository.DoctorRepository, hasher security.PasswordHasher, cache Invalidator, logger *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		cache:  cache,
		logger: logger,
	}
}

func (s *Service) Create(ctx context.Context, req *model.CreateDoctorRequest) (*model.Doctor, error) {
	if err := validateTemplate(req.AvailableTimes); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.Conflict("email already registered", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordShort) {
			return nil, apperrors.BadRequest("password is too short", err)
		}
		return nil, apperrors.Internal(err)
	}

	d := &model.Doctor{
		Name:              req.Name,
		Specialty:         req.Specialty,
		Email:             email,
		PasswordHash:      hash,
		Phone:             req.Phone,
		AvailableTimes:    req.AvailableTimes,
		YearsOfExperience: req.YearsOfExperience,
		ClinicAddress:     req.ClinicAddress,
		Rating:            req.Rating,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.Conflict("email already registered", err)
		}
		return nil, apperrors.Internal(err)
	}

	s.cache.Invalidate()
	s.logger.Info("Doctor created", "doctor_id", d.ID.String())
	return d, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, apperrors.Internal(err)
	}
	return d, nil
}

func (s *Service) List(ctx context.Context) ([]*model.Doctor, error) {
	doctors, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return doctors, nil
}

// Update applies the non-nil fields of req.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateDoctorRequest) (*model.Doctor, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		d.Name = *req.Name
	}
	if req.Specialty != nil {
		d.Specialty = *req.Specialty
	}
	if req.Phone != nil {
		d.Phone = *req.Phone
	}
	if req.AvailableTimes != nil {
		if err := validateTemplate(req.AvailableTimes); err != nil {
			return nil, err
		}
		d.AvailableTimes = req.AvailableTimes
	}
	if req.YearsOfExperience != nil {
		d.YearsOfExperience = *req.YearsOfExperience
	}
	if req.ClinicAddress != nil {
		d.ClinicAddress = *req.ClinicAddress
	}
	if req.Rating != nil {
		d.Rating = *req.Rating
	}

	if err := s.repo.Update(ctx, d); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, apperrors.Internal(err)
	}

	s.cache.Invalidate()
	return d, nil
}

// Delete removes the doctor and their appointments.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("doctor", err)
		}
		return apperrors.Internal(err)
	}

	s.cache.Invalidate()
	s.logger.Info("Doctor deleted", "doctor_id", id.String())
	return nil
}

func validateTemplate(template []string) error {
	for _, descriptor := range template {
		if _, ok := slot.ParseStart(descriptor); !ok {
			return apperrors.BadRequest(fmt.Sprintf("unrecognised time slot %q", descriptor), nil)
		}
	}
	return nil
}
