// Package directory implements the doctor search and the patient
// appointment search.
package directory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/slot"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

const (
	doctorsKey = "doctors"
	DefaultTTL = 30 * time.Second
)

type Service struct {
	doctors      repository.DoctorRepository
	appointments repository.AppointmentRepository
	cache        *cache.Cache
	metrics      *metrics.Metrics
}

func NewService(doctors repository.DoctorRepository, appointments repository.AppointmentRepository,
	ttl time.Duration, metrics *metrics.Metrics) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		doctors:      doctors,
		appointments: appointments,
		cache:        cache.New(ttl, 2*ttl),
		metrics:      metrics,
	}
}

// Invalidate drops the cached doctor list. Doctor writes call it.
func (s *Service) Invalidate() {
	s.cache.Delete(doctorsKey)
}

// allDoctors returns the shared, read-only doctor list.
func (s *Service) allDoctors(ctx context.Context) ([]*model.Doctor, error) {
	if cached, ok := s.cache.Get(doctorsKey); ok {
		s.metrics.DirectoryCache.WithLabelValues("hit").Inc()
		return cached.([]*model.Doctor), nil
	}
	s.metrics.DirectoryCache.WithLabelValues("miss").Inc()

	doctors, err := s.doctors.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	s.cache.SetDefault(doctorsKey, doctors)
	return doctors, nil
}

// SearchDoctors ANDs the name, specialty and period predicates of q.
// Empty predicates always match, and a period that is neither AM nor PM
// is ignored.
func (s *Service) SearchDoctors(ctx context.Context, q model.DoctorQuery) ([]*model.Doctor, error) {
	doctors, err := s.allDoctors(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.ToLower(strings.TrimSpace(q.Name))
	specialty := strings.TrimSpace(q.Specialty)
	var period *slot.Period
	if p, ok := slot.ParsePeriod(q.Period); ok {
		period = &p
	}

	out := make([]*model.Doctor, 0, len(doctors))
	for _, d := range doctors {
		if name != "" && !strings.Contains(strings.ToLower(d.Name), name) {
			continue
		}
		if specialty != "" && !strings.EqualFold(d.Specialty, specialty) {
			continue
		}
		if period != nil && !hasSlotIn(d.AvailableTimes, *period) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func hasSlotIn(template []string, p slot.Period) bool {
	for _, descriptor := range template {
		if slot.MatchesPeriod(descriptor, p) {
			return true
		}
	}
	return false
}

// SearchPatientAppointments filters the patient's history by condition
// ("past" or "future") and doctor-name substring. Empty arguments do not
// filter.
func (s *Service) SearchPatientAppointments(ctx context.Context, patientID uuid.UUID, condition, doctorName string) ([]model.AppointmentView, error) {
	var statuses []model.AppointmentStatus
	if condition = strings.TrimSpace(condition); condition != "" {
		var ok bool
		statuses, ok = model.AppointmentCondition(strings.ToLower(condition)).Statuses()
		if !ok {
			return nil, apperrors.BadRequest("condition must be past or future", nil)
		}
	}

	apts, err := s.appointments.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	doctors, err := s.allDoctors(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*model.Doctor, len(doctors))
	for _, d := range doctors {
		byID[d.ID] = d
	}

	name := strings.ToLower(strings.TrimSpace(doctorName))
	views := make([]model.AppointmentView, 0, len(apts))
	for _, a := range apts {
		if statuses != nil && !hasStatus(statuses, a.Status) {
			continue
		}
		d, ok := byID[a.DoctorID]
		if !ok {
			d, err = s.lookupDoctor(ctx, a.DoctorID)
			if err != nil {
				return nil, err
			}
			if d == nil {
				continue
			}
		}
		if name != "" && !strings.Contains(strings.ToLower(d.Name), name) {
			continue
		}
		views = append(views, model.AppointmentView{
			ID:         a.ID,
			DoctorID:   d.ID,
			DoctorName: d.Name,
			Specialty:  d.Specialty,
			StartTime:  a.StartTime,
			EndTime:    a.EndTime(),
			Status:     a.Status,
		})
	}
	return views, nil
}

// lookupDoctor covers doctors created after the list was cached. A
// deleted doctor yields nil.
func (s *Service) lookupDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	d, err := s.doctors.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, apperrors.Internal(err)
	}
	return d, nil
}

func hasStatus(statuses []model.AppointmentStatus, s model.AppointmentStatus) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}
