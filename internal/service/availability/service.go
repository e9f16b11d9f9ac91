// Package availability computes the free slots of a doctor's recurring
// template on a calendar day.
package availability

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/slot"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type Service struct {
	doctors      repository.DoctorRepository
	appointments repository.AppointmentRepository
	loc          *time.Location
}

// NewService builds the engine. loc is the clinic time zone that defines
// where a day starts and ends; nil means UTC.
func NewService(doctors repository.DoctorRepository, appointments repository.AppointmentRepository, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		doctors:      doctors,
		appointments: appointments,
		loc:          loc,
	}
}

func (s *Service) Location() *time.Location {
	return s.loc
}

// Availability returns the template descriptors of the doctor that are
// not booked on date, in template order and original formatting.
func (s *Service) Availability(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	return s.AvailabilityExcluding(ctx, doctorID, date, nil)
}

// AvailabilityExcluding is Availability with the appointment excludeID
// treated as not booked, so an appointment can be moved within its own
// reservation.
func (s *Service) AvailabilityExcluding(ctx context.Context, doctorID uuid.UUID, date time.Time, excludeID *uuid.UUID) ([]string, error) {
	doctor, err := s.doctors.Get(ctx, doctorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, apperrors.Internal(err)
	}

	from, to := DayBounds(date, s.loc)
	booked, err := s.appointments.ListByDoctorAndRange(ctx, doctorID, from, to)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return FreeSlots(doctor.AvailableTimes, BookedStarts(booked, s.loc, excludeID)), nil
}

// DayBounds returns [00:00, next day 00:00) of date's calendar day in loc.
// The year, month and day are read from date as given.
func DayBounds(date time.Time, loc *time.Location) (time.Time, time.Time) {
	y, m, d := date.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 0, 1)
}

// BookedStarts returns the canonical start times of the non-cancelled
// appointments, read in loc.
func BookedStarts(appointments []*model.Appointment, loc *time.Location, excludeID *uuid.UUID) map[string]struct{} {
	booked := make(map[string]struct{}, len(appointments))
	for _, a := range appointments {
		if a.Status == model.AppointmentStatusCancelled {
			continue
		}
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		booked[slot.FromTime(a.StartTime.In(loc)).String()] = struct{}{}
	}
	return booked
}

// FreeSlots filters template down to the descriptors whose start is not
// booked. Unparsable descriptors are dropped.
func FreeSlots(template []string, booked map[string]struct{}) []string {
	free := make([]string, 0, len(template))
	for _, descriptor := range template {
		canonical, ok := slot.Canonical(descriptor)
		if !ok {
			continue
		}
		if _, taken := booked[canonical]; taken {
			continue
		}
		free = append(free, descriptor)
	}
	return free
}

// FilterByPeriod keeps the descriptors in period p. A nil period keeps
// everything.
func FilterByPeriod(descriptors []string, p *slot.Period) []string {
	if p == nil {
		return descriptors
	}
	out := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		if slot.MatchesPeriod(d, *p) {
			out = append(out, d)
		}
	}
	return out
}
