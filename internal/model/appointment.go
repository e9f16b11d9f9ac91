package model

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentDuration is fixed; EndTime is always derived from it.
const AppointmentDuration = time.Hour

type AppointmentStatus string

const (
	AppointmentStatusScheduled         AppointmentStatus = "scheduled"
	AppointmentStatusCancelled         AppointmentStatus = "cancelled"
	AppointmentStatusCompleted         AppointmentStatus = "completed"
	AppointmentStatusPrescriptionAdded AppointmentStatus = "prescription_added"
)

var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusScheduled: {
		AppointmentStatusCancelled,
		AppointmentStatusCompleted,
		AppointmentStatusPrescriptionAdded,
	},
	AppointmentStatusCompleted: {
		AppointmentStatusPrescriptionAdded,
	},
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusCancelled,
		AppointmentStatusCompleted, AppointmentStatusPrescriptionAdded:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine allows s -> next.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range appointmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Appointment struct {
	Base
	DoctorID  uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	PatientID uuid.UUID         `db:"patient_id" json:"patient_id"`
	StartTime time.Time         `db:"start_time" json:"start_time"`
	Status    AppointmentStatus `db:"status" json:"status"`
}

func (a *Appointment) EndTime() time.Time {
	return a.StartTime.Add(AppointmentDuration)
}

// Overlaps reports whether the two one-hour intervals intersect.
func (a *Appointment) Overlaps(start time.Time) bool {
	end := start.Add(AppointmentDuration)
	return a.StartTime.Before(end) && start.Before(a.EndTime())
}

type BookAppointmentRequest struct {
	DoctorID  uuid.UUID `json:"doctor_id" binding:"required"`
	StartTime time.Time `json:"start_time" binding:"required"`
}

type UpdateAppointmentRequest struct {
	DoctorID  uuid.UUID `json:"doctor_id" binding:"required"`
	StartTime time.Time `json:"start_time" binding:"required"`
}

type ChangeStatusRequest struct {
	Status AppointmentStatus `json:"status" binding:"required,oneof=scheduled cancelled completed prescription_added"`
}

// AppointmentView is what a patient sees of their own history.
type AppointmentView struct {
	ID         uuid.UUID         `json:"id"`
	DoctorID   uuid.UUID         `json:"doctor_id"`
	DoctorName string            `json:"doctor_name"`
	Specialty  string            `json:"specialty"`
	StartTime  time.Time         `json:"start_time"`
	EndTime    time.Time         `json:"end_time"`
	Status     AppointmentStatus `json:"status"`
}

// DoctorAppointmentView is a row of a doctor's day schedule.
type DoctorAppointmentView struct {
	ID           uuid.UUID         `json:"id"`
	PatientID    uuid.UUID         `json:"patient_id"`
	PatientName  string            `json:"patient_name"`
	PatientPhone string            `json:"patient_phone"`
	StartTime    time.Time         `json:"start_time"`
	EndTime      time.Time         `json:"end_time"`
	Status       AppointmentStatus `json:"status"`
}

// AppointmentCondition is the temporal filter of a patient search.
type AppointmentCondition string

const (
	ConditionPast   AppointmentCondition = "past"
	ConditionFuture AppointmentCondition = "future"
)

// Statuses returns the status set the condition selects.
func (c AppointmentCondition) Statuses() ([]AppointmentStatus, bool) {
	switch c {
	case ConditionPast:
		return []AppointmentStatus{AppointmentStatusCompleted, AppointmentStatusPrescriptionAdded}, true
	case ConditionFuture:
		return []AppointmentStatus{AppointmentStatusScheduled}, true
	}
	return nil, false
}
