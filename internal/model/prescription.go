package model

import (
	"github.com/google/uuid"
)

// Prescription is linked one-to-one to an appointment. PatientName is a
// snapshot taken at creation.
type Prescription struct {
	Base
	AppointmentID uuid.UUID `db:"appointment_id" json:"appointment_id"`
	PatientName   string    `db:"patient_name" json:"patient_name"`
	Medication    string    `db:"medication" json:"medication"`
	Dosage        string    `db:"dosage" json:"dosage"`
	DoctorNotes   *string   `db:"doctor_notes" json:"doctor_notes,omitempty"`
	RefillCount   int       `db:"refill_count" json:"refill_count"`
	PharmacyName  *string   `db:"pharmacy_name" json:"pharmacy_name,omitempty"`
}

type CreatePrescriptionRequest struct {
	AppointmentID uuid.UUID `json:"appointment_id" validate:"required" binding:"required"`
	PatientName   string    `json:"patient_name" validate:"required,min=3,max=100" binding:"required,min=3,max=100"`
	Medication    string    `json:"medication" validate:"required,min=3,max=100" binding:"required,min=3,max=100"`
	Dosage        string    `json:"dosage" validate:"required,min=3,max=20" binding:"required,min=3,max=20"`
	DoctorNotes   *string   `json:"doctor_notes" validate:"omitempty,max=200" binding:"omitempty,max=200"`
	RefillCount   int       `json:"refill_count" validate:"min=0" binding:"min=0"`
	PharmacyName  *string   `json:"pharmacy_name" validate:"omitempty,max=100" binding:"omitempty,max=100"`
}
