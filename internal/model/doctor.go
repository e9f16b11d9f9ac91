package model

import (
	"github.com/lib/pq"
)

// Doctor is a directory entry. AvailableTimes is the recurring slot
// template; order is significant and kept as entered.
type Doctor struct {
	Base
	Name              string         `db:"name" json:"name"`
	Specialty         string         `db:"specialty" json:"specialty"`
	Email             string         `db:"email" json:"email"`
	PasswordHash      string         `db:"password_hash" json:"-"`
	Phone             string         `db:"phone" json:"phone"`
	AvailableTimes    pq.StringArray `db:"available_times" json:"available_times"`
	YearsOfExperience int            `db:"years_of_experience" json:"years_of_experience"`
	ClinicAddress     string         `db:"clinic_address" json:"clinic_address,omitempty"`
	Rating            float64        `db:"rating" json:"rating"`
}

type CreateDoctorRequest struct {
	Name              string   `json:"name" binding:"required,min=3,max=100"`
	Specialty         string   `json:"specialty" binding:"required,min=3,max=50"`
	Email             string   `json:"email" binding:"required,email"`
	Password          string   `json:"password" binding:"required,min=6"`
	Phone             string   `json:"phone" binding:"required,len=10,numeric"`
	AvailableTimes    []string `json:"available_times" binding:"dive,slot"`
	YearsOfExperience int      `json:"years_of_experience" binding:"min=0,max=60"`
	ClinicAddress     string   `json:"clinic_address" binding:"max=255"`
	Rating            float64  `json:"rating" binding:"min=0,max=5"`
}

type UpdateDoctorRequest struct {
	Name              *string  `json:"name" binding:"omitempty,min=3,max=100"`
	Specialty         *string  `json:"specialty" binding:"omitempty,min=3,max=50"`
	Phone             *string  `json:"phone" binding:"omitempty,len=10,numeric"`
	AvailableTimes    []string `json:"available_times" binding:"omitempty,dive,slot"`
	YearsOfExperience *int     `json:"years_of_experience" binding:"omitempty,min=0,max=60"`
	ClinicAddress     *string  `json:"clinic_address" binding:"omitempty,max=255"`
	Rating            *float64 `json:"rating" binding:"omitempty,min=0,max=5"`
}

// DoctorQuery holds the optional predicates of a directory search.
// Empty strings mean the predicate is absent.
type DoctorQuery struct {
	Name      string `form:"name"`
	Specialty string `form:"specialty"`
	Period    string `form:"time"`
}
