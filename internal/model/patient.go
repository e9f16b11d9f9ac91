package model

import (
	"time"

	"github.com/google/uuid"
)

type Patient struct {
	Base
	Name              string     `db:"name" json:"name"`
	Email             string     `db:"email" json:"email"`
	Phone             string     `db:"phone" json:"phone"`
	PasswordHash      string     `db:"password_hash" json:"-"`
	Address           string     `db:"address" json:"address"`
	DateOfBirth       *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	EmergencyContact  *string    `db:"emergency_contact" json:"emergency_contact,omitempty"`
	InsuranceProvider *string    `db:"insurance_provider" json:"insurance_provider,omitempty"`
}

type CreatePatientRequest struct {
	Name              string     `json:"name" binding:"required,min=3,max=100"`
	Email             string     `json:"email" binding:"required,email"`
	Password          string     `json:"password" binding:"required,min=6"`
	Phone             string     `json:"phone" binding:"required,len=10,numeric"`
	Address           string     `json:"address" binding:"required,max=255"`
	DateOfBirth       *time.Time `json:"date_of_birth"`
	EmergencyContact  *string    `json:"emergency_contact" binding:"omitempty,len=10,numeric"`
	InsuranceProvider *string    `json:"insurance_provider" binding:"omitempty,max=100"`
}

// PatientView is the profile returned to the patient; it never carries
// the credential hash.
type PatientView struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Phone   string    `json:"phone"`
	Address string    `json:"address"`
}

func (p *Patient) View() PatientView {
	return PatientView{
		ID:      p.ID,
		Name:    p.Name,
		Email:   p.Email,
		Phone:   p.Phone,
		Address: p.Address,
	}
}
