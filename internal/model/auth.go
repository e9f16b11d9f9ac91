package model

import (
	"github.com/google/uuid"
)

// Role scopes a token and selects the identity store it is checked against.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

// Identity is the resolved caller of a protected operation.
type Identity struct {
	ID      uuid.UUID `json:"id"`
	Subject string    `json:"subject"`
	Role    Role      `json:"role"`
	Name    string    `json:"name,omitempty"`
}

type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
