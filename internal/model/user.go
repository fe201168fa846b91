package model

import (
	"time"

	"github.com/google/uuid"
)

// Roles understood by the API. Doctor accounts may carry a link to a
// doctor row; receptionists and admins never do.
const (
	RoleAdmin        = "admin"
	RoleReceptionist = "receptionist"
	RoleDoctor       = "doctor"
)

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleReceptionist, RoleDoctor:
		return true
	}
	return false
}

type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	DoctorID     *uuid.UUID `db:"doctor_id" json:"doctor_id,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`

	Roles []string `db:"-" json:"roles"`
}

// TokenClaims is the authenticated principal extracted from a JWT.
type TokenClaims struct {
	UserID   uuid.UUID
	Email    string
	Roles    []string
	DoctorID *uuid.UUID
}

// HasRole reports whether the principal carries the given role.
func (c *TokenClaims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required,oneof=admin receptionist doctor"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type AssignRoleRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
	Role   string    `json:"role" binding:"required,oneof=admin receptionist doctor"`
}

type TokenResponse struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresAt    time.Time  `json:"expires_at"`
	Roles        []string   `json:"roles"`
	DoctorID     *uuid.UUID `json:"doctor_id,omitempty"`
}
