package model

import (
	"time"

	"github.com/google/uuid"
)

type Patient struct {
	ID          uuid.UUID `db:"id" json:"id"`
	FirstName   string    `db:"first_name" json:"first_name"`
	LastName    string    `db:"last_name" json:"last_name"`
	Email       string    `db:"email" json:"email"`
	Phone       string    `db:"phone" json:"phone"`
	DateOfBirth time.Time `db:"date_of_birth" json:"date_of_birth"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

type CreatePatientRequest struct {
	FirstName   string    `json:"first_name" binding:"required,max=100"`
	LastName    string    `json:"last_name" binding:"required,max=100"`
	Email       string    `json:"email" binding:"required,email"`
	Phone       string    `json:"phone" binding:"required,max=30"`
	DateOfBirth time.Time `json:"date_of_birth" binding:"required"`
}

type UpdatePatientRequest struct {
	FirstName   string    `json:"first_name" binding:"required,max=100"`
	LastName    string    `json:"last_name" binding:"required,max=100"`
	Email       string    `json:"email" binding:"required,email"`
	Phone       string    `json:"phone" binding:"required,max=30"`
	DateOfBirth time.Time `json:"date_of_birth" binding:"required"`
}
