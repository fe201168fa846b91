package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Valid reports whether s is a known appointment status.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusCompleted, AppointmentStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is permitted out of s.
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusCancelled
}

// NormalizeInstant converts an externally supplied timestamp to the
// canonical representation used for every comparison and storage call:
// UTC, truncated to the minute. Appointments are point bookings, so
// sub-minute precision only creates spurious inequality between slots.
func NormalizeInstant(t time.Time) time.Time {
	return t.UTC().Truncate(time.Minute)
}

type Appointment struct {
	ID            uuid.UUID         `db:"id" json:"id"`
	PatientID     uuid.UUID         `db:"patient_id" json:"patient_id"`
	DoctorID      uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	AppointmentAt time.Time         `db:"appointment_at" json:"appointment_at"`
	Description   string            `db:"description" json:"description,omitempty"`
	Status        AppointmentStatus `db:"status" json:"status"`
	CreatedAt     time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time         `db:"updated_at" json:"updated_at"`
}

// AppointmentDetail is an appointment enriched with patient and doctor
// display fields for API responses.
type AppointmentDetail struct {
	Appointment
	PatientName  string `db:"patient_name" json:"patient_name"`
	PatientEmail string `db:"patient_email" json:"patient_email"`
	DoctorName   string `db:"doctor_name" json:"doctor_name"`
	DoctorEmail  string `db:"doctor_email" json:"doctor_email"`
}

type CreateAppointmentRequest struct {
	PatientID     uuid.UUID `json:"patient_id" binding:"required"`
	DoctorID      uuid.UUID `json:"doctor_id" binding:"required"`
	AppointmentAt time.Time `json:"appointment_at" binding:"required"`
	Description   string    `json:"description" binding:"max=1000"`
}

type RescheduleAppointmentRequest struct {
	DoctorID      uuid.UUID `json:"doctor_id" binding:"required"`
	AppointmentAt time.Time `json:"appointment_at" binding:"required"`
	Description   string    `json:"description" binding:"max=1000"`
}
