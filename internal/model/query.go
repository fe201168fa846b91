package model

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentSortField is the closed set of supported sort keys for
// appointment listings. Anything else falls back to the default.
type AppointmentSortField string

const (
	SortByAppointmentTime AppointmentSortField = "appointment_at"
	SortByPatientName     AppointmentSortField = "patient_name"
	SortByDoctorName      AppointmentSortField = "doctor_name"
)

func (f AppointmentSortField) Valid() bool {
	switch f {
	case SortByAppointmentTime, SortByPatientName, SortByDoctorName:
		return true
	}
	return false
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// AppointmentQuery describes a filtered, sorted, paginated view over
// appointments. All filters are conjunctions. Built per request, never
// persisted.
type AppointmentQuery struct {
	Page     int
	PageSize int
	SortBy   AppointmentSortField
	SortDir  SortDirection

	PatientID   *uuid.UUID
	DoctorID    *uuid.UUID
	PatientName string
	DoctorName  string
	Status      *AppointmentStatus
	From        *time.Time
	To          *time.Time
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// AppointmentPage is one page of a filtered appointment listing.
// TotalCount is the size of the filtered set before pagination.
type AppointmentPage struct {
	Items      []*AppointmentDetail `json:"items"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	TotalCount int64                `json:"total_count"`
}
