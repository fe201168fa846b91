package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/clinicore/clinic-api/internal/model"
)

func TestBuildFiltersEmpty(t *testing.T) {
	where, args := buildFilters(&model.AppointmentQuery{})
	assert.Empty(t, where)
	assert.Nil(t, args)
}

func TestBuildFiltersNumbering(t *testing.T) {
	patientID := uuid.New()
	doctorID := uuid.New()
	status := model.AppointmentStatusScheduled
	from := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)

	where, args := buildFilters(&model.AppointmentQuery{
		PatientID: &patientID,
		DoctorID:  &doctorID,
		Status:    &status,
		From:      &from,
		To:        &to,
	})

	assert.Equal(t,
		" WHERE a.patient_id = $1 AND a.doctor_id = $2 AND a.status = $3"+
			" AND a.appointment_at >= $4 AND a.appointment_at <= $5",
		where)
	assert.Equal(t, []interface{}{patientID, doctorID, status, from, to}, args)
}

func TestBuildFiltersNameSearch(t *testing.T) {
	where, args := buildFilters(&model.AppointmentQuery{
		PatientName: "jane",
		DoctorName:  "smith",
	})

	// Search terms travel as args; the wildcards live in SQL.
	assert.Equal(t,
		" WHERE (p.first_name || ' ' || p.last_name) ILIKE '%' || $1 || '%'"+
			" AND d.full_name ILIKE '%' || $2 || '%'",
		where)
	assert.Equal(t, []interface{}{"jane", "smith"}, args)
}

func TestBuildFiltersCreatedBounds(t *testing.T) {
	createdFrom := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	createdTo := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	where, args := buildFilters(&model.AppointmentQuery{
		CreatedFrom: &createdFrom,
		CreatedTo:   &createdTo,
	})

	assert.Equal(t, " WHERE a.created_at >= $1 AND a.created_at <= $2", where)
	assert.Len(t, args, 2)
}

func TestOrderClause(t *testing.T) {
	tests := []struct {
		name    string
		sortBy  model.AppointmentSortField
		sortDir model.SortDirection
		want    string
	}{
		{"appointment time asc", model.SortByAppointmentTime, model.SortAsc, " ORDER BY a.appointment_at ASC, a.id ASC"},
		{"appointment time desc", model.SortByAppointmentTime, model.SortDesc, " ORDER BY a.appointment_at DESC, a.id ASC"},
		{"patient name", model.SortByPatientName, model.SortAsc, " ORDER BY patient_name ASC, a.id ASC"},
		{"doctor name desc", model.SortByDoctorName, model.SortDesc, " ORDER BY doctor_name DESC, a.id ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := orderClause(&model.AppointmentQuery{SortBy: tt.sortBy, SortDir: tt.sortDir})
			assert.Equal(t, tt.want, got)
		})
	}
}
