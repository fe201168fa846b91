package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
	apperrors "github.com/clinicore/clinic-api/pkg/errors"
)

const uniqueViolation = "23505"

// detailColumns joins patient and doctor display fields onto each
// appointment row.
const detailColumns = `
	a.id, a.patient_id, a.doctor_id, a.appointment_at, a.description,
	a.status, a.created_at, a.updated_at,
	p.first_name || ' ' || p.last_name AS patient_name,
	p.email AS patient_email,
	d.full_name AS doctor_name,
	d.email AS doctor_email
`

const detailFrom = `
	FROM appointments a
	JOIN patients p ON p.id = a.patient_id
	JOIN doctors d ON d.id = a.doctor_id
`

type appointmentRepository struct {
	db *sqlx.DB
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{db: db}
}

func (r *appointmentRepository) Insert(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, patient_id, doctor_id, appointment_at,
			description, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.PatientID,
		appointment.DoctorID,
		appointment.AppointmentAt,
		appointment.Description,
		appointment.Status,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		// The partial unique index on (doctor_id, appointment_at) for
		// non-cancelled rows closes the check-then-write race between
		// concurrent bookings for the same slot.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return apperrors.Conflict("doctor already has an appointment at this time")
		}
		return fmt.Errorf("failed to insert appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, patient_id, doctor_id, appointment_at, description,
			   status, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`
	var appointment model.Appointment
	err := r.db.GetContext(ctx, &appointment, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("appointment")
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) GetDetail(ctx context.Context, id uuid.UUID) (*model.AppointmentDetail, error) {
	query := "SELECT " + detailColumns + detailFrom + "WHERE a.id = $1"

	var detail model.AppointmentDetail
	err := r.db.GetContext(ctx, &detail, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("appointment")
		}
		return nil, fmt.Errorf("failed to get appointment detail: %w", err)
	}
	return &detail, nil
}

func (r *appointmentRepository) Save(ctx context.Context, appointment *model.Appointment) error {
	query := `
		UPDATE appointments
		SET doctor_id = $1, appointment_at = $2, description = $3,
			status = $4, updated_at = $5
		WHERE id = $6
	`
	result, err := r.db.ExecContext(ctx, query,
		appointment.DoctorID,
		appointment.AppointmentAt,
		appointment.Description,
		appointment.Status,
		appointment.UpdatedAt,
		appointment.ID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return apperrors.Conflict("doctor already has an appointment at this time")
		}
		return fmt.Errorf("failed to save appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("appointment")
	}
	return nil
}

func (r *appointmentRepository) ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.AppointmentDetail, error) {
	query := "SELECT " + detailColumns + detailFrom +
		"WHERE a.doctor_id = $1 ORDER BY a.appointment_at ASC, a.id ASC"

	var appointments []*model.AppointmentDetail
	err := r.db.SelectContext(ctx, &appointments, query, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctor appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ExistsConflict(ctx context.Context, doctorID uuid.UUID, at time.Time, excludeID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1
			AND appointment_at = $2
			AND status <> 'cancelled'
	`
	args := []interface{}{doctorID, at}

	if excludeID != nil {
		query += " AND id <> $3"
		args = append(args, *excludeID)
	}
	query += ")"

	var hasConflict bool
	err := r.db.GetContext(ctx, &hasConflict, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to check conflicts: %w", err)
	}
	return hasConflict, nil
}

func (r *appointmentRepository) Query(ctx context.Context, q *model.AppointmentQuery) ([]*model.AppointmentDetail, int64, error) {
	where, args := buildFilters(q)

	countQuery := "SELECT COUNT(*)" + detailFrom + where
	var total int64
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count appointments: %w", err)
	}

	listQuery := "SELECT " + detailColumns + detailFrom + where +
		orderClause(q) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, q.PageSize, (q.Page-1)*q.PageSize)

	items := []*model.AppointmentDetail{}
	if err := r.db.SelectContext(ctx, &items, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to query appointments: %w", err)
	}
	return items, total, nil
}

// buildFilters renders the active filters as an AND-joined WHERE
// clause with positional args. Range bounds are inclusive.
func buildFilters(q *model.AppointmentQuery) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	add := func(clause string, value interface{}) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if q.PatientID != nil {
		add("a.patient_id = $%d", *q.PatientID)
	}
	if q.DoctorID != nil {
		add("a.doctor_id = $%d", *q.DoctorID)
	}
	if q.PatientName != "" {
		add("(p.first_name || ' ' || p.last_name) ILIKE '%%' || $%d || '%%'", q.PatientName)
	}
	if q.DoctorName != "" {
		add("d.full_name ILIKE '%%' || $%d || '%%'", q.DoctorName)
	}
	if q.Status != nil {
		add("a.status = $%d", *q.Status)
	}
	if q.From != nil {
		add("a.appointment_at >= $%d", *q.From)
	}
	if q.To != nil {
		add("a.appointment_at <= $%d", *q.To)
	}
	if q.CreatedFrom != nil {
		add("a.created_at >= $%d", *q.CreatedFrom)
	}
	if q.CreatedTo != nil {
		add("a.created_at <= $%d", *q.CreatedTo)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// orderClause maps the closed sort-field enum to a column, never
// interpolating caller input. Ties break on id so page boundaries are
// stable across repeated queries.
func orderClause(q *model.AppointmentQuery) string {
	column := "a.appointment_at"
	switch q.SortBy {
	case model.SortByPatientName:
		column = "patient_name"
	case model.SortByDoctorName:
		column = "doctor_name"
	}

	direction := "ASC"
	if q.SortDir == model.SortDesc {
		direction = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, a.id ASC", column, direction)
}
