package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
	apperrors "github.com/clinicore/clinic-api/pkg/errors"
)

type scheduleRepository struct {
	db *sqlx.DB
}

func NewScheduleRepository(db *sqlx.DB) repository.ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) Create(ctx context.Context, window *model.ScheduleWindow) error {
	query := `
		INSERT INTO doctor_schedules (
			id, doctor_id, day_of_week, start_minute, end_minute,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		window.ID,
		window.DoctorID,
		window.DayOfWeek,
		window.StartMinute,
		window.EndMinute,
		window.CreatedAt,
		window.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create schedule window: %w", err)
	}
	return nil
}

func (r *scheduleRepository) Get(ctx context.Context, id uuid.UUID) (*model.ScheduleWindow, error) {
	query := `
		SELECT id, doctor_id, day_of_week, start_minute, end_minute,
			   created_at, updated_at
		FROM doctor_schedules
		WHERE id = $1
	`
	var window model.ScheduleWindow
	err := r.db.GetContext(ctx, &window, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("schedule")
		}
		return nil, fmt.Errorf("failed to get schedule window: %w", err)
	}
	return &window, nil
}

func (r *scheduleRepository) Update(ctx context.Context, window *model.ScheduleWindow) error {
	query := `
		UPDATE doctor_schedules
		SET doctor_id = $1, day_of_week = $2, start_minute = $3,
			end_minute = $4, updated_at = $5
		WHERE id = $6
	`
	result, err := r.db.ExecContext(ctx, query,
		window.DoctorID,
		window.DayOfWeek,
		window.StartMinute,
		window.EndMinute,
		window.UpdatedAt,
		window.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update schedule window: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("schedule")
	}
	return nil
}

func (r *scheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM doctor_schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule window: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("schedule")
	}
	return nil
}

func (r *scheduleRepository) List(ctx context.Context) ([]*model.ScheduleWindow, error) {
	query := `
		SELECT id, doctor_id, day_of_week, start_minute, end_minute,
			   created_at, updated_at
		FROM doctor_schedules
		ORDER BY doctor_id, day_of_week, start_minute
	`
	var windows []*model.ScheduleWindow
	if err := r.db.SelectContext(ctx, &windows, query); err != nil {
		return nil, fmt.Errorf("failed to list schedule windows: %w", err)
	}
	return windows, nil
}

func (r *scheduleRepository) ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.ScheduleWindow, error) {
	query := `
		SELECT id, doctor_id, day_of_week, start_minute, end_minute,
			   created_at, updated_at
		FROM doctor_schedules
		WHERE doctor_id = $1
		ORDER BY day_of_week, start_minute
	`
	var windows []*model.ScheduleWindow
	if err := r.db.SelectContext(ctx, &windows, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list doctor schedule: %w", err)
	}
	return windows, nil
}

func (r *scheduleRepository) HasOverlap(ctx context.Context, doctorID uuid.UUID, day time.Weekday, startMinute, endMinute int, excludeID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM doctor_schedules
			WHERE doctor_id = $1
			AND day_of_week = $2
			AND start_minute < $4
			AND end_minute > $3
	`
	args := []interface{}{doctorID, day, startMinute, endMinute}

	if excludeID != nil {
		query += " AND id <> $5"
		args = append(args, *excludeID)
	}
	query += ")"

	var overlaps bool
	if err := r.db.GetContext(ctx, &overlaps, query, args...); err != nil {
		return false, fmt.Errorf("failed to check schedule overlap: %w", err)
	}
	return overlaps, nil
}
