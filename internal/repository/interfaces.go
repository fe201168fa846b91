package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/model"
)

// All repository interfaces in one file
type (
	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		GetByEmail(ctx context.Context, email string) (*model.Doctor, error)
		Update(ctx context.Context, doctor *model.Doctor) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.Doctor, error)
		Exists(ctx context.Context, id uuid.UUID) (bool, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		List(ctx context.Context) ([]*model.Patient, error)
		Exists(ctx context.Context, id uuid.UUID) (bool, error)
	}

	ScheduleRepository interface {
		Create(ctx context.Context, window *model.ScheduleWindow) error
		Get(ctx context.Context, id uuid.UUID) (*model.ScheduleWindow, error)
		Update(ctx context.Context, window *model.ScheduleWindow) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.ScheduleWindow, error)
		ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.ScheduleWindow, error)
		HasOverlap(ctx context.Context, doctorID uuid.UUID, day time.Weekday, startMinute, endMinute int, excludeID *uuid.UUID) (bool, error)
	}

	AppointmentRepository interface {
		Insert(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		GetDetail(ctx context.Context, id uuid.UUID) (*model.AppointmentDetail, error)
		Save(ctx context.Context, appointment *model.Appointment) error
		ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.AppointmentDetail, error)
		ExistsConflict(ctx context.Context, doctorID uuid.UUID, at time.Time, excludeID *uuid.UUID) (bool, error)
		Query(ctx context.Context, q *model.AppointmentQuery) ([]*model.AppointmentDetail, int64, error)
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		AssignRole(ctx context.Context, userID uuid.UUID, role string) error
		ListRoles(ctx context.Context, userID uuid.UUID) ([]string, error)
	}

	TokenRepository interface {
		StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Duration) error
		ValidateRefreshToken(ctx context.Context, token string) (uuid.UUID, error)
		RevokeRefreshToken(ctx context.Context, token string) error
	}
)
