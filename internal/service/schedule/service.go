package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
	apperrors "github.com/clinicore/clinic-api/pkg/errors"
)

// Invalidator is notified when a doctor's windows change so cached
// copies don't serve stale availability.
type Invalidator interface {
	Invalidate(doctorID uuid.UUID)
}

// Service manages doctors' weekly availability windows.
type Service struct {
	repo    repository.ScheduleRepository
	doctors repository.DoctorRepository
	inval   Invalidator
}

func NewService(repo repository.ScheduleRepository, doctors repository.DoctorRepository, inval Invalidator) *Service {
	return &Service{repo: repo, doctors: doctors, inval: inval}
}

func (s *Service) Create(ctx context.Context, req *model.CreateScheduleRequest) (*model.ScheduleWindow, error) {
	start, end, err := parseWindow(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	exists, err := s.doctors.Exists(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.NotFound("doctor")
	}

	day := time.Weekday(req.DayOfWeek)
	overlaps, err := s.repo.HasOverlap(ctx, req.DoctorID, day, start, end, nil)
	if err != nil {
		return nil, err
	}
	if overlaps {
		return nil, apperrors.Validation("schedule overlaps an existing window for this day")
	}

	now := time.Now().UTC()
	window := &model.ScheduleWindow{
		ID:          uuid.New(),
		DoctorID:    req.DoctorID,
		DayOfWeek:   day,
		StartMinute: start,
		EndMinute:   end,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, window); err != nil {
		return nil, err
	}

	s.invalidate(req.DoctorID)
	return window, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateScheduleRequest) (*model.ScheduleWindow, error) {
	window, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	start, end, err := parseWindow(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	exists, err := s.doctors.Exists(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.NotFound("doctor")
	}

	day := time.Weekday(req.DayOfWeek)
	overlaps, err := s.repo.HasOverlap(ctx, req.DoctorID, day, start, end, &id)
	if err != nil {
		return nil, err
	}
	if overlaps {
		return nil, apperrors.Validation("schedule overlaps an existing window for this day")
	}

	previousDoctor := window.DoctorID
	window.DoctorID = req.DoctorID
	window.DayOfWeek = day
	window.StartMinute = start
	window.EndMinute = end
	window.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, window); err != nil {
		return nil, err
	}

	s.invalidate(previousDoctor)
	if req.DoctorID != previousDoctor {
		s.invalidate(req.DoctorID)
	}
	return window, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	window, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(window.DoctorID)
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.ScheduleWindow, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*model.ScheduleWindow, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.ScheduleWindow, error) {
	exists, err := s.doctors.Exists(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.NotFound("doctor")
	}
	return s.repo.ListForDoctor(ctx, doctorID)
}

func (s *Service) invalidate(doctorID uuid.UUID) {
	if s.inval != nil {
		s.inval.Invalidate(doctorID)
	}
}

func parseWindow(startTime, endTime string) (int, int, error) {
	start, err := model.ParseClock(startTime)
	if err != nil {
		return 0, 0, apperrors.Validation("start_time must be a valid HH:MM clock time")
	}
	end, err := model.ParseClock(endTime)
	if err != nil {
		return 0, 0, apperrors.Validation("end_time must be a valid HH:MM clock time")
	}
	if start >= end {
		return 0, 0, apperrors.Validation("start_time must be earlier than end_time")
	}
	return start, end, nil
}
