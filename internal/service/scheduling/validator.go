package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
)

// ScheduleValidator decides whether an instant falls inside a doctor's
// recurring weekly availability. Windows rarely change, so lookups go
// through a short-lived in-process cache; administrative mutations call
// Invalidate.
type ScheduleValidator struct {
	repo  repository.ScheduleRepository
	cache *cache.Cache
}

func NewScheduleValidator(repo repository.ScheduleRepository, ttl time.Duration) *ScheduleValidator {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ScheduleValidator{
		repo:  repo,
		cache: cache.New(ttl, 2*ttl),
	}
}

// IsWithinSchedule reports whether the instant falls inside one of the
// doctor's windows for that day of week. The instant is normalized to
// UTC before the day-of-week and minute-of-day are derived, and the
// window end is exclusive. A doctor with no window on that day is
// simply unavailable; that is not an error.
func (v *ScheduleValidator) IsWithinSchedule(ctx context.Context, doctorID uuid.UUID, at time.Time) (bool, error) {
	at = model.NormalizeInstant(at)

	windows, err := v.windowsForDoctor(ctx, doctorID)
	if err != nil {
		return false, fmt.Errorf("failed to load doctor schedule: %w", err)
	}

	day := at.Weekday()
	minute := model.MinuteOfDay(at)
	for _, w := range windows {
		if w.DayOfWeek == day && w.Contains(minute) {
			return true, nil
		}
	}
	return false, nil
}

// Invalidate drops the cached windows for a doctor.
func (v *ScheduleValidator) Invalidate(doctorID uuid.UUID) {
	v.cache.Delete(doctorID.String())
}

func (v *ScheduleValidator) windowsForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.ScheduleWindow, error) {
	key := doctorID.String()
	if cached, found := v.cache.Get(key); found {
		return cached.([]*model.ScheduleWindow), nil
	}

	windows, err := v.repo.ListForDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	v.cache.Set(key, windows, cache.DefaultExpiration)
	return windows, nil
}
