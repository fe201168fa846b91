package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/clinic-api/internal/model"
)

func TestIsWithinScheduleNormalizesZone(t *testing.T) {
	doctorID := uuid.New()
	repo := &fakeScheduleRepo{windows: []*model.ScheduleWindow{{
		ID:          uuid.New(),
		DoctorID:    doctorID,
		DayOfWeek:   time.Monday,
		StartMinute: 540,
		EndMinute:   720,
	}}}
	v := NewScheduleValidator(repo, time.Minute)

	// Tuesday 00:30 +02:00 is Monday 22:30 UTC, outside the window.
	loc := time.FixedZone("EET", 2*3600)
	within, err := v.IsWithinSchedule(context.Background(), doctorID, time.Date(2026, 1, 6, 0, 30, 0, 0, loc))
	require.NoError(t, err)
	assert.False(t, within)

	// Monday 11:30 +02:00 is Monday 09:30 UTC, inside the window.
	within, err = v.IsWithinSchedule(context.Background(), doctorID, time.Date(2026, 1, 5, 11, 30, 0, 0, loc))
	require.NoError(t, err)
	assert.True(t, within)
}

func TestValidatorCacheInvalidation(t *testing.T) {
	doctorID := uuid.New()
	repo := &fakeScheduleRepo{windows: []*model.ScheduleWindow{{
		ID:          uuid.New(),
		DoctorID:    doctorID,
		DayOfWeek:   time.Monday,
		StartMinute: 540,
		EndMinute:   720,
	}}}
	v := NewScheduleValidator(repo, time.Hour)

	at := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	within, err := v.IsWithinSchedule(context.Background(), doctorID, at)
	require.NoError(t, err)
	require.True(t, within)

	// The window goes away but the cached copy still answers.
	repo.windows = nil
	within, err = v.IsWithinSchedule(context.Background(), doctorID, at)
	require.NoError(t, err)
	assert.True(t, within)

	// Invalidation forces a reload.
	v.Invalidate(doctorID)
	within, err = v.IsWithinSchedule(context.Background(), doctorID, at)
	require.NoError(t, err)
	assert.False(t, within)
}

func TestNoWindowsMeansUnavailable(t *testing.T) {
	v := NewScheduleValidator(&fakeScheduleRepo{}, time.Minute)

	within, err := v.IsWithinSchedule(context.Background(), uuid.New(), time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, within)
}
