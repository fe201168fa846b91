package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ScheduleWindow is a doctor's recurring weekly availability interval.
// Times are minutes since midnight with half-open [start, end)
// semantics; there is no date component.
type ScheduleWindow struct {
	ID          uuid.UUID    `db:"id" json:"id"`
	DoctorID    uuid.UUID    `db:"doctor_id" json:"doctor_id"`
	DayOfWeek   time.Weekday `db:"day_of_week" json:"day_of_week"`
	StartMinute int          `db:"start_minute" json:"start_minute"`
	EndMinute   int          `db:"end_minute" json:"end_minute"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// Contains reports whether a minute-of-day falls inside the window.
// The end boundary is excluded.
func (w *ScheduleWindow) Contains(minuteOfDay int) bool {
	return minuteOfDay >= w.StartMinute && minuteOfDay < w.EndMinute
}

// MinuteOfDay returns the minute offset from midnight of t in t's own
// location. Callers must normalize t first.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// ParseClock parses a "15:04" clock string into minutes since midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes since midnight as "15:04".
func FormatClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

type CreateScheduleRequest struct {
	DoctorID  uuid.UUID `json:"doctor_id" binding:"required"`
	DayOfWeek int       `json:"day_of_week" binding:"min=0,max=6"`
	StartTime string    `json:"start_time" binding:"required"`
	EndTime   string    `json:"end_time" binding:"required"`
}

type UpdateScheduleRequest struct {
	DoctorID  uuid.UUID `json:"doctor_id" binding:"required"`
	DayOfWeek int       `json:"day_of_week" binding:"min=0,max=6"`
	StartTime string    `json:"start_time" binding:"required"`
	EndTime   string    `json:"end_time" binding:"required"`
}
