package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeInstant(t *testing.T) {
	loc := time.FixedZone("CET", 3600)

	// Seconds and sub-second precision are dropped, zone becomes UTC.
	in := time.Date(2026, 1, 5, 11, 30, 45, 123456789, loc)
	assert.Equal(t, time.Date(2026, 1, 5, 10, 30, 0, 0, time.UTC), NormalizeInstant(in))

	// Already canonical input is a fixed point.
	canonical := time.Date(2026, 1, 5, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, canonical, NormalizeInstant(canonical))

	// Two representations of the same slot normalize equal.
	other := time.Date(2026, 1, 5, 11, 30, 59, 0, loc)
	assert.Equal(t, NormalizeInstant(in), NormalizeInstant(other))
}

func TestAppointmentStatus(t *testing.T) {
	assert.True(t, AppointmentStatusScheduled.Valid())
	assert.True(t, AppointmentStatusCompleted.Valid())
	assert.True(t, AppointmentStatusCancelled.Valid())
	assert.False(t, AppointmentStatus("pending").Valid())

	assert.False(t, AppointmentStatusScheduled.Terminal())
	assert.True(t, AppointmentStatusCompleted.Terminal())
	assert.True(t, AppointmentStatusCancelled.Terminal())
}
