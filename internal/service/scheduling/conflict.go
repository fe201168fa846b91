package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
)

// ConflictDetector answers whether a non-cancelled appointment already
// occupies a doctor's slot. Appointments are point bookings, so a
// conflict is exact equality of normalized instants; completed
// appointments still block the slot, cancelled ones do not.
type ConflictDetector struct {
	repo repository.AppointmentRepository
}

func NewConflictDetector(repo repository.AppointmentRepository) *ConflictDetector {
	return &ConflictDetector{repo: repo}
}

// HasConflict reports whether the slot is taken. excludeID removes one
// appointment from consideration so a reschedule never conflicts with
// itself.
func (d *ConflictDetector) HasConflict(ctx context.Context, doctorID uuid.UUID, at time.Time, excludeID *uuid.UUID) (bool, error) {
	return d.repo.ExistsConflict(ctx, doctorID, model.NormalizeInstant(at), excludeID)
}
