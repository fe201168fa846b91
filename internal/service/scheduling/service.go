package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
	"github.com/clinicore/clinic-api/internal/service/notification"
	apperrors "github.com/clinicore/clinic-api/pkg/errors"
	"github.com/clinicore/clinic-api/pkg/metrics"
)

// Config carries the scheduling policy knobs.
type Config struct {
	// EnforceFutureOnly rejects bookings whose instant is not strictly
	// after the request time.
	EnforceFutureOnly bool
	// Now is the clock used for "future" checks and record timestamps.
	Now func() time.Time
}

// Service owns appointment admission and the status state machine.
// Scheduled is the only state with outgoing transitions: cancel and
// complete are terminal, and every mutation goes through here.
type Service struct {
	appointments repository.AppointmentRepository
	patients     repository.PatientRepository
	doctors      repository.DoctorRepository
	validator    *ScheduleValidator
	conflicts    *ConflictDetector
	notifier     notification.Service
	metrics      *metrics.Metrics
	now          func() time.Time
	futureOnly   bool
}

func NewService(
	appointments repository.AppointmentRepository,
	patients repository.PatientRepository,
	doctors repository.DoctorRepository,
	validator *ScheduleValidator,
	conflicts *ConflictDetector,
	notifier notification.Service,
	m *metrics.Metrics,
	cfg Config,
) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		appointments: appointments,
		patients:     patients,
		doctors:      doctors,
		validator:    validator,
		conflicts:    conflicts,
		notifier:     notifier,
		metrics:      m,
		now:          now,
		futureOnly:   cfg.EnforceFutureOnly,
	}
}

// Create admits a new appointment. Preconditions run in a fixed order
// and the first violation wins: patient exists, doctor exists, instant
// is in the future (when enforced), instant is within the doctor's
// weekly schedule, slot is free.
func (s *Service) Create(ctx context.Context, req *model.CreateAppointmentRequest) (*model.AppointmentDetail, error) {
	at := model.NormalizeInstant(req.AppointmentAt)

	exists, err := s.patients.Exists(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, s.reject("not_found", apperrors.NotFound("patient"))
	}

	exists, err = s.doctors.Exists(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, s.reject("not_found", apperrors.NotFound("doctor"))
	}

	if err := s.checkBookable(ctx, req.DoctorID, at, nil); err != nil {
		return nil, err
	}

	now := s.now()
	apt := &model.Appointment{
		ID:            uuid.New(),
		PatientID:     req.PatientID,
		DoctorID:      req.DoctorID,
		AppointmentAt: at,
		Description:   req.Description,
		Status:        model.AppointmentStatusScheduled,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.appointments.Insert(ctx, apt); err != nil {
		if appErr, ok := apperrors.As(err); ok && appErr.Code == apperrors.ErrConflict {
			return nil, s.reject("conflict", err)
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AppointmentsCreated.Inc()
	}

	detail, err := s.appointments.GetDetail(ctx, apt.ID)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, detail, true)
	return detail, nil
}

// Reschedule moves a Scheduled appointment to a new doctor/instant.
// The appointment itself is excluded from the conflict check so moving
// to its own current slot succeeds.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, req *model.RescheduleAppointmentRequest) (*model.AppointmentDetail, error) {
	apt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if apt.Status != model.AppointmentStatusScheduled {
		return nil, s.reject("invalid_state", apperrors.InvalidState("only scheduled appointments can be rescheduled"))
	}

	exists, err := s.doctors.Exists(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, s.reject("not_found", apperrors.NotFound("doctor"))
	}

	at := model.NormalizeInstant(req.AppointmentAt)
	if err := s.checkBookable(ctx, req.DoctorID, at, &id); err != nil {
		return nil, err
	}

	apt.DoctorID = req.DoctorID
	apt.AppointmentAt = at
	apt.Description = req.Description
	apt.UpdatedAt = s.now()
	if err := s.appointments.Save(ctx, apt); err != nil {
		if appErr, ok := apperrors.As(err); ok && appErr.Code == apperrors.ErrConflict {
			return nil, s.reject("conflict", err)
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AppointmentsRescheduled.Inc()
	}
	return s.appointments.GetDetail(ctx, id)
}

// Cancel transitions Scheduled -> Cancelled. Cancelling a terminal
// appointment fails with InvalidState rather than no-opping, to
// surface caller bugs.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	if err := s.transition(ctx, id, model.AppointmentStatusCancelled); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.AppointmentsCancelled.Inc()
	}
	if detail, err := s.appointments.GetDetail(ctx, id); err == nil {
		s.notify(ctx, detail, false)
	}
	return nil
}

// Complete transitions Scheduled -> Completed, with the same terminal
// handling as Cancel.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) error {
	if err := s.transition(ctx, id, model.AppointmentStatusCompleted); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.AppointmentsCompleted.Inc()
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.AppointmentDetail, error) {
	return s.appointments.GetDetail(ctx, id)
}

func (s *Service) ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.AppointmentDetail, error) {
	return s.appointments.ListForDoctor(ctx, doctorID)
}

// checkBookable runs the shared future/schedule/conflict checks for
// create and reschedule. at must already be normalized.
func (s *Service) checkBookable(ctx context.Context, doctorID uuid.UUID, at time.Time, excludeID *uuid.UUID) error {
	if s.futureOnly && !at.After(model.NormalizeInstant(s.now())) {
		return s.reject("past_instant", apperrors.Validation("appointment time must be in the future"))
	}

	within, err := s.validator.IsWithinSchedule(ctx, doctorID, at)
	if err != nil {
		return err
	}
	if !within {
		return s.reject("outside_schedule", apperrors.OutsideSchedule("appointment time is not within the doctor's schedule"))
	}

	conflict, err := s.conflicts.HasConflict(ctx, doctorID, at, excludeID)
	if err != nil {
		return err
	}
	if conflict {
		return s.reject("conflict", apperrors.Conflict("doctor already has an appointment at this time"))
	}
	return nil
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, to model.AppointmentStatus) error {
	apt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return err
	}
	if apt.Status != model.AppointmentStatusScheduled {
		return s.reject("invalid_state", apperrors.InvalidState("appointment is already "+string(apt.Status)))
	}

	apt.Status = to
	apt.UpdatedAt = s.now()
	return s.appointments.Save(ctx, apt)
}

func (s *Service) reject(reason string, err error) error {
	if s.metrics != nil {
		s.metrics.SchedulingRejections.WithLabelValues(reason).Inc()
	}
	return err
}

// notify is best-effort; a failed notification never fails the booking.
func (s *Service) notify(ctx context.Context, detail *model.AppointmentDetail, booked bool) {
	if s.notifier == nil {
		return
	}

	var err error
	if booked {
		err = s.notifier.AppointmentBooked(ctx, detail)
	} else {
		err = s.notifier.AppointmentCancelled(ctx, detail)
	}
	if err != nil {
		log.Warn().Err(err).
			Str("appointment_id", detail.ID.String()).
			Msg("failed to send appointment notification")
	}
}
