package scheduling

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/clinic-api/internal/model"
	apperrors "github.com/clinicore/clinic-api/pkg/errors"
)

// fakeAppointmentRepo is an in-memory AppointmentRepository with the
// same conflict semantics as the postgres implementation.
type fakeAppointmentRepo struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]*model.Appointment
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: make(map[uuid.UUID]*model.Appointment)}
}

func (r *fakeAppointmentRepo) Insert(_ context.Context, apt *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.appointments {
		if existing.DoctorID == apt.DoctorID &&
			existing.AppointmentAt.Equal(apt.AppointmentAt) &&
			existing.Status != model.AppointmentStatusCancelled {
			return apperrors.Conflict("doctor already has an appointment at this time")
		}
	}
	clone := *apt
	r.appointments[apt.ID] = &clone
	return nil
}

func (r *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	apt, ok := r.appointments[id]
	if !ok {
		return nil, apperrors.NotFound("appointment")
	}
	clone := *apt
	return &clone, nil
}

func (r *fakeAppointmentRepo) GetDetail(ctx context.Context, id uuid.UUID) (*model.AppointmentDetail, error) {
	apt, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.AppointmentDetail{
		Appointment: *apt,
		PatientName: "Jane Roe",
		DoctorName:  "Dr. Smith",
	}, nil
}

func (r *fakeAppointmentRepo) Save(_ context.Context, apt *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appointments[apt.ID]; !ok {
		return apperrors.NotFound("appointment")
	}
	for _, existing := range r.appointments {
		if existing.ID != apt.ID &&
			existing.DoctorID == apt.DoctorID &&
			existing.AppointmentAt.Equal(apt.AppointmentAt) &&
			existing.Status != model.AppointmentStatusCancelled &&
			apt.Status != model.AppointmentStatusCancelled {
			return apperrors.Conflict("doctor already has an appointment at this time")
		}
	}
	clone := *apt
	r.appointments[apt.ID] = &clone
	return nil
}

func (r *fakeAppointmentRepo) ListForDoctor(_ context.Context, doctorID uuid.UUID) ([]*model.AppointmentDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.AppointmentDetail
	for _, apt := range r.appointments {
		if apt.DoctorID == doctorID {
			out = append(out, &model.AppointmentDetail{Appointment: *apt})
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) ExistsConflict(_ context.Context, doctorID uuid.UUID, at time.Time, excludeID *uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, apt := range r.appointments {
		if excludeID != nil && apt.ID == *excludeID {
			continue
		}
		if apt.DoctorID == doctorID &&
			apt.AppointmentAt.Equal(at) &&
			apt.Status != model.AppointmentStatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAppointmentRepo) Query(_ context.Context, _ *model.AppointmentQuery) ([]*model.AppointmentDetail, int64, error) {
	return nil, 0, nil
}

type fakePatientRepo struct {
	ids map[uuid.UUID]bool
}

func (r *fakePatientRepo) Create(context.Context, *model.Patient) error { return nil }
func (r *fakePatientRepo) Get(context.Context, uuid.UUID) (*model.Patient, error) {
	return nil, apperrors.NotFound("patient")
}
func (r *fakePatientRepo) Update(context.Context, *model.Patient) error { return nil }
func (r *fakePatientRepo) List(context.Context) ([]*model.Patient, error) { return nil, nil }
func (r *fakePatientRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return r.ids[id], nil
}

type fakeDoctorRepo struct {
	ids map[uuid.UUID]bool
}

func (r *fakeDoctorRepo) Create(context.Context, *model.Doctor) error { return nil }
func (r *fakeDoctorRepo) Get(context.Context, uuid.UUID) (*model.Doctor, error) {
	return nil, apperrors.NotFound("doctor")
}
func (r *fakeDoctorRepo) GetByEmail(context.Context, string) (*model.Doctor, error) {
	return nil, apperrors.NotFound("doctor")
}
func (r *fakeDoctorRepo) Update(context.Context, *model.Doctor) error { return nil }
func (r *fakeDoctorRepo) Delete(context.Context, uuid.UUID) error { return nil }
func (r *fakeDoctorRepo) List(context.Context) ([]*model.Doctor, error) { return nil, nil }
func (r *fakeDoctorRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return r.ids[id], nil
}

type fakeScheduleRepo struct {
	windows []*model.ScheduleWindow
}

func (r *fakeScheduleRepo) Create(context.Context, *model.ScheduleWindow) error { return nil }
func (r *fakeScheduleRepo) Get(context.Context, uuid.UUID) (*model.ScheduleWindow, error) {
	return nil, apperrors.NotFound("schedule")
}
func (r *fakeScheduleRepo) Update(context.Context, *model.ScheduleWindow) error { return nil }
func (r *fakeScheduleRepo) Delete(context.Context, uuid.UUID) error { return nil }
func (r *fakeScheduleRepo) List(context.Context) ([]*model.ScheduleWindow, error) {
	return r.windows, nil
}
func (r *fakeScheduleRepo) ListForDoctor(_ context.Context, doctorID uuid.UUID) ([]*model.ScheduleWindow, error) {
	var out []*model.ScheduleWindow
	for _, w := range r.windows {
		if w.DoctorID == doctorID {
			out = append(out, w)
		}
	}
	return out, nil
}
func (r *fakeScheduleRepo) HasOverlap(context.Context, uuid.UUID, time.Weekday, int, int, *uuid.UUID) (bool, error) {
	return false, nil
}

type fixture struct {
	svc          *Service
	appointments *fakeAppointmentRepo
	patientID    uuid.UUID
	doctorID     uuid.UUID
}

// testNow is a Monday. The doctor works Mondays 09:00 to 12:00 UTC.
var testNow = time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	patientID := uuid.New()
	doctorID := uuid.New()

	appointments := newFakeAppointmentRepo()
	schedules := &fakeScheduleRepo{windows: []*model.ScheduleWindow{{
		ID:          uuid.New(),
		DoctorID:    doctorID,
		DayOfWeek:   time.Monday,
		StartMinute: 9 * 60,
		EndMinute:   12 * 60,
	}}}

	svc := NewService(
		appointments,
		&fakePatientRepo{ids: map[uuid.UUID]bool{patientID: true}},
		&fakeDoctorRepo{ids: map[uuid.UUID]bool{doctorID: true}},
		NewScheduleValidator(schedules, time.Minute),
		NewConflictDetector(appointments),
		nil,
		nil,
		Config{EnforceFutureOnly: true, Now: func() time.Time { return testNow }},
	)

	return &fixture{
		svc:          svc,
		appointments: appointments,
		patientID:    patientID,
		doctorID:     doctorID,
	}
}

func (f *fixture) book(t *testing.T, at time.Time) *model.AppointmentDetail {
	t.Helper()
	detail, err := f.svc.Create(context.Background(), &model.CreateAppointmentRequest{
		PatientID:     f.patientID,
		DoctorID:      f.doctorID,
		AppointmentAt: at,
		Description:   "checkup",
	})
	require.NoError(t, err)
	return detail
}

func assertCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok, "expected an application error, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func TestCreateWithinSchedule(t *testing.T) {
	f := newFixture(t)

	detail := f.book(t, time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC))

	assert.Equal(t, model.AppointmentStatusScheduled, detail.Status)
	assert.Equal(t, f.doctorID, detail.DoctorID)
	assert.Equal(t, time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC), detail.AppointmentAt)
}

func TestCreateNormalizesInstant(t *testing.T) {
	f := newFixture(t)

	// 11:30:45.5 +01:00 is 10:30 UTC once normalized.
	loc := time.FixedZone("CET", 3600)
	detail := f.book(t, time.Date(2026, 1, 5, 11, 30, 45, 500, loc))

	assert.Equal(t, time.Date(2026, 1, 5, 10, 30, 0, 0, time.UTC), detail.AppointmentAt)
}

func TestScheduleWindowBoundaries(t *testing.T) {
	f := newFixture(t)

	// Start is inclusive.
	f.book(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	// End is exclusive.
	_, err := f.svc.Create(context.Background(), &model.CreateAppointmentRequest{
		PatientID:     f.patientID,
		DoctorID:      f.doctorID,
		AppointmentAt: time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC),
	})
	assertCode(t, err, apperrors.ErrOutsideSchedule)

	// Last minute before the end is fine.
	f.book(t, time.Date(2026, 1, 5, 11, 59, 0, 0, time.UTC))
}

func TestCreateOnDayWithoutWindow(t *testing.T) {
	f := newFixture(t)

	// Tuesday: no window, the doctor is simply unavailable.
	_, err := f.svc.Create(context.Background(), &model.CreateAppointmentRequest{
		PatientID:     f.patientID,
		DoctorID:      f.doctorID,
		AppointmentAt: time.Date(2026, 1, 6, 10, 0, 0, 0, time.UTC),
	})
	assertCode(t, err, apperrors.ErrOutsideSchedule)
}

func TestCreateConflictOnTakenSlot(t *testing.T) {
	f := newFixture(t)
	at := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

	f.book(t, at)

	_, err := f.svc.Create(context.Background(), &model.CreateAppointmentRequest{
		PatientID:     f.patientID,
		DoctorID:      f.doctorID,
		AppointmentAt: at,
	})
	assertCode(t, err, apperrors.ErrConflict)

	// Sub-minute differences collapse to the same slot.
	_, err = f.svc.Create(context.Background(), &model.CreateAppointmentRequest{
		PatientID:     f.patientID,
		DoctorID:      f.doctorID,
		AppointmentAt: at.Add(30 * time.Second),
	})
	assertCode(t, err, apperrors.ErrConflict)
}

func TestCancelledSlotDoesNotBlock(t *testing.T) {
	f := newFixture(t)
	at := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

	first := f.book(t, at)
	require.NoError(t, f.svc.Cancel(context.Background(), first.ID))

	// The slot is free again.
	f.book(t, at)
}

func TestCompletedSlotStillBlocks(t *testing.T) {
	f := newFixture(t)
	at := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

	first := f.book(t, at)
	require.NoError(t, f.svc.Complete(context.Background(), first.ID))

	_, err := f.svc.Create(context.Background(), &model.CreateAppointmentRequest{
		PatientID:     f.patientID,
		DoctorID:      f.doctorID,
		AppointmentAt: at,
	})
	assertCode(t, err, apperrors.ErrConflict)
}

func TestCreateRejectsPastInstant(t *testing.T) {
	f := newFixture(t)

	// A Monday inside the window, one week before "now".
	_, err := f.svc.Create(context.Background(), &model.CreateAppointmentRequest{
		PatientID:     f.patientID,
		DoctorID:      f.doctorID,
		AppointmentAt: time.Date(2025, 12, 29, 10, 0, 0, 0, time.UTC),
	})
	assertCode(t, err, apperrors.ErrValidation)
}

func TestCreateUnknownPatientOrDoctor(t *testing.T) {
	f := newFixture(t)
	at := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

	_, err := f.svc.Create(context.Background(), &model.CreateAppointmentRequest{
		PatientID:     uuid.New(),
		DoctorID:      f.doctorID,
		AppointmentAt: at,
	})
	assertCode(t, err, apperrors.ErrNotFound)

	_, err = f.svc.Create(context.Background(), &model.CreateAppointmentRequest{
		PatientID:     f.patientID,
		DoctorID:      uuid.New(),
		AppointmentAt: at,
	})
	assertCode(t, err, apperrors.ErrNotFound)
}

func TestRescheduleExcludesSelf(t *testing.T) {
	f := newFixture(t)
	at := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

	detail := f.book(t, at)

	// Moving an appointment onto its own slot is not a conflict.
	moved, err := f.svc.Reschedule(context.Background(), detail.ID, &model.RescheduleAppointmentRequest{
		DoctorID:      f.doctorID,
		AppointmentAt: at,
		Description:   "same slot",
	})
	require.NoError(t, err)
	assert.Equal(t, at, moved.AppointmentAt)
	assert.Equal(t, "same slot", moved.Description)
}

func TestRescheduleIntoTakenSlot(t *testing.T) {
	f := newFixture(t)

	f.book(t, time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC))
	second := f.book(t, time.Date(2026, 1, 5, 11, 0, 0, 0, time.UTC))

	_, err := f.svc.Reschedule(context.Background(), second.ID, &model.RescheduleAppointmentRequest{
		DoctorID:      f.doctorID,
		AppointmentAt: time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC),
	})
	assertCode(t, err, apperrors.ErrConflict)
}

func TestTerminalStatesRejectTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cancelled := f.book(t, time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC))
	require.NoError(t, f.svc.Cancel(ctx, cancelled.ID))

	assertCode(t, f.svc.Cancel(ctx, cancelled.ID), apperrors.ErrInvalidState)
	assertCode(t, f.svc.Complete(ctx, cancelled.ID), apperrors.ErrInvalidState)

	completed := f.book(t, time.Date(2026, 1, 5, 11, 0, 0, 0, time.UTC))
	require.NoError(t, f.svc.Complete(ctx, completed.ID))

	assertCode(t, f.svc.Cancel(ctx, completed.ID), apperrors.ErrInvalidState)
	assertCode(t, f.svc.Complete(ctx, completed.ID), apperrors.ErrInvalidState)

	_, err := f.svc.Reschedule(ctx, completed.ID, &model.RescheduleAppointmentRequest{
		DoctorID:      f.doctorID,
		AppointmentAt: time.Date(2026, 1, 5, 11, 30, 0, 0, time.UTC),
	})
	assertCode(t, err, apperrors.ErrInvalidState)
}

func TestCancelUnknownAppointment(t *testing.T) {
	f := newFixture(t)
	assertCode(t, f.svc.Cancel(context.Background(), uuid.New()), apperrors.ErrNotFound)
}
