package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rpmweb/rpm-api/internal/hooks"
	"github.com/rpmweb/rpm-api/internal/model"
	"github.com/rpmweb/rpm-api/internal/repository"
	"github.com/rpmweb/rpm-api/internal/repository/mocks"
	"github.com/rpmweb/rpm-api/pkg/errors"
	"github.com/rpmweb/rpm-api/pkg/logger"
	"github.com/rpmweb/rpm-api/pkg/metrics"
)

type recordingNotifier struct {
	sent   []*model.Notification
	failOn map[uuid.UUID]error
}

func (r *recordingNotifier) Notify(_ context.Context, n *model.Notification) error {
	if err := r.failOn[n.UserID]; err != nil {
		return err
	}
	r.sent = append(r.sent, n)
	return nil
}

type fixture struct {
	svc      *Service
	repo     *mocks.AppointmentRepository
	patients *mocks.PatientRepository
	doctors  *mocks.DoctorRepository
	notifier *recordingNotifier
	metrics  *metrics.Metrics
	patient  *model.Patient
	doctor   *model.Doctor
	start    time.Time
}

func setup() *fixture {
	f := &fixture{
		repo:     &mocks.AppointmentRepository{},
		patients: &mocks.PatientRepository{},
		doctors:  &mocks.DoctorRepository{},
		notifier: &recordingNotifier{},
		patient:  &model.Patient{Base: model.Base{ID: uuid.New()}, UserID: uuid.New(), Name: "Pat"},
		doctor:   &model.Doctor{Base: model.Base{ID: uuid.New()}, UserID: uuid.New(), Name: "Dr. Who"},
		start:    time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC),
	}
	f.metrics = metrics.New("appointment_test")
	runner := hooks.NewRunner(logger.Nop(), f.metrics, time.Second)
	f.svc = NewService(f.repo, f.patients, f.doctors, f.notifier, runner)
	f.patients.On("GetByID", mock.Anything, f.patient.ID).Return(f.patient, nil)
	f.doctors.On("GetByID", mock.Anything, f.doctor.ID).Return(f.doctor, nil)
	return f
}

func (f *fixture) request() *model.CreateAppointmentRequest {
	return &model.CreateAppointmentRequest{
		PatientID:   f.patient.ID,
		DoctorID:    f.doctor.ID,
		ScheduledAt: f.start,
		EndTime:     f.start.Add(30 * time.Minute),
	}
}

func (f *fixture) appointment(status model.AppointmentStatus) *model.Appointment {
	return &model.Appointment{
		Base:          model.Base{ID: uuid.New()},
		PatientID:     f.patient.ID,
		DoctorID:      f.doctor.ID,
		ScheduledAt:   f.start,
		EndTime:       f.start.Add(30 * time.Minute),
		Status:        status,
		PatientUserID: f.patient.UserID,
		DoctorUserID:  f.doctor.UserID,
		DoctorName:    f.doctor.Name,
	}
}

func TestCreateNotifiesBothParties(t *testing.T) {
	ctx := context.Background()
	f := setup()
	f.repo.On("Create", ctx, mock.AnythingOfType("*model.Appointment")).Return(nil)

	a, err := f.svc.Create(ctx, &model.User{Base: model.Base{ID: f.patient.UserID}, Role: model.RolePatient}, f.request())
	require.NoError(t, err)
	assert.Equal(t, f.patient.UserID, a.UserID)

	require.Len(t, f.notifier.sent, 2)
	assert.Equal(t, f.patient.UserID, f.notifier.sent[0].UserID)
	assert.Equal(t, "Upcoming Appointment Reminder", f.notifier.sent[0].Title)
	assert.Equal(t, f.doctor.UserID, f.notifier.sent[1].UserID)
}

func TestCreateOverlapConflicts(t *testing.T) {
	ctx := context.Background()
	f := setup()
	f.repo.On("Create", ctx, mock.Anything).Return(repository.ErrConflict)

	_, err := f.svc.Create(ctx, &model.User{Role: model.RoleAdmin}, f.request())
	require.True(t, errors.Is(err, errors.ErrConflict))
	assert.Empty(t, f.notifier.sent)
}

func TestCreateRejectsInvertedInterval(t *testing.T) {
	f := setup()
	req := f.request()
	req.EndTime = req.ScheduledAt
	_, err := f.svc.Create(context.Background(), &model.User{Role: model.RoleAdmin}, req)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
}

func TestCreateForAnotherPatientForbidden(t *testing.T) {
	f := setup()
	_, err := f.svc.Create(context.Background(), &model.User{Base: model.Base{ID: uuid.New()}, Role: model.RoleUser}, f.request())
	assert.True(t, errors.Is(err, errors.ErrForbidden))
}

func TestUpdateMovingSlotChecksConflicts(t *testing.T) {
	ctx := context.Background()
	f := setup()
	a := f.appointment(model.AppointmentStatusScheduled)
	f.repo.On("GetByID", ctx, a.ID).Return(a, nil)
	f.repo.On("Update", ctx, a, true).Return(repository.ErrConflict)

	later := f.start.Add(time.Hour)
	end := later.Add(30 * time.Minute)
	_, err := f.svc.Update(ctx, &model.User{Base: model.Base{ID: f.doctor.UserID}, Role: model.RoleDoctor}, a.ID, &model.UpdateAppointmentRequest{ScheduledAt: &later, EndTime: &end})
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestUpdateReactivatingChecksConflicts(t *testing.T) {
	ctx := context.Background()

	for _, prev := range []model.AppointmentStatus{
		model.AppointmentStatusCancelled,
		model.AppointmentStatusCompleted,
		model.AppointmentStatusNoShow,
	} {
		t.Run(string(prev), func(t *testing.T) {
			f := setup()
			doctor := &model.User{Base: model.Base{ID: f.doctor.UserID}, Role: model.RoleDoctor}
			a := f.appointment(prev)
			f.repo.On("GetByID", ctx, a.ID).Return(a, nil)
			f.repo.On("Update", ctx, a, true).Return(repository.ErrConflict)

			status := model.AppointmentStatusScheduled
			_, err := f.svc.Update(ctx, doctor, a.ID, &model.UpdateAppointmentRequest{Status: &status})

			assert.True(t, errors.Is(err, errors.ErrConflict))
			f.repo.AssertExpectations(t)
		})
	}
}

func TestUpdateCancelledSlotSkipsConflicts(t *testing.T) {
	ctx := context.Background()
	f := setup()
	a := f.appointment(model.AppointmentStatusCancelled)
	f.repo.On("GetByID", ctx, a.ID).Return(a, nil)
	f.repo.On("Update", ctx, a, false).Return(nil)

	later := f.start.Add(time.Hour)
	end := later.Add(30 * time.Minute)
	_, err := f.svc.Update(ctx, &model.User{Base: model.Base{ID: f.doctor.UserID}, Role: model.RoleDoctor}, a.ID, &model.UpdateAppointmentRequest{ScheduledAt: &later, EndTime: &end})

	require.NoError(t, err)
	f.repo.AssertExpectations(t)
}

func TestCancellationHookFailuresNameRecipient(t *testing.T) {
	ctx := context.Background()
	f := setup()
	f.notifier.failOn = map[uuid.UUID]error{f.doctor.UserID: assert.AnError}
	a := f.appointment(model.AppointmentStatusScheduled)
	f.repo.On("GetByID", ctx, a.ID).Return(a, nil)
	f.repo.On("Update", ctx, a, false).Return(nil)

	status := model.AppointmentStatusCancelled
	_, err := f.svc.Update(ctx, &model.User{Base: model.Base{ID: f.patient.UserID}, Role: model.RolePatient}, a.ID, &model.UpdateAppointmentRequest{Status: &status})

	require.NoError(t, err)
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, f.patient.UserID, f.notifier.sent[0].UserID)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.HookFailures.WithLabelValues("notify.appointment_cancelled_doctor")))
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.HookFailures.WithLabelValues("notify.appointment_cancelled_patient")))
}

func TestUpdateStatusNotifications(t *testing.T) {
	ctx := context.Background()

	t.Run("confirmed", func(t *testing.T) {
		f := setup()
		a := f.appointment(model.AppointmentStatusScheduled)
		f.repo.On("GetByID", ctx, a.ID).Return(a, nil)
		f.repo.On("Update", ctx, a, false).Return(nil)

		status := model.AppointmentStatusConfirmed
		_, err := f.svc.Update(ctx, &model.User{Base: model.Base{ID: f.doctor.UserID}, Role: model.RoleDoctor}, a.ID, &model.UpdateAppointmentRequest{Status: &status})
		require.NoError(t, err)
		require.Len(t, f.notifier.sent, 1)
		assert.Equal(t, f.patient.UserID, f.notifier.sent[0].UserID)
		assert.Equal(t, "Appointment Confirmed", f.notifier.sent[0].Title)
	})

	t.Run("cancelled", func(t *testing.T) {
		f := setup()
		a := f.appointment(model.AppointmentStatusConfirmed)
		f.repo.On("GetByID", ctx, a.ID).Return(a, nil)
		f.repo.On("Update", ctx, a, false).Return(nil)

		status := model.AppointmentStatusCancelled
		_, err := f.svc.Update(ctx, &model.User{Base: model.Base{ID: f.patient.UserID}, Role: model.RolePatient}, a.ID, &model.UpdateAppointmentRequest{Status: &status})
		require.NoError(t, err)
		require.Len(t, f.notifier.sent, 2)
		assert.ElementsMatch(t, []uuid.UUID{f.patient.UserID, f.doctor.UserID},
			[]uuid.UUID{f.notifier.sent[0].UserID, f.notifier.sent[1].UserID})
	})
}

func TestUpdateByOutsiderForbidden(t *testing.T) {
	ctx := context.Background()
	f := setup()
	a := f.appointment(model.AppointmentStatusScheduled)
	f.repo.On("GetByID", ctx, a.ID).Return(a, nil)

	_, err := f.svc.Update(ctx, &model.User{Base: model.Base{ID: uuid.New()}, Role: model.RoleDoctor}, a.ID, &model.UpdateAppointmentRequest{})
	assert.True(t, errors.Is(err, errors.ErrForbidden))
}

func TestDeletePermissions(t *testing.T) {
	ctx := context.Background()
	f := setup()
	a := f.appointment(model.AppointmentStatusScheduled)
	f.repo.On("GetByID", ctx, a.ID).Return(a, nil)
	f.repo.On("Delete", ctx, a.ID).Return(nil)

	err := f.svc.Delete(ctx, &model.User{Base: model.Base{ID: f.patient.UserID}, Role: model.RolePatient}, a.ID)
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	require.NoError(t, f.svc.Delete(ctx, &model.User{Base: model.Base{ID: f.doctor.UserID}, Role: model.RoleDoctor}, a.ID))
}
