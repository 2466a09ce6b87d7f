package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpmweb/rpm-api/internal/model"
	"github.com/rpmweb/rpm-api/internal/repository"
)

func setupTestBase(t *testing.T) (*BaseRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewBaseRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestUserRepository_GetByIDNotFound(t *testing.T) {
	base, mock := setupTestBase(t)
	repo := NewUserRepository(base)
	id := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id = \\$1").
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateDuplicateWallet(t *testing.T) {
	base, mock := setupTestBase(t)
	repo := NewUserRepository(base)
	wallet := "0xAbC0000000000000000000000000000000000001"

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &model.User{Name: "Dana", WalletAddress: &wallet, Role: model.RoleUser})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByWalletNormalizes(t *testing.T) {
	base, mock := setupTestBase(t)
	repo := NewUserRepository(base)
	id := uuid.New()
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "firebase_uid", "clerk_id", "name", "email", "wallet_address", "role", "created_at", "updated_at",
	}).AddRow(id.String(), nil, nil, "User-0xabc0", nil, "0xabc0", "USER", now, now)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE wallet_address = \\$1").
		WithArgs("0xabc0").
		WillReturnRows(rows)

	user, err := repo.GetByWallet(context.Background(), " 0xABC0 ")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectionRepository_UpdateStatus(t *testing.T) {
	code := "abc123"

	t.Run("applies when status unchanged", func(t *testing.T) {
		base, mock := setupTestBase(t)
		repo := NewConnectionRepository(base)
		conn := &model.Connection{Status: model.ConnectionActive, ConnectionCode: &code}
		conn.ID = uuid.New()

		mock.ExpectExec("UPDATE patient_doctors").
			WithArgs(model.ConnectionActive, code, sqlmock.AnyArg(), conn.ID, model.ConnectionPending).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.UpdateStatus(context.Background(), conn, model.ConnectionPending))
		assert.False(t, conn.UpdatedAt.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale when another request won", func(t *testing.T) {
		base, mock := setupTestBase(t)
		repo := NewConnectionRepository(base)
		conn := &model.Connection{Status: model.ConnectionRevoked}
		conn.ID = uuid.New()

		mock.ExpectExec("UPDATE patient_doctors").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateStatus(context.Background(), conn, model.ConnectionPending)
		assert.ErrorIs(t, err, repository.ErrStaleState)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestConnectionRepository_ListByDoctorWithStatus(t *testing.T) {
	base, mock := setupTestBase(t)
	repo := NewConnectionRepository(base)
	doctorID := uuid.New()
	active := model.ConnectionActive

	mock.ExpectQuery("FROM patient_doctors c (.+) WHERE c.doctor_id = \\$1 AND c.status = \\$2").
		WithArgs(doctorID, active).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	conns, err := repo.ListByDoctor(context.Background(), doctorID, &active)
	require.NoError(t, err)
	assert.Empty(t, conns)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthReadingRepository_CreateBatch(t *testing.T) {
	patient := uuid.New()
	newBatch := func() []*model.HealthReading {
		return []*model.HealthReading{
			{PatientID: patient, Type: model.ReadingHeartRate, Value: 72, Unit: "BPM"},
			{PatientID: patient, Type: model.ReadingBloodOxygen, Value: 98, Unit: "%"},
			{PatientID: patient, Type: model.ReadingTemperature, Value: 37, Unit: "°C"},
			{PatientID: patient, Type: model.ReadingBloodPressureSystolic, Value: 120, Unit: "mmHg"},
		}
	}

	t.Run("commits every row", func(t *testing.T) {
		base, mock := setupTestBase(t)
		repo := NewHealthReadingRepository(base)

		mock.ExpectBegin()
		for i := 0; i < 4; i++ {
			mock.ExpectExec("INSERT INTO health_readings").WillReturnResult(sqlmock.NewResult(0, 1))
		}
		mock.ExpectCommit()

		readings := newBatch()
		require.NoError(t, repo.CreateBatch(context.Background(), readings))
		for _, r := range readings {
			assert.NotEqual(t, uuid.Nil, r.ID)
			assert.False(t, r.Timestamp.IsZero())
		}
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when a middle insert fails", func(t *testing.T) {
		base, mock := setupTestBase(t)
		repo := NewHealthReadingRepository(base)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO health_readings").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO health_readings").WillReturnError(errors.New("check constraint violated"))
		mock.ExpectRollback()

		err := repo.CreateBatch(context.Background(), newBatch())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "insert reading 1")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestHealthReadingRepository_ListWithTypeFilter(t *testing.T) {
	base, mock := setupTestBase(t)
	repo := NewHealthReadingRepository(base)
	patient := uuid.New()
	now := time.Now()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM health_readings WHERE patient_id = \\$1 AND type = \\$2").
		WithArgs(patient, model.ReadingHeartRate).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("ORDER BY timestamp DESC LIMIT \\$3 OFFSET \\$4").
		WithArgs(patient, model.ReadingHeartRate, 2, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "patient_id", "type", "value", "unit", "timestamp", "created_at"}).
			AddRow(uuid.New().String(), patient.String(), "HEART_RATE", 71.0, "BPM", now, now))

	filter := model.ReadingFilter{Pagination: model.Pagination{Page: 2, Limit: 2}, Type: model.ReadingHeartRate}
	readings, total, err := repo.List(context.Background(), patient, filter)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, readings, 1)
	assert.Equal(t, 71.0, readings[0].Value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepository_Create(t *testing.T) {
	newAppointment := func() *model.Appointment {
		start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
		return &model.Appointment{
			PatientID:   uuid.New(),
			DoctorID:    uuid.New(),
			UserID:      uuid.New(),
			ScheduledAt: start,
			EndTime:     start.Add(30 * time.Minute),
		}
	}

	t.Run("overlap is rejected inside the transaction", func(t *testing.T) {
		base, mock := setupTestBase(t)
		repo := NewAppointmentRepository(base)
		a := newAppointment()

		mock.ExpectBegin()
		mock.ExpectExec("SELECT pg_advisory_xact_lock").
			WithArgs(a.DoctorID.String()).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(a.DoctorID, a.ScheduledAt, a.EndTime, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()

		err := repo.Create(context.Background(), a)
		assert.ErrorIs(t, err, repository.ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("disjoint slot is inserted", func(t *testing.T) {
		base, mock := setupTestBase(t)
		repo := NewAppointmentRepository(base)
		a := newAppointment()

		mock.ExpectBegin()
		mock.ExpectExec("SELECT pg_advisory_xact_lock").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT EXISTS").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec("INSERT INTO appointments").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.Create(context.Background(), a))
		assert.Equal(t, model.AppointmentStatusScheduled, a.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAppointmentRepository_UpdateWithoutTimeChangeSkipsCheck(t *testing.T) {
	base, mock := setupTestBase(t)
	repo := NewAppointmentRepository(base)
	a := &model.Appointment{Status: model.AppointmentStatusCancelled}
	a.ID = uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE appointments").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Update(context.Background(), a, false))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_BulkOperations(t *testing.T) {
	base, mock := setupTestBase(t)
	repo := NewNotificationRepository(base)
	user := uuid.New()

	mock.ExpectExec("UPDATE notifications SET is_read = true WHERE user_id = \\$1").
		WithArgs(user).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("DELETE FROM notifications WHERE user_id = \\$1").
		WithArgs(user).
		WillReturnResult(sqlmock.NewResult(0, 6))

	marked, err := repo.MarkAllRead(context.Background(), user)
	require.NoError(t, err)
	assert.EqualValues(t, 4, marked)

	deleted, err := repo.DeleteAll(context.Background(), user)
	require.NoError(t, err)
	assert.EqualValues(t, 6, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_SetReadMissing(t *testing.T) {
	base, mock := setupTestBase(t)
	repo := NewNotificationRepository(base)

	mock.ExpectExec("UPDATE notifications SET is_read").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetRead(context.Background(), uuid.New(), true)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
