package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rpmweb/rpm-api/internal/model"
	"github.com/rpmweb/rpm-api/internal/repository"
)

const appointmentSelect = `
	SELECT a.id, a.patient_id, a.doctor_id, a.user_id, a.scheduled_at,
		   a.end_time, a.status, a.notes, a.meeting_link, a.created_at,
		   a.updated_at, p.user_id AS patient_user_id,
		   d.user_id AS doctor_user_id, pu.name AS patient_name,
		   du.name AS doctor_name
	FROM appointments a
	JOIN patients p ON p.id = a.patient_id
	JOIN doctors d ON d.id = a.doctor_id
	JOIN users pu ON pu.id = p.user_id
	JOIN users du ON du.id = d.user_id
`

// Serializes scheduling per doctor for the rest of the transaction.
const lockDoctorSchedule = `SELECT pg_advisory_xact_lock(hashtext($1))`

// An existing slot conflicts when the new start falls inside it, the new end
// falls inside it, or the new interval encloses it.
const overlapQuery = `
	SELECT EXISTS (
		SELECT 1 FROM appointments
		WHERE doctor_id = $1
		AND status IN ('SCHEDULED', 'CONFIRMED')
		AND (
			(scheduled_at <= $2 AND end_time > $2) OR
			(scheduled_at < $3 AND end_time >= $3) OR
			(scheduled_at >= $2 AND end_time <= $3)
		)
		AND id != $4
	)
`

type appointmentRepository struct {
	*BaseRepository
}

func NewAppointmentRepository(base *BaseRepository) repository.AppointmentRepository {
	return &appointmentRepository{BaseRepository: base}
}

func checkConflicts(ctx context.Context, tx *sqlx.Tx, a *model.Appointment) error {
	if _, err := tx.ExecContext(ctx, lockDoctorSchedule, a.DoctorID.String()); err != nil {
		return fmt.Errorf("failed to lock doctor schedule: %w", err)
	}

	var exists bool
	if err := tx.GetContext(ctx, &exists, overlapQuery, a.DoctorID, a.ScheduledAt, a.EndTime, a.ID); err != nil {
		return fmt.Errorf("failed to check appointment conflicts: %w", err)
	}
	if exists {
		return repository.ErrConflict
	}
	return nil
}

func (r *appointmentRepository) Create(ctx context.Context, a *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, patient_id, doctor_id, user_id, scheduled_at, end_time, status,
			notes, meeting_link, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	a.ID = uuid.New()
	a.CreatedAt = time.Now().UTC()
	a.UpdatedAt = a.CreatedAt
	if a.Status == "" {
		a.Status = model.AppointmentStatusScheduled
	}

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := checkConflicts(ctx, tx, a); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, query,
			a.ID,
			a.PatientID,
			a.DoctorID,
			a.UserID,
			a.ScheduledAt,
			a.EndTime,
			a.Status,
			a.Notes,
			a.MeetingLink,
			a.CreatedAt,
			a.UpdatedAt,
		)
		if err != nil {
			return mapError(err, "create appointment")
		}
		return nil
	})
}

func (r *appointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var a model.Appointment
	if err := r.db.GetContext(ctx, &a, appointmentSelect+` WHERE a.id = $1`, id); err != nil {
		return nil, mapError(err, "get appointment")
	}
	return &a, nil
}

func (r *appointmentRepository) Update(ctx context.Context, a *model.Appointment, checkConflict bool) error {
	query := `
		UPDATE appointments
		SET scheduled_at = $1, end_time = $2, status = $3, notes = $4,
			meeting_link = $5, updated_at = $6
		WHERE id = $7
	`
	a.UpdatedAt = time.Now().UTC()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if checkConflict {
			if err := checkConflicts(ctx, tx, a); err != nil {
				return err
			}
		}
		result, err := tx.ExecContext(ctx, query,
			a.ScheduledAt,
			a.EndTime,
			a.Status,
			a.Notes,
			a.MeetingLink,
			a.UpdatedAt,
			a.ID,
		)
		if err != nil {
			return mapError(err, "update appointment")
		}
		return expectRows(result, "update appointment")
	})
}

func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "delete appointment")
	}
	return expectRows(result, "delete appointment")
}

func (r *appointmentRepository) List(ctx context.Context) ([]*model.Appointment, error) {
	appointments := []*model.Appointment{}
	if err := r.db.SelectContext(ctx, &appointments, appointmentSelect+` ORDER BY a.scheduled_at ASC`); err != nil {
		return nil, mapError(err, "list appointments")
	}
	return appointments, nil
}

func (r *appointmentRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	appointments := []*model.Appointment{}
	query := appointmentSelect + ` WHERE a.patient_id = $1 ORDER BY a.scheduled_at ASC`
	if err := r.db.SelectContext(ctx, &appointments, query, patientID); err != nil {
		return nil, mapError(err, "list patient appointments")
	}
	return appointments, nil
}

func (r *appointmentRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Appointment, error) {
	appointments := []*model.Appointment{}
	query := appointmentSelect + ` WHERE a.doctor_id = $1 ORDER BY a.scheduled_at ASC`
	if err := r.db.SelectContext(ctx, &appointments, query, doctorID); err != nil {
		return nil, mapError(err, "list doctor appointments")
	}
	return appointments, nil
}
