package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rpmweb/rpm-api/internal/model"
	"github.com/rpmweb/rpm-api/internal/repository"
)

const vitalColumns = `id, patient_id, heart_rate, blood_pressure_systolic,
	blood_pressure_diastolic, temperature, respiratory_rate, oxygen_saturation,
	glucose_level, notes, blockchain_tx_hash, timestamp, created_at, updated_at`

type vitalSignRepository struct {
	*BaseRepository
}

func NewVitalSignRepository(base *BaseRepository) repository.VitalSignRepository {
	return &vitalSignRepository{BaseRepository: base}
}

func (r *vitalSignRepository) Create(ctx context.Context, vital *model.VitalSign) error {
	query := `
		INSERT INTO vital_signs (
			id, patient_id, heart_rate, blood_pressure_systolic,
			blood_pressure_diastolic, temperature, respiratory_rate,
			oxygen_saturation, glucose_level, notes, timestamp, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	vital.ID = uuid.New()
	vital.CreatedAt = time.Now().UTC()
	if vital.Timestamp.IsZero() {
		vital.Timestamp = vital.CreatedAt
	}

	_, err := r.db.ExecContext(ctx, query,
		vital.ID,
		vital.PatientID,
		vital.HeartRate,
		vital.BloodPressureSystolic,
		vital.BloodPressureDiastolic,
		vital.Temperature,
		vital.RespiratoryRate,
		vital.OxygenSaturation,
		vital.GlucoseLevel,
		vital.Notes,
		vital.Timestamp,
		vital.CreatedAt,
	)
	if err != nil {
		return mapError(err, "create vital sign")
	}
	return nil
}

func (r *vitalSignRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.VitalSign, error) {
	var vital model.VitalSign
	if err := r.db.GetContext(ctx, &vital, `SELECT `+vitalColumns+` FROM vital_signs WHERE id = $1`, id); err != nil {
		return nil, mapError(err, "get vital sign")
	}
	return &vital, nil
}

func (r *vitalSignRepository) Update(ctx context.Context, vital *model.VitalSign) error {
	query := `
		UPDATE vital_signs
		SET heart_rate = $1, blood_pressure_systolic = $2,
			blood_pressure_diastolic = $3, temperature = $4, respiratory_rate = $5,
			oxygen_saturation = $6, glucose_level = $7, notes = $8, updated_at = $9
		WHERE id = $10
	`
	now := time.Now().UTC()
	vital.UpdatedAt = &now

	result, err := r.db.ExecContext(ctx, query,
		vital.HeartRate,
		vital.BloodPressureSystolic,
		vital.BloodPressureDiastolic,
		vital.Temperature,
		vital.RespiratoryRate,
		vital.OxygenSaturation,
		vital.GlucoseLevel,
		vital.Notes,
		vital.UpdatedAt,
		vital.ID,
	)
	if err != nil {
		return mapError(err, "update vital sign")
	}
	return expectRows(result, "update vital sign")
}

func (r *vitalSignRepository) SetTxHash(ctx context.Context, id uuid.UUID, txHash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE vital_signs SET blockchain_tx_hash = $1 WHERE id = $2`, txHash, id)
	if err != nil {
		return mapError(err, "set vital sign tx hash")
	}
	return expectRows(result, "set vital sign tx hash")
}

func (r *vitalSignRepository) List(ctx context.Context, page model.Pagination) ([]*model.VitalSign, error) {
	vitals := []*model.VitalSign{}
	query := `SELECT ` + vitalColumns + ` FROM vital_signs ORDER BY timestamp DESC LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &vitals, query, page.Limit, page.Offset()); err != nil {
		return nil, mapError(err, "list vital signs")
	}
	return vitals, nil
}

func (r *vitalSignRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.VitalSign, error) {
	vitals := []*model.VitalSign{}
	query := `SELECT ` + vitalColumns + ` FROM vital_signs WHERE patient_id = $1 ORDER BY timestamp DESC`
	if err := r.db.SelectContext(ctx, &vitals, query, patientID); err != nil {
		return nil, mapError(err, "list patient vital signs")
	}
	return vitals, nil
}

func (r *vitalSignRepository) Latest(ctx context.Context, patientID uuid.UUID) (*model.VitalSign, error) {
	var vital model.VitalSign
	query := `SELECT ` + vitalColumns + ` FROM vital_signs WHERE patient_id = $1 ORDER BY timestamp DESC LIMIT 1`
	if err := r.db.GetContext(ctx, &vital, query, patientID); err != nil {
		return nil, mapError(err, "get latest vital sign")
	}
	return &vital, nil
}
