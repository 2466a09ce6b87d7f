package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rpmweb/rpm-api/internal/model"
	"github.com/rpmweb/rpm-api/internal/repository"
)

const medicalRecordSelect = `
	SELECT m.id, m.patient_id, m.doctor_id, m.created_by_id, m.diagnosis,
		   m.treatment, m.medication, m.notes, m.attachments,
		   m.blockchain_tx_hash, m.created_at, m.updated_at,
		   p.user_id AS patient_user_id, d.user_id AS doctor_user_id,
		   pu.name AS patient_name
	FROM medical_records m
	JOIN patients p ON p.id = m.patient_id
	JOIN users pu ON pu.id = p.user_id
	LEFT JOIN doctors d ON d.id = m.doctor_id
`

type medicalRecordRepository struct {
	*BaseRepository
}

func NewMedicalRecordRepository(base *BaseRepository) repository.MedicalRecordRepository {
	return &medicalRecordRepository{BaseRepository: base}
}

func (r *medicalRecordRepository) Create(ctx context.Context, record *model.MedicalRecord) error {
	query := `
		INSERT INTO medical_records (
			id, patient_id, doctor_id, created_by_id, diagnosis, treatment,
			medication, notes, attachments, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	record.ID = uuid.New()
	record.CreatedAt = time.Now().UTC()
	record.UpdatedAt = record.CreatedAt
	if record.Attachments == nil {
		record.Attachments = model.Attachments{}
	}

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.PatientID,
		record.DoctorID,
		record.CreatedByID,
		record.Diagnosis,
		record.Treatment,
		record.Medication,
		record.Notes,
		record.Attachments,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return mapError(err, "create medical record")
	}
	return nil
}

func (r *medicalRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error) {
	var record model.MedicalRecord
	if err := r.db.GetContext(ctx, &record, medicalRecordSelect+` WHERE m.id = $1`, id); err != nil {
		return nil, mapError(err, "get medical record")
	}
	return &record, nil
}

func (r *medicalRecordRepository) Update(ctx context.Context, record *model.MedicalRecord) error {
	query := `
		UPDATE medical_records
		SET doctor_id = $1, diagnosis = $2, treatment = $3, medication = $4,
			notes = $5, updated_at = $6
		WHERE id = $7
	`
	record.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		record.DoctorID,
		record.Diagnosis,
		record.Treatment,
		record.Medication,
		record.Notes,
		record.UpdatedAt,
		record.ID,
	)
	if err != nil {
		return mapError(err, "update medical record")
	}
	return expectRows(result, "update medical record")
}

func (r *medicalRecordRepository) UpdateAttachments(ctx context.Context, id uuid.UUID, attachments model.Attachments) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE medical_records SET attachments = $1, updated_at = $2 WHERE id = $3`,
		attachments, time.Now().UTC(), id,
	)
	if err != nil {
		return mapError(err, "update attachments")
	}
	return expectRows(result, "update attachments")
}

func (r *medicalRecordRepository) SetTxHash(ctx context.Context, id uuid.UUID, txHash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE medical_records SET blockchain_tx_hash = $1 WHERE id = $2`, txHash, id)
	if err != nil {
		return mapError(err, "set medical record tx hash")
	}
	return expectRows(result, "set medical record tx hash")
}

func (r *medicalRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM medical_records WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "delete medical record")
	}
	return expectRows(result, "delete medical record")
}

func (r *medicalRecordRepository) List(ctx context.Context) ([]*model.MedicalRecord, error) {
	records := []*model.MedicalRecord{}
	if err := r.db.SelectContext(ctx, &records, medicalRecordSelect+` ORDER BY m.created_at DESC`); err != nil {
		return nil, mapError(err, "list medical records")
	}
	return records, nil
}

func (r *medicalRecordRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalRecord, error) {
	records := []*model.MedicalRecord{}
	query := medicalRecordSelect + ` WHERE m.patient_id = $1 ORDER BY m.created_at DESC`
	if err := r.db.SelectContext(ctx, &records, query, patientID); err != nil {
		return nil, mapError(err, "list patient medical records")
	}
	return records, nil
}
