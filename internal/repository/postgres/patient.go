package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rpmweb/rpm-api/internal/model"
	"github.com/rpmweb/rpm-api/internal/repository"
)

const patientSelect = `
	SELECT p.id, p.user_id, p.date_of_birth, p.gender, p.phone_number,
		   p.blood_type, p.emergency_contact, p.medical_history, p.allergies,
		   p.medications, p.address, p.created_at, p.updated_at,
		   u.name AS user_name, u.email AS user_email
	FROM patients p
	JOIN users u ON u.id = p.user_id
`

type patientRepository struct {
	*BaseRepository
}

func NewPatientRepository(base *BaseRepository) repository.PatientRepository {
	return &patientRepository{BaseRepository: base}
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (
			id, user_id, date_of_birth, gender, phone_number, blood_type,
			emergency_contact, medical_history, allergies, medications, address,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	patient.ID = uuid.New()
	patient.CreatedAt = time.Now().UTC()
	patient.UpdatedAt = patient.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		patient.ID,
		patient.UserID,
		patient.DateOfBirth,
		patient.Gender,
		patient.PhoneNumber,
		patient.BloodType,
		patient.EmergencyContact,
		patient.MedicalHistory,
		patient.Allergies,
		patient.Medications,
		patient.Address,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	if err != nil {
		return mapError(err, "create patient")
	}
	return nil
}

func (r *patientRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, patientSelect+` WHERE p.id = $1`, id); err != nil {
		return nil, mapError(err, "get patient")
	}
	return &patient, nil
}

func (r *patientRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Patient, error) {
	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, patientSelect+` WHERE p.user_id = $1`, userID); err != nil {
		return nil, mapError(err, "get patient by user")
	}
	return &patient, nil
}

func (r *patientRepository) GetByWallet(ctx context.Context, wallet string) (*model.Patient, error) {
	var patient model.Patient
	query := patientSelect + ` WHERE u.wallet_address = $1`
	if err := r.db.GetContext(ctx, &patient, query, model.NormalizeWallet(wallet)); err != nil {
		return nil, mapError(err, "get patient by wallet")
	}
	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	query := `
		UPDATE patients
		SET date_of_birth = $1, gender = $2, phone_number = $3, blood_type = $4,
			emergency_contact = $5, medical_history = $6, allergies = $7,
			medications = $8, address = $9, updated_at = $10
		WHERE id = $11
	`
	patient.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		patient.DateOfBirth,
		patient.Gender,
		patient.PhoneNumber,
		patient.BloodType,
		patient.EmergencyContact,
		patient.MedicalHistory,
		patient.Allergies,
		patient.Medications,
		patient.Address,
		patient.UpdatedAt,
		patient.ID,
	)
	if err != nil {
		return mapError(err, "update patient")
	}
	return expectRows(result, "update patient")
}

func (r *patientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "delete patient")
	}
	return expectRows(result, "delete patient")
}

func (r *patientRepository) List(ctx context.Context) ([]*model.Patient, error) {
	patients := []*model.Patient{}
	if err := r.db.SelectContext(ctx, &patients, patientSelect+` ORDER BY u.name ASC`); err != nil {
		return nil, mapError(err, "list patients")
	}
	return patients, nil
}
