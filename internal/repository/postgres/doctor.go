package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rpmweb/rpm-api/internal/model"
	"github.com/rpmweb/rpm-api/internal/repository"
)

const doctorSelect = `
	SELECT d.id, d.user_id, d.specialization, d.license_number, d.hospital,
		   d.phone_number, d.education, d.bio, d.is_verified, d.created_at,
		   d.updated_at, u.name AS user_name, u.email AS user_email
	FROM doctors d
	JOIN users u ON u.id = d.user_id
`

type doctorRepository struct {
	*BaseRepository
}

func NewDoctorRepository(base *BaseRepository) repository.DoctorRepository {
	return &doctorRepository{BaseRepository: base}
}

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	query := `
		INSERT INTO doctors (
			id, user_id, specialization, license_number, hospital, phone_number,
			education, bio, is_verified, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	doctor.ID = uuid.New()
	doctor.CreatedAt = time.Now().UTC()
	doctor.UpdatedAt = doctor.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		doctor.ID,
		doctor.UserID,
		doctor.Specialization,
		doctor.LicenseNumber,
		doctor.Hospital,
		doctor.PhoneNumber,
		doctor.Education,
		doctor.Bio,
		doctor.IsVerified,
		doctor.CreatedAt,
		doctor.UpdatedAt,
	)
	if err != nil {
		return mapError(err, "create doctor")
	}
	return nil
}

func (r *doctorRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, doctorSelect+` WHERE d.id = $1`, id); err != nil {
		return nil, mapError(err, "get doctor")
	}
	return &doctor, nil
}

func (r *doctorRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Doctor, error) {
	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, doctorSelect+` WHERE d.user_id = $1`, userID); err != nil {
		return nil, mapError(err, "get doctor by user")
	}
	return &doctor, nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	query := `
		UPDATE doctors
		SET specialization = $1, license_number = $2, hospital = $3,
			phone_number = $4, education = $5, bio = $6, is_verified = $7,
			updated_at = $8
		WHERE id = $9
	`
	doctor.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		doctor.Specialization,
		doctor.LicenseNumber,
		doctor.Hospital,
		doctor.PhoneNumber,
		doctor.Education,
		doctor.Bio,
		doctor.IsVerified,
		doctor.UpdatedAt,
		doctor.ID,
	)
	if err != nil {
		return mapError(err, "update doctor")
	}
	return expectRows(result, "update doctor")
}

func (r *doctorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "delete doctor")
	}
	return expectRows(result, "delete doctor")
}

func (r *doctorRepository) List(ctx context.Context) ([]*model.Doctor, error) {
	doctors := []*model.Doctor{}
	if err := r.db.SelectContext(ctx, &doctors, doctorSelect+` ORDER BY u.name ASC`); err != nil {
		return nil, mapError(err, "list doctors")
	}
	return doctors, nil
}
