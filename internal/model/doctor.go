package model

import (
	"github.com/google/uuid"
)

// Doctor is the 1:1 professional profile of a doctor user.
type Doctor struct {
	Base
	UserID         uuid.UUID `json:"user_id" db:"user_id"`
	Specialization string    `json:"specialization" db:"specialization"`
	LicenseNumber  string    `json:"license_number" db:"license_number"`
	Hospital       *string   `json:"hospital,omitempty" db:"hospital"`
	PhoneNumber    string    `json:"phone_number" db:"phone_number"`
	Education      *string   `json:"education,omitempty" db:"education"`
	Bio            *string   `json:"bio,omitempty" db:"bio"`
	IsVerified     bool      `json:"is_verified" db:"is_verified"`

	Name  string  `json:"name,omitempty" db:"user_name"`
	Email *string `json:"email,omitempty" db:"user_email"`
}

type CreateDoctorRequest struct {
	UserID         uuid.UUID `json:"user_id"`
	Specialization string    `json:"specialization" binding:"required,oneof=CARDIOLOGY DERMATOLOGY ENDOCRINOLOGY GASTROENTEROLOGY GENERAL_PRACTICE NEUROLOGY ONCOLOGY PEDIATRICS PSYCHIATRY SURGERY OTHER"`
	LicenseNumber  string    `json:"license_number" binding:"required,min=3"`
	Hospital       *string   `json:"hospital"`
	PhoneNumber    string    `json:"phone_number" binding:"required,e164"`
	Education      *string   `json:"education"`
	Bio            *string   `json:"bio"`
}

type UpdateDoctorRequest struct {
	Specialization *string `json:"specialization" binding:"omitempty,oneof=CARDIOLOGY DERMATOLOGY ENDOCRINOLOGY GASTROENTEROLOGY GENERAL_PRACTICE NEUROLOGY ONCOLOGY PEDIATRICS PSYCHIATRY SURGERY OTHER"`
	LicenseNumber  *string `json:"license_number" binding:"omitempty,min=3"`
	Hospital       *string `json:"hospital"`
	PhoneNumber    *string `json:"phone_number" binding:"omitempty,e164"`
	Education      *string `json:"education"`
	Bio            *string `json:"bio"`
	IsVerified     *bool   `json:"is_verified"`
}

func (req *UpdateDoctorRequest) Apply(d *Doctor) {
	if req.Specialization != nil {
		d.Specialization = *req.Specialization
	}
	if req.LicenseNumber != nil {
		d.LicenseNumber = *req.LicenseNumber
	}
	if req.Hospital != nil {
		d.Hospital = req.Hospital
	}
	if req.PhoneNumber != nil {
		d.PhoneNumber = *req.PhoneNumber
	}
	if req.Education != nil {
		d.Education = req.Education
	}
	if req.Bio != nil {
		d.Bio = req.Bio
	}
	if req.IsVerified != nil {
		d.IsVerified = *req.IsVerified
	}
}
