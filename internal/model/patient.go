package model

import (
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

// Patient is the 1:1 clinical profile of a patient user.
type Patient struct {
	Base
	UserID           uuid.UUID `json:"user_id" db:"user_id"`
	DateOfBirth      time.Time `json:"date_of_birth" db:"date_of_birth"`
	Gender           Gender    `json:"gender" db:"gender"`
	PhoneNumber      string    `json:"phone_number" db:"phone_number"`
	BloodType        *string   `json:"blood_type,omitempty" db:"blood_type"`
	EmergencyContact *string   `json:"emergency_contact,omitempty" db:"emergency_contact"`
	MedicalHistory   *string   `json:"medical_history,omitempty" db:"medical_history"`
	Allergies        *string   `json:"allergies,omitempty" db:"allergies"`
	Medications      *string   `json:"medications,omitempty" db:"medications"`
	Address          *string   `json:"address,omitempty" db:"address"`

	// Joined from users on reads.
	Name  string  `json:"name,omitempty" db:"user_name"`
	Email *string `json:"email,omitempty" db:"user_email"`
}

type CreatePatientRequest struct {
	UserID           uuid.UUID `json:"user_id"`
	DateOfBirth      time.Time `json:"date_of_birth" binding:"required"`
	Gender           Gender    `json:"gender" binding:"required,oneof=MALE FEMALE OTHER"`
	PhoneNumber      string    `json:"phone_number" binding:"required,e164"`
	BloodType        *string   `json:"blood_type" binding:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	EmergencyContact *string   `json:"emergency_contact"`
	MedicalHistory   *string   `json:"medical_history"`
	Allergies        *string   `json:"allergies"`
	Medications      *string   `json:"medications"`
	Address          *string   `json:"address"`
}

type UpdatePatientRequest struct {
	DateOfBirth      *time.Time `json:"date_of_birth"`
	Gender           *Gender    `json:"gender" binding:"omitempty,oneof=MALE FEMALE OTHER"`
	PhoneNumber      *string    `json:"phone_number" binding:"omitempty,e164"`
	BloodType        *string    `json:"blood_type" binding:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	EmergencyContact *string    `json:"emergency_contact"`
	MedicalHistory   *string    `json:"medical_history"`
	Allergies        *string    `json:"allergies"`
	Medications      *string    `json:"medications"`
	Address          *string    `json:"address"`
}

// Apply copies the set fields of req onto p.
func (req *UpdatePatientRequest) Apply(p *Patient) {
	if req.DateOfBirth != nil {
		p.DateOfBirth = *req.DateOfBirth
	}
	if req.Gender != nil {
		p.Gender = *req.Gender
	}
	if req.PhoneNumber != nil {
		p.PhoneNumber = *req.PhoneNumber
	}
	if req.BloodType != nil {
		p.BloodType = req.BloodType
	}
	if req.EmergencyContact != nil {
		p.EmergencyContact = req.EmergencyContact
	}
	if req.MedicalHistory != nil {
		p.MedicalHistory = req.MedicalHistory
	}
	if req.Allergies != nil {
		p.Allergies = req.Allergies
	}
	if req.Medications != nil {
		p.Medications = req.Medications
	}
	if req.Address != nil {
		p.Address = req.Address
	}
}
