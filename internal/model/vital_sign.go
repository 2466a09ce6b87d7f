package model

import (
	"time"

	"github.com/google/uuid"
)

// VitalSign is a structured snapshot of several measurements taken together.
// PatientID references the patient profile.
type VitalSign struct {
	ID                     uuid.UUID  `json:"id" db:"id"`
	PatientID              uuid.UUID  `json:"patient_id" db:"patient_id"`
	HeartRate              *float64   `json:"heart_rate,omitempty" db:"heart_rate"`
	BloodPressureSystolic  *float64   `json:"blood_pressure_systolic,omitempty" db:"blood_pressure_systolic"`
	BloodPressureDiastolic *float64   `json:"blood_pressure_diastolic,omitempty" db:"blood_pressure_diastolic"`
	Temperature            *float64   `json:"temperature,omitempty" db:"temperature"`
	RespiratoryRate        *float64   `json:"respiratory_rate,omitempty" db:"respiratory_rate"`
	OxygenSaturation       *float64   `json:"oxygen_saturation,omitempty" db:"oxygen_saturation"`
	GlucoseLevel           *float64   `json:"glucose_level,omitempty" db:"glucose_level"`
	Notes                  *string    `json:"notes,omitempty" db:"notes"`
	BlockchainTxHash       *string    `json:"blockchain_tx_hash,omitempty" db:"blockchain_tx_hash"`
	Timestamp              time.Time  `json:"timestamp" db:"timestamp"`
	CreatedAt              time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt              *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// AnchorPayload is the canonical body hashed for anchoring.
func (v *VitalSign) AnchorPayload() JSONMap {
	return JSONMap{
		"id":                     v.ID.String(),
		"patientId":              v.PatientID.String(),
		"heartRate":              v.HeartRate,
		"bloodPressureSystolic":  v.BloodPressureSystolic,
		"bloodPressureDiastolic": v.BloodPressureDiastolic,
		"temperature":            v.Temperature,
		"respiratoryRate":        v.RespiratoryRate,
		"oxygenSaturation":       v.OxygenSaturation,
		"glucoseLevel":           v.GlucoseLevel,
		"timestamp":              v.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}

type CreateVitalSignRequest struct {
	PatientID              uuid.UUID  `json:"patient_id" binding:"required"`
	HeartRate              *float64   `json:"heart_rate" binding:"omitempty,min=40,max=220"`
	BloodPressureSystolic  *float64   `json:"blood_pressure_systolic" binding:"omitempty,min=60,max=250"`
	BloodPressureDiastolic *float64   `json:"blood_pressure_diastolic" binding:"omitempty,min=40,max=140"`
	Temperature            *float64   `json:"temperature" binding:"omitempty,min=35,max=42"`
	RespiratoryRate        *float64   `json:"respiratory_rate" binding:"omitempty,min=8,max=40"`
	OxygenSaturation       *float64   `json:"oxygen_saturation" binding:"omitempty,min=70,max=100"`
	GlucoseLevel           *float64   `json:"glucose_level" binding:"omitempty,min=40,max=400"`
	Notes                  *string    `json:"notes" binding:"omitempty,max=2000"`
	Timestamp              *time.Time `json:"timestamp"`
}

type UpdateVitalSignRequest struct {
	HeartRate              *float64 `json:"heart_rate" binding:"omitempty,min=40,max=220"`
	BloodPressureSystolic  *float64 `json:"blood_pressure_systolic" binding:"omitempty,min=60,max=250"`
	BloodPressureDiastolic *float64 `json:"blood_pressure_diastolic" binding:"omitempty,min=40,max=140"`
	Temperature            *float64 `json:"temperature" binding:"omitempty,min=35,max=42"`
	RespiratoryRate        *float64 `json:"respiratory_rate" binding:"omitempty,min=8,max=40"`
	OxygenSaturation       *float64 `json:"oxygen_saturation" binding:"omitempty,min=70,max=100"`
	GlucoseLevel           *float64 `json:"glucose_level" binding:"omitempty,min=40,max=400"`
	Notes                  *string  `json:"notes" binding:"omitempty,max=2000"`
}

func (req *UpdateVitalSignRequest) Apply(v *VitalSign) {
	if req.HeartRate != nil {
		v.HeartRate = req.HeartRate
	}
	if req.BloodPressureSystolic != nil {
		v.BloodPressureSystolic = req.BloodPressureSystolic
	}
	if req.BloodPressureDiastolic != nil {
		v.BloodPressureDiastolic = req.BloodPressureDiastolic
	}
	if req.Temperature != nil {
		v.Temperature = req.Temperature
	}
	if req.RespiratoryRate != nil {
		v.RespiratoryRate = req.RespiratoryRate
	}
	if req.OxygenSaturation != nil {
		v.OxygenSaturation = req.OxygenSaturation
	}
	if req.GlucoseLevel != nil {
		v.GlucoseLevel = req.GlucoseLevel
	}
	if req.Notes != nil {
		v.Notes = req.Notes
	}
}

type VitalSource string

const (
	SourceVitalSign VitalSource = "vital_sign"
	SourceReading   VitalSource = "reading"
)

// VitalValue is one merged field of LatestVitals.
type VitalValue struct {
	Value     float64     `json:"value"`
	Unit      string      `json:"unit"`
	Timestamp time.Time   `json:"timestamp"`
	Source    VitalSource `json:"source"`
}

type LatestVitals struct {
	PatientUserID          uuid.UUID   `json:"patient_user_id"`
	HeartRate              *VitalValue `json:"heart_rate"`
	BloodPressureSystolic  *VitalValue `json:"blood_pressure_systolic"`
	BloodPressureDiastolic *VitalValue `json:"blood_pressure_diastolic"`
	OxygenSaturation       *VitalValue `json:"oxygen_saturation"`
	Temperature            *VitalValue `json:"temperature"`
	Timestamp              *time.Time  `json:"timestamp"`
}

// VerificationResult reports whether a stored entity still matches its anchor.
type VerificationResult struct {
	IsVerified bool        `json:"is_verified"`
	TxHash     *string     `json:"tx_hash,omitempty"`
	Record     interface{} `json:"record"`
}
