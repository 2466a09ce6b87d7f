package model

import (
	"time"

	"github.com/google/uuid"
)

type ReadingType string

const (
	ReadingHeartRate              ReadingType = "HEART_RATE"
	ReadingBloodPressureSystolic  ReadingType = "BLOOD_PRESSURE_SYSTOLIC"
	ReadingBloodPressureDiastolic ReadingType = "BLOOD_PRESSURE_DIASTOLIC"
	ReadingBloodOxygen            ReadingType = "BLOOD_OXYGEN"
	ReadingTemperature            ReadingType = "TEMPERATURE"
)

// ReadingTypes lists every reading type in display order.
var ReadingTypes = []ReadingType{
	ReadingHeartRate,
	ReadingBloodPressureSystolic,
	ReadingBloodPressureDiastolic,
	ReadingBloodOxygen,
	ReadingTemperature,
}

func (t ReadingType) Valid() bool {
	for _, rt := range ReadingTypes {
		if rt == t {
			return true
		}
	}
	return false
}

// DefaultUnit is the unit the dashboard assumes for a type.
func (t ReadingType) DefaultUnit() string {
	switch t {
	case ReadingHeartRate:
		return "BPM"
	case ReadingBloodPressureSystolic, ReadingBloodPressureDiastolic:
		return "mmHg"
	case ReadingBloodOxygen:
		return "%"
	case ReadingTemperature:
		return "°C"
	}
	return ""
}

// HealthReading is one immutable measurement submitted by its owner.
// PatientID is the owner's user id.
type HealthReading struct {
	ID        uuid.UUID   `json:"id" db:"id"`
	PatientID uuid.UUID   `json:"patient_id" db:"patient_id"`
	Type      ReadingType `json:"type" db:"type"`
	Value     float64     `json:"value" db:"value"`
	Unit      string      `json:"unit" db:"unit"`
	Timestamp time.Time   `json:"timestamp" db:"timestamp"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}

type CreateReadingRequest struct {
	Type      ReadingType `json:"type" binding:"required,readingtype"`
	Value     float64     `json:"value" binding:"required"`
	Unit      string      `json:"unit" binding:"required,max=16"`
	Timestamp *time.Time  `json:"timestamp"`
}

type BatchReadingsRequest struct {
	Readings []CreateReadingRequest `json:"readings" binding:"required,min=1,max=500,dive"`
}

// ReadingFilter narrows a readings listing.
type ReadingFilter struct {
	Pagination
	Type ReadingType `form:"type" binding:"omitempty,readingtype"`
}

type ReadingsPage struct {
	Data []*HealthReading `json:"data"`
	Meta PageMeta         `json:"meta"`
}
