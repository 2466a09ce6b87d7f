package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationAppointment       NotificationType = "APPOINTMENT"
	NotificationVitalAlert        NotificationType = "VITAL_ALERT"
	NotificationConnectionRequest NotificationType = "CONNECTION_REQUEST"
	NotificationConnectionUpdate  NotificationType = "CONNECTION_UPDATE"
	NotificationMedicalRecord     NotificationType = "MEDICAL_RECORD"
	NotificationSystem            NotificationType = "SYSTEM"
)

type Notification struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	UserID    uuid.UUID        `json:"user_id" db:"user_id"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	Type      NotificationType `json:"type" db:"type"`
	IsRead    bool             `json:"is_read" db:"is_read"`
	RelatedID *string          `json:"related_id,omitempty" db:"related_id"`
	ActionURL *string          `json:"action_url,omitempty" db:"action_url"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

type CreateNotificationRequest struct {
	UserID    uuid.UUID        `json:"user_id" binding:"required"`
	Title     string           `json:"title" binding:"required,max=200"`
	Message   string           `json:"message" binding:"required,max=2000"`
	Type      NotificationType `json:"type" binding:"required,oneof=APPOINTMENT VITAL_ALERT CONNECTION_REQUEST CONNECTION_UPDATE MEDICAL_RECORD SYSTEM"`
	RelatedID *string          `json:"related_id"`
	ActionURL *string          `json:"action_url"`
}

type BulkNotificationRequest struct {
	Notifications []CreateNotificationRequest `json:"notifications" binding:"required,min=1,max=1000,dive"`
}

type MarkReadRequest struct {
	IsRead *bool `json:"is_read" binding:"required"`
}

// NotificationEvent is what the API publishes for the delivery worker.
type NotificationEvent struct {
	NotificationID uuid.UUID        `json:"notification_id"`
	UserID         uuid.UUID        `json:"user_id"`
	Email          string           `json:"email,omitempty"`
	Name           string           `json:"name,omitempty"`
	Type           NotificationType `json:"type"`
	Title          string           `json:"title"`
	Message        string           `json:"message"`
	ActionURL      string           `json:"action_url,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}
