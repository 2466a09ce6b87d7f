package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "SCHEDULED"
	AppointmentStatusConfirmed AppointmentStatus = "CONFIRMED"
	AppointmentStatusCompleted AppointmentStatus = "COMPLETED"
	AppointmentStatusCancelled AppointmentStatus = "CANCELLED"
	AppointmentStatusNoShow    AppointmentStatus = "NO_SHOW"
)

// BlockingStatuses are the statuses whose slots cannot be double-booked.
var BlockingStatuses = []AppointmentStatus{AppointmentStatusScheduled, AppointmentStatusConfirmed}

// Blocking reports whether an appointment in this status holds its slot.
func (s AppointmentStatus) Blocking() bool {
	for _, b := range BlockingStatuses {
		if s == b {
			return true
		}
	}
	return false
}

type Appointment struct {
	Base
	PatientID   uuid.UUID         `db:"patient_id" json:"patient_id"`
	DoctorID    uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	UserID      uuid.UUID         `db:"user_id" json:"user_id"`
	ScheduledAt time.Time         `db:"scheduled_at" json:"scheduled_at"`
	EndTime     time.Time         `db:"end_time" json:"end_time"`
	Status      AppointmentStatus `db:"status" json:"status"`
	Notes       *string           `db:"notes" json:"notes,omitempty"`
	MeetingLink *string           `db:"meeting_link" json:"meeting_link,omitempty"`

	PatientUserID uuid.UUID `db:"patient_user_id" json:"patient_user_id"`
	DoctorUserID  uuid.UUID `db:"doctor_user_id" json:"doctor_user_id"`
	PatientName   string    `db:"patient_name" json:"patient_name,omitempty"`
	DoctorName    string    `db:"doctor_name" json:"doctor_name,omitempty"`
}

// Overlaps reports whether [start,end) intersects the appointment's interval.
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return a.ScheduledAt.Before(end) && start.Before(a.EndTime)
}

type CreateAppointmentRequest struct {
	PatientID   uuid.UUID         `json:"patient_id" binding:"required"`
	DoctorID    uuid.UUID         `json:"doctor_id" binding:"required"`
	ScheduledAt time.Time         `json:"scheduled_at" binding:"required"`
	EndTime     time.Time         `json:"end_time" binding:"required,gtfield=ScheduledAt"`
	Status      AppointmentStatus `json:"status" binding:"omitempty,oneof=SCHEDULED CONFIRMED"`
	Notes       *string           `json:"notes" binding:"omitempty,max=1000"`
	MeetingLink *string           `json:"meeting_link" binding:"omitempty,url"`
}

type UpdateAppointmentRequest struct {
	ScheduledAt *time.Time         `json:"scheduled_at"`
	EndTime     *time.Time         `json:"end_time"`
	Status      *AppointmentStatus `json:"status" binding:"omitempty,oneof=SCHEDULED CONFIRMED COMPLETED CANCELLED NO_SHOW"`
	Notes       *string            `json:"notes" binding:"omitempty,max=1000"`
	MeetingLink *string            `json:"meeting_link" binding:"omitempty,url"`
}

// ChangesTime reports whether the update moves the appointment.
func (req *UpdateAppointmentRequest) ChangesTime() bool {
	return req.ScheduledAt != nil || req.EndTime != nil
}

func (req *UpdateAppointmentRequest) Apply(a *Appointment) {
	if req.ScheduledAt != nil {
		a.ScheduledAt = *req.ScheduledAt
	}
	if req.EndTime != nil {
		a.EndTime = *req.EndTime
	}
	if req.Status != nil {
		a.Status = *req.Status
	}
	if req.Notes != nil {
		a.Notes = req.Notes
	}
	if req.MeetingLink != nil {
		a.MeetingLink = req.MeetingLink
	}
}
