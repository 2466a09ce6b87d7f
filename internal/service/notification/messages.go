package notification

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rpmweb/rpm-api/internal/model"
)

// displayTime is the long form used in appointment texts.
const displayTime = "Monday, January 2 at 3:04 PM"

func newNotification(userID uuid.UUID, kind model.NotificationType, title, message string, relatedID uuid.UUID, actionURL string) *model.Notification {
	related := relatedID.String()
	n := &model.Notification{
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Message:   message,
		RelatedID: &related,
	}
	if actionURL != "" {
		n.ActionURL = &actionURL
	}
	return n
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func AppointmentReminder(patientUserID, appointmentID uuid.UUID, doctorName string, at time.Time) *model.Notification {
	return newNotification(patientUserID, model.NotificationAppointment,
		"Upcoming Appointment Reminder",
		fmt.Sprintf("You have an appointment with Dr. %s on %s.", orDefault(doctorName, "your doctor"), at.Format(displayTime)),
		appointmentID, "/appointments/"+appointmentID.String())
}

func AppointmentScheduled(doctorUserID, appointmentID uuid.UUID, patientName string, at time.Time) *model.Notification {
	return newNotification(doctorUserID, model.NotificationAppointment,
		"New Appointment Scheduled",
		fmt.Sprintf("A new appointment with %s has been scheduled for %s.", orDefault(patientName, "a patient"), at.Format(displayTime)),
		appointmentID, "/appointments/"+appointmentID.String())
}

func AppointmentConfirmed(patientUserID, appointmentID uuid.UUID, doctorName string, at time.Time) *model.Notification {
	return newNotification(patientUserID, model.NotificationAppointment,
		"Appointment Confirmed",
		fmt.Sprintf("Your appointment with Dr. %s on %s has been confirmed.", orDefault(doctorName, "your doctor"), at.Format(displayTime)),
		appointmentID, "/appointments/"+appointmentID.String())
}

func AppointmentCancelled(userID, appointmentID uuid.UUID, at time.Time) *model.Notification {
	return newNotification(userID, model.NotificationAppointment,
		"Appointment Cancelled",
		fmt.Sprintf("Appointment scheduled for %s has been cancelled.", at.Format(displayTime)),
		appointmentID, "/appointments")
}

// VitalSignAlert tells a doctor about an out-of-range measurement.
func VitalSignAlert(doctorUserID uuid.UUID, patientName string, vitalSignID uuid.UUID, metric string, value float64) *model.Notification {
	return newNotification(doctorUserID, model.NotificationVitalAlert,
		"Abnormal Vital Sign Alert",
		fmt.Sprintf("Patient %s has recorded an abnormal %s reading of %v.", orDefault(patientName, "unknown"), metric, value),
		vitalSignID, "/vital-signs/"+vitalSignID.String())
}

func MedicalRecordUpdated(userID uuid.UUID, patientName string, recordID uuid.UUID) *model.Notification {
	return newNotification(userID, model.NotificationMedicalRecord,
		"Medical Record Updated",
		fmt.Sprintf("A medical record for %s has been updated.", orDefault(patientName, "a patient")),
		recordID, "/medical-records/"+recordID.String())
}

// ConnectionRequested goes to the patient when a doctor asks for access by
// wallet address.
func ConnectionRequested(patientUserID, connectionID uuid.UUID) *model.Notification {
	return newNotification(patientUserID, model.NotificationConnectionRequest,
		"Connection Request",
		"A doctor has requested to connect with your wallet address",
		connectionID, "/patient-doctors/patient/my-connections")
}

// ConnectionUpdated reports a status change of a connection to one party.
func ConnectionUpdated(userID, connectionID uuid.UUID, counterpart string, status model.ConnectionStatus) *model.Notification {
	var title, message string
	switch status {
	case model.ConnectionPending:
		title = "Access Requested"
		message = fmt.Sprintf("%s has requested access to your health data.", orDefault(counterpart, "A patient"))
	case model.ConnectionActive:
		title = "Access Granted"
		message = fmt.Sprintf("%s has granted the connection. Health data is now shared.", orDefault(counterpart, "Your doctor"))
	default:
		title = "Access Revoked"
		message = fmt.Sprintf("The connection with %s has been revoked.", orDefault(counterpart, "your counterpart"))
	}
	return newNotification(userID, model.NotificationConnectionUpdate, title, message, connectionID, "/patient-doctors")
}
