package appointment

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/rpmweb/rpm-api/internal/hooks"
	"github.com/rpmweb/rpm-api/internal/model"
	"github.com/rpmweb/rpm-api/internal/repository"
	"github.com/rpmweb/rpm-api/internal/service/notification"
	"github.com/rpmweb/rpm-api/pkg/errors"
)

const conflictMessage = "The doctor already has an appointment during this time"

type Service struct {
	repo     repository.AppointmentRepository
	patients repository.PatientRepository
	doctors  repository.DoctorRepository
	notifier notification.Notifier
	hooks    *hooks.Runner
}

func NewService(
	repo repository.AppointmentRepository,
	patients repository.PatientRepository,
	doctors repository.DoctorRepository,
	notifier notification.Notifier,
	runner *hooks.Runner,
) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		doctors:  doctors,
		notifier: notifier,
		hooks:    runner,
	}
}

// Create books a slot. The overlap check and the insert share one
// transaction in the repository.
func (s *Service) Create(ctx context.Context, caller *model.User, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	if !req.EndTime.After(req.ScheduledAt) {
		return nil, errors.BadRequest("End time must be after the scheduled time", nil)
	}

	patient, err := s.patients.GetByID(ctx, req.PatientID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFound(fmt.Sprintf("Patient with ID %s not found", req.PatientID), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	doctor, err := s.doctors.GetByID(ctx, req.DoctorID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFound(fmt.Sprintf("Doctor with ID %s not found", req.DoctorID), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	if caller.Role.IsPatient() && patient.UserID != caller.ID {
		return nil, errors.Forbidden("You can only book appointments for yourself")
	}

	a := &model.Appointment{
		PatientID:     patient.ID,
		DoctorID:      doctor.ID,
		UserID:        caller.ID,
		ScheduledAt:   req.ScheduledAt.UTC(),
		EndTime:       req.EndTime.UTC(),
		Status:        req.Status,
		Notes:         req.Notes,
		MeetingLink:   req.MeetingLink,
		PatientUserID: patient.UserID,
		DoctorUserID:  doctor.UserID,
		PatientName:   patient.Name,
		DoctorName:    doctor.Name,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		if stderrors.Is(err, repository.ErrConflict) {
			return nil, errors.Conflict(conflictMessage)
		}
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	var l hooks.List
	l.Add("notify.appointment_reminder", s.notify(notification.AppointmentReminder(patient.UserID, a.ID, doctor.Name, a.ScheduledAt)))
	l.Add("notify.appointment_scheduled", s.notify(notification.AppointmentScheduled(doctor.UserID, a.ID, patient.Name, a.ScheduledAt)))
	s.hooks.Run(ctx, &l)
	return a, nil
}

func (s *Service) List(ctx context.Context) ([]*model.Appointment, error) {
	appointments, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// ListByPatient returns a patient's appointments. Patients only see their
// own.
func (s *Service) ListByPatient(ctx context.Context, caller *model.User, patientID uuid.UUID) ([]*model.Appointment, error) {
	if caller.Role.IsPatient() {
		patient, err := s.patients.GetByID(ctx, patientID)
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound(fmt.Sprintf("Patient with ID %s not found", patientID), nil)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get patient: %w", err)
		}
		if patient.UserID != caller.ID {
			return nil, errors.Forbidden("You can only view your own appointments")
		}
	}
	appointments, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Appointment, error) {
	appointments, err := s.repo.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (s *Service) Get(ctx context.Context, caller *model.User, id uuid.UUID) (*model.Appointment, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isParty(caller, a) {
		return nil, errors.Forbidden("You do not have access to this appointment")
	}
	return a, nil
}

// Update is open to admins and both parties. The overlap check, with the
// appointment itself excluded, runs whenever the result holds a slot it did
// not hold before: a moved time or a reactivated status.
func (s *Service) Update(ctx context.Context, caller *model.User, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isParty(caller, a) {
		return nil, errors.Forbidden("You do not have permission to update this appointment")
	}

	prevStatus := a.Status
	req.Apply(a)
	if req.ChangesTime() && !a.EndTime.After(a.ScheduledAt) {
		return nil, errors.BadRequest("End time must be after the scheduled time", nil)
	}
	checkConflict := a.Status.Blocking() && (req.ChangesTime() || !prevStatus.Blocking())
	if err := s.repo.Update(ctx, a, checkConflict); err != nil {
		if stderrors.Is(err, repository.ErrConflict) {
			return nil, errors.Conflict(conflictMessage)
		}
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}

	var l hooks.List
	if a.Status != prevStatus {
		switch a.Status {
		case model.AppointmentStatusConfirmed:
			l.Add("notify.appointment_confirmed", s.notify(notification.AppointmentConfirmed(a.PatientUserID, a.ID, a.DoctorName, a.ScheduledAt)))
		case model.AppointmentStatusCancelled:
			l.Add("notify.appointment_cancelled_patient", s.notify(notification.AppointmentCancelled(a.PatientUserID, a.ID, a.ScheduledAt)))
			l.Add("notify.appointment_cancelled_doctor", s.notify(notification.AppointmentCancelled(a.DoctorUserID, a.ID, a.ScheduledAt)))
		}
	}
	s.hooks.Run(ctx, &l)
	return a, nil
}

// Delete is open to admins and the doctor who owns the appointment.
func (s *Service) Delete(ctx context.Context, caller *model.User, id uuid.UUID) error {
	a, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if caller.Role != model.RoleAdmin && !(caller.Role == model.RoleDoctor && a.DoctorUserID == caller.ID) {
		return errors.Forbidden("You do not have permission to delete this appointment")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	return nil
}

func (s *Service) get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFound(fmt.Sprintf("Appointment with ID %s not found", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return a, nil
}

func (s *Service) notify(n *model.Notification) hooks.Func {
	return func(ctx context.Context) error {
		return s.notifier.Notify(ctx, n)
	}
}

func isParty(caller *model.User, a *model.Appointment) bool {
	return caller.Role == model.RoleAdmin || a.PatientUserID == caller.ID || a.DoctorUserID == caller.ID
}
