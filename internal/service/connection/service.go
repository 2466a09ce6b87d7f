// Package connection manages doctor to patient access grants.
package connection

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rpmweb/rpm-api/internal/hooks"
	"github.com/rpmweb/rpm-api/internal/model"
	"github.com/rpmweb/rpm-api/internal/repository"
	"github.com/rpmweb/rpm-api/internal/service/notification"
	"github.com/rpmweb/rpm-api/pkg/anchor"
	"github.com/rpmweb/rpm-api/pkg/errors"
	"github.com/rpmweb/rpm-api/pkg/wallet"
)

type Service struct {
	repo     repository.ConnectionRepository
	patients repository.PatientRepository
	doctors  repository.DoctorRepository
	users    repository.UserRepository
	notifier notification.Notifier
	anchor   anchor.Client
	hooks    *hooks.Runner
	now      func() time.Time
}

func NewService(
	repo repository.ConnectionRepository,
	patients repository.PatientRepository,
	doctors repository.DoctorRepository,
	users repository.UserRepository,
	notifier notification.Notifier,
	anchorClient anchor.Client,
	runner *hooks.Runner,
) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		doctors:  doctors,
		users:    users,
		notifier: notifier,
		anchor:   anchorClient,
		hooks:    runner,
		now:      time.Now,
	}
}

// RequestAccess opens a PENDING request from a patient to a doctor. A
// revoked record is reopened instead of duplicated.
func (s *Service) RequestAccess(ctx context.Context, patientID, doctorID uuid.UUID) (*model.Connection, error) {
	patient, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("Patient with ID %s not found", patientID), "get patient")
	}
	doctor, err := s.doctors.GetByID(ctx, doctorID)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("Doctor with ID %s not found", doctorID), "get doctor")
	}

	conn, err := s.reopenOrCreate(ctx, doctorID, patientID, nil)
	if err != nil {
		return nil, err
	}
	conn.DoctorUserID, conn.DoctorName = doctor.UserID, doctor.Name
	conn.PatientUserID, conn.PatientName = patient.UserID, patient.Name

	var l hooks.List
	l.Add("notify.connection_requested", s.notify(notification.ConnectionUpdated(doctor.UserID, conn.ID, patient.Name, model.ConnectionPending)))
	s.hooks.Run(ctx, &l)
	return conn, nil
}

// RequestAccessAsPatient resolves the caller's patient profile first.
func (s *Service) RequestAccessAsPatient(ctx context.Context, patientUserID, doctorID uuid.UUID) (*model.Connection, error) {
	patient, err := s.patients.GetByUserID(ctx, patientUserID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.Unauthorized("Patient profile not found for the current user.")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return s.RequestAccess(ctx, patient.ID, doctorID)
}

// reopenOrCreate moves an existing REVOKED record back to PENDING or inserts
// a new one. ACTIVE and PENDING records are conflicts.
func (s *Service) reopenOrCreate(ctx context.Context, doctorID, patientID uuid.UUID, code *string) (*model.Connection, error) {
	conn, err := s.repo.GetByPair(ctx, doctorID, patientID)
	if err != nil && !stderrors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}

	if conn == nil {
		conn = &model.Connection{
			DoctorID:       doctorID,
			PatientID:      patientID,
			Status:         model.ConnectionPending,
			ConnectionCode: code,
		}
		if err := s.repo.Create(ctx, conn); err != nil {
			if stderrors.Is(err, repository.ErrDuplicate) {
				return nil, errors.Conflict("Access request already pending.")
			}
			return nil, fmt.Errorf("failed to create connection: %w", err)
		}
		return conn, nil
	}

	switch conn.Status {
	case model.ConnectionActive:
		return nil, errors.Conflict("Access already granted.")
	case model.ConnectionPending:
		return nil, errors.Conflict("Access request already pending.")
	}
	conn.ConnectionCode = code
	if err := s.transition(ctx, conn, model.ConnectionPending); err != nil {
		return nil, err
	}
	return conn, nil
}

// GrantAccess lets the doctor accept a pending request.
func (s *Service) GrantAccess(ctx context.Context, doctorID, patientID, callerUserID uuid.UUID) (*model.Connection, error) {
	conn, err := s.repo.GetByPair(ctx, doctorID, patientID)
	if err != nil {
		return nil, notFound(err, "Access request not found.", "get connection")
	}
	if conn.DoctorUserID != callerUserID {
		return nil, errors.Unauthorized("You are not authorized to grant this access.")
	}
	if conn.Status != model.ConnectionPending {
		return nil, errors.Conflict(fmt.Sprintf("Request is not in PENDING state (current state: %s).", conn.Status))
	}
	if err := s.transition(ctx, conn, model.ConnectionActive); err != nil {
		return nil, err
	}

	var l hooks.List
	l.Add("notify.connection_granted", s.notify(notification.ConnectionUpdated(conn.PatientUserID, conn.ID, conn.DoctorName, model.ConnectionActive)))
	s.hooks.Run(ctx, &l)
	return conn, nil
}

// RevokeAccess ends a connection. Only its patient or doctor may do so.
func (s *Service) RevokeAccess(ctx context.Context, connectionID uuid.UUID, caller *model.User) (*model.Connection, error) {
	conn, err := s.repo.GetByID(ctx, connectionID)
	if err != nil {
		return nil, notFound(err, "Doctor-Patient connection not found.", "get connection")
	}

	isPatient := caller.Role.IsPatient() && conn.PatientUserID == caller.ID
	isDoctor := caller.Role == model.RoleDoctor && conn.DoctorUserID == caller.ID
	if !isPatient && !isDoctor {
		return nil, errors.Unauthorized("You are not authorized to revoke this access.")
	}
	if conn.Status == model.ConnectionRevoked {
		return nil, errors.Conflict("Access already revoked.")
	}
	conn.ConnectionCode = nil
	if err := s.transition(ctx, conn, model.ConnectionRevoked); err != nil {
		return nil, err
	}

	recipient, counterpart := conn.DoctorUserID, conn.PatientName
	if isDoctor {
		recipient, counterpart = conn.PatientUserID, conn.DoctorName
	}
	var l hooks.List
	l.Add("notify.connection_revoked", s.notify(notification.ConnectionUpdated(recipient, conn.ID, counterpart, model.ConnectionRevoked)))
	s.hooks.Run(ctx, &l)
	return conn, nil
}

// GetActiveConnection returns the pair's record only while it is ACTIVE.
// A nil record with a nil error means no access.
func (s *Service) GetActiveConnection(ctx context.Context, patientID, doctorID uuid.UUID) (*model.Connection, error) {
	conn, err := s.repo.GetActive(ctx, doctorID, patientID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active connection: %w", err)
	}
	if conn.Status != model.ConnectionActive {
		return nil, nil
	}
	return conn, nil
}

// RequestAccessByWallet opens a request addressed by the patient's wallet.
// The returned code is what the patient signs to approve it.
func (s *Service) RequestAccessByWallet(ctx context.Context, doctorUserID uuid.UUID, walletAddress string) (*model.WalletConnectionResponse, error) {
	doctor, err := s.doctors.GetByUserID(ctx, doctorUserID)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("Doctor with User ID %s not found", doctorUserID), "get doctor")
	}
	patient, err := s.patients.GetByWallet(ctx, model.NormalizeWallet(walletAddress))
	if err != nil {
		return nil, notFound(err, "No patient found with this wallet address", "get patient")
	}

	code, err := newConnectionCode()
	if err != nil {
		return nil, err
	}
	conn, err := s.reopenOrCreate(ctx, doctor.ID, patient.ID, &code)
	if err != nil {
		return nil, err
	}
	conn.DoctorUserID, conn.DoctorName = doctor.UserID, doctor.Name
	conn.PatientUserID, conn.PatientName = patient.UserID, patient.Name

	var l hooks.List
	l.Add("notify.connection_request", s.notify(notification.ConnectionRequested(patient.UserID, conn.ID)))
	s.hooks.Run(ctx, &l)

	return &model.WalletConnectionResponse{
		Connection:     conn,
		MessageToSign:  code,
		ConnectionCode: code,
	}, nil
}

// VerifyAndApproveConnection activates a wallet request once the patient's
// signature over its code recovers to the patient's registered wallet.
func (s *Service) VerifyAndApproveConnection(ctx context.Context, connectionID uuid.UUID, signature string, patientUserID uuid.UUID) (*model.Connection, error) {
	patient, err := s.patients.GetByUserID(ctx, patientUserID)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("Patient with User ID %s not found", patientUserID), "get patient")
	}
	conn, err := s.repo.GetByID(ctx, connectionID)
	if err != nil {
		return nil, notFound(err, "Connection request not found", "get connection")
	}
	if conn.PatientID != patient.ID {
		return nil, errors.Unauthorized("This connection request is not for you")
	}
	if conn.ConnectionCode == nil || *conn.ConnectionCode == "" {
		return nil, errors.BadRequest("Connection code is missing", nil)
	}
	if conn.Status != model.ConnectionPending {
		return nil, errors.Conflict(fmt.Sprintf("Request is not in PENDING state (current state: %s).", conn.Status))
	}

	user, err := s.users.GetByID(ctx, patientUserID)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("User with ID %s not found", patientUserID), "get user")
	}
	if user.WalletAddress == nil || !wallet.Verify(*conn.ConnectionCode, signature, *user.WalletAddress) {
		return nil, errors.Unauthorized("Invalid signature")
	}

	conn.ConnectionCode = nil
	if err := s.transition(ctx, conn, model.ConnectionActive); err != nil {
		return nil, err
	}

	payload := model.JSONMap{
		"action":            "connection_approved",
		"connectionId":      conn.ID.String(),
		"doctorId":          conn.DoctorID.String(),
		"patientId":         conn.PatientID.String(),
		"timestamp":         s.now().UTC().Format(time.RFC3339Nano),
		"signatureVerified": true,
	}
	var l hooks.List
	l.Add("anchor.connection_approved", hooks.Anchor(s.anchor, payload, func(ctx context.Context, txHash string) error {
		conn.BlockchainTxHash = &txHash
		return s.repo.SetTxHash(ctx, conn.ID, txHash)
	}))
	l.Add("notify.connection_approved", s.notify(notification.ConnectionUpdated(conn.DoctorUserID, conn.ID, patient.Name, model.ConnectionActive)))
	s.hooks.Run(ctx, &l)
	return conn, nil
}

// ListForPatient returns every connection of the patient user.
func (s *Service) ListForPatient(ctx context.Context, patientUserID uuid.UUID) ([]*model.Connection, error) {
	patient, err := s.patients.GetByUserID(ctx, patientUserID)
	if err != nil {
		return nil, notFound(err, "Patient not found", "get patient")
	}
	conns, err := s.repo.ListByPatient(ctx, patient.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	return conns, nil
}

// ListForDoctor returns every connection of the doctor user.
func (s *Service) ListForDoctor(ctx context.Context, doctorUserID uuid.UUID) ([]*model.Connection, error) {
	return s.listForDoctor(ctx, doctorUserID, nil)
}

// MyPatients returns the doctor's ACTIVE connections.
func (s *Service) MyPatients(ctx context.Context, doctorUserID uuid.UUID) ([]*model.Connection, error) {
	active := model.ConnectionActive
	return s.listForDoctor(ctx, doctorUserID, &active)
}

func (s *Service) listForDoctor(ctx context.Context, doctorUserID uuid.UUID, status *model.ConnectionStatus) ([]*model.Connection, error) {
	doctor, err := s.doctors.GetByUserID(ctx, doctorUserID)
	if err != nil {
		return nil, notFound(err, "Doctor not found", "get doctor")
	}
	conns, err := s.repo.ListByDoctor(ctx, doctor.ID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	return conns, nil
}

// transition applies the status change in memory and persists it with a
// conditional update on the previous status.
func (s *Service) transition(ctx context.Context, conn *model.Connection, to model.ConnectionStatus) error {
	from := conn.Status
	if err := conn.Transition(to); err != nil {
		return errors.Conflict(err.Error())
	}
	err := s.repo.UpdateStatus(ctx, conn, from)
	if stderrors.Is(err, repository.ErrStaleState) {
		conn.Status = from
		return errors.Conflict("Connection was modified by another request.")
	}
	if err != nil {
		conn.Status = from
		return fmt.Errorf("failed to update connection: %w", err)
	}
	return nil
}

func (s *Service) notify(n *model.Notification) hooks.Func {
	return func(ctx context.Context) error {
		return s.notifier.Notify(ctx, n)
	}
}

func newConnectionCode() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate connection code: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// notFound maps a repository miss to NotFound and wraps anything else.
func notFound(err error, msg, action string) error {
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.NotFound(msg, nil)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
