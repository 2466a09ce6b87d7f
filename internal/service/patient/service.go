package patient

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/rpmweb/rpm-api/internal/model"
	"github.com/rpmweb/rpm-api/internal/repository"
	"github.com/rpmweb/rpm-api/pkg/errors"
)

type Service struct {
	repo  repository.PatientRepository
	users repository.UserRepository
}

func NewService(repo repository.PatientRepository, users repository.UserRepository) *Service {
	return &Service{repo: repo, users: users}
}

// Create adds a patient profile. Patients may only onboard themselves; a
// USER who does is promoted to PATIENT.
func (s *Service) Create(ctx context.Context, caller *model.User, req *model.CreatePatientRequest) (*model.Patient, error) {
	userID := req.UserID
	if caller.Role.IsPatient() {
		if userID != uuid.Nil && userID != caller.ID {
			return nil, errors.Forbidden("You can only create your own patient profile")
		}
		userID = caller.ID
	}
	if userID == uuid.Nil {
		return nil, errors.BadRequest("user_id is required", nil)
	}

	_, err := s.repo.GetByUserID(ctx, userID)
	if err == nil {
		return nil, errors.Conflict("Patient with this user ID already exists")
	}
	if !stderrors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFound(fmt.Sprintf("User with ID %s not found", userID), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	p := &model.Patient{
		UserID:           userID,
		DateOfBirth:      req.DateOfBirth,
		Gender:           req.Gender,
		PhoneNumber:      req.PhoneNumber,
		BloodType:        req.BloodType,
		EmergencyContact: req.EmergencyContact,
		MedicalHistory:   req.MedicalHistory,
		Allergies:        req.Allergies,
		Medications:      req.Medications,
		Address:          req.Address,
		Name:             user.Name,
		Email:            user.Email,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return nil, errors.Conflict("Patient with this user ID already exists")
		}
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}

	if user.Role == model.RoleUser {
		if err := s.users.UpdateRole(ctx, user.ID, model.RolePatient); err != nil {
			return nil, fmt.Errorf("failed to promote user: %w", err)
		}
	}
	return p, nil
}

func (s *Service) List(ctx context.Context) ([]*model.Patient, error) {
	patients, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

// Get returns a profile. Patients only see their own.
func (s *Service) Get(ctx context.Context, caller *model.User, id uuid.UUID) (*model.Patient, error) {
	p, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.Role.IsPatient() && p.UserID != caller.ID {
		return nil, errors.Forbidden("You can only view your own profile")
	}
	return p, nil
}

func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*model.Patient, error) {
	p, err := s.repo.GetByUserID(ctx, userID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFound(fmt.Sprintf("Patient with User ID %s not found", userID), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, caller *model.User, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	p, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch caller.Role {
	case model.RoleAdmin, model.RoleDoctor:
	default:
		if p.UserID != caller.ID {
			return nil, errors.Forbidden("You can only update your own profile")
		}
	}

	req.Apply(p)
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}
	return nil
}

func (s *Service) get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFound(fmt.Sprintf("Patient with ID %s not found", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return p, nil
}
