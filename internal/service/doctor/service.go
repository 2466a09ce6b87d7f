package doctor

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
	repo  repository.DoctorRepository
	users repository.UserRepository
}

func NewService(repo repository.DoctorRepository, users repository.UserRepository) *Service {
	return &Service{repo: repo, users: users}
}

// Create adds a doctor profile. Admins create it for anyone, a doctor only
// for themselves.
func (s *Service) Create(ctx context.Context, caller *model.User, req *model.CreateDoctorRequest) (*model.Doctor, error) {
	userID := req.UserID
	if caller.Role != model.RoleAdmin {
		if userID != uuid.Nil && userID != caller.ID {
			return nil, errors.Forbidden("You can only create your own doctor profile")
		}
		userID = caller.ID
	}
	if userID == uuid.Nil {
		return nil, errors.BadRequest("user_id is required", nil)
	}

	_, err := s.repo.GetByUserID(ctx, userID)
	if err == nil {
		return nil, errors.Conflict("Doctor with this user ID already exists")
	}
	if !stderrors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFound(fmt.Sprintf("User with ID %s not found", userID), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	d := &model.Doctor{
		UserID:         userID,
		Specialization: req.Specialization,
		LicenseNumber:  req.LicenseNumber,
		Hospital:       req.Hospital,
		PhoneNumber:    req.PhoneNumber,
		Education:      req.Education,
		Bio:            req.Bio,
		Name:           user.Name,
		Email:          user.Email,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return nil, errors.Conflict("Doctor with this user ID already exists")
		}
		return nil, fmt.Errorf("failed to create doctor: %w", err)
	}

	if user.Role != model.RoleDoctor && user.Role != model.RoleAdmin {
		if err := s.users.UpdateRole(ctx, user.ID, model.RoleDoctor); err != nil {
			return nil, fmt.Errorf("failed to promote user: %w", err)
		}
	}
	return d, nil
}

func (s *Service) List(ctx context.Context) ([]*model.Doctor, error) {
	doctors, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	d, err := s.repo.GetByID(ctx, id)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFound(fmt.Sprintf("Doctor with ID %s not found", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	return d, nil
}

func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*model.Doctor, error) {
	d, err := s.repo.GetByUserID(ctx, userID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFound(fmt.Sprintf("Doctor with User ID %s not found", userID), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	return d, nil
}

// Update is open to admins and to the doctor who owns the profile. Only an
// admin can change the verified flag.
func (s *Service) Update(ctx context.Context, caller *model.User, id uuid.UUID, req *model.UpdateDoctorRequest) (*model.Doctor, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.Role != model.RoleAdmin {
		if d.UserID != caller.ID {
			return nil, errors.Unauthorized("You can only update your own profile")
		}
		req.IsVerified = nil
	}

	req.Apply(d)
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to update doctor: %w", err)
	}
	return d, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete doctor: %w", err)
	}
	return nil
}
