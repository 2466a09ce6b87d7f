package patient

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rpmweb/rpm-api/internal/model"
	"github.com/rpmweb/rpm-api/internal/repository"
	"github.com/rpmweb/rpm-api/internal/repository/mocks"
	"github.com/rpmweb/rpm-api/pkg/errors"
)

func createRequest(userID uuid.UUID) *model.CreatePatientRequest {
	return &model.CreatePatientRequest{
		UserID:      userID,
		DateOfBirth: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Gender:      model.GenderFemale,
		PhoneNumber: "+15550100",
	}
}

func TestCreateSelfOnboardingPromotesUser(t *testing.T) {
	ctx := context.Background()
	caller := &model.User{Base: model.Base{ID: uuid.New()}, Name: "Ada", Role: model.RoleUser}
	repo := &mocks.PatientRepository{}
	users := &mocks.UserRepository{}
	repo.On("GetByUserID", ctx, caller.ID).Return(nil, repository.ErrNotFound)
	users.On("GetByID", ctx, caller.ID).Return(caller, nil)
	repo.On("Create", ctx, mock.MatchedBy(func(p *model.Patient) bool { return p.UserID == caller.ID })).Return(nil)
	users.On("UpdateRole", ctx, caller.ID, model.RolePatient).Return(nil)

	p, err := NewService(repo, users).Create(ctx, caller, createRequest(uuid.Nil))
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.Name)
	repo.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestCreatePatientCannotOnboardSomeoneElse(t *testing.T) {
	caller := &model.User{Base: model.Base{ID: uuid.New()}, Role: model.RolePatient}
	_, err := NewService(&mocks.PatientRepository{}, &mocks.UserRepository{}).Create(context.Background(), caller, createRequest(uuid.New()))
	assert.True(t, errors.Is(err, errors.ErrForbidden))
}

func TestCreateDuplicateProfile(t *testing.T) {
	ctx := context.Background()
	target := uuid.New()
	repo := &mocks.PatientRepository{}
	repo.On("GetByUserID", ctx, target).Return(&model.Patient{}, nil)

	_, err := NewService(repo, &mocks.UserRepository{}).Create(ctx, &model.User{Role: model.RoleAdmin}, createRequest(target))
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestGetOtherPatientForbidden(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	repo := &mocks.PatientRepository{}
	repo.On("GetByID", ctx, id).Return(&model.Patient{Base: model.Base{ID: id}, UserID: uuid.New()}, nil)
	svc := NewService(repo, &mocks.UserRepository{})

	_, err := svc.Get(ctx, &model.User{Base: model.Base{ID: uuid.New()}, Role: model.RolePatient}, id)
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	_, err = svc.Get(ctx, &model.User{Role: model.RoleDoctor}, id)
	assert.NoError(t, err)
}

func TestUpdateByOwner(t *testing.T) {
	ctx := context.Background()
	owner := &model.User{Base: model.Base{ID: uuid.New()}, Role: model.RolePatient}
	id := uuid.New()
	repo := &mocks.PatientRepository{}
	repo.On("GetByID", ctx, id).Return(&model.Patient{Base: model.Base{ID: id}, UserID: owner.ID, PhoneNumber: "+1"}, nil)
	repo.On("Update", ctx, mock.AnythingOfType("*model.Patient")).Return(nil)

	phone := "+15550199"
	p, err := NewService(repo, &mocks.UserRepository{}).Update(ctx, owner, id, &model.UpdatePatientRequest{PhoneNumber: &phone})
	require.NoError(t, err)
	assert.Equal(t, phone, p.PhoneNumber)
}

func TestProfileNotFound(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	repo := &mocks.PatientRepository{}
	repo.On("GetByUserID", ctx, userID).Return(nil, repository.ErrNotFound)

	_, err := NewService(repo, &mocks.UserRepository{}).Profile(ctx, userID)
	require.Error(t, err)
	assert.Equal(t, "Patient with User ID "+userID.String()+" not found", errors.As(err).Message)
}
