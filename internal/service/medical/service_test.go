package medical

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rpmweb/rpm-api/internal/hooks"
	"github.com/rpmweb/rpm-api/internal/model"
	"github.com/rpmweb/rpm-api/internal/repository"
	"github.com/rpmweb/rpm-api/internal/repository/mocks"
	"github.com/rpmweb/rpm-api/pkg/anchor"
	"github.com/rpmweb/rpm-api/pkg/errors"
	"github.com/rpmweb/rpm-api/pkg/logger"
	"github.com/rpmweb/rpm-api/pkg/metrics"
	"github.com/rpmweb/rpm-api/pkg/pinning"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []*model.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n *model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

type fakePinning struct {
	pins      map[string][]byte
	uploadErr error
	removeErr error
}

func newFakePinning() *fakePinning { return &fakePinning{pins: map[string][]byte{}} }

func (p *fakePinning) Upload(_ context.Context, name string, content io.Reader, _ map[string]string) (*pinning.PinResult, error) {
	if p.uploadErr != nil {
		return nil, p.uploadErr
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return nil, err
	}
	hash := "bafy" + name
	p.pins[hash] = data
	return &pinning.PinResult{IpfsHash: hash, PinSize: int64(len(data))}, nil
}

func (p *fakePinning) Remove(_ context.Context, hash string) error {
	if p.removeErr != nil {
		return p.removeErr
	}
	delete(p.pins, hash)
	return nil
}

func (p *fakePinning) Exists(_ context.Context, hash string) (bool, error) {
	_, ok := p.pins[hash]
	return ok, nil
}

func (p *fakePinning) GatewayURL(hash string) string { return "https://gateway.test/ipfs/" + hash }

type fakeAnchor struct {
	payloads []interface{}
}

func (f *fakeAnchor) Store(_ context.Context, payload interface{}) (string, error) {
	f.payloads = append(f.payloads, payload)
	return "0xabc", nil
}

func (f *fakeAnchor) Verify(context.Context, string, interface{}) (bool, error) { return true, nil }

type fixture struct {
	svc      *Service
	repo     *mocks.MedicalRecordRepository
	patients *mocks.PatientRepository
	doctors  *mocks.DoctorRepository
	pins     *fakePinning
	anchor   *fakeAnchor
	notifier *recordingNotifier

	patient *model.Patient
	doctor  *model.Doctor
}

func setup() *fixture {
	f := &fixture{
		repo:     &mocks.MedicalRecordRepository{},
		patients: &mocks.PatientRepository{},
		doctors:  &mocks.DoctorRepository{},
		pins:     newFakePinning(),
		anchor:   &fakeAnchor{},
		notifier: &recordingNotifier{},
		patient:  &model.Patient{Base: model.Base{ID: uuid.New()}, UserID: uuid.New(), Name: "Pat"},
		doctor:   &model.Doctor{Base: model.Base{ID: uuid.New()}, UserID: uuid.New(), Name: "Dr. Who"},
	}
	runner := hooks.NewRunner(logger.Nop(), metrics.New("medical_test"), time.Second)
	f.svc = NewService(f.repo, f.patients, f.doctors, f.pins, f.notifier, f.anchor, runner)
	return f
}

func (f *fixture) record(createdBy uuid.UUID) *model.MedicalRecord {
	return &model.MedicalRecord{
		Base:          model.Base{ID: uuid.New()},
		PatientID:     f.patient.ID,
		DoctorID:      &f.doctor.ID,
		DoctorUserID:  &f.doctor.UserID,
		CreatedByID:   createdBy,
		Diagnosis:     "Hypertension",
		Attachments:   model.Attachments{},
		PatientUserID: f.patient.UserID,
		PatientName:   f.patient.Name,
	}
}

func TestCreateByDoctorDefaultsAssignment(t *testing.T) {
	ctx := context.Background()
	f := setup()
	caller := &model.User{Base: model.Base{ID: f.doctor.UserID}, Role: model.RoleDoctor}
	f.patients.On("GetByID", ctx, f.patient.ID).Return(f.patient, nil)
	f.doctors.On("GetByUserID", ctx, caller.ID).Return(f.doctor, nil)
	f.repo.On("Create", ctx, mock.AnythingOfType("*model.MedicalRecord")).Return(nil)
	f.repo.On("SetTxHash", mock.Anything, mock.Anything, "0xabc").Return(nil)

	record, err := f.svc.Create(ctx, caller, &model.CreateMedicalRecordRequest{PatientID: f.patient.ID, Diagnosis: "Flu"})
	require.NoError(t, err)
	assert.Equal(t, f.doctor.ID, *record.DoctorID)
	assert.Equal(t, caller.ID, record.CreatedByID)
	assert.Equal(t, "0xabc", *record.BlockchainTxHash)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, f.patient.UserID, f.notifier.sent[0].UserID)
}

func TestCreateAnchorFailureKeepsRecord(t *testing.T) {
	ctx := context.Background()
	f := setup()
	f.svc.anchor = anchor.Noop{}
	f.patients.On("GetByID", ctx, f.patient.ID).Return(f.patient, nil)
	f.repo.On("Create", ctx, mock.Anything).Return(nil)

	record, err := f.svc.Create(ctx, &model.User{Role: model.RoleAdmin}, &model.CreateMedicalRecordRequest{PatientID: f.patient.ID, Diagnosis: "Flu"})
	require.NoError(t, err)
	assert.Nil(t, record.BlockchainTxHash)
	assert.Nil(t, record.DoctorID)
}

func TestCreateRequiresClinician(t *testing.T) {
	f := setup()
	_, err := f.svc.Create(context.Background(), &model.User{Role: model.RolePatient}, &model.CreateMedicalRecordRequest{})
	assert.True(t, errors.Is(err, errors.ErrForbidden))
}

func TestCreateMissingPatient(t *testing.T) {
	ctx := context.Background()
	f := setup()
	id := uuid.New()
	f.patients.On("GetByID", ctx, id).Return(nil, repository.ErrNotFound)

	_, err := f.svc.Create(ctx, &model.User{Role: model.RoleAdmin}, &model.CreateMedicalRecordRequest{PatientID: id})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestUpdateNotifiesDoctorWhenSomeoneElseEdits(t *testing.T) {
	ctx := context.Background()
	f := setup()
	admin := &model.User{Base: model.Base{ID: uuid.New()}, Role: model.RoleAdmin}
	record := f.record(admin.ID)
	f.repo.On("GetByID", ctx, record.ID).Return(record, nil)
	f.repo.On("Update", ctx, record).Return(nil)
	f.repo.On("SetTxHash", mock.Anything, record.ID, "0xabc").Return(nil)

	diagnosis := "Controlled hypertension"
	_, err := f.svc.Update(ctx, admin, record.ID, &model.UpdateMedicalRecordRequest{Diagnosis: &diagnosis})
	require.NoError(t, err)

	require.Len(t, f.notifier.sent, 2)
	assert.Equal(t, f.patient.UserID, f.notifier.sent[0].UserID)
	assert.Equal(t, f.doctor.UserID, f.notifier.sent[1].UserID)
}

func TestUpdateByStrangerForbidden(t *testing.T) {
	ctx := context.Background()
	f := setup()
	record := f.record(uuid.New())
	f.repo.On("GetByID", ctx, record.ID).Return(record, nil)

	_, err := f.svc.Update(ctx, &model.User{Base: model.Base{ID: uuid.New()}, Role: model.RoleDoctor}, record.ID, &model.UpdateMedicalRecordRequest{})
	assert.True(t, errors.Is(err, errors.ErrForbidden))
}

func TestGetOtherPatientsRecord(t *testing.T) {
	ctx := context.Background()
	f := setup()
	record := f.record(uuid.New())
	f.repo.On("GetByID", ctx, record.ID).Return(record, nil)

	_, err := f.svc.Get(ctx, &model.User{Base: model.Base{ID: uuid.New()}, Role: model.RolePatient}, record.ID)
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	got, err := f.svc.Get(ctx, &model.User{Base: model.Base{ID: f.patient.UserID}, Role: model.RolePatient}, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
}

func TestDeleteAdminOnly(t *testing.T) {
	f := setup()
	err := f.svc.Delete(context.Background(), &model.User{Role: model.RoleDoctor}, uuid.New())
	assert.True(t, errors.Is(err, errors.ErrForbidden))
}

func TestFileLifecycle(t *testing.T) {
	ctx := context.Background()
	f := setup()
	creator := &model.User{Base: model.Base{ID: f.doctor.UserID}, Role: model.RoleDoctor}
	record := f.record(creator.ID)
	f.repo.On("GetByID", ctx, record.ID).Return(record, nil)
	f.repo.On("UpdateAttachments", mock.Anything, record.ID, mock.Anything).Return(nil)

	file, err := f.svc.AddFile(ctx, creator, record.ID, &Upload{
		Name:     "ecg.pdf",
		MimeType: "application/pdf",
		Size:     4,
		Content:  strings.NewReader("%PDF"),
	})
	require.NoError(t, err)
	assert.Equal(t, "bafyecg.pdf", file.IPFSHash)
	assert.Equal(t, "https://gateway.test/ipfs/bafyecg.pdf", file.GatewayURL)
	require.NotNil(t, file.BlockchainTxHash)
	require.Len(t, f.anchor.payloads, 1)
	assert.Equal(t, "medical_record_file_added", f.anchor.payloads[0].(model.JSONMap)["action"])

	patient := &model.User{Base: model.Base{ID: f.patient.UserID}, Role: model.RolePatient}
	details, err := f.svc.GetFile(ctx, patient, record.ID, file.ID)
	require.NoError(t, err)
	assert.True(t, details.Exists)

	err = f.svc.RemoveFile(ctx, patient, record.ID, file.ID)
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	require.NoError(t, f.svc.RemoveFile(ctx, creator, record.ID, file.ID))
	assert.Empty(t, record.Attachments)
	assert.Empty(t, f.pins.pins)
	assert.Equal(t, "medical_record_file_removed", f.anchor.payloads[1].(model.JSONMap)["action"])
}

func TestAddFileRejectsOversize(t *testing.T) {
	ctx := context.Background()
	f := setup()
	admin := &model.User{Role: model.RoleAdmin}
	record := f.record(uuid.New())
	f.repo.On("GetByID", ctx, record.ID).Return(record, nil)

	_, err := f.svc.AddFile(ctx, admin, record.ID, &Upload{Name: "big.bin", Size: model.MaxAttachmentSize + 1, Content: strings.NewReader("")})
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
}

func TestPinFailureFailsAddFile(t *testing.T) {
	ctx := context.Background()
	f := setup()
	f.pins.uploadErr = pinning.ErrNotConfigured
	admin := &model.User{Role: model.RoleAdmin}
	record := f.record(uuid.New())
	f.repo.On("GetByID", ctx, record.ID).Return(record, nil)

	_, err := f.svc.AddFile(ctx, admin, record.ID, &Upload{Name: "x.txt", Size: 1, Content: strings.NewReader("x")})
	require.ErrorIs(t, err, pinning.ErrNotConfigured)
	f.repo.AssertNotCalled(t, "UpdateAttachments", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.anchor.payloads)
}

func TestUnpinFailureKeepsAttachment(t *testing.T) {
	ctx := context.Background()
	f := setup()
	admin := &model.User{Role: model.RoleAdmin}
	record := f.record(uuid.New())
	fileID := uuid.New()
	record.Attachments = model.Attachments{{ID: fileID, Name: "a.txt", IPFSHash: "bafya"}}
	f.repo.On("GetByID", ctx, record.ID).Return(record, nil)
	f.pins.removeErr = assert.AnError

	err := f.svc.RemoveFile(ctx, admin, record.ID, fileID)
	require.Error(t, err)
	assert.Len(t, record.Attachments, 1)
}
