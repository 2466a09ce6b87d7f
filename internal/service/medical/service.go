// Package medical manages medical records, their anchoring and the files
// pinned to them.
package medical

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/rpmweb/rpm-api/internal/hooks"
	"github.com/rpmweb/rpm-api/internal/model"
	"github.com/rpmweb/rpm-api/internal/repository"
	"github.com/rpmweb/rpm-api/internal/service/notification"
	"github.com/rpmweb/rpm-api/pkg/anchor"
	"github.com/rpmweb/rpm-api/pkg/errors"
	"github.com/rpmweb/rpm-api/pkg/pinning"
)

// Upload is one file received for a record.
type Upload struct {
	Name     string
	MimeType string
	Size     int64
	Content  io.Reader
}

type Service struct {
	repo     repository.MedicalRecordRepository
	patients repository.PatientRepository
	doctors  repository.DoctorRepository
	pinning  pinning.Service
	notifier notification.Notifier
	anchor   anchor.Client
	hooks    *hooks.Runner
	now      func() time.Time
}

func NewService(
	repo repository.MedicalRecordRepository,
	patients repository.PatientRepository,
	doctors repository.DoctorRepository,
	pin pinning.Service,
	notifier notification.Notifier,
	anchorClient anchor.Client,
	runner *hooks.Runner,
) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		doctors:  doctors,
		pinning:  pin,
		notifier: notifier,
		anchor:   anchorClient,
		hooks:    runner,
		now:      time.Now,
	}
}

func (s *Service) Create(ctx context.Context, caller *model.User, req *model.CreateMedicalRecordRequest) (*model.MedicalRecord, error) {
	if caller.Role != model.RoleAdmin && caller.Role != model.RoleDoctor {
		return nil, errors.Forbidden("Only doctors and admins can create medical records")
	}

	patient, err := s.patients.GetByID(ctx, req.PatientID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFound(fmt.Sprintf("Patient with ID %s not found", req.PatientID), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	var doctor *model.Doctor
	switch {
	case req.DoctorID != nil:
		doctor, err = s.doctors.GetByID(ctx, *req.DoctorID)
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound(fmt.Sprintf("Doctor with ID %s not found", *req.DoctorID), nil)
		}
	case caller.Role == model.RoleDoctor:
		doctor, err = s.doctors.GetByUserID(ctx, caller.ID)
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("Doctor profile not found", nil)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}

	record := &model.MedicalRecord{
		PatientID:     patient.ID,
		CreatedByID:   caller.ID,
		Diagnosis:     req.Diagnosis,
		Treatment:     req.Treatment,
		Medication:    req.Medication,
		Notes:         req.Notes,
		Attachments:   model.Attachments{},
		PatientUserID: patient.UserID,
		PatientName:   patient.Name,
	}
	if doctor != nil {
		record.DoctorID = &doctor.ID
		record.DoctorUserID = &doctor.UserID
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create medical record: %w", err)
	}

	var l hooks.List
	l.Add("anchor.medical_record", s.anchorRecord(record))
	l.Add("notify.medical_record", s.notify(notification.MedicalRecordUpdated(patient.UserID, patient.Name, record.ID)))
	s.hooks.Run(ctx, &l)
	return record, nil
}

func (s *Service) List(ctx context.Context) ([]*model.MedicalRecord, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list medical records: %w", err)
	}
	return records, nil
}

// ListByPatient returns a patient's records. Patients only see their own.
func (s *Service) ListByPatient(ctx context.Context, caller *model.User, patientID uuid.UUID) ([]*model.MedicalRecord, error) {
	if caller.Role.IsPatient() {
		patient, err := s.patients.GetByID(ctx, patientID)
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound(fmt.Sprintf("Patient with ID %s not found", patientID), nil)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get patient: %w", err)
		}
		if patient.UserID != caller.ID {
			return nil, errors.Forbidden("You can only view your own medical records")
		}
	}
	records, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list medical records: %w", err)
	}
	return records, nil
}

func (s *Service) Get(ctx context.Context, caller *model.User, id uuid.UUID) (*model.MedicalRecord, error) {
	record, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.Role.IsPatient() && record.PatientUserID != caller.ID {
		return nil, errors.Forbidden("You can only view your own medical records")
	}
	return record, nil
}

// Update is open to the creator, the assigned doctor and admins.
func (s *Service) Update(ctx context.Context, caller *model.User, id uuid.UUID, req *model.UpdateMedicalRecordRequest) (*model.MedicalRecord, error) {
	record, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canEdit(caller, record) {
		return nil, errors.Forbidden("You do not have permission to update this medical record")
	}
	if req.DoctorID != nil {
		doctor, err := s.doctors.GetByID(ctx, *req.DoctorID)
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound(fmt.Sprintf("Doctor with ID %s not found", *req.DoctorID), nil)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get doctor: %w", err)
		}
		record.DoctorUserID = &doctor.UserID
	}

	req.Apply(record)
	if err := s.repo.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to update medical record: %w", err)
	}

	var l hooks.List
	l.Add("anchor.medical_record", s.anchorRecord(record))
	l.Add("notify.medical_record", s.notify(notification.MedicalRecordUpdated(record.PatientUserID, record.PatientName, record.ID)))
	if record.DoctorUserID != nil && *record.DoctorUserID != caller.ID {
		l.Add("notify.medical_record_doctor", s.notify(notification.MedicalRecordUpdated(*record.DoctorUserID, record.PatientName, record.ID)))
	}
	s.hooks.Run(ctx, &l)
	return record, nil
}

func (s *Service) Delete(ctx context.Context, caller *model.User, id uuid.UUID) error {
	if caller.Role != model.RoleAdmin {
		return errors.Forbidden("Only admins can delete medical records")
	}
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete medical record: %w", err)
	}
	return nil
}

// Verify recomputes the record digest and checks it against the anchored
// receipt.
func (s *Service) Verify(ctx context.Context, caller *model.User, id uuid.UUID) (*model.VerificationResult, error) {
	record, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	ok, err := anchor.Check(ctx, s.anchor, record.BlockchainTxHash, record.AnchorPayload())
	if err != nil {
		return nil, err
	}
	return &model.VerificationResult{IsVerified: ok, TxHash: record.BlockchainTxHash, Record: record}, nil
}

// AddFile pins the upload and appends it to the record's attachments. A
// pinning failure fails the call.
func (s *Service) AddFile(ctx context.Context, caller *model.User, recordID uuid.UUID, up *Upload) (*model.MedicalRecordFile, error) {
	record, err := s.get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if !canEdit(caller, record) {
		return nil, errors.Forbidden("You do not have permission to add files to this medical record")
	}
	if up.Size > model.MaxAttachmentSize {
		return nil, errors.BadRequest("File exceeds the 10 MB limit", nil)
	}

	pinned, err := s.pinning.Upload(ctx, up.Name, io.LimitReader(up.Content, model.MaxAttachmentSize+1), map[string]string{
		"recordId":   record.ID.String(),
		"patientId":  record.PatientID.String(),
		"uploadedBy": caller.ID.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	file := model.MedicalRecordFile{
		ID:         uuid.New(),
		Name:       up.Name,
		IPFSHash:   pinned.IpfsHash,
		MimeType:   up.MimeType,
		Size:       up.Size,
		UploadedAt: s.now().UTC(),
		UploadedBy: caller.ID,
		GatewayURL: s.pinning.GatewayURL(pinned.IpfsHash),
	}
	record.Attachments = append(record.Attachments, file)
	if err := s.repo.UpdateAttachments(ctx, record.ID, record.Attachments); err != nil {
		// Do not leave an orphaned pin behind.
		_ = s.pinning.Remove(context.WithoutCancel(ctx), file.IPFSHash)
		return nil, fmt.Errorf("failed to save attachment: %w", err)
	}

	payload := s.filePayload("medical_record_file_added", record, &file)
	var l hooks.List
	l.Add("anchor.medical_record_file", hooks.Anchor(s.anchor, payload, func(ctx context.Context, txHash string) error {
		file.BlockchainTxHash = &txHash
		if i := record.Attachments.Find(file.ID); i >= 0 {
			record.Attachments[i].BlockchainTxHash = &txHash
		}
		return s.repo.UpdateAttachments(ctx, record.ID, record.Attachments)
	}))
	s.hooks.Run(ctx, &l)
	return &file, nil
}

func (s *Service) ListFiles(ctx context.Context, caller *model.User, recordID uuid.UUID) (model.Attachments, error) {
	record, err := s.get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if !canRead(caller, record) {
		return nil, errors.Forbidden("You do not have permission to view files of this medical record")
	}
	return record.Attachments, nil
}

// GetFile returns one attachment plus a live existence check against the
// pinning service.
func (s *Service) GetFile(ctx context.Context, caller *model.User, recordID, fileID uuid.UUID) (*model.FileDetails, error) {
	files, err := s.ListFiles(ctx, caller, recordID)
	if err != nil {
		return nil, err
	}
	i := files.Find(fileID)
	if i < 0 {
		return nil, errors.NotFound("File not found", nil)
	}

	details := &model.FileDetails{MedicalRecordFile: files[i]}
	details.Exists, err = s.pinning.Exists(ctx, files[i].IPFSHash)
	if err != nil {
		details.Error = err.Error()
	}
	return details, nil
}

// RemoveFile unpins the file and drops it from the record. Only admins and
// the record's creator may do so.
func (s *Service) RemoveFile(ctx context.Context, caller *model.User, recordID, fileID uuid.UUID) error {
	record, err := s.get(ctx, recordID)
	if err != nil {
		return err
	}
	if caller.Role != model.RoleAdmin && record.CreatedByID != caller.ID {
		return errors.Forbidden("You do not have permission to remove files from this medical record")
	}
	i := record.Attachments.Find(fileID)
	if i < 0 {
		return errors.NotFound("File not found", nil)
	}
	file := record.Attachments[i]

	if err := s.pinning.Remove(ctx, file.IPFSHash); err != nil {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	record.Attachments = append(record.Attachments[:i:i], record.Attachments[i+1:]...)
	if err := s.repo.UpdateAttachments(ctx, record.ID, record.Attachments); err != nil {
		return fmt.Errorf("failed to save attachments: %w", err)
	}

	var l hooks.List
	l.Add("anchor.medical_record_file", hooks.Anchor(s.anchor, s.filePayload("medical_record_file_removed", record, &file), nil))
	s.hooks.Run(ctx, &l)
	return nil
}

func (s *Service) filePayload(action string, record *model.MedicalRecord, file *model.MedicalRecordFile) model.JSONMap {
	return model.JSONMap{
		"action":    action,
		"recordId":  record.ID.String(),
		"patientId": record.PatientID.String(),
		"fileId":    file.ID.String(),
		"fileName":  file.Name,
		"ipfsHash":  file.IPFSHash,
		"timestamp": s.now().UTC().Format(time.RFC3339Nano),
	}
}

func (s *Service) anchorRecord(record *model.MedicalRecord) hooks.Func {
	return hooks.Anchor(s.anchor, record.AnchorPayload(), func(ctx context.Context, txHash string) error {
		record.BlockchainTxHash = &txHash
		return s.repo.SetTxHash(ctx, record.ID, txHash)
	})
}

func (s *Service) notify(n *model.Notification) hooks.Func {
	return func(ctx context.Context) error {
		return s.notifier.Notify(ctx, n)
	}
}

func (s *Service) get(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error) {
	record, err := s.repo.GetByID(ctx, id)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFound(fmt.Sprintf("Medical record with ID %s not found", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get medical record: %w", err)
	}
	return record, nil
}

func canEdit(caller *model.User, record *model.MedicalRecord) bool {
	return caller.Role == model.RoleAdmin ||
		record.CreatedByID == caller.ID ||
		(record.DoctorUserID != nil && *record.DoctorUserID == caller.ID)
}

func canRead(caller *model.User, record *model.MedicalRecord) bool {
	return canEdit(caller, record) || record.PatientUserID == caller.ID
}
