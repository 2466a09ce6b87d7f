// Package mocks provides testify mocks of the repository interfaces.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/rpmweb/rpm-api/internal/model"
	"github.com/rpmweb/rpm-api/internal/repository"
)

var (
	_ repository.UserRepository          = (*UserRepository)(nil)
	_ repository.PatientRepository       = (*PatientRepository)(nil)
	_ repository.DoctorRepository        = (*DoctorRepository)(nil)
	_ repository.ConnectionRepository    = (*ConnectionRepository)(nil)
	_ repository.HealthReadingRepository = (*HealthReadingRepository)(nil)
	_ repository.VitalSignRepository     = (*VitalSignRepository)(nil)
	_ repository.MedicalRecordRepository = (*MedicalRecordRepository)(nil)
	_ repository.AppointmentRepository   = (*AppointmentRepository)(nil)
	_ repository.NotificationRepository  = (*NotificationRepository)(nil)
)

type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	var r0 *model.User
	if v := args.Get(0); v != nil {
		r0 = v.(*model.User)
	}
	return r0, args.Error(1)
}

func (m *UserRepository) GetByFirebaseUID(ctx context.Context, uid string) (*model.User, error) {
	args := m.Called(ctx, uid)
	var r0 *model.User
	if v := args.Get(0); v != nil {
		r0 = v.(*model.User)
	}
	return r0, args.Error(1)
}

func (m *UserRepository) GetByClerkID(ctx context.Context, clerkID string) (*model.User, error) {
	args := m.Called(ctx, clerkID)
	var r0 *model.User
	if v := args.Get(0); v != nil {
		r0 = v.(*model.User)
	}
	return r0, args.Error(1)
}

func (m *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	var r0 *model.User
	if v := args.Get(0); v != nil {
		r0 = v.(*model.User)
	}
	return r0, args.Error(1)
}

func (m *UserRepository) GetByWallet(ctx context.Context, wallet string) (*model.User, error) {
	args := m.Called(ctx, wallet)
	var r0 *model.User
	if v := args.Get(0); v != nil {
		r0 = v.(*model.User)
	}
	return r0, args.Error(1)
}

func (m *UserRepository) LinkClerkID(ctx context.Context, id uuid.UUID, clerkID string) error {
	args := m.Called(ctx, id, clerkID)
	return args.Error(0)
}

func (m *UserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) error {
	args := m.Called(ctx, id, role)
	return args.Error(0)
}

type PatientRepository struct {
	mock.Mock
}

func (m *PatientRepository) Create(ctx context.Context, patient *model.Patient) error {
	args := m.Called(ctx, patient)
	return args.Error(0)
}

func (m *PatientRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	args := m.Called(ctx, id)
	var r0 *model.Patient
	if v := args.Get(0); v != nil {
		r0 = v.(*model.Patient)
	}
	return r0, args.Error(1)
}

func (m *PatientRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Patient, error) {
	args := m.Called(ctx, userID)
	var r0 *model.Patient
	if v := args.Get(0); v != nil {
		r0 = v.(*model.Patient)
	}
	return r0, args.Error(1)
}

func (m *PatientRepository) GetByWallet(ctx context.Context, wallet string) (*model.Patient, error) {
	args := m.Called(ctx, wallet)
	var r0 *model.Patient
	if v := args.Get(0); v != nil {
		r0 = v.(*model.Patient)
	}
	return r0, args.Error(1)
}

func (m *PatientRepository) Update(ctx context.Context, patient *model.Patient) error {
	args := m.Called(ctx, patient)
	return args.Error(0)
}

func (m *PatientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *PatientRepository) List(ctx context.Context) ([]*model.Patient, error) {
	args := m.Called(ctx)
	var r0 []*model.Patient
	if v := args.Get(0); v != nil {
		r0 = v.([]*model.Patient)
	}
	return r0, args.Error(1)
}

type DoctorRepository struct {
	mock.Mock
}

func (m *DoctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	args := m.Called(ctx, doctor)
	return args.Error(0)
}

func (m *DoctorRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	args := m.Called(ctx, id)
	var r0 *model.Doctor
	if v := args.Get(0); v != nil {
		r0 = v.(*model.Doctor)
	}
	return r0, args.Error(1)
}

func (m *DoctorRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Doctor, error) {
	args := m.Called(ctx, userID)
	var r0 *model.Doctor
	if v := args.Get(0); v != nil {
		r0 = v.(*model.Doctor)
	}
	return r0, args.Error(1)
}

func (m *DoctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	args := m.Called(ctx, doctor)
	return args.Error(0)
}

func (m *DoctorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *DoctorRepository) List(ctx context.Context) ([]*model.Doctor, error) {
	args := m.Called(ctx)
	var r0 []*model.Doctor
	if v := args.Get(0); v != nil {
		r0 = v.([]*model.Doctor)
	}
	return r0, args.Error(1)
}

type ConnectionRepository struct {
	mock.Mock
}

func (m *ConnectionRepository) Create(ctx context.Context, conn *model.Connection) error {
	args := m.Called(ctx, conn)
	return args.Error(0)
}

func (m *ConnectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Connection, error) {
	args := m.Called(ctx, id)
	var r0 *model.Connection
	if v := args.Get(0); v != nil {
		r0 = v.(*model.Connection)
	}
	return r0, args.Error(1)
}

func (m *ConnectionRepository) GetByPair(ctx context.Context, doctorID, patientID uuid.UUID) (*model.Connection, error) {
	args := m.Called(ctx, doctorID, patientID)
	var r0 *model.Connection
	if v := args.Get(0); v != nil {
		r0 = v.(*model.Connection)
	}
	return r0, args.Error(1)
}

func (m *ConnectionRepository) GetActive(ctx context.Context, doctorID, patientID uuid.UUID) (*model.Connection, error) {
	args := m.Called(ctx, doctorID, patientID)
	var r0 *model.Connection
	if v := args.Get(0); v != nil {
		r0 = v.(*model.Connection)
	}
	return r0, args.Error(1)
}

func (m *ConnectionRepository) UpdateStatus(ctx context.Context, conn *model.Connection, from model.ConnectionStatus) error {
	args := m.Called(ctx, conn, from)
	return args.Error(0)
}

func (m *ConnectionRepository) SetTxHash(ctx context.Context, id uuid.UUID, txHash string) error {
	args := m.Called(ctx, id, txHash)
	return args.Error(0)
}

func (m *ConnectionRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Connection, error) {
	args := m.Called(ctx, patientID)
	var r0 []*model.Connection
	if v := args.Get(0); v != nil {
		r0 = v.([]*model.Connection)
	}
	return r0, args.Error(1)
}

func (m *ConnectionRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID, status *model.ConnectionStatus) ([]*model.Connection, error) {
	args := m.Called(ctx, doctorID, status)
	var r0 []*model.Connection
	if v := args.Get(0); v != nil {
		r0 = v.([]*model.Connection)
	}
	return r0, args.Error(1)
}

type HealthReadingRepository struct {
	mock.Mock
}

func (m *HealthReadingRepository) Create(ctx context.Context, reading *model.HealthReading) error {
	args := m.Called(ctx, reading)
	return args.Error(0)
}

func (m *HealthReadingRepository) CreateBatch(ctx context.Context, readings []*model.HealthReading) error {
	args := m.Called(ctx, readings)
	return args.Error(0)
}

func (m *HealthReadingRepository) List(ctx context.Context, patientUserID uuid.UUID, filter model.ReadingFilter) ([]*model.HealthReading, int, error) {
	args := m.Called(ctx, patientUserID, filter)
	var r0 []*model.HealthReading
	if v := args.Get(0); v != nil {
		r0 = v.([]*model.HealthReading)
	}
	return r0, args.Int(1), args.Error(2)
}

func (m *HealthReadingRepository) LatestByType(ctx context.Context, patientUserID uuid.UUID) ([]*model.HealthReading, error) {
	args := m.Called(ctx, patientUserID)
	var r0 []*model.HealthReading
	if v := args.Get(0); v != nil {
		r0 = v.([]*model.HealthReading)
	}
	return r0, args.Error(1)
}

func (m *HealthReadingRepository) Latest(ctx context.Context, limit int) ([]*model.HealthReading, error) {
	args := m.Called(ctx, limit)
	var r0 []*model.HealthReading
	if v := args.Get(0); v != nil {
		r0 = v.([]*model.HealthReading)
	}
	return r0, args.Error(1)
}

type VitalSignRepository struct {
	mock.Mock
}

func (m *VitalSignRepository) Create(ctx context.Context, vital *model.VitalSign) error {
	args := m.Called(ctx, vital)
	return args.Error(0)
}

func (m *VitalSignRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.VitalSign, error) {
	args := m.Called(ctx, id)
	var r0 *model.VitalSign
	if v := args.Get(0); v != nil {
		r0 = v.(*model.VitalSign)
	}
	return r0, args.Error(1)
}

func (m *VitalSignRepository) Update(ctx context.Context, vital *model.VitalSign) error {
	args := m.Called(ctx, vital)
	return args.Error(0)
}

func (m *VitalSignRepository) SetTxHash(ctx context.Context, id uuid.UUID, txHash string) error {
	args := m.Called(ctx, id, txHash)
	return args.Error(0)
}

func (m *VitalSignRepository) List(ctx context.Context, page model.Pagination) ([]*model.VitalSign, error) {
	args := m.Called(ctx, page)
	var r0 []*model.VitalSign
	if v := args.Get(0); v != nil {
		r0 = v.([]*model.VitalSign)
	}
	return r0, args.Error(1)
}

func (m *VitalSignRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.VitalSign, error) {
	args := m.Called(ctx, patientID)
	var r0 []*model.VitalSign
	if v := args.Get(0); v != nil {
		r0 = v.([]*model.VitalSign)
	}
	return r0, args.Error(1)
}

func (m *VitalSignRepository) Latest(ctx context.Context, patientID uuid.UUID) (*model.VitalSign, error) {
	args := m.Called(ctx, patientID)
	var r0 *model.VitalSign
	if v := args.Get(0); v != nil {
		r0 = v.(*model.VitalSign)
	}
	return r0, args.Error(1)
}

type MedicalRecordRepository struct {
	mock.Mock
}

func (m *MedicalRecordRepository) Create(ctx context.Context, record *model.MedicalRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MedicalRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error) {
	args := m.Called(ctx, id)
	var r0 *model.MedicalRecord
	if v := args.Get(0); v != nil {
		r0 = v.(*model.MedicalRecord)
	}
	return r0, args.Error(1)
}

func (m *MedicalRecordRepository) Update(ctx context.Context, record *model.MedicalRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MedicalRecordRepository) UpdateAttachments(ctx context.Context, id uuid.UUID, attachments model.Attachments) error {
	args := m.Called(ctx, id, attachments)
	return args.Error(0)
}

func (m *MedicalRecordRepository) SetTxHash(ctx context.Context, id uuid.UUID, txHash string) error {
	args := m.Called(ctx, id, txHash)
	return args.Error(0)
}

func (m *MedicalRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MedicalRecordRepository) List(ctx context.Context) ([]*model.MedicalRecord, error) {
	args := m.Called(ctx)
	var r0 []*model.MedicalRecord
	if v := args.Get(0); v != nil {
		r0 = v.([]*model.MedicalRecord)
	}
	return r0, args.Error(1)
}

func (m *MedicalRecordRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalRecord, error) {
	args := m.Called(ctx, patientID)
	var r0 []*model.MedicalRecord
	if v := args.Get(0); v != nil {
		r0 = v.([]*model.MedicalRecord)
	}
	return r0, args.Error(1)
}

type AppointmentRepository struct {
	mock.Mock
}

func (m *AppointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	args := m.Called(ctx, appointment)
	return args.Error(0)
}

func (m *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	args := m.Called(ctx, id)
	var r0 *model.Appointment
	if v := args.Get(0); v != nil {
		r0 = v.(*model.Appointment)
	}
	return r0, args.Error(1)
}

func (m *AppointmentRepository) Update(ctx context.Context, appointment *model.Appointment, checkConflict bool) error {
	args := m.Called(ctx, appointment, checkConflict)
	return args.Error(0)
}

func (m *AppointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *AppointmentRepository) List(ctx context.Context) ([]*model.Appointment, error) {
	args := m.Called(ctx)
	var r0 []*model.Appointment
	if v := args.Get(0); v != nil {
		r0 = v.([]*model.Appointment)
	}
	return r0, args.Error(1)
}

func (m *AppointmentRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	args := m.Called(ctx, patientID)
	var r0 []*model.Appointment
	if v := args.Get(0); v != nil {
		r0 = v.([]*model.Appointment)
	}
	return r0, args.Error(1)
}

func (m *AppointmentRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Appointment, error) {
	args := m.Called(ctx, doctorID)
	var r0 []*model.Appointment
	if v := args.Get(0); v != nil {
		r0 = v.([]*model.Appointment)
	}
	return r0, args.Error(1)
}

type NotificationRepository struct {
	mock.Mock
}

func (m *NotificationRepository) Create(ctx context.Context, notification *model.Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

func (m *NotificationRepository) CreateBulk(ctx context.Context, notifications []*model.Notification) error {
	args := m.Called(ctx, notifications)
	return args.Error(0)
}

func (m *NotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	args := m.Called(ctx, id)
	var r0 *model.Notification
	if v := args.Get(0); v != nil {
		r0 = v.(*model.Notification)
	}
	return r0, args.Error(1)
}

func (m *NotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Notification, error) {
	args := m.Called(ctx, userID)
	var r0 []*model.Notification
	if v := args.Get(0); v != nil {
		r0 = v.([]*model.Notification)
	}
	return r0, args.Error(1)
}

func (m *NotificationRepository) ListAll(ctx context.Context) ([]*model.Notification, error) {
	args := m.Called(ctx)
	var r0 []*model.Notification
	if v := args.Get(0); v != nil {
		r0 = v.([]*model.Notification)
	}
	return r0, args.Error(1)
}

func (m *NotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *NotificationRepository) SetRead(ctx context.Context, id uuid.UUID, isRead bool) error {
	args := m.Called(ctx, id, isRead)
	return args.Error(0)
}

func (m *NotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *NotificationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *NotificationRepository) DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}
