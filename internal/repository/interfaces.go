package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/rpmweb/rpm-api/internal/model"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned on a unique constraint violation.
	ErrDuplicate = errors.New("duplicate record")
	// ErrConflict is returned when a scheduling check finds an overlap.
	ErrConflict = errors.New("conflicting record")
	// ErrStaleState is returned when a conditional update matched no row
	// because the row changed underneath the caller.
	ErrStaleState = errors.New("record changed concurrently")
)

// All repository interfaces in one file
type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByFirebaseUID(ctx context.Context, uid string) (*model.User, error)
		GetByClerkID(ctx context.Context, clerkID string) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		GetByWallet(ctx context.Context, wallet string) (*model.User, error)
		LinkClerkID(ctx context.Context, id uuid.UUID, clerkID string) error
		UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) error
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		GetByID(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Patient, error)
		GetByWallet(ctx context.Context, wallet string) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.Patient, error)
	}

	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		GetByID(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Doctor, error)
		Update(ctx context.Context, doctor *model.Doctor) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.Doctor, error)
	}

	ConnectionRepository interface {
		Create(ctx context.Context, conn *model.Connection) error
		GetByID(ctx context.Context, id uuid.UUID) (*model.Connection, error)
		GetByPair(ctx context.Context, doctorID, patientID uuid.UUID) (*model.Connection, error)
		GetActive(ctx context.Context, doctorID, patientID uuid.UUID) (*model.Connection, error)
		// UpdateStatus writes conn.Status and conn.ConnectionCode only if the
		// stored status is still from; otherwise ErrStaleState.
		UpdateStatus(ctx context.Context, conn *model.Connection, from model.ConnectionStatus) error
		SetTxHash(ctx context.Context, id uuid.UUID, txHash string) error
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Connection, error)
		ListByDoctor(ctx context.Context, doctorID uuid.UUID, status *model.ConnectionStatus) ([]*model.Connection, error)
	}

	HealthReadingRepository interface {
		Create(ctx context.Context, reading *model.HealthReading) error
		// CreateBatch writes every reading or none.
		CreateBatch(ctx context.Context, readings []*model.HealthReading) error
		List(ctx context.Context, patientUserID uuid.UUID, filter model.ReadingFilter) ([]*model.HealthReading, int, error)
		LatestByType(ctx context.Context, patientUserID uuid.UUID) ([]*model.HealthReading, error)
		Latest(ctx context.Context, limit int) ([]*model.HealthReading, error)
	}

	VitalSignRepository interface {
		Create(ctx context.Context, vital *model.VitalSign) error
		GetByID(ctx context.Context, id uuid.UUID) (*model.VitalSign, error)
		Update(ctx context.Context, vital *model.VitalSign) error
		SetTxHash(ctx context.Context, id uuid.UUID, txHash string) error
		List(ctx context.Context, page model.Pagination) ([]*model.VitalSign, error)
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.VitalSign, error)
		Latest(ctx context.Context, patientID uuid.UUID) (*model.VitalSign, error)
	}

	MedicalRecordRepository interface {
		Create(ctx context.Context, record *model.MedicalRecord) error
		GetByID(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error)
		Update(ctx context.Context, record *model.MedicalRecord) error
		UpdateAttachments(ctx context.Context, id uuid.UUID, attachments model.Attachments) error
		SetTxHash(ctx context.Context, id uuid.UUID, txHash string) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.MedicalRecord, error)
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalRecord, error)
	}

	AppointmentRepository interface {
		// Create inserts the appointment unless it overlaps a blocking
		// appointment of the same doctor, in which case ErrConflict.
		Create(ctx context.Context, appointment *model.Appointment) error
		GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		// Update saves the appointment; with checkConflict it first runs the
		// overlap check excluding the appointment itself.
		Update(ctx context.Context, appointment *model.Appointment, checkConflict bool) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.Appointment, error)
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error)
		ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Appointment, error)
	}

	NotificationRepository interface {
		Create(ctx context.Context, notification *model.Notification) error
		CreateBulk(ctx context.Context, notifications []*model.Notification) error
		GetByID(ctx context.Context, id uuid.UUID) (*model.Notification, error)
		ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Notification, error)
		ListAll(ctx context.Context) ([]*model.Notification, error)
		CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
		SetRead(ctx context.Context, id uuid.UUID, isRead bool) error
		MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
		Delete(ctx context.Context, id uuid.UUID) error
		DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error)
	}
)
