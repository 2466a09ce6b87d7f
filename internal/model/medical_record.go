package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MaxAttachmentSize bounds a single uploaded file.
const MaxAttachmentSize = 10 << 20

type MedicalRecord struct {
	Base
	PatientID        uuid.UUID   `db:"patient_id" json:"patient_id"`
	DoctorID         *uuid.UUID  `db:"doctor_id" json:"doctor_id,omitempty"`
	CreatedByID      uuid.UUID   `db:"created_by_id" json:"created_by_id"`
	Diagnosis        string      `db:"diagnosis" json:"diagnosis"`
	Treatment        *string     `db:"treatment" json:"treatment,omitempty"`
	Medication       *string     `db:"medication" json:"medication,omitempty"`
	Notes            *string     `db:"notes" json:"notes,omitempty"`
	Attachments      Attachments `db:"attachments" json:"attachments"`
	BlockchainTxHash *string     `db:"blockchain_tx_hash" json:"blockchain_tx_hash,omitempty"`

	// User ids behind the profiles, joined on reads.
	PatientUserID uuid.UUID  `db:"patient_user_id" json:"patient_user_id"`
	DoctorUserID  *uuid.UUID `db:"doctor_user_id" json:"doctor_user_id,omitempty"`
	PatientName   string     `db:"patient_name" json:"patient_name,omitempty"`
}

// AnchorPayload is the canonical body hashed for anchoring. Attachments are
// anchored separately when they are added or removed.
func (r *MedicalRecord) AnchorPayload() JSONMap {
	var doctorID *string
	if r.DoctorID != nil {
		s := r.DoctorID.String()
		doctorID = &s
	}
	return JSONMap{
		"recordId":    r.ID.String(),
		"patientId":   r.PatientID.String(),
		"diagnosis":   r.Diagnosis,
		"treatment":   r.Treatment,
		"medication":  r.Medication,
		"notes":       r.Notes,
		"createdById": r.CreatedByID.String(),
		"doctorId":    doctorID,
	}
}

// MedicalRecordFile is an attachment pinned to IPFS.
type MedicalRecordFile struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	IPFSHash         string    `json:"ipfs_hash"`
	MimeType         string    `json:"mime_type"`
	Size             int64     `json:"size"`
	UploadedAt       time.Time `json:"uploaded_at"`
	UploadedBy       uuid.UUID `json:"uploaded_by"`
	GatewayURL       string    `json:"gateway_url"`
	BlockchainTxHash *string   `json:"blockchain_tx_hash,omitempty"`
}

// FileDetails is a file plus a live existence check against the pin service.
type FileDetails struct {
	MedicalRecordFile
	Exists bool   `json:"exists"`
	Error  string `json:"error,omitempty"`
}

// Attachments is stored as a JSONB array.
type Attachments []MedicalRecordFile

func (a Attachments) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

func (a *Attachments) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*a = Attachments{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported attachments type %T", src)
	}

	var files Attachments
	if err := json.Unmarshal(data, &files); err != nil {
		return fmt.Errorf("failed to decode attachments: %w", err)
	}

	// Entries without the identifying fields are dropped.
	valid := files[:0]
	for _, f := range files {
		if f.ID != uuid.Nil && f.Name != "" && f.IPFSHash != "" {
			valid = append(valid, f)
		}
	}
	*a = valid
	return nil
}

// Find returns the index of the file with id, or -1.
func (a Attachments) Find(id uuid.UUID) int {
	for i, f := range a {
		if f.ID == id {
			return i
		}
	}
	return -1
}

type CreateMedicalRecordRequest struct {
	PatientID  uuid.UUID  `json:"patient_id" binding:"required"`
	DoctorID   *uuid.UUID `json:"doctor_id"`
	Diagnosis  string     `json:"diagnosis" binding:"required,max=4000"`
	Treatment  *string    `json:"treatment" binding:"omitempty,max=4000"`
	Medication *string    `json:"medication" binding:"omitempty,max=4000"`
	Notes      *string    `json:"notes" binding:"omitempty,max=8000"`
}

type UpdateMedicalRecordRequest struct {
	DoctorID   *uuid.UUID `json:"doctor_id"`
	Diagnosis  *string    `json:"diagnosis" binding:"omitempty,max=4000"`
	Treatment  *string    `json:"treatment" binding:"omitempty,max=4000"`
	Medication *string    `json:"medication" binding:"omitempty,max=4000"`
	Notes      *string    `json:"notes" binding:"omitempty,max=8000"`
}

func (req *UpdateMedicalRecordRequest) Apply(r *MedicalRecord) {
	if req.DoctorID != nil {
		r.DoctorID = req.DoctorID
	}
	if req.Diagnosis != nil {
		r.Diagnosis = *req.Diagnosis
	}
	if req.Treatment != nil {
		r.Treatment = req.Treatment
	}
	if req.Medication != nil {
		r.Medication = req.Medication
	}
	if req.Notes != nil {
		r.Notes = req.Notes
	}
}
