// Package vitals manages structured vital sign records, their anchoring and
// the abnormal-value alerts sent to connected doctors.
package vitals

import (
	"context"
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
)

type bounds struct{ min, max float64 }

// Accepted ranges for each measurement.
var validRanges = map[string]bounds{
	"heart rate":               {40, 220},
	"systolic blood pressure":  {60, 250},
	"diastolic blood pressure": {40, 140},
	"temperature":              {35, 42},
	"respiratory rate":         {8, 40},
	"oxygen saturation":        {70, 100},
	"glucose level":            {40, 400},
}

// Normal ranges; a value outside raises an alert. Oxygen has no upper bound.
var normalRanges = map[string]bounds{
	"heart rate":               {60, 100},
	"systolic blood pressure":  {90, 140},
	"diastolic blood pressure": {60, 90},
	"oxygen saturation":        {95, 101},
	"temperature":              {36.1, 38},
}

type measurement struct {
	name  string
	value *float64
}

func measurements(v *model.VitalSign) []measurement {
	return []measurement{
		{"heart rate", v.HeartRate},
		{"systolic blood pressure", v.BloodPressureSystolic},
		{"diastolic blood pressure", v.BloodPressureDiastolic},
		{"temperature", v.Temperature},
		{"respiratory rate", v.RespiratoryRate},
		{"oxygen saturation", v.OxygenSaturation},
		{"glucose level", v.GlucoseLevel},
	}
}

type Service struct {
	repo        repository.VitalSignRepository
	patients    repository.PatientRepository
	connections repository.ConnectionRepository
	notifier    notification.Notifier
	anchor      anchor.Client
	hooks       *hooks.Runner
	now         func() time.Time
}

func NewService(
	repo repository.VitalSignRepository,
	patients repository.PatientRepository,
	connections repository.ConnectionRepository,
	notifier notification.Notifier,
	anchorClient anchor.Client,
	runner *hooks.Runner,
) *Service {
	return &Service{
		repo:        repo,
		patients:    patients,
		connections: connections,
		notifier:    notifier,
		anchor:      anchorClient,
		hooks:       runner,
		now:         time.Now,
	}
}

func (s *Service) Create(ctx context.Context, caller *model.User, req *model.CreateVitalSignRequest) (*model.VitalSign, error) {
	patient, err := s.patient(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	if caller.Role.IsPatient() && patient.UserID != caller.ID {
		return nil, errors.Forbidden("You can only record your own vital signs")
	}

	v := &model.VitalSign{
		PatientID:              patient.ID,
		HeartRate:              req.HeartRate,
		BloodPressureSystolic:  req.BloodPressureSystolic,
		BloodPressureDiastolic: req.BloodPressureDiastolic,
		Temperature:            req.Temperature,
		RespiratoryRate:        req.RespiratoryRate,
		OxygenSaturation:       req.OxygenSaturation,
		GlucoseLevel:           req.GlucoseLevel,
		Notes:                  req.Notes,
		Timestamp:              s.now().UTC(),
	}
	if req.Timestamp != nil {
		v.Timestamp = req.Timestamp.UTC()
	}
	if err := validate(v); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to create vital sign: %w", err)
	}

	var l hooks.List
	l.Add("anchor.vital_sign", s.anchorHook(v))
	if abnormal := outOfRange(v); len(abnormal) > 0 {
		l.Add("notify.vital_alert", s.alertHook(patient, v, abnormal))
	}
	s.hooks.Run(ctx, &l)
	return v, nil
}

func (s *Service) List(ctx context.Context, page model.Pagination) ([]*model.VitalSign, error) {
	vitals, err := s.repo.List(ctx, page.Normalize(100))
	if err != nil {
		return nil, fmt.Errorf("failed to list vital signs: %w", err)
	}
	return vitals, nil
}

func (s *Service) ListByPatient(ctx context.Context, caller *model.User, patientID uuid.UUID) ([]*model.VitalSign, error) {
	patient, err := s.patient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(ctx, caller, patient); err != nil {
		return nil, err
	}
	vitals, err := s.repo.ListByPatient(ctx, patient.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vital signs: %w", err)
	}
	return vitals, nil
}

func (s *Service) Get(ctx context.Context, caller *model.User, id uuid.UUID) (*model.VitalSign, error) {
	v, patient, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(ctx, caller, patient); err != nil {
		return nil, err
	}
	return v, nil
}

// Update changes the measurements and re-anchors the record.
func (s *Service) Update(ctx context.Context, caller *model.User, id uuid.UUID, req *model.UpdateVitalSignRequest) (*model.VitalSign, error) {
	v, patient, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.Role.IsPatient() && patient.UserID != caller.ID {
		return nil, errors.Forbidden("You can only update your own vital signs")
	}
	if caller.Role == model.RoleDoctor {
		if err := s.authorizeRead(ctx, caller, patient); err != nil {
			return nil, err
		}
	}

	req.Apply(v)
	if err := validate(v); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	v.UpdatedAt = &now
	if err := s.repo.Update(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to update vital sign: %w", err)
	}

	var l hooks.List
	l.Add("anchor.vital_sign", s.anchorHook(v))
	s.hooks.Run(ctx, &l)
	return v, nil
}

// Verify recomputes the record digest and checks it against the anchored
// receipt.
func (s *Service) Verify(ctx context.Context, caller *model.User, id uuid.UUID) (*model.VerificationResult, error) {
	v, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	ok, err := anchor.Check(ctx, s.anchor, v.BlockchainTxHash, v.AnchorPayload())
	if err != nil {
		return nil, err
	}
	return &model.VerificationResult{IsVerified: ok, TxHash: v.BlockchainTxHash, Record: v}, nil
}

// authorizeRead lets admins through, patients to their own records and
// doctors to patients they hold an ACTIVE connection with.
func (s *Service) authorizeRead(ctx context.Context, caller *model.User, patient *model.Patient) error {
	switch {
	case caller.Role == model.RoleAdmin:
		return nil
	case caller.Role.IsPatient():
		if patient.UserID != caller.ID {
			return errors.Forbidden("You can only view your own vital signs")
		}
		return nil
	}

	conns, err := s.activeConnections(ctx, patient.ID)
	if err != nil {
		return err
	}
	for _, c := range conns {
		if c.DoctorUserID == caller.ID {
			return nil
		}
	}
	return errors.Forbidden("You do not have access to this patient's data")
}

func (s *Service) activeConnections(ctx context.Context, patientID uuid.UUID) ([]*model.Connection, error) {
	conns, err := s.connections.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	var active []*model.Connection
	for _, c := range conns {
		if c.Status == model.ConnectionActive {
			active = append(active, c)
		}
	}
	return active, nil
}

func (s *Service) anchorHook(v *model.VitalSign) hooks.Func {
	return hooks.Anchor(s.anchor, v.AnchorPayload(), func(ctx context.Context, txHash string) error {
		v.BlockchainTxHash = &txHash
		return s.repo.SetTxHash(ctx, v.ID, txHash)
	})
}

// alertHook sends one alert per abnormal measurement to every doctor with an
// ACTIVE connection to the patient.
func (s *Service) alertHook(patient *model.Patient, v *model.VitalSign, abnormal []measurement) hooks.Func {
	return func(ctx context.Context) error {
		doctors, err := s.activeConnections(ctx, patient.ID)
		if err != nil {
			return err
		}
		var errs []error
		for _, c := range doctors {
			for _, m := range abnormal {
				n := notification.VitalSignAlert(c.DoctorUserID, patient.Name, v.ID, m.name, *m.value)
				if err := s.notifier.Notify(ctx, n); err != nil {
					errs = append(errs, err)
				}
			}
		}
		return stderrors.Join(errs...)
	}
}

func (s *Service) patient(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFound(fmt.Sprintf("Patient with ID %s not found", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return p, nil
}

func (s *Service) get(ctx context.Context, id uuid.UUID) (*model.VitalSign, *model.Patient, error) {
	v, err := s.repo.GetByID(ctx, id)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, nil, errors.NotFound(fmt.Sprintf("Vital sign with ID %s not found", id), nil)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get vital sign: %w", err)
	}
	p, err := s.patient(ctx, v.PatientID)
	if err != nil {
		return nil, nil, err
	}
	return v, p, nil
}

func validate(v *model.VitalSign) error {
	for _, m := range measurements(v) {
		if m.value == nil {
			continue
		}
		b := validRanges[m.name]
		if *m.value < b.min || *m.value > b.max {
			return errors.BadRequest(fmt.Sprintf("%s must be between %g and %g", m.name, b.min, b.max), nil)
		}
	}
	return nil
}

// outOfRange returns the measurements outside their normal range.
func outOfRange(v *model.VitalSign) []measurement {
	var out []measurement
	for _, m := range measurements(v) {
		b, ok := normalRanges[m.name]
		if !ok || m.value == nil {
			continue
		}
		if *m.value < b.min || *m.value > b.max {
			out = append(out, m)
		}
	}
	return out
}
