// Package healthdata stores single-metric readings and serves the merged
// latest-vitals view.
package healthdata

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rpmweb/rpm-api/internal/model"
	"github.com/rpmweb/rpm-api/internal/repository"
	"github.com/rpmweb/rpm-api/pkg/errors"
)

const (
	defaultLimit = 100
	publicLimit  = 20
)

// AccessChecker answers whether a doctor currently holds an ACTIVE grant.
type AccessChecker interface {
	GetActiveConnection(ctx context.Context, patientID, doctorID uuid.UUID) (*model.Connection, error)
	MyPatients(ctx context.Context, doctorUserID uuid.UUID) ([]*model.Connection, error)
}

type Service struct {
	readings repository.HealthReadingRepository
	vitals   repository.VitalSignRepository
	patients repository.PatientRepository
	doctors  repository.DoctorRepository
	access   AccessChecker
	now      func() time.Time
}

func NewService(
	readings repository.HealthReadingRepository,
	vitals repository.VitalSignRepository,
	patients repository.PatientRepository,
	doctors repository.DoctorRepository,
	access AccessChecker,
) *Service {
	return &Service{
		readings: readings,
		vitals:   vitals,
		patients: patients,
		doctors:  doctors,
		access:   access,
		now:      time.Now,
	}
}

func (s *Service) SubmitReading(ctx context.Context, caller *model.User, req *model.CreateReadingRequest) (*model.HealthReading, error) {
	if !caller.Role.IsPatient() {
		return nil, errors.Forbidden("Only patients can submit health data")
	}
	r := s.newReading(caller.ID, req)
	if err := s.readings.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to create reading: %w", err)
	}
	return r, nil
}

// SubmitBatch writes all readings in one transaction.
func (s *Service) SubmitBatch(ctx context.Context, caller *model.User, req *model.BatchReadingsRequest) ([]*model.HealthReading, error) {
	if !caller.Role.IsPatient() {
		return nil, errors.Forbidden("Only patients can submit health data")
	}
	if len(req.Readings) == 0 {
		return nil, errors.BadRequest("At least one reading is required", nil)
	}
	readings := make([]*model.HealthReading, 0, len(req.Readings))
	for i := range req.Readings {
		readings = append(readings, s.newReading(caller.ID, &req.Readings[i]))
	}
	if err := s.readings.CreateBatch(ctx, readings); err != nil {
		return nil, fmt.Errorf("failed to create readings: %w", err)
	}
	return readings, nil
}

func (s *Service) newReading(userID uuid.UUID, req *model.CreateReadingRequest) *model.HealthReading {
	ts := s.now().UTC()
	if req.Timestamp != nil {
		ts = req.Timestamp.UTC()
	}
	return &model.HealthReading{
		PatientID: userID,
		Type:      req.Type,
		Value:     req.Value,
		Unit:      req.Unit,
		Timestamp: ts,
	}
}

func (s *Service) GetOwnReadings(ctx context.Context, userID uuid.UUID, filter model.ReadingFilter) (*model.ReadingsPage, error) {
	return s.page(ctx, userID, filter)
}

// GetPatientReadings is the doctor's view of a patient's readings. It needs
// an ACTIVE connection between the two profiles.
func (s *Service) GetPatientReadings(ctx context.Context, doctorUserID, patientUserID uuid.UUID, filter model.ReadingFilter) (*model.ReadingsPage, error) {
	if err := s.checkDoctorAccess(ctx, doctorUserID, patientUserID); err != nil {
		return nil, err
	}
	return s.page(ctx, patientUserID, filter)
}

func (s *Service) page(ctx context.Context, userID uuid.UUID, filter model.ReadingFilter) (*model.ReadingsPage, error) {
	filter.Pagination = filter.Pagination.Normalize(defaultLimit)
	data, total, err := s.readings.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list readings: %w", err)
	}
	if data == nil {
		data = []*model.HealthReading{}
	}
	return &model.ReadingsPage{Data: data, Meta: model.NewPageMeta(total, filter.Pagination)}, nil
}

func (s *Service) checkDoctorAccess(ctx context.Context, doctorUserID, patientUserID uuid.UUID) error {
	doctor, err := s.doctors.GetByUserID(ctx, doctorUserID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.NotFound("Doctor profile not found", nil)
	}
	if err != nil {
		return fmt.Errorf("failed to get doctor: %w", err)
	}
	patient, err := s.patients.GetByUserID(ctx, patientUserID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.NotFound("Patient profile not found", nil)
	}
	if err != nil {
		return fmt.Errorf("failed to get patient: %w", err)
	}

	conn, err := s.access.GetActiveConnection(ctx, patient.ID, doctor.ID)
	if err != nil {
		return err
	}
	if conn == nil {
		return errors.Forbidden("You do not have access to this patient's data")
	}
	return nil
}

// GetLatestVitals merges the newest vital sign record with the newest
// reading of each type.
func (s *Service) GetLatestVitals(ctx context.Context, caller *model.User, targetUserID uuid.UUID) (*model.LatestVitals, error) {
	switch {
	case caller.Role == model.RoleAdmin:
	case caller.Role == model.RoleDoctor:
		if err := s.checkDoctorAccess(ctx, caller.ID, targetUserID); err != nil {
			return nil, err
		}
	case caller.ID != targetUserID:
		return nil, errors.Forbidden("You can only view your own vitals")
	}

	var vital *model.VitalSign
	patient, err := s.patients.GetByUserID(ctx, targetUserID)
	switch {
	case err == nil:
		vital, err = s.vitals.Latest(ctx, patient.ID)
		if err != nil && !stderrors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to get latest vital sign: %w", err)
		}
	case !stderrors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	readings, err := s.readings.LatestByType(ctx, targetUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest readings: %w", err)
	}
	return MergeLatest(targetUserID, vital, readings), nil
}

// MergeLatest picks, per field, the value with the newest timestamp. On a
// tie the vital sign record wins; a field missing from one source comes from
// the other.
func MergeLatest(userID uuid.UUID, vital *model.VitalSign, readings []*model.HealthReading) *model.LatestVitals {
	latest := map[model.ReadingType]*model.HealthReading{}
	for _, r := range readings {
		if cur, ok := latest[r.Type]; !ok || r.Timestamp.After(cur.Timestamp) {
			latest[r.Type] = r
		}
	}

	out := &model.LatestVitals{PatientUserID: userID}
	pick := func(t model.ReadingType, structured *float64) *model.VitalValue {
		var v *model.VitalValue
		if vital != nil && structured != nil {
			v = &model.VitalValue{Value: *structured, Unit: t.DefaultUnit(), Timestamp: vital.Timestamp, Source: model.SourceVitalSign}
		}
		if r, ok := latest[t]; ok && (v == nil || r.Timestamp.After(v.Timestamp)) {
			v = &model.VitalValue{Value: r.Value, Unit: r.Unit, Timestamp: r.Timestamp, Source: model.SourceReading}
		}
		if v != nil && (out.Timestamp == nil || v.Timestamp.After(*out.Timestamp)) {
			ts := v.Timestamp
			out.Timestamp = &ts
		}
		return v
	}

	var hr, sys, dia, o2, temp *float64
	if vital != nil {
		hr, sys, dia = vital.HeartRate, vital.BloodPressureSystolic, vital.BloodPressureDiastolic
		o2, temp = vital.OxygenSaturation, vital.Temperature
	}
	out.HeartRate = pick(model.ReadingHeartRate, hr)
	out.BloodPressureSystolic = pick(model.ReadingBloodPressureSystolic, sys)
	out.BloodPressureDiastolic = pick(model.ReadingBloodPressureDiastolic, dia)
	out.OxygenSaturation = pick(model.ReadingBloodOxygen, o2)
	out.Temperature = pick(model.ReadingTemperature, temp)
	return out
}

// PublicSample returns the most recent readings across all patients.
func (s *Service) PublicSample(ctx context.Context) ([]*model.HealthReading, error) {
	readings, err := s.readings.Latest(ctx, publicLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list readings: %w", err)
	}
	return readings, nil
}

var sampleReadings = []struct {
	typ   model.ReadingType
	value float64
}{
	{model.ReadingHeartRate, 75},
	{model.ReadingBloodOxygen, 98},
	{model.ReadingBloodPressureSystolic, 120},
	{model.ReadingBloodPressureDiastolic, 80},
	{model.ReadingTemperature, 37.2},
}

// GenerateSampleData writes one canonical reading of each type for the
// caller.
func (s *Service) GenerateSampleData(ctx context.Context, caller *model.User) ([]*model.HealthReading, error) {
	req := &model.BatchReadingsRequest{}
	for _, sr := range sampleReadings {
		req.Readings = append(req.Readings, model.CreateReadingRequest{
			Type:  sr.typ,
			Value: sr.value,
			Unit:  sr.typ.DefaultUnit(),
		})
	}
	return s.SubmitBatch(ctx, caller, req)
}

// ListConnectedPatients returns the profiles of the doctor's ACTIVE patients.
func (s *Service) ListConnectedPatients(ctx context.Context, doctorUserID uuid.UUID) ([]*model.Patient, error) {
	conns, err := s.access.MyPatients(ctx, doctorUserID)
	if err != nil {
		return nil, err
	}
	patients := make([]*model.Patient, 0, len(conns))
	for _, c := range conns {
		p, err := s.patients.GetByID(ctx, c.PatientID)
		if stderrors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get patient: %w", err)
		}
		patients = append(patients, p)
	}
	return patients, nil
}
