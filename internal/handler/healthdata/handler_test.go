package healthdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rpmweb/rpm-api/internal/middleware"
	"github.com/rpmweb/rpm-api/internal/model"
	"github.com/rpmweb/rpm-api/pkg/errors"
	"github.com/rpmweb/rpm-api/pkg/validator"
)

type mockService struct {
	mock.Mock
	Service
}

func (m *mockService) SubmitReading(ctx context.Context, caller *model.User, req *model.CreateReadingRequest) (*model.HealthReading, error) {
	args := m.Called(ctx, caller, req)
	r, _ := args.Get(0).(*model.HealthReading)
	return r, args.Error(1)
}

func (m *mockService) SubmitBatch(ctx context.Context, caller *model.User, req *model.BatchReadingsRequest) ([]*model.HealthReading, error) {
	args := m.Called(ctx, caller, req)
	r, _ := args.Get(0).([]*model.HealthReading)
	return r, args.Error(1)
}

func (m *mockService) GetOwnReadings(ctx context.Context, userID uuid.UUID, filter model.ReadingFilter) (*model.ReadingsPage, error) {
	args := m.Called(ctx, userID, filter)
	p, _ := args.Get(0).(*model.ReadingsPage)
	return p, args.Error(1)
}

func (m *mockService) GetPatientReadings(ctx context.Context, doctorUserID, patientUserID uuid.UUID, filter model.ReadingFilter) (*model.ReadingsPage, error) {
	args := m.Called(ctx, doctorUserID, patientUserID, filter)
	p, _ := args.Get(0).(*model.ReadingsPage)
	return p, args.Error(1)
}

func (m *mockService) PublicSample(ctx context.Context) ([]*model.HealthReading, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).([]*model.HealthReading)
	return r, args.Error(1)
}

func init() {
	gin.SetMode(gin.TestMode)
	types := make([]string, 0, len(model.ReadingTypes))
	for _, rt := range model.ReadingTypes {
		types = append(types, string(rt))
	}
	if err := validator.RegisterGin(map[string][]string{"readingtype": types}); err != nil {
		panic(err)
	}
}

func newEngine(svc Service, caller *model.User) *gin.Engine {
	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		if caller != nil {
			c.Set(middleware.ContextUser, caller)
		}
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func newUser(role model.Role) *model.User {
	u := &model.User{Name: "caller", Role: role}
	u.ID = uuid.New()
	return u
}

func serve(engine http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestSubmitReadingValidatesType(t *testing.T) {
	svc := new(mockService)
	engine := newEngine(svc, newUser(model.RolePatient))

	w := serve(engine, http.MethodPost, "/api/v1/health-data", `{"type":"STEPS","value":10,"unit":"count"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "SubmitReading", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitReading(t *testing.T) {
	caller := newUser(model.RolePatient)
	svc := new(mockService)
	svc.On("SubmitReading", mock.Anything, caller, mock.MatchedBy(func(req *model.CreateReadingRequest) bool {
		return req.Type == model.ReadingHeartRate && req.Value == 72 && req.Unit == "bpm"
	})).Return(&model.HealthReading{Type: model.ReadingHeartRate, Value: 72}, nil)

	w := serve(newEngine(svc, caller), http.MethodPost, "/api/v1/health-data", `{"type":"HEART_RATE","value":72,"unit":"bpm"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	svc.AssertExpectations(t)
}

func TestSubmitBatchRejectsEmpty(t *testing.T) {
	svc := new(mockService)

	w := serve(newEngine(svc, newUser(model.RolePatient)), http.MethodPost, "/api/v1/health-data/batch", `{"readings":[]}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetOwnReadingsBindsFilter(t *testing.T) {
	caller := newUser(model.RolePatient)
	svc := new(mockService)
	want := model.ReadingFilter{Pagination: model.Pagination{Page: 2, Limit: 50}, Type: model.ReadingBloodOxygen}
	svc.On("GetOwnReadings", mock.Anything, caller.ID, want).
		Return(&model.ReadingsPage{Data: []*model.HealthReading{}}, nil)

	w := serve(newEngine(svc, caller), http.MethodGet, "/api/v1/health-data/me?page=2&limit=50&type=BLOOD_OXYGEN", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`)
	svc.AssertExpectations(t)
}

func TestGetPatientReadingsDoctorOnly(t *testing.T) {
	svc := new(mockService)
	path := "/api/v1/health-data/patient/" + uuid.NewString()

	w := serve(newEngine(svc, newUser(model.RolePatient)), http.MethodGet, path, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	doctor := newUser(model.RoleDoctor)
	svc.On("GetPatientReadings", mock.Anything, doctor.ID, mock.Anything, mock.Anything).
		Return(nil, errors.Forbidden("You do not have access to this patient's data"))

	w = serve(newEngine(svc, doctor), http.MethodGet, path, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "You do not have access to this patient's data")
}

func TestPublicSampleNeedsNoCaller(t *testing.T) {
	svc := new(mockService)
	svc.On("PublicSample", mock.Anything).Return([]*model.HealthReading{{Type: model.ReadingTemperature, Value: 36.6}}, nil)

	w := serve(newEngine(svc, nil), http.MethodGet, "/api/v1/health-data/public", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "TEMPERATURE")
}
