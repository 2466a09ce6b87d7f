package connection

import (
	"context"
	"encoding/json"
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
	"github.com/rpmweb/rpm-api/pkg/httputil"
	"github.com/rpmweb/rpm-api/pkg/validator"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) RequestAccessAsPatient(ctx context.Context, patientUserID, doctorID uuid.UUID) (*model.Connection, error) {
	args := m.Called(ctx, patientUserID, doctorID)
	conn, _ := args.Get(0).(*model.Connection)
	return conn, args.Error(1)
}

func (m *mockService) GrantAccess(ctx context.Context, doctorID, patientID, callerUserID uuid.UUID) (*model.Connection, error) {
	args := m.Called(ctx, doctorID, patientID, callerUserID)
	conn, _ := args.Get(0).(*model.Connection)
	return conn, args.Error(1)
}

func (m *mockService) RevokeAccess(ctx context.Context, connectionID uuid.UUID, caller *model.User) (*model.Connection, error) {
	args := m.Called(ctx, connectionID, caller)
	conn, _ := args.Get(0).(*model.Connection)
	return conn, args.Error(1)
}

func (m *mockService) RequestAccessByWallet(ctx context.Context, doctorUserID uuid.UUID, walletAddress string) (*model.WalletConnectionResponse, error) {
	args := m.Called(ctx, doctorUserID, walletAddress)
	resp, _ := args.Get(0).(*model.WalletConnectionResponse)
	return resp, args.Error(1)
}

func (m *mockService) VerifyAndApproveConnection(ctx context.Context, connectionID uuid.UUID, signature string, patientUserID uuid.UUID) (*model.Connection, error) {
	args := m.Called(ctx, connectionID, signature, patientUserID)
	conn, _ := args.Get(0).(*model.Connection)
	return conn, args.Error(1)
}

func (m *mockService) ListForPatient(ctx context.Context, patientUserID uuid.UUID) ([]*model.Connection, error) {
	args := m.Called(ctx, patientUserID)
	conns, _ := args.Get(0).([]*model.Connection)
	return conns, args.Error(1)
}

func (m *mockService) ListForDoctor(ctx context.Context, doctorUserID uuid.UUID) ([]*model.Connection, error) {
	args := m.Called(ctx, doctorUserID)
	conns, _ := args.Get(0).([]*model.Connection)
	return conns, args.Error(1)
}

func (m *mockService) MyPatients(ctx context.Context, doctorUserID uuid.UUID) ([]*model.Connection, error) {
	args := m.Called(ctx, doctorUserID)
	conns, _ := args.Get(0).([]*model.Connection)
	return conns, args.Error(1)
}

func init() {
	gin.SetMode(gin.TestMode)
	if err := validator.RegisterGin(nil); err != nil {
		panic(err)
	}
}

func newEngine(svc Service, caller *model.User) *gin.Engine {
	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUser, caller)
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

func send(engine http.Handler, method, path, body string) (*httptest.ResponseRecorder, httputil.Response) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var resp httputil.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestRequestAccess(t *testing.T) {
	patient := newUser(model.RoleUser)
	doctorID := uuid.New()
	svc := new(mockService)
	svc.On("RequestAccessAsPatient", mock.Anything, patient.ID, doctorID).
		Return(&model.Connection{Status: model.ConnectionPending}, nil)

	w, resp := send(newEngine(svc, patient), http.MethodPost, "/api/v1/patient-doctors/request/doctor/"+doctorID.String(), "")

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "success", resp.Status)
	svc.AssertExpectations(t)
}

func TestRequestAccessConflict(t *testing.T) {
	patient := newUser(model.RolePatient)
	svc := new(mockService)
	svc.On("RequestAccessAsPatient", mock.Anything, patient.ID, mock.Anything).
		Return(nil, errors.Conflict("Access request already pending."))

	w, resp := send(newEngine(svc, patient), http.MethodPost, "/api/v1/patient-doctors/request/doctor/"+uuid.NewString(), "")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", resp.Code)
	assert.Equal(t, "Access request already pending.", resp.Message)
}

func TestRequestAccessRejectsDoctors(t *testing.T) {
	svc := new(mockService)

	w, _ := send(newEngine(svc, newUser(model.RoleDoctor)), http.MethodPost, "/api/v1/patient-doctors/request/doctor/"+uuid.NewString(), "")

	assert.Equal(t, http.StatusForbidden, w.Code)
	svc.AssertNotCalled(t, "RequestAccessAsPatient", mock.Anything, mock.Anything, mock.Anything)
}

func TestGrantAccessBadID(t *testing.T) {
	svc := new(mockService)

	w, resp := send(newEngine(svc, newUser(model.RoleDoctor)), http.MethodPatch, "/api/v1/patient-doctors/grant/patient/not-a-uuid/doctor/"+uuid.NewString(), "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "BAD_REQUEST", resp.Code)
}

func TestGrantAccessPassesCaller(t *testing.T) {
	doctor := newUser(model.RoleDoctor)
	patientID, doctorID := uuid.New(), uuid.New()
	svc := new(mockService)
	svc.On("GrantAccess", mock.Anything, doctorID, patientID, doctor.ID).
		Return(&model.Connection{Status: model.ConnectionActive}, nil)

	path := "/api/v1/patient-doctors/grant/patient/" + patientID.String() + "/doctor/" + doctorID.String()
	w, _ := send(newEngine(svc, doctor), http.MethodPatch, path, "")

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestRequestByWalletValidatesAddress(t *testing.T) {
	doctor := newUser(model.RoleDoctor)
	svc := new(mockService)

	w, _ := send(newEngine(svc, doctor), http.MethodPost, "/api/v1/patient-doctors/request-by-wallet", `{"patient_wallet_address":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	addr := "0x8ba1f109551bD432803012645Ac136ddd64DBA72"
	svc.On("RequestAccessByWallet", mock.Anything, doctor.ID, addr).
		Return(&model.WalletConnectionResponse{ConnectionCode: "abc"}, nil)

	w, _ = send(newEngine(svc, doctor), http.MethodPost, "/api/v1/patient-doctors/request-by-wallet", `{"patient_wallet_address":"`+addr+`"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	svc.AssertExpectations(t)
}

func TestVerifyAndApprove(t *testing.T) {
	patient := newUser(model.RolePatient)
	connID := uuid.New()
	svc := new(mockService)
	svc.On("VerifyAndApproveConnection", mock.Anything, connID, "0xsig", patient.ID).
		Return(nil, errors.Unauthorized("Invalid signature"))

	w, resp := send(newEngine(svc, patient), http.MethodPost, "/api/v1/patient-doctors/verify-approve",
		`{"connection_id":"`+connID.String()+`","signature":"0xsig"}`)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid signature", resp.Message)
}

func TestRevokeInternalErrorIsMasked(t *testing.T) {
	svc := new(mockService)
	svc.On("RevokeAccess", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, assert.AnError)

	w, resp := send(newEngine(svc, newUser(model.RolePatient)), http.MethodPatch, "/api/v1/patient-doctors/revoke/"+uuid.NewString(), "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL", resp.Code)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}
