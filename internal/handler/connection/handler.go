package connection

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rpmweb/rpm-api/internal/middleware"
	"github.com/rpmweb/rpm-api/internal/model"
	"github.com/rpmweb/rpm-api/pkg/httputil"
)

type Service interface {
	RequestAccessAsPatient(ctx context.Context, patientUserID, doctorID uuid.UUID) (*model.Connection, error)
	GrantAccess(ctx context.Context, doctorID, patientID, callerUserID uuid.UUID) (*model.Connection, error)
	RevokeAccess(ctx context.Context, connectionID uuid.UUID, caller *model.User) (*model.Connection, error)
	RequestAccessByWallet(ctx context.Context, doctorUserID uuid.UUID, walletAddress string) (*model.WalletConnectionResponse, error)
	VerifyAndApproveConnection(ctx context.Context, connectionID uuid.UUID, signature string, patientUserID uuid.UUID) (*model.Connection, error)
	ListForPatient(ctx context.Context, patientUserID uuid.UUID) ([]*model.Connection, error)
	ListForDoctor(ctx context.Context, doctorUserID uuid.UUID) ([]*model.Connection, error)
	MyPatients(ctx context.Context, doctorUserID uuid.UUID) ([]*model.Connection, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patientOnly := middleware.RequireRoles(model.RolePatient)
	doctorOnly := middleware.RequireRoles(model.RoleDoctor)

	conns := r.Group("/patient-doctors")
	{
		conns.POST("/request/doctor/:doctorId", patientOnly, h.RequestAccess)
		conns.PATCH("/grant/patient/:patientId/doctor/:doctorId", doctorOnly, h.GrantAccess)
		conns.PATCH("/revoke/:id", h.RevokeAccess)
		conns.GET("/patient/my-connections", patientOnly, h.PatientConnections)
		conns.GET("/doctor/my-connections", doctorOnly, h.DoctorConnections)
		conns.GET("/doctor/my-patients", doctorOnly, h.MyPatients)
		conns.POST("/request-by-wallet", doctorOnly, h.RequestByWallet)
		conns.POST("/verify-approve", patientOnly, h.VerifyAndApprove)
	}
}

func (h *Handler) RequestAccess(c *gin.Context) {
	doctorID, ok := httputil.ParamUUID(c, "doctorId")
	if !ok {
		return
	}

	conn, err := h.service.RequestAccessAsPatient(c.Request.Context(), middleware.CurrentUser(c).ID, doctorID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, conn)
}

func (h *Handler) GrantAccess(c *gin.Context) {
	patientID, ok := httputil.ParamUUID(c, "patientId")
	if !ok {
		return
	}
	doctorID, ok := httputil.ParamUUID(c, "doctorId")
	if !ok {
		return
	}

	conn, err := h.service.GrantAccess(c.Request.Context(), doctorID, patientID, middleware.CurrentUser(c).ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, conn)
}

func (h *Handler) RevokeAccess(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	conn, err := h.service.RevokeAccess(c.Request.Context(), id, middleware.CurrentUser(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, conn)
}

func (h *Handler) PatientConnections(c *gin.Context) {
	conns, err := h.service.ListForPatient(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, conns)
}

func (h *Handler) DoctorConnections(c *gin.Context) {
	conns, err := h.service.ListForDoctor(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, conns)
}

func (h *Handler) MyPatients(c *gin.Context) {
	conns, err := h.service.MyPatients(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, conns)
}

func (h *Handler) RequestByWallet(c *gin.Context) {
	var req model.WalletConnectionRequest
	if !httputil.BindJSON(c, &req) {
		return
	}

	resp, err := h.service.RequestAccessByWallet(c.Request.Context(), middleware.CurrentUser(c).ID, req.PatientWalletAddress)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, resp)
}

func (h *Handler) VerifyAndApprove(c *gin.Context) {
	var req model.VerifyConnectionRequest
	if !httputil.BindJSON(c, &req) {
		return
	}

	conn, err := h.service.VerifyAndApproveConnection(c.Request.Context(), req.ConnectionID, req.Signature, middleware.CurrentUser(c).ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, conn)
}
