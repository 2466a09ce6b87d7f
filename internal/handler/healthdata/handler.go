package healthdata

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
	SubmitReading(ctx context.Context, caller *model.User, req *model.CreateReadingRequest) (*model.HealthReading, error)
	SubmitBatch(ctx context.Context, caller *model.User, req *model.BatchReadingsRequest) ([]*model.HealthReading, error)
	GetOwnReadings(ctx context.Context, userID uuid.UUID, filter model.ReadingFilter) (*model.ReadingsPage, error)
	GetPatientReadings(ctx context.Context, doctorUserID, patientUserID uuid.UUID, filter model.ReadingFilter) (*model.ReadingsPage, error)
	GetLatestVitals(ctx context.Context, caller *model.User, targetUserID uuid.UUID) (*model.LatestVitals, error)
	PublicSample(ctx context.Context) ([]*model.HealthReading, error)
	GenerateSampleData(ctx context.Context, caller *model.User) ([]*model.HealthReading, error)
	ListConnectedPatients(ctx context.Context, doctorUserID uuid.UUID) ([]*model.Patient, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// PublicRoutes lists the routes that do not need a token.
func PublicRoutes(prefix string) []string {
	return []string{http.MethodGet + " " + prefix + "/health-data/public"}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	doctorOnly := middleware.RequireRoles(model.RoleDoctor)

	data := r.Group("/health-data")
	{
		data.POST("", h.SubmitReading)
		data.POST("/batch", h.SubmitBatch)
		data.GET("/me", h.GetOwnReadings)
		data.GET("/patient/:patientUserId", doctorOnly, h.GetPatientReadings)
		data.GET("/patients", doctorOnly, h.ListConnectedPatients)
		data.GET("/latest-vitals/:userId", h.GetLatestVitals)
		data.POST("/sample", h.GenerateSampleData)
		data.GET("/public", h.PublicSample)
	}
}

func (h *Handler) SubmitReading(c *gin.Context) {
	var req model.CreateReadingRequest
	if !httputil.BindJSON(c, &req) {
		return
	}

	reading, err := h.service.SubmitReading(c.Request.Context(), middleware.CurrentUser(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, reading)
}

func (h *Handler) SubmitBatch(c *gin.Context) {
	var req model.BatchReadingsRequest
	if !httputil.BindJSON(c, &req) {
		return
	}

	readings, err := h.service.SubmitBatch(c.Request.Context(), middleware.CurrentUser(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, readings)
}

func (h *Handler) GetOwnReadings(c *gin.Context) {
	var filter model.ReadingFilter
	if !httputil.BindQuery(c, &filter) {
		return
	}

	page, err := h.service.GetOwnReadings(c.Request.Context(), middleware.CurrentUser(c).ID, filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, page)
}

func (h *Handler) GetPatientReadings(c *gin.Context) {
	patientUserID, ok := httputil.ParamUUID(c, "patientUserId")
	if !ok {
		return
	}
	var filter model.ReadingFilter
	if !httputil.BindQuery(c, &filter) {
		return
	}

	page, err := h.service.GetPatientReadings(c.Request.Context(), middleware.CurrentUser(c).ID, patientUserID, filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, page)
}

func (h *Handler) ListConnectedPatients(c *gin.Context) {
	patients, err := h.service.ListConnectedPatients(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, patients)
}

func (h *Handler) GetLatestVitals(c *gin.Context) {
	userID, ok := httputil.ParamUUID(c, "userId")
	if !ok {
		return
	}

	latest, err := h.service.GetLatestVitals(c.Request.Context(), middleware.CurrentUser(c), userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, latest)
}

func (h *Handler) GenerateSampleData(c *gin.Context) {
	readings, err := h.service.GenerateSampleData(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, readings)
}

func (h *Handler) PublicSample(c *gin.Context) {
	readings, err := h.service.PublicSample(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, readings)
}
