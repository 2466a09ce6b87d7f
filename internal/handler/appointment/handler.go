package appointment

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
	Create(ctx context.Context, caller *model.User, req *model.CreateAppointmentRequest) (*model.Appointment, error)
	List(ctx context.Context) ([]*model.Appointment, error)
	ListByPatient(ctx context.Context, caller *model.User, patientID uuid.UUID) ([]*model.Appointment, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Appointment, error)
	Get(ctx context.Context, caller *model.User, id uuid.UUID) (*model.Appointment, error)
	Update(ctx context.Context, caller *model.User, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error)
	Delete(ctx context.Context, caller *model.User, id uuid.UUID) error
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	clinicians := middleware.RequireRoles(model.RoleAdmin, model.RoleDoctor)

	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.CreateAppointment)
		appointments.GET("", clinicians, h.ListAppointments)
		appointments.GET("/patient/:patientId", h.ListPatientAppointments)
		appointments.GET("/doctor/:doctorId", clinicians, h.ListDoctorAppointments)
		appointments.GET("/:id", h.GetAppointment)
		appointments.PATCH("/:id", h.UpdateAppointment)
		appointments.DELETE("/:id", clinicians, h.DeleteAppointment)
	}
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if !httputil.BindJSON(c, &req) {
		return
	}

	appointment, err := h.service.Create(c.Request.Context(), middleware.CurrentUser(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, appointment)
}

func (h *Handler) ListAppointments(c *gin.Context) {
	appointments, err := h.service.List(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, appointments)
}

func (h *Handler) ListPatientAppointments(c *gin.Context) {
	patientID, ok := httputil.ParamUUID(c, "patientId")
	if !ok {
		return
	}

	appointments, err := h.service.ListByPatient(c.Request.Context(), middleware.CurrentUser(c), patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, appointments)
}

func (h *Handler) ListDoctorAppointments(c *gin.Context) {
	doctorID, ok := httputil.ParamUUID(c, "doctorId")
	if !ok {
		return
	}

	appointments, err := h.service.ListByDoctor(c.Request.Context(), doctorID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, appointments)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	appointment, err := h.service.Get(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, appointment)
}

func (h *Handler) UpdateAppointment(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateAppointmentRequest
	if !httputil.BindJSON(c, &req) {
		return
	}

	appointment, err := h.service.Update(c.Request.Context(), middleware.CurrentUser(c), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, appointment)
}

func (h *Handler) DeleteAppointment(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, "Appointment deleted")
}
