package patient

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
	Create(ctx context.Context, caller *model.User, req *model.CreatePatientRequest) (*model.Patient, error)
	List(ctx context.Context) ([]*model.Patient, error)
	Get(ctx context.Context, caller *model.User, id uuid.UUID) (*model.Patient, error)
	Profile(ctx context.Context, userID uuid.UUID) (*model.Patient, error)
	Update(ctx context.Context, caller *model.User, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.POST("", h.CreatePatient)
		patients.GET("", middleware.RequireRoles(model.RoleAdmin, model.RoleDoctor), h.ListPatients)
		patients.GET("/profile", middleware.RequireRoles(model.RolePatient), h.GetProfile)
		patients.GET("/:id", h.GetPatient)
		patients.PATCH("/:id", h.UpdatePatient)
		patients.DELETE("/:id", middleware.RequireRoles(model.RoleAdmin), h.DeletePatient)
	}
}

func (h *Handler) CreatePatient(c *gin.Context) {
	var req model.CreatePatientRequest
	if !httputil.BindJSON(c, &req) {
		return
	}

	p, err := h.service.Create(c.Request.Context(), middleware.CurrentUser(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, p)
}

func (h *Handler) ListPatients(c *gin.Context) {
	patients, err := h.service.List(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, patients)
}

func (h *Handler) GetProfile(c *gin.Context) {
	p, err := h.service.Profile(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, p)
}

func (h *Handler) GetPatient(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.service.Get(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, p)
}

func (h *Handler) UpdatePatient(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req model.UpdatePatientRequest
	if !httputil.BindJSON(c, &req) {
		return
	}

	p, err := h.service.Update(c.Request.Context(), middleware.CurrentUser(c), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, p)
}

func (h *Handler) DeletePatient(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, "Patient deleted")
}
