package doctor

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
	Create(ctx context.Context, caller *model.User, req *model.CreateDoctorRequest) (*model.Doctor, error)
	List(ctx context.Context) ([]*model.Doctor, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
	Profile(ctx context.Context, userID uuid.UUID) (*model.Doctor, error)
	Update(ctx context.Context, caller *model.User, id uuid.UUID, req *model.UpdateDoctorRequest) (*model.Doctor, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	doctors := r.Group("/doctors")
	{
		doctors.POST("", middleware.RequireRoles(model.RoleAdmin, model.RoleDoctor), h.CreateDoctor)
		doctors.GET("", h.ListDoctors)
		doctors.GET("/profile", middleware.RequireRoles(model.RoleDoctor), h.GetProfile)
		doctors.GET("/:id", h.GetDoctor)
		doctors.PATCH("/:id", middleware.RequireRoles(model.RoleAdmin, model.RoleDoctor), h.UpdateDoctor)
		doctors.DELETE("/:id", middleware.RequireRoles(model.RoleAdmin), h.DeleteDoctor)
	}
}

func (h *Handler) CreateDoctor(c *gin.Context) {
	var req model.CreateDoctorRequest
	if !httputil.BindJSON(c, &req) {
		return
	}

	d, err := h.service.Create(c.Request.Context(), middleware.CurrentUser(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, d)
}

func (h *Handler) ListDoctors(c *gin.Context) {
	doctors, err := h.service.List(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, doctors)
}

func (h *Handler) GetProfile(c *gin.Context) {
	d, err := h.service.Profile(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, d)
}

func (h *Handler) GetDoctor(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	d, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, d)
}

func (h *Handler) UpdateDoctor(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateDoctorRequest
	if !httputil.BindJSON(c, &req) {
		return
	}

	d, err := h.service.Update(c.Request.Context(), middleware.CurrentUser(c), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, d)
}

func (h *Handler) DeleteDoctor(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, "Doctor deleted")
}
