package vitals

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
	Create(ctx context.Context, caller *model.User, req *model.CreateVitalSignRequest) (*model.VitalSign, error)
	List(ctx context.Context, page model.Pagination) ([]*model.VitalSign, error)
	ListByPatient(ctx context.Context, caller *model.User, patientID uuid.UUID) ([]*model.VitalSign, error)
	Get(ctx context.Context, caller *model.User, id uuid.UUID) (*model.VitalSign, error)
	Update(ctx context.Context, caller *model.User, id uuid.UUID, req *model.UpdateVitalSignRequest) (*model.VitalSign, error)
	Verify(ctx context.Context, caller *model.User, id uuid.UUID) (*model.VerificationResult, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	vitals := r.Group("/vital-signs")
	{
		vitals.POST("", h.Create)
		vitals.GET("", middleware.RequireRoles(model.RoleAdmin, model.RoleDoctor), h.List)
		vitals.GET("/patient/:patientId", h.ListByPatient)
		vitals.GET("/:id", h.Get)
		vitals.PATCH("/:id", h.Update)
		vitals.GET("/:id/verify", h.Verify)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateVitalSignRequest
	if !httputil.BindJSON(c, &req) {
		return
	}

	v, err := h.service.Create(c.Request.Context(), middleware.CurrentUser(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, v)
}

func (h *Handler) List(c *gin.Context) {
	var page model.Pagination
	if !httputil.BindQuery(c, &page) {
		return
	}

	items, err := h.service.List(c.Request.Context(), page)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, items)
}

func (h *Handler) ListByPatient(c *gin.Context) {
	patientID, ok := httputil.ParamUUID(c, "patientId")
	if !ok {
		return
	}

	items, err := h.service.ListByPatient(c.Request.Context(), middleware.CurrentUser(c), patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, items)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	v, err := h.service.Get(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, v)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateVitalSignRequest
	if !httputil.BindJSON(c, &req) {
		return
	}

	v, err := h.service.Update(c.Request.Context(), middleware.CurrentUser(c), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, v)
}

func (h *Handler) Verify(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.Verify(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, result)
}
