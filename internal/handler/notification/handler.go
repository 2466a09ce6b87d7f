package notification

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rpmweb/rpm-api/internal/middleware"
	"github.com/rpmweb/rpm-api/internal/model"
	"github.com/rpmweb/rpm-api/pkg/errors"
	"github.com/rpmweb/rpm-api/pkg/httputil"
)

type Service interface {
	Create(ctx context.Context, req *model.CreateNotificationRequest) (*model.Notification, error)
	CreateBulk(ctx context.Context, req *model.BulkNotificationRequest) ([]*model.Notification, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]*model.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	Get(ctx context.Context, caller *model.User, id uuid.UUID) (*model.Notification, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.Notification, error)
	ListAll(ctx context.Context) ([]*model.Notification, error)
	MarkRead(ctx context.Context, caller *model.User, id uuid.UUID, isRead bool) (*model.Notification, error)
	MarkAllRead(ctx context.Context, caller *model.User, target *uuid.UUID) (int64, error)
	Delete(ctx context.Context, caller *model.User, id uuid.UUID) error
	DeleteAll(ctx context.Context, caller *model.User, target *uuid.UUID) (int64, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	clinicians := middleware.RequireRoles(model.RoleAdmin, model.RoleDoctor)

	notifications := r.Group("/notifications")
	{
		notifications.POST("", clinicians, h.Create)
		notifications.POST("/bulk", clinicians, h.CreateBulk)
		notifications.GET("", middleware.RequireRoles(model.RoleAdmin), h.ListAll)
		notifications.GET("/me", h.ListMine)
		notifications.GET("/me/unread-count", h.UnreadCount)
		notifications.POST("/me/mark-all-read", h.MarkAllRead)
		notifications.DELETE("/me/all", h.DeleteAll)
		notifications.GET("/user/:userId", clinicians, h.ListForUser)
		notifications.GET("/:id", h.Get)
		notifications.PATCH("/:id/read", h.MarkRead)
		notifications.DELETE("/:id", h.Delete)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateNotificationRequest
	if !httputil.BindJSON(c, &req) {
		return
	}

	n, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, n)
}

func (h *Handler) CreateBulk(c *gin.Context) {
	var req model.BulkNotificationRequest
	if !httputil.BindJSON(c, &req) {
		return
	}

	items, err := h.service.CreateBulk(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, items)
}

func (h *Handler) ListAll(c *gin.Context) {
	items, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, items)
}

func (h *Handler) ListMine(c *gin.Context) {
	items, err := h.service.ListMine(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, items)
}

func (h *Handler) UnreadCount(c *gin.Context) {
	count, err := h.service.UnreadCount(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"count": count})
}

// MarkAllRead takes an optional userId query parameter, honoured for admins.
func (h *Handler) MarkAllRead(c *gin.Context) {
	target, ok := queryTarget(c)
	if !ok {
		return
	}

	count, err := h.service.MarkAllRead(c.Request.Context(), middleware.CurrentUser(c), target)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"updated": count})
}

// DeleteAll takes an optional userId query parameter, honoured for admins.
func (h *Handler) DeleteAll(c *gin.Context) {
	target, ok := queryTarget(c)
	if !ok {
		return
	}

	count, err := h.service.DeleteAll(c.Request.Context(), middleware.CurrentUser(c), target)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"deleted": count})
}

func (h *Handler) ListForUser(c *gin.Context) {
	userID, ok := httputil.ParamUUID(c, "userId")
	if !ok {
		return
	}

	items, err := h.service.ListForUser(c.Request.Context(), userID)
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

	n, err := h.service.Get(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, n)
}

func (h *Handler) MarkRead(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req model.MarkReadRequest
	if !httputil.BindJSON(c, &req) {
		return
	}

	n, err := h.service.MarkRead(c.Request.Context(), middleware.CurrentUser(c), id, *req.IsRead)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, n)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, "Notification deleted")
}

func queryTarget(c *gin.Context) (*uuid.UUID, bool) {
	raw := c.Query("userId")
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid userId", err))
		return nil, false
	}
	return &id, true
}
