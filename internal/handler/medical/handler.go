package medical

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rpmweb/rpm-api/internal/middleware"
	"github.com/rpmweb/rpm-api/internal/model"
	"github.com/rpmweb/rpm-api/internal/service/medical"
	"github.com/rpmweb/rpm-api/pkg/errors"
	"github.com/rpmweb/rpm-api/pkg/httputil"
)

type Service interface {
	Create(ctx context.Context, caller *model.User, req *model.CreateMedicalRecordRequest) (*model.MedicalRecord, error)
	List(ctx context.Context) ([]*model.MedicalRecord, error)
	ListByPatient(ctx context.Context, caller *model.User, patientID uuid.UUID) ([]*model.MedicalRecord, error)
	Get(ctx context.Context, caller *model.User, id uuid.UUID) (*model.MedicalRecord, error)
	Update(ctx context.Context, caller *model.User, id uuid.UUID, req *model.UpdateMedicalRecordRequest) (*model.MedicalRecord, error)
	Delete(ctx context.Context, caller *model.User, id uuid.UUID) error
	Verify(ctx context.Context, caller *model.User, id uuid.UUID) (*model.VerificationResult, error)
	AddFile(ctx context.Context, caller *model.User, recordID uuid.UUID, up *medical.Upload) (*model.MedicalRecordFile, error)
	ListFiles(ctx context.Context, caller *model.User, recordID uuid.UUID) (model.Attachments, error)
	GetFile(ctx context.Context, caller *model.User, recordID, fileID uuid.UUID) (*model.FileDetails, error)
	RemoveFile(ctx context.Context, caller *model.User, recordID, fileID uuid.UUID) error
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	clinicians := middleware.RequireRoles(model.RoleAdmin, model.RoleDoctor)

	records := r.Group("/medical-records")
	{
		records.POST("", clinicians, h.Create)
		records.GET("", clinicians, h.List)
		records.GET("/patient/:patientId", h.ListByPatient)
		records.GET("/:id", h.Get)
		records.PATCH("/:id", clinicians, h.Update)
		records.DELETE("/:id", middleware.RequireRoles(model.RoleAdmin), h.Delete)
		records.GET("/:id/verify", h.Verify)

		records.POST("/:id/files", clinicians, h.AddFile)
		records.GET("/:id/files", h.ListFiles)
		records.GET("/:id/files/:fileId", h.GetFile)
		records.DELETE("/:id/files/:fileId", clinicians, h.RemoveFile)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateMedicalRecordRequest
	if !httputil.BindJSON(c, &req) {
		return
	}

	record, err := h.service.Create(c.Request.Context(), middleware.CurrentUser(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, record)
}

func (h *Handler) List(c *gin.Context) {
	records, err := h.service.List(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, records)
}

func (h *Handler) ListByPatient(c *gin.Context) {
	patientID, ok := httputil.ParamUUID(c, "patientId")
	if !ok {
		return
	}

	records, err := h.service.ListByPatient(c.Request.Context(), middleware.CurrentUser(c), patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, records)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	record, err := h.service.Get(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, record)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateMedicalRecordRequest
	if !httputil.BindJSON(c, &req) {
		return
	}

	record, err := h.service.Update(c.Request.Context(), middleware.CurrentUser(c), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, record)
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

	httputil.RespondWithMessage(c, "Medical record deleted")
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

// AddFile takes a multipart upload in the "file" field.
func (h *Handler) AddFile(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("file is required", err))
		return
	}
	if fh.Size > model.MaxAttachmentSize {
		httputil.RespondWithError(c, errors.BadRequest("File exceeds the 10 MB limit", nil))
		return
	}
	f, err := fh.Open()
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("unreadable file", err))
		return
	}
	defer f.Close()

	file, err := h.service.AddFile(c.Request.Context(), middleware.CurrentUser(c), id, &medical.Upload{
		Name:     fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Size:     fh.Size,
		Content:  f,
	})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, file)
}

func (h *Handler) ListFiles(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	files, err := h.service.ListFiles(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, files)
}

func (h *Handler) GetFile(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}
	fileID, ok := httputil.ParamUUID(c, "fileId")
	if !ok {
		return
	}

	details, err := h.service.GetFile(c.Request.Context(), middleware.CurrentUser(c), id, fileID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, details)
}

func (h *Handler) RemoveFile(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}
	fileID, ok := httputil.ParamUUID(c, "fileId")
	if !ok {
		return
	}

	if err := h.service.RemoveFile(c.Request.Context(), middleware.CurrentUser(c), id, fileID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, "File removed")
}
