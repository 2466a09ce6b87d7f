package medical

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpmweb/rpm-api/internal/middleware"
	"github.com/rpmweb/rpm-api/internal/model"
	"github.com/rpmweb/rpm-api/internal/service/medical"
	"github.com/rpmweb/rpm-api/pkg/errors"
)

// fakeService implements only the file operations; anything else panics.
type fakeService struct {
	Service

	gotRecord  uuid.UUID
	gotName    string
	gotType    string
	gotContent []byte
	removeErr  error
}

func (f *fakeService) AddFile(_ context.Context, _ *model.User, recordID uuid.UUID, up *medical.Upload) (*model.MedicalRecordFile, error) {
	f.gotRecord = recordID
	f.gotName = up.Name
	f.gotType = up.MimeType
	content, err := io.ReadAll(up.Content)
	if err != nil {
		return nil, err
	}
	f.gotContent = content
	return &model.MedicalRecordFile{ID: uuid.New(), Name: up.Name, Size: up.Size, IPFSHash: "QmTest"}, nil
}

func (f *fakeService) RemoveFile(context.Context, *model.User, uuid.UUID, uuid.UUID) error {
	return f.removeErr
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(svc Service, role model.Role) *gin.Engine {
	caller := &model.User{Name: "caller", Role: role}
	caller.ID = uuid.New()

	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUser, caller)
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(engine.Group(""))
	return engine
}

func multipartBody(t *testing.T, field, name string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestAddFileStreamsUpload(t *testing.T) {
	svc := &fakeService{}
	recordID := uuid.New()
	body, contentType := multipartBody(t, "file", "scan.pdf", []byte("%PDF-1.4 test"))

	req := httptest.NewRequest(http.MethodPost, "/medical-records/"+recordID.String()+"/files", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	newEngine(svc, model.RoleDoctor).ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, recordID, svc.gotRecord)
	assert.Equal(t, "scan.pdf", svc.gotName)
	assert.Equal(t, "application/octet-stream", svc.gotType)
	assert.Equal(t, []byte("%PDF-1.4 test"), svc.gotContent)
	assert.Contains(t, w.Body.String(), "QmTest")
}

func TestAddFileRequiresFileField(t *testing.T) {
	body, contentType := multipartBody(t, "other", "scan.pdf", []byte("x"))

	req := httptest.NewRequest(http.MethodPost, "/medical-records/"+uuid.NewString()+"/files", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	newEngine(&fakeService{}, model.RoleDoctor).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddFileNeedsClinician(t *testing.T) {
	body, contentType := multipartBody(t, "file", "scan.pdf", []byte("x"))

	req := httptest.NewRequest(http.MethodPost, "/medical-records/"+uuid.NewString()+"/files", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	newEngine(&fakeService{}, model.RolePatient).ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRemoveFileMapsErrors(t *testing.T) {
	svc := &fakeService{removeErr: errors.NotFound("File not found", nil)}

	req := httptest.NewRequest(http.MethodDelete, "/medical-records/"+uuid.NewString()+"/files/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	newEngine(svc, model.RoleAdmin).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "File not found")
}
