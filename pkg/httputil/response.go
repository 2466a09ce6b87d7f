package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/rpmweb/rpm-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Status  string      `json:"status"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Status: "success", Data: data})
}

// RespondWithMessage sends a success response that only carries a message.
func RespondWithMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Response{Status: "success", Message: message})
}

// RespondWithError maps err to a status code and writes the error body.
// Errors that are not AppErrors are logged and reported as internal.
func RespondWithError(c *gin.Context, err error) {
	appErr := errors.As(err)
	if appErr == nil {
		appErr = errors.Internal(err)
	}
	if appErr.StatusCode() >= http.StatusInternalServerError {
		log.Error().Err(err).
			Str("path", c.FullPath()).
			Str("request_id", c.GetString("request_id")).
			Msg("request failed")
	}

	message := appErr.Message
	if appErr.Code == errors.ErrBadRequest && appErr.Err != nil {
		message = appErr.Error()
	}

	c.AbortWithStatusJSON(appErr.StatusCode(), Response{
		Status:  "error",
		Code:    appErr.Kind(),
		Message: message,
	})
}

// ParamUUID parses a path parameter and writes a 400 when it is not a UUID.
func ParamUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondWithError(c, errors.BadRequest("invalid "+name, err))
		return uuid.Nil, false
	}
	return id, true
}

// BindJSON binds the body and writes a 400 on failure.
func BindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		RespondWithError(c, errors.BadRequest("invalid request body", err))
		return false
	}
	return true
}

// BindQuery binds query parameters and writes a 400 on failure.
func BindQuery(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		RespondWithError(c, errors.BadRequest("invalid query parameters", err))
		return false
	}
	return true
}
