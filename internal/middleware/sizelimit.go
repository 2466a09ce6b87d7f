package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rpmweb/rpm-api/pkg/httputil"
)

type SizeLimitConfig struct {
	MaxBodySize   int64
	MaxUploadSize int64
}

func DefaultSizeLimitConfig() SizeLimitConfig {
	return SizeLimitConfig{
		MaxBodySize:   1 << 20,
		MaxUploadSize: 11 << 20, // 10 MiB file plus multipart overhead
	}
}

// SizeLimit caps request bodies. Multipart uploads get the larger limit.
func SizeLimit(config SizeLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := config.MaxBodySize
		if strings.HasPrefix(c.ContentType(), "multipart/") {
			limit = config.MaxUploadSize
		}

		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, httputil.Response{
				Status:  "error",
				Code:    "PAYLOAD_TOO_LARGE",
				Message: fmt.Sprintf("Request body exceeds %d bytes", limit),
			})
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
