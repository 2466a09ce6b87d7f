package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/rpmweb/rpm-api/pkg/errors"
	"github.com/rpmweb/rpm-api/pkg/httputil"
)

// Recovery turns a panic into the standard 500 body.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if p := recover(); p != nil {
				zerolog.Ctx(c.Request.Context()).Error().
					Interface("panic", p).
					Str("stack", string(debug.Stack())).
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Msg("request panic recovered")

				httputil.RespondWithError(c, errors.Internal(fmt.Errorf("panic: %v", p)))
			}
		}()
		c.Next()
	}
}
