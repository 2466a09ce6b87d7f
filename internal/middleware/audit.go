package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// AuditLog writes one audit entry per authenticated request that touches
// patient data. entities maps a route prefix (below the API base path) to
// the entity type recorded in the entry.
func AuditLog(basePath string, entities map[string]string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		user := CurrentUser(c)
		if user == nil {
			return
		}
		route := strings.TrimPrefix(c.FullPath(), basePath)
		entity := auditEntity(route, entities)
		if entity == "" {
			return
		}

		event := zerolog.Ctx(c.Request.Context()).Info().
			Bool("audit", true).
			Str("user_id", user.ID.String()).
			Str("role", string(user.Role)).
			Str("action", auditAction(c.Request.Method)).
			Str("entity", entity).
			Str("route", c.FullPath()).
			Int("status", c.Writer.Status())
		for _, p := range c.Params {
			event = event.Str("param_"+p.Key, p.Value)
		}
		event.Msg("phi access")
	}
}

func auditEntity(route string, entities map[string]string) string {
	best, entity := 0, ""
	for prefix, e := range entities {
		if (route == prefix || strings.HasPrefix(route, prefix+"/")) && len(prefix) > best {
			best, entity = len(prefix), e
		}
	}
	return entity
}

func auditAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}
