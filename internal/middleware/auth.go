package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rpmweb/rpm-api/internal/model"
	"github.com/rpmweb/rpm-api/pkg/errors"
	"github.com/rpmweb/rpm-api/pkg/httputil"
)

const ContextUser = "user"

// Resolver turns a bearer token into the local user.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*model.User, error)
}

type AuthMiddleware struct {
	resolver Resolver
	public   map[string]bool
}

// NewAuthMiddleware builds the authenticator. public lists "METHOD /route"
// pairs, matched against the gin route pattern, that skip authentication.
// A pattern ending in "/*" matches every route below it.
func NewAuthMiddleware(resolver Resolver, public ...string) *AuthMiddleware {
	m := &AuthMiddleware{resolver: resolver, public: make(map[string]bool, len(public))}
	for _, p := range public {
		m.public[p] = true
	}
	return m
}

func (m *AuthMiddleware) isPublic(method, route string) bool {
	if m.public[method+" "+route] {
		return true
	}
	for p := range m.public {
		if prefix, ok := strings.CutSuffix(p, "/*"); ok && strings.HasPrefix(method+" "+route, prefix+"/") {
			return true
		}
	}
	return false
}

// Authenticate resolves the bearer token and stores the caller in the
// context. Public routes pass through untouched.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.isPublic(c.Request.Method, c.FullPath()) {
			c.Next()
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			httputil.RespondWithError(c, errors.Unauthorized("Missing or invalid Authorization header"))
			return
		}
		user, err := m.resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}

		c.Set(ContextUser, user)
		c.Next()
	}
}

// RequireRoles rejects callers whose role is not listed. USER counts as
// PATIENT.
func RequireRoles(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			httputil.RespondWithError(c, errors.Unauthorized("Authentication required"))
			return
		}
		for _, r := range roles {
			if user.Role == r || (r == model.RolePatient && user.Role.IsPatient()) {
				c.Next()
				return
			}
		}
		httputil.RespondWithError(c, errors.Forbidden("You do not have permission to perform this action"))
	}
}

// CurrentUser returns the authenticated caller, or nil on public routes.
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}
