package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	authHandler "github.com/rpmweb/rpm-api/internal/handler/auth"
	"github.com/rpmweb/rpm-api/internal/handler/health"
	"github.com/rpmweb/rpm-api/internal/handler/healthdata"
	"github.com/rpmweb/rpm-api/internal/handler/prometheus"
	"github.com/rpmweb/rpm-api/internal/middleware"
	"github.com/rpmweb/rpm-api/pkg/httputil"
)

const BasePath = "/api/v1"

// auditedEntities are the route prefixes whose access is audit logged.
var auditedEntities = map[string]string{
	"/patients":        "patient",
	"/patient-doctors": "connection",
	"/health-data":     "health_reading",
	"/vital-signs":     "vital_sign",
	"/medical-records": "medical_record",
	"/appointments":    "appointment",
}

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	health   *health.Handler
	metrics  *prometheus.Handler
	handlers []Handler
}

type RouterConfig struct {
	RateLimitEnabled bool
	RateLimit        rate.Limit
	RateBurst        int
	RequestTimeout   time.Duration
	CORSConfig       middleware.CORSConfig
	SizeLimit        middleware.SizeLimitConfig
	Logger           zerolog.Logger
}

// PublicRoutes is the allow-list of routes reachable without a token.
func PublicRoutes() []string {
	public := []string{http.MethodGet + " " + BasePath + "/"}
	public = append(public, authHandler.PublicRoutes(BasePath)...)
	public = append(public, healthdata.PublicRoutes(BasePath)...)
	return public
}

func NewRouter(
	resolver middleware.Resolver,
	healthH *health.Handler,
	metrics *prometheus.Handler,
	config RouterConfig,
	handlers ...Handler,
) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()

	r := &Router{
		engine:   engine,
		auth:     middleware.NewAuthMiddleware(resolver, PublicRoutes()...),
		health:   healthH,
		metrics:  metrics,
		handlers: handlers,
	}

	engine.Use(
		middleware.RequestID(config.Logger),
		middleware.Recovery(),
		middleware.Logger(),
		metrics.Middleware(),
		middleware.SecurityHeaders(),
		middleware.CORS(config.CORSConfig),
		middleware.SizeLimit(config.SizeLimit),
		middleware.Timeout(config.RequestTimeout),
	)

	if config.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, httputil.Response{Status: "error", Code: "NOT_FOUND", Message: "Route not found"})
	})

	return r
}

func (r *Router) Setup() {
	r.engine.GET("/metrics", r.metrics.Handler())

	api := r.engine.Group(BasePath)

	// Probes are registered before authentication is attached.
	r.health.RegisterRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate(), middleware.AuditLog(BasePath, auditedEntities))

	protected.GET("/", r.welcome)
	for _, h := range r.handlers {
		h.RegisterRoutes(protected)
	}
}

func (r *Router) welcome(c *gin.Context) {
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{
		"name":    "Remote Patient Monitoring API",
		"version": "v1",
	})
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
