package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	zlog "github.com/rs/zerolog/log"

	"github.com/rpmweb/rpm-api/internal/config"
	"github.com/rpmweb/rpm-api/internal/email"
	"github.com/rpmweb/rpm-api/internal/handler/health"
	promHandler "github.com/rpmweb/rpm-api/internal/handler/prometheus"
	"github.com/rpmweb/rpm-api/internal/middleware"
	"github.com/rpmweb/rpm-api/pkg/logger"
	"github.com/rpmweb/rpm-api/pkg/messaging/redis"
	"github.com/rpmweb/rpm-api/pkg/metrics"
	"github.com/rpmweb/rpm-api/pkg/worker"
)

// setupHealthCheck serves the probes and metrics of the worker on its own
// port.
func setupHealthCheck(port int, checks map[string]health.Pinger, log *logger.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(middleware.RequestID(*log.Zerolog()), middleware.Recovery())

	metricsH := promHandler.New(prometheus.DefaultGatherer)
	engine.GET("/metrics", metricsH.Handler())
	health.NewHandler(checks).RegisterRoutes(engine.Group(""))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			log.Fatal(err, "health check server failed")
		}
	}()
	return srv
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.NewLogger(&logger.Config{
		Level:   logger.ParseLevel(cfg.Log.Level),
		Console: cfg.Log.Console,
	}).WithFields(map[string]interface{}{"component": "notification-worker"})
	log.SetGlobal()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	broker, err := redis.NewRedisBroker(ctx, redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, log.Zerolog())
	if err != nil {
		log.Fatal(err, "failed to create Redis broker")
	}
	defer broker.Close()

	checks := map[string]health.Pinger{}
	if p, ok := broker.(interface{ Ping(context.Context) error }); ok {
		checks["redis"] = health.PingFunc(p.Ping)
	}
	healthSrv := setupHealthCheck(cfg.Worker.HealthPort, checks, log)

	mailer := email.NewSMTPService(email.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.Secrets.SMTPPassword,
		From:     cfg.SMTP.From,
	})

	dispatcher := worker.NewNotificationDispatcher(
		broker,
		mailer,
		worker.DispatcherConfig{
			Channel:       cfg.Redis.Channel,
			RetryAttempts: cfg.Worker.RetryAttempts,
			RetryDelay:    cfg.Worker.RetryDelay,
		},
		log,
		metrics.NewMetrics("rpm", "worker"),
	)

	if err := dispatcher.Start(ctx); err != nil {
		log.Error(err, "notification dispatcher stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "health check server forced to shutdown")
	}
	log.Info("worker exited")
}
