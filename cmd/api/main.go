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

	"github.com/prometheus/client_golang/prometheus"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/rpmweb/rpm-api/internal/config"
	appointmentHandler "github.com/rpmweb/rpm-api/internal/handler/appointment"
	authHandler "github.com/rpmweb/rpm-api/internal/handler/auth"
	connectionHandler "github.com/rpmweb/rpm-api/internal/handler/connection"
	doctorHandler "github.com/rpmweb/rpm-api/internal/handler/doctor"
	"github.com/rpmweb/rpm-api/internal/handler/health"
	healthDataHandler "github.com/rpmweb/rpm-api/internal/handler/healthdata"
	medicalHandler "github.com/rpmweb/rpm-api/internal/handler/medical"
	notificationHandler "github.com/rpmweb/rpm-api/internal/handler/notification"
	patientHandler "github.com/rpmweb/rpm-api/internal/handler/patient"
	promHandler "github.com/rpmweb/rpm-api/internal/handler/prometheus"
	vitalsHandler "github.com/rpmweb/rpm-api/internal/handler/vitals"
	"github.com/rpmweb/rpm-api/internal/hooks"
	"github.com/rpmweb/rpm-api/internal/middleware"
	"github.com/rpmweb/rpm-api/internal/model"
	"github.com/rpmweb/rpm-api/internal/repository"
	"github.com/rpmweb/rpm-api/internal/repository/postgres"
	"github.com/rpmweb/rpm-api/internal/router"
	appointmentService "github.com/rpmweb/rpm-api/internal/service/appointment"
	authService "github.com/rpmweb/rpm-api/internal/service/auth"
	connectionService "github.com/rpmweb/rpm-api/internal/service/connection"
	doctorService "github.com/rpmweb/rpm-api/internal/service/doctor"
	healthDataService "github.com/rpmweb/rpm-api/internal/service/healthdata"
	"github.com/rpmweb/rpm-api/internal/service/identity"
	medicalService "github.com/rpmweb/rpm-api/internal/service/medical"
	notificationService "github.com/rpmweb/rpm-api/internal/service/notification"
	patientService "github.com/rpmweb/rpm-api/internal/service/patient"
	vitalsService "github.com/rpmweb/rpm-api/internal/service/vitals"
	"github.com/rpmweb/rpm-api/pkg/anchor"
	"github.com/rpmweb/rpm-api/pkg/auth"
	"github.com/rpmweb/rpm-api/pkg/logger"
	"github.com/rpmweb/rpm-api/pkg/messaging"
	"github.com/rpmweb/rpm-api/pkg/messaging/redis"
	"github.com/rpmweb/rpm-api/pkg/metrics"
	"github.com/rpmweb/rpm-api/pkg/pinning"
	"github.com/rpmweb/rpm-api/pkg/validator"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.NewLogger(&logger.Config{
		Level:   logger.ParseLevel(cfg.Log.Level),
		Console: cfg.Log.Console,
	})
	log.SetGlobal()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := validator.RegisterGin(map[string][]string{"readingtype": readingTypes()}); err != nil {
		log.Fatal(err, "failed to register validators")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	m := metrics.NewMetrics("rpm", "api")

	// Repositories
	base := postgres.NewBaseRepository(db)
	userRepo := postgres.NewUserRepository(base)
	patientRepo := postgres.NewPatientRepository(base)
	doctorRepo := postgres.NewDoctorRepository(base)
	connectionRepo := postgres.NewConnectionRepository(base)
	readingRepo := postgres.NewHealthReadingRepository(base)
	vitalRepo := postgres.NewVitalSignRepository(base)
	recordRepo := postgres.NewMedicalRecordRepository(base)
	appointmentRepo := postgres.NewAppointmentRepository(base)
	notificationRepo := postgres.NewNotificationRepository(base)

	checks := map[string]health.Pinger{"database": db}

	var broker messaging.Broker = messaging.NopBroker{}
	if cfg.Redis.URL != "" {
		b, err := redis.NewRedisBroker(ctx, redis.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, log.Zerolog())
		if err != nil {
			log.Warn(err, "redis unavailable, notifications will not be emailed")
		} else {
			broker = b
			if p, ok := b.(interface{ Ping(context.Context) error }); ok {
				checks["redis"] = health.PingFunc(p.Ping)
			}
		}
	}
	defer broker.Close()

	anchorClient := newAnchorClient(ctx, cfg, m, log)
	pin := pinning.NewPinataClient(pinning.Config{
		APIURL:     cfg.Pinata.APIURL,
		GatewayURL: cfg.Pinata.GatewayURL,
		JWT:        cfg.Secrets.PinataJWT,
		Timeout:    cfg.Pinata.Timeout,
	}, m)

	// Identity
	sessions := auth.NewSessionService(cfg.Secrets.WalletJWTSecret, cfg.Auth.WalletIssuer, cfg.Auth.WalletTokenTTL)
	resolver := identity.NewResolver(log, verifiers(cfg, sessions, userRepo)...)

	// Services
	runner := hooks.NewRunner(log, m, 30*time.Second)
	notifier := notificationService.NewService(notificationRepo, userRepo, broker, cfg.Redis.Channel, log, m)
	connectionSvc := connectionService.NewService(connectionRepo, patientRepo, doctorRepo, userRepo, notifier, anchorClient, runner)
	authSvc := authService.NewService(userRepo, resolver, sessions, cfg.Auth.NonceTTL, log)
	patientSvc := patientService.NewService(patientRepo, userRepo)
	doctorSvc := doctorService.NewService(doctorRepo, userRepo)
	healthDataSvc := healthDataService.NewService(readingRepo, vitalRepo, patientRepo, doctorRepo, connectionSvc)
	vitalsSvc := vitalsService.NewService(vitalRepo, patientRepo, connectionRepo, notifier, anchorClient, runner)
	medicalSvc := medicalService.NewService(recordRepo, patientRepo, doctorRepo, pin, notifier, anchorClient, runner)
	appointmentSvc := appointmentService.NewService(appointmentRepo, patientRepo, doctorRepo, notifier, runner)

	r := router.NewRouter(
		resolver,
		health.NewHandler(checks),
		promHandler.New(prometheus.DefaultGatherer),
		router.RouterConfig{
			RateLimitEnabled: cfg.RateLimit.Enabled,
			RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:        cfg.RateLimit.Burst,
			RequestTimeout:   time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
			CORSConfig:       middleware.DefaultCORSConfig(cfg.CORS.AllowedOrigins),
			SizeLimit:        middleware.DefaultSizeLimitConfig(),
			Logger:           *log.Zerolog(),
		},
		authHandler.NewHandler(authSvc),
		patientHandler.NewHandler(patientSvc),
		doctorHandler.NewHandler(doctorSvc),
		connectionHandler.NewHandler(connectionSvc),
		healthDataHandler.NewHandler(healthDataSvc),
		vitalsHandler.NewHandler(vitalsSvc),
		appointmentHandler.NewHandler(appointmentSvc),
		medicalHandler.NewHandler(medicalSvc),
		notificationHandler.NewHandler(notifier),
	)
	r.Setup()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			log.Fatal(err, "failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "server forced to shutdown")
	}

	log.Info("server exited properly")
}

func readingTypes() []string {
	out := make([]string, 0, len(model.ReadingTypes))
	for _, t := range model.ReadingTypes {
		out = append(out, string(t))
	}
	return out
}

// verifiers builds the identity chain. Providers without configuration are
// skipped; wallet sessions are always accepted.
func verifiers(cfg *config.Config, sessions *auth.SessionService, users repository.UserRepository) []identity.TokenVerifier {
	client := &http.Client{Timeout: 10 * time.Second}

	var out []identity.TokenVerifier
	if cfg.Auth.FirebaseProjectID != "" {
		keys := identity.NewX509KeySource(cfg.Auth.FirebaseCertsURL, cfg.Auth.KeyCacheTTL, client)
		out = append(out, identity.NewFirebaseVerifier(cfg.Auth.FirebaseProjectID, keys, users))
	}
	if cfg.Auth.ClerkIssuer != "" && cfg.Auth.ClerkJWKSURL != "" {
		keys := identity.NewJWKSKeySource(cfg.Auth.ClerkJWKSURL, cfg.Auth.KeyCacheTTL, client)
		out = append(out, identity.NewClerkVerifier(cfg.Auth.ClerkIssuer, keys, users))
	}
	return append(out, identity.NewWalletVerifier(sessions, users))
}

func newAnchorClient(ctx context.Context, cfg *config.Config, m *metrics.Metrics, log *logger.Logger) anchor.Client {
	if !cfg.Anchor.Enabled {
		log.Info("hash anchoring disabled")
		return anchor.Noop{}
	}
	client, err := anchor.DialEthereum(ctx, anchor.EthereumConfig{
		RPCURL:     cfg.Anchor.RPCURL,
		ChainID:    cfg.Anchor.ChainID,
		PrivateKey: cfg.Secrets.AnchorPrivateKey,
	})
	if err != nil {
		log.Error(err, "failed to initialise anchoring, continuing without it")
		return anchor.Noop{}
	}
	return anchor.NewGuarded(client, m, 30*time.Second)
}
