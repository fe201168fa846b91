package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinicore/clinic-api/internal/config"
	"github.com/clinicore/clinic-api/internal/handler"
	appointmenthandler "github.com/clinicore/clinic-api/internal/handler/appointment"
	authhandler "github.com/clinicore/clinic-api/internal/handler/auth"
	doctorhandler "github.com/clinicore/clinic-api/internal/handler/doctor"
	patienthandler "github.com/clinicore/clinic-api/internal/handler/patient"
	schedulehandler "github.com/clinicore/clinic-api/internal/handler/schedule"
	"github.com/clinicore/clinic-api/internal/middleware"
	"github.com/clinicore/clinic-api/internal/repository/postgres"
	redisrepo "github.com/clinicore/clinic-api/internal/repository/redis"
	"github.com/clinicore/clinic-api/internal/router"
	authservice "github.com/clinicore/clinic-api/internal/service/auth"
	doctorservice "github.com/clinicore/clinic-api/internal/service/doctor"
	"github.com/clinicore/clinic-api/internal/service/notification"
	patientservice "github.com/clinicore/clinic-api/internal/service/patient"
	scheduleservice "github.com/clinicore/clinic-api/internal/service/schedule"
	"github.com/clinicore/clinic-api/internal/service/scheduling"
	"github.com/clinicore/clinic-api/pkg/auth"
	"github.com/clinicore/clinic-api/pkg/logger"
	"github.com/clinicore/clinic-api/pkg/metrics"
	"github.com/clinicore/clinic-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Pretty)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	redisClient, err := redisrepo.NewClient(cfg.Redis.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()

	// Repositories
	doctorRepo := postgres.NewDoctorRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	scheduleRepo := postgres.NewScheduleRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	userRepo := postgres.NewUserRepository(db)
	tokenRepo := redisrepo.NewTokenRepository(redisClient)

	// Shared infrastructure
	m := metrics.NewMetrics("clinic")
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.RefreshSecret, cfg.JWT.Expiry, cfg.JWT.RefreshExpiry)
	hasher := security.NewBcryptHasher(bcrypt.DefaultCost)

	notifier := notification.NewNoop()
	if cfg.SMTP.Enabled {
		notifier = notification.NewEmailService(cfg.SMTP)
	}

	// Services
	scheduleValidator := scheduling.NewScheduleValidator(scheduleRepo, cfg.Scheduling.ScheduleCacheTTL)
	conflicts := scheduling.NewConflictDetector(appointmentRepo)
	scheduler := scheduling.NewService(
		appointmentRepo, patientRepo, doctorRepo,
		scheduleValidator, conflicts, notifier, m,
		scheduling.Config{EnforceFutureOnly: cfg.Scheduling.EnforceFutureOnly},
	)
	queryEngine := scheduling.NewQueryEngine(appointmentRepo, m)
	scheduleSvc := scheduleservice.NewService(scheduleRepo, doctorRepo, scheduleValidator)
	doctorSvc := doctorservice.NewService(doctorRepo)
	patientSvc := patientservice.NewService(patientRepo)
	authSvc := authservice.NewService(userRepo, doctorRepo, tokenRepo, jwtSvc, hasher, cfg.JWT.RefreshExpiry)

	// HTTP surface
	authMw := middleware.NewAuthMiddleware(authSvc)
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RPS:   cfg.RateLimit.RPS,
		Burst: cfg.RateLimit.Burst,
	})

	engine := router.Setup(router.Config{
		Base:           handler.NewHandler(db),
		Auth:           authhandler.NewHandler(authSvc),
		Appointments:   appointmenthandler.NewHandler(scheduler, queryEngine),
		Schedules:      schedulehandler.NewHandler(scheduleSvc),
		Doctors:        doctorhandler.NewHandler(doctorSvc),
		Patients:       patienthandler.NewHandler(patientSvc),
		AuthMiddleware: authMw,
		RateLimiter:    rateLimiter,
		Metrics:        m,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited")
}
