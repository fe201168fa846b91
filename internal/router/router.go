package router

import (
	"github.com/gin-gonic/gin"

	"github.com/clinicore/clinic-api/internal/handler"
	appointmenthandler "github.com/clinicore/clinic-api/internal/handler/appointment"
	authhandler "github.com/clinicore/clinic-api/internal/handler/auth"
	doctorhandler "github.com/clinicore/clinic-api/internal/handler/doctor"
	patienthandler "github.com/clinicore/clinic-api/internal/handler/patient"
	schedulehandler "github.com/clinicore/clinic-api/internal/handler/schedule"
	"github.com/clinicore/clinic-api/internal/middleware"
	"github.com/clinicore/clinic-api/pkg/metrics"
)

// Config collects everything the router mounts.
type Config struct {
	Base         *handler.Handler
	Auth         *authhandler.Handler
	Appointments *appointmenthandler.Handler
	Schedules    *schedulehandler.Handler
	Doctors      *doctorhandler.Handler
	Patients     *patienthandler.Handler

	AuthMiddleware *middleware.AuthMiddleware
	RateLimiter    *middleware.RateLimiter
	Metrics        *metrics.Metrics
}

// Setup wires the middleware stack and all route groups.
func Setup(cfg Config) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.RateLimit())
	}

	v1 := r.Group("/api/v1")
	v1.GET("/health/live", cfg.Base.LivenessCheck)
	v1.GET("/health/ready", cfg.Base.ReadinessCheck)
	v1.GET("/metrics", cfg.Base.MetricsHandler)

	cfg.Auth.RegisterPublicRoutes(v1)

	protected := v1.Group("")
	protected.Use(cfg.AuthMiddleware.Authenticate())
	{
		cfg.Auth.RegisterProtectedRoutes(protected, cfg.AuthMiddleware)
		cfg.Appointments.RegisterRoutes(protected, cfg.AuthMiddleware)
		cfg.Schedules.RegisterRoutes(protected, cfg.AuthMiddleware)
		cfg.Doctors.RegisterRoutes(protected, cfg.AuthMiddleware)
		cfg.Patients.RegisterRoutes(protected, cfg.AuthMiddleware)
	}

	return r
}
